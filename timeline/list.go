package timeline

import "sort"

// Query filters an event list. Nil bounds mean unbounded; both bounds are
// inclusive, matching how callers address point events at window edges.
type Query struct {
	FromMS *int
	ToMS   *int
	Type   *EventType
}

// List is a committed, immutable event collection, held sorted by time
// ascending with ties in insertion order.
type List struct {
	events []Event
}

// NewList builds a List from events in insertion order. Sorting is stable, so
// equal timestamps keep their insertion order.
func NewList(events []Event) *List {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimeMS < sorted[j].TimeMS
	})
	return &List{events: sorted}
}

// Len returns the total number of events.
func (l *List) Len() int { return len(l.events) }

// All returns every event in order.
func (l *List) All() []Event { return l.Select(Query{}) }

// Select returns the events matching q, in time order.
func (l *List) Select(q Query) []Event {
	// Sorted by time, so the lower bound is a binary search.
	start := 0
	if q.FromMS != nil {
		start = sort.Search(len(l.events), func(i int) bool {
			return l.events[i].TimeMS >= *q.FromMS
		})
	}

	out := make([]Event, 0)
	for _, e := range l.events[start:] {
		if q.ToMS != nil && e.TimeMS > *q.ToMS {
			break
		}
		if q.Type != nil && e.Type != *q.Type {
			continue
		}
		out = append(out, e)
	}
	return out
}
