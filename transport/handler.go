// Package transport exposes the analysis read API over HTTP. Chunk payloads
// travel base64-encoded inside JSON; the bytes on the wire decode to exactly
// the bytes in storage.
package transport

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/hupe1980/framecast"
	"github.com/hupe1980/framecast/chunkstore"
	"github.com/hupe1980/framecast/manifest"
	"github.com/hupe1980/framecast/timeline"
)

// PrincipalFunc extracts the authenticated caller from a request. Returning
// false yields a 401 before any lookup happens.
type PrincipalFunc func(r *http.Request) (uuid.UUID, bool)

// Handler serves the analysis read API.
type Handler struct {
	svc       *framecast.Service
	principal PrincipalFunc
	limiter   *RateLimiter
	logger    *slog.Logger
	mux       *http.ServeMux
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithRateLimiter enables per-principal request limiting.
func WithRateLimiter(rl *RateLimiter) HandlerOption {
	return func(h *Handler) { h.limiter = rl }
}

// WithHandlerLogger sets a structured logger for request failures.
func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

// NewHandler creates the HTTP handler for the analysis read API.
func NewHandler(svc *framecast.Service, principal PrincipalFunc, opts ...HandlerOption) *Handler {
	h := &Handler{
		svc:       svc,
		principal: principal,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /analysis/{analysis_id}/manifest", h.handleManifest)
	mux.HandleFunc("GET /analysis/{analysis_id}/frames", h.handleFrames)
	mux.HandleFunc("GET /analysis/{analysis_id}/events", h.handleEvents)
	mux.HandleFunc("GET /analysis/{analysis_id}/chunks/{chunk_index}", h.handleChunk)
	mux.HandleFunc("DELETE /analysis/{analysis_id}", h.handleDelete)
	h.mux = mux
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Error envelope. Codes are stable API surface; messages are not.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

const (
	codeInvalidRequest = "invalid_request"
	codeInvalidRange   = "invalid_range"
	codeNotFound       = "not_found"
	codeChunkNotFound  = "chunk_not_found"
	codeUnauthorized   = "unauthorized"
	codeRateLimited    = "rate_limited"
	codeInternal       = "internal"
)

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}})
}

// writeServiceError maps service errors onto the wire. Internal detail never
// reaches the body; it is logged instead.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var cnf *framecast.ErrChunkNotFound
	if errors.As(err, &cnf) {
		h.writeError(w, http.StatusNotFound, codeChunkNotFound, cnf.Error())
		return
	}

	var ir *framecast.ErrInvalidRange
	if errors.As(err, &ir) {
		h.writeError(w, http.StatusBadRequest, codeInvalidRange, ir.Error())
		return
	}

	if errors.Is(err, framecast.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, codeNotFound, "analysis not found")
		return
	}

	h.logger.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	h.writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

// authorize runs the per-request gate: principal extraction first, then rate
// limiting keyed by principal.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	principal, ok := h.principal(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, codeUnauthorized, "authentication required")
		return uuid.Nil, false
	}
	if h.limiter != nil && !h.limiter.Allow(principal) {
		h.writeError(w, http.StatusTooManyRequests, codeRateLimited, "too many requests")
		return uuid.Nil, false
	}
	return principal, true
}

func (h *Handler) analysisID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("analysis_id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, codeInvalidRequest, "analysis_id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) handleManifest(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.authorize(w, r)
	if !ok {
		return
	}
	id, ok := h.analysisID(w, r)
	if !ok {
		return
	}

	m, err := h.svc.Manifest(r.Context(), principal, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, m)
}

type chunkDTO struct {
	ChunkIndex  int    `json:"chunk_index"`
	StartFrame  int    `json:"start_frame"`
	EndFrame    int    `json:"end_frame"`
	StartTimeMS int    `json:"start_time_ms"`
	EndTimeMS   int    `json:"end_time_ms"`
	FrameCount  int    `json:"frame_count"`
	DataBase64  string `json:"data_base64"`
}

type timeRangeDTO struct {
	FromMS int `json:"from_ms"`
	ToMS   int `json:"to_ms"`
}

type framesResponse struct {
	Manifest       *manifest.Manifest `json:"manifest"`
	RequestedRange timeRangeDTO       `json:"requested_range"`
	ActualRange    timeRangeDTO       `json:"actual_range"`
	Chunks         []chunkDTO         `json:"chunks"`
	TotalFrames    int                `json:"total_frames"`
	TotalBytes     int                `json:"total_bytes"`
}

func toChunkDTO(c *chunkstore.Chunk) chunkDTO {
	return chunkDTO{
		ChunkIndex:  c.ChunkIndex,
		StartFrame:  c.StartFrame,
		EndFrame:    c.EndFrame,
		StartTimeMS: c.StartTimeMS,
		EndTimeMS:   c.EndTimeMS,
		FrameCount:  c.FrameCount(),
		DataBase64:  base64.StdEncoding.EncodeToString(c.Payload),
	}
}

func (h *Handler) handleFrames(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.authorize(w, r)
	if !ok {
		return
	}
	id, ok := h.analysisID(w, r)
	if !ok {
		return
	}

	fromMS, _, err := intParam(r, "from_ms")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, codeInvalidRequest, "from_ms must be an integer")
		return
	}
	toMS, toSet, err := intParam(r, "to_ms")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, codeInvalidRequest, "to_ms must be an integer")
		return
	}

	q := framecast.FrameQuery{FromMS: fromMS, ToMS: toMS}
	if bands := r.URL.Query().Get("bands"); bands != "" {
		q.Bands = strings.Split(bands, ",")
	}

	if !toSet {
		// Absent to_ms means "to the end". An explicit value is passed
		// through untouched, even a negative one; the resolver clamps and
		// rejects empty windows.
		m, err := h.svc.Manifest(r.Context(), principal, id)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		q.ToMS = m.DurationMS
	}

	res, err := h.svc.Frames(r.Context(), principal, id, q)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	chunks := make([]chunkDTO, len(res.Chunks))
	for i, c := range res.Chunks {
		chunks[i] = toChunkDTO(c)
	}
	h.writeJSON(w, framesResponse{
		Manifest:       res.Manifest,
		RequestedRange: timeRangeDTO(res.Requested),
		ActualRange:    timeRangeDTO(res.Actual),
		Chunks:         chunks,
		TotalFrames:    res.TotalFrames,
		TotalBytes:     res.TotalBytes,
	})
}

type eventsResponse struct {
	AnalysisID uuid.UUID        `json:"analysis_id"`
	Events     []timeline.Event `json:"events"`
	Count      int              `json:"count"`
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.authorize(w, r)
	if !ok {
		return
	}
	id, ok := h.analysisID(w, r)
	if !ok {
		return
	}

	var q timeline.Query
	if v := r.URL.Query().Get("from_ms"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, codeInvalidRequest, "from_ms must be an integer")
			return
		}
		q.FromMS = &n
	}
	if v := r.URL.Query().Get("to_ms"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, codeInvalidRequest, "to_ms must be an integer")
			return
		}
		q.ToMS = &n
	}
	if v := r.URL.Query().Get("type"); v != "" {
		t := timeline.EventType(v)
		if !t.Valid() {
			h.writeError(w, http.StatusBadRequest, codeInvalidRequest, "unknown event type")
			return
		}
		q.Type = &t
	}

	events, err := h.svc.Events(r.Context(), principal, id, q)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, eventsResponse{AnalysisID: id, Events: events, Count: len(events)})
}

func (h *Handler) handleChunk(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.authorize(w, r)
	if !ok {
		return
	}
	id, ok := h.analysisID(w, r)
	if !ok {
		return
	}

	chunkIndex, err := strconv.Atoi(r.PathValue("chunk_index"))
	if err != nil || chunkIndex < 0 {
		h.writeError(w, http.StatusBadRequest, codeInvalidRequest, "chunk_index must be a non-negative integer")
		return
	}

	c, err := h.svc.Chunk(r.Context(), principal, id, chunkIndex)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, toChunkDTO(c))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.authorize(w, r)
	if !ok {
		return
	}
	id, ok := h.analysisID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteAnalysis(r.Context(), principal, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// intParam parses an integer query parameter. The second return reports
// whether the parameter was present at all.
func intParam(r *http.Request, name string) (int, bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	return n, true, err
}
