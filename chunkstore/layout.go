package chunkstore

import (
	"fmt"

	"github.com/google/uuid"
)

// Blob naming under one analysis prefix. The COMMITTED pointer is written
// last; its presence is the sole signal that the analysis is fully visible.
const (
	committedBlob = "COMMITTED"
	pendingBlob   = "PENDING"
	manifestBlob  = "manifest.json"
	eventsBlob    = "events.json"
)

func analysisPrefix(id uuid.UUID) string {
	return id.String() + "/"
}

func committedName(id uuid.UUID) string {
	return analysisPrefix(id) + committedBlob
}

func pendingName(id uuid.UUID) string {
	return analysisPrefix(id) + pendingBlob
}

func manifestName(id uuid.UUID) string {
	return analysisPrefix(id) + manifestBlob
}

func eventsName(id uuid.UUID) string {
	return analysisPrefix(id) + eventsBlob
}

func chunkName(id uuid.UUID, index int) string {
	return fmt.Sprintf("%schunk-%06d.bin", analysisPrefix(id), index)
}

func chunkCacheKey(id uuid.UUID, index int) string {
	return fmt.Sprintf("%s/%d", id, index)
}
