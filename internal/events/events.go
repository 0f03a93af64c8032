// Package events carries run requests in and batch notifications out over Kafka.
package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DeafMist/club-pulse/internal/aggregate"
	"github.com/DeafMist/club-pulse/internal/models"
)

// Kind says which pipeline step produced a BatchEvent.
type Kind string

const (
	KindFetched  Kind = "fetched"
	KindAnalyzed Kind = "analyzed"
)

// RunRequest asks the worker to fetch and analyze one batch.
type RunRequest struct {
	ID     string        `json:"id"`
	Source models.Source `json:"source"`
	Scope  models.Scope  `json:"scope"`
}

// Key resolves the batch the request targets.
func (r RunRequest) Key() (models.BatchKey, error) {
	return models.KeyFor(r.Source, r.Scope)
}

// DecodeRunRequest parses and validates a request payload. A request without
// an id gets a fresh one, which also means it is never deduplicated.
func DecodeRunRequest(data []byte) (RunRequest, error) {
	var req RunRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return RunRequest{}, fmt.Errorf("decode run request: %w", err)
	}

	req.ID = strings.TrimSpace(req.ID)
	req.Source = models.Source(strings.ToLower(strings.TrimSpace(string(req.Source))))
	req.Scope = models.Scope(strings.ToLower(strings.TrimSpace(string(req.Scope))))

	if _, err := req.Key(); err != nil {
		return RunRequest{}, err
	}
	if req.ID == "" {
		req.ID = NewRunID()
	}
	return req, nil
}

// NewRunID returns a random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// BatchEvent announces that a batch was refreshed or analyzed.
type BatchEvent struct {
	RunID     string               `json:"run_id"`
	Kind      Kind                 `json:"kind"`
	Key       models.BatchKey      `json:"key"`
	Total     int                  `json:"total"`
	Counts    models.SourceCounts  `json:"counts,omitempty"`
	Breakdown *aggregate.Breakdown `json:"breakdown,omitempty"`
	At        time.Time            `json:"at"`
}
