package run

import (
	"encoding/json"
	"time"
)

// Run is the Redis-backed lifecycle record for one queued run.
type Run struct {
	RunID     string          `json:"run_id"`
	Kind      Kind            `json:"kind"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Error     string          `json:"error,omitempty"`
	Results   json.RawMessage `json:"results,omitempty"`
}

type Kind string

const (
	KindDiscovery  Kind = "discovery"
	KindSubmission Kind = "submission"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)
