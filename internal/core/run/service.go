package run

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	rds "internhunt/internal/platform/redis"
)

type Service struct{ redis *rds.Service }

func NewService(redis *rds.Service) *Service { return &Service{redis: redis} }

func (s *Service) Get(ctx context.Context, runID string) (*Run, error) {
	var r Run
	if err := s.redis.CacheGet(ctx, key(runID), &r); err != nil {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	return &r, nil
}

func (s *Service) InitPending(ctx context.Context, runID string, kind Kind) error {
	return s.store(ctx, runID, kind, StatusPending, "", nil)
}

func (s *Service) SetProcessing(ctx context.Context, runID string, kind Kind) error {
	return s.store(ctx, runID, kind, StatusProcessing, "", nil)
}

func (s *Service) Complete(ctx context.Context, runID string, kind Kind, results interface{}) error {
	return s.store(ctx, runID, kind, StatusCompleted, "", results)
}

func (s *Service) Fail(ctx context.Context, runID string, kind Kind, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.store(ctx, runID, kind, StatusFailed, msg, nil)
}

func (s *Service) store(ctx context.Context, runID string, kind Kind, status Status, errMsg string, results interface{}) error {
	var r Run
	_ = s.redis.CacheGet(ctx, key(runID), &r)
	now := time.Now().UTC()
	if r.RunID == "" {
		r.CreatedAt = now
	}
	r.RunID = runID
	r.Kind = kind
	r.Status = status
	r.UpdatedAt = now
	r.Error = errMsg
	if results != nil {
		b, err := json.Marshal(results)
		if err != nil {
			return fmt.Errorf("marshal run results: %w", err)
		}
		r.Results = b
	}
	if err := s.redis.CacheSet(ctx, key(runID), r, ttl(status)); err != nil {
		return err
	}
	// Publish an update event for pollers subscribed to the run channel.
	_ = s.redis.Client().Publish(ctx, key(runID), "updated").Err()
	return nil
}

func key(id string) string { return "run:" + id }

func ttl(s Status) int {
	if s == StatusCompleted || s == StatusFailed {
		return 3600
	}
	return 600
}
