package submit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"internhunt/internal/config"
	"internhunt/internal/core/run"
	"internhunt/internal/logger"
	tasksclient "internhunt/internal/platform/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Safety bound for a queued batch so a stuck submission cannot hold an asynq
// worker forever.
const queuedRunTimeout = 30 * time.Minute

// Request is a submission batch as it arrives over the API. The résumé
// travels base64-encoded; targets are the postings the caller selected.
type Request struct {
	Identity       Identity `json:"identity" validate:"required"`
	ResumeBase64   string   `json:"resume_base64"`
	ResumeFilename string   `json:"resume_filename"`
	CoverText      string   `json:"cover_text"`
	Targets        []Target `json:"targets" validate:"required,min=1,max=50,dive"`
	Sync           bool     `json:"sync"`
	WebhookURL     string   `json:"webhook_url" validate:"omitempty,url"`
}

type Stats struct {
	Targets        int   `json:"targets"`
	Submitted      int   `json:"submitted"`
	ManualRequired int   `json:"manual_required"`
	Errors         int   `json:"errors"`
	ElapsedMs      int64 `json:"elapsed_ms"`
}

type Response struct {
	Results []Result `json:"results"`
	Stats   Stats    `json:"stats"`
}

type TaskPayload struct {
	RunID   string  `json:"run_id"`
	Request Request `json:"request"`
}

// Service exposes the batch runner synchronously and as queued runs with
// lifecycle records and completion webhooks.
type Service struct {
	cfg      config.Config
	runner   *Runner
	runs     *run.Service
	tasks    *tasksclient.Client
	notifier *run.Notifier
	log      *logger.Logger
}

func NewService(cfg config.Config, runner *Runner, runs *run.Service, tasks *tasksclient.Client, notifier *run.Notifier) *Service {
	return &Service{
		cfg:      cfg,
		runner:   runner,
		runs:     runs,
		tasks:    tasks,
		notifier: notifier,
		log:      logger.New("SubmitService"),
	}
}

// Submit runs the batch inline: one result per target, input order preserved.
func (s *Service) Submit(ctx context.Context, req Request) (*Response, error) {
	batch, err := batchFrom(req)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	results := s.runner.Run(ctx, *batch)
	return &Response{Results: results, Stats: tally(results, time.Since(start))}, nil
}

// Enqueue registers a pending run and queues the submission task.
func (s *Service) Enqueue(ctx context.Context, req Request) (string, error) {
	if _, err := batchFrom(req); err != nil {
		return "", err
	}
	id := uuid.New().String()
	payload, _ := json.Marshal(TaskPayload{RunID: id, Request: req})
	if err := s.runs.InitPending(ctx, id, run.KindSubmission); err != nil {
		return "", err
	}
	task := asynq.NewTask(tasksclient.TaskTypeSubmit, payload)
	if err := s.tasks.Enqueue(task, "default", s.cfg.TaskMaxRetries); err != nil {
		return "", err
	}
	s.log.LogInfof("Enqueued submission run %s (%d targets)", id, len(req.Targets))
	return id, nil
}

// HandleSubmitTask consumes one queued submission run. Run-level failures
// mark the record failed and are not retried.
func (s *Service) HandleSubmitTask(ctx context.Context, task *asynq.Task) error {
	var p TaskPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return err
	}
	s.log.LogInfof("Processing submission run %s", p.RunID)
	if err := s.runs.SetProcessing(ctx, p.RunID, run.KindSubmission); err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, queuedRunTimeout)
	defer cancel()

	resp, err := s.Submit(runCtx, p.Request)
	if err != nil {
		s.log.LogErrorf("Submission run %s failed: %v", p.RunID, err)
		if ferr := s.runs.Fail(ctx, p.RunID, run.KindSubmission, err); ferr != nil {
			return ferr
		}
		s.notifier.Notify(ctx, p.Request.WebhookURL, p.RunID, run.KindSubmission, run.StatusFailed, nil)
		return nil
	}

	if err := s.runs.Complete(ctx, p.RunID, run.KindSubmission, resp); err != nil {
		return err
	}
	s.notifier.Notify(ctx, p.Request.WebhookURL, p.RunID, run.KindSubmission, run.StatusCompleted, resp)
	return nil
}

func batchFrom(req Request) (*Batch, error) {
	resume, err := decodeResume(req.ResumeBase64)
	if err != nil {
		return nil, fmt.Errorf("invalid resume_base64: %w", err)
	}
	return &Batch{
		Identity:       req.Identity,
		ResumeBytes:    resume,
		ResumeFilename: req.ResumeFilename,
		CoverText:      req.CoverText,
		Targets:        req.Targets,
	}, nil
}

// decodeResume accepts standard base64, with or without a data-URL prefix.
// An empty payload means "apply without a résumé".
func decodeResume(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, nil
	}
	if strings.HasPrefix(encoded, "data:") {
		if i := strings.Index(encoded, ";base64,"); i >= 0 {
			encoded = encoded[i+len(";base64,"):]
		}
	}
	return base64.StdEncoding.DecodeString(encoded)
}

func tally(results []Result, elapsed time.Duration) Stats {
	st := Stats{Targets: len(results), ElapsedMs: elapsed.Milliseconds()}
	for _, r := range results {
		switch r.Status {
		case StatusSubmitted:
			st.Submitted++
		case StatusManualRequired:
			st.ManualRequired++
		default:
			st.Errors++
		}
	}
	return st
}
