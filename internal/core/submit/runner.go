package submit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"internhunt/internal/config"
	"internhunt/internal/core/ats"
	"internhunt/internal/logger"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	Workers       int
	TargetTimeout time.Duration
}

func ConfigFrom(cfg config.Config) Config {
	return Config{
		Workers:       cfg.SubmitWorkers,
		TargetTimeout: time.Duration(cfg.SubmitTimeoutSec) * time.Second,
	}
}

// Runner drives fillers over a batch of targets: bounded parallelism, a hard
// per-target time budget, one browser process shared across the batch, and
// one result per target in input order no matter what individual attempts do.
type Runner struct {
	cfg     Config
	fillers FillerFactory
	log     *logger.Logger
}

func NewRunner(cfg Config, fillers FillerFactory) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.TargetTimeout <= 0 {
		cfg.TargetTimeout = 2 * time.Minute
	}
	return &Runner{cfg: cfg, fillers: fillers, log: logger.New("SubmitRunner")}
}

// Run submits every target in the batch. The returned slice always has
// exactly one entry per target, positionally matched.
func (r *Runner) Run(ctx context.Context, batch Batch) []Result {
	results := make([]Result, len(batch.Targets))
	if len(batch.Targets) == 0 {
		return results
	}
	start := time.Now()
	r.log.LogInfof("Submitting %d targets with %d workers", len(batch.Targets), r.cfg.Workers)

	session := &browserSession{}
	defer session.close()

	cover := truncateCover(batch.CoverText)

	g := new(errgroup.Group)
	g.SetLimit(r.cfg.Workers)
	for i, target := range batch.Targets {
		i, target := i, target
		g.Go(func() error {
			results[i] = r.submitOne(ctx, session.provide, target, batch, cover)
			return nil
		})
	}
	_ = g.Wait()

	r.log.LogSuccessf("Submission batch done: %d targets in %s", len(batch.Targets), time.Since(start).Round(time.Millisecond))
	return results
}

// submitOne runs a single attempt under the per-target budget. A straggling
// attempt keeps its goroutine until the batch browser closes underneath it;
// the result slot is settled here either way.
func (r *Runner) submitOne(ctx context.Context, browser BrowserProvider, target Target, batch Batch, cover string) Result {
	platform := ats.Resolve(target.URL)
	tctx, cancel := context.WithTimeout(ctx, r.cfg.TargetTimeout)
	defer cancel()

	done := make(chan Result, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- errorResult(platform, target, fmt.Sprintf("panic: %v", rec))
			}
		}()
		done <- r.attempt(tctx, browser, platform, target, batch, cover)
	}()

	select {
	case res := <-done:
		return res
	case <-tctx.Done():
		r.log.LogWarnf("Submission target %s timed out after %s", target.URL, r.cfg.TargetTimeout)
		return errorResult(platform, target, "timeout")
	}
}

func (r *Runner) attempt(ctx context.Context, browser BrowserProvider, platform ats.Platform, target Target, batch Batch, cover string) Result {
	app := Application{Identity: batch.Identity, CoverText: cover}
	if len(batch.ResumeBytes) > 0 {
		path, cleanup, err := materializeResume(batch.ResumeBytes, batch.ResumeFilename)
		if err != nil {
			return errorResult(platform, target, "resume: "+err.Error())
		}
		defer cleanup()
		app.ResumePath = path
	}
	return r.fillers(platform).Fill(ctx, browser, target, app)
}

// materializeResume writes the résumé bytes to a temp file for the duration
// of one attempt. The returned cleanup always removes it.
func materializeResume(data []byte, filename string) (string, func(), error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".pdf"
	}
	f, err := os.CreateTemp("", "resume-*"+ext)
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", nil, err
	}
	return path, func() { _ = os.Remove(path) }, nil
}

// browserSession launches one Chromium process on first use and shares it
// across the batch. The mutex, not sync.Once, guards the lifecycle so close
// cannot race a straggling first launch.
type browserSession struct {
	mu      sync.Mutex
	closed  bool
	pw      *playwright.Playwright
	browser playwright.Browser
}

func (s *browserSession) provide() (playwright.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("browser session closed")
	}
	if s.browser != nil {
		return s.browser, nil
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("playwright run: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args:     []string{"--no-sandbox", "--disable-dev-shm-usage", "--disable-gpu"},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch: %w", err)
	}
	s.pw = pw
	s.browser = browser
	return s.browser, nil
}

func (s *browserSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.browser != nil {
		_ = s.browser.Close()
		s.browser = nil
	}
	if s.pw != nil {
		_ = s.pw.Stop()
		s.pw = nil
	}
}
