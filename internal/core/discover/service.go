package discover

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"internhunt/internal/config"
	"internhunt/internal/core/canonical"
	"internhunt/internal/core/navigate"
	"internhunt/internal/core/run"
	"internhunt/internal/core/seeds"
	"internhunt/internal/logger"
	tasksclient "internhunt/internal/platform/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

// Safety bound for a queued run so a stuck discovery cannot hold an asynq
// worker forever.
const queuedRunTimeout = 10 * time.Minute

// Cache is the key-value slice of the redis service the orchestrator uses
// for its seed-result cache.
type Cache interface {
	CacheGet(ctx context.Context, key string, dest interface{}) error
	CacheSet(ctx context.Context, key string, value interface{}, ttlSeconds int) error
	CacheDel(ctx context.Context, keys ...string) error
}

// SeedSource expands a landing page into navigator seeds.
type SeedSource interface {
	Gather(ctx context.Context, req seeds.Request) []seeds.Seed
}

type Request struct {
	SeedURL    string   `json:"seed_url" validate:"omitempty,url"`
	Seeds      []string `json:"seeds" validate:"omitempty,dive,url"`
	Refresh    bool     `json:"refresh"`
	Limit      int      `json:"limit" validate:"omitempty,min=1,max=500"`
	Hops       int      `json:"hops" validate:"omitempty,min=1,max=10"`
	WebhookURL string   `json:"webhook_url" validate:"omitempty,url"`
}

type Stats struct {
	SeedsTried    int   `json:"seeds_tried"`
	PagesFetched  int   `json:"pages_fetched"`
	PostingsFound int   `json:"postings_found"`
	ElapsedMs     int64 `json:"elapsed_ms"`
}

type Response struct {
	Seed     string              `json:"seed"`
	Postings []canonical.Posting `json:"postings"`
	Stats    Stats               `json:"stats"`
	Cached   bool                `json:"cached,omitempty"`
}

type cachedDiscovery struct {
	FetchedAt time.Time `json:"fetched_at"`
	Response  Response  `json:"response"`
}

type TaskPayload struct {
	RunID   string  `json:"run_id"`
	Request Request `json:"request"`
}

// Service fans the navigator out over gathered seeds, aggregates postings
// through the deduplicator under the global cap, and owns the seed-keyed
// result cache plus the queued-run lifecycle.
type Service struct {
	cfg      config.Config
	cache    Cache
	seeds    SeedSource
	nav      *navigate.Navigator
	runs     *run.Service
	tasks    *tasksclient.Client
	notifier *run.Notifier
	log      *logger.Logger
}

func NewService(cfg config.Config, cache Cache, seedSource SeedSource, nav *navigate.Navigator, runs *run.Service, tasks *tasksclient.Client, notifier *run.Notifier) *Service {
	return &Service{
		cfg:      cfg,
		cache:    cache,
		seeds:    seedSource,
		nav:      nav,
		runs:     runs,
		tasks:    tasks,
		notifier: notifier,
		log:      logger.New("DiscoverService"),
	}
}

// Discover runs a synchronous discovery. Single-landing requests are served
// from the cache inside the TTL unless refresh is set; refresh recomputes and
// repopulates. The returned posting list may be empty, never nil.
func (s *Service) Discover(ctx context.Context, req Request) (*Response, error) {
	landings := s.landingURLs(req)
	if len(landings) == 0 {
		return nil, fmt.Errorf("no seed url: provide seed_url or configure SEED_URL")
	}

	// Multi-landing requests bypass the cache; the cache is keyed per seed.
	cacheable := len(landings) == 1
	key := ""
	if cacheable {
		key = cacheKey(landings[0])
		if !req.Refresh {
			var cached cachedDiscovery
			if err := s.cache.CacheGet(ctx, key, &cached); err == nil {
				s.log.LogDebugf("Cache hit for %s (age %s)", landings[0], time.Since(cached.FetchedAt).Round(time.Second))
				resp := cached.Response
				resp.Cached = true
				return &resp, nil
			}
		}
	}

	resp := s.explore(ctx, landings, req)

	if cacheable {
		entry := cachedDiscovery{FetchedAt: time.Now().UTC(), Response: *resp}
		if err := s.cache.CacheSet(ctx, key, entry, s.cfg.CacheTTLSec); err != nil {
			s.log.LogWarnf("Cache store failed for %s: %v", landings[0], err)
		}
	}
	return resp, nil
}

// Invalidate drops the cached result for a seed URL.
func (s *Service) Invalidate(ctx context.Context, seedURL string) error {
	return s.cache.CacheDel(ctx, cacheKey(seedURL))
}

// explore gathers seeds for every landing page and walks them concurrently.
// A failed or empty path contributes nothing; it never fails the run.
func (s *Service) explore(ctx context.Context, landings []string, req Request) *Response {
	start := time.Now()

	globalCap := s.cfg.GlobalPostingCap
	if req.Limit > 0 && req.Limit < globalCap {
		globalCap = req.Limit
	}
	nav := s.nav
	if req.Hops > 0 {
		nav = nav.WithMaxHops(req.Hops)
	}

	seedList := make([]seeds.Seed, 0)
	seen := make(map[string]struct{})
	for _, landing := range landings {
		for _, sd := range s.seeds.Gather(ctx, seeds.Request{URL: landing, Guess: true}) {
			k := seedKey(sd.URL)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			seedList = append(seedList, sd)
		}
	}
	s.log.LogInfof("Exploring %d seeds (cap %d)", len(seedList), globalCap)

	var (
		mu      sync.Mutex
		deduper = canonical.NewDeduper()
		stats   Stats
	)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	workers := s.cfg.DiscoveryWorkers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for _, sd := range seedList {
		sd := sd
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res := nav.Explore(gctx, sd.URL)
			s.log.LogDebugf("Seed %s: %s with %d postings in %d pages", sd.URL, res.Terminal, len(res.Postings), res.PagesFetched)

			mu.Lock()
			stats.SeedsTried++
			stats.PagesFetched += res.PagesFetched
			for _, p := range res.Postings {
				if deduper.Len() >= globalCap {
					break
				}
				deduper.Add(p)
			}
			full := deduper.Len() >= globalCap
			mu.Unlock()
			if full {
				cancel()
			}
			return nil
		})
	}
	_ = g.Wait()

	postings := deduper.Postings()
	if postings == nil {
		postings = []canonical.Posting{}
	}
	stats.PostingsFound = len(postings)
	stats.ElapsedMs = time.Since(start).Milliseconds()
	s.log.LogSuccessf("Discovery done: %d postings from %d seeds (%d pages, %dms)",
		stats.PostingsFound, stats.SeedsTried, stats.PagesFetched, stats.ElapsedMs)

	return &Response{Seed: landings[0], Postings: postings, Stats: stats}
}

// Enqueue registers a pending run and queues the discovery task.
func (s *Service) Enqueue(ctx context.Context, req Request) (string, error) {
	if len(s.landingURLs(req)) == 0 {
		return "", fmt.Errorf("no seed url: provide seed_url or configure SEED_URL")
	}
	id := uuid.New().String()
	payload, _ := json.Marshal(TaskPayload{RunID: id, Request: req})
	if err := s.runs.InitPending(ctx, id, run.KindDiscovery); err != nil {
		return "", err
	}
	task := asynq.NewTask(tasksclient.TaskTypeDiscover, payload)
	if err := s.tasks.Enqueue(task, "default", s.cfg.TaskMaxRetries); err != nil {
		return "", err
	}
	s.log.LogInfof("Enqueued discovery run %s", id)
	return id, nil
}

// HandleDiscoverTask consumes one queued discovery run. Run-level failures
// mark the record failed and are not retried.
func (s *Service) HandleDiscoverTask(ctx context.Context, task *asynq.Task) error {
	var p TaskPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return err
	}
	s.log.LogInfof("Processing discovery run %s", p.RunID)
	if err := s.runs.SetProcessing(ctx, p.RunID, run.KindDiscovery); err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, queuedRunTimeout)
	defer cancel()

	resp, err := s.Discover(runCtx, p.Request)
	if err != nil {
		s.log.LogErrorf("Discovery run %s failed: %v", p.RunID, err)
		if ferr := s.runs.Fail(ctx, p.RunID, run.KindDiscovery, err); ferr != nil {
			return ferr
		}
		s.notifier.Notify(ctx, p.Request.WebhookURL, p.RunID, run.KindDiscovery, run.StatusFailed, nil)
		return nil
	}

	if err := s.runs.Complete(ctx, p.RunID, run.KindDiscovery, resp); err != nil {
		return err
	}
	s.notifier.Notify(ctx, p.Request.WebhookURL, p.RunID, run.KindDiscovery, run.StatusCompleted, resp)
	return nil
}

func (s *Service) landingURLs(req Request) []string {
	if len(req.Seeds) > 0 {
		return req.Seeds
	}
	if req.SeedURL != "" {
		return []string{req.SeedURL}
	}
	if s.cfg.SeedURL != "" {
		return []string{s.cfg.SeedURL}
	}
	return nil
}

func cacheKey(seedURL string) string { return "discover:" + seedKey(seedURL) }

func seedKey(rawURL string) string {
	if c, err := canonical.Canonicalize(rawURL); err == nil {
		return c
	}
	return rawURL
}
