package discover

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internhunt/internal/config"
	"internhunt/internal/core/classify"
	"internhunt/internal/core/decide"
	"internhunt/internal/core/fetch"
	"internhunt/internal/core/navigate"
	"internhunt/internal/core/seeds"
)

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]*fetch.Page
	fail  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*fetch.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	if err, ok := f.fail[url]; ok {
		return nil, err
	}
	if p, ok := f.pages[url]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no page for %s", url)
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type staticSeeds struct{ byLanding map[string][]seeds.Seed }

func (s staticSeeds) Gather(_ context.Context, req seeds.Request) []seeds.Seed {
	return s.byLanding[req.URL]
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
	dels []string
}

func (f *fakeCache) CacheGet(_ context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.data[key]
	if !ok {
		return errors.New("cache miss")
	}
	return json.Unmarshal(b, dest)
}

func (f *fakeCache) CacheSet(_ context.Context, key string, value interface{}, _ int) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = b
	return nil
}

func (f *fakeCache) CacheDel(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dels = append(f.dels, keys...)
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func page(url string, anchors ...fetch.Anchor) *fetch.Page {
	return &fetch.Page{URL: url, StatusCode: 200, HTML: "<html><body></body></html>", Text: "welcome", Anchors: anchors}
}

func anchor(text, url string) fetch.Anchor { return fetch.Anchor{Text: text, URL: url} }

func postingAnchor(id int) fetch.Anchor {
	return anchor(
		fmt.Sprintf("Software Engineer Intern %d", id),
		fmt.Sprintf("https://boards.greenhouse.io/acme/jobs/40123%02d", id),
	)
}

func harvested(urls ...string) []seeds.Seed {
	out := make([]seeds.Seed, 0, len(urls))
	for _, u := range urls {
		out = append(out, seeds.Seed{URL: u, Origin: seeds.OriginHarvested})
	}
	return out
}

func testConfig() config.Config {
	return config.Config{
		GlobalPostingCap:     60,
		PerSeedPostingCap:    10,
		FanOutCap:            3,
		MaxHops:              3,
		DiscoveryWorkers:     1,
		CacheTTLSec:          300,
		FoundMinPostingLinks: 3,
		FoundMinJobCards:     2,
		FoundMinIndicators:   1,
	}
}

func newTestService(cfg config.Config, f *fakeFetcher, byLanding map[string][]seeds.Seed) (*Service, *fakeCache) {
	cache := &fakeCache{data: map[string][]byte{}}
	nav := navigate.New(f, classify.New(classify.DefaultRules()), decide.NewHeuristicOracle(), navigate.ConfigFrom(cfg))
	svc := NewService(cfg, cache, staticSeeds{byLanding}, nav, nil, nil, nil)
	return svc, cache
}

func TestDiscoverAggregatesAndDeduplicates(t *testing.T) {
	landing := "https://stateu.edu/"
	s1 := "https://acme.com/careers"
	s2 := "https://beta.com/careers"
	shared := postingAnchor(3)
	f := &fakeFetcher{pages: map[string]*fetch.Page{
		s1: page(s1, postingAnchor(1), postingAnchor(2), shared),
		s2: page(s2, shared, postingAnchor(4), postingAnchor(5)),
	}}
	svc, _ := newTestService(testConfig(), f, map[string][]seeds.Seed{landing: harvested(s1, s2)})

	resp, err := svc.Discover(context.Background(), Request{SeedURL: landing})

	require.NoError(t, err)
	assert.Len(t, resp.Postings, 5, "shared posting counted once")
	assert.Equal(t, 2, resp.Stats.SeedsTried)
	assert.Equal(t, 2, resp.Stats.PagesFetched)
	assert.Equal(t, 5, resp.Stats.PostingsFound)
	assert.Equal(t, landing, resp.Seed)
}

func TestDiscoverGlobalCap(t *testing.T) {
	landing := "https://stateu.edu/"
	s1 := "https://acme.com/careers"
	s2 := "https://beta.com/careers"
	f := &fakeFetcher{pages: map[string]*fetch.Page{
		s1: page(s1, postingAnchor(1), postingAnchor(2), postingAnchor(3)),
		s2: page(s2, postingAnchor(4), postingAnchor(5), postingAnchor(6)),
	}}
	cfg := testConfig()
	cfg.GlobalPostingCap = 2
	svc, _ := newTestService(cfg, f, map[string][]seeds.Seed{landing: harvested(s1, s2)})

	resp, err := svc.Discover(context.Background(), Request{SeedURL: landing})

	require.NoError(t, err)
	require.Len(t, resp.Postings, 2, "exactly the cap")
	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/4012301", resp.Postings[0].Link)
	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/4012302", resp.Postings[1].Link)
	assert.Equal(t, []string{s1}, f.calls, "second seed skipped once the cap is reached")
}

func TestDiscoverLimitOverride(t *testing.T) {
	landing := "https://stateu.edu/"
	s1 := "https://acme.com/careers"
	f := &fakeFetcher{pages: map[string]*fetch.Page{
		s1: page(s1, postingAnchor(1), postingAnchor(2), postingAnchor(3)),
	}}
	svc, _ := newTestService(testConfig(), f, map[string][]seeds.Seed{landing: harvested(s1)})

	resp, err := svc.Discover(context.Background(), Request{SeedURL: landing, Limit: 1})

	require.NoError(t, err)
	assert.Len(t, resp.Postings, 1)
}

func TestDiscoverCacheHitAndRefresh(t *testing.T) {
	landing := "https://stateu.edu/"
	s1 := "https://acme.com/careers"
	f := &fakeFetcher{pages: map[string]*fetch.Page{
		s1: page(s1, postingAnchor(1), postingAnchor(2), postingAnchor(3)),
	}}
	svc, _ := newTestService(testConfig(), f, map[string][]seeds.Seed{landing: harvested(s1)})

	first, err := svc.Discover(context.Background(), Request{SeedURL: landing})
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, f.callCount())

	second, err := svc.Discover(context.Background(), Request{SeedURL: landing})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, f.callCount(), "served from cache, fetcher untouched")
	assert.Equal(t, first.Postings, second.Postings)

	third, err := svc.Discover(context.Background(), Request{SeedURL: landing, Refresh: true})
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Equal(t, 2, f.callCount(), "refresh recomputes")
}

func TestDiscoverSeedFailureIsIsolated(t *testing.T) {
	landing := "https://stateu.edu/"
	s1 := "https://slow.example.com/careers"
	s2 := "https://beta.com/careers"
	f := &fakeFetcher{
		pages: map[string]*fetch.Page{
			s2: page(s2, postingAnchor(1), postingAnchor(2), postingAnchor(3)),
		},
		fail: map[string]error{s1: errors.New("fetch timeout")},
	}
	svc, _ := newTestService(testConfig(), f, map[string][]seeds.Seed{landing: harvested(s1, s2)})

	resp, err := svc.Discover(context.Background(), Request{SeedURL: landing})

	require.NoError(t, err)
	assert.Len(t, resp.Postings, 3, "healthy seed still contributes")
	assert.Equal(t, 2, resp.Stats.SeedsTried)
}

func TestDiscoverMultipleLandingsBypassCache(t *testing.T) {
	l1 := "https://stateu.edu/"
	l2 := "https://techu.edu/"
	s1 := "https://acme.com/careers"
	s2 := "https://beta.com/careers"
	f := &fakeFetcher{pages: map[string]*fetch.Page{
		s1: page(s1, postingAnchor(1), postingAnchor(2), postingAnchor(3)),
		s2: page(s2, postingAnchor(4), postingAnchor(5), postingAnchor(6)),
	}}
	svc, _ := newTestService(testConfig(), f, map[string][]seeds.Seed{
		l1: harvested(s1),
		l2: harvested(s2),
	})

	resp, err := svc.Discover(context.Background(), Request{Seeds: []string{l1, l2}})
	require.NoError(t, err)
	assert.Len(t, resp.Postings, 6)
	assert.Equal(t, l1, resp.Seed)

	_, err = svc.Discover(context.Background(), Request{Seeds: []string{l1, l2}})
	require.NoError(t, err)
	assert.Equal(t, 4, f.callCount(), "multi-landing requests are never cached")
}

func TestDiscoverHopsOverride(t *testing.T) {
	landing := "https://stateu.edu/"
	s1 := "https://acme.com/careers"
	deeper := "https://acme.com/careers/engineering"
	f := &fakeFetcher{pages: map[string]*fetch.Page{
		s1:     page(s1, anchor("Engineering roles", deeper)),
		deeper: page(deeper, postingAnchor(1), postingAnchor(2), postingAnchor(3)),
	}}
	svc, _ := newTestService(testConfig(), f, map[string][]seeds.Seed{landing: harvested(s1)})

	resp, err := svc.Discover(context.Background(), Request{SeedURL: landing, Hops: 1})

	require.NoError(t, err)
	assert.Len(t, resp.Postings, 3, "one hop reaches the listings page")
	assert.Equal(t, 2, resp.Stats.PagesFetched)
}

func TestDiscoverReplayIsDeterministic(t *testing.T) {
	landing := "https://stateu.edu/"
	s1 := "https://acme.com/careers"
	s2 := "https://beta.com/careers"
	f := &fakeFetcher{pages: map[string]*fetch.Page{
		s1: page(s1, postingAnchor(1), postingAnchor(2), postingAnchor(3)),
		s2: page(s2, postingAnchor(4), postingAnchor(5), postingAnchor(6)),
	}}
	svc, _ := newTestService(testConfig(), f, map[string][]seeds.Seed{landing: harvested(s1, s2)})

	first, err := svc.Discover(context.Background(), Request{SeedURL: landing, Refresh: true})
	require.NoError(t, err)
	second, err := svc.Discover(context.Background(), Request{SeedURL: landing, Refresh: true})
	require.NoError(t, err)

	require.Len(t, second.Postings, len(first.Postings))
	for i := range first.Postings {
		assert.Equal(t, first.Postings[i].Link, second.Postings[i].Link)
		assert.Equal(t, first.Postings[i].Title, second.Postings[i].Title)
		assert.Equal(t, first.Postings[i].Fingerprint, second.Postings[i].Fingerprint)
	}
}

func TestDiscoverNoSeed(t *testing.T) {
	svc, _ := newTestService(testConfig(), &fakeFetcher{}, nil)

	_, err := svc.Discover(context.Background(), Request{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no seed url")
}

func TestInvalidateDropsCachedEntry(t *testing.T) {
	landing := "https://stateu.edu/"
	s1 := "https://acme.com/careers"
	f := &fakeFetcher{pages: map[string]*fetch.Page{
		s1: page(s1, postingAnchor(1), postingAnchor(2), postingAnchor(3)),
	}}
	svc, cache := newTestService(testConfig(), f, map[string][]seeds.Seed{landing: harvested(s1)})

	_, err := svc.Discover(context.Background(), Request{SeedURL: landing})
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(context.Background(), landing))
	assert.NotEmpty(t, cache.dels)

	resp, err := svc.Discover(context.Background(), Request{SeedURL: landing})
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.Equal(t, 2, f.callCount())
}
