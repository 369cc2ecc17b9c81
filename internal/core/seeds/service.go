package seeds

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"internhunt/internal/core/ats"
	"internhunt/internal/core/canonical"
	"internhunt/internal/core/classify"
	"internhunt/internal/core/fetch"
	"internhunt/internal/core/fetch/robots"
	"internhunt/internal/logger"

	"github.com/gocolly/colly"
	"golang.org/x/sync/errgroup"
)

const (
	OriginLanding   = "landing"
	OriginHarvested = "harvested"
	OriginGuessed   = "guessed"
)

const (
	defaultHarvestLimit = 20
	maxGuessCompanies   = 5
	probeConcurrency    = 6
)

// Seed is one navigator starting point.
type Seed struct {
	URL     string `json:"url"`
	Company string `json:"company,omitempty"`
	Origin  string `json:"origin"`
}

type Request struct {
	URL       string
	Depth     int  // collector depth; 1 reads only the landing page
	LinkLimit int  // max harvested links
	Guess     bool // add guessed per-company career URLs
}

// Service collects navigator seeds: the landing page itself, its outbound
// internship-looking links, and guessed per-company career URLs that answer
// a reachability probe.
type Service struct {
	log        *logger.Logger
	robots     *robots.Service
	classifier *classify.Classifier
	probe      *http.Client
}

func NewService(classifier *classify.Classifier, robotsSvc *robots.Service) *Service {
	return &Service{
		log:        logger.New("SeedService"),
		robots:     robotsSvc,
		classifier: classifier,
		probe:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Gather builds the seed list for one landing page. Harvest or probe failures
// shrink the list, never fail it: the landing page alone is always returned.
func (s *Service) Gather(ctx context.Context, req Request) []Seed {
	depth := req.Depth
	if depth <= 0 {
		depth = 1
	}
	limit := req.LinkLimit
	if limit <= 0 {
		limit = defaultHarvestLimit
	}
	landing := cleanURL(req.URL)
	landingCompany := ats.CompanyFromURL(landing)

	out := []Seed{{URL: landing, Company: landingCompany, Origin: OriginLanding}}
	seen := map[string]struct{}{seedKey(landing): {}}

	harvested := s.harvest(ctx, landing, depth, limit)
	for _, seed := range harvested {
		key := seedKey(seed.URL)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, seed)
	}

	if req.Guess {
		out = append(out, s.guessed(ctx, harvested, landingCompany, seen)...)
	}
	s.log.LogInfof("Gathered %d seeds for %s", len(out), landing)
	return out
}

// harvest reads the landing page (and, above depth 1, its same-domain pages)
// and keeps every non-noise anchor as a seed candidate, in arrival order.
func (s *Service) harvest(ctx context.Context, landing string, depth, limit int) []Seed {
	var mu sync.Mutex
	seen := make(map[string]struct{})
	harvested := make([]Seed, 0, limit)

	c := colly.NewCollector(colly.MaxDepth(depth), colly.Async(true))
	dom := extractDomain(landing)

	c.OnRequest(func(r *colly.Request) {
		mu.Lock()
		reached := len(harvested) >= limit
		mu.Unlock()
		if reached {
			r.Abort()
			return
		}
		select {
		case <-ctx.Done():
			r.Abort()
			return
		default:
		}
		if !s.robots.IsAllowed(r.URL.String(), fetch.BotUserAgent) {
			s.log.LogDebugf("Harvest disallow robots %s", r.URL)
			r.Abort()
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		s.log.LogWarnf("Harvest error %s %d: %v", r.Request.URL, r.StatusCode, err)
	})

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link := normalize(e.Request.AbsoluteURL(e.Attr("href")))
		if link == "" {
			return
		}
		text := strings.TrimSpace(e.Text)
		if s.classifier.Classify(text, link) != classify.Noise {
			mu.Lock()
			if _, exists := seen[link]; !exists && len(harvested) < limit {
				seen[link] = struct{}{}
				harvested = append(harvested, Seed{
					URL:     link,
					Company: ats.CompanyFromURL(link),
					Origin:  OriginHarvested,
				})
			}
			mu.Unlock()
		}
		// Same-domain pages may list employers a level deeper.
		if e.Request.Depth < depth && domainsMatch(extractDomain(link), dom) {
			_ = e.Request.Visit(link)
		}
	})

	c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: 4, RandomDelay: 500 * time.Millisecond})

	if err := c.Visit(landing); err != nil {
		s.log.LogWarnf("Harvest visit failed %s: %v", landing, err)
		return harvested
	}
	c.Wait()
	s.log.LogDebugf("Harvest %s: %d links kept", landing, len(harvested))
	return harvested
}

// guessed expands the harvested companies into conventional career URLs and
// keeps the ones that answer a probe.
func (s *Service) guessed(ctx context.Context, harvested []Seed, landingCompany string, seen map[string]struct{}) []Seed {
	companies := make([]string, 0, maxGuessCompanies)
	companySeen := make(map[string]struct{})
	for _, seed := range harvested {
		if len(companies) >= maxGuessCompanies {
			break
		}
		c := seed.Company
		if c == "" || c == landingCompany {
			continue
		}
		if _, dup := companySeen[c]; dup {
			continue
		}
		companySeen[c] = struct{}{}
		companies = append(companies, c)
	}

	candidates := make([]string, 0, len(companies)*7)
	candidateCompany := make(map[string]string)
	for _, c := range companies {
		for _, u := range GuessCompanySeeds(c) {
			key := seedKey(u)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			candidates = append(candidates, u)
			candidateCompany[u] = c
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	reachable := s.probeReachable(ctx, candidates)
	out := make([]Seed, 0, len(reachable))
	for _, u := range reachable {
		out = append(out, Seed{URL: u, Company: candidateCompany[u], Origin: OriginGuessed})
	}
	s.log.LogDebugf("Guessed %d career URLs, %d reachable", len(candidates), len(out))
	return out
}

// GuessCompanySeeds returns the conventional career-page URLs for a company
// slug: corporate career hosts plus the major hosted-board patterns.
func GuessCompanySeeds(company string) []string {
	c := strings.ToLower(strings.TrimSpace(company))
	if c == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("https://careers.%s.com", c),
		fmt.Sprintf("https://www.%s.com/careers", c),
		fmt.Sprintf("https://jobs.%s.com", c),
		fmt.Sprintf("https://%s.wd1.myworkdayjobs.com", c),
		fmt.Sprintf("https://%s.wd5.myworkdayjobs.com", c),
		fmt.Sprintf("https://boards.greenhouse.io/%s", c),
		fmt.Sprintf("https://jobs.lever.co/%s", c),
	}
}

// probeReachable filters to URLs answering below 400, preserving input order.
func (s *Service) probeReachable(ctx context.Context, urls []string) []string {
	results := make([]bool, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeConcurrency)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			results[i] = s.reachable(gctx, u)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]string, 0, len(urls))
	for i, ok := range results {
		if ok {
			out = append(out, urls[i])
		}
	}
	return out
}

// reachable probes with HEAD, falling back to GET for hosts that reject it.
func (s *Service) reachable(ctx context.Context, rawURL string) bool {
	if ok, decided := s.probeOnce(ctx, http.MethodHead, rawURL); decided {
		return ok
	}
	ok, _ := s.probeOnce(ctx, http.MethodGet, rawURL)
	return ok
}

func (s *Service) probeOnce(ctx context.Context, method, rawURL string) (ok, decided bool) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return false, true
	}
	req.Header.Set("User-Agent", fetch.BotUserAgent)
	resp, err := s.probe.Do(req)
	if err != nil {
		return false, true
	}
	resp.Body.Close()
	if resp.StatusCode < 400 {
		return true, true
	}
	// 405/403 on HEAD is inconclusive; anything else is a real no.
	if method == http.MethodHead &&
		(resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusForbidden) {
		return false, false
	}
	return false, true
}

func seedKey(rawURL string) string {
	if c, err := canonical.Canonicalize(rawURL); err == nil {
		return c
	}
	return rawURL
}

func cleanURL(u string) string {
	if !strings.HasPrefix(u, "http") {
		u = "https://" + u
	}
	return u
}

func extractDomain(u string) string {
	p, _ := url.Parse(u)
	if p != nil {
		return p.Hostname()
	}
	return ""
}

func normalize(u string) string {
	p, _ := url.Parse(u)
	if p == nil {
		return u
	}
	p.Fragment = ""
	if p.Path == "/" {
		p.Path = ""
	}
	return p.String()
}

func domainsMatch(a, b string) bool {
	if a == b {
		return true
	}
	a = strings.TrimPrefix(a, "www.")
	b = strings.TrimPrefix(b, "www.")
	return a == b
}
