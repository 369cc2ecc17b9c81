package navigate

import (
	"context"

	"internhunt/internal/config"
	"internhunt/internal/core/ats"
	"internhunt/internal/core/canonical"
	"internhunt/internal/core/classify"
	"internhunt/internal/core/decide"
	"internhunt/internal/core/fetch"
	"internhunt/internal/logger"
)

// Terminal is how a seed path ended.
type Terminal int

const (
	TerminalStopped Terminal = iota
	TerminalFound
	TerminalExhausted
	TerminalAbandoned
)

func (t Terminal) String() string {
	switch t {
	case TerminalFound:
		return "found"
	case TerminalExhausted:
		return "exhausted"
	case TerminalAbandoned:
		return "abandoned"
	default:
		return "stopped"
	}
}

// PathResult is everything one seed path produced.
type PathResult struct {
	Seed         string
	Terminal     Terminal
	Postings     []canonical.Posting
	PagesFetched int
	Hops         int
}

// Config bounds a single navigation path.
type Config struct {
	MaxHops           int
	PerSeedPostingCap int
	FanOutCap         int

	FoundMinPostingLinks int
	FoundMinJobCards     int
	FoundMinIndicators   int
}

func ConfigFrom(cfg config.Config) Config {
	return Config{
		MaxHops:              cfg.MaxHops,
		PerSeedPostingCap:    cfg.PerSeedPostingCap,
		FanOutCap:            cfg.FanOutCap,
		FoundMinPostingLinks: cfg.FoundMinPostingLinks,
		FoundMinJobCards:     cfg.FoundMinJobCards,
		FoundMinIndicators:   cfg.FoundMinIndicators,
	}
}

// visitedScanTop is how many of the best candidates the cycle guard scans
// for an unvisited substitute before abandoning the path.
const visitedScanTop = 5

// Navigator walks one path from a seed URL toward a listings page. Each
// page is fetched once, classified, and either accepted as found, followed
// one hop deeper, or given up on. A path touches at most MaxHops+1 URLs.
type Navigator struct {
	fetcher    fetch.Fetcher
	classifier *classify.Classifier
	oracle     decide.Oracle
	cfg        Config
	log        *logger.Logger
}

func New(fetcher fetch.Fetcher, classifier *classify.Classifier, oracle decide.Oracle, cfg Config) *Navigator {
	return &Navigator{
		fetcher:    fetcher,
		classifier: classifier,
		oracle:     oracle,
		cfg:        cfg,
		log:        logger.New("Navigator"),
	}
}

// WithMaxHops returns a copy navigating under a different hop budget.
func (n *Navigator) WithMaxHops(hops int) *Navigator {
	if hops <= 0 || hops == n.cfg.MaxHops {
		return n
	}
	c := *n
	c.cfg.MaxHops = hops
	return &c
}

// Explore runs the path state machine for one seed. It never returns an
// error: fetch and oracle failures resolve into the terminal state. Postings
// are only attached on Found and Exhausted terminals.
func (n *Navigator) Explore(ctx context.Context, seed string) PathResult {
	res := PathResult{Seed: seed, Terminal: TerminalAbandoned}
	visited := make(map[string]struct{})

	current := seed
	var siblings []decide.Candidate // unchosen candidates at the current parent level
	parentAttempts := 1             // links tried from the current parent, the seed included

	for {
		if ctx.Err() != nil {
			res.Terminal = TerminalStopped
			return res
		}

		markVisited(visited, current)
		page, err := n.fetcher.Fetch(ctx, current)
		res.PagesFetched++
		if err != nil {
			n.log.LogWarnf("fetch failed for %s: %v", current, err)
			// Retry a sibling from the same parent before giving up. The
			// substitute spends a hop so the total URL budget holds.
			next := nextUnvisited(siblings, visited, len(siblings))
			if next == "" || res.Hops >= n.cfg.MaxHops || parentAttempts >= n.cfg.FanOutCap {
				res.Terminal = TerminalAbandoned
				return res
			}
			parentAttempts++
			res.Hops++
			current = next
			continue
		}
		if page.FinalURL != "" {
			// Redirect targets join the visited set too.
			markVisited(visited, page.FinalURL)
		}

		candidates := n.classifyAnchors(page)
		postings := postingsOnly(candidates)
		sig := Signals{
			PostingLinks: len(postings),
			JobCards:     countJobCards(page.HTML),
			Indicators:   n.classifier.CountIndicators(page.Text),
		}
		n.log.LogDebugf("page %s: %d candidates, %d posting links, %d cards, %d indicators",
			pageURL(page), len(candidates), sig.PostingLinks, sig.JobCards, sig.Indicators)

		if sig.found(n.cfg.FoundMinPostingLinks, n.cfg.FoundMinJobCards, n.cfg.FoundMinIndicators) {
			res.Postings = n.emit(postings, page)
			res.Terminal = TerminalFound
			return res
		}
		if len(candidates) == 0 {
			res.Terminal = TerminalStopped
			return res
		}

		d := n.oracle.Decide(ctx, decide.Question{
			CurrentURL: pageURL(page),
			PageText:   page.Text,
			Candidates: candidates,
		})
		switch d.Action {
		case decide.ActionFound:
			res.Postings = n.emit(postings, page)
			res.Terminal = TerminalFound
			return res
		case decide.ActionStop:
			res.Terminal = TerminalStopped
			return res
		}

		next := d.URL
		if isVisited(visited, next) {
			// Cycle guard: swap in the best unvisited candidate, or give up.
			next = nextUnvisited(candidates, visited, visitedScanTop)
			if next == "" {
				n.log.LogWarnf("all follow candidates already visited at %s", pageURL(page))
				res.Terminal = TerminalAbandoned
				return res
			}
		}
		if res.Hops >= n.cfg.MaxHops {
			// Hop budget spent with no listings page reached.
			res.Postings = n.emit(postings, page)
			res.Terminal = TerminalExhausted
			return res
		}
		res.Hops++
		siblings = withoutURL(candidates, next)
		parentAttempts = 1
		current = next
	}
}

// classifyAnchors classifies the page's anchors and keeps the non-noise ones
// in page order.
func (n *Navigator) classifyAnchors(page *fetch.Page) []decide.Candidate {
	out := make([]decide.Candidate, 0, len(page.Anchors))
	for _, a := range page.Anchors {
		class := n.classifier.Classify(a.Text, a.URL)
		if class == classify.Noise {
			continue
		}
		out = append(out, decide.Candidate{Text: a.Text, URL: a.URL, Class: class})
	}
	return out
}

// emit turns posting-classified candidates into Posting records, deduplicated
// by canonical link and capped per seed.
func (n *Navigator) emit(postings []decide.Candidate, page *fetch.Page) []canonical.Posting {
	source := pageURL(page)
	seen := make(map[string]struct{}, len(postings))
	out := make([]canonical.Posting, 0, len(postings))
	for _, c := range postings {
		if n.cfg.PerSeedPostingCap > 0 && len(out) >= n.cfg.PerSeedPostingCap {
			break
		}
		p, err := canonical.NewPosting(c.Text, ats.CompanyFromURL(c.URL), c.URL, source)
		if err != nil {
			continue
		}
		if _, dup := seen[p.Link]; dup {
			continue
		}
		seen[p.Link] = struct{}{}
		out = append(out, p)
	}
	return out
}

func postingsOnly(candidates []decide.Candidate) []decide.Candidate {
	out := make([]decide.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Class == classify.Posting {
			out = append(out, c)
		}
	}
	return out
}

func pageURL(page *fetch.Page) string {
	if page.FinalURL != "" {
		return page.FinalURL
	}
	return page.URL
}

// markVisited records the canonical form so querystring noise cannot defeat
// the cycle guard.
func markVisited(visited map[string]struct{}, rawURL string) {
	visited[canonKey(rawURL)] = struct{}{}
}

func isVisited(visited map[string]struct{}, rawURL string) bool {
	_, ok := visited[canonKey(rawURL)]
	return ok
}

func canonKey(rawURL string) string {
	if c, err := canonical.Canonicalize(rawURL); err == nil {
		return c
	}
	return rawURL
}

// nextUnvisited returns the first unvisited candidate URL among the first
// limit entries, or "".
func nextUnvisited(candidates []decide.Candidate, visited map[string]struct{}, limit int) string {
	for i, c := range candidates {
		if i >= limit {
			break
		}
		if !isVisited(visited, c.URL) {
			return c.URL
		}
	}
	return ""
}

func withoutURL(candidates []decide.Candidate, url string) []decide.Candidate {
	out := make([]decide.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.URL == url {
			continue
		}
		out = append(out, c)
	}
	return out
}
