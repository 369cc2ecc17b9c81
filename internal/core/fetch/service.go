package fetch

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"internhunt/internal/config"
	"internhunt/internal/core/fetch/robots"
	"internhunt/internal/logger"
	"internhunt/internal/utils/pagetext"

	"github.com/playwright-community/playwright-go"
)

// Service renders pages through headless Chromium. Career portals are almost
// universally JS-rendered (Workday ships an empty shell), so there is no
// plain-HTTP fast path.
type Service struct {
	log     *logger.Logger
	robots  *robots.Service
	limiter *HostLimiter
	timeout time.Duration
}

func NewService(cfg config.Config, robotsSvc *robots.Service) *Service {
	if robotsSvc == nil {
		robotsSvc = robots.New()
	}
	return &Service{
		log:     logger.New("FetchService"),
		robots:  robotsSvc,
		limiter: NewHostLimiter(float64(cfg.HostRPS), cfg.HostBurst),
		timeout: time.Duration(cfg.FetchTimeoutSec) * time.Second,
	}
}

// Fetch implements Fetcher: rate-limit, robots check, then rendered retrieval
// with header-strategy retries.
func (s *Service) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if err := s.limiter.Wait(ctx, rawURL); err != nil {
		return nil, err
	}
	if !s.robots.IsAllowed(rawURL, BotUserAgent) {
		s.log.Info().Str("url", rawURL).Msg("robots disallow")
		return nil, ErrRobotsDisallowed
	}
	return s.fetchWithRetries(ctx, rawURL)
}

// fetchWithRetries attempts the fetch with 3 different header strategies
func (s *Service) fetchWithRetries(ctx context.Context, url string) (*Page, error) {
	strategies := GetAllStrategies()
	var lastErr error

	for i, strategy := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.log.Info().Str("url", url).Int("attempt", i+1).Str("strategy", string(strategy)).Msg("attempt fetch")

		page, err := s.fetchWithPlaywright(url, strategy)
		if err == nil && !isCloudflareBlocked(page) {
			return page, nil
		}

		if err != nil {
			lastErr = err
			s.log.Info().Str("url", url).Str("strategy", string(strategy)).Str("error", err.Error()).Msg("fetch attempt failed")
		} else {
			lastErr = fmt.Errorf("cloudflare challenge detected")
			s.log.Info().Str("url", url).Str("strategy", string(strategy)).Int("status", page.StatusCode).Msg("cloudflare detected")
		}

		if i < len(strategies)-1 {
			time.Sleep(time.Duration(2000+rand.Intn(2000)) * time.Millisecond)
		}
	}

	return nil, fmt.Errorf("all strategies exhausted: %w", lastErr)
}

func (s *Service) fetchWithPlaywright(url string, strategy HeaderStrategy) (*Page, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("playwright run: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-blink-features=AutomationControlled",
			"--disable-web-security",
			"--disable-features=VizDisplayCompositor",
			"--no-first-run",
			"--disable-default-apps",
			"--disable-extensions",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch: %w", err)
	}
	defer pw.Stop()
	defer browser.Close()

	profile := GetHeaderProfile(strategy)
	headers := map[string]string{
		"Accept":                    profile.Accept,
		"Accept-Language":           profile.AcceptLanguage,
		"Accept-Encoding":           profile.AcceptEncoding,
		"Upgrade-Insecure-Requests": "1",
	}
	if profile.SecFetchDest != "" {
		headers["Sec-Fetch-Dest"] = profile.SecFetchDest
		headers["Sec-Fetch-Mode"] = profile.SecFetchMode
		headers["Sec-Fetch-Site"] = profile.SecFetchSite
		if profile.SecFetchUser != "" {
			headers["Sec-Fetch-User"] = profile.SecFetchUser
		}
	}
	if profile.SecChUa != "" {
		headers["Sec-Ch-Ua"] = profile.SecChUa
		headers["Sec-Ch-Ua-Mobile"] = profile.SecChUaMobile
		headers["Sec-Ch-Ua-Platform"] = profile.SecChUaPlatform
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:        playwright.String(profile.UserAgent),
		ExtraHttpHeaders: headers,
	})
	if err != nil {
		return nil, err
	}

	if err := bctx.Route("**/*", func(route playwright.Route) {
		reqURL := route.Request().URL()
		if blockedResourceTypes[route.Request().ResourceType()] {
			route.Abort("blockedbyclient")
			return
		}
		if isAdURL(reqURL) || isTrackerURL(reqURL) || isChatURL(reqURL) {
			route.Abort("blockedbyclient")
			return
		}
		route.Continue()
	}); err != nil {
		s.log.LogWarnf("Failed to set up resource blocking: %v", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		return nil, err
	}

	domTimeout := float64(s.timeout.Milliseconds()) / 2
	loadTimeout := float64(s.timeout.Milliseconds())

	var resp playwright.Response
	resp, navErr := page.Goto(url, playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateDomcontentloaded, Timeout: playwright.Float(domTimeout)})
	if navErr != nil {
		// fallback to full load with the longer timeout
		resp, navErr = page.Goto(url, playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateLoad, Timeout: playwright.Float(loadTimeout)})
		if navErr != nil {
			return nil, fmt.Errorf("goto failed: %w", navErr)
		}
	}

	s.waitForListings(page)

	html, err := page.Content()
	if err != nil {
		return nil, err
	}
	title, _ := page.Title()

	status := 200
	if resp != nil {
		status = resp.Status()
	}

	result := &Page{
		URL:        url,
		FinalURL:   page.URL(),
		Title:      title,
		StatusCode: status,
		HTML:       html,
		Text:       pagetext.Distill(html),
	}

	// Prefer the live DOM (post-JS) and fall back to parsing the HTML
	result.Anchors = s.extractAnchorsFromDOM(page)
	if len(result.Anchors) == 0 {
		result.Anchors = ExtractAnchors(html, result.FinalURL)
	}

	if isCloudflareBlocked(result) {
		return result, nil // caller rotates to the next strategy
	}
	if status >= 400 {
		return nil, fmt.Errorf("fetch failed with status %d", status)
	}

	return result, nil
}

// waitForListings gives client-side boards a moment to render. Best effort:
// a page that never reaches network idle still gets scraped as-is.
func (s *Service) waitForListings(page playwright.Page) {
	if err := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(3000),
	}); err != nil {
		s.log.LogDebugf("network idle not reached: %v", err)
	}
	locator := page.Locator("a[href]").First()
	if err := locator.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(2000),
	}); err != nil {
		s.log.LogDebugf("no anchors appeared: %v", err)
	}
}

// extractAnchorsFromDOM lifts anchors from the rendered DOM. Visible text is
// preferred; aria-label then title fill in for icon-only links.
func (s *Service) extractAnchorsFromDOM(page playwright.Page) []Anchor {
	if page == nil {
		return nil
	}
	result, err := page.Evaluate(`() => {
        const anchors = Array.from(document.querySelectorAll('a[href]'));
        const out = [];
        const seen = new Set();
        for (const a of anchors) {
            const href = a.getAttribute('href') || '';
            if (!href) continue;
            if (href.startsWith('javascript:') || href.startsWith('mailto:') || href.startsWith('tel:') || href.startsWith('#')) continue;
            let abs;
            try { abs = new URL(href, document.baseURI).toString(); } catch (_) { continue; }
            if (!abs.startsWith('http://') && !abs.startsWith('https://')) continue;
            if (seen.has(abs)) continue;
            seen.add(abs);
            const text = (a.textContent || '').trim() || a.getAttribute('aria-label') || a.getAttribute('title') || '';
            out.push([text, abs]);
        }
        return out;
    }`)
	if err != nil {
		return nil
	}
	arr, ok := result.([]interface{})
	if !ok {
		return nil
	}
	anchors := make([]Anchor, 0, len(arr))
	for _, v := range arr {
		pair, ok := v.([]interface{})
		if !ok || len(pair) != 2 {
			continue
		}
		text, _ := pair[0].(string)
		link, _ := pair[1].(string)
		if link == "" {
			continue
		}
		anchors = append(anchors, NewAnchor(text, link))
	}
	return anchors
}

// isCloudflareBlocked detects a Cloudflare challenge page masquerading as a
// successful render.
func isCloudflareBlocked(page *Page) bool {
	if page == nil || page.StatusCode != 403 {
		return false
	}
	if strings.Contains(page.Title, "Just a moment") ||
		strings.Contains(page.Title, "Checking your browser") ||
		strings.Contains(page.Title, "Attention Required") {
		return true
	}
	if strings.Contains(page.Text, "Cloudflare") && strings.Contains(page.Text, "Ray ID") {
		return true
	}
	return false
}
