package robots

import (
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"internhunt/internal/logger"

	"github.com/temoto/robotstxt"
)

// Service caches parsed robots.txt data per origin for the process lifetime.
type Service struct {
	mu     sync.RWMutex
	origin map[string]*robotstxt.RobotsData
	client *http.Client
	log    *logger.Logger
}

func New() *Service {
	return &Service{
		origin: make(map[string]*robotstxt.RobotsData),
		client: &http.Client{Timeout: 8 * time.Second},
		log:    logger.New("Robots"),
	}
}

// IsAllowed reports whether agent may fetch rawURL. An unreachable or
// unparseable robots.txt allows everything; real errors surface on the
// fetch itself.
func (s *Service) IsAllowed(rawURL, agent string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}
	data := s.dataFor(u.Scheme + "://" + u.Host)
	if data == nil {
		return true
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.FindGroup(agent).Test(path)
}

// Preload injects robots rules for an origin without a network fetch.
func (s *Service) Preload(origin, robotsTxt string) error {
	data, err := robotstxt.FromString(robotsTxt)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.origin[origin] = data
	s.mu.Unlock()
	return nil
}

func (s *Service) dataFor(origin string) *robotstxt.RobotsData {
	s.mu.RLock()
	data, ok := s.origin[origin]
	s.mu.RUnlock()
	if ok {
		return data
	}

	data = s.fetch(origin)
	s.mu.Lock()
	s.origin[origin] = data
	s.mu.Unlock()
	return data
}

func (s *Service) fetch(origin string) *robotstxt.RobotsData {
	resp, err := s.client.Get(origin + "/robots.txt")
	if err != nil {
		s.log.LogDebugf("robots.txt fetch failed for %s: %v", origin, err)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil
	}

	// FromStatusAndBytes keeps the conventional semantics: 4xx allows all,
	// 5xx disallows all.
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		s.log.LogDebugf("robots.txt parse failed for %s: %v", origin, err)
		return nil
	}
	return data
}
