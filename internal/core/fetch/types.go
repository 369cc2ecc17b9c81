package fetch

import (
	"context"
	"errors"
)

// Anchor is one link lifted from a rendered page, with its visible text
// already collapsed and truncated.
type Anchor struct {
	Text string
	URL  string
	Host string
}

// Page is the rendered view of a URL after JavaScript settled.
type Page struct {
	URL        string // requested URL
	FinalURL   string // URL after redirects
	Title      string
	StatusCode int
	HTML       string
	Text       string // distilled markdown-ish text
	Anchors    []Anchor
}

// Fetcher retrieves a fully rendered page. Implementations must be safe for
// concurrent use; the navigator and seed prober share one instance.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")
