package canonical

import (
	"strings"
	"time"

	"internhunt/internal/core/ats"
)

// Posting is the immutable record for one discovered internship posting.
// Link is the canonical URL and is unique within a run's result set.
type Posting struct {
	Title       string       `json:"title"`
	Company     string       `json:"company,omitempty"`
	Link        string       `json:"link"`
	Platform    ats.Platform `json:"platform"`
	Source      string       `json:"source"`
	FirstSeen   time.Time    `json:"first_seen"`
	Fingerprint string       `json:"fingerprint"`
}

// NewPosting canonicalizes the link, resolves its platform and stamps the
// fingerprint. sourceURL is the page the link was found on, not the link
// itself.
func NewPosting(title, company, rawURL, sourceURL string) (Posting, error) {
	link, err := Canonicalize(rawURL)
	if err != nil {
		return Posting{}, err
	}
	platform := ats.Resolve(link)
	return Posting{
		Title:       strings.TrimSpace(title),
		Company:     strings.TrimSpace(company),
		Link:        link,
		Platform:    platform,
		Source:      sourceURL,
		FirstSeen:   time.Now().UTC(),
		Fingerprint: Fingerprint(title, company, link, string(platform)),
	}, nil
}
