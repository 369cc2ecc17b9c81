package fetch

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"internhunt/internal/utils/pagetext"
)

// Anchor text feeding classification stays short: titles fit comfortably,
// footer paragraphs get cut.
const maxAnchorTextRunes = 150

// ExtractAnchors parses anchors out of raw HTML with goquery. Fallback for
// pages where live-DOM extraction came back empty, and the path tests drive
// directly. Skips non-navigational schemes and bare fragments; first
// occurrence wins on duplicate targets.
func ExtractAnchors(html, baseURL string) []Anchor {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	seen := make(map[string]bool)
	var anchors []Anchor
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if skipHref(href) {
			return
		}
		abs := absolutize(base, href)
		if abs == "" || seen[abs] {
			return
		}
		text := sel.Text()
		if pagetext.CollapseSpace(text) == "" {
			text = sel.AttrOr("aria-label", "")
		}
		if pagetext.CollapseSpace(text) == "" {
			text = sel.AttrOr("title", "")
		}
		seen[abs] = true
		anchors = append(anchors, NewAnchor(text, abs))
	})
	return anchors
}

// NewAnchor builds an Anchor with collapsed, truncated text and the lowercase
// host split out for classification.
func NewAnchor(text, absURL string) Anchor {
	host := ""
	if u, err := url.Parse(absURL); err == nil {
		host = strings.ToLower(u.Hostname())
	}
	return Anchor{
		Text: pagetext.Truncate(pagetext.CollapseSpace(text), maxAnchorTextRunes),
		URL:  absURL,
		Host: host,
	}
}

func skipHref(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return true
	}
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "data:")
}

func absolutize(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}
