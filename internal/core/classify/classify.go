package classify

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Class is the classifier verdict for a single candidate link.
type Class int

const (
	Noise Class = iota
	PortalRoot
	Posting
)

func (c Class) String() string {
	switch c {
	case Posting:
		return "posting"
	case PortalRoot:
		return "portal_root"
	default:
		return "noise"
	}
}

// Classifier decides whether a link is a specific posting, a career portal
// worth navigating into, or noise. Deterministic, no I/O; all policy comes
// from the rule table.
type Classifier struct {
	rules Rules

	termRe   *regexp.Regexp
	digitRun *regexp.Regexp
	generic  map[string]struct{}
	idTerms  map[string]struct{}
	portal   map[string]struct{}
}

func New(rules Rules) *Classifier {
	c := &Classifier{
		rules:    rules,
		digitRun: regexp.MustCompile(fmt.Sprintf(`\d{%d,}`, rules.MinIDDigits)),
		generic:  toSet(rules.GenericSegments),
		idTerms:  toSet(rules.IDPathTerms),
		portal:   toSet(rules.PortalPathTerms),
	}
	c.termRe = compileTerms(rules.InternshipTerms)
	return c
}

// Classify implements the (text, url) -> {Posting, PortalRoot, Noise} contract.
// Text may be empty; the URL signal alone then decides.
func (c *Classifier) Classify(text, rawURL string) Class {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !u.IsAbs() || u.Hostname() == "" {
		return Noise
	}
	host := strings.ToLower(u.Hostname())
	if c.junkHost(host) {
		return Noise
	}

	joined := strings.ToLower(strings.TrimSpace(text) + " " + rawURL)
	for _, phrase := range c.rules.JunkPhrases {
		if strings.Contains(joined, phrase) {
			return Noise
		}
	}

	segments := pathSegments(u.EscapedPath())
	if c.termRe.MatchString(joined) && (c.idLikePath(u.EscapedPath(), segments) || c.specificPath(segments)) {
		return Posting
	}

	// Mixed or weak indicators prefer a portal verdict over discarding: an
	// internship term on a generic "/careers" page still needs navigation.
	if c.atsHost(host) || c.portalPath(segments) {
		return PortalRoot
	}
	return Noise
}

// CountIndicators reports how many internship-indicating terms occur in the
// given text. Used for page-level found signals.
func (c *Classifier) CountIndicators(text string) int {
	return len(c.termRe.FindAllStringIndex(strings.ToLower(text), -1))
}

func (c *Classifier) Rules() Rules { return c.rules }

func (c *Classifier) junkHost(host string) bool {
	for _, j := range c.rules.JunkHosts {
		if host == j || strings.HasSuffix(host, "."+j) {
			return true
		}
	}
	return false
}

func (c *Classifier) atsHost(host string) bool {
	for _, hint := range c.rules.ATSHostHints {
		if strings.Contains(host, hint) {
			return true
		}
	}
	return false
}

func (c *Classifier) portalPath(segments []string) bool {
	for _, seg := range segments {
		if _, ok := c.portal[seg]; ok {
			return true
		}
	}
	return false
}

// idLikePath reports whether the path carries an identifier: a long digit run
// anywhere, or an ID path term followed by an identifier-shaped segment.
func (c *Classifier) idLikePath(path string, segments []string) bool {
	if c.digitRun.MatchString(path) {
		return true
	}
	for i, seg := range segments {
		if _, ok := c.idTerms[seg]; !ok {
			continue
		}
		if i+1 < len(segments) && identifierLike(segments[i+1]) {
			return true
		}
	}
	return false
}

// specificPath reports whether enough non-generic segments remain for the path
// to plausibly address one posting rather than a listing.
func (c *Classifier) specificPath(segments []string) bool {
	n := 0
	for _, seg := range segments {
		if _, ok := c.generic[seg]; !ok {
			n++
		}
	}
	return n >= c.rules.MinSpecificSegments
}

func identifierLike(seg string) bool {
	if strings.ContainsAny(seg, "0123456789") {
		return true
	}
	return len(seg) >= 8 && strings.Contains(seg, "-")
}

func pathSegments(path string) []string {
	parts := strings.Split(strings.ToLower(path), "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func compileTerms(terms []string) *regexp.Regexp {
	if len(terms) == 0 {
		// Never matches.
		return regexp.MustCompile(`a^`)
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(t))
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

func toSet(items []string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[strings.ToLower(it)] = struct{}{}
	}
	return m
}
