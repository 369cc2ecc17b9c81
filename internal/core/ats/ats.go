package ats

import (
	"net/url"
	"strings"
)

// Platform identifies the applicant tracking system hosting a posting.
type Platform string

const (
	PlatformGreenhouse      Platform = "greenhouse"
	PlatformLever           Platform = "lever"
	PlatformWorkday         Platform = "workday"
	PlatformICIMS           Platform = "icims"
	PlatformSmartRecruiters Platform = "smartrecruiters"
	PlatformTaleo           Platform = "taleo"
	PlatformOther           Platform = "other"
)

// hostHints map host fragments to platform identities. Ordered so the more
// specific fragments win before the catch-all "workday" naming.
var hostHints = []struct {
	fragment string
	platform Platform
}{
	{"greenhouse.io", PlatformGreenhouse},
	{"lever.co", PlatformLever},
	{"myworkdayjobs.com", PlatformWorkday},
	{"workday.com", PlatformWorkday},
	{"icims.com", PlatformICIMS},
	{"smartrecruiters.com", PlatformSmartRecruiters},
	{"taleo.net", PlatformTaleo},
}

// Resolve maps a URL's host to a known ATS identity, or PlatformOther.
// Pure string matching, no network calls.
func Resolve(rawURL string) Platform {
	host := hostOf(rawURL)
	if host == "" {
		// Unparseable input still gets a best-effort substring match so a
		// malformed but recognizable target dispatches to the right filler.
		host = strings.ToLower(rawURL)
	}
	for _, h := range hostHints {
		if strings.Contains(host, h.fragment) {
			return h.platform
		}
	}
	return PlatformOther
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// CompanyFromURL infers a company slug from hosting conventions: ATS paths
// carry the board slug (boards.greenhouse.io/<slug>, jobs.lever.co/<slug>),
// Workday brands the subdomain (<slug>.wd5.myworkdayjobs.com), and corporate
// career hosts reduce to the registrable label (careers.acme.com -> acme).
// Returns "" when nothing plausible is found.
func CompanyFromURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	segments := strings.FieldsFunc(u.EscapedPath(), func(r rune) bool { return r == '/' })

	switch Resolve(rawURL) {
	case PlatformGreenhouse, PlatformLever, PlatformSmartRecruiters:
		if len(segments) > 0 {
			return cleanSlug(segments[0])
		}
		return ""
	case PlatformWorkday:
		if label := firstLabel(host); label != "" && !strings.HasPrefix(label, "wd") {
			return cleanSlug(label)
		}
		return ""
	}

	for _, prefix := range []string{"careers.", "jobs.", "career.", "www."} {
		host = strings.TrimPrefix(host, prefix)
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return ""
	}
	return cleanSlug(labels[0])
}

func firstLabel(host string) string {
	if i := strings.Index(host, "."); i > 0 {
		return host[:i]
	}
	return ""
}

func cleanSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "jobs" || s == "careers" || s == "www" || s == "en" {
		return ""
	}
	if strings.Trim(s, "0123456789") == "" {
		// IP literals carry no brand.
		return ""
	}
	return s
}
