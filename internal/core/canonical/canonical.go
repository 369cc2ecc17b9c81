package canonical

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Tracking parameters never participate in posting identity.
var trackingParams = map[string]struct{}{
	"gclid":   {},
	"fbclid":  {},
	"msclkid": {},
	"mc_cid":  {},
	"mc_eid":  {},
	"mkt_tok": {},
	"ref":     {},
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9 ]+`)

// Canonicalize normalizes a URL into the form used as a posting's
// deduplication identity: lowercased scheme and host, default port and
// fragment stripped, trailing slashes trimmed, tracking query parameters
// dropped and the survivors re-encoded in sorted key order. LinkedIn URLs
// keep only their job identifier parameter; everything else there is
// per-session noise.
func Canonicalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("not an absolute url: %q", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if (u.Scheme == "http" && u.Port() == "80") || (u.Scheme == "https" && u.Port() == "443") {
		u.Host = u.Hostname()
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	q := u.Query()
	if strings.Contains(u.Host, "linkedin.com") {
		jobID := q.Get("currentJobId")
		q = url.Values{}
		if jobID != "" {
			q.Set("currentJobId", jobID)
		}
	} else {
		for key := range q {
			if isTrackingParam(key) {
				q.Del(key)
			}
		}
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func isTrackingParam(key string) bool {
	k := strings.ToLower(key)
	if strings.HasPrefix(k, "utm_") {
		return true
	}
	_, ok := trackingParams[k]
	return ok
}

// Fingerprint builds the low-cardinality content signature used downstream
// for matching postings across runs: lowercased, punctuation stripped,
// whitespace collapsed. Not an identity key.
func Fingerprint(title, company, link, platform string) string {
	s := strings.ToLower(strings.Join([]string{title, company, link, platform}, " "))
	s = nonAlnum.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
