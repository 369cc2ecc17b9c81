package pagetext

import (
	"bytes"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

var (
	imgLineRe     = regexp.MustCompile(`!\[[^\]]*\]\([^\)]+\)`)
	blankRunsRe   = regexp.MustCompile(`\n{3,}`)
	controlRunsRe = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
)

// boilerplate keywords matched against class/id attributes; elements whose
// attributes contain one are dropped before conversion
var boilerplateKeywords = []string{
	"cookie", "consent", "banner", "navbar", "nav-", "menu-",
	"pagination", "share", "search-", "signup", "signin", "login",
	"ad-", "advert", "promo", "modal", "popup", "dialog",
	"breadcrumbs", "breadcrumb", "sidebar", "footer",
}

// Distill converts rendered page HTML into compact markdown-ish text suitable
// for term counting and as oracle context. It keeps link texts (job titles
// usually live in anchors) while stripping navigation chrome, scripts and
// repeated board furniture.
func Distill(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	// Prefer an explicit main-content region when the page declares one
	var content *goquery.Selection
	for _, sel := range []string{"main", "[role=\"main\"]", "#content", "#main"} {
		if doc.Find(sel).Length() > 0 {
			content = doc.Find(sel).First()
			break
		}
	}
	if content == nil {
		content = doc.Find("body")
	}

	content.Find("script, style, noscript, nav, header, aside, iframe, svg, button, input").Each(func(_ int, s *goquery.Selection) { s.Remove() })
	content.Find("[role=\"navigation\"], [role=\"banner\"], [role=\"contentinfo\"], [aria-label*=\"cookie\" i], [aria-modal]").Each(func(_ int, s *goquery.Selection) { s.Remove() })

	content.Find("[class], [id]").Each(func(_ int, sel *goquery.Selection) {
		classVal, _ := sel.Attr("class")
		idVal, _ := sel.Attr("id")
		lower := strings.ToLower(classVal + " " + idVal)
		for _, kw := range boilerplateKeywords {
			if strings.Contains(lower, kw) {
				sel.Remove()
				break
			}
		}
	})

	body, err := content.Html()
	if err != nil {
		return ""
	}

	conv := md.NewConverter("", true, nil)
	out, err := conv.ConvertString(body)
	if err != nil {
		return ""
	}

	out = dedupeLines(out)
	out = controlRunsRe.ReplaceAllString(out, "")
	// Prompt templates treat braces as placeholders
	out = strings.NewReplacer("{", "(", "}", ")").Replace(out)
	out = blankRunsRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// dedupeLines drops pure image lines and exact repeats of link lines. Job
// boards render the same "Apply" anchors dozens of times per page.
func dedupeLines(markdown string) string {
	var cleaned bytes.Buffer
	seen := make(map[string]bool)

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			cleaned.WriteString("\n")
			continue
		}
		if imgLineRe.MatchString(trimmed) && strings.TrimSpace(imgLineRe.ReplaceAllString(trimmed, "")) == "" {
			continue
		}
		if strings.Contains(trimmed, "](") {
			key := CollapseSpace(strings.ToLower(trimmed))
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		cleaned.WriteString(trimmed + "\n")
	}

	return cleaned.String()
}

// CollapseSpace normalizes runs of whitespace (incl. newlines) to single
// spaces and trims the ends.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most max runes. No ellipsis: downstream consumers
// count terms and feed prompts, neither wants a marker character.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
