package navigate

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// jobCardTokens are matched against class/id attributes to count card-shaped
// nodes. Boards differ wildly in markup; any of these marks a listing row.
var jobCardTokens = []string{
	"job-card", "job_card", "jobcard", "job-listing", "job-row",
	"job-result", "job-item", "job-post", "posting", "opening",
	"position-card", "vacancy",
}

// Signals is the page-level job-listing evidence behind the found decision.
type Signals struct {
	PostingLinks int // Posting-classified anchors on the page
	JobCards     int // DOM nodes shaped like listing cards
	Indicators   int // internship terms in the distilled text
}

// found applies the threshold policy: enough posting links alone, enough
// card nodes alone, or at least one indicator phrase backing at least one
// posting link.
func (s Signals) found(minLinks, minCards, minIndicators int) bool {
	if minLinks > 0 && s.PostingLinks >= minLinks {
		return true
	}
	if minCards > 0 && s.JobCards >= minCards {
		return true
	}
	return minIndicators > 0 && s.Indicators >= minIndicators && s.PostingLinks >= 1
}

// countJobCards counts elements whose class or id looks like a listing card.
func countJobCards(html string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0
	}
	count := 0
	doc.Find("[class], [id]").Each(func(_ int, sel *goquery.Selection) {
		classVal, _ := sel.Attr("class")
		idVal, _ := sel.Attr("id")
		lower := strings.ToLower(classVal + " " + idVal)
		for _, tok := range jobCardTokens {
			if strings.Contains(lower, tok) {
				count++
				return
			}
		}
	})
	return count
}
