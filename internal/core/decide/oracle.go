package decide

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"internhunt/internal/core/classify"
	"internhunt/internal/logger"
)

// Action is what the navigator should do next.
type Action int

const (
	ActionStop Action = iota
	ActionFollow
	ActionFound
)

func (a Action) String() string {
	switch a {
	case ActionFollow:
		return "follow"
	case ActionFound:
		return "found"
	default:
		return "stop"
	}
}

// Candidate is a classified link offered up for a decision, in page order.
type Candidate struct {
	Text  string
	URL   string
	Class classify.Class
}

// Question frames one navigation decision: where to go from the current page.
// Candidates are pre-filtered to PortalRoot/Posting classes.
type Question struct {
	CurrentURL string
	PageText   string
	Candidates []Candidate
}

// Decision is the oracle's answer. URL is set only for ActionFollow.
type Decision struct {
	Action Action
	URL    string
	Reason string
}

// Oracle picks between following a candidate link, accepting the current page
// as a listings page, and stopping. Implementations never return errors:
// uncertainty and internal failures resolve to a safe decision.
type Oracle interface {
	Decide(ctx context.Context, q Question) Decision
}

// Spread needed between the top two candidate scores before the heuristic
// calls its follow choice confident.
const confidenceMargin = 2

var idDigitRun = regexp.MustCompile(`[0-9]{5,}`)

// HeuristicOracle scores candidates by URL specificity: deeper paths, long
// digit runs and posting-classified links beat shallow portal pages.
type HeuristicOracle struct {
	log *logger.Logger
}

func NewHeuristicOracle() *HeuristicOracle {
	return &HeuristicOracle{log: logger.New("Oracle")}
}

func (o *HeuristicOracle) Decide(_ context.Context, q Question) Decision {
	d, _ := o.evaluate(q)
	return d
}

// evaluate returns the decision plus whether it is confident enough to stand
// without model consultation.
func (o *HeuristicOracle) evaluate(q Question) (Decision, bool) {
	if len(q.Candidates) == 0 {
		return Decision{Action: ActionStop, Reason: "no candidate links"}, true
	}

	// Posting links on the current page make it a listings page even when
	// the found-signals missed it.
	for _, c := range q.Candidates {
		if c.Class == classify.Posting {
			return Decision{Action: ActionFound, Reason: "posting links present on current page"}, false
		}
	}

	pageScore := pathDepth(q.CurrentURL)
	bestIdx, bestScore, secondScore := 0, -1, -1
	for i, c := range q.Candidates {
		score := specificity(c)
		if score > bestScore {
			bestIdx, secondScore, bestScore = i, bestScore, score
		} else if score > secondScore {
			secondScore = score
		}
	}

	if bestScore <= pageScore {
		return Decision{Action: ActionStop, Reason: "no candidate more specific than current page"}, false
	}

	d := Decision{
		Action: ActionFollow,
		URL:    q.Candidates[bestIdx].URL,
		Reason: "most specific candidate",
	}
	confident := len(q.Candidates) == 1 || bestScore-secondScore >= confidenceMargin
	return d, confident
}

// specificity approximates how close a link is to an individual posting.
func specificity(c Candidate) int {
	score := pathDepth(c.URL)
	if u, err := url.Parse(c.URL); err == nil && idDigitRun.MatchString(u.Path) {
		score += 3
	}
	if c.Class == classify.Posting {
		score += 2
	}
	return score
}

func pathDepth(rawURL string) int {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	depth := 0
	for _, seg := range strings.Split(u.Path, "/") {
		if strings.TrimSpace(seg) != "" {
			depth++
		}
	}
	return depth
}
