package decide

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"internhunt/internal/logger"
	"internhunt/internal/platform/eino"
	"internhunt/internal/utils/pagetext"
	"internhunt/prompts"
)

const (
	// Candidate links offered to the model per decision.
	maxOracleCandidates = 20
	// Rune budget for the page-text context.
	maxOraclePageRunes = 2000
	// Response budget: a decision is three short fields.
	oracleMaxTokens = 300
)

// ModelAssistedOracle decorates the heuristic: confident heuristic decisions
// stand as-is, ambiguous ones are delegated to the LLM. Any model failure
// degrades to the heuristic's answer, so navigation never depends on model
// availability.
type ModelAssistedOracle struct {
	heuristic *HeuristicOracle
	llm       *eino.Service
	prompts   *prompts.SystemPrompts
	timeout   time.Duration
	log       *logger.Logger
}

func NewModelAssistedOracle(heuristic *HeuristicOracle, llm *eino.Service, sp *prompts.SystemPrompts, timeoutSec int) *ModelAssistedOracle {
	if timeoutSec <= 0 {
		timeoutSec = 12
	}
	return &ModelAssistedOracle{
		heuristic: heuristic,
		llm:       llm,
		prompts:   sp,
		timeout:   time.Duration(timeoutSec) * time.Second,
		log:       logger.New("ModelOracle"),
	}
}

func (o *ModelAssistedOracle) Decide(ctx context.Context, q Question) Decision {
	d, confident := o.heuristic.evaluate(q)
	if confident || o.llm == nil {
		return d
	}

	md, err := o.consult(ctx, q)
	if err != nil {
		o.log.LogWarnf("model oracle failed, keeping heuristic decision %q: %v", d.Action, err)
		return d
	}
	return md
}

func (o *ModelAssistedOracle) consult(ctx context.Context, q Question) (Decision, error) {
	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	candidates := q.Candidates
	if len(candidates) > maxOracleCandidates {
		candidates = candidates[:maxOracleCandidates]
	}

	vars := map[string]any{
		"current_url": sanitizeBraces(q.CurrentURL),
		"page_text":   sanitizeBraces(pagetext.Truncate(q.PageText, maxOraclePageRunes)),
		"links":       formatCandidates(candidates),
	}
	messages, err := o.prompts.NavigationDecision.Format(cctx, vars)
	if err != nil {
		return Decision{}, fmt.Errorf("format navigation prompt: %w", err)
	}

	content, usage, err := o.llm.GenerateJSON(cctx, messages, decisionSchema(), oracleMaxTokens)
	if err != nil {
		return Decision{}, err
	}
	if usage != nil {
		o.log.LogDebugf("oracle decision tokens: in=%d out=%d", usage.InputTokens, usage.OutputTokens)
	}

	var raw struct {
		Action string `json:"action"`
		URL    string `json:"url"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return Decision{}, fmt.Errorf("invalid oracle response: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(raw.Action)) {
	case "follow":
		chosen := strings.TrimSpace(raw.URL)
		if !isCandidate(candidates, chosen) {
			return Decision{}, fmt.Errorf("oracle chose a non-candidate url %q", chosen)
		}
		return Decision{Action: ActionFollow, URL: chosen, Reason: raw.Reason}, nil
	case "found":
		return Decision{Action: ActionFound, Reason: raw.Reason}, nil
	case "stop":
		return Decision{Action: ActionStop, Reason: raw.Reason}, nil
	}
	return Decision{}, fmt.Errorf("oracle returned unknown action %q", raw.Action)
}

// formatCandidates renders the numbered list shown to the model.
func formatCandidates(candidates []Candidate) string {
	var b strings.Builder
	for i, c := range candidates {
		text := sanitizeBraces(c.Text)
		if text == "" {
			text = "(no text)"
		}
		fmt.Fprintf(&b, "%d. [%s] %s -> %s\n", i+1, c.Class, text, sanitizeBraces(c.URL))
	}
	return strings.TrimRight(b.String(), "\n")
}

func isCandidate(candidates []Candidate, url string) bool {
	for _, c := range candidates {
		if c.URL == url {
			return true
		}
	}
	return false
}

// FString treats braces as placeholders, so none may survive in values.
func sanitizeBraces(s string) string {
	return strings.NewReplacer("{", "(", "}", ")").Replace(s)
}
