package submit

import (
	"internhunt/internal/core/ats"
)

// Identity is the applicant profile injected into every application form.
type Identity struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone"`
	ProfileURL string `json:"profile_url" validate:"omitempty,url"`
}

// Target is one posting selected for application.
type Target struct {
	Title   string `json:"title"`
	Company string `json:"company"`
	URL     string `json:"url" validate:"required,url"`
}

// Batch carries everything one submission run needs: who is applying, the
// résumé, the cover text, and the selected postings.
type Batch struct {
	Identity       Identity
	ResumeBytes    []byte
	ResumeFilename string
	CoverText      string
	Targets        []Target
}

// Application is the per-attempt fill context handed to a filler: the
// identity, the materialized résumé file, and the already-truncated cover.
type Application struct {
	Identity   Identity
	ResumePath string
	CoverText  string
}

type Status string

const (
	StatusSubmitted      Status = "submitted"
	StatusManualRequired Status = "manual_required"
	StatusError          Status = "error"
)

// Result records the outcome of one filler invocation. Immutable once built.
type Result struct {
	Platform ats.Platform `json:"platform"`
	Status   Status       `json:"status"`
	Reason   string       `json:"reason,omitempty"`
	FinalURL string       `json:"final_url"`
	Title    string       `json:"title"`
	Company  string       `json:"company"`
	URL      string       `json:"url"`
	ProofURL string       `json:"proof_url,omitempty"`
}

// Cover letters beyond this are cut; ATS textareas reject oversized input
// with opaque client-side errors.
const maxCoverRunes = 4000

func truncateCover(s string) string {
	runes := []rune(s)
	if len(runes) <= maxCoverRunes {
		return s
	}
	return string(runes[:maxCoverRunes])
}

func errorResult(platform ats.Platform, target Target, reason string) Result {
	return Result{
		Platform: platform,
		Status:   StatusError,
		Reason:   reason,
		FinalURL: target.URL,
		Title:    target.Title,
		Company:  target.Company,
		URL:      target.URL,
	}
}
