package decide

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"internhunt/internal/core/classify"
)

func portal(text, url string) Candidate {
	return Candidate{Text: text, URL: url, Class: classify.PortalRoot}
}

func posting(text, url string) Candidate {
	return Candidate{Text: text, URL: url, Class: classify.Posting}
}

func TestHeuristicStopsWithoutCandidates(t *testing.T) {
	o := NewHeuristicOracle()
	d := o.Decide(context.Background(), Question{CurrentURL: "https://acme.com/careers"})
	assert.Equal(t, ActionStop, d.Action)
}

func TestHeuristicFoundWhenPostingsPresent(t *testing.T) {
	o := NewHeuristicOracle()
	d := o.Decide(context.Background(), Question{
		CurrentURL: "https://acme.com/careers",
		Candidates: []Candidate{
			portal("All jobs", "https://acme.com/careers/search"),
			posting("SWE Intern", "https://boards.greenhouse.io/acme/jobs/4012345"),
		},
	})
	assert.Equal(t, ActionFound, d.Action)
	assert.Empty(t, d.URL)
}

func TestHeuristicFollowsMostSpecificCandidate(t *testing.T) {
	o := NewHeuristicOracle()
	d := o.Decide(context.Background(), Question{
		CurrentURL: "https://acme.com/careers",
		Candidates: []Candidate{
			portal("Careers home", "https://acme.com/careers"),
			portal("Student programs", "https://acme.com/careers/students/internships"),
		},
	})
	assert.Equal(t, ActionFollow, d.Action)
	assert.Equal(t, "https://acme.com/careers/students/internships", d.URL)
}

func TestHeuristicStopsWhenNothingMoreSpecific(t *testing.T) {
	o := NewHeuristicOracle()
	// Every candidate is at or above the current page's depth.
	d := o.Decide(context.Background(), Question{
		CurrentURL: "https://acme.com/careers/students/internships",
		Candidates: []Candidate{
			portal("Careers", "https://acme.com/careers"),
			portal("About", "https://acme.com/about"),
		},
	})
	assert.Equal(t, ActionStop, d.Action)
}

func TestHeuristicDigitRunOutranksDepth(t *testing.T) {
	o := NewHeuristicOracle()
	d := o.Decide(context.Background(), Question{
		CurrentURL: "https://acme.com/c",
		Candidates: []Candidate{
			portal("Deep portal", "https://acme.com/careers/na/students/engineering"),
			portal("Requisition", "https://acme.com/careers/4012345"),
		},
	})
	assert.Equal(t, ActionFollow, d.Action)
	// depth 2 + digit-run 3 = 5 beats plain depth 4.
	assert.Equal(t, "https://acme.com/careers/4012345", d.URL)
}

func TestEvaluateConfidence(t *testing.T) {
	o := NewHeuristicOracle()

	t.Run("single candidate is confident", func(t *testing.T) {
		_, confident := o.evaluate(Question{
			CurrentURL: "https://acme.com/",
			Candidates: []Candidate{portal("Careers", "https://acme.com/careers/students")},
		})
		assert.True(t, confident)
	})

	t.Run("wide margin is confident", func(t *testing.T) {
		_, confident := o.evaluate(Question{
			CurrentURL: "https://acme.com/",
			Candidates: []Candidate{
				portal("Careers", "https://acme.com/careers"),
				portal("Internships", "https://acme.com/careers/students/internships"),
			},
		})
		assert.True(t, confident)
	})

	t.Run("near tie is not confident", func(t *testing.T) {
		d, confident := o.evaluate(Question{
			CurrentURL: "https://acme.com/",
			Candidates: []Candidate{
				portal("Teams", "https://acme.com/careers/teams"),
				portal("Locations", "https://acme.com/careers/locations"),
			},
		})
		assert.Equal(t, ActionFollow, d.Action)
		assert.False(t, confident)
	})

	t.Run("stop verdicts are not confident", func(t *testing.T) {
		d, confident := o.evaluate(Question{
			CurrentURL: "https://acme.com/careers/students",
			Candidates: []Candidate{portal("Home", "https://acme.com/")},
		})
		assert.Equal(t, ActionStop, d.Action)
		assert.False(t, confident)
	})
}

func TestSpecificity(t *testing.T) {
	assert.Equal(t, 2, specificity(portal("x", "https://a.com/careers/students")))
	assert.Equal(t, 5, specificity(portal("x", "https://a.com/jobs/4012345")))
	assert.Equal(t, 7, specificity(posting("x", "https://a.com/jobs/4012345")))
	assert.Equal(t, 0, specificity(portal("x", "https://a.com/")))
}
