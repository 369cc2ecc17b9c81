package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := New(DefaultRules())

	tests := []struct {
		name string
		text string
		url  string
		want Class
	}{
		{
			name: "greenhouse posting with id",
			text: "Software Engineer Intern – Acme",
			url:  "https://acme.greenhouse.io/jobs/12345",
			want: Posting,
		},
		{
			name: "generic careers page stays portal even with intern text",
			text: "Internship opportunities",
			url:  "https://acme.com/careers",
			want: PortalRoot,
		},
		{
			name: "careers anchor without job signal",
			text: "Careers at Acme",
			url:  "https://acme.com/careers",
			want: PortalRoot,
		},
		{
			name: "ats host without posting shape",
			text: "Acme hiring portal",
			url:  "https://acme.wd5.myworkdayjobs.com/External",
			want: PortalRoot,
		},
		{
			name: "lever board link without intern term",
			text: "Apply here",
			url:  "https://jobs.lever.co/acme",
			want: PortalRoot,
		},
		{
			name: "id term paired with slug identifier",
			text: "Intern, Platform Engineering",
			url:  "https://acme.com/jobs/software-engineering-intern",
			want: Posting,
		},
		{
			name: "specific path with intern text",
			text: "Summer Intern 2026",
			url:  "https://acme.com/teams/data/roles/summer",
			want: Posting,
		},
		{
			name: "url-only signal with empty text",
			text: "",
			url:  "https://careers.acme.com/internship/software/12345678",
			want: Posting,
		},
		{
			name: "junk phrase rejected",
			text: "Scholarship application form",
			url:  "https://acme.edu/forms/apply",
			want: Noise,
		},
		{
			name: "junk host rejected",
			text: "Follow us",
			url:  "https://www.facebook.com/acme",
			want: Noise,
		},
		{
			name: "junk host subdomain rejected",
			text: "Intern stories",
			url:  "https://m.facebook.com/acme/jobs/12345",
			want: Noise,
		},
		{
			name: "international is not an internship signal",
			text: "International admissions",
			url:  "https://acme.edu/international/admissions",
			want: Noise,
		},
		{
			name: "plain content link",
			text: "Read our blog",
			url:  "https://acme.com/blog/post",
			want: Noise,
		},
		{
			name: "relative url rejected",
			text: "Intern jobs",
			url:  "/careers/jobs/12345",
			want: Noise,
		},
		{
			name: "empty url rejected",
			text: "Internship",
			url:  "",
			want: Noise,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.text, tt.url), "text=%q url=%q", tt.text, tt.url)
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := New(DefaultRules())
	text, url := "Software Engineer Intern – Acme", "https://acme.greenhouse.io/jobs/12345"
	first := c.Classify(text, url)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Classify(text, url))
	}
}

func TestCountIndicators(t *testing.T) {
	c := New(DefaultRules())
	assert.Equal(t, 0, c.CountIndicators("nothing relevant here"))
	assert.Equal(t, 3, c.CountIndicators("Internship openings for co-op students. Apply to an intern role."))
	// Word boundaries: "interns" and "international" carry no listed term.
	assert.Equal(t, 0, c.CountIndicators("international interns-office"))
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "posting", Posting.String())
	assert.Equal(t, "portal_root", PortalRoot.String())
	assert.Equal(t, "noise", Noise.String())
}
