package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules is the single tunable table driving link classification. Every policy
// knob lives here so platform drift is patched by swapping table contents, not
// by editing classifier logic. A YAML file may override any subset of fields;
// absent fields keep their defaults.
type Rules struct {
	// Hosts that never carry postings worth following (social, video, shorteners).
	JunkHosts []string `yaml:"junk_hosts"`
	// Phrases marking administrative or advisory pages with no job signal.
	JunkPhrases []string `yaml:"junk_phrases"`
	// Terms indicating internship relevance in anchor text or URL.
	InternshipTerms []string `yaml:"internship_terms"`
	// Host fragments hinting at a career platform (broader than the resolver's
	// identity table: unresolvable ATSes still classify as portals).
	ATSHostHints []string `yaml:"ats_host_hints"`
	// Path segments marking a generic careers/jobs portal.
	PortalPathTerms []string `yaml:"portal_path_terms"`
	// Path terms that, paired with a trailing identifier, mark a specific posting.
	IDPathTerms []string `yaml:"id_path_terms"`
	// Segments too generic to count toward path specificity.
	GenericSegments []string `yaml:"generic_segments"`
	// Minimum digit-run length for an ID-like path segment.
	MinIDDigits int `yaml:"min_id_digits"`
	// Minimum count of non-generic segments for a "specific enough" path.
	MinSpecificSegments int `yaml:"min_specific_segments"`
}

func DefaultRules() Rules {
	return Rules{
		JunkHosts: []string{
			"facebook.com", "twitter.com", "x.com", "instagram.com",
			"youtube.com", "youtu.be", "tiktok.com", "linkedin.com",
			"bit.ly", "t.co",
		},
		JunkPhrases: []string{
			"evaluation form", "assessment form", "scholarship", "bursary",
			"tuition", "academic calendar", "course outline", "faculty",
			"alumni", "career advising", "career services", "career counselling",
			"career fair", "resume tips", "interview tips", "privacy policy",
			"terms of use", "accessibility", "sitemap", "newsletter",
			"cookie policy", "sign in", "log in",
		},
		InternshipTerms: []string{
			"intern", "internship", "internships", "co-op", "coop",
			"co-operative", "student placement", "summer student",
			"summer analyst", "early career", "graduate program", "apprentice",
		},
		ATSHostHints: []string{
			"greenhouse.io", "lever.co", "myworkdayjobs", "workday",
			"icims", "smartrecruiters", "taleo", "jobvite", "workable",
			"bamboohr", "ashbyhq", "recruitee", "successfactors",
		},
		PortalPathTerms: []string{
			"careers", "career", "jobs", "employment", "opportunities",
			"join-us", "joinus", "work-with-us", "recruiting", "talent",
			"students",
		},
		IDPathTerms: []string{
			"job", "jobs", "position", "positions", "apply", "opening",
			"openings", "req", "requisition", "posting", "vacancy",
		},
		GenericSegments: []string{
			"careers", "career", "jobs", "job", "employment", "opportunities",
			"positions", "openings", "students", "search", "list", "listings",
			"home", "index", "www", "en", "en-us", "en-ca", "en-gb", "fr",
			"fr-ca", "external", "global",
		},
		MinIDDigits:         5,
		MinSpecificSegments: 3,
	}
}

// LoadRules reads a YAML override file on top of the defaults. An empty path
// returns the defaults unchanged.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(b, &rules); err != nil {
		return rules, fmt.Errorf("parse rules file: %w", err)
	}
	if rules.MinIDDigits <= 0 {
		rules.MinIDDigits = DefaultRules().MinIDDigits
	}
	if rules.MinSpecificSegments <= 0 {
		rules.MinSpecificSegments = DefaultRules().MinSpecificSegments
	}
	return rules, nil
}
