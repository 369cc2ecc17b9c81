package submit

import (
	"fmt"
	"os"

	"internhunt/internal/core/ats"

	"gopkg.in/yaml.v3"
)

// SelectorSet lists candidate CSS selectors per form field. A filler tries
// each list in order and fills the first control that exists; fields whose
// lists match nothing are skipped.
type SelectorSet struct {
	Resume    []string `yaml:"resume"`
	FirstName []string `yaml:"first_name"`
	LastName  []string `yaml:"last_name"`
	FullName  []string `yaml:"full_name"`
	Email     []string `yaml:"email"`
	Phone     []string `yaml:"phone"`
	Cover     []string `yaml:"cover"`
	Submit    []string `yaml:"submit"`
}

// Selectors maps each scripted platform to its selector lists.
type Selectors map[ats.Platform]SelectorSet

// DefaultSelectors covers the hosted form layouts of the scripted platforms.
// Greenhouse boards key fields by id, Lever posting forms by input name;
// the trailing generic selectors absorb lightly-customized boards.
func DefaultSelectors() Selectors {
	return Selectors{
		ats.PlatformGreenhouse: {
			Resume:    []string{`input[type="file"]#resume`, `input[name="resume"]`, `input[type="file"]`},
			FirstName: []string{`#first_name`, `input[name="job_application[first_name]"]`, `input[autocomplete="given-name"]`},
			LastName:  []string{`#last_name`, `input[name="job_application[last_name]"]`, `input[autocomplete="family-name"]`},
			Email:     []string{`#email`, `input[name="job_application[email]"]`, `input[type="email"]`},
			Phone:     []string{`#phone`, `input[name="job_application[phone]"]`, `input[type="tel"]`},
			Cover:     []string{`#cover_letter_text`, `textarea[name="job_application[cover_letter_text]"]`, `textarea`},
			Submit:    []string{`#submit_app`, `button[type="submit"]`, `input[type="submit"]`},
		},
		ats.PlatformLever: {
			Resume:   []string{`#resume-upload-input`, `input[name="resume"]`, `input[type="file"]`},
			FullName: []string{`input[name="name"]`, `#name`},
			Email:    []string{`input[name="email"]`, `input[type="email"]`},
			Phone:    []string{`input[name="phone"]`, `input[type="tel"]`},
			Cover:    []string{`textarea[name="comments"]`, `#additional-information textarea`, `textarea`},
			Submit:   []string{`#btn-submit`, `button[type="submit"]`, `input[type="submit"]`},
		},
	}
}

// LoadSelectors reads a YAML override file on top of the defaults. Platform
// sections present in the file replace that platform's lists wholesale;
// absent platforms keep the compiled-in sets. An empty path returns the
// defaults unchanged.
func LoadSelectors(path string) (Selectors, error) {
	sel := DefaultSelectors()
	if path == "" {
		return sel, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return sel, fmt.Errorf("read selectors file: %w", err)
	}
	var override map[ats.Platform]SelectorSet
	if err := yaml.Unmarshal(b, &override); err != nil {
		return sel, fmt.Errorf("parse selectors file: %w", err)
	}
	for platform, set := range override {
		sel[platform] = set
	}
	return sel, nil
}
