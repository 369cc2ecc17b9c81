package prompts

import (
	"github.com/cloudwego/eino/components/prompt"
)

// SystemPrompts contains all the prompt templates organized by use case
type SystemPrompts struct {
	// Navigation decision template consumed by the model-assisted oracle
	NavigationDecision prompt.ChatTemplate
}

// NewSystemPrompts creates and initializes all prompt templates
func NewSystemPrompts() *SystemPrompts {
	sp := &SystemPrompts{}
	sp.initializePrompts()
	return sp
}

// initializePrompts sets up all the prompt templates
func (sp *SystemPrompts) initializePrompts() {
	sp.NavigationDecision = sp.createNavigationDecisionTemplate()
}
