package decide

import (
	"github.com/cloudwego/eino/schema"
	"github.com/eino-contrib/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// decisionSchema forces the model to answer with one navigation decision.
func decisionSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:     string(schema.Object),
		Required: []string{"action"},
		Properties: orderedmap.New[string, *jsonschema.Schema](
			orderedmap.WithInitialData[string, *jsonschema.Schema](
				orderedmap.Pair[string, *jsonschema.Schema]{
					Key: "action",
					Value: &jsonschema.Schema{
						Type:        string(schema.String),
						Description: "'follow' to open one link, 'found' if the current page already lists internship postings, 'stop' if this is a dead end",
						Enum:        []any{"follow", "found", "stop"},
					},
				},
				orderedmap.Pair[string, *jsonschema.Schema]{
					Key: "url",
					Value: &jsonschema.Schema{
						Type:        string(schema.String),
						Description: "Absolute URL copied exactly from the candidate list. Required when action is 'follow'.",
					},
				},
				orderedmap.Pair[string, *jsonschema.Schema]{
					Key: "reason",
					Value: &jsonschema.Schema{
						Type:        string(schema.String),
						Description: "One short sentence explaining the choice",
					},
				},
			),
		),
	}
}
