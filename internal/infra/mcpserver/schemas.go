package mcpserver

import (
	"github.com/google/jsonschema-go/jsonschema"

	"mcpreg/internal/domain"
)

func statusFilterSchema() *jsonschema.Schema {
	values := []any{domain.StatusFilterAll}
	for _, status := range domain.AllStatuses {
		values = append(values, string(status))
	}
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"status": {
				Type:        "string",
				Enum:        values,
				Description: "Filter by tool status (default: all)",
			},
		},
	}
}

func toolNameSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"tool": {
				Type:        "string",
				Description: description,
			},
		},
		Required: []string{"tool"},
	}
}

func emptySchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{},
	}
}
