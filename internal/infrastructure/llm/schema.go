package llm

import (
	"github.com/sashabaranov/go-openai/jsonschema"
	"google.golang.org/genai"
)

// toGenaiSchema converts a JSON schema definition to the subset Gemini accepts.
// additionalProperties has no Gemini equivalent and is dropped.
func toGenaiSchema(def *jsonschema.Definition) *genai.Schema {
	if def == nil {
		return nil
	}

	s := &genai.Schema{
		Type:        mapType(def.Type),
		Description: def.Description,
		Enum:        def.Enum,
		Required:    def.Required,
	}

	if len(def.Properties) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(def.Properties))
		for name, prop := range def.Properties {
			s.Properties[name] = toGenaiSchema(&prop)
		}
	}
	if def.Items != nil {
		s.Items = toGenaiSchema(def.Items)
	}
	return s
}

func mapType(t jsonschema.DataType) genai.Type {
	switch t {
	case jsonschema.Object:
		return genai.TypeObject
	case jsonschema.Array:
		return genai.TypeArray
	case jsonschema.String:
		return genai.TypeString
	case jsonschema.Number:
		return genai.TypeNumber
	case jsonschema.Integer:
		return genai.TypeInteger
	case jsonschema.Boolean:
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}
