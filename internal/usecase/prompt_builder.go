package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/productadvisor/backend/internal/domain"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// SystemMessage is the persona instruction sent as the system turn.
const SystemMessage = "You are an AI Product Advisor. You recommend products strictly from the catalog you are given " +
	"and always answer with JSON that matches the requested schema."

// ResponseSchemaName names the declared response schema for providers that require one.
const ResponseSchemaName = "product_recommendations"

const fewShotQuery = "Need affordable wireless headphones for gym workouts, sweat resistant, decent bass"

const fewShotSummary = `  "summary": "User prioritizes wireless, workout suitability (sweat resistance), bass, and budget pricing.",
  "search_context": "Interpreted needs: fitness usage, durability, bass emphasis, cost sensitivity"`

const fewShotReason = "Wireless over-ear design suitable for workouts, strong bass profile, price is budget-friendly."

// BuildPrompt produces the user turn for a recommendation request.
// The whole catalog is embedded; it is never truncated or chunked.
func BuildPrompt(query string, catalog []domain.Product, version domain.SchemaVersion) string {
	var sb strings.Builder

	sb.WriteString("You are an AI Product Advisor. A user is looking for products and has described their needs. ")
	sb.WriteString("Recommend the most suitable products from the catalog.\n\n")

	sb.WriteString("STRICT RULES:\n")
	if version == domain.SchemaNameBrand {
		sb.WriteString("- Only use products EXACTLY as they appear (brand + product_name must match)\n")
	} else {
		sb.WriteString("- Only use products EXACTLY as they appear in the catalog and reference each one by its \"id\" as product_id\n")
	}
	sb.WriteString("- Never invent products that are not in the catalog\n")
	sb.WriteString("- If confidence is low or there are fewer than 3 solid matches, return only the valid ones (do NOT fabricate)\n")
	fmt.Fprintf(&sb, "- Maximum %d recommendations\n", domain.MaxRecommendations)
	sb.WriteString("- Output ONLY valid JSON (no markdown fences, no extra commentary)\n")
	sb.WriteString("- Follow the provided JSON schema strictly\n\n")

	sb.WriteString("WEIGHTING (for relevance reasoning & confidence scoring):\n")
	sb.WriteString("- Feature & capability alignment: 50%\n")
	sb.WriteString("- Use-case / scenario fit: 30%\n")
	sb.WriteString("- Price appropriateness vs implied budget / value: 20%\n\n")
	sb.WriteString("confidence_score is a number between 0.0 and 1.0. ")
	sb.WriteString("Include in each reason a concise justification referencing specific features or attributes ")
	sb.WriteString("(brand reputation only if meaningful).\n\n")

	sb.WriteString("FEW-SHOT EXAMPLE (for style only):\n")
	fmt.Fprintf(&sb, "User Query Example: %q\n", fewShotQuery)
	sb.WriteString("Expected JSON snippet (truncated): {\n")
	sb.WriteString("  \"recommendations\": [\n    {\n")
	if version == domain.SchemaNameBrand {
		sb.WriteString("      \"product_name\": \"Bass Headphones\",\n")
		sb.WriteString("      \"brand\": \"LEAF\",\n")
	} else {
		sb.WriteString("      \"product_id\": \"1\",\n")
	}
	fmt.Fprintf(&sb, "      \"reason\": %q,\n", fewShotReason)
	sb.WriteString("      \"confidence_score\": 0.78\n")
	sb.WriteString("    }\n  ],\n")
	sb.WriteString(fewShotSummary)
	sb.WriteString("\n}\n\n")

	sb.WriteString("Now process the actual user request.\n\n")
	fmt.Fprintf(&sb, "Actual User Query: \"%s\"\n\n", query)

	sb.WriteString("Available Products Catalog (JSON):\n")
	sb.WriteString(formatCatalogForPrompt(catalog))
	sb.WriteString("\n")

	return sb.String()
}

// formatCatalogForPrompt pretty-prints the catalog without HTML escaping so
// descriptions like "R&D" reach the model unchanged.
func formatCatalogForPrompt(catalog []domain.Product) string {
	if catalog == nil {
		catalog = []domain.Product{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(catalog); err != nil {
		// []domain.Product only holds strings and float64; NaN/Inf prices are rejected at catalog load
		return "[]"
	}
	return strings.TrimRight(buf.String(), "\n")
}

// ResponseSchema declares the JSON shape the model must produce for the given schema version.
// Every property is required and no extra properties are allowed, as strict structured output demands.
func ResponseSchema(version domain.SchemaVersion) *jsonschema.Definition {
	item := jsonschema.Definition{
		Type:                 jsonschema.Object,
		AdditionalProperties: false,
	}

	if version == domain.SchemaNameBrand {
		item.Properties = map[string]jsonschema.Definition{
			"product_name": {Type: jsonschema.String, Description: "Exact product_name from the catalog"},
			"brand":        {Type: jsonschema.String, Description: "Exact brand from the catalog"},
		}
		item.Required = []string{"product_name", "brand", "reason", "confidence_score"}
	} else {
		item.Properties = map[string]jsonschema.Definition{
			"product_id": {Type: jsonschema.String, Description: "The id of the product in the catalog"},
		}
		item.Required = []string{"product_id", "reason", "confidence_score"}
	}
	item.Properties["reason"] = jsonschema.Definition{
		Type:        jsonschema.String,
		Description: "Why the product fits the user's needs",
	}
	item.Properties["confidence_score"] = jsonschema.Definition{
		Type:        jsonschema.Number,
		Description: "Relevance between 0.0 and 1.0",
	}

	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"recommendations": {
				Type:        jsonschema.Array,
				Description: fmt.Sprintf("At most %d recommendations, best first", domain.MaxRecommendations),
				Items:       &item,
			},
			"summary": {
				Type:        jsonschema.String,
				Description: "One sentence summary of what the user prioritizes",
			},
			"search_context": {
				Type:        jsonschema.String,
				Description: "How the request was interpreted",
			},
		},
		Required:             []string{"recommendations", "summary", "search_context"},
		AdditionalProperties: false,
	}
}
