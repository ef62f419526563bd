package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxRecommendations caps how many candidates are requested from and accepted out of the model.
const MaxRecommendations = 5

// SchemaVersion selects how candidates reference catalog products.
// The prompt, the declared response schema and the matcher must all use the same version.
type SchemaVersion string

const (
	// SchemaProductID references products by their stable id.
	SchemaProductID SchemaVersion = "product_id"
	// SchemaNameBrand references products by (product_name, brand). Superseded by SchemaProductID.
	SchemaNameBrand SchemaVersion = "name_brand"
)

// Valid reports whether v is a known schema version.
func (v SchemaVersion) Valid() bool {
	return v == SchemaProductID || v == SchemaNameBrand
}

// RecommendationCandidate is one entry of the model output, before resolution against the catalog.
type RecommendationCandidate struct {
	ProductID       string   `json:"product_id,omitempty"`
	ProductName     string   `json:"product_name,omitempty"`
	Brand           string   `json:"brand,omitempty"`
	Reason          string   `json:"reason"`
	ConfidenceScore *float64 `json:"confidence_score"`

	// Malformed is set when the entry was not a JSON object.
	Malformed bool `json:"-"`
}

// UnmarshalJSON decodes a candidate leniently. Ids may be strings or numbers;
// fields of the wrong type are left empty so the matcher can drop the candidate
// instead of failing the whole response.
func (c *RecommendationCandidate) UnmarshalJSON(data []byte) error {
	var aux struct {
		ProductID       any `json:"product_id"`
		ProductName     any `json:"product_name"`
		Brand           any `json:"brand"`
		Reason          any `json:"reason"`
		ConfidenceScore any `json:"confidence_score"`
	}
	*c = RecommendationCandidate{}
	if err := json.Unmarshal(data, &aux); err != nil {
		c.Malformed = true
		return nil
	}

	c.ProductID = stringish(aux.ProductID)
	c.ProductName, _ = aux.ProductName.(string)
	c.Brand, _ = aux.Brand.(string)
	c.Reason, _ = aux.Reason.(string)
	if score, ok := aux.ConfidenceScore.(float64); ok {
		c.ConfidenceScore = &score
	}
	return nil
}

func stringish(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

// Reference describes which product the candidate points at, for logs and warnings.
func (c RecommendationCandidate) Reference() string {
	if c.ProductID != "" {
		return "id=" + c.ProductID
	}
	if c.ProductName != "" || c.Brand != "" {
		return fmt.Sprintf("%s / %s", c.ProductName, c.Brand)
	}
	return "<none>"
}

// RecommendationResponse is the structured document returned by the model.
type RecommendationResponse struct {
	Recommendations []RecommendationCandidate `json:"recommendations"`
	Summary         string                    `json:"summary"`
	SearchContext   string                    `json:"search_context"`
}

// EnrichedRecommendation is a resolved candidate: the full product plus the model's reasoning.
type EnrichedRecommendation struct {
	Product
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// WarningReason classifies why a candidate was dropped.
type WarningReason string

const (
	WarningMalformed         WarningReason = "malformed"
	WarningMissingReference  WarningReason = "missing_reference"
	WarningMissingReason     WarningReason = "missing_reason"
	WarningInvalidConfidence WarningReason = "invalid_confidence"
	WarningNotInCatalog      WarningReason = "not_in_catalog"
	WarningOverLimit         WarningReason = "over_limit"
	WarningDuplicate         WarningReason = "duplicate"
)

// MatchWarning records a candidate that was dropped during resolution.
type MatchWarning struct {
	Index     int           `json:"index"`
	Reason    WarningReason `json:"reason"`
	Reference string        `json:"reference"`
}

func (w MatchWarning) String() string {
	return fmt.Sprintf("candidate %d (%s): %s", w.Index, w.Reference, w.Reason)
}

// SearchResult is the outcome of one search, replaced wholesale by the next one.
type SearchResult struct {
	ID              string                   `json:"id"`
	SessionID       string                   `json:"session_id,omitempty"`
	Sequence        uint64                   `json:"sequence,omitempty"`
	Query           string                   `json:"query"`
	Recommendations []EnrichedRecommendation `json:"recommendations"`
	Summary         string                   `json:"summary"`
	SearchContext   string                   `json:"search_context"`
	Warnings        []MatchWarning           `json:"warnings,omitempty"`
	Stale           bool                     `json:"stale,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
}

// Empty reports whether the search produced no recommendations.
func (r *SearchResult) Empty() bool {
	return r == nil || len(r.Recommendations) == 0
}

// NormalizeKey lowercases and trims s for case-insensitive lookups.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
