package usecase

import (
	"math"
	"sort"
	"strings"

	"github.com/productadvisor/backend/internal/domain"
	"go.uber.org/zap"
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	SchemaVersion      domain.SchemaVersion
	EnableDebugLogging bool
}

// MatchingService resolves model candidates onto catalog products and ranks them
type MatchingService struct {
	version            domain.SchemaVersion
	enableDebugLogging bool
	logger             *zap.Logger
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig, logger *zap.Logger) *MatchingService {
	version := config.SchemaVersion
	if !version.Valid() {
		version = domain.SchemaProductID
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MatchingService{
		version:            version,
		enableDebugLogging: config.EnableDebugLogging,
		logger:             logger.Named("matcher"),
	}
}

// SchemaVersion returns the lookup strategy this service uses.
func (s *MatchingService) SchemaVersion() domain.SchemaVersion {
	return s.version
}

// Resolve maps candidates onto the catalog, logging every dropped candidate.
func (s *MatchingService) Resolve(
	candidates []domain.RecommendationCandidate,
	catalog []domain.Product,
) ([]domain.EnrichedRecommendation, []domain.MatchWarning) {
	results, warnings := Resolve(candidates, catalog, s.version)

	for _, w := range warnings {
		s.logger.Warn("dropped candidate",
			zap.Int("index", w.Index),
			zap.String("reason", string(w.Reason)),
			zap.String("reference", w.Reference))
	}

	if s.enableDebugLogging {
		for i, r := range results {
			s.logger.Debug("ranked",
				zap.Int("rank", i+1),
				zap.String("id", r.ID),
				zap.String("product", r.ProductName),
				zap.Float64("confidence", r.Confidence))
		}
	}

	return results, warnings
}

// catalogIndex is a lookup table over one catalog snapshot.
type catalogIndex struct {
	byID        map[string]int
	byNameBrand map[string]int
}

func newCatalogIndex(catalog []domain.Product) catalogIndex {
	idx := catalogIndex{
		byID:        make(map[string]int, len(catalog)),
		byNameBrand: make(map[string]int, len(catalog)),
	}
	for i, p := range catalog {
		// First occurrence wins, mirroring a linear scan
		if _, ok := idx.byID[p.ID]; !ok {
			idx.byID[p.ID] = i
		}
		key := nameBrandKey(p.ProductName, p.Brand)
		if _, ok := idx.byNameBrand[key]; !ok {
			idx.byNameBrand[key] = i
		}
	}
	return idx
}

func nameBrandKey(productName, brand string) string {
	return domain.NormalizeKey(productName) + "\x00" + domain.NormalizeKey(brand)
}

// Resolve maps model candidates onto catalog products and ranks them by confidence.
//
// Only the first MaxRecommendations candidates are considered. A candidate is dropped,
// with a MatchWarning, when it lacks a product reference, has an empty reason, has a
// confidence outside [0,1], does not resolve to a catalog product, or repeats a product
// already resolved. Survivors are sorted by descending confidence; ties keep model order.
//
// Resolve is pure: it never mutates its inputs and returns freshly allocated slices.
func Resolve(
	candidates []domain.RecommendationCandidate,
	catalog []domain.Product,
	version domain.SchemaVersion,
) ([]domain.EnrichedRecommendation, []domain.MatchWarning) {
	results := make([]domain.EnrichedRecommendation, 0, min(len(candidates), domain.MaxRecommendations))
	var warnings []domain.MatchWarning

	index := newCatalogIndex(catalog)
	seen := make(map[string]bool)

	for i, c := range candidates {
		warn := func(reason domain.WarningReason) {
			warnings = append(warnings, domain.MatchWarning{Index: i, Reason: reason, Reference: c.Reference()})
		}

		if i >= domain.MaxRecommendations {
			warn(domain.WarningOverLimit)
			continue
		}
		if c.Malformed {
			warn(domain.WarningMalformed)
			continue
		}
		if !hasReference(c, version) {
			warn(domain.WarningMissingReference)
			continue
		}
		if strings.TrimSpace(c.Reason) == "" {
			warn(domain.WarningMissingReason)
			continue
		}
		if !validConfidence(c.ConfidenceScore) {
			warn(domain.WarningInvalidConfidence)
			continue
		}

		pos, ok := index.lookup(c, version)
		if !ok {
			warn(domain.WarningNotInCatalog)
			continue
		}

		product := catalog[pos]
		if seen[product.ID] {
			warn(domain.WarningDuplicate)
			continue
		}
		seen[product.ID] = true

		results = append(results, domain.EnrichedRecommendation{
			Product:    product,
			Reason:     c.Reason,
			Confidence: *c.ConfidenceScore,
		})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Confidence > results[b].Confidence
	})

	return results, warnings
}

func (idx catalogIndex) lookup(c domain.RecommendationCandidate, version domain.SchemaVersion) (int, bool) {
	if version == domain.SchemaNameBrand {
		pos, ok := idx.byNameBrand[nameBrandKey(c.ProductName, c.Brand)]
		return pos, ok
	}
	pos, ok := idx.byID[c.ProductID]
	return pos, ok
}

func hasReference(c domain.RecommendationCandidate, version domain.SchemaVersion) bool {
	if version == domain.SchemaNameBrand {
		return strings.TrimSpace(c.ProductName) != "" && strings.TrimSpace(c.Brand) != ""
	}
	return c.ProductID != ""
}

func validConfidence(score *float64) bool {
	if score == nil || math.IsNaN(*score) {
		return false
	}
	return *score >= 0 && *score <= 1
}
