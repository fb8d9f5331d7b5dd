// Package rates implements the Rate Resolver component (R): lookup of
// material/thickness rates with a nearest-thickness fallback policy, and
// foil-removal applicability, per spec.md §4.R.
package rates

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/arturave/lasercost/internal/models"
)

// DefaultThicknessTolerancePct is the ±20% nearest-thickness fallback
// tolerance of spec.md §4.R, exposed as configuration per spec.md §9
// ("implementers should expose the policy").
const DefaultThicknessTolerancePct = 0.20

// DefaultFoilThicknessMaxMM is the default thickness ceiling for
// auto-enabling foil removal on a stainless-like material.
const DefaultFoilThicknessMaxMM = 5.0

// Resolver looks up RateEntry rows from a RateBook.
type Resolver struct {
	Book                   models.RateBook
	ThicknessTolerancePct  float64
	logger                 *slog.Logger
}

// NewResolver builds a Resolver over book with the default thickness
// tolerance. A nil logger falls back to slog.Default.
func NewResolver(book models.RateBook, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{Book: book, ThicknessTolerancePct: DefaultThicknessTolerancePct, logger: logger}
}

// Resolve implements spec.md §4.R's matching policy: exact match, else
// nearest thickness within tolerance (logging a warning), else RateMissing.
func (r *Resolver) Resolve(materialID string, thicknessMM float64) (models.RateEntry, *models.Warning, error) {
	for _, entry := range r.Book.Entries {
		if entry.MaterialID == materialID && entry.ThicknessMM == thicknessMM {
			return entry, nil, nil
		}
	}

	var best *models.RateEntry
	bestDelta := math.Inf(1)
	tolerance := r.ThicknessTolerancePct
	if tolerance == 0 {
		tolerance = DefaultThicknessTolerancePct
	}
	for i, entry := range r.Book.Entries {
		if entry.MaterialID != materialID {
			continue
		}
		delta := math.Abs(entry.ThicknessMM-thicknessMM) / thicknessMM
		if delta <= tolerance && delta < bestDelta {
			bestDelta = delta
			best = &r.Book.Entries[i]
		}
	}
	if best != nil {
		warning := models.Warning{
			Code:    "RATE_THICKNESS_SUBSTITUTED",
			Message: substitutionMessage(materialID, thicknessMM, best.ThicknessMM),
		}
		r.logger.Warn("rate thickness substituted", "material_id", materialID,
			"requested_mm", thicknessMM, "substituted_mm", best.ThicknessMM)
		return *best, &warning, nil
	}

	return models.RateEntry{}, nil, models.NewRateMissingError(materialID, thicknessMM)
}

func substitutionMessage(materialID string, requested, substituted float64) string {
	return fmt.Sprintf("substituted thickness %.2fmm for requested %.2fmm (%s)", substituted, requested, materialID)
}

// FoilApplicable implements spec.md §4.R's foil-removal applicability rule,
// honoring an explicit job override when set.
func FoilApplicable(entry models.RateEntry, thicknessMM float64, override models.JobOverrides) bool {
	if value, explicit := override.IncludesFoilRemoval(); explicit {
		return value
	}
	if !entry.StainlessLike || entry.FoilRemoval == nil {
		return false
	}
	threshold := entry.FoilRemoval.ApplicableThicknessMaxMM
	if threshold == 0 {
		threshold = DefaultFoilThicknessMaxMM
	}
	return thicknessMM <= threshold
}
