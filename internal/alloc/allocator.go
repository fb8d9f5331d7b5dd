// Package alloc implements the Sheet Allocator component (A): the 94% rule
// for effective sheet area and proportional-by-occupied-area division of
// material cost across parts, per spec.md §4.A.
package alloc

import (
	"log/slog"
	"math"

	"github.com/arturave/lasercost/internal/models"
)

// FullSheetThreshold is the 94% rule boundary of spec.md §4.A/§9 ("94% rule").
const FullSheetThreshold = 0.94

// Allocator computes effective sheet area and per-part material cost shares.
type Allocator struct {
	logger *slog.Logger
}

// NewAllocator builds an Allocator. A nil logger falls back to slog.Default.
func NewAllocator(logger *slog.Logger) *Allocator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Allocator{logger: logger}
}

// EffectiveArea returns the billable sheet area per spec.md §4.A.
func (a *Allocator) EffectiveArea(sheet models.Sheet) float64 {
	if sheet.SheetMode == models.FixedSheet {
		return sheet.SheetWidthMM * sheet.SheetLengthNominalMM
	}
	usedRatio := sheet.UsedLengthYMM / sheet.SheetLengthNominalMM
	if usedRatio >= FullSheetThreshold {
		a.logger.Debug("94% rule: billing full sheet", "sheet_id", sheet.SheetID, "used_ratio", usedRatio)
		return sheet.SheetWidthMM * sheet.SheetLengthNominalMM
	}
	return sheet.SheetWidthMM * (sheet.UsedLengthYMM + sheet.TrimMarginYMM)
}

// MaterialCost computes the sheet's total material cost from its
// RateEntry.MaterialPrice, per spec.md §4.A.
func MaterialCost(areaMM2 float64, thicknessMM float64, rate models.RateEntry) float64 {
	switch rate.MaterialPrice.Kind {
	case models.PricePerKg:
		massKg := areaMM2 / 1e6 * thicknessMM / 1000 * rate.DensityKgM3
		return massKg * rate.MaterialPrice.PLNPerKg
	default: // models.PricePerM2
		return areaMM2 / 1e6 * rate.MaterialPrice.PLNPerM2
	}
}

// PartMaterialCosts divides sheetCost across parts under the given
// allocation model, rebalancing the final part by the rounding residual so
// the sum matches sheetCost within 0.01 PLN (spec.md §4.A).
func PartMaterialCosts(sheet models.Sheet, sheetCost float64, model models.AllocationModel) map[string]float64 {
	result := make(map[string]float64, len(sheet.Parts))
	if len(sheet.Parts) == 0 {
		return result
	}

	var shares []float64
	switch model {
	case models.LegacyUtilization:
		sheetAreaUsed := sheet.SheetAreaUsedMM2
		utilization := sheet.OccupiedAreaMM2 / sheetAreaUsed
		shares = make([]float64, len(sheet.Parts))
		for i, part := range sheet.Parts {
			shares[i] = (part.OccupiedAreaMM2 * sheetCost / sheetAreaUsed) / utilization
		}
	default: // models.OccupiedArea
		var totalOccupied float64
		for _, part := range sheet.Parts {
			totalOccupied += part.OccupiedAreaMM2
		}
		shares = make([]float64, len(sheet.Parts))
		for i, part := range sheet.Parts {
			if totalOccupied == 0 {
				continue
			}
			shares[i] = sheetCost * part.OccupiedAreaMM2 / totalOccupied
		}
	}

	var sum float64
	for i, part := range sheet.Parts {
		result[part.PartInstanceID] = shares[i]
		sum += shares[i]
	}

	residual := sheetCost - sum
	if math.Abs(residual) > 1e-9 {
		last := sheet.Parts[len(sheet.Parts)-1].PartInstanceID
		result[last] += residual
	}
	return result
}
