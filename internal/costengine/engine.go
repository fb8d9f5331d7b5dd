// Package costengine implements the Cost Engine component (X): combining
// the Sheet Allocator, Motion Planner and Rate Resolver into per-sheet and
// per-part cost breakdowns under both pricing variants, per spec.md §4.X.
package costengine

import (
	"log/slog"

	"github.com/arturave/lasercost/internal/alloc"
	"github.com/arturave/lasercost/internal/models"
	"github.com/arturave/lasercost/internal/motion"
	"github.com/arturave/lasercost/internal/rates"
)

// Engine composes the allocator, motion planner and rate resolver. It is
// stateless: every call is a pure function of its inputs, per spec.md §4.X
// ("the engine is stateless; every run is a pure function of its inputs").
type Engine struct {
	allocator *alloc.Allocator
	planner   *motion.Planner
	logger    *slog.Logger
}

// NewEngine builds a Cost Engine. A nil logger falls back to slog.Default.
func NewEngine(allocator *alloc.Allocator, planner *motion.Planner, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{allocator: allocator, planner: planner, logger: logger}
}

// SheetResult is the per-sheet outcome of costing one sheet under both
// variants, plus the warnings and per-part shares collected along the way.
type SheetResult struct {
	CostA     models.SheetCostA
	CostB     models.SheetCostB
	PartCosts map[string]models.PartAttribution
	Warnings  []models.Warning
}

// CostSheet computes both variants for one sheet given its resolved rate,
// machine profile and job overrides. It returns InvariantViolation if the
// sheet's declared occupied-area sum disagrees with the sum over its parts
// beyond spec.md §3's ±1mm² tolerance.
func (e *Engine) CostSheet(sheet models.Sheet, rate models.RateEntry, profile models.MachineProfile, overrides models.JobOverrides) (SheetResult, error) {
	if err := checkOccupiedAreaInvariant(sheet); err != nil {
		return SheetResult{}, err
	}

	var warnings []models.Warning

	effectiveAreaMM2 := e.allocator.EffectiveArea(sheet)
	sheetMaterialCost := alloc.MaterialCost(effectiveAreaMM2, sheet.ThicknessMM, rate)
	partMaterial := alloc.PartMaterialCosts(sheet, sheetMaterialCost, overrides.AllocationModel)

	cutLengthM := cutLengthMOf(sheet)
	pierceCount := pierceCountOf(sheet)
	foilApplicable := rates.FoilApplicable(rate, sheet.ThicknessMM, overrides)

	costA := e.costVariantA(sheet, rate, overrides, sheetMaterialCost, cutLengthM, pierceCount, foilApplicable)
	costB, timeParts := e.costVariantB(sheet, rate, profile, overrides, sheetMaterialCost, cutLengthM, pierceCount, foilApplicable)

	if overrides.BufferFactor < 1.0 {
		warnings = append(warnings, models.NewBufferBelowOneWarning(overrides.BufferFactor))
	}

	partCosts := e.attributePerPart(sheet, partMaterial, costA, costB, timeParts)

	return SheetResult{CostA: costA, CostB: costB, PartCosts: partCosts, Warnings: warnings}, nil
}

// cutLengthMOf returns the sheet's total cut length in metres, summed over
// its parts' toolpath stats.
func cutLengthMOf(sheet models.Sheet) float64 {
	var mm float64
	for _, part := range sheet.Parts {
		mm += part.ToolpathStats.CutLengthMM
	}
	return mm / 1000
}

// pierceCountOf returns the sheet's total pierce count, summed over its
// parts' toolpath stats.
func pierceCountOf(sheet models.Sheet) int {
	var n int
	for _, part := range sheet.Parts {
		n += part.ToolpathStats.PierceCount
	}
	return n
}

// pooledShortSegmentRatio computes the sheet's length-weighted
// short_segment_ratio across all of its parts, per SPEC_FULL.md §6's
// per-sheet-scope decision for v_max_eff.
func pooledShortSegmentRatio(sheet models.Sheet) float64 {
	var weightedSum, totalLength float64
	for _, part := range sheet.Parts {
		weightedSum += part.ToolpathStats.ShortSegmentRatio * part.ToolpathStats.CutLengthMM
		totalLength += part.ToolpathStats.CutLengthMM
	}
	if totalLength == 0 {
		return 0
	}
	return weightedSum / totalLength
}

// partMotionPath returns the segment lengths and internal junction angles
// the Motion Planner should run for one part's cut path. When the part
// carries no MotionInputs (the Tier-2 cache payload of spec.md §3 is
// optional), it falls back to a single segment spanning the part's total
// cut length with no internal junctions.
func partMotionPath(part models.PartInstance) (lengths []float64, junctionAnglesDeg []float64) {
	if len(part.MotionInputs) == 0 {
		if part.ToolpathStats.CutLengthMM <= 0 {
			return nil, nil
		}
		return []float64{part.ToolpathStats.CutLengthMM}, nil
	}
	lengths = make([]float64, len(part.MotionInputs))
	for i, mi := range part.MotionInputs {
		lengths[i] = mi.SegmentLengthMM
	}
	if len(part.MotionInputs) > 1 {
		junctionAnglesDeg = make([]float64, len(part.MotionInputs)-1)
		for i := 0; i < len(part.MotionInputs)-1; i++ {
			junctionAnglesDeg[i] = part.MotionInputs[i].JunctionAngleDeg
		}
	}
	return lengths, junctionAnglesDeg
}

func checkOccupiedAreaInvariant(sheet models.Sheet) error {
	var sum float64
	for _, part := range sheet.Parts {
		sum += part.OccupiedAreaMM2
	}
	delta := sum - sheet.OccupiedAreaMM2
	if delta < 0 {
		delta = -delta
	}
	if delta > 1.0 {
		return models.NewInvariantViolationError(sheet.SheetID, "sum of part occupied_area_mm2 disagrees with sheet occupied_area_mm2 beyond tolerance")
	}
	return nil
}

func (e *Engine) costVariantA(sheet models.Sheet, rate models.RateEntry, overrides models.JobOverrides,
	materialCost, cutLengthM float64, pierceCount int, foilApplicable bool) models.SheetCostA {

	cutCost := cutLengthM * rate.CutPricePerMeterPLN
	var pierceCost float64
	if overrides.IncludesPiercing() {
		pierceCost = float64(pierceCount) * rate.PierceCostPLN
	}
	var foilCost float64
	if foilApplicable && rate.FoilRemoval != nil {
		foilCost = foilCostPerLengthA(cutLengthM, *rate.FoilRemoval)
	}
	operational := overrides.OperationalCostPerSheetPLN

	total := materialCost + cutCost + pierceCost + foilCost + operational
	return models.SheetCostA{
		SheetID:     sheet.SheetID,
		Material:    materialCost,
		Cut:         cutCost,
		Pierce:      pierceCost,
		Foil:        foilCost,
		Operational: operational,
		Total:       total,
	}
}

func foilCostPerLengthA(cutLengthM float64, foil models.FoilRemoval) float64 {
	switch foil.Cost.Kind {
	case models.FoilCostPerSquareMetre:
		return 0 // area-based foil pricing requires occupied area, not modeled in Variant A's length-only form
	case models.FoilCostPerMinute:
		minutes := cutLengthM / foil.SpeedMMin
		return minutes * foil.Cost.PLNPerMinute
	default: // models.FoilCostPerMetre
		return cutLengthM * foil.Cost.PLNPerMetre
	}
}

// timeComponents holds variant-B's raw time components and their resulting
// cost shares, kept separate so per-part attribution can split laser_cost
// proportionally between cut/pierce/foil (spec.md §6's per_part schema
// wants cut_b/pierce_b/foil_b as distinct figures even though the sheet
// total only reports the combined "laser" cost).
type timeComponents struct {
	cutTimeS, pierceTimeS, foilTimeS float64
	cutCostPLN, pierceCostPLN, foilCostPLN float64
}

func (e *Engine) costVariantB(sheet models.Sheet, rate models.RateEntry, profile models.MachineProfile, overrides models.JobOverrides,
	materialCost, cutLengthM float64, pierceCount int, foilApplicable bool) (models.SheetCostB, timeComponents) {

	mprofile := motion.Profile{
		VMaxMMS:             rate.CutFeedrateMMin * 1000 / 60,
		AMaxMMS2:            profile.MaxAccelMMS2,
		VCorner90MMS:        profile.SquareCornerVelocityMMS,
		JunctionDeviationMM: profile.JunctionDeviationMM,
	}
	if profile.UseJunctionDeviation {
		mprofile.CornerModel = motion.JunctionDeviation
	}
	mprofile.VMaxMMS = motion.EffectiveVMax(mprofile.VMaxMMS, pooledShortSegmentRatio(sheet))

	// Cut-time per sheet is the sum of per-segment times across all cut
	// paths on the sheet (spec.md §4.M); each part's path is planned
	// independently since the laser head rapids between parts rather than
	// carrying cornering momentum across them.
	var cutTimeS float64
	for _, part := range sheet.Parts {
		lengths, angles := partMotionPath(part)
		cutTimeS += e.planner.Plan(lengths, angles, mprofile).CutTimeS
	}
	plan := motion.Plan{CutTimeS: cutTimeS}

	var pierceTimeS float64
	if overrides.IncludesPiercing() {
		pierceTimeS = float64(pierceCount) * rate.PierceTimeS
	}
	var foilTimeS float64
	if foilApplicable && rate.FoilRemoval != nil && rate.FoilRemoval.SpeedMMin > 0 {
		foilTimeS = cutLengthM / rate.FoilRemoval.SpeedMMin * 60
	}

	rawTimeS := plan.CutTimeS + pierceTimeS + foilTimeS
	billedTimeS := rawTimeS * overrides.BufferFactor
	laserCost := billedTimeS / 3600 * rate.MachineRatePLNPerHour
	operational := overrides.OperationalCostPerSheetPLN

	tc := timeComponents{cutTimeS: plan.CutTimeS, pierceTimeS: pierceTimeS, foilTimeS: foilTimeS}
	if rawTimeS > 0 {
		tc.cutCostPLN = laserCost * plan.CutTimeS / rawTimeS
		tc.pierceCostPLN = laserCost * pierceTimeS / rawTimeS
		tc.foilCostPLN = laserCost * foilTimeS / rawTimeS
	}

	total := materialCost + laserCost + operational
	return models.SheetCostB{
		SheetID:     sheet.SheetID,
		Material:    materialCost,
		Laser:       laserCost,
		Operational: operational,
		Total:       total,
		CutTimeS:    plan.CutTimeS,
		PierceTimeS: pierceTimeS,
		FoilTimeS:   foilTimeS,
		BilledTimeS: billedTimeS,
	}, tc
}

func (e *Engine) attributePerPart(sheet models.Sheet, partMaterial map[string]float64,
	costA models.SheetCostA, costB models.SheetCostB, tc timeComponents) map[string]models.PartAttribution {

	result := make(map[string]models.PartAttribution, len(sheet.Parts))
	sheetCutLength := cutLengthMOf(sheet)
	sheetPierceCount := pierceCountOf(sheet)
	sheetOccupied := sheet.OccupiedAreaMM2

	for _, part := range sheet.Parts {
		cutShare := safeRatio(part.ToolpathStats.CutLengthMM/1000, sheetCutLength)
		pierceShare := safeRatioInt(part.ToolpathStats.PierceCount, sheetPierceCount)
		areaShare := safeRatio(part.OccupiedAreaMM2, sheetOccupied)

		attribution := models.PartAttribution{
			Material:    partMaterial[part.PartInstanceID],
			CutA:        cutShare * costA.Cut,
			CutB:        cutShare * tc.cutCostPLN,
			PierceA:     pierceShare * costA.Pierce,
			PierceB:     pierceShare * tc.pierceCostPLN,
			FoilA:       cutShare * costA.Foil,
			FoilB:       cutShare * tc.foilCostPLN,
			Operational: areaShare * costA.Operational,
		}
		attribution.TotalA = attribution.Material + attribution.CutA + attribution.PierceA + attribution.FoilA + attribution.Operational
		attribution.TotalB = attribution.Material + attribution.CutB + attribution.PierceB + attribution.FoilB + attribution.Operational
		result[part.PartInstanceID] = attribution
	}
	return result
}

func safeRatio(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole
}

func safeRatioInt(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}
