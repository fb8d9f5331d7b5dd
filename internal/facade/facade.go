// Package facade implements the Costing Facade component (I): the single
// entry point that accepts a NestingResult, JobOverrides and RateBook and
// produces a CostSummary, per spec.md §4.I.
package facade

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/arturave/lasercost/internal/alloc"
	"github.com/arturave/lasercost/internal/costengine"
	"github.com/arturave/lasercost/internal/geometry"
	"github.com/arturave/lasercost/internal/models"
	"github.com/arturave/lasercost/internal/motion"
	"github.com/arturave/lasercost/internal/rates"
	"github.com/arturave/lasercost/internal/statscache"
	"github.com/arturave/lasercost/internal/toolpath"
)

// DrawingSource fetches the geometry.Drawing behind a drawing id. It is the
// external collaborator spec.md §1 leaves out of the core dataflow (reading
// CAD files, talking to a drawing-file store, ...); when configured, it lets
// the facade drive the Toolpath Extractor (T) itself on a Stats Cache miss
// instead of only failing with StatsMissing.
type DrawingSource interface {
	FetchDrawing(drawingID string) (geometry.Drawing, error)
}

// Facade orchestrates the Stats Cache, Toolpath Extractor, Motion Planner,
// Sheet Allocator, Rate Resolver and Cost Engine to turn one NestingResult
// into one CostSummary.
type Facade struct {
	cache     statscache.Cache
	engine    *costengine.Engine
	extractor *toolpath.Extractor
	drawings  DrawingSource
	logger    *slog.Logger
}

// NewFacade builds a Costing Facade with no DrawingSource: a Stats Cache
// miss fails with StatsMissing. A nil logger falls back to slog.Default.
func NewFacade(cache statscache.Cache, logger *slog.Logger) *Facade {
	if logger == nil {
		logger = slog.Default()
	}
	engine := costengine.NewEngine(alloc.NewAllocator(logger), motion.NewPlanner(logger), logger)
	return &Facade{cache: cache, engine: engine, logger: logger}
}

// MapDrawingSource is a DrawingSource backed by a fixed in-memory set of
// drawings, for callers (the CLI, request bodies that embed their own
// drawings) that ship the geometry alongside the NestingResult rather than
// fetching it from a separate store.
type MapDrawingSource map[string]geometry.Drawing

// FetchDrawing implements DrawingSource.
func (m MapDrawingSource) FetchDrawing(drawingID string) (geometry.Drawing, error) {
	drawing, ok := m[drawingID]
	if !ok {
		return geometry.Drawing{}, fmt.Errorf("drawing %q not found", drawingID)
	}
	return drawing, nil
}

// WithDrawingSource returns a copy of f with drawings attached, so a Stats
// Cache miss invokes the Toolpath Extractor (spec.md §4.C: "On miss, invoke
// T and store") on the fetched drawing instead of failing the run. f itself
// is left untouched (the cache and engine are shared, not copied) so that a
// handler serving concurrent requests can safely attach a different
// DrawingSource per request without racing on the original Facade.
func (f *Facade) WithDrawingSource(drawings DrawingSource) *Facade {
	clone := *f
	clone.drawings = drawings
	clone.extractor = toolpath.NewExtractor(geometry.DefaultChordTolerance, f.logger)
	return &clone
}

// ComputeCost runs one costing pass, per spec.md §4.I/§6. profile is the
// MachineProfile referenced by nesting.MachineProfileID; its resolution
// (by id, from a profile store) is the caller's responsibility, since
// profile storage is ambient configuration, not part of the core dataflow.
func (f *Facade) ComputeCost(nesting models.NestingResult, profile models.MachineProfile, book models.RateBook, overrides models.JobOverrides) (models.CostSummary, error) {
	if err := nesting.Validate(); err != nil {
		return models.CostSummary{}, err
	}
	overrides = overrides.WithDefaults()

	resolver := rates.NewResolver(book, f.logger)

	var warnings []models.Warning
	var variantA models.VariantA
	var variantB models.VariantB
	perPart := make(map[string]models.PartAttribution)

	for _, sheet := range nesting.Sheets {
		sheet, sheetWarnings, err := f.resolveMissingStats(sheet)
		if err != nil {
			return models.CostSummary{}, err
		}
		warnings = append(warnings, sheetWarnings...)

		rate, rateWarning, err := resolver.Resolve(sheet.MaterialID, sheet.ThicknessMM)
		if err != nil {
			return models.CostSummary{}, err
		}
		if rateWarning != nil {
			warnings = append(warnings, *rateWarning)
		}

		result, err := f.engine.CostSheet(sheet, rate, profile, overrides)
		if err != nil {
			return models.CostSummary{}, err
		}
		warnings = append(warnings, result.Warnings...)

		variantA.Sheets = append(variantA.Sheets, result.CostA)
		variantA.TotalPLN += result.CostA.Total
		variantB.Sheets = append(variantB.Sheets, result.CostB)
		variantB.TotalPLN += result.CostB.Total

		for id, attribution := range result.PartCosts {
			perPart[id] = attribution
		}
	}

	jobCosts := models.JobCosts{
		TechCostPLN:      overrides.TechCostPLN,
		PackagingCostPLN: overrides.PackagingCostPLN,
		TransportCostPLN: overrides.TransportCostPLN,
	}
	distributeJobCosts(perPart, jobCosts)

	jobTotal := jobCosts.TechCostPLN + jobCosts.PackagingCostPLN + jobCosts.TransportCostPLN
	variantA.JobCosts = jobCosts
	variantA.TotalPLN += jobTotal
	variantB.JobCosts = jobCosts
	variantB.TotalPLN += jobTotal

	runID := uuid.NewString()
	f.logger.Info("costing run complete", "run_id", runID, "source_id", nesting.SourceID,
		"sheet_count", len(nesting.Sheets), "total_a_pln", variantA.TotalPLN, "total_b_pln", variantB.TotalPLN)

	return models.CostSummary{
		RunID:            runID,
		AllocationModel:  overrides.AllocationModel,
		BufferFactor:     overrides.BufferFactor,
		MachineProfileID: nesting.MachineProfileID,
		VariantA:         variantA,
		VariantB:         variantB,
		PerPart:          perPart,
		Warnings:         warnings,
	}, nil
}

// resolveMissingStats fills in ToolpathStats for any part whose snapshot is
// absent from the NestingResult, consulting the Stats Cache (spec.md §4.C:
// "a drawing is resolved through C (hit) or T (miss)"). With no
// DrawingSource configured, the cache is looked up directly by drawing id
// and a miss is fatal per spec.md §7's StatsMissing, since fetching a
// drawing's bytes is then an external collaborator not wired into the core
// (spec.md §1). With a DrawingSource configured, a miss fetches the drawing,
// invokes the Toolpath Extractor, and stores the result under the drawing's
// content hash before returning it.
func (f *Facade) resolveMissingStats(sheet models.Sheet) (models.Sheet, []models.Warning, error) {
	var warnings []models.Warning
	// Copy the parts so filling in stats never writes into the caller's
	// NestingResult, which shares this slice's backing array.
	sheet.Parts = append([]models.PartInstance(nil), sheet.Parts...)
	for i, part := range sheet.Parts {
		if hasStats(part) {
			continue
		}
		if part.DrawingID == "" {
			return sheet, warnings, fmt.Errorf("part %s: %w", part.PartInstanceID, models.ErrStatsMissing)
		}

		if f.drawings == nil {
			stats, ok, err := f.cache.Get(part.DrawingID)
			if err != nil {
				return sheet, warnings, models.NewStatsMissingError(part.DrawingID, err)
			}
			if !ok {
				return sheet, warnings, models.NewStatsMissingError(part.DrawingID, nil)
			}
			sheet.Parts[i].ToolpathStats = stats
			continue
		}

		stats, motionInputs, extractWarnings, err := f.resolveViaExtractor(part.DrawingID)
		if err != nil {
			return sheet, warnings, err
		}
		warnings = append(warnings, extractWarnings...)
		sheet.Parts[i].ToolpathStats = stats
		sheet.Parts[i].MotionInputs = motionInputs
	}
	return sheet, warnings, nil
}

// resolveViaExtractor fetches the drawing behind drawingID, checks the Stats
// Cache by its content hash, and on a miss runs the Toolpath Extractor and
// persists the result (spec.md §4.C/§4.T).
func (f *Facade) resolveViaExtractor(drawingID string) (models.ToolpathStats, []models.MotionInput, []models.Warning, error) {
	drawing, err := f.drawings.FetchDrawing(drawingID)
	if err != nil {
		return models.ToolpathStats{}, nil, nil, models.NewStatsMissingError(drawingID, err)
	}

	contentHash := toolpath.ContentHash(drawing, f.extractor.ChordTolerance)
	if stats, ok, err := f.cache.Get(contentHash); err != nil {
		return models.ToolpathStats{}, nil, nil, models.NewStatsMissingError(drawingID, err)
	} else if ok {
		f.logger.Debug("stats cache hit", "drawing_id", drawingID, "content_hash", contentHash)
		return stats, nil, nil, nil
	}

	f.logger.Debug("stats cache miss, invoking toolpath extractor", "drawing_id", drawingID, "content_hash", contentHash)
	result, err := f.extractor.Extract(drawing)
	if err != nil {
		return models.ToolpathStats{}, nil, nil, err
	}
	if err := f.cache.Put(contentHash, result.Stats); err != nil {
		f.logger.Error("failed to persist extracted stats", "error", err, "content_hash", contentHash)
	}
	return result.Stats, result.MotionInputs, result.Warnings, nil
}

func hasStats(part models.PartInstance) bool {
	return part.ToolpathStats.CutLengthMM > 0 || part.ToolpathStats.ContourCount > 0
}

// distributeJobCosts adds the per-run pass-through charges to perPart,
// weighted by each part's (material + cut_a) share of the run total, per
// spec.md §4.X ("job-level tech/packaging/transport is distributed
// proportionally to (total material + total cut) of the part").
func distributeJobCosts(perPart map[string]models.PartAttribution, jobCosts models.JobCosts) {
	total := jobCosts.TechCostPLN + jobCosts.PackagingCostPLN + jobCosts.TransportCostPLN
	if total == 0 || len(perPart) == 0 {
		return
	}

	var basisSum float64
	for _, attribution := range perPart {
		basisSum += attribution.Material + attribution.CutA
	}
	if basisSum == 0 {
		return
	}

	for id, attribution := range perPart {
		share := (attribution.Material + attribution.CutA) / basisSum
		attribution.TotalA += total * share
		attribution.TotalB += total * share
		perPart[id] = attribution
	}
}
