package facade

import (
	"fmt"
	"math"
	"testing"

	"github.com/arturave/lasercost/internal/geometry"
	"github.com/arturave/lasercost/internal/models"
	"github.com/arturave/lasercost/internal/statscache"
)

// stubDrawingSource serves a fixed set of drawings by id and counts fetches,
// so tests can assert the Stats Cache, not the DrawingSource, absorbs
// repeat lookups.
type stubDrawingSource struct {
	drawings map[string]geometry.Drawing
	fetches  int
}

func (s *stubDrawingSource) FetchDrawing(drawingID string) (geometry.Drawing, error) {
	s.fetches++
	d, ok := s.drawings[drawingID]
	if !ok {
		return geometry.Drawing{}, fmt.Errorf("no such drawing: %s", drawingID)
	}
	return d, nil
}

func squareDrawing(id string, side float64) geometry.Drawing {
	return geometry.Drawing{
		ID: id,
		Primitives: []geometry.Primitive{
			{Kind: geometry.PrimitiveLine, Points: []geometry.Point{{X: 0, Y: 0}, {X: side, Y: 0}}},
			{Kind: geometry.PrimitiveLine, Points: []geometry.Point{{X: side, Y: 0}, {X: side, Y: side}}},
			{Kind: geometry.PrimitiveLine, Points: []geometry.Point{{X: side, Y: side}, {X: 0, Y: side}}},
			{Kind: geometry.PrimitiveLine, Points: []geometry.Point{{X: 0, Y: side}, {X: 0, Y: 0}}},
		},
	}
}

func testBook() models.RateBook {
	return models.RateBook{Entries: []models.RateEntry{
		{
			MaterialID: "steel", ThicknessMM: 2, DensityKgM3: 7850,
			MaterialPrice:         models.MaterialPrice{Kind: models.PricePerM2, PLNPerM2: 50},
			CutFeedrateMMin:       300,
			CutPricePerMeterPLN:   1.2,
			MachineRatePLNPerHour: 350,
			PierceCostPLN:         1.0,
			PierceTimeS:           0.5,
		},
	}}
}

func testProfile() models.MachineProfile {
	return models.MachineProfile{
		MachineProfileID: "mp-1", MaxAccelMMS2: 2000, MaxRapidMMS: 10000, SquareCornerVelocityMMS: 50,
	}
}

func TestComputeCostEndToEnd(t *testing.T) {
	f := NewFacade(statscache.NewMemoryCache(), nil)
	nesting := models.NestingResult{
		SourceType: models.SourceOrder, SourceID: "ord-1", MachineProfileID: "mp-1",
		Sheets: []models.Sheet{
			{
				SheetID: "sh-1", SheetMode: models.FixedSheet, MaterialID: "steel", ThicknessMM: 2,
				SheetWidthMM: 1500, SheetLengthNominalMM: 3000, OccupiedAreaMM2: 3_000_000,
				Parts: []models.PartInstance{
					{
						PartInstanceID: "p1", OccupiedAreaMM2: 1_000_000,
						ToolpathStats: models.ToolpathStats{CutLengthMM: 400, PierceCount: 1},
					},
					{
						PartInstanceID: "p2", OccupiedAreaMM2: 2_000_000,
						ToolpathStats: models.ToolpathStats{CutLengthMM: 600, PierceCount: 1},
					},
				},
			},
		},
	}
	overrides := models.DefaultJobOverrides(models.SourceOrder, "ord-1")
	summary, err := f.ComputeCost(nesting, testProfile(), testBook(), overrides)
	if err != nil {
		t.Fatalf("ComputeCost() error = %v", err)
	}
	if summary.RunID == "" {
		t.Fatalf("expected a non-empty RunID")
	}
	if len(summary.PerPart) != 2 {
		t.Fatalf("expected 2 per-part attributions, got %d", len(summary.PerPart))
	}
	if summary.VariantA.TotalPLN <= 0 || summary.VariantB.TotalPLN <= 0 {
		t.Fatalf("expected positive totals: A=%v B=%v", summary.VariantA.TotalPLN, summary.VariantB.TotalPLN)
	}
}

func TestComputeCostStatsMissingWhenNoFetcher(t *testing.T) {
	f := NewFacade(statscache.NewMemoryCache(), nil)
	nesting := models.NestingResult{
		SourceType: models.SourceOrder, SourceID: "ord-1", MachineProfileID: "mp-1",
		Sheets: []models.Sheet{
			{
				SheetID: "sh-1", SheetMode: models.FixedSheet, MaterialID: "steel", ThicknessMM: 2,
				SheetWidthMM: 1500, SheetLengthNominalMM: 3000, OccupiedAreaMM2: 100,
				Parts: []models.PartInstance{
					{PartInstanceID: "p1", OccupiedAreaMM2: 100, DrawingID: "missing-drawing"},
				},
			},
		},
	}
	_, err := f.ComputeCost(nesting, testProfile(), testBook(), models.DefaultJobOverrides(models.SourceOrder, "ord-1"))
	if err == nil {
		t.Fatalf("expected StatsMissing error")
	}
}

func TestComputeCostUsesCachedStats(t *testing.T) {
	cache := statscache.NewMemoryCache()
	stats := models.ToolpathStats{CutLengthMM: 200, PierceCount: 1}
	if err := cache.Put("drawing-1", stats); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	f := NewFacade(cache, nil)
	nesting := models.NestingResult{
		SourceType: models.SourceOrder, SourceID: "ord-1", MachineProfileID: "mp-1",
		Sheets: []models.Sheet{
			{
				SheetID: "sh-1", SheetMode: models.FixedSheet, MaterialID: "steel", ThicknessMM: 2,
				SheetWidthMM: 1500, SheetLengthNominalMM: 3000, OccupiedAreaMM2: 100,
				Parts: []models.PartInstance{
					{PartInstanceID: "p1", OccupiedAreaMM2: 100, DrawingID: "drawing-1"},
				},
			},
		},
	}
	summary, err := f.ComputeCost(nesting, testProfile(), testBook(), models.DefaultJobOverrides(models.SourceOrder, "ord-1"))
	if err != nil {
		t.Fatalf("ComputeCost() error = %v", err)
	}
	if summary.VariantA.TotalPLN <= 0 {
		t.Fatalf("expected positive total")
	}
}

func TestComputeCostRateMissingAborts(t *testing.T) {
	f := NewFacade(statscache.NewMemoryCache(), nil)
	nesting := models.NestingResult{
		SourceType: models.SourceOrder, SourceID: "ord-1", MachineProfileID: "mp-1",
		Sheets: []models.Sheet{
			{
				SheetID: "sh-1", SheetMode: models.FixedSheet, MaterialID: "unobtainium", ThicknessMM: 2,
				SheetWidthMM: 1500, SheetLengthNominalMM: 3000, OccupiedAreaMM2: 100,
				Parts: []models.PartInstance{
					{
						PartInstanceID: "p1", OccupiedAreaMM2: 100,
						ToolpathStats: models.ToolpathStats{CutLengthMM: 100, PierceCount: 1},
					},
				},
			},
		},
	}
	_, err := f.ComputeCost(nesting, testProfile(), testBook(), models.DefaultJobOverrides(models.SourceOrder, "ord-1"))
	if err == nil {
		t.Fatalf("expected RateMissing error")
	}
}

func TestComputeCostJobCostsDistributed(t *testing.T) {
	f := NewFacade(statscache.NewMemoryCache(), nil)
	nesting := models.NestingResult{
		SourceType: models.SourceOrder, SourceID: "ord-1", MachineProfileID: "mp-1",
		Sheets: []models.Sheet{
			{
				SheetID: "sh-1", SheetMode: models.FixedSheet, MaterialID: "steel", ThicknessMM: 2,
				SheetWidthMM: 1500, SheetLengthNominalMM: 3000, OccupiedAreaMM2: 3_000_000,
				Parts: []models.PartInstance{
					{PartInstanceID: "p1", OccupiedAreaMM2: 1_000_000, ToolpathStats: models.ToolpathStats{CutLengthMM: 400}},
					{PartInstanceID: "p2", OccupiedAreaMM2: 2_000_000, ToolpathStats: models.ToolpathStats{CutLengthMM: 600}},
				},
			},
		},
	}
	overrides := models.DefaultJobOverrides(models.SourceOrder, "ord-1")
	overrides.TechCostPLN = 100
	summary, err := f.ComputeCost(nesting, testProfile(), testBook(), overrides)
	if err != nil {
		t.Fatalf("ComputeCost() error = %v", err)
	}
	sumTotalA := summary.PerPart["p1"].TotalA + summary.PerPart["p2"].TotalA
	if math.Abs(sumTotalA-summary.VariantA.TotalPLN) > 0.01 {
		t.Fatalf("job costs not fully distributed: sumTotalA=%v variantTotal=%v", sumTotalA, summary.VariantA.TotalPLN)
	}
}

func TestComputeCostExtractsViaDrawingSource(t *testing.T) {
	source := &stubDrawingSource{drawings: map[string]geometry.Drawing{
		"drawing-1": squareDrawing("drawing-1", 200),
	}}
	cache := statscache.NewMemoryCache()
	f := NewFacade(cache, nil).WithDrawingSource(source)

	nesting := models.NestingResult{
		SourceType: models.SourceOrder, SourceID: "ord-1", MachineProfileID: "mp-1",
		Sheets: []models.Sheet{
			{
				SheetID: "sh-1", SheetMode: models.FixedSheet, MaterialID: "steel", ThicknessMM: 2,
				SheetWidthMM: 1500, SheetLengthNominalMM: 3000, OccupiedAreaMM2: 40000,
				Parts: []models.PartInstance{
					{PartInstanceID: "p1", OccupiedAreaMM2: 40000, DrawingID: "drawing-1"},
				},
			},
		},
	}
	overrides := models.DefaultJobOverrides(models.SourceOrder, "ord-1")

	summary, err := f.ComputeCost(nesting, testProfile(), testBook(), overrides)
	if err != nil {
		t.Fatalf("ComputeCost() error = %v", err)
	}
	if summary.VariantA.TotalPLN <= 0 {
		t.Fatalf("expected a positive total after extraction, got %v", summary.VariantA.TotalPLN)
	}
	if source.fetches != 1 {
		t.Fatalf("expected exactly 1 drawing fetch, got %d", source.fetches)
	}

	// A second run over the same drawing fetches it again to compute its
	// content hash, but must hit the Stats Cache rather than invoking the
	// extractor again.
	if _, err := f.ComputeCost(nesting, testProfile(), testBook(), overrides); err != nil {
		t.Fatalf("second ComputeCost() error = %v", err)
	}
	if source.fetches != 2 {
		t.Fatalf("expected the drawing to be re-fetched but not re-extracted, got %d fetches", source.fetches)
	}
}

func TestComputeCostExtractorPropagatesFetchFailure(t *testing.T) {
	source := &stubDrawingSource{drawings: map[string]geometry.Drawing{}}
	f := NewFacade(statscache.NewMemoryCache(), nil).WithDrawingSource(source)

	nesting := models.NestingResult{
		SourceType: models.SourceOrder, SourceID: "ord-1", MachineProfileID: "mp-1",
		Sheets: []models.Sheet{
			{
				SheetID: "sh-1", SheetMode: models.FixedSheet, MaterialID: "steel", ThicknessMM: 2,
				SheetWidthMM: 1500, SheetLengthNominalMM: 3000, OccupiedAreaMM2: 100,
				Parts: []models.PartInstance{
					{PartInstanceID: "p1", OccupiedAreaMM2: 100, DrawingID: "does-not-exist"},
				},
			},
		},
	}
	_, err := f.ComputeCost(nesting, testProfile(), testBook(), models.DefaultJobOverrides(models.SourceOrder, "ord-1"))
	if err == nil {
		t.Fatalf("expected StatsMissing error when the DrawingSource can't fetch the drawing")
	}
}
