package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arturave/lasercost/internal/facade"
	"github.com/arturave/lasercost/internal/geometry"
	"github.com/arturave/lasercost/internal/models"
	"github.com/arturave/lasercost/internal/statscache"
)

func testHandler(t *testing.T) *CostHandler {
	t.Helper()
	f := facade.NewFacade(statscache.NewMemoryCache(), nil)
	profiles := NewMemoryProfileStore([]models.MachineProfile{
		{MachineProfileID: "mp-1", MaxAccelMMS2: 2000, MaxRapidMMS: 10000, SquareCornerVelocityMMS: 50},
	})
	return NewCostHandler(f, profiles, nil)
}

func TestHealthHandler(t *testing.T) {
	h := testHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestComputeCostHandler(t *testing.T) {
	h := testHandler(t)
	body := costRequest{
		NestingResult: models.NestingResult{
			SourceType: models.SourceOrder, SourceID: "ord-1", MachineProfileID: "mp-1",
			Sheets: []models.Sheet{
				{
					SheetID: "sh-1", SheetMode: models.FixedSheet, MaterialID: "steel", ThicknessMM: 2,
					SheetWidthMM: 1500, SheetLengthNominalMM: 3000, OccupiedAreaMM2: 100,
					Parts: []models.PartInstance{
						{PartInstanceID: "p1", OccupiedAreaMM2: 100, ToolpathStats: models.ToolpathStats{CutLengthMM: 100, PierceCount: 1}},
					},
				},
			},
		},
		RateBook: models.RateBook{Entries: []models.RateEntry{
			{MaterialID: "steel", ThicknessMM: 2, MaterialPrice: models.MaterialPrice{Kind: models.PricePerM2, PLNPerM2: 50}},
		}},
		JobOverrides: models.DefaultJobOverrides(models.SourceOrder, "ord-1"),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cost", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.ComputeCost(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	var summary models.CostSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if summary.RunID == "" {
		t.Fatalf("expected non-empty run_id")
	}
}

func TestComputeCostHandlerUnknownMachineProfile(t *testing.T) {
	h := testHandler(t)
	body := costRequest{
		NestingResult: models.NestingResult{
			SourceType: models.SourceOrder, SourceID: "ord-1", MachineProfileID: "does-not-exist",
			Sheets: []models.Sheet{
				{
					SheetID: "sh-1", SheetMode: models.FixedSheet, MaterialID: "steel", ThicknessMM: 2,
					SheetWidthMM: 1500, SheetLengthNominalMM: 3000, OccupiedAreaMM2: 100,
					Parts: []models.PartInstance{{PartInstanceID: "p1", OccupiedAreaMM2: 100}},
				},
			},
		},
	}
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cost", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.ComputeCost(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestComputeCostHandlerExtractsFromDrawings(t *testing.T) {
	h := testHandler(t)
	body := costRequest{
		NestingResult: models.NestingResult{
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
		},
		RateBook: models.RateBook{Entries: []models.RateEntry{
			{MaterialID: "steel", ThicknessMM: 2, MaterialPrice: models.MaterialPrice{Kind: models.PricePerM2, PLNPerM2: 50}},
		}},
		JobOverrides: models.DefaultJobOverrides(models.SourceOrder, "ord-1"),
		Drawings: map[string]geometry.Drawing{
			"drawing-1": {
				ID: "drawing-1",
				Primitives: []geometry.Primitive{
					{Kind: geometry.PrimitiveLine, Points: []geometry.Point{{X: 0, Y: 0}, {X: 200, Y: 0}}},
					{Kind: geometry.PrimitiveLine, Points: []geometry.Point{{X: 200, Y: 0}, {X: 200, Y: 200}}},
					{Kind: geometry.PrimitiveLine, Points: []geometry.Point{{X: 200, Y: 200}, {X: 0, Y: 200}}},
					{Kind: geometry.PrimitiveLine, Points: []geometry.Point{{X: 0, Y: 200}, {X: 0, Y: 0}}},
				},
			},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cost", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.ComputeCost(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	var summary models.CostSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if summary.VariantA.TotalPLN <= 0 {
		t.Fatalf("expected a positive total from the extracted drawing, got %v", summary.VariantA.TotalPLN)
	}
}
