package toolpath

import (
	"math"
	"testing"

	"github.com/arturave/lasercost/internal/geometry"
)

func squareDrawing(id string, side float64) geometry.Drawing {
	return geometry.Drawing{
		ID: id,
		Primitives: []geometry.Primitive{
			{Kind: geometry.PrimitivePolyline, Points: []geometry.Point{
				{0, 0}, {side, 0}, {side, side}, {0, side}, {0, 0},
			}},
		},
	}
}

func TestExtractClosedSquare(t *testing.T) {
	e := NewExtractor(0.1, nil)
	res, err := e.Extract(squareDrawing("sq", 100))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Stats.PierceCount != 1 {
		t.Fatalf("PierceCount = %d, want 1", res.Stats.PierceCount)
	}
	if math.Abs(res.Stats.OccupiedAreaMM2-10000) > 1e-6 {
		t.Fatalf("OccupiedAreaMM2 = %v, want 10000", res.Stats.OccupiedAreaMM2)
	}
	if math.Abs(res.Stats.CutLengthMM-400) > 1e-6 {
		t.Fatalf("CutLengthMM = %v, want 400", res.Stats.CutLengthMM)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", res.Warnings)
	}
}

func TestExtractOpenContourWarns(t *testing.T) {
	d := geometry.Drawing{
		ID: "open",
		Primitives: []geometry.Primitive{
			{Kind: geometry.PrimitiveLine, Points: []geometry.Point{{0, 0}, {100, 0}, {100, 100}}},
		},
	}
	e := NewExtractor(0.1, nil)
	res, err := e.Extract(d)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected one OpenContour warning, got %d", len(res.Warnings))
	}
}

func TestExtractDegenerateGeometry(t *testing.T) {
	d := geometry.Drawing{ID: "empty"}
	e := NewExtractor(0.1, nil)
	if _, err := e.Extract(d); err == nil {
		t.Fatalf("expected DegenerateGeometry error")
	}
}

func TestExtractHoleNotSubtractedFromOccupiedArea(t *testing.T) {
	outer := geometry.Primitive{Kind: geometry.PrimitivePolyline, Points: []geometry.Point{
		{0, 0}, {100, 0}, {100, 100}, {0, 100}, {0, 0},
	}}
	hole := geometry.Primitive{Kind: geometry.PrimitivePolyline, Points: []geometry.Point{
		{40, 40}, {60, 40}, {60, 60}, {40, 60}, {40, 40},
	}}
	d := geometry.Drawing{ID: "withhole", Primitives: []geometry.Primitive{outer, hole}}
	e := NewExtractor(0.1, nil)
	res, err := e.Extract(d)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if math.Abs(res.Stats.OccupiedAreaMM2-10000) > 1e-6 {
		t.Fatalf("OccupiedAreaMM2 = %v, want 10000 (holes not subtracted)", res.Stats.OccupiedAreaMM2)
	}
	wantNet := 10000.0 - 400.0
	if math.Abs(res.Stats.NetAreaMM2-wantNet) > 1e-6 {
		t.Fatalf("NetAreaMM2 = %v, want %v", res.Stats.NetAreaMM2, wantNet)
	}
	if res.Stats.PierceCount != 2 {
		t.Fatalf("PierceCount = %d, want 2", res.Stats.PierceCount)
	}
}

func TestContentHashRoundTrip(t *testing.T) {
	d := squareDrawing("sq", 50)
	h1 := ContentHash(d, 0.1)
	h2 := ContentHash(d, 0.1)
	if h1 != h2 {
		t.Fatalf("ContentHash not deterministic: %s != %s", h1, h2)
	}
	h3 := ContentHash(squareDrawing("sq", 51), 0.1)
	if h1 == h3 {
		t.Fatalf("expected different hash for different geometry")
	}
}

func TestShortSegmentRatio(t *testing.T) {
	d := geometry.Drawing{
		ID: "lacy",
		Primitives: []geometry.Primitive{
			{Kind: geometry.PrimitivePolyline, Points: []geometry.Point{
				{0, 0}, {2, 0}, {4, 0}, {4, 100}, {0, 100}, {0, 0},
			}},
		},
	}
	e := NewExtractor(0.1, nil)
	res, err := e.Extract(d)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Stats.ShortSegmentRatio <= 0 || res.Stats.ShortSegmentRatio >= 1 {
		t.Fatalf("ShortSegmentRatio = %v, want in (0,1)", res.Stats.ShortSegmentRatio)
	}
}
