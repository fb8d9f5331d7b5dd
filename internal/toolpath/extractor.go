// Package toolpath implements the Toolpath Extractor component (T): it
// turns a geometry.Drawing into ordered segments plus derived per-part
// statistics, per spec.md §4.T.
package toolpath

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"

	"github.com/arturave/lasercost/internal/geometry"
	"github.com/arturave/lasercost/internal/models"
)

// ShortSegmentThresholdMM is the length below which a segment counts toward
// short_segment_ratio (spec.md §3/§4.T).
const ShortSegmentThresholdMM = 5.0

// Result bundles the derived models.ToolpathStats with the ordered
// models.MotionInput values the Motion Planner (M) consumes, plus any
// non-fatal warnings (spec.md §4.T: "reports OpenContour as a warning").
type Result struct {
	Stats        models.ToolpathStats
	MotionInputs []models.MotionInput
	Warnings     []models.Warning
}

// Extractor turns drawings into Result values.
type Extractor struct {
	// ChordTolerance is the tessellation tolerance applied to arcs/splines
	// (spec.md §4.G, default geometry.DefaultChordTolerance).
	ChordTolerance float64
	logger         *slog.Logger
}

// NewExtractor creates an Extractor with the given chord tolerance. A
// non-positive tolerance falls back to geometry.DefaultChordTolerance.
func NewExtractor(chordTolerance float64, logger *slog.Logger) *Extractor {
	if chordTolerance <= 0 {
		chordTolerance = geometry.DefaultChordTolerance
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{ChordTolerance: chordTolerance, logger: logger}
}

// Extract implements the algorithm sketch of spec.md §4.T: tessellate every
// primitive, stitch into contours, compute length/junction angles, count
// closed contours as pierces, and pick the outermost contour by
// bounding-box containment as the occupied-area contour.
func (e *Extractor) Extract(d geometry.Drawing) (Result, error) {
	polylines := geometry.Tessellate(d.Primitives, e.ChordTolerance)
	contours := geometry.Stitch(polylines)

	if len(contours) == 0 || totalLength(contours) == 0 {
		return Result{}, models.NewDegenerateGeometryError(d.ID)
	}

	entityCounts := countEntities(d.Primitives)

	var warnings []models.Warning
	pierceCount := 0
	for _, c := range contours {
		if c.IsClosed() {
			pierceCount++
		} else {
			warnings = append(warnings, models.NewOpenContourWarning(d.ID))
		}
	}

	outer := pickOutermost(contours)
	outerArea := geometry.ShoelaceArea(outer.Points())
	holesArea := 0.0
	for _, c := range contours {
		if sameContour(c, outer) {
			continue
		}
		holesArea += geometry.ShoelaceArea(c.Points())
	}
	netArea := outerArea - holesArea
	if netArea < 0 {
		netArea = 0
	}

	cutLength := totalLength(contours)
	shortLength := 0.0
	motionInputs := make([]models.MotionInput, 0)

	for _, c := range contours {
		segs := c.Segments
		for i, s := range segs {
			length := s.Length()
			if length < ShortSegmentThresholdMM {
				shortLength += length
			}
			angle := 180.0
			if i+1 < len(segs) {
				angle = geometry.JunctionAngleDeg(s, segs[i+1])
			}
			motionInputs = append(motionInputs, models.MotionInput{SegmentLengthMM: length, JunctionAngleDeg: angle})
		}
	}

	ratio := 0.0
	if cutLength > 0 {
		ratio = shortLength / cutLength
	}

	stats := models.ToolpathStats{
		CutLengthMM:       cutLength,
		PierceCount:       pierceCount,
		ContourCount:      len(contours),
		ShortSegmentRatio: ratio,
		OccupiedAreaMM2:   outerArea,
		NetAreaMM2:        netArea,
		EntityCounts:      entityCounts,
	}

	e.logger.Debug("extracted toolpath stats",
		"drawing_id", d.ID,
		"cut_length_mm", stats.CutLengthMM,
		"pierce_count", stats.PierceCount,
		"contour_count", stats.ContourCount)

	return Result{Stats: stats, MotionInputs: motionInputs, Warnings: warnings}, nil
}

func totalLength(contours []geometry.Contour) float64 {
	total := 0.0
	for _, c := range contours {
		total += c.Length()
	}
	return total
}

func countEntities(primitives []geometry.Primitive) map[string]int {
	counts := make(map[string]int)
	for _, p := range primitives {
		counts[string(p.Kind)]++
	}
	return counts
}

// pickOutermost selects the contour whose bounding box contains every other
// contour's bounding box, per spec.md §4.T. Ties (no single containing
// contour, e.g. a fully open drawing) fall back to the contour with the
// largest bounding-box area.
func pickOutermost(contours []geometry.Contour) geometry.Contour {
	boxes := make([]geometry.BoundingBox, len(contours))
	for i, c := range contours {
		boxes[i] = geometry.BoundingBoxOf(c.Points())
	}

	best := -1
	for i, bb := range boxes {
		containsAll := true
		for j := range boxes {
			if i == j {
				continue
			}
			if !bb.Contains(boxes[j]) {
				containsAll = false
				break
			}
		}
		if containsAll {
			best = i
			break
		}
	}
	if best == -1 {
		best = 0
		for i, bb := range boxes {
			if bb.Area() > boxes[best].Area() {
				best = i
			}
		}
	}
	return contours[best]
}

func sameContour(a, b geometry.Contour) bool {
	if len(a.Segments) != len(b.Segments) {
		return false
	}
	for i := range a.Segments {
		if a.Segments[i] != b.Segments[i] {
			return false
		}
	}
	return true
}

// ContentHash computes the content hash of spec.md §6: "SHA-256 over
// canonicalised segment list (coordinates rounded to 0.001 mm, ordered by
// contour then by endpoint)." tessellationTolerance is folded into the hash
// so the Stats Cache key (spec.md §4.C) also varies with tessellation
// settings.
func ContentHash(d geometry.Drawing, tessellationTolerance float64) string {
	polylines := geometry.Tessellate(d.Primitives, tessellationTolerance)
	contours := geometry.Stitch(polylines)

	// Deterministic contour ordering: sort by each contour's full
	// canonicalised coordinate string, so the order in which Stitch returns
	// contours does not affect the hash. A contour's own start point and
	// direction follow the stitching of its primitives, so permuting
	// primitives that are welded into one contour can change the hash.
	type canonContour struct {
		key string
		pts []geometry.Point
	}
	canon := make([]canonContour, 0, len(contours))
	for _, c := range contours {
		pts := c.Points()
		canon = append(canon, canonContour{key: canonicalKey(pts), pts: pts})
	}
	sort.Slice(canon, func(i, j int) bool { return canon[i].key < canon[j].key })

	h := sha256.New()
	fmt.Fprintf(h, "tol=%.3f;", tessellationTolerance)
	for _, c := range canon {
		h.Write([]byte(c.key))
		h.Write([]byte{'|'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func canonicalKey(points []geometry.Point) string {
	out := make([]byte, 0, len(points)*24)
	for _, p := range points {
		out = append(out, []byte(fmt.Sprintf("(%.3f,%.3f)", round3(p.X), round3(p.Y)))...)
	}
	return string(out)
}

func round3(v float64) float64 {
	const scale = 1000.0
	return float64(int64(v*scale+sign(v)*0.5)) / scale
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
