package geometry

// PrimitiveKind enumerates the vector-drawing primitive kinds a Drawing can
// contain (spec.md §1: "polylines, arcs, circles, splines").
type PrimitiveKind string

const (
	PrimitiveLine    PrimitiveKind = "line"
	PrimitivePolyline PrimitiveKind = "polyline"
	PrimitiveArc     PrimitiveKind = "arc"
	PrimitiveCircle  PrimitiveKind = "circle"
	PrimitiveSpline  PrimitiveKind = "spline"
)

// Primitive is a single vector-drawing entity as delivered by the (external)
// drawing-file reader. Only the fields relevant to its Kind are populated.
type Primitive struct {
	Kind PrimitiveKind `json:"kind"`

	// PrimitiveLine / PrimitivePolyline
	Points []Point `json:"points,omitempty"`

	// PrimitiveArc / PrimitiveCircle
	Center   Point   `json:"center,omitempty"`
	Radius   float64 `json:"radius,omitempty"`
	StartDeg float64 `json:"start_deg,omitempty"`
	EndDeg   float64 `json:"end_deg,omitempty"`

	// PrimitiveSpline: a chain of cubic Bezier segments sharing their joint
	// points, 3n+1 control points for n segments (p0, p1, p2, p3, p4, p5,
	// p6, ...; segment k uses points 3k..3k+3).
	ControlPoints []Point `json:"control_points,omitempty"`
}

// Drawing is a set of contours plus their origin, identified by a content
// hash (spec.md §3).
type Drawing struct {
	ID         string      `json:"id"`
	Origin     Point       `json:"origin"`
	Primitives []Primitive `json:"primitives"`
}

// Tessellate flattens every primitive in the drawing into raw polylines
// (one []Point per primitive) at the given chord tolerance. It performs no
// stitching; see Stitch for assembling primitives into contours.
func Tessellate(primitives []Primitive, chordTolerance float64) [][]Point {
	if chordTolerance <= 0 {
		chordTolerance = DefaultChordTolerance
	}
	out := make([][]Point, 0, len(primitives))
	for _, prim := range primitives {
		switch prim.Kind {
		case PrimitiveLine, PrimitivePolyline:
			out = append(out, prim.Points)
		case PrimitiveArc:
			out = append(out, TessellateArc(prim.Center, prim.Radius, prim.StartDeg, prim.EndDeg, chordTolerance))
		case PrimitiveCircle:
			out = append(out, TessellateArc(prim.Center, prim.Radius, 0, 360, chordTolerance))
		case PrimitiveSpline:
			out = append(out, tessellateSplineChain(prim.ControlPoints, chordTolerance))
		}
	}
	return out
}

func tessellateSplineChain(controlPoints []Point, chordTolerance float64) []Point {
	if len(controlPoints) < 4 {
		return controlPoints
	}
	var out []Point
	for i := 0; i+3 < len(controlPoints); i += 3 {
		seg := TessellateCubicSpline(controlPoints[i], controlPoints[i+1], controlPoints[i+2], controlPoints[i+3], chordTolerance)
		if i > 0 && len(seg) > 0 {
			seg = seg[1:] // avoid duplicating the shared joint point
		}
		out = append(out, seg...)
	}
	return out
}

// Stitch assembles raw polylines into contours by unifying endpoints within
// ClosureTolerance (spec.md §4.G: "When stitching separate line/arc
// primitives into contours, endpoints within 0.1 mm are unified."). Before
// building segments it also drops any point closer than
// CollinearMergeTolerance to the previous point of its polyline, merging
// such tiny segments into their neighbour whatever their direction.
func Stitch(polylines [][]Point) []Contour {
	// Build raw point chains, unifying endpoints within tolerance across
	// different polylines by snapping a new chain's start/end to any
	// existing chain endpoint that is close enough.
	var chains [][]Point
	for _, pl := range polylines {
		cleaned := dedupeAdjacent(pl)
		if len(cleaned) < 2 {
			continue
		}
		chains = append(chains, cleaned)
	}

	chains = weldChains(chains)

	contours := make([]Contour, 0, len(chains))
	for _, chain := range chains {
		contours = append(contours, Contour{Segments: toSegments(chain)})
	}
	return contours
}

// dedupeAdjacent merges adjacent points closer than CollinearMergeTolerance,
// per spec.md §4.T.
func dedupeAdjacent(points []Point) []Point {
	if len(points) == 0 {
		return nil
	}
	out := make([]Point, 0, len(points))
	out = append(out, points[0])
	for _, p := range points[1:] {
		if p.Dist(out[len(out)-1]) < CollinearMergeTolerance {
			continue
		}
		out = append(out, p)
	}
	return out
}

func toSegments(chain []Point) []Segment {
	segs := make([]Segment, 0, len(chain)-1)
	for i := 0; i+1 < len(chain); i++ {
		segs = append(segs, Segment{Start: chain[i], End: chain[i+1]})
	}
	return segs
}

// weldChains repeatedly joins chains whose endpoints coincide within
// ClosureTolerance, producing the longest contiguous contours the endpoint
// topology allows.
func weldChains(chains [][]Point) [][]Point {
	changed := true
	for changed {
		changed = false
	outer:
		for i := 0; i < len(chains); i++ {
			for j := i + 1; j < len(chains); j++ {
				if joined, ok := tryJoin(chains[i], chains[j]); ok {
					chains[i] = joined
					chains = append(chains[:j], chains[j+1:]...)
					changed = true
					break outer
				}
			}
		}
	}
	return chains
}

func tryJoin(a, b []Point) ([]Point, bool) {
	if len(a) == 0 || len(b) == 0 {
		return nil, false
	}
	aStart, aEnd := a[0], a[len(a)-1]
	bStart, bEnd := b[0], b[len(b)-1]

	switch {
	case aEnd.Within(bStart, ClosureTolerance):
		return append(append([]Point{}, a...), b[1:]...), true
	case aEnd.Within(bEnd, ClosureTolerance):
		return append(append([]Point{}, a...), reverse(b)[1:]...), true
	case aStart.Within(bEnd, ClosureTolerance):
		return append(append([]Point{}, b...), a[1:]...), true
	case aStart.Within(bStart, ClosureTolerance):
		return append(append([]Point{}, reverse(b)...), a[1:]...), true
	}
	return nil, false
}

func reverse(points []Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}
