// Package geometry implements the Geometry Primitives component (G): point,
// segment and contour types, polyline flattening of arcs/splines, area,
// length, bounding-box and junction-angle computation.
package geometry

import "math"

// ClosureTolerance is the distance, in millimetres, within which two
// endpoints are considered coincident (spec.md §3: "Closed iff first point
// = last point within tolerance 0.1 mm").
const ClosureTolerance = 0.1

// DefaultChordTolerance is the default chord tolerance used to flatten arcs
// and splines into polylines (spec.md §4.G: "configurable 0.05-0.2").
const DefaultChordTolerance = 0.1

// MinChordTolerance and MaxChordTolerance bound the configurable range.
const (
	MinChordTolerance = 0.05
	MaxChordTolerance = 0.2
)

// CollinearMergeTolerance is the length below which a segment is merged into
// its neighbour before statistics are computed; the merge does not test
// whether the two segments are collinear.
const CollinearMergeTolerance = 0.01

// Point is a 2D coordinate in millimetres.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - o.
func (p Point) Sub(o Point) Point { return Point{X: p.X - o.X, Y: p.Y - o.Y} }

// Dist returns the Euclidean distance between p and o.
func (p Point) Dist(o Point) float64 {
	dx, dy := p.X-o.X, p.Y-o.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Within reports whether p and o coincide within tol millimetres.
func (p Point) Within(o Point, tol float64) bool { return p.Dist(o) <= tol }

// Segment is an ordered pair of points with a derived length and direction.
type Segment struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 { return s.Start.Dist(s.End) }

// Direction returns the unit direction vector from Start to End. The zero
// vector is returned for a zero-length segment.
func (s Segment) Direction() Point {
	l := s.Length()
	if l == 0 {
		return Point{}
	}
	d := s.End.Sub(s.Start)
	return Point{X: d.X / l, Y: d.Y / l}
}

// JunctionAngleDeg computes the interior angle, in degrees within [0, 180],
// between a segment s1 ending at a point and a segment s2 starting there
// (spec.md §4.G): 0 means s2 doubles back along s1, 180 means a straight
// continuation.
func JunctionAngleDeg(s1, s2 Segment) float64 {
	d1 := s1.Direction()
	d2 := s2.Direction()
	if (d1 == Point{}) || (d2 == Point{}) {
		return 180
	}
	// The interior (straight-through) angle is 180 minus the angle between
	// the incoming direction and the outgoing direction.
	dot := d1.X*d2.X + d1.Y*d2.Y
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	turn := math.Acos(dot) * 180 / math.Pi // 0 = straight-through in direction terms
	return 180 - turn
}

// Contour is an ordered sequence of segments.
type Contour struct {
	Segments []Segment
}

// IsClosed reports whether the first point of the first segment coincides
// with the last point of the last segment within ClosureTolerance.
func (c Contour) IsClosed() bool {
	if len(c.Segments) == 0 {
		return false
	}
	first := c.Segments[0].Start
	last := c.Segments[len(c.Segments)-1].End
	return first.Within(last, ClosureTolerance)
}

// Length returns the sum of segment lengths in the contour.
func (c Contour) Length() float64 {
	total := 0.0
	for _, s := range c.Segments {
		total += s.Length()
	}
	return total
}

// Points returns the ordered vertex sequence implied by the contour's
// segments (Start of each segment, plus the End of the last one).
func (c Contour) Points() []Point {
	if len(c.Segments) == 0 {
		return nil
	}
	pts := make([]Point, 0, len(c.Segments)+1)
	for _, s := range c.Segments {
		pts = append(pts, s.Start)
	}
	pts = append(pts, c.Segments[len(c.Segments)-1].End)
	return pts
}

// ShoelaceArea computes the unsigned area enclosed by a closed polyline
// using the shoelace formula. Orientation (and thus sign) is discarded per
// spec.md §4.G: "outer/inner is determined by containment, not orientation."
func ShoelaceArea(points []Point) float64 {
	if len(points) < 3 {
		return 0
	}
	area := 0.0
	n := len(points)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += points[i].X*points[j].Y - points[j].X*points[i].Y
	}
	return math.Abs(area) / 2.0
}

// BoundingBox is an axis-aligned rectangle.
type BoundingBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// Area returns the bounding box's area.
func (b BoundingBox) Area() float64 { return (b.MaxX - b.MinX) * (b.MaxY - b.MinY) }

// Contains reports whether b fully contains o.
func (b BoundingBox) Contains(o BoundingBox) bool {
	return b.MinX <= o.MinX && b.MinY <= o.MinY && b.MaxX >= o.MaxX && b.MaxY >= o.MaxY
}

// BoundingBoxOf computes the axis-aligned bounding box of a point set.
func BoundingBoxOf(points []Point) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}
	bb := BoundingBox{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		if p.X < bb.MinX {
			bb.MinX = p.X
		}
		if p.Y < bb.MinY {
			bb.MinY = p.Y
		}
		if p.X > bb.MaxX {
			bb.MaxX = p.X
		}
		if p.Y > bb.MaxY {
			bb.MaxY = p.Y
		}
	}
	return bb
}

// TessellateArc flattens a circular arc into a polyline of points at the
// given chord tolerance (spec.md §4.G). The arc runs from startDeg to
// endDeg (degrees, counter-clockwise positive) around center at radius r.
func TessellateArc(center Point, radius, startDeg, endDeg, chordTolerance float64) []Point {
	if chordTolerance <= 0 {
		chordTolerance = DefaultChordTolerance
	}
	sweep := endDeg - startDeg
	sweepRad := math.Abs(sweep) * math.Pi / 180
	if radius <= 0 || sweepRad == 0 {
		return []Point{
			{X: center.X + radius*math.Cos(startDeg*math.Pi/180), Y: center.Y + radius*math.Sin(startDeg*math.Pi/180)},
		}
	}

	// Maximum angular step such that the chord-to-arc deviation stays within
	// chordTolerance: deviation = r * (1 - cos(step/2)).
	ratio := 1 - chordTolerance/radius
	if ratio < -1 {
		ratio = -1
	}
	maxStepRad := 2 * math.Acos(ratio)
	if maxStepRad <= 0 || math.IsNaN(maxStepRad) {
		maxStepRad = sweepRad
	}

	steps := int(math.Ceil(sweepRad / maxStepRad))
	if steps < 1 {
		steps = 1
	}

	points := make([]Point, 0, steps+1)
	dir := 1.0
	if sweep < 0 {
		dir = -1.0
	}
	for i := 0; i <= steps; i++ {
		angle := startDeg + dir*float64(i)*(math.Abs(sweep)/float64(steps))
		rad := angle * math.Pi / 180
		points = append(points, Point{X: center.X + radius*math.Cos(rad), Y: center.Y + radius*math.Sin(rad)})
	}
	return points
}

// TessellateCubicSpline flattens a single cubic Bezier segment into a
// polyline by recursive subdivision until the chord approximates the curve
// within chordTolerance.
func TessellateCubicSpline(p0, p1, p2, p3 Point, chordTolerance float64) []Point {
	if chordTolerance <= 0 {
		chordTolerance = DefaultChordTolerance
	}
	var out []Point
	subdivide(p0, p1, p2, p3, chordTolerance, 0, &out)
	out = append(out, p3)
	return out
}

func subdivide(p0, p1, p2, p3 Point, tol float64, depth int, out *[]Point) {
	*out = append(*out, p0)
	if depth >= 24 || flatEnough(p0, p1, p2, p3, tol) {
		return
	}
	// De Casteljau split at t=0.5.
	p01 := mid(p0, p1)
	p12 := mid(p1, p2)
	p23 := mid(p2, p3)
	p012 := mid(p01, p12)
	p123 := mid(p12, p23)
	p0123 := mid(p012, p123)

	// Replace the just-appended p0 entry's continuation by recursing; p0 was
	// already appended above, so trim it before the left recursion re-adds it.
	*out = (*out)[:len(*out)-1]
	subdivide(p0, p01, p012, p0123, tol, depth+1, out)
	subdivide(p0123, p123, p23, p3, tol, depth+1, out)
}

func mid(a, b Point) Point { return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2} }

func flatEnough(p0, p1, p2, p3 Point, tol float64) bool {
	d1 := pointLineDistance(p1, p0, p3)
	d2 := pointLineDistance(p2, p0, p3)
	return d1 <= tol && d2 <= tol
}

func pointLineDistance(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Sqrt(dx*dx + dy*dy)
	if length == 0 {
		return p.Dist(a)
	}
	// |cross(b-a, p-a)| / |b-a|
	cross := math.Abs(dx*(p.Y-a.Y) - dy*(p.X-a.X))
	return cross / length
}
