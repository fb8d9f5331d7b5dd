// Package motion implements the Motion Planner component (M): a
// forward/backward lookahead over segment lengths and junction angles that
// produces a realistic per-segment cut time accounting for acceleration,
// deceleration and cornering, per spec.md §4.M.
package motion

import (
	"log/slog"
	"math"
)

// CornerModel selects the cornering speed-limit formula. The two models are
// exclusive (spec.md §9: "a single CornerModel variant is recommended").
type CornerModel int

const (
	// SquareCornerVelocity uses the square-corner-velocity heuristic scaled
	// by junction angle.
	SquareCornerVelocity CornerModel = iota
	// JunctionDeviation uses the alternative junction-deviation model.
	JunctionDeviation
)

// StraightAngleToleranceDeg: junction angles within this of 180° are treated
// as perfectly straight (spec.md §4.M).
const StraightAngleToleranceDeg = 1.0

// Profile parameterises one motion-planning run: the machine's kinematic
// limits plus the material/thickness-dependent feedrate.
type Profile struct {
	VMaxMMS            float64
	AMaxMMS2           float64
	VCorner90MMS       float64
	CornerModel        CornerModel
	JunctionDeviationMM float64
}

// Plan is the result of planning a single sheet's cut paths: the total cut
// time plus, for diagnostics, the per-segment times.
type Plan struct {
	CutTimeS      float64
	SegmentTimesS []float64
}

// Planner computes cut time from segment lengths and junction angles.
type Planner struct {
	logger *slog.Logger
}

// NewPlanner builds a Planner. A nil logger falls back to slog.Default.
func NewPlanner(logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{logger: logger}
}

// junctionSpeedLimits computes V_junc[k] for k in [0, n] given n segment
// lengths and n-1 internal junction angles, per spec.md §4.M step 1.
func junctionSpeedLimits(junctionAnglesDeg []float64, n int, profile Profile) []float64 {
	vJunc := make([]float64, n+1)
	vJunc[0] = 0
	vJunc[n] = 0
	for k := 1; k < n; k++ {
		angle := junctionAnglesDeg[k-1]
		vJunc[k] = cornerSpeedLimit(angle, profile)
	}
	return vJunc
}

func cornerSpeedLimit(angleDeg float64, profile Profile) float64 {
	if math.Abs(angleDeg-180) <= StraightAngleToleranceDeg {
		return profile.VMaxMMS
	}
	switch profile.CornerModel {
	case JunctionDeviation:
		theta := math.Pi - angleDeg*math.Pi/180
		sinHalf := math.Sin(theta / 2)
		if sinHalf >= 1 {
			return profile.VMaxMMS
		}
		v := math.Sqrt(profile.AMaxMMS2 * profile.JunctionDeviationMM * sinHalf / (1 - sinHalf))
		return math.Min(v, profile.VMaxMMS)
	default:
		scale := math.Max(0.2, 1+(angleDeg-90)/90)
		v := profile.VCorner90MMS * scale
		return math.Min(v, profile.VMaxMMS)
	}
}

// forwardPass implements spec.md §4.M step 2.
func forwardPass(lengths []float64, vJunc []float64, profile Profile) []float64 {
	n := len(lengths)
	v := make([]float64, n+1)
	v[0] = 0
	for k := 1; k <= n; k++ {
		reachable := math.Sqrt(v[k-1]*v[k-1] + 2*profile.AMaxMMS2*lengths[k-1])
		v[k] = math.Min(vJunc[k], math.Min(profile.VMaxMMS, reachable))
	}
	return v
}

// backwardPass implements spec.md §4.M step 3, mutating v in place.
func backwardPass(lengths []float64, v []float64, profile Profile) {
	n := len(lengths)
	v[n] = 0
	for k := n - 1; k >= 0; k-- {
		reachable := math.Sqrt(v[k+1]*v[k+1] + 2*profile.AMaxMMS2*lengths[k])
		v[k] = math.Min(v[k], reachable)
	}
}

// segmentTime implements spec.md §4.M step 4's trapezoidal profile for one
// segment of length L with entry speed vS and exit speed vE.
func segmentTime(length, vS, vE float64, profile Profile) float64 {
	if length <= 0 {
		return 0
	}
	a := profile.AMaxMMS2
	vPeakSq := a*length + (vS*vS+vE*vE)/2
	if vPeakSq < 0 {
		vPeakSq = 0
	}
	vPeak := math.Min(profile.VMaxMMS, math.Sqrt(vPeakSq))
	if vPeak <= 0 {
		return 0
	}
	sAccel := math.Max(0, (vPeak*vPeak-vS*vS)/(2*a))
	sDecel := math.Max(0, (vPeak*vPeak-vE*vE)/(2*a))
	sCruise := math.Max(0, length-sAccel-sDecel)
	return (vPeak-vS)/a + sCruise/vPeak + (vPeak-vE)/a
}

// EffectiveVMax implements spec.md §4.M step 5's density-based feedrate
// reduction, applied once per sheet using the pooled short_segment_ratio
// per SPEC_FULL.md §6's per-sheet-scope decision.
func EffectiveVMax(vMax, shortSegmentRatio float64) float64 {
	return math.Max(0.3*vMax, vMax*(1-0.7*shortSegmentRatio))
}

// Plan runs the full forward/backward lookahead over lengths and
// junctionAnglesDeg (length n-1 for n segments) and returns the total cut
// time and per-segment times.
func (p *Planner) Plan(lengths []float64, junctionAnglesDeg []float64, profile Profile) Plan {
	n := len(lengths)
	if n == 0 {
		return Plan{}
	}
	vJunc := junctionSpeedLimits(junctionAnglesDeg, n, profile)
	v := forwardPass(lengths, vJunc, profile)
	backwardPass(lengths, v, profile)

	times := make([]float64, n)
	var total float64
	for k := 0; k < n; k++ {
		t := segmentTime(lengths[k], v[k], v[k+1], profile)
		times[k] = t
		total += t
	}
	p.logger.Debug("planned cut motion", "segments", n, "cut_time_s", total, "v_max_mm_s", profile.VMaxMMS)
	return Plan{CutTimeS: total, SegmentTimesS: times}
}
