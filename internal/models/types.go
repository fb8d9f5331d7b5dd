package models

// ToolpathStats mirrors spec.md §3's ToolpathStats: immutable, derived once
// per drawing hash by the Toolpath Extractor and memoized in the Stats
// Cache. It lives in models, not in the toolpath package, so that both the
// extractor and the data model that carries its output depend on it without
// an import cycle between the two.
type ToolpathStats struct {
	CutLengthMM       float64        `json:"cut_length_mm"`
	PierceCount       int            `json:"pierce_count"`
	ContourCount      int            `json:"contour_count"`
	ShortSegmentRatio float64        `json:"short_segment_ratio"`
	OccupiedAreaMM2   float64        `json:"occupied_area_mm2"`
	NetAreaMM2        float64        `json:"net_area_mm2"`
	EntityCounts      map[string]int `json:"entity_counts"`
}

// MotionInput is one (segment_length_mm, junction_angle_deg) pair, the
// optional Tier-2 cache payload of spec.md §3.
type MotionInput struct {
	SegmentLengthMM  float64 `json:"segment_length_mm"`
	JunctionAngleDeg float64 `json:"junction_angle_deg"`
}

// SheetMode selects the billing regime for a Sheet per spec.md §4.A.
type SheetMode string

const (
	FixedSheet   SheetMode = "FIXED_SHEET"
	CutToLength  SheetMode = "CUT_TO_LENGTH"
)

// AllocationModel selects how sheet material cost is divided across parts.
type AllocationModel string

const (
	OccupiedArea     AllocationModel = "OCCUPIED_AREA"
	LegacyUtilization AllocationModel = "LEGACY_UTILIZATION"
)

// SourceType identifies what a NestingResult/JobOverrides pair belongs to.
type SourceType string

const (
	SourceOrder     SourceType = "ORDER"
	SourceQuotation SourceType = "QUOTATION"
)

// Transform is a rigid placement on a sheet: translation plus a
// quarter-turn rotation.
type Transform struct {
	XMM      float64 `json:"x_mm"`
	YMM      float64 `json:"y_mm"`
	RotateDeg int    `json:"rotate_deg"` // one of 0, 90, 180, 270
}

// PartInstance is a single placement of a part on a sheet.
type PartInstance struct {
	PartInstanceID  string                 `json:"part_instance_id"`
	PartID          string                 `json:"part_id"`
	DrawingID       string                 `json:"drawing_id"`
	QtyInSheet      int                    `json:"qty_in_sheet"`
	Transform       Transform              `json:"transform"`
	OccupiedAreaMM2 float64                `json:"occupied_area_mm2"`
	ToolpathStats   ToolpathStats          `json:"toolpath_stats"`
	// MotionInputs is the optional Tier-2 cache payload of spec.md §3: the
	// ordered (segment_length_mm, junction_angle_deg) pairs the Motion
	// Planner needs for a physically accurate per-part cut time. When
	// absent, the Cost Engine falls back to treating the part's cut path
	// as a single segment of its total cut length.
	MotionInputs []MotionInput `json:"motion_inputs,omitempty"`
}

// Sheet is one consumed sheet of material carrying its placed parts.
type Sheet struct {
	SheetID              string         `json:"sheet_id"`
	SheetMode            SheetMode      `json:"sheet_mode"`
	MaterialID           string         `json:"material_id"`
	ThicknessMM          float64        `json:"thickness_mm"`
	SheetWidthMM         float64        `json:"sheet_width_mm"`
	SheetLengthNominalMM float64        `json:"sheet_length_mm_nominal"`
	UsedLengthYMM        float64        `json:"used_length_y_mm"`
	TrimMarginYMM        float64        `json:"trim_margin_y_mm"`
	SheetAreaUsedMM2     float64        `json:"sheet_area_used_mm2"`
	OccupiedAreaMM2      float64        `json:"occupied_area_mm2"`
	Utilization          float64        `json:"utilization"`
	Parts                []PartInstance `json:"parts"`
}

// NestingResult is the output of the external nesting placement algorithm
// and the primary input to the Costing Facade.
type NestingResult struct {
	SourceType      SourceType `json:"source_type"`
	SourceID        string     `json:"source_id"`
	MachineProfileID string    `json:"machine_profile_id"`
	Sheets          []Sheet    `json:"sheets"`
}

// MachineProfile parameterises the Motion Planner for a given machine.
type MachineProfile struct {
	MachineProfileID       string  `json:"machine_profile_id"`
	MaxAccelMMS2           float64 `json:"max_accel_mm_s2"`
	MaxRapidMMS            float64 `json:"max_rapid_mm_s"`
	SquareCornerVelocityMMS float64 `json:"square_corner_velocity_mm_s"`
	JunctionDeviationMM    float64 `json:"junction_deviation_mm,omitempty"`
	UseJunctionDeviation   bool    `json:"use_junction_deviation"`
}

// MaterialPriceKind is the sum-type tag for RateEntry.MaterialPrice.
type MaterialPriceKind string

const (
	PricePerM2  MaterialPriceKind = "PLN_PER_M2"
	PricePerKg  MaterialPriceKind = "PLN_PER_KG"
)

// MaterialPrice is a closed sum type: exactly one of PLN/m² or PLN/kg.
type MaterialPrice struct {
	Kind        MaterialPriceKind `json:"kind"`
	PLNPerM2    float64           `json:"pln_per_m2,omitempty"`
	PLNPerKg    float64           `json:"pln_per_kg,omitempty"`
}

// FoilCostKind is the sum-type tag for FoilRemoval.Cost.
type FoilCostKind string

const (
	FoilCostPerMinute     FoilCostKind = "PER_MINUTE"
	FoilCostPerSquareMetre FoilCostKind = "PER_SQUARE_METRE"
	FoilCostPerMetre      FoilCostKind = "PER_METRE"
)

// FoilCost is a closed sum type for how foil-removal is priced.
type FoilCost struct {
	Kind            FoilCostKind `json:"kind"`
	PLNPerMinute    float64      `json:"pln_per_minute,omitempty"`
	PLNPerSquareMetre float64    `json:"pln_per_square_metre,omitempty"`
	PLNPerMetre     float64      `json:"pln_per_metre,omitempty"`
}

// FoilRemoval describes when and how foil-removal applies and is priced.
type FoilRemoval struct {
	ApplicableMaterialClass string   `json:"applicable_material_class"`
	ApplicableThicknessMaxMM float64 `json:"applicable_thickness_max_mm"`
	SpeedMMin               float64 `json:"speed_m_min"`
	Cost                     FoilCost `json:"cost"`
}

// RateEntry is one (material_id, thickness_mm) row of the RateBook.
type RateEntry struct {
	MaterialID           string         `json:"material_id"`
	ThicknessMM          float64        `json:"thickness_mm"`
	DensityKgM3          float64        `json:"density_kg_m3"`
	MaterialPrice        MaterialPrice  `json:"material_price"`
	CutFeedrateMMin      float64        `json:"cut_feedrate_m_min"`
	CutPricePerMeterPLN  float64        `json:"cut_price_per_meter_pln"`
	MachineRatePLNPerHour float64       `json:"machine_rate_pln_per_hour"`
	PierceTimeS          float64        `json:"pierce_time_s,omitempty"`
	PierceCostPLN        float64        `json:"pierce_cost_pln,omitempty"`
	FoilRemoval          *FoilRemoval   `json:"foil_removal,omitempty"`
	StainlessLike        bool           `json:"stainless_like"`
	PunchCostPerPunchPLN float64        `json:"punch_cost_per_punch_pln,omitempty"`
}

// RateBook is the set of RateEntry rows the Rate Resolver searches.
type RateBook struct {
	Entries []RateEntry `json:"entries"`
}

// JobOverrides carries per-run policy and pass-through job-level costs.
type JobOverrides struct {
	SourceType                 SourceType      `json:"source_type"`
	SourceID                   string          `json:"source_id"`
	TechCostPLN                float64         `json:"tech_cost_pln"`
	PackagingCostPLN           float64         `json:"packaging_cost_pln"`
	TransportCostPLN           float64         `json:"transport_cost_pln"`
	OperationalCostPerSheetPLN float64         `json:"operational_cost_per_sheet_pln"`
	IncludePiercing            *bool           `json:"include_piercing,omitempty"`
	IncludeFoilRemoval         *bool           `json:"include_foil_removal,omitempty"`
	IncludePunch               bool            `json:"include_punch"`
	AllocationModel             AllocationModel `json:"allocation_model"`
	BufferFactor                float64         `json:"buffer_factor"`
	MarginPercent                float64         `json:"margin_percent"`
}

// DefaultJobOverrides returns the spec.md §3 default JobOverrides for the
// given run identity.
func DefaultJobOverrides(sourceType SourceType, sourceID string) JobOverrides {
	includePiercing := true
	return JobOverrides{
		SourceType:                 sourceType,
		SourceID:                   sourceID,
		OperationalCostPerSheetPLN: 40,
		IncludePiercing:            &includePiercing,
		IncludePunch:               false,
		AllocationModel:            OccupiedArea,
		BufferFactor:               1.25,
	}
}

// IncludesPiercing reports whether piercing cost should be included,
// defaulting to true per spec.md §3 when unset.
func (o JobOverrides) IncludesPiercing() bool {
	if o.IncludePiercing == nil {
		return true
	}
	return *o.IncludePiercing
}

// IncludesFoilRemoval reports the explicit job override for foil removal,
// and whether one was set at all (false, false means "defer to the rate
// book's auto-enable policy", per spec.md §4.R).
func (o JobOverrides) IncludesFoilRemoval() (value bool, explicit bool) {
	if o.IncludeFoilRemoval == nil {
		return false, false
	}
	return *o.IncludeFoilRemoval, true
}
