package models

// SheetCostA is the variant-A (price-list) breakdown for one sheet.
type SheetCostA struct {
	SheetID     string  `json:"sheet_id"`
	Material    float64 `json:"material"`
	Cut         float64 `json:"cut"`
	Pierce      float64 `json:"pierce"`
	Foil        float64 `json:"foil"`
	Operational float64 `json:"operational"`
	Total       float64 `json:"total"`
}

// SheetCostB is the variant-B (time-based) breakdown for one sheet.
type SheetCostB struct {
	SheetID      string  `json:"sheet_id"`
	Material     float64 `json:"material"`
	Laser        float64 `json:"laser"`
	Operational  float64 `json:"operational"`
	Total        float64 `json:"total"`
	CutTimeS     float64 `json:"cut_time_s"`
	PierceTimeS  float64 `json:"pierce_time_s"`
	FoilTimeS    float64 `json:"foil_time_s"`
	BilledTimeS  float64 `json:"billed_time_s"`
}

// JobCosts are the per-run pass-through charges of spec.md §4.X/§6.
type JobCosts struct {
	TechCostPLN      float64 `json:"tech_cost_pln"`
	PackagingCostPLN float64 `json:"packaging_cost_pln"`
	TransportCostPLN float64 `json:"transport_cost_pln"`
}

// VariantA is the complete price-list costing result for a run.
type VariantA struct {
	TotalPLN float64      `json:"total_pln"`
	Sheets   []SheetCostA `json:"sheets"`
	JobCosts JobCosts     `json:"job_costs"`
}

// VariantB is the complete time-based costing result for a run.
type VariantB struct {
	TotalPLN float64      `json:"total_pln"`
	Sheets   []SheetCostB `json:"sheets"`
	JobCosts JobCosts     `json:"job_costs"`
}

// PartAttribution is the per-PartInstance cost breakdown across both
// variants, per spec.md §6's `per_part` output schema.
type PartAttribution struct {
	Material    float64 `json:"material"`
	CutA        float64 `json:"cut_a"`
	CutB        float64 `json:"cut_b"`
	PierceA     float64 `json:"pierce_a"`
	PierceB     float64 `json:"pierce_b"`
	FoilA       float64 `json:"foil_a"`
	FoilB       float64 `json:"foil_b"`
	Operational float64 `json:"operational"`
	TotalA      float64 `json:"total_a"`
	TotalB      float64 `json:"total_b"`
}

// CostSummary is the single output record produced by the Costing Facade,
// per spec.md §6.
type CostSummary struct {
	RunID            string                      `json:"run_id"`
	AllocationModel  AllocationModel             `json:"allocation_model"`
	BufferFactor     float64                     `json:"buffer_factor"`
	MachineProfileID string                      `json:"machine_profile_id"`
	VariantA         VariantA                    `json:"variant_a"`
	VariantB         VariantB                    `json:"variant_b"`
	PerPart          map[string]PartAttribution  `json:"per_part"`
	Warnings         []Warning                   `json:"warnings,omitempty"`
}
