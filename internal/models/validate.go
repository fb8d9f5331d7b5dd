package models

import "fmt"

// Validate checks the structural invariants a NestingResult must satisfy
// before the Costing Facade will process it (spec.md §6: "the engine
// re-validates invariants but does not recompute areas from geometry").
func (n NestingResult) Validate() error {
	if n.SourceID == "" {
		return NewValidationError("source_id is required")
	}
	if n.MachineProfileID == "" {
		return NewValidationError("machine_profile_id is required")
	}
	if len(n.Sheets) == 0 {
		return NewValidationError("nesting result must contain at least one sheet")
	}
	for _, sheet := range n.Sheets {
		if err := sheet.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks one Sheet's required fields and non-negativity.
func (s Sheet) Validate() error {
	if s.SheetID == "" {
		return NewValidationError("sheet_id is required")
	}
	if s.SheetMode != FixedSheet && s.SheetMode != CutToLength {
		return NewValidationError(fmt.Sprintf("sheet %s: invalid sheet_mode %q", s.SheetID, s.SheetMode))
	}
	if s.MaterialID == "" {
		return NewValidationError(fmt.Sprintf("sheet %s: material_id is required", s.SheetID))
	}
	if s.SheetWidthMM <= 0 || s.SheetLengthNominalMM <= 0 {
		return NewValidationError(fmt.Sprintf("sheet %s: sheet dimensions must be positive", s.SheetID))
	}
	if s.OccupiedAreaMM2 < 0 {
		return NewValidationError(fmt.Sprintf("sheet %s: occupied_area_mm2 must not be negative", s.SheetID))
	}
	if len(s.Parts) == 0 {
		return NewValidationError(fmt.Sprintf("sheet %s: must contain at least one part", s.SheetID))
	}
	for _, part := range s.Parts {
		if part.PartInstanceID == "" {
			return NewValidationError(fmt.Sprintf("sheet %s: part_instance_id is required", s.SheetID))
		}
		if part.OccupiedAreaMM2 < 0 {
			return NewValidationError(fmt.Sprintf("sheet %s part %s: occupied_area_mm2 must not be negative", s.SheetID, part.PartInstanceID))
		}
	}
	return nil
}

// WithDefaults returns a copy of o with spec.md §3 default values applied to
// zero-valued optional fields.
func (o JobOverrides) WithDefaults() JobOverrides {
	if o.OperationalCostPerSheetPLN == 0 {
		o.OperationalCostPerSheetPLN = 40
	}
	if o.AllocationModel == "" {
		o.AllocationModel = OccupiedArea
	}
	if o.BufferFactor == 0 {
		o.BufferFactor = 1.25
	}
	return o
}
