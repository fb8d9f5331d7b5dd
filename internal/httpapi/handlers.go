package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/arturave/lasercost/internal/facade"
	"github.com/arturave/lasercost/internal/geometry"
	"github.com/arturave/lasercost/internal/models"
)

// MachineProfileStore looks up a configured MachineProfile by id. Profile
// storage is ambient configuration, grounded on the teacher's pattern of
// injecting a storage interface into handlers rather than hardcoding
// lookups.
type MachineProfileStore interface {
	Get(machineProfileID string) (models.MachineProfile, bool)
}

// CostHandler exposes the Costing Facade (component I) over REST.
type CostHandler struct {
	facade   *facade.Facade
	profiles MachineProfileStore
	logger   *slog.Logger
}

// NewCostHandler builds a CostHandler.
func NewCostHandler(f *facade.Facade, profiles MachineProfileStore, logger *slog.Logger) *CostHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CostHandler{facade: f, profiles: profiles, logger: logger}
}

// costRequest is the wire body of POST /api/v1/cost. Drawings is optional:
// any part whose ToolpathStats is absent from NestingResult is extracted
// from the matching drawing here (keyed by drawing id) instead of failing
// with StatsMissing.
type costRequest struct {
	NestingResult models.NestingResult        `json:"nesting_result"`
	RateBook      models.RateBook             `json:"rate_book"`
	JobOverrides  models.JobOverrides         `json:"job_overrides"`
	Drawings      map[string]geometry.Drawing `json:"drawings,omitempty"`
}

// ComputeCost handles POST /api/v1/cost.
func (h *CostHandler) ComputeCost(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("handling compute cost request")

	var req costRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleError(w, models.NewValidationError("invalid JSON in request body"))
		return
	}

	profile, ok := h.profiles.Get(req.NestingResult.MachineProfileID)
	if !ok {
		h.handleError(w, models.NewValidationError("unknown machine_profile_id: "+req.NestingResult.MachineProfileID))
		return
	}

	f := h.facade
	if len(req.Drawings) > 0 {
		f = f.WithDrawingSource(facade.MapDrawingSource(req.Drawings))
	}

	summary, err := f.ComputeCost(req.NestingResult, profile, req.RateBook, req.JobOverrides)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, summary)
}

// GetMachineProfile handles GET /api/v1/machine-profiles/{id}.
func (h *CostHandler) GetMachineProfile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	profile, ok := h.profiles.Get(id)
	if !ok {
		h.handleError(w, models.NewValidationError("unknown machine_profile_id: "+id))
		return
	}
	h.writeJSONResponse(w, http.StatusOK, profile)
}

// Health handles GET /api/v1/health.
func (h *CostHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *CostHandler) handleError(w http.ResponseWriter, err error) {
	statusCode := models.GetHTTPStatusCode(err)
	errorResponse := models.NewErrorResponse(err)

	h.logger.Error("HTTP request failed", "error", err.Error(), "status", statusCode)

	h.writeJSONResponse(w, statusCode, errorResponse)
}

func (h *CostHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}
