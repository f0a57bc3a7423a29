package api

import (
	"context"
	"net/http"

	"github.com/okian/gwrank/internal/domain/model"
)

// RangeDependencies defines the interface for event range lookups.
type RangeDependencies interface {
	GetEventRange(ctx context.Context) (model.EventRange, error)
}

// RangeHandler handles range requests.
type RangeHandler struct {
	deps RangeDependencies
	failer
}

// NewRangeHandler creates a new range handler.
func NewRangeHandler(deps RangeDependencies, f failer) *RangeHandler {
	return &RangeHandler{deps: deps, failer: f}
}

// HandleGetRange handles GET /range requests.
func (h *RangeHandler) HandleGetRange(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_range"
	rng, err := h.deps.GetEventRange(r.Context())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rangeResponse{Min: rng.Min, Max: rng.Max})
}
