package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/okian/gwrank/internal/domain/model"
)

// InfoDependencies defines the interface for guild history lookups.
type InfoDependencies interface {
	FindByID(ctx context.Context, guildID int64) ([]model.Entry, error)
}

// InfoHandler handles guild history requests.
type InfoHandler struct {
	deps InfoDependencies
	failer
}

// NewInfoHandler creates a new info handler.
func NewInfoHandler(deps InfoDependencies, f failer) *InfoHandler {
	return &InfoHandler{deps: deps, failer: f}
}

// HandleGetInfo handles GET /info/{id} requests.
func (h *InfoHandler) HandleGetInfo(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_info"
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rows, err := h.deps.FindByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toGuild(id, rows))
}
