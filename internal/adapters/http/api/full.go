package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/okian/gwrank/internal/domain/model"
)

// FullDependencies defines the interface for whole-event reads.
type FullDependencies interface {
	GetEvent(ctx context.Context, num int) (model.EventBoard, error)
	ExportEvent(ctx context.Context, num int) ([]byte, error)
}

// FullHandler handles event leaderboard requests.
type FullHandler struct {
	deps FullDependencies
	failer
}

// NewFullHandler creates a new full leaderboard handler.
func NewFullHandler(deps FullDependencies, f failer) *FullHandler {
	return &FullHandler{deps: deps, failer: f}
}

// HandleGetFull handles GET /full/{num} requests.
func (h *FullHandler) HandleGetFull(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_full"
	num, err := eventNum(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	board, err := h.deps.GetEvent(r.Context(), num)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fullResponse{
		Num: board.Num,
		Data: boardJSON{
			Seed:    toBoardEntries(board.Seed),
			Regular: toBoardEntries(board.Regular),
		},
	})
}

// HandleGetCSV handles GET /full/{num}.csv requests. The body can be
// uploaded again unchanged.
func (h *FullHandler) HandleGetCSV(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_full_csv"
	num, err := eventNum(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	out, err := h.deps.ExportEvent(r.Context(), num)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("gw-%d.csv", num)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func eventNum(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["num"])
}
