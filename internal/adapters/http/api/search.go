package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/gwrank/internal/domain/model"
)

const maxSearchBody = 64 << 10

// SearchDependencies defines the interface for name searches.
type SearchDependencies interface {
	Search(ctx context.Context, term string) ([]model.Group, error)
}

// SearchHandler handles search requests.
type SearchHandler struct {
	deps SearchDependencies
	failer
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(deps SearchDependencies, f failer) *SearchHandler {
	return &SearchHandler{deps: deps, failer: f}
}

// searchRequest mirrors the OpenAPI schema for POST /search.
type searchRequest struct {
	Search *string `json:"search"`
}

var errMissingSearch = errors.New("missing search key")

// HandlePostSearch handles POST /search requests with a {"search": term} body.
func (h *SearchHandler) HandlePostSearch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_search"
	var req searchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSearchBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Search == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errMissingSearch))
		return
	}
	h.search(w, r, op, *req.Search)
}

// HandleGetSearch handles GET /search?q=term requests.
func (h *SearchHandler) HandleGetSearch(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_search"
	q := r.URL.Query()
	if !q.Has("q") {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errMissingSearch))
		return
	}
	h.search(w, r, op, q.Get("q"))
}

func (h *SearchHandler) search(w http.ResponseWriter, r *http.Request, op, term string) {
	groups, err := h.deps.Search(r.Context(), term)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	resp := searchResponse{Result: make([]guildJSON, 0, len(groups))}
	for _, g := range groups {
		resp.Result = append(resp.Result, toGuild(g.GuildID, g.Entries))
	}
	writeJSON(w, http.StatusOK, resp)
}
