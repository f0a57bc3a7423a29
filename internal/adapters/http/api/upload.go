package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/gwrank/internal/app"
)

// UploadDependencies defines the interface for batch ingestion.
type UploadDependencies interface {
	Ingest(ctx context.Context, text string) (service.IngestResult, error)
	IngestAt(ctx context.Context, num int, text string) (service.IngestResult, error)
}

// UploadHandler handles batch uploads.
type UploadHandler struct {
	deps     UploadDependencies
	maxBytes int64
	failer
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(deps UploadDependencies, f failer, maxBytes int64) *UploadHandler {
	return &UploadHandler{deps: deps, failer: f, maxBytes: maxBytes}
}

// uploadRequest mirrors the OpenAPI schema for POST /upload.
type uploadRequest struct {
	Data *string `json:"data"`
}

var errMissingData = errors.New("missing upload data")

// HandlePostUpload handles POST /upload requests; the batch becomes the next event.
func (h *UploadHandler) HandlePostUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_upload"
	text, ok := h.decode(w, r, op)
	if !ok {
		return
	}
	res, err := h.deps.Ingest(r.Context(), text)
	h.respond(w, r, op, res, err)
}

// HandlePutUpload handles PUT /upload/{num} requests, replacing rows of an
// existing event or creating the next one.
func (h *UploadHandler) HandlePutUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_upload"
	num, err := eventNum(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	text, ok := h.decode(w, r, op)
	if !ok {
		return
	}
	res, err := h.deps.IngestAt(r.Context(), num, text)
	h.respond(w, r, op, res, err)
}

func (h *UploadHandler) decode(w http.ResponseWriter, r *http.Request, op string) (string, bool) {
	var req uploadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", NewKind(op, ErrTooLarge))
			return "", false
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return "", false
	}
	if req.Data == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errMissingData))
		return "", false
	}
	return *req.Data, true
}

func (h *UploadHandler) respond(w http.ResponseWriter, r *http.Request, op string, res service.IngestResult, err error) {
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		Status:   "ok",
		BatchID:  res.BatchID,
		EventNum: res.EventNum,
		Rows:     res.Rows,
		Snapshot: res.Snapshot,
	})
}
