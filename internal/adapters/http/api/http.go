// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	service "github.com/okian/gwrank/internal/app"
	"github.com/okian/gwrank/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RangeDependencies
	SearchDependencies
	InfoDependencies
	FullDependencies
	UploadDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	rangeHandler     *RangeHandler
	searchHandler    *SearchHandler
	infoHandler      *InfoHandler
	fullHandler      *FullHandler
	uploadHandler    *UploadHandler
	dashboardHandler *dashboardHandler
}

// Option configures the Server.
type Option func(*serverOptions)

type serverOptions struct {
	maxUploadBytes int64
	logger         logger.Logger
}

// WithMaxUploadBytes caps upload request bodies.
func WithMaxUploadBytes(n int64) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxUploadBytes = n
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := serverOptions{maxUploadBytes: 8 << 20}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("api")
	}

	f := failer{logger: o.logger}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		rangeHandler:     NewRangeHandler(deps, f),
		searchHandler:    NewSearchHandler(deps, f),
		infoHandler:      NewInfoHandler(deps, f),
		fullHandler:      NewFullHandler(deps, f),
		uploadHandler:    NewUploadHandler(deps, f, o.maxUploadBytes),
		dashboardHandler: newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r *mux.Router) {
	if r == nil {
		panic("router is nil")
	}

	r.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")).Methods(http.MethodGet)
	r.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard).Methods(http.MethodGet)
	r.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats")).Methods(http.MethodGet)

	r.HandleFunc("/range", MetricsMiddleware(s.rangeHandler.HandleGetRange, "range")).Methods(http.MethodGet)
	r.HandleFunc("/search", MetricsMiddleware(s.searchHandler.HandlePostSearch, "search")).Methods(http.MethodPost)
	r.HandleFunc("/search", MetricsMiddleware(s.searchHandler.HandleGetSearch, "search")).Methods(http.MethodGet)
	r.HandleFunc("/info/{id:[0-9]+}", MetricsMiddleware(s.infoHandler.HandleGetInfo, "info")).Methods(http.MethodGet)
	r.HandleFunc("/full/{num:[0-9]+}.csv", MetricsMiddleware(s.fullHandler.HandleGetCSV, "full_csv")).Methods(http.MethodGet)
	r.HandleFunc("/full/{num:[0-9]+}", MetricsMiddleware(s.fullHandler.HandleGetFull, "full")).Methods(http.MethodGet)
	r.HandleFunc("/upload", MetricsMiddleware(s.uploadHandler.HandlePostUpload, "upload")).Methods(http.MethodPost)
	r.HandleFunc("/upload/{num:[0-9]+}", MetricsMiddleware(s.uploadHandler.HandlePutUpload, "upload")).Methods(http.MethodPut)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the kind of err as the message and its cause as detail.
// Server errors never expose the cause.
func writeError(w http.ResponseWriter, status int, code string, err error) {
	resp := errorResponse{Code: code, Message: http.StatusText(status)}
	var ke *kindError
	if errors.As(err, &ke) {
		resp.Message = ke.kind.Error()
		if ke.err != nil && status < http.StatusInternalServerError {
			resp.Detail = ke.err.Error()
		}
	} else if err != nil && status < http.StatusInternalServerError {
		resp.Message = err.Error()
	}
	writeJSON(w, status, resp)
}

// failer translates service errors into responses.
type failer struct {
	logger logger.Logger
}

func (f failer) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrBadFormat):
		writeError(w, http.StatusBadRequest, "bad_format", WrapKind(op, ErrBadFormat, err))
	case errors.Is(err, service.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrNoData):
		writeError(w, http.StatusNotFound, "no_data", WrapKind(op, ErrNotFound, err))
	default:
		f.logger.Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("path", r.URL.Path),
			logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
