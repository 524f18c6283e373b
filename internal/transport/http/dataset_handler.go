package http

import (
	"log/slog"
	"math"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "olistcli/internal/errors"
	appmw "olistcli/internal/middleware"
	"olistcli/internal/services"
)

// datasetNamePattern matches dataset file stems
var datasetNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// DatasetHandler serves the master datasets, the run overview and the
// latest run manifest
type DatasetHandler struct {
	service      DatasetServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	query        *appmw.QueryParamValidator
}

// NewDatasetHandler creates a new dataset handler with RFC 7807 error handling
func NewDatasetHandler(service DatasetServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
		query:        appmw.NewQueryParamValidator(logger, errorHandler),
	}
}

// Routes returns the dataset routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.ListDatasets)
	r.With(h.DatasetCtx).Get("/{name}", h.GetDataset)

	return r
}

// DatasetCtx rejects malformed dataset names before they reach the service
func (h *DatasetHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if !datasetNamePattern.MatchString(name) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("name", "dataset name must be lower case letters, digits and underscores"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListDatasets handles GET /api/v1/datasets
func (h *DatasetHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	datasets, err := h.service.List(ctx)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	available := 0
	for _, d := range datasets {
		if d.Available {
			available++
		}
	}

	render.JSON(w, r, map[string]any{
		"status":    "success",
		"data":      datasets,
		"count":     len(datasets),
		"available": available,
	})
}

// GetDataset handles GET /api/v1/datasets/{name}?limit=&offset=
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	limit, ok := h.query.ValidateInt(w, r, "limit", 1, services.MaxPageLimit, services.DefaultPageLimit)
	if !ok {
		return
	}
	offset, ok := h.query.ValidateInt(w, r, "offset", 0, math.MaxInt32, 0)
	if !ok {
		return
	}

	h.logger.DebugContext(ctx, "fetching dataset page",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("dataset", name),
		slog.Int("limit", limit),
		slog.Int("offset", offset),
	)

	page, err := h.service.Page(ctx, name, limit, offset)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   page,
		"count":  len(page.Rows),
	})
}

// GetOverview handles GET /api/v1/overview
func (h *DatasetHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.service.Overview(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   ov,
	})
}

// GetLatestRun handles GET /api/v1/runs/latest
func (h *DatasetHandler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.LatestRun(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   run,
	})
}
