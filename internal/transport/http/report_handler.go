package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "papertrack/internal/errors"
	"papertrack/internal/exporter"
	"papertrack/internal/middleware"
	"papertrack/internal/services"
	"papertrack/pkg/contracts/domain"
)

// Query parameters accepted by the filtered endpoints. source and status may
// repeat. An absent parameter selects every value; a present but empty one
// selects none.
const (
	paramSource = "source"
	paramStatus = "status"
	paramAuthor = "author"
	paramTitle  = "title"
	paramSort   = "sort"
	paramLimit  = "limit"
)

const maxAuthorLimit = 10000

// ListResponse wraps collection responses
type ListResponse[T any] struct {
	Status        string `json:"status"`
	Data          []T    `json:"data"`
	Count         int    `json:"count"`
	SourceMissing bool   `json:"source_missing"`
}

// SummaryResponse wraps a summary with the top authors
type SummaryResponse struct {
	Status        string              `json:"status"`
	Data          domain.Summary      `json:"data"`
	TopAuthors    []domain.AuthorStat `json:"top_authors"`
	SourceMissing bool                `json:"source_missing"`
}

// ReportHandler serves the paper reports
type ReportHandler struct {
	service      ReportServiceInterface
	exporter     *exporter.ReportExporter
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a report handler with RFC 7807 error handling
func NewReportHandler(service ReportServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:      service,
		exporter:     exporter.NewReportExporter(logger),
		validator:    middleware.NewValidator(logger),
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the report routes. Mutating routes are audit logged.
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/status", h.GetStatus)
		r.Get("/papers", h.GetPapers)
		r.Post("/papers/query", h.QueryPapers)
		r.Get("/summary", h.GetSummary)
		r.Get("/authors", h.GetAuthors)
		r.Get("/facets", h.GetFacets)
		r.Get("/clients", h.GetClients)
		r.Get("/pricing", h.GetPricing)

		r.Get("/snapshots", h.ListSnapshots)
		r.Get("/snapshots/{snapshotID}/papers", h.GetSnapshotPapers)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuditLog(h.logger))
			r.Post("/refresh", h.Refresh)
			r.Post("/snapshots", h.ArchiveSnapshot)
		})
	})

	r.Get("/export/papers.csv", h.ExportPapers)
	r.Get("/export/authors.csv", h.ExportAuthors)

	return r
}

// filterFromQuery builds the paper filter from query parameters. It returns
// nil, meaning all papers, when no filter parameter is present.
func (h *ReportHandler) filterFromQuery(r *http.Request) (*domain.Filter, error) {
	q := r.URL.Query()
	sources, hasSource := q[paramSource]
	statuses, hasStatus := q[paramStatus]
	author := q.Get(paramAuthor)
	title := q.Get(paramTitle)

	if !hasSource && !hasStatus && author == "" && title == "" {
		return nil, nil
	}

	filter := &domain.Filter{
		Sources:     nonEmpty(sources),
		Statuses:    nonEmpty(statuses),
		AuthorQuery: author,
		TitleQuery:  title,
	}

	if !hasSource || !hasStatus {
		facets, err := h.service.Facets(r.Context())
		if err != nil {
			return nil, err
		}
		if !hasSource {
			filter.Sources = facets.Sources
		}
		if !hasStatus {
			filter.Statuses = facets.Statuses
		}
	}

	if err := h.validator.ValidateStruct(filter); err != nil {
		return nil, err
	}
	return filter, nil
}

// nonEmpty drops blank values so "?source=" yields the empty set
func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// GetStatus handles GET /api/status
func (h *ReportHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	render.JSON(w, r, status)
}

// GetPapers handles GET /api/papers
func (h *ReportHandler) GetPapers(w http.ResponseWriter, r *http.Request) {
	filter, err := h.filterFromQuery(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.respondPapers(w, r, filter)
}

// QueryPapers handles POST /api/papers/query with a JSON filter body. Unlike
// the query string form, omitted sources or statuses select nothing.
func (h *ReportHandler) QueryPapers(w http.ResponseWriter, r *http.Request) {
	var filter domain.Filter
	if err := h.validator.DecodeJSON(r, &filter); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.respondPapers(w, r, &filter)
}

func (h *ReportHandler) respondPapers(w http.ResponseWriter, r *http.Request, filter *domain.Filter) {
	papers, err := h.service.Papers(r.Context(), filter)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.JSON(w, r, ListResponse[domain.Paper]{
		Status:        "success",
		Data:          papers,
		Count:         len(papers),
		SourceMissing: h.sourceMissing(r),
	})
}

// GetSummary handles GET /api/summary
func (h *ReportHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := h.filterFromQuery(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	limit, err := middleware.QueryInt(r, paramLimit, 0, maxAuthorLimit, 10)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	summary, err := h.service.Summary(r.Context(), filter)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	top, err := h.service.Authors(r.Context(), filter, domain.AuthorSortPapers, limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.JSON(w, r, SummaryResponse{
		Status:        "success",
		Data:          summary,
		TopAuthors:    top,
		SourceMissing: h.sourceMissing(r),
	})
}

// GetAuthors handles GET /api/authors?sort=papers|amount&limit=N
func (h *ReportHandler) GetAuthors(w http.ResponseWriter, r *http.Request) {
	filter, sortBy, limit, err := h.authorParams(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	authors, err := h.service.Authors(r.Context(), filter, sortBy, limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.JSON(w, r, ListResponse[domain.AuthorStat]{
		Status:        "success",
		Data:          authors,
		Count:         len(authors),
		SourceMissing: h.sourceMissing(r),
	})
}

func (h *ReportHandler) authorParams(r *http.Request) (*domain.Filter, domain.AuthorSort, int, error) {
	filter, err := h.filterFromQuery(r)
	if err != nil {
		return nil, "", 0, err
	}
	sortBy, err := middleware.QueryEnum(r, paramSort,
		[]string{string(domain.AuthorSortPapers), string(domain.AuthorSortAmount)},
		string(domain.AuthorSortPapers))
	if err != nil {
		return nil, "", 0, err
	}
	limit, err := middleware.QueryInt(r, paramLimit, 0, maxAuthorLimit, 0)
	if err != nil {
		return nil, "", 0, err
	}
	return filter, domain.AuthorSort(sortBy), limit, nil
}

// GetFacets handles GET /api/facets
func (h *ReportHandler) GetFacets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.service.Facets(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	render.JSON(w, r, facets)
}

// GetClients handles GET /api/clients
func (h *ReportHandler) GetClients(w http.ResponseWriter, r *http.Request) {
	roster, err := h.service.Roster(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	render.JSON(w, r, roster)
}

// GetPricing handles GET /api/pricing
func (h *ReportHandler) GetPricing(w http.ResponseWriter, r *http.Request) {
	pricing, err := h.service.Pricing(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	render.JSON(w, r, pricing)
}

// Refresh handles POST /api/refresh
func (h *ReportHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Refresh(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	render.JSON(w, r, status)
}

// ArchiveSnapshot handles POST /api/snapshots. It answers 201 for a new
// archive entry and 200 when the snapshot was already archived.
func (h *ReportHandler) ArchiveSnapshot(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ArchiveSnapshot(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if result.Created {
		render.Status(r, http.StatusCreated)
	}
	render.JSON(w, r, result)
}

// ListSnapshots handles GET /api/snapshots
func (h *ReportHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	infos, err := h.service.ArchivedSnapshots(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	render.JSON(w, r, ListResponse[domain.SnapshotInfo]{
		Status: "success",
		Data:   infos,
		Count:  len(infos),
	})
}

// GetSnapshotPapers handles GET /api/snapshots/{snapshotID}/papers
func (h *ReportHandler) GetSnapshotPapers(w http.ResponseWriter, r *http.Request) {
	papers, err := h.service.ArchivedPapers(r.Context(), chi.URLParam(r, "snapshotID"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	render.JSON(w, r, ListResponse[domain.Paper]{
		Status: "success",
		Data:   papers,
		Count:  len(papers),
	})
}

// ExportPapers handles GET /api/export/papers.csv
func (h *ReportHandler) ExportPapers(w http.ResponseWriter, r *http.Request) {
	filter, err := h.filterFromQuery(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	papers, err := h.service.Papers(r.Context(), filter)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	setCSVHeaders(w, exporter.PapersFile)
	if err := h.exporter.WritePapers(w, papers); err != nil {
		// headers are gone; all that is left is to log
		h.logger.ErrorContext(r.Context(), "paper export failed", slog.String("error", err.Error()))
	}
}

// ExportAuthors handles GET /api/export/authors.csv
func (h *ReportHandler) ExportAuthors(w http.ResponseWriter, r *http.Request) {
	filter, sortBy, limit, err := h.authorParams(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	authors, err := h.service.Authors(r.Context(), filter, sortBy, limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	setCSVHeaders(w, exporter.AuthorsFile)
	if err := h.exporter.WriteAuthors(w, authors); err != nil {
		h.logger.ErrorContext(r.Context(), "author export failed", slog.String("error", err.Error()))
	}
}

func setCSVHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
}

// sourceMissing reports whether the workbook file is absent. Lookup failures
// are reported by the data call itself, so they read as false here.
func (h *ReportHandler) sourceMissing(r *http.Request) bool {
	status, err := h.service.Status(r.Context())
	return err == nil && status.SourceMissing
}

// handleError maps service errors to API errors
func (h *ReportHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrArchiveDisabled):
		err = apierrors.New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", err.Error())
	case errors.Is(err, services.ErrNoDataSource):
		err = apierrors.New(http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, services.ErrInvalidSort):
		err = apierrors.InvalidParameter(paramSort, r.URL.Query().Get(paramSort))
	}
	h.errorHandler.HandleError(w, r, err)
}
