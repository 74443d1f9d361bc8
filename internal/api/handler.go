// Package api exposes the gems engine as a JSON HTTP API under /api/v1.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/harvard-gems/internal/catalog"
	"github.com/garyellow/harvard-gems/internal/ctxutil"
	domerrors "github.com/garyellow/harvard-gems/internal/errors"
	"github.com/garyellow/harvard-gems/internal/evaluation"
	"github.com/garyellow/harvard-gems/internal/gems"
	"github.com/garyellow/harvard-gems/internal/logger"
	"github.com/garyellow/harvard-gems/internal/metrics"
	"github.com/garyellow/harvard-gems/internal/sentry"
)

// DefaultMaxResults caps list responses when no limit is configured.
const DefaultMaxResults = 50

// Service is the engine surface the handlers call.
type Service interface {
	FindGems(ctx context.Context, q gems.Query) (*gems.Result, error)
	QueryEvaluations(f evaluation.Filters) ([]evaluation.Record, error)
	GetAllAvailableCourses(f gems.CourseFilters) []catalog.Entry
	CourseExists(id string) bool
	GetCourseDetails(id string) (catalog.Entry, bool)
	SearchCourses(query string, limit int) []catalog.Entry
}

// Handler serves the /api/v1 routes.
type Handler struct {
	svc        Service
	maxResults int
	log        *logger.Logger
	metrics    *metrics.Metrics
}

// NewHandler creates a Handler. maxResults <= 0 uses DefaultMaxResults.
func NewHandler(svc Service, maxResults int, log *logger.Logger, m *metrics.Metrics) *Handler {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{
		svc:        svc,
		maxResults: maxResults,
		log:        log.WithModule("api"),
		metrics:    m,
	}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r gin.IRouter, middleware ...gin.HandlerFunc) {
	v1 := r.Group("/api/v1", middleware...)
	v1.POST("/gems", withOperation("find_gems", h.findGems))
	v1.GET("/courses", withOperation("list_courses", h.listCourses))
	v1.GET("/courses/search", withOperation("search_courses", h.searchCourses))
	v1.GET("/courses/:id", withOperation("course_details", h.courseDetails))
	v1.GET("/courses/:id/exists", withOperation("course_exists", h.courseExists))
	v1.GET("/evaluations", withOperation("query_evaluations", h.queryEvaluations))
}

// withOperation tags the request context so log records carry the operation.
func withOperation(op string, next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxutil.WithOperation(c.Request.Context(), op))
		next(c)
	}
}

// GemsResponse is the POST /api/v1/gems body.
type GemsResponse struct {
	Courses  []gems.RankedCourse `json:"courses"`
	Fallback bool                `json:"fallback"`
	Count    int                 `json:"count"`
	Matched  int                 `json:"matched"`
}

// CoursesResponse wraps catalog listings.
type CoursesResponse struct {
	Courses   []catalog.Entry `json:"courses"`
	Count     int             `json:"count"`
	Total     int             `json:"total"`
	Truncated bool            `json:"truncated,omitempty"`
}

// EvaluationsResponse wraps evaluation query results.
type EvaluationsResponse struct {
	Evaluations []evaluation.Record `json:"evaluations"`
	Count       int                 `json:"count"`
	Total       int                 `json:"total"`
	Truncated   bool                `json:"truncated,omitempty"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (h *Handler) findGems(c *gin.Context) {
	var q gems.Query
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&q); err != nil {
			h.writeError(c, "find_gems", domerrors.NewValidationError("body", "must be a JSON query object"))
			return
		}
	}
	if q.Limit <= 0 || q.Limit > h.maxResults {
		q.Limit = h.maxResults
	}

	result, err := h.svc.FindGems(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, "find_gems", err)
		return
	}

	c.JSON(http.StatusOK, GemsResponse{
		Courses:  nonNil(result.Courses),
		Fallback: result.Fallback,
		Count:    len(result.Courses),
		Matched:  result.Matched,
	})
}

func (h *Handler) listCourses(c *gin.Context) {
	var f gems.CourseFilters
	if err := c.ShouldBindQuery(&f); err != nil {
		h.writeError(c, "list_courses", domerrors.NewValidationError("query", "malformed query string"))
		return
	}
	courses := h.svc.GetAllAvailableCourses(f)
	page, truncated := capSlice(courses, h.maxResults)
	c.JSON(http.StatusOK, CoursesResponse{Courses: page, Count: len(page), Total: len(courses), Truncated: truncated})
}

func (h *Handler) searchCourses(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		h.writeError(c, "search", domerrors.NewValidationError("q", "is required"))
		return
	}
	limit, err := intParam(c, "limit")
	if err != nil {
		h.writeError(c, "search", err)
		return
	}
	if limit <= 0 || limit > h.maxResults {
		limit = h.maxResults
	}

	courses := nonNil(h.svc.SearchCourses(q, limit))
	c.JSON(http.StatusOK, CoursesResponse{Courses: courses, Count: len(courses), Total: len(courses)})
}

func (h *Handler) courseDetails(c *gin.Context) {
	id := c.Param("id")
	entry, ok := h.svc.GetCourseDetails(id)
	if !ok {
		h.writeError(c, "course_details", domerrors.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) courseExists(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"exists": h.svc.CourseExists(c.Param("id"))})
}

func (h *Handler) queryEvaluations(c *gin.Context) {
	f := evaluation.Filters{
		Department: c.Query("department"),
		Keyword:    c.Query("keyword"),
	}
	var err error
	if f.MinRating, err = floatParam(c, "minRating"); err != nil {
		h.writeError(c, "evaluations", err)
		return
	}
	if f.MaxWorkload, err = floatParam(c, "maxWorkload"); err != nil {
		h.writeError(c, "evaluations", err)
		return
	}
	if f.MinGemProbability, err = floatParam(c, "minGemProbability"); err != nil {
		h.writeError(c, "evaluations", err)
		return
	}

	records, err := h.svc.QueryEvaluations(f)
	if err != nil {
		h.writeError(c, "evaluations", err)
		return
	}
	page, truncated := capSlice(records, h.maxResults)
	c.JSON(http.StatusOK, EvaluationsResponse{Evaluations: page, Count: len(page), Total: len(records), Truncated: truncated})
}

// writeError maps err to a status code and JSON body.
func (h *Handler) writeError(c *gin.Context, route string, err error) {
	status := http.StatusInternalServerError
	body := ErrorResponse{Error: "internal error"}
	errType := "internal"

	var verr *domerrors.ValidationError
	switch {
	case errors.As(err, &verr):
		status, errType = http.StatusBadRequest, "validation"
		body = ErrorResponse{Error: verr.Message, Field: verr.Field}
	case domerrors.IsInvalidInput(err):
		status, errType = http.StatusBadRequest, "validation"
		body.Error = domerrors.UserMessage(err)
	case domerrors.IsNotFound(err):
		status, errType = http.StatusNotFound, "not_found"
		body.Error = domerrors.UserMessage(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, errType = http.StatusServiceUnavailable, "canceled"
		body.Error = domerrors.UserMessage(err)
	default:
		h.log.WithError(err).WithField("route", route).ErrorContext(c.Request.Context(), "API request failed")
		sentry.CaptureExceptionWithContext(c.Request.Context(), err)
	}

	if h.metrics != nil {
		h.metrics.RecordHTTPError(errType, route)
	}
	c.AbortWithStatusJSON(status, body)
}

func floatParam(c *gin.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, domerrors.NewValidationError(name, "must be a number")
	}
	return &v, nil
}

func intParam(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domerrors.NewValidationError(name, "must be an integer")
	}
	return v, nil
}

func capSlice[T any](items []T, limit int) ([]T, bool) {
	items = nonNil(items)
	if len(items) > limit {
		return items[:limit], true
	}
	return items, false
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
