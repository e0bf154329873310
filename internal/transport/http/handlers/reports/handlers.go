package reportshandler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"attendease/internal/domain/auth"
	"attendease/internal/domain/directory"
	"attendease/internal/domain/reports"
	"attendease/internal/platform/jobs"
	"attendease/internal/transport/http/api"
	"attendease/internal/transport/http/middleware"
	"attendease/internal/transport/http/shared"
)

type Handler struct {
	Reports    *reports.Service
	Attendance reports.AttendanceSource
	Jobs       *jobs.Service
}

func NewHandler(service *reports.Service, att reports.AttendanceSource, jobsService *jobs.Service) *Handler {
	return &Handler{Reports: service, Attendance: att, Jobs: jobsService}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/dashboard", h.handleDashboard)
		r.Get("/employees/{employeeID}/pdf", h.handleEmployeePDF)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Get("/export/xlsx", h.handleExportXLSX)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Get("/jobs", h.handleJobRuns)
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Reports.Dashboard(r.Context(), time.Now())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEmployeePDF(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	// Employees can pull their own report; anything else needs admin.
	user, _ := middleware.GetUser(r.Context())
	if user.Role != auth.RoleAdmin && user.EmployeeID != employeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	from, to, ok := parseWindow(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+employeeID+"-attendance.pdf\"")
	if err := h.Reports.EmployeePDF(r.Context(), w, employeeID, from, to); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "pdf_failed", "failed to render report", middleware.GetRequestID(r.Context()))
		return
	}
}

func (h *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseWindow(w, r)
	if !ok {
		return
	}
	result, err := h.Attendance.Report(r.Context(), from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to derive records", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=\"attendance.xlsx\"")
	if err := reports.WriteXLSX(w, result.Records); err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to render workbook", middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) handleJobRuns(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	runs, err := h.Jobs.ListRuns(r.Context(), r.URL.Query().Get("jobType"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "jobs_failed", "failed to list job runs", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}

func parseWindow(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	v := shared.NewValidator()
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := now

	if raw := r.URL.Query().Get("from"); raw != "" {
		if parsed, ok := v.Date("from", raw); ok {
			from = parsed
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if parsed, ok := v.Date("to", raw); ok {
			to = parsed.AddDate(0, 0, 1)
		}
	}
	v.DateOrder("from", from, "to", to)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
