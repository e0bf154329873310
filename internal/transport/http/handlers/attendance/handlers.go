package attendancehandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"attendease/internal/domain/attendance"
	"attendease/internal/domain/auth"
	"attendease/internal/platform/metrics"
	"attendease/internal/platform/qr"
	"attendease/internal/transport/http/api"
	"attendease/internal/transport/http/middleware"
	"attendease/internal/transport/http/shared"
)

// Service is the slice of attendance.Service the handler uses, faked in
// tests.
type Service interface {
	RecordScan(ctx context.Context, employeeID, location string, now time.Time) (attendance.ScanResult, error)
	Report(ctx context.Context, from, to time.Time) (attendance.Result, error)
	RefreshRecords(ctx context.Context, from, to time.Time) (int, error)
	RecentActivity(ctx context.Context, limit int) ([]attendance.ScanEvent, error)
	ExportBackup(ctx context.Context, now time.Time) ([]byte, error)
	RestoreBackup(ctx context.Context, data []byte) (int, int, error)
}

type Handler struct {
	Service     Service
	Idempotency *middleware.IdempotencyStore
	Metrics     *metrics.Collector
}

func NewHandler(service Service, idem *middleware.IdempotencyStore, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Idempotency: idem, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Post("/scan", h.handleScan)
		r.With(middleware.RequireAuth).Get("/records", h.handleRecords)
		r.With(middleware.RequireAuth).Get("/stats", h.handleStats)
		r.With(middleware.RequireAuth).Get("/recent", h.handleRecent)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/refresh", h.handleRefresh)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Get("/export/csv", h.handleExportCSV)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Get("/backup", h.handleBackup)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/restore", h.handleRestore)
	})
}

type scanRequest struct {
	QRData     string `json:"qrData"`
	EmployeeID string `json:"employeeId"`
	Location   string `json:"location"`
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	idemKey := r.Header.Get("Idempotency-Key")
	requestHash := middleware.RequestHash(raw)
	if idemKey != "" {
		stored, found, err := h.Idempotency.Check(r.Context(), "/attendance/scan", idemKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with different payload", middleware.GetRequestID(r.Context()))
			return
		}
		if err != nil {
			slog.Warn("idempotency check failed", "err", err)
		}
		if found {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(stored)
			return
		}
	}

	var payload scanRequest
	if err := json.Unmarshal(raw, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID := payload.EmployeeID
	location := payload.Location
	if payload.QRData != "" {
		parsed, err := qr.ParsePayload(payload.QRData)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "malformed_input", "unrecognized qr payload", middleware.GetRequestID(r.Context()))
			return
		}
		employeeID = parsed.EmployeeID
		if location == "" {
			location = parsed.Location
		}
	}

	v := shared.NewValidator()
	v.Required("employeeId", employeeID, "employeeId or qrData is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.RecordScan(r.Context(), employeeID, location, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrUnknownEmployee):
			api.Fail(w, http.StatusNotFound, "orphan_reference", "employee not found", middleware.GetRequestID(r.Context()))
		case errors.Is(err, attendance.ErrInactiveEmployee):
			api.Fail(w, http.StatusUnprocessableEntity, "inactive_employee", "employee is inactive", middleware.GetRequestID(r.Context()))
		default:
			slog.Warn("scan failed", "employeeId", employeeID, "err", err)
			api.Fail(w, http.StatusInternalServerError, "scan_failed", "failed to record scan", middleware.GetRequestID(r.Context()))
		}
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordScan()
	}

	envelope := api.Envelope{Success: true, Data: result, RequestID: middleware.GetRequestID(r.Context())}
	if idemKey != "" {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(envelope); err == nil {
			if err := h.Idempotency.Save(r.Context(), "/attendance/scan", idemKey, requestHash, buf.Bytes()); err != nil {
				slog.Warn("idempotency save failed", "err", err)
			}
		}
	}
	api.WriteJSON(w, http.StatusOK, envelope)
}

func (h *Handler) window(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	v := shared.NewValidator()
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := now

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, ok := v.Date("from", raw)
		if ok {
			from = parsed
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, ok := v.Date("to", raw)
		if ok {
			// Inclusive end of day.
			to = parsed.AddDate(0, 0, 1)
		}
	}
	v.DateOrder("from", from, "to", to)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func (h *Handler) handleRecords(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.window(w, r)
	if !ok {
		return
	}
	result, err := h.Service.Report(r.Context(), from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to derive records", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"records":  result.Records,
		"warnings": result.Warnings,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.window(w, r)
	if !ok {
		return
	}
	result, err := h.Service.Report(r.Context(), from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to derive stats", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"departments": result.Stats,
		"warnings":    result.Warnings,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 20, 100)
	events, err := h.Service.RecentActivity(r.Context(), page.Limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "recent_failed", "failed to list recent scans", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.window(w, r)
	if !ok {
		return
	}
	updated, err := h.Service.RefreshRecords(r.Context(), from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "refresh_failed", "failed to refresh records", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]int{"updated": updated}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.window(w, r)
	if !ok {
		return
	}
	result, err := h.Service.Report(r.Context(), from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to derive records", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=\"attendance.csv\"")
	if err := attendance.WriteCSV(w, result.Records); err != nil {
		slog.Warn("csv write failed", "err", err)
	}
}

func (h *Handler) handleBackup(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.ExportBackup(r.Context(), time.Now())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "backup_failed", "failed to export backup", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=\"attendease-backup.json\"")
	_, _ = w.Write(data)
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	employees, records, err := h.Service.RestoreBackup(r.Context(), data)
	if err != nil {
		api.Fail(w, http.StatusUnprocessableEntity, "restore_failed", "backup payload rejected", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]int{
		"employees": employees,
		"records":   records,
	}, middleware.GetRequestID(r.Context()))
}
