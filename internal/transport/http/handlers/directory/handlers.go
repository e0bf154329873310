package directoryhandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"attendease/internal/domain/attendance"
	"attendease/internal/domain/auth"
	"attendease/internal/domain/directory"
	"attendease/internal/platform/qr"
	"attendease/internal/transport/http/api"
	"attendease/internal/transport/http/middleware"
	"attendease/internal/transport/http/shared"
)

type EmployeeStore interface {
	ListEmployees(ctx context.Context) ([]directory.Employee, error)
	GetEmployee(ctx context.Context, employeeID string) (directory.Employee, error)
	CreateEmployee(ctx context.Context, employee directory.Employee) error
	UpdateEmployee(ctx context.Context, employee directory.Employee) error
	DeactivateEmployee(ctx context.Context, employeeID string) error
}

type Handler struct {
	Store EmployeeStore
}

func NewHandler(store EmployeeStore) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/", h.handleCreate)
		r.Get("/{employeeID}", h.handleGet)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Put("/{employeeID}", h.handleUpdate)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Delete("/{employeeID}", h.handleDeactivate)
		r.Get("/{employeeID}/badge", h.handleBadge)
	})
}

type employeePayload struct {
	EmployeeID  string `json:"employeeId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
	Active      *bool  `json:"active"`
}

func (p employeePayload) toEmployee() directory.Employee {
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	return directory.Employee{
		Employee: attendance.Employee{
			EmployeeID:  p.EmployeeID,
			Name:        p.Name,
			Email:       p.Email,
			Phone:       p.Phone,
			Department:  p.Department,
			Designation: p.Designation,
			Active:      active,
		},
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_list_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	employee, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "employeeID"))
	if errors.Is(err, directory.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_get_failed", "failed to load employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, employee, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employeeId is required")
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Store.CreateEmployee(r.Context(), payload.toEmployee()); err != nil {
		if errors.Is(err, directory.ErrDuplicateID) {
			api.Fail(w, http.StatusConflict, "employee_exists", "employee id already exists", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to create employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"employeeId": payload.EmployeeID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.EmployeeID = chi.URLParam(r, "employeeID")

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Store.UpdateEmployee(r.Context(), payload.toEmployee()); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "employee_update_failed", "failed to update employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeactivateEmployee(r.Context(), chi.URLParam(r, "employeeID")); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "employee_deactivate_failed", "failed to deactivate employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "deactivated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBadge(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	employee, err := h.Store.GetEmployee(r.Context(), employeeID)
	if errors.Is(err, directory.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "badge_failed", "failed to load employee", middleware.GetRequestID(r.Context()))
		return
	}

	size := 256
	if raw := r.URL.Query().Get("size"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 64 && v <= 1024 {
			size = v
		}
	}

	png, err := qr.BadgePNG(employee.EmployeeID, size, time.Now())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "badge_failed", "failed to render badge", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", "inline; filename=\""+employee.EmployeeID+".png\"")
	_, _ = w.Write(png)
}
