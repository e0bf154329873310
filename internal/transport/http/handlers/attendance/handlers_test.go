package attendancehandler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"attendease/internal/domain/attendance"
)

type fakeService struct {
	scans     []string
	scanErr   error
	reportRes attendance.Result
}

func (f *fakeService) RecordScan(_ context.Context, employeeID, location string, now time.Time) (attendance.ScanResult, error) {
	if f.scanErr != nil {
		return attendance.ScanResult{}, f.scanErr
	}
	f.scans = append(f.scans, employeeID)
	return attendance.ScanResult{
		EmployeeID: employeeID,
		Type:       attendance.ScanCheckIn,
		Time:       now,
		Location:   location,
		Message:    "Checked in",
	}, nil
}

func (f *fakeService) Report(context.Context, time.Time, time.Time) (attendance.Result, error) {
	return f.reportRes, nil
}

func (f *fakeService) RefreshRecords(context.Context, time.Time, time.Time) (int, error) {
	return len(f.reportRes.Records), nil
}

func (f *fakeService) RecentActivity(context.Context, int) ([]attendance.ScanEvent, error) {
	return nil, nil
}

func (f *fakeService) ExportBackup(context.Context, time.Time) ([]byte, error) {
	return []byte(`{"version":"1.0"}`), nil
}

func (f *fakeService) RestoreBackup(_ context.Context, data []byte) (int, int, error) {
	if !strings.Contains(string(data), "version") {
		return 0, 0, attendance.ErrUnsupportedBackupVersion
	}
	return 2, 3, nil
}

func newRouter(service Service) http.Handler {
	r := chi.NewRouter()
	h := NewHandler(service, nil, nil)
	h.RegisterRoutes(r)
	return r
}

func postScan(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/attendance/scan", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	return rec
}

func TestScanWithJSONQRPayload(t *testing.T) {
	service := &fakeService{}
	router := newRouter(service)

	rec := postScan(t, router, `{"qrData":"{\"employeeId\":\"EMP001\",\"locationId\":\"Branch East\"}"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(service.scans) != 1 || service.scans[0] != "EMP001" {
		t.Fatalf("unexpected scans: %v", service.scans)
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			EmployeeID string `json:"employeeId"`
			Location   string `json:"location"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !envelope.Success || envelope.Data.EmployeeID != "EMP001" || envelope.Data.Location != "Branch East" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
}

func TestScanWithBareEmployeeID(t *testing.T) {
	service := &fakeService{}
	router := newRouter(service)

	rec := postScan(t, router, `{"employeeId":"EMP002","location":"Office Main"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(service.scans) != 1 || service.scans[0] != "EMP002" {
		t.Fatalf("unexpected scans: %v", service.scans)
	}
}

func TestScanUnknownEmployee(t *testing.T) {
	service := &fakeService{scanErr: fmt.Errorf("wrapped: %w", attendance.ErrUnknownEmployee)}
	router := newRouter(service)

	rec := postScan(t, router, `{"employeeId":"EMP999"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "orphan_reference") {
		t.Fatalf("expected orphan_reference code: %s", rec.Body.String())
	}
}

func TestScanInactiveEmployee(t *testing.T) {
	service := &fakeService{scanErr: fmt.Errorf("wrapped: %w", attendance.ErrInactiveEmployee)}
	router := newRouter(service)

	rec := postScan(t, router, `{"employeeId":"EMP003"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "inactive_employee") {
		t.Fatalf("expected inactive_employee code: %s", rec.Body.String())
	}
}

func TestScanRejectsEmptyPayload(t *testing.T) {
	router := newRouter(&fakeService{})

	rec := postScan(t, router, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "validation_error") {
		t.Fatalf("expected validation_error: %s", rec.Body.String())
	}
}

func TestScanRejectsMalformedQR(t *testing.T) {
	router := newRouter(&fakeService{})

	rec := postScan(t, router, `{"qrData":"{\"employeeId\":"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "malformed_input") {
		t.Fatalf("expected malformed_input: %s", rec.Body.String())
	}
}
