package qr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

var ErrEmptyPayload = errors.New("empty qr payload")

// Payload is what a badge or kiosk QR code decodes to. Badges carry at
// minimum an employee id; kiosk codes may add a location.
type Payload struct {
	EmployeeID string
	Location   string
	Action     string
	Timestamp  string
}

// jsonPayload mirrors the JSON badge format.
type jsonPayload struct {
	EmployeeID string `json:"employeeId"`
	LocationID string `json:"locationId"`
	Action     string `json:"action"`
	Timestamp  string `json:"timestamp"`
}

// ParsePayload accepts the three badge formats in circulation: a JSON
// object with an employeeId field, an underscore-separated token where
// the EMP-prefixed part is the id, or a bare employee id.
func ParsePayload(data string) (Payload, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return Payload{}, ErrEmptyPayload
	}

	if strings.Contains(data, "employeeId") {
		var parsed jsonPayload
		if err := json.Unmarshal([]byte(data), &parsed); err != nil {
			return Payload{}, fmt.Errorf("malformed json payload: %w", err)
		}
		if parsed.EmployeeID == "" {
			return Payload{}, errors.New("json payload missing employeeId")
		}
		return Payload{
			EmployeeID: parsed.EmployeeID,
			Location:   parsed.LocationID,
			Action:     parsed.Action,
			Timestamp:  parsed.Timestamp,
		}, nil
	}

	if strings.Contains(data, "_") {
		parts := strings.Split(data, "_")
		id := parts[0]
		for _, part := range parts {
			if strings.HasPrefix(part, "EMP") {
				id = part
				break
			}
		}
		return Payload{EmployeeID: id}, nil
	}

	return Payload{EmployeeID: data}, nil
}

// BadgeData is the payload encoded into generated badges.
func BadgeData(employeeID string, now time.Time) string {
	return fmt.Sprintf("ATTENDEASE_%s_%d", employeeID, now.UnixMilli())
}

// BadgePNG renders a square QR badge for the employee.
func BadgePNG(employeeID string, size int, now time.Time) ([]byte, error) {
	code, err := qr.Encode(BadgeData(employeeID, now), qr.M, qr.Auto)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
