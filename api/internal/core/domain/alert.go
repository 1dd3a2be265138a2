package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"

	CategoryPriceEncoding = "price_encoding"
)

// SystemAlert is an operational event worth a human look, such as a
// settlement price that could not be encoded.
type SystemAlert struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	Severity   string         `json:"severity" db:"severity"`
	Category   string         `json:"category" db:"category"`
	ResourceID string         `json:"resource_id" db:"resource_id"`
	Message    string         `json:"message" db:"message"`
	IsResolved bool           `json:"is_resolved" db:"is_resolved"`
	Metadata   map[string]any `json:"metadata" db:"metadata"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// AlertFilter narrows an alert listing. Zero values match everything.
type AlertFilter struct {
	IsResolved *bool
	Severity   string
	Category   string
	ResourceID string
	Limit      int
	Offset     int
}

// AlertRecorder persists SystemAlerts.
type AlertRecorder interface {
	CreateAlert(ctx context.Context, alert *SystemAlert) error
}

// AlertStore is an AlertRecorder that can also be queried.
type AlertStore interface {
	AlertRecorder
	ListAlerts(ctx context.Context, filter AlertFilter) ([]SystemAlert, int, error)
	ResolveAlert(ctx context.Context, id uuid.UUID, resolvedBy string) error
}

var ErrAlertNotFound = errors.New("alert not found or already resolved")
