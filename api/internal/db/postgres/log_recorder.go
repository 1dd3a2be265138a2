package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/adscale/pricecrypt/api/internal/core/domain"
)

// LogAlertRecorder stands in for AlertRepository when no database is
// configured. Alerts are written to the log and not retained.
type LogAlertRecorder struct {
	logger *slog.Logger
}

var _ domain.AlertRecorder = (*LogAlertRecorder)(nil)

func NewLogAlertRecorder(logger *slog.Logger) *LogAlertRecorder {
	return &LogAlertRecorder{logger: logger.With(slog.String("component", "alerts"))}
}

func (r *LogAlertRecorder) CreateAlert(ctx context.Context, alert *domain.SystemAlert) error {
	alert.ID = uuid.New()
	alert.CreatedAt = time.Now().UTC()

	level := slog.LevelWarn
	if alert.Severity == domain.SeverityCritical {
		level = slog.LevelError
	}
	r.logger.LogAttrs(ctx, level, alert.Message,
		slog.String("alert_id", alert.ID.String()),
		slog.String("severity", alert.Severity),
		slog.String("category", alert.Category),
		slog.String("resource_id", alert.ResourceID),
		slog.Any("metadata", alert.Metadata),
	)
	return nil
}
