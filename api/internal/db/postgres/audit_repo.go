package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adscale/pricecrypt/api/internal/core/domain"
)

// Schema for the one table this service writes.
const AlertsSchema = `
CREATE TABLE IF NOT EXISTS system_alerts (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	severity    TEXT NOT NULL,
	category    TEXT NOT NULL,
	resource_id TEXT NOT NULL DEFAULT '',
	message     TEXT NOT NULL,
	is_resolved BOOLEAN NOT NULL DEFAULT false,
	resolved_at TIMESTAMPTZ,
	metadata    JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_system_alerts_created_at ON system_alerts (created_at DESC);
`

type AlertRepository struct {
	pool *pgxpool.Pool
}

var _ domain.AlertStore = (*AlertRepository)(nil)

func NewAlertRepository(pool *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

// Migrate creates the alerts table if it does not exist yet.
func (r *AlertRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, AlertsSchema); err != nil {
		return fmt.Errorf("postgres: migrate system_alerts: %w", err)
	}
	return nil
}

// CreateAlert persists alert and fills in its ID and CreatedAt.
func (r *AlertRepository) CreateAlert(ctx context.Context, alert *domain.SystemAlert) error {
	query := `
		INSERT INTO system_alerts (severity, category, resource_id, message, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	metadata := alert.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	err := r.pool.QueryRow(ctx, query,
		alert.Severity,
		alert.Category,
		alert.ResourceID,
		alert.Message,
		metadata,
	).Scan(&alert.ID, &alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create alert: %w", err)
	}
	return nil
}

// ListAlerts returns one page of alerts, newest first, and the total number
// of matching rows.
func (r *AlertRepository) ListAlerts(ctx context.Context, filter domain.AlertFilter) ([]domain.SystemAlert, int, error) {
	where, args := alertFilterClause(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM system_alerts WHERE 1=1`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres: count alerts: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := max(filter.Offset, 0)

	query := `SELECT id, severity, category, resource_id, message, is_resolved, metadata, created_at FROM system_alerts WHERE 1=1` +
		where + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: list alerts: %w", err)
	}
	defer rows.Close()

	alerts, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.SystemAlert])
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: scan alerts: %w", err)
	}
	return alerts, total, nil
}

func (r *AlertRepository) ResolveAlert(ctx context.Context, id uuid.UUID, resolvedBy string) error {
	query := `
		UPDATE system_alerts
		SET is_resolved = true, resolved_at = NOW(), metadata = metadata || jsonb_build_object('resolved_by', $1::text)
		WHERE id = $2 AND is_resolved = false
	`
	tag, err := r.pool.Exec(ctx, query, resolvedBy, id)
	if err != nil {
		return fmt.Errorf("postgres: resolve alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlertNotFound
	}
	return nil
}

// alertFilterClause builds the AND-ed predicates for filter with numbered
// placeholders starting at $1.
func alertFilterClause(filter domain.AlertFilter) (string, []any) {
	var (
		clause string
		args   []any
	)
	add := func(predicate string, value any) {
		args = append(args, value)
		clause += fmt.Sprintf(predicate, len(args))
	}

	if filter.IsResolved != nil {
		add(" AND is_resolved = $%d", *filter.IsResolved)
	}
	if filter.Severity != "" {
		add(" AND severity = $%d", filter.Severity)
	}
	if filter.Category != "" {
		add(" AND category = $%d", filter.Category)
	}
	if filter.ResourceID != "" {
		add(" AND resource_id = $%d", filter.ResourceID)
	}
	return clause, args
}
