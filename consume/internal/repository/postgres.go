// Package repository persists typed analytics records to Postgres.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pagepulse/pagepulse-stack/consume/internal/metrics"
	"github.com/pagepulse/pagepulse-stack/consume/internal/records"
)

const insertTimeout = 5 * time.Second

// PostgresRepository writes one row per insert, no batching. Every table
// is append-only; duplicate deliveries from the bus may produce duplicate
// rows, which the analytics queries tolerate.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to the analytics store.
func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// NewWithPool wraps an existing pool, used by tests.
func NewWithPool(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func (r *PostgresRepository) exec(ctx context.Context, table, query string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, insertTimeout)
	defer cancel()

	start := time.Now()
	_, err := r.pool.Exec(ctx, query, args...)
	metrics.InsertDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.InsertErrors.WithLabelValues(table).Inc()
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	metrics.RecordsInserted.WithLabelValues(table).Inc()
	return nil
}

func (r *PostgresRepository) InsertPageEvent(ctx context.Context, rec *records.PageEvent) error {
	query := `
		INSERT INTO page_events (timestamp, session_id, user_id, tracking_id,
			event_type, page_url, page_title, referrer)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	return r.exec(ctx, "page_events", query,
		rec.Timestamp, rec.SessionID, rec.UserID, rec.TrackingID,
		rec.EventType, rec.PageURL, rec.PageTitle, rec.Referrer,
	)
}

func (r *PostgresRepository) InsertSession(ctx context.Context, rec *records.Session) error {
	query := `
		INSERT INTO sessions (session_id, user_id, tracking_id, start_time,
			device_type, operating_system, browser, screen_width, screen_height,
			viewport_width, viewport_height, language, timezone, referrer,
			entry_page, page_views)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	return r.exec(ctx, "sessions", query,
		rec.SessionID, rec.UserID, rec.TrackingID, rec.StartTime,
		rec.DeviceType, rec.OperatingSystem, rec.Browser, rec.ScreenWidth, rec.ScreenHeight,
		rec.ViewportWidth, rec.ViewportHeight, rec.Language, rec.Timezone, rec.Referrer,
		rec.EntryPage, rec.PageViews,
	)
}

func (r *PostgresRepository) InsertInteractionEvent(ctx context.Context, rec *records.InteractionEvent) error {
	query := `
		INSERT INTO interaction_events (timestamp, session_id, user_id, tracking_id,
			event_type, page_url, x, y, element, element_id, element_class,
			button_text, button_type, link_url, link_text, file_name, is_external, target)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	return r.exec(ctx, "interaction_events", query,
		rec.Timestamp, rec.SessionID, rec.UserID, rec.TrackingID,
		rec.EventType, rec.PageURL, rec.X, rec.Y, rec.Element, rec.ElementID, rec.ElementClass,
		rec.ButtonText, rec.ButtonType, rec.LinkURL, rec.LinkText, rec.FileName, rec.IsExternal, rec.Target,
	)
}

func (r *PostgresRepository) InsertFormEvent(ctx context.Context, rec *records.FormEvent) error {
	query := `
		INSERT INTO form_events (timestamp, session_id, user_id, tracking_id,
			page_url, event_type, form_id, form_name, form_action, form_method,
			field_name, field_type, field_count, value_length, has_file_upload, success)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	return r.exec(ctx, "form_events", query,
		rec.Timestamp, rec.SessionID, rec.UserID, rec.TrackingID,
		rec.PageURL, rec.EventType, rec.FormID, rec.FormName, rec.FormAction, rec.FormMethod,
		rec.FieldName, rec.FieldType, rec.FieldCount, rec.ValueLength, rec.HasFileUpload, rec.Success,
	)
}

func (r *PostgresRepository) InsertEcommerceEvent(ctx context.Context, rec *records.EcommerceEvent) error {
	query := `
		INSERT INTO ecommerce_events (timestamp, session_id, user_id, tracking_id,
			page_url, event_type, product_id, product_name, price, quantity,
			category, currency, order_id, total, step, step_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	return r.exec(ctx, "ecommerce_events", query,
		rec.Timestamp, rec.SessionID, rec.UserID, rec.TrackingID,
		rec.PageURL, rec.EventType, rec.ProductID, rec.ProductName, rec.Price, rec.Quantity,
		rec.Category, rec.Currency, rec.OrderID, rec.Total, rec.Step, rec.StepName,
	)
}

func (r *PostgresRepository) InsertVideoEvent(ctx context.Context, rec *records.VideoEvent) error {
	query := `
		INSERT INTO video_events (timestamp, session_id, user_id, tracking_id,
			page_url, event_type, video_src, video_duration, "current_time")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	return r.exec(ctx, "video_events", query,
		rec.Timestamp, rec.SessionID, rec.UserID, rec.TrackingID,
		rec.PageURL, rec.EventType, rec.VideoSrc, rec.VideoDuration, rec.CurrentTime,
	)
}

func (r *PostgresRepository) InsertScrollEvent(ctx context.Context, rec *records.ScrollEvent) error {
	query := `
		INSERT INTO scroll_events (timestamp, session_id, user_id, tracking_id,
			page_url, event_type, depth_percent, scroll_top, scroll_percent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	return r.exec(ctx, "scroll_events", query,
		rec.Timestamp, rec.SessionID, rec.UserID, rec.TrackingID,
		rec.PageURL, rec.EventType, rec.DepthPercent, rec.ScrollTop, rec.ScrollPercent,
	)
}

func (r *PostgresRepository) InsertMouseEvent(ctx context.Context, rec *records.MouseEvent) error {
	query := `
		INSERT INTO mouse_events (timestamp, session_id, user_id, tracking_id,
			page_url, x, y)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	return r.exec(ctx, "mouse_events", query,
		rec.Timestamp, rec.SessionID, rec.UserID, rec.TrackingID,
		rec.PageURL, rec.X, rec.Y,
	)
}
