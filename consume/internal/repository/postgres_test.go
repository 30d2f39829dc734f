package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pagepulse/pagepulse-stack/consume/internal/records"
)

// setupTestDatabase creates a PostgreSQL testcontainer and runs migrations
func setupTestDatabase(t *testing.T) (*PostgresRepository, func()) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("pagepulse_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	if err := runMigrations(connStr); err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	repo, err := NewPostgresRepository(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create repository: %v", err)
	}

	cleanup := func() {
		repo.pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return repo, cleanup
}

func runMigrations(connStr string) error {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	migrationPath := filepath.Join("..", "..", "migrations", "0001_create_analytics_tables.up.sql")
	migrationSQL, err := os.ReadFile(migrationPath)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	if _, err := db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}

	return nil
}

func countRows(t *testing.T, repo *PostgresRepository, table string) int {
	t.Helper()
	var n int
	err := repo.pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}
	return n
}

func TestInsertPageEventAndSession(t *testing.T) {
	repo, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	page := &records.PageEvent{
		Timestamp:  time.Now().UTC(),
		SessionID:  gofakeit.UUID(),
		UserID:     gofakeit.Username(),
		TrackingID: "UA-" + gofakeit.DigitN(6),
		EventType:  "page_load",
		PageURL:    gofakeit.URL(),
		PageTitle:  gofakeit.Sentence(3),
		Referrer:   gofakeit.URL(),
	}
	if err := repo.InsertPageEvent(ctx, page); err != nil {
		t.Fatalf("InsertPageEvent() error = %v", err)
	}

	sess := &records.Session{
		SessionID:       page.SessionID,
		UserID:          page.UserID,
		TrackingID:      page.TrackingID,
		StartTime:       page.Timestamp,
		DeviceType:      "desktop",
		OperatingSystem: "Linux",
		Browser:         "Firefox",
		ScreenWidth:     1920,
		ScreenHeight:    1080,
		ViewportWidth:   1600,
		ViewportHeight:  900,
		Language:        "en",
		Timezone:        "UTC",
		EntryPage:       page.PageURL,
		PageViews:       1,
	}
	if err := repo.InsertSession(ctx, sess); err != nil {
		t.Fatalf("InsertSession() error = %v", err)
	}

	if n := countRows(t, repo, "page_events"); n != 1 {
		t.Errorf("page_events rows = %d, want 1", n)
	}
	if n := countRows(t, repo, "sessions"); n != 1 {
		t.Errorf("sessions rows = %d, want 1", n)
	}
}

func TestInsertSession_AppendOnly(t *testing.T) {
	repo, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	sess := &records.Session{
		SessionID:  "s1",
		UserID:     "guest",
		TrackingID: "t1",
		StartTime:  time.Now().UTC(),
		PageViews:  1,
	}
	if err := repo.InsertSession(ctx, sess); err != nil {
		t.Fatalf("first InsertSession() error = %v", err)
	}
	if err := repo.InsertSession(ctx, sess); err != nil {
		t.Fatalf("second InsertSession() error = %v", err)
	}

	if n := countRows(t, repo, "sessions"); n != 2 {
		t.Errorf("sessions rows = %d, want 2 (append-only, no dedup by session_id)", n)
	}
}

func TestInsertInteractionEvent_NullableColumns(t *testing.T) {
	repo, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	x := 10
	rec := &records.InteractionEvent{
		Timestamp:  time.Now().UTC(),
		SessionID:  "s1",
		TrackingID: "t1",
		EventType:  "link_click",
		PageURL:    "https://x/",
		X:          &x,
		Element:    "a",
	}
	if err := repo.InsertInteractionEvent(ctx, rec); err != nil {
		t.Fatalf("InsertInteractionEvent() error = %v", err)
	}

	var y *int
	var linkURL *string
	err := repo.pool.QueryRow(ctx,
		"SELECT y, link_url FROM interaction_events LIMIT 1").Scan(&y, &linkURL)
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if y != nil {
		t.Errorf("y = %v, want NULL", *y)
	}
	if linkURL != nil {
		t.Errorf("link_url = %v, want NULL", *linkURL)
	}
}

func TestInsertEcommerceEvent(t *testing.T) {
	repo, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	price := 19.99
	qty := 2
	step := 255
	sessionID := gofakeit.UUID()
	rec := &records.EcommerceEvent{
		Timestamp:  time.Now().UTC().Truncate(time.Second),
		SessionID:  &sessionID,
		TrackingID: "t1",
		EventType:  "purchase",
		Price:      &price,
		Quantity:   &qty,
		Currency:   "USD",
		Total:      &price,
		Step:       &step,
	}
	if err := repo.InsertEcommerceEvent(ctx, rec); err != nil {
		t.Fatalf("InsertEcommerceEvent() error = %v", err)
	}

	var currency string
	var gotStep int
	err := repo.pool.QueryRow(ctx,
		"SELECT currency, step FROM ecommerce_events LIMIT 1").Scan(&currency, &gotStep)
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if currency != "USD" {
		t.Errorf("currency = %q, want USD", currency)
	}
	if gotStep != 255 {
		t.Errorf("step = %d, want 255", gotStep)
	}
}

func TestInsertVideoScrollMouseEvents(t *testing.T) {
	repo, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	dur := 120.5
	video := &records.VideoEvent{
		Timestamp:     time.Now().UTC(),
		TrackingID:    "t1",
		EventType:     "progress_50",
		VideoSrc:      "https://cdn/x.mp4",
		VideoDuration: &dur,
	}
	if err := repo.InsertVideoEvent(ctx, video); err != nil {
		t.Fatalf("InsertVideoEvent() error = %v", err)
	}

	depth := 50
	scroll := &records.ScrollEvent{
		Timestamp:    time.Now().UTC(),
		TrackingID:   "t1",
		EventType:    "scroll_depth",
		DepthPercent: &depth,
	}
	if err := repo.InsertScrollEvent(ctx, scroll); err != nil {
		t.Fatalf("InsertScrollEvent() error = %v", err)
	}

	mouse := &records.MouseEvent{
		Timestamp:  time.Now().UTC(),
		TrackingID: "t1",
		PageURL:    "https://x/",
		X:          5,
		Y:          7,
	}
	if err := repo.InsertMouseEvent(ctx, mouse); err != nil {
		t.Fatalf("InsertMouseEvent() error = %v", err)
	}

	for _, table := range []string{"video_events", "scroll_events", "mouse_events"} {
		if n := countRows(t, repo, table); n != 1 {
			t.Errorf("%s rows = %d, want 1", table, n)
		}
	}
}

func TestInsertFormEvent(t *testing.T) {
	repo, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	rec := &records.FormEvent{
		Timestamp:  time.Now().UTC(),
		SessionID:  "s1",
		TrackingID: "t1",
		EventType:  "form_submit",
		FormID:     "signup",
		FormName:   "default_form",
	}
	if err := repo.InsertFormEvent(ctx, rec); err != nil {
		t.Fatalf("InsertFormEvent() error = %v", err)
	}

	var formName string
	if err := repo.pool.QueryRow(ctx, "SELECT form_name FROM form_events LIMIT 1").Scan(&formName); err != nil {
		t.Fatalf("query error: %v", err)
	}
	if formName != "default_form" {
		t.Errorf("form_name = %q, want default_form", formName)
	}
}
