package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"telemetry_map/core-go/internal/db"
	"telemetry_map/core-go/internal/settings"
)

func requireTestDatabaseURL(t *testing.T) string {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres integration test")
	}
	return dsn
}

func mustDeriveDatabaseURL(t *testing.T, baseURL, dbName string) string {
	t.Helper()

	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		t.Skipf("TEST_DATABASE_URL must be a URL-style DSN (e.g. postgres://...); got %q", baseURL)
	}

	u.Path = "/" + dbName
	return u.String()
}

func newTestDatabaseName() string {
	// Safe identifier (letters/digits/underscores) so we can use it without quoting.
	return fmt.Sprintf("telemetry_map_test_%d", time.Now().UnixNano())
}

func createDatabase(ctx context.Context, adminURL, dbName string) error {
	adminConn, err := pgx.Connect(ctx, adminURL)
	if err != nil {
		return err
	}
	defer adminConn.Close(ctx)

	_, err = adminConn.Exec(ctx, "CREATE DATABASE "+dbName)
	return err
}

func dropDatabase(ctx context.Context, adminURL, dbName string) error {
	adminConn, err := pgx.Connect(ctx, adminURL)
	if err != nil {
		return err
	}
	defer adminConn.Close(ctx)

	if _, err := adminConn.Exec(ctx, "DROP DATABASE "+dbName+" WITH (FORCE)"); err == nil {
		return nil
	}
	_, err = adminConn.Exec(ctx, "DROP DATABASE "+dbName)
	return err
}

func TestHandler_Postgres_SettingsPersist(t *testing.T) {
	adminURL := requireTestDatabaseURL(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbName := newTestDatabaseName()
	testDBURL := mustDeriveDatabaseURL(t, adminURL, dbName)

	if err := createDatabase(ctx, adminURL, dbName); err != nil {
		t.Fatalf("create database: %v", err)
	}
	t.Cleanup(func() {
		_ = dropDatabase(context.Background(), adminURL, dbName)
	})

	pool, err := db.Open(ctx, testDBURL)
	if err != nil {
		t.Fatalf("open db pool: %v", err)
	}
	t.Cleanup(pool.Close)

	store, err := settings.NewPostgresStore(ctx, pool.Queries())
	if err != nil {
		t.Fatalf("postgres settings store: %v", err)
	}

	log := NewLogger("error")
	h := NewHandler(log, Deps{Pool: pool, Settings: settings.NewService(ctx, log, store)})
	router := h.Router()

	rrReady := httptest.NewRecorder()
	router.ServeHTTP(rrReady, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rrReady.Code != http.StatusOK {
		t.Fatalf("readyz expected 200, got %d: %s", rrReady.Code, rrReady.Body.String())
	}
	if got := decodeBody(t, rrReady)["settings_store"]; got != "postgres" {
		t.Fatalf("expected postgres settings store, got %v", got)
	}

	rrPut := httptest.NewRecorder()
	reqPut := httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader(`{"txs":false,"uptime":false}`))
	reqPut.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rrPut, reqPut)
	if rrPut.Code != http.StatusOK {
		t.Fatalf("put settings expected 200, got %d: %s", rrPut.Code, rrPut.Body.String())
	}

	// A fresh service over the same database sees the saved values.
	reloaded := settings.NewService(ctx, log, store).Current()
	if reloaded["txs"] || reloaded["uptime"] {
		t.Fatalf("expected txs and uptime hidden after reload, got %v", reloaded)
	}
	if !reloaded["peers"] {
		t.Fatalf("expected untouched columns to stay visible, got %v", reloaded)
	}
}
