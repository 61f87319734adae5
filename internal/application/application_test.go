package application

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"butler/cli/internal/config"
	"butler/cli/internal/session"
)

func newBackend(t *testing.T, profileStatus int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	profileCalls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/auth/profile" && r.Method == http.MethodGet:
			profileCalls.Add(1)
			if r.Header.Get("Authorization") != "Bearer stored-token" || profileStatus != http.StatusOK {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"Invalid token"}`))
				return
			}
			_, _ = w.Write([]byte(`{"user":{"id":"u1","username":"ada","email":"ada@example.com"}}`))
		case r.URL.Path == "/api/tasks" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"tasks":[{"id":"t1","user_id":"u1","title":"Write","energy_cost":3,"emotional_friction":"Low","is_completed":false,"created_at":"2026-01-02T03:04:05Z"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, profileCalls
}

func testConfig(t *testing.T, baseURL string) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		ConfigDir:      dir,
		DBPath:         filepath.Join(dir, "butler.db"),
		APIBaseURL:     baseURL + "/api",
		RequestTimeout: 5 * time.Second,
	}
}

func startApp(t *testing.T, cfg config.Config, restore bool) *Application {
	t.Helper()
	app, err := StartApplication(context.Background(), StartOptions{Config: cfg, Restore: restore})
	if err != nil {
		t.Fatalf("start application failed: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestStartApplication_RequiresDBPath(t *testing.T) {
	_, err := StartApplication(context.Background(), StartOptions{Config: config.Config{APIBaseURL: "http://127.0.0.1:1/api"}})
	if err == nil || !strings.Contains(err.Error(), "db path") {
		t.Fatalf("expected db path error, got %v", err)
	}
}

func TestStartApplication_DBPathOverride(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK)
	cfg := testConfig(t, srv.URL)
	override := filepath.Join(t.TempDir(), "other.db")
	app, err := StartApplication(context.Background(), StartOptions{Config: cfg, DBPath: override})
	if err != nil {
		t.Fatalf("start application failed: %v", err)
	}
	defer func() { _ = app.Close() }()
	if app.DBPath() != override {
		t.Fatalf("expected db path %q, got %q", override, app.DBPath())
	}
}

func TestStartApplication_RestoresStoredSession(t *testing.T) {
	srv, calls := newBackend(t, http.StatusOK)
	cfg := testConfig(t, srv.URL)

	seed := startApp(t, cfg, false)
	if err := seed.Tokens.SetToken(context.Background(), "stored-token"); err != nil {
		t.Fatalf("seed token failed: %v", err)
	}
	if err := seed.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	app := startApp(t, cfg, true)
	snap := app.Session.Snapshot()
	if snap.State != session.StateAuthenticated || snap.User == nil || snap.User.Username != "ada" {
		t.Fatalf("expected restored session, got %+v", snap)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one profile call, got %d", calls.Load())
	}
}

func TestStartApplication_RejectedTokenIsRemoved(t *testing.T) {
	srv, _ := newBackend(t, http.StatusUnauthorized)
	cfg := testConfig(t, srv.URL)

	seed := startApp(t, cfg, false)
	if err := seed.Tokens.SetToken(context.Background(), "stored-token"); err != nil {
		t.Fatalf("seed token failed: %v", err)
	}
	_ = seed.Close()

	app := startApp(t, cfg, true)
	if app.Session.IsAuthenticated() {
		t.Fatal("expected unauthenticated session")
	}
	token, err := app.Tokens.GetToken(context.Background())
	if err != nil {
		t.Fatalf("get token failed: %v", err)
	}
	if token != "" {
		t.Fatalf("expected token removed, got %q", token)
	}
}

func TestStartApplication_WithoutRestoreSkipsNetwork(t *testing.T) {
	srv, calls := newBackend(t, http.StatusOK)
	cfg := testConfig(t, srv.URL)
	app := startApp(t, cfg, false)
	if calls.Load() != 0 {
		t.Fatalf("expected no profile call, got %d", calls.Load())
	}
	if app.Session.Snapshot().State != session.StateUnauthenticated {
		t.Fatalf("expected initial unauthenticated state, got %s", app.Session.Snapshot().State)
	}
}

func TestApplication_SignOutClearsTasks(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK)
	cfg := testConfig(t, srv.URL)
	app := startApp(t, cfg, false)

	if err := app.Tasks.Fetch(context.Background(), false); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(app.Tasks.Tasks()) != 1 {
		t.Fatalf("expected one task, got %d", len(app.Tasks.Tasks()))
	}
	app.Session.SignOut(context.Background())
	if len(app.Tasks.Tasks()) != 0 {
		t.Fatalf("expected tasks cleared on sign out, got %d", len(app.Tasks.Tasks()))
	}
}

func TestApplication_RunClosesOnReturn(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK)
	cfg := testConfig(t, srv.URL)
	app := startApp(t, cfg, false)

	ran := false
	err := app.Run(context.Background(), func(ctx context.Context) error {
		ran = true
		return app.Prefs.SetTheme(ctx, "dark")
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !ran {
		t.Fatal("expected command to run")
	}
	if _, err := app.Prefs.Theme(context.Background()); err == nil {
		t.Fatal("expected closed database after run")
	}
	if err := app.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
}

func TestApplication_RunReturnsNamedCommandError(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK)
	app := startApp(t, testConfig(t, srv.URL), false)
	boom := errors.New("boom")
	err := app.Run(context.Background(), func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected command error, got %v", err)
	}
}
