package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/config"
	"github.com/phrazzld/lingdou-api/internal/service/auth"
	"github.com/phrazzld/lingdou-api/internal/service/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "a-very-long-secret-used-only-for-tests"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 8080, LogLevel: "info", ShutdownTimeoutSeconds: 5},
		Database: config.DatabaseConfig{URL: "postgres://localhost/lingdou", MaxOpenConns: 2},
		Auth:     config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60},
		Grader:   config.GraderConfig{Provider: "none", TimeoutSeconds: 5, MaxOutputTokens: 256},
		Cache:    config.CacheConfig{TTLSeconds: 60},
		Tracing:  config.TracingConfig{Exporter: "none"},
	}
}

func TestRootCommandTree(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "seed", "audit", "token"}, names)

	migrate, _, err := root.Find([]string{"migrate", "up"})
	require.NoError(t, err)
	assert.Equal(t, "up", migrate.Name())
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestSeedDryRun(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"seed", "--dry-run", "../../internal/platform/catalogfile/testdata/catalog.yaml"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "categories=1 modules=2 topics=3 products=1\n", out.String())
}

func TestSeedRejectsMissingFile(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"seed", "--dry-run", "testdata/does-not-exist.yaml"})
	assert.Error(t, root.Execute())
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("LINGDOU_DATABASE_URL", "postgres://localhost/lingdou")
	t.Setenv("LINGDOU_AUTH_JWT_SECRET", testSecret)
	t.Setenv("LINGDOU_GRADER_PROVIDER", "none")
	t.Setenv("LINGDOU_SERVER_LOG_LEVEL", "error")

	userID := uuid.New()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"token", userID.String()})
	require.NoError(t, root.Execute())

	jwtService, err := auth.NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60})
	require.NoError(t, err)
	claims, err := jwtService.ValidateToken(context.Background(), strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	root = newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"token", "not-a-uuid"})
	assert.Error(t, root.Execute())
}

func TestApplicationHealth(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()
	mock.ExpectClose()

	ctx := context.Background()
	app, err := newApplication(ctx, testConfig(), discardLogger(), db)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	app.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ledger/balances", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	require.NoError(t, app.cleanup(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteAuditReport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		report  *ledger.AuditReport
		wantErr bool
	}{
		{name: "clean", report: &ledger.AuditReport{Accounts: 3}},
		{
			name: "drift",
			report: &ledger.AuditReport{
				Accounts:   3,
				Violations: []ledger.Violation{{UserID: uuid.New(), Currency: "points", Error: "replay mismatch"}},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cmd := newAuditCmd(&rootOptions{})
			var out bytes.Buffer
			cmd.SetOut(&out)

			err := writeAuditReport(cmd, tt.report)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			var decoded ledger.AuditReport
			require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
			assert.Equal(t, 3, decoded.Accounts)
		})
	}
}

func TestSlogGooseLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := &slogGooseLogger{logger: slog.New(slog.NewTextHandler(&buf, nil))}
	l.Printf("applied %d migrations", 3)
	assert.NotPanics(t, func() { l.Fatalf("failed: %s", "boom") })

	assert.Contains(t, buf.String(), "applied 3 migrations")
	assert.Contains(t, buf.String(), "level=ERROR")
}
