package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"adspotly/internal/config"
	"adspotly/internal/domain"
	"adspotly/internal/media"
	"adspotly/internal/repository"
	"adspotly/internal/repository/sqlite"
	"adspotly/internal/resolver"
	"adspotly/internal/templates"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	srv   *Server
	repos *repository.Repositories
	user  *domain.User
	token string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	repos := &repository.Repositories{
		Users:      sqlite.NewUserRepo(db),
		QrCodes:    sqlite.NewQrCodeRepo(db),
		AdSpaces:   sqlite.NewAdSpaceRepo(db),
		AdDesigns:  sqlite.NewAdDesignRepo(db),
		ScanEvents: sqlite.NewScanEventRepo(db),
	}

	cfg := &config.Config{Debug: true}
	cfg.Server.Port = 8080
	cfg.Server.PublicBaseURL = "http://app.test"
	cfg.Database.Path = ":memory:"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpirationHours = 1
	cfg.Resolver.RetryAttempts = 1
	cfg.Resolver.RetryDelayMs = 1
	cfg.Resolver.CountdownSeconds = 3
	cfg.Uploads.Dir = t.TempDir()
	cfg.Uploads.MaxSizeMB = 1
	cfg.Uploads.PublicPath = "/uploads"
	cfg.Business.Name = "Adspotly Test"

	tmpl, err := templates.NewManager("../../templates")
	require.NoError(t, err)
	t.Cleanup(func() { tmpl.Close() })

	uploads, err := media.NewStore(cfg.Uploads.Dir, cfg.Uploads.PublicPath, cfg.Uploads.MaxSizeMB)
	require.NoError(t, err)

	engine := resolver.New(repos, nil, zap.NewNop())

	env := &testEnv{
		srv:   New(cfg, repos, tmpl, engine, uploads),
		repos: repos,
	}

	// Seed a user and mint a token for authed calls.
	hash, err := sqlite.HashPassword("hunter2!")
	require.NoError(t, err)
	env.user = &domain.User{
		ID:           uuid.New().String(),
		Email:        "owner@example.com",
		PasswordHash: hash,
		Name:         "Owner",
		Role:         domain.RoleMember,
	}
	require.NoError(t, repos.Users.Create(context.Background(), env.user))

	env.token, err = env.srv.generateToken(env.user)
	require.NoError(t, err)

	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+env.token)
	}

	w := httptest.NewRecorder()
	env.srv.GetRouter().ServeHTTP(w, req)
	return w
}

// waitForScan polls until the fire-and-forget scan increment lands
func (env *testEnv) waitForScan(t *testing.T, qrID string) int64 {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		count, err := env.repos.ScanEvents.CountByQrCodeID(context.Background(), qrID)
		require.NoError(t, err)
		if count > 0 {
			return count
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("scan event for %s never recorded", qrID)
	return 0
}

// --- public resolution surface ---

func TestViewRejectsMissingIdentifiers(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/view", nil, false)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing its code")
}

func TestViewRejectsMalformedIdentifier(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/view?qr=oops", nil, false)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "malformed")
}

func TestViewUnknownIdsRenderNeutralState(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/view?ad="+uuid.New().String(), nil, false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Nothing here yet")
}

func TestViewRendersRedirectCardWithCountdown(t *testing.T) {
	env := newTestEnv(t)
	qr := &domain.QrCode{ID: uuid.New().String(), UserID: env.user.ID, URL: "https://dest.example"}
	require.NoError(t, env.repos.QrCodes.Create(context.Background(), qr))

	w := env.do(t, http.MethodGet, "/view?qr="+qr.ID, nil, false)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "https://dest.example")
	assert.Contains(t, body, `id="countdown"`)
	assert.Contains(t, body, `id="manual-link"`)

	env.waitForScan(t, qr.ID)
}

func TestViewRendersCreative(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	space := &domain.AdSpace{ID: uuid.New().String(), UserID: env.user.ID, Title: "Summer Promo"}
	require.NoError(t, env.repos.AdSpaces.Create(ctx, space))
	design := &domain.AdDesign{
		ID: uuid.New().String(), UserID: env.user.ID, AdSpaceID: &space.ID,
		ImageURL: "https://cdn.example/banner.png",
	}
	require.NoError(t, env.repos.AdDesigns.Create(ctx, design))

	w := env.do(t, http.MethodGet, "/view?ad="+space.ID, nil, false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://cdn.example/banner.png")
}

func TestViewDebugPanelRequiresFlag(t *testing.T) {
	env := newTestEnv(t)

	plain := env.do(t, http.MethodGet, "/view?ad="+uuid.New().String(), nil, false)
	assert.NotContains(t, plain.Body.String(), "debug-panel")

	debug := env.do(t, http.MethodGet, "/view?ad="+uuid.New().String()+"&debug=true", nil, false)
	assert.Contains(t, debug.Body.String(), "debug-panel")
}

func TestGoRedirectsToResolvedURL(t *testing.T) {
	env := newTestEnv(t)
	qr := &domain.QrCode{ID: uuid.New().String(), UserID: env.user.ID, URL: "https://dest.example"}
	require.NoError(t, env.repos.QrCodes.Create(context.Background(), qr))

	w := env.do(t, http.MethodGet, "/go?qr="+qr.ID, nil, false)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://dest.example", w.Header().Get("Location"))
}

func TestGoFallsBackToViewPage(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New().String()

	w := env.do(t, http.MethodGet, "/go?ad="+id, nil, false)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/view?")
	assert.Contains(t, w.Header().Get("Location"), id)
}

func TestGoRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/go", nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/go?qr=nope", nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- resolution against real storage ---

func TestResolutionRepairWritePersists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	space := &domain.AdSpace{ID: uuid.New().String(), UserID: env.user.ID, Title: "Promo"}
	require.NoError(t, env.repos.AdSpaces.Create(ctx, space))

	// Historical row: the design's primary key doubles as the space id
	// and no ad_space_id was ever written.
	design := &domain.AdDesign{ID: space.ID, UserID: env.user.ID, ImageURL: "https://cdn.example/a.png"}
	require.NoError(t, env.repos.AdDesigns.Create(ctx, design))

	w := env.do(t, http.MethodGet, "/view?ad="+space.ID, nil, false)
	assert.Equal(t, http.StatusOK, w.Code)

	// The repair write is async; wait for the link to appear.
	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := env.repos.AdDesigns.GetLatestByAdSpaceID(ctx, space.ID)
		require.NoError(t, err)
		if got != nil {
			assert.Equal(t, design.ID, got.ID)
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("repair write never landed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// --- auth & builder API ---

func TestAPIRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/qrcodes", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginIssuesToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/login", loginRequest{Email: "owner@example.com", Password: "hunter2!"}, false)
	require.Equal(t, http.StatusOK, w.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, env.user.ID, resp.User.ID)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/login", loginRequest{Email: "owner@example.com", Password: "wrong"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQrCodeLifecycle(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/qrcodes", qrCodeRequest{URL: "https://dest.example"}, true)
	require.Equal(t, http.StatusCreated, w.Code)

	var created domain.QrCode
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, env.user.ID, created.UserID)

	w = env.do(t, http.MethodGet, "/api/qrcodes/"+created.ID, nil, true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPut, "/api/qrcodes/"+created.ID, qrCodeRequest{URL: "https://other.example"}, true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/qrcodes/"+created.ID+"/image.png", nil, true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = env.do(t, http.MethodDelete, "/api/qrcodes/"+created.ID, nil, true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/qrcodes/"+created.ID, nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	other := &domain.User{ID: uuid.New().String(), Email: "other@example.com", PasswordHash: "x", Name: "Other", Role: domain.RoleMember}
	require.NoError(t, env.repos.Users.Create(ctx, other))
	qr := &domain.QrCode{ID: uuid.New().String(), UserID: other.ID, URL: "https://dest.example"}
	require.NoError(t, env.repos.QrCodes.Create(ctx, qr))

	w := env.do(t, http.MethodGet, "/api/qrcodes/"+qr.ID, nil, true)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdDesignRejectsBlobURLs(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/addesigns", adDesignRequest{ImageURL: "blob:http://localhost/abc"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "blob:")
}

func TestQrCodeStatsReflectScans(t *testing.T) {
	env := newTestEnv(t)
	qr := &domain.QrCode{ID: uuid.New().String(), UserID: env.user.ID, URL: "https://dest.example"}
	require.NoError(t, env.repos.QrCodes.Create(context.Background(), qr))

	env.do(t, http.MethodGet, "/go?qr="+qr.ID, nil, false)
	env.waitForScan(t, qr.ID)

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/qrcodes/%s/stats", qr.ID), nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	var stats qrCodeStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.GreaterOrEqual(t, stats.Scans, int64(1))
	require.NotEmpty(t, stats.Events)
	assert.Equal(t, qr.ID, stats.Events[0].QrCodeID)
}

func TestDiagLogsAdminOnly(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/diag/logs", nil, true)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := &domain.User{ID: uuid.New().String(), Email: "root@example.com", PasswordHash: "x", Name: "Root", Role: domain.RoleAdmin}
	require.NoError(t, env.repos.Users.Create(context.Background(), admin))
	adminToken, err := env.srv.generateToken(admin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/diag/logs", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	env.srv.GetRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "healthy"))
}
