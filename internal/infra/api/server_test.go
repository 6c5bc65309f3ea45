//go:build !integration

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"activation-gate/internal/config"
	"activation-gate/internal/infra/db/memory"
	"activation-gate/internal/infra/web"
	"activation-gate/internal/usecase"
)

const testAPIKey = "router-test-key"

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

type fakeLimiter struct {
	mu    sync.Mutex
	seen  map[string]int
	err   error
	calls int
}

func (f *fakeLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = map[string]int{}
	}
	f.seen[key]++
	return f.seen[key] <= limit, nil
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("db down") }

func newTestRouter(t *testing.T, limiter Limiter, store Pinger) http.Handler {
	t.Helper()
	return NewRouter(newTestDeps(t, limiter, store))
}

func newTestDeps(t *testing.T, limiter Limiter, store Pinger) RouterDeps {
	t.Helper()
	mem := memory.NewStore()
	uc := usecase.NewActivationUseCase(mem, mem, mem, usecase.ActivationOptions{}, newTestLogger())
	auth, err := web.NewAuthManager(config.AdminConfig{APIKey: testAPIKey, TokenTTL: time.Minute}, newTestLogger())
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	if store == nil {
		store = mem
	}
	return RouterDeps{
		UC:              uc,
		Auth:            auth,
		Limiter:         limiter,
		ClaimsPerMinute: 2,
		Store:           store,
		Logger:          newTestLogger(),
	}
}

func serve(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_AdminRequiresAuth(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	if rec := serve(h, http.MethodPost, "/api/v1/codes", `{"code":"A1"}`, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/api/v1/stats", "", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodPost, "/api/v1/codes", `{"code":"A1"}`, testAPIKey); rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d, body=%s", rec.Code, rec.Body.String())
	}

	// End-user operations need no credentials.
	if rec := serve(h, http.MethodGet, "/api/v1/codes/A1", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	rec := serve(h, http.MethodPost, "/api/v1/admin/login", `{"api_key":"`+testAPIKey+`"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login want 200, got %d", rec.Code)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Fatalf("login should set a session cookie")
	}
	if rec := serve(h, http.MethodPost, "/api/v1/admin/login", `{"api_key":"nope"}`, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login want 401, got %d", rec.Code)
	}
}

func TestRouter_ClaimRateLimit(t *testing.T) {
	lim := &fakeLimiter{}
	h := newTestRouter(t, lim, nil)
	serve(h, http.MethodPost, "/api/v1/codes", `{"code":"RL"}`, testAPIKey)

	for i, want := range []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests} {
		rec := serve(h, http.MethodPost, "/api/v1/codes/RL/claim", `{"device_id":"device-1"}`, "")
		if rec.Code != want {
			t.Fatalf("attempt %d: want %d, got %d", i, want, rec.Code)
		}
	}
	// Validate shares the claim budget.
	if rec := serve(h, http.MethodPost, "/api/v1/codes/RL/validate", `{"device_id":"device-1"}`, ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("validate want 429, got %d", rec.Code)
	}
	// Status lookups are not counted.
	calls := lim.calls
	serve(h, http.MethodGet, "/api/v1/codes/RL", "", "")
	if lim.calls != calls {
		t.Fatalf("status lookups should bypass the limiter")
	}
}

func TestRouter_ForwardedForNeedsTrustedProxy(t *testing.T) {
	claim := func(h http.Handler, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/codes/XF/claim", bytes.NewBufferString(`{"device_id":"device-1"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	// Rotating the header does not buy a fresh budget from a direct client.
	h := newTestRouter(t, &fakeLimiter{}, nil)
	serve(h, http.MethodPost, "/api/v1/codes", `{"code":"XF"}`, testAPIKey)
	for i, want := range []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests} {
		if got := claim(h, fmt.Sprintf("203.0.113.%d", i+1)); got != want {
			t.Fatalf("direct attempt %d: want %d, got %d", i, want, got)
		}
	}

	// Behind a trusted proxy each forwarded client has its own budget.
	lim := &fakeLimiter{}
	d := newTestDeps(t, lim, nil)
	d.TrustProxy = true
	h = NewRouter(d)
	serve(h, http.MethodPost, "/api/v1/codes", `{"code":"XF"}`, testAPIKey)
	for i := 0; i < 3; i++ {
		if got := claim(h, fmt.Sprintf("203.0.113.%d", i+1)); got != http.StatusCreated {
			t.Fatalf("proxied attempt %d: want 201, got %d", i, got)
		}
	}
	if len(lim.seen) != 3 {
		t.Fatalf("want one limiter key per forwarded client, got %v", lim.seen)
	}
}

func TestRouter_RateLimitFailsOpen(t *testing.T) {
	h := newTestRouter(t, &fakeLimiter{err: errors.New("redis down")}, nil)
	serve(h, http.MethodPost, "/api/v1/codes", `{"code":"FO"}`, testAPIKey)

	if rec := serve(h, http.MethodPost, "/api/v1/codes/FO/claim", `{"device_id":"device-1"}`, ""); rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d", rec.Code)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	h := newTestRouter(t, nil, nil)
	for _, path := range []string{"/health", "/healthz"} {
		if rec := serve(h, http.MethodGet, path, "", ""); rec.Code != http.StatusOK {
			t.Fatalf("%s want 200, got %d", path, rec.Code)
		}
	}
	if rec := serve(h, http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("metrics want 200, got %d", rec.Code)
	}

	down := newTestRouter(t, nil, downPinger{})
	if rec := serve(down, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("healthz want 503, got %d", rec.Code)
	}
}

func TestRouter_TraceID(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	rec := serve(h, http.MethodGet, "/healthz", "", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("request id not propagated: %q", got)
	}
}

func TestRecover(t *testing.T) {
	h := Recover(newTestLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
}
