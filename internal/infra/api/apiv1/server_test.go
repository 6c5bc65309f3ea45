//go:build !integration

package apiv1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	apiv1 "activation-gate/internal/infra/api/apiv1"
	"activation-gate/internal/infra/db/memory"
	"activation-gate/internal/usecase"
)

//
// -------------------- test helpers --------------------
//

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

func newServer(t *testing.T) *chi.Mux {
	t.Helper()
	store := memory.NewStore()
	uc := usecase.NewActivationUseCase(store, store, store, usecase.ActivationOptions{
		DeveloperCode: "DEV-BYPASS",
	}, newLogger())

	r := chi.NewRouter()
	srv := apiv1.NewServer(uc, nil, newLogger())

	// generated mux registers absolute paths (/api/v1/...), so mount at root
	apiv1.RegisterAPIV1(r, srv)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("want %d, got %d, body=%s", want, rec.Code, rec.Body.String())
	}
}

//
// -------------------- tests --------------------
//

func TestCodes_ClaimLifecycle(t *testing.T) {
	r := newServer(t)
	mustStatus(t, do(r, http.MethodPost, "/api/v1/codes", `{"code":"X"}`), http.StatusCreated)

	t.Run("validate eligible", func(t *testing.T) {
		rec := do(r, http.MethodPost, "/api/v1/codes/X/validate", `{"device_id":"device-AAAA-1111"}`)
		mustStatus(t, rec, http.StatusOK)
		v := decode[apiv1.Verdict](t, rec)
		if !v.Allow || v.Reason != usecase.ReasonEligible {
			t.Fatalf("verdict mismatch: %+v", v)
		}
	})

	t.Run("first claim 201", func(t *testing.T) {
		rec := do(r, http.MethodPost, "/api/v1/codes/X/claim", `{"device_id":"device-AAAA-1111","context":{"app":"1.0"}}`)
		mustStatus(t, rec, http.StatusCreated)
		res := decode[apiv1.ClaimResult](t, rec)
		if res.State != apiv1.Used || res.Reentry || res.UsedAt == nil || res.BoundDevice != "device-AAAA-1111" {
			t.Fatalf("claim mismatch: %+v", res)
		}
	})

	t.Run("same device re-entry 201", func(t *testing.T) {
		rec := do(r, http.MethodPost, "/api/v1/codes/X/claim", `{"device_id":"device-AAAA-1111"}`)
		mustStatus(t, rec, http.StatusCreated)
		if res := decode[apiv1.ClaimResult](t, rec); !res.Reentry || res.BoundDevice != "device-AAAA-1111" {
			t.Fatalf("want reentry bound to caller: %+v", res)
		}
	})

	t.Run("other device 409 ALREADY_USED with masked device", func(t *testing.T) {
		rec := do(r, http.MethodPost, "/api/v1/codes/X/claim", `{"device_id":"device-BBBB-2222"}`)
		mustStatus(t, rec, http.StatusConflict)
		e := decode[apiv1.Error](t, rec)
		if e.Reason != apiv1.ALREADYUSED || e.UsedAt == nil {
			t.Fatalf("error mismatch: %+v", e)
		}
		if e.BoundDeviceMasked == nil || *e.BoundDeviceMasked != "devi****1111" {
			t.Fatalf("masked device mismatch: %+v", e.BoundDeviceMasked)
		}
	})

	t.Run("status hides raw device", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/api/v1/codes/X", "")
		mustStatus(t, rec, http.StatusOK)
		if bytes.Contains(rec.Body.Bytes(), []byte("device-AAAA-1111")) {
			t.Fatalf("raw device leaked: %s", rec.Body.String())
		}
		st := decode[apiv1.CodeStatus](t, rec)
		if st.State != apiv1.Used {
			t.Fatalf("state mismatch: %+v", st)
		}
	})

	t.Run("reset then other device claims", func(t *testing.T) {
		rec := do(r, http.MethodPost, "/api/v1/codes/X/reset", "")
		mustStatus(t, rec, http.StatusOK)
		if c := decode[apiv1.Code](t, rec); c.State != apiv1.Available || c.BoundDevice != nil {
			t.Fatalf("reset mismatch: %+v", c)
		}
		mustStatus(t, do(r, http.MethodPost, "/api/v1/codes/X/claim", `{"device_id":"device-BBBB-2222"}`), http.StatusCreated)
	})

	t.Run("logs newest first", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/api/v1/logs?code=X&limit=2", "")
		mustStatus(t, rec, http.StatusOK)
		page := decode[apiv1.LogPage](t, rec)
		if len(page.Items) != 2 || page.Items[0].Action != apiv1.LogEntryActionClaim || page.Items[1].Action != apiv1.LogEntryActionReset {
			t.Fatalf("logs mismatch: %+v", page.Items)
		}
	})
}

func TestCodes_ErrorMapping(t *testing.T) {
	r := newServer(t)
	mustStatus(t, do(r, http.MethodPost, "/api/v1/codes", `{"code":"D1"}`), http.StatusCreated)
	mustStatus(t, do(r, http.MethodPost, "/api/v1/codes/D1/disable", ""), http.StatusOK)

	cases := []struct {
		name, method, path, body string
		status                   int
		reason                   apiv1.ErrorReason
	}{
		{"claim not found", http.MethodPost, "/api/v1/codes/nope/claim", `{"device_id":"d1"}`, http.StatusNotFound, apiv1.NOTFOUND},
		{"claim disabled", http.MethodPost, "/api/v1/codes/D1/claim", `{"device_id":"d1"}`, http.StatusConflict, apiv1.DISABLED},
		{"claim empty device", http.MethodPost, "/api/v1/codes/D1/claim", `{"device_id":""}`, http.StatusBadRequest, apiv1.INVALIDINPUT},
		{"claim missing body", http.MethodPost, "/api/v1/codes/D1/claim", "", http.StatusBadRequest, apiv1.INVALIDINPUT},
		{"claim malformed json", http.MethodPost, "/api/v1/codes/D1/claim", `{"device_id":`, http.StatusBadRequest, apiv1.INVALIDINPUT},
		{"status not found", http.MethodGet, "/api/v1/codes/nope", "", http.StatusNotFound, apiv1.NOTFOUND},
		{"create duplicate", http.MethodPost, "/api/v1/codes", `{"code":"D1"}`, http.StatusConflict, apiv1.CONFLICT},
		{"create reserved", http.MethodPost, "/api/v1/codes", `{"code":"DEV-BYPASS"}`, http.StatusConflict, apiv1.CONFLICT},
		{"create malformed", http.MethodPost, "/api/v1/codes", `{"code":"has space"}`, http.StatusBadRequest, apiv1.INVALIDINPUT},
		{"reset not found", http.MethodPost, "/api/v1/codes/nope/reset", "", http.StatusNotFound, apiv1.NOTFOUND},
		{"delete not found", http.MethodDelete, "/api/v1/codes/nope", "", http.StatusNotFound, apiv1.NOTFOUND},
		{"list bad state", http.MethodGet, "/api/v1/codes?state=bogus", "", http.StatusBadRequest, apiv1.INVALIDINPUT},
		{"list bad limit", http.MethodGet, "/api/v1/codes?limit=abc", "", http.StatusBadRequest, apiv1.INVALIDINPUT},
		{"generate too many", http.MethodPost, "/api/v1/codes/generate", `{"count":501}`, http.StatusBadRequest, apiv1.INVALIDINPUT},
		{"login without authenticator", http.MethodPost, "/api/v1/admin/login", `{"api_key":"k"}`, http.StatusUnauthorized, apiv1.UNAUTHORIZED},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(r, tc.method, tc.path, tc.body)
			mustStatus(t, rec, tc.status)
			if e := decode[apiv1.Error](t, rec); e.Reason != tc.reason || e.Message == "" {
				t.Fatalf("error mismatch: %+v", e)
			}
		})
	}
}

func TestCodes_ConflictMessages(t *testing.T) {
	r := newServer(t)
	mustStatus(t, do(r, http.MethodPost, "/api/v1/codes", `{"code":"D1"}`), http.StatusCreated)

	for _, body := range []string{`{"code":"D1"}`, `{"code":"DEV-BYPASS"}`} {
		rec := do(r, http.MethodPost, "/api/v1/codes", body)
		mustStatus(t, rec, http.StatusConflict)
		if e := decode[apiv1.Error](t, rec); e.Reason != apiv1.CONFLICT || e.Message != "activation code already exists" {
			t.Fatalf("%s: error mismatch: %+v", body, e)
		}
	}

	store := memory.NewStore()
	uc := usecase.NewActivationUseCase(store, store, store, usecase.ActivationOptions{}, newLogger())
	lr := chi.NewRouter()
	apiv1.RegisterAPIV1(lr, apiv1.NewServer(uc, nil, newLogger()).WithLocalizer(stubLocalizer{
		"error.already_exists": "exists",
		"error.conflict":       "retry",
	}))
	mustStatus(t, do(lr, http.MethodPost, "/api/v1/codes", `{"code":"D2"}`), http.StatusCreated)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/codes", bytes.NewBufferString(`{"code":"D2"}`))
	req.Header.Set("Accept-Language", "fa")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	lr.ServeHTTP(rec, req)
	mustStatus(t, rec, http.StatusConflict)
	if e := decode[apiv1.Error](t, rec); e.Message != "exists" {
		t.Fatalf("want already-exists key, got %+v", e)
	}
}

func TestCodes_DeveloperCode(t *testing.T) {
	r := newServer(t)
	for _, dev := range []string{"device-1", "device-2"} {
		rec := do(r, http.MethodPost, "/api/v1/codes/DEV-BYPASS/claim", `{"device_id":"`+dev+`"}`)
		mustStatus(t, rec, http.StatusCreated)
		if res := decode[apiv1.ClaimResult](t, rec); !res.Developer {
			t.Fatalf("want developer result: %+v", res)
		}
	}
	rec := do(r, http.MethodGet, "/api/v1/codes/DEV-BYPASS", "")
	mustStatus(t, rec, http.StatusOK)
	if st := decode[apiv1.CodeStatus](t, rec); !st.Developer || st.State != apiv1.Available {
		t.Fatalf("status mismatch: %+v", st)
	}
}

func TestCodes_AdminListing(t *testing.T) {
	r := newServer(t)

	rec := do(r, http.MethodPost, "/api/v1/codes/generate", `{"count":3,"prefix":"PRO"}`)
	mustStatus(t, rec, http.StatusCreated)
	gen := decode[apiv1.GenerateResponse](t, rec)
	if gen.BatchId == "" || len(gen.Codes) != 3 {
		t.Fatalf("generate mismatch: %+v", gen)
	}
	mustStatus(t, do(r, http.MethodPost, "/api/v1/codes/"+gen.Codes[0].Code+"/claim", `{"device_id":"d1"}`), http.StatusCreated)

	t.Run("list filtered", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/api/v1/codes?state=used", "")
		mustStatus(t, rec, http.StatusOK)
		page := decode[apiv1.CodePage](t, rec)
		if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Code != gen.Codes[0].Code {
			t.Fatalf("page mismatch: %+v", page)
		}
		if page.Items[0].BoundDevice == nil || *page.Items[0].BoundDevice != "d1" {
			t.Fatalf("admin view should carry the raw device: %+v", page.Items[0])
		}
	})

	t.Run("list paged", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/api/v1/codes?offset=1&limit=1", "")
		mustStatus(t, rec, http.StatusOK)
		page := decode[apiv1.CodePage](t, rec)
		if page.Total != 3 || len(page.Items) != 1 || page.Limit != 1 || page.Offset != 1 {
			t.Fatalf("page mismatch: %+v", page)
		}
	})

	t.Run("stats", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/api/v1/stats", "")
		mustStatus(t, rec, http.StatusOK)
		st := decode[apiv1.Stats](t, rec)
		if st.Total != 3 || st.Used != 1 || st.Available != 2 || st.Disabled != 0 {
			t.Fatalf("stats mismatch: %+v", st)
		}
	})

	t.Run("delete 204 then 404", func(t *testing.T) {
		path := "/api/v1/codes/" + gen.Codes[1].Code
		mustStatus(t, do(r, http.MethodDelete, path, ""), http.StatusNoContent)
		mustStatus(t, do(r, http.MethodDelete, path, ""), http.StatusNotFound)
	})

	t.Run("disable is idempotent", func(t *testing.T) {
		path := "/api/v1/codes/" + gen.Codes[2].Code + "/disable"
		first := decode[apiv1.Code](t, do(r, http.MethodPost, path, ""))
		second := decode[apiv1.Code](t, do(r, http.MethodPost, path, ""))
		if first.State != apiv1.Disabled || first.Version != second.Version {
			t.Fatalf("disable mismatch: %+v vs %+v", first, second)
		}
		if first.CreatedAt.After(time.Now()) {
			t.Fatalf("created_at in the future: %v", first.CreatedAt)
		}
	})
}

type stubLocalizer map[string]string

func (s stubLocalizer) Message(acceptLanguage, key string) string {
	if acceptLanguage != "fa" {
		return key
	}
	if msg, ok := s[key]; ok {
		return msg
	}
	return key
}

func TestCodes_LocalizedMessages(t *testing.T) {
	store := memory.NewStore()
	uc := usecase.NewActivationUseCase(store, store, store, usecase.ActivationOptions{}, newLogger())
	r := chi.NewRouter()
	srv := apiv1.NewServer(uc, nil, newLogger()).WithLocalizer(stubLocalizer{"error.not_found": "یافت نشد"})
	apiv1.RegisterAPIV1(r, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/codes/MISSING", nil)
	req.Header.Set("Accept-Language", "fa")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	mustStatus(t, rec, http.StatusNotFound)
	if got := decode[apiv1.Error](t, rec); got.Message != "یافت نشد" || got.Reason != apiv1.NOTFOUND {
		t.Fatalf("unexpected body: %+v", got)
	}

	// Unknown keys keep the built-in message.
	rec = do(r, http.MethodGet, "/api/v1/codes/MISSING", "")
	if got := decode[apiv1.Error](t, rec); got.Message != "activation code not found" {
		t.Fatalf("unexpected message: %q", got.Message)
	}

	// Input errors are never translated.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/codes/X/claim", bytes.NewBufferString(`{"device_id":""}`))
	req.Header.Set("Accept-Language", "fa")
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	mustStatus(t, rec, http.StatusBadRequest)
	if got := decode[apiv1.Error](t, rec); got.Reason != apiv1.INVALIDINPUT {
		t.Fatalf("unexpected reason: %+v", got)
	}
}
