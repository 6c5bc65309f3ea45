// File: internal/infra/api/apiv1/server.go
package apiv1

//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen --config=oapi-codegen.yaml openapi.yaml

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"activation-gate/internal/domain"
	"activation-gate/internal/domain/model"
	"activation-gate/internal/infra/logging"
	"activation-gate/internal/usecase"
)

// Compile-time check
var _ ServerInterface = (*Server)(nil)

const maxBodyBytes = 64 << 10

// Authenticator issues and revokes admin sessions.
type Authenticator interface {
	Login(w http.ResponseWriter, apiKey string) (token string, expiresAt time.Time, err error)
	Logout(w http.ResponseWriter)
}

// Localizer renders a rejection message in the caller's language.
type Localizer interface {
	Message(acceptLanguage, key string) string
}

type Server struct {
	uc   usecase.ActivationUseCase
	auth Authenticator
	loc  Localizer
	log  *zerolog.Logger
}

// NewServer builds the v1 handler set. auth may be nil, in which case the
// login endpoints answer 401.
func NewServer(uc usecase.ActivationUseCase, auth Authenticator, logger *zerolog.Logger) *Server {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	l := logger.With().Str("component", "apiv1").Logger()
	return &Server{uc: uc, auth: auth, log: &l}
}

// WithLocalizer makes rejection messages follow the Accept-Language header.
// Invalid-input messages stay untranslated since they name the field.
func (s *Server) WithLocalizer(loc Localizer) *Server {
	s.loc = loc
	return s
}

// RegisterAPIV1 mounts the generated routes on r. The generated mux registers
// absolute paths (/api/v1/...), so r should be the root router.
func RegisterAPIV1(r chi.Router, srv *Server, mws ...MiddlewareFunc) {
	HandlerWithOptions(srv, ChiServerOptions{
		BaseRouter:  r,
		Middlewares: mws,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			writeError(w, r, srv.log, http.StatusBadRequest, &Error{Reason: INVALIDINPUT, Message: err.Error()})
		},
	})
}

// ---- end-user ----

func (s *Server) ValidateCode(w http.ResponseWriter, r *http.Request, code string) {
	var body ValidateCodeJSONRequestBody
	if !s.decode(w, r, &body) {
		return
	}
	v, err := s.uc.Validate(r.Context(), code, body.DeviceId)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Verdict{
		Allow:             v.Allow,
		Reason:            v.Reason,
		UsedAt:            v.UsedAt,
		BoundDeviceMasked: optString(v.BoundDeviceMasked),
	})
}

func (s *Server) ClaimCode(w http.ResponseWriter, r *http.Request, code string) {
	var body ClaimCodeJSONRequestBody
	if !s.decode(w, r, &body) {
		return
	}
	var clientCtx map[string]string
	if body.Context != nil {
		clientCtx = *body.Context
	}
	res, err := s.uc.Claim(r.Context(), code, body.DeviceId, clientCtx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	// Re-entry and the developer code answer 201 like a fresh claim; the
	// body flags tell them apart.
	writeJSON(w, http.StatusCreated, ClaimResult{
		Code:        res.Code,
		State:       CodeState(res.State),
		BoundDevice: res.BoundDevice.String(),
		UsedAt:      res.UsedAt,
		Reentry:     res.Reentry,
		Developer:   res.Developer,
	})
}

func (s *Server) GetCodeStatus(w http.ResponseWriter, r *http.Request, code string) {
	st, err := s.uc.Status(r.Context(), code)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CodeStatus{
		Code:              st.Code,
		State:             CodeState(st.State),
		UsedAt:            st.UsedAt,
		BoundDeviceMasked: optString(st.BoundDeviceMasked),
		Developer:         st.Developer,
	})
}

// ---- admin ----

func (s *Server) CreateCode(w http.ResponseWriter, r *http.Request) {
	var body CreateCodeJSONRequestBody
	if !s.decode(w, r, &body) {
		return
	}
	c, err := s.uc.Create(r.Context(), body.Code)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCode(c))
}

func (s *Server) GenerateCodes(w http.ResponseWriter, r *http.Request) {
	var body GenerateCodesJSONRequestBody
	if !s.decode(w, r, &body) {
		return
	}
	prefix := ""
	if body.Prefix != nil {
		prefix = *body.Prefix
	}
	batch, err := s.uc.Generate(r.Context(), body.Count, prefix)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := GenerateResponse{BatchId: batch.BatchID, Codes: make([]Code, 0, len(batch.Codes))}
	for _, c := range batch.Codes {
		out.Codes = append(out.Codes, toCode(c))
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) ResetCode(w http.ResponseWriter, r *http.Request, code string) {
	c, err := s.uc.Reset(r.Context(), code)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCode(c))
}

func (s *Server) DisableCode(w http.ResponseWriter, r *http.Request, code string) {
	c, err := s.uc.Disable(r.Context(), code)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCode(c))
}

func (s *Server) DeleteCode(w http.ResponseWriter, r *http.Request, code string) {
	if err := s.uc.Delete(r.Context(), code); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ListCodes(w http.ResponseWriter, r *http.Request, params ListCodesParams) {
	state, offset, limit := "", 0, 0
	if params.State != nil {
		state = string(*params.State)
	}
	if params.Offset != nil {
		offset = *params.Offset
	}
	if params.Limit != nil {
		limit = *params.Limit
	}
	items, total, err := s.uc.List(r.Context(), state, offset, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page := CodePage{Items: make([]Code, 0, len(items)), Total: total, Offset: offset, Limit: clampLimit(limit)}
	for _, c := range items {
		page.Items = append(page.Items, toCode(c))
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.uc.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	st := Stats{
		Available: counts[model.CodeStateAvailable],
		Used:      counts[model.CodeStateUsed],
		Disabled:  counts[model.CodeStateDisabled],
	}
	st.Total = st.Available + st.Used + st.Disabled
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) ListLogs(w http.ResponseWriter, r *http.Request, params ListLogsParams) {
	code, limit := "", 0
	if params.Code != nil {
		code = *params.Code
	}
	if params.Limit != nil {
		limit = *params.Limit
	}
	entries, err := s.uc.Logs(r.Context(), code, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page := LogPage{Items: make([]LogEntry, 0, len(entries))}
	for _, e := range entries {
		page.Items = append(page.Items, toLogEntry(e))
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var body AdminLoginJSONRequestBody
	if !s.decode(w, r, &body) {
		return
	}
	if s.auth == nil {
		s.fail(w, r, domain.ErrUnauthorized)
		return
	}
	token, exp, err := s.auth.Login(w, body.ApiKey)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info().Str("trace_id", logging.TraceIDFrom(r.Context())).Msg("admin login")
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: exp})
}

func (s *Server) AdminLogout(w http.ResponseWriter, r *http.Request) {
	if s.auth != nil {
		s.auth.Logout(w)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- helpers ----

// decode reads a JSON body. On failure it writes a 400 and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "missing request body"
		}
		writeError(w, r, s.log, http.StatusBadRequest, &Error{Reason: INVALIDINPUT, Message: msg})
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := toError(err)
	if s.loc != nil && body.Reason != INVALIDINPUT {
		key := messageKey(body.Reason, err)
		if msg := s.loc.Message(r.Header.Get("Accept-Language"), key); msg != key {
			body.Message = msg
		}
	}
	writeError(w, r, s.log, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, log *zerolog.Logger, status int, body *Error) {
	if status >= http.StatusInternalServerError {
		logging.With(r.Context(), log).Error().Str("reason", string(body.Reason)).Msg(body.Message)
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, body)
}

func toCode(c *model.ActivationCode) Code {
	out := Code{
		Code:      c.Code,
		State:     CodeState(c.State),
		UsedAt:    c.UsedAt,
		CreatedAt: c.CreatedAt,
		Version:   c.Version,
	}
	if c.BoundDevice != nil {
		d := c.BoundDevice.String()
		out.BoundDevice = &d
	}
	return out
}

func toLogEntry(e *model.LogEntry) LogEntry {
	out := LogEntry{
		Id:        e.ID,
		Code:      e.Code,
		Action:    LogEntryAction(e.Action),
		Actor:     LogEntryActor(e.Actor),
		Outcome:   LogEntryOutcome(e.Outcome),
		CreatedAt: e.CreatedAt,
	}
	if len(e.Context) > 0 {
		ctx := e.Context
		out.Context = &ctx
	}
	return out
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return usecase.DefaultPageSize
	case limit > usecase.MaxPageSize:
		return usecase.MaxPageSize
	}
	return limit
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
