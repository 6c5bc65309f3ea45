package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"activation-gate/internal/infra/api/apiv1"
	"activation-gate/internal/infra/metrics"
	"activation-gate/internal/infra/web"
	"activation-gate/internal/usecase"
)

// Pinger reports store reachability for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterDeps struct {
	UC              usecase.ActivationUseCase
	Auth            *web.AuthManager
	Limiter         Limiter
	ClaimsPerMinute int
	Store           Pinger
	Messages        apiv1.Localizer
	TrustProxy      bool
	RequestTimeout  time.Duration
	Logger          *zerolog.Logger
}

// NewRouter assembles the public HTTP surface: the v1 API, health and metrics.
func NewRouter(d RouterDeps) http.Handler {
	l := d.Logger.With().Str("component", "http").Logger()
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	r := chi.NewRouter()
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(TraceID(&l), RequestLog(&l), Recover(&l), Timeout(timeout))
	r.Use(RateLimit(d.Limiter, d.ClaimsPerMinute, &l))

	health := func(w http.ResponseWriter, r *http.Request) {
		if d.Store != nil {
			if err := d.Store.Ping(r.Context()); err != nil {
				l.Warn().Err(err).Msg("health check failed")
				http.Error(w, "store unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
	r.Get("/health", health)
	r.Get("/healthz", health)
	metrics.MustRegister()
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	var auth apiv1.Authenticator
	var mws []apiv1.MiddlewareFunc
	if d.Auth != nil {
		auth = d.Auth
		mws = append(mws, d.Auth.Middleware)
	} else {
		mws = append(mws, denySecured)
	}
	srv := apiv1.NewServer(d.UC, auth, &l)
	if d.Messages != nil {
		srv.WithLocalizer(d.Messages)
	}
	apiv1.RegisterAPIV1(r, srv, mws...)
	return r
}

// denySecured rejects admin operations when no authenticator is configured.
func denySecured(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, secured := r.Context().Value(apiv1.BearerAuthScopes).([]string); secured {
			apiv1.WriteError(w, http.StatusUnauthorized, apiv1.UNAUTHORIZED, "admin access is not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}
