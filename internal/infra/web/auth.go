package web

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"activation-gate/internal/config"
	"activation-gate/internal/domain"
	apiv1 "activation-gate/internal/infra/api/apiv1"
	"activation-gate/internal/infra/logging"
)

// ===== Session/JWT primitives =====

const (
	cookieName    = "admin_session"
	subjectAdmin  = "admin"
	subjectAPIKey = "api-key"
)

var _ apiv1.Authenticator = (*AuthManager)(nil)

type AuthConfig struct {
	APIKey       []byte
	HMACSecret   []byte
	CookieName   string
	CookieDomain string
	SecureCookie bool
	TTL          time.Duration
}

// AuthManager guards admin operations. A request is authenticated by either
// the raw API key or a session token minted by Login.
type AuthManager struct {
	cfg AuthConfig
	now func() time.Time
	log *zerolog.Logger
}

// NewAuthManager builds the admin guard. Without a JWT secret a random one is
// generated, so sessions do not survive a restart.
func NewAuthManager(cfg config.AdminConfig, logger *zerolog.Logger) (*AuthManager, error) {
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	l := logger.With().Str("component", "admin_auth").Logger()
	return &AuthManager{
		cfg: AuthConfig{
			APIKey:       []byte(cfg.APIKey),
			HMACSecret:   secret,
			CookieName:   cookieName,
			CookieDomain: cfg.CookieDomain,
			SecureCookie: cfg.SecureCookie,
			TTL:          ttl,
		},
		now: time.Now,
		log: &l,
	}, nil
}

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Login exchanges the API key for a session token, also set as a cookie.
func (a *AuthManager) Login(w http.ResponseWriter, apiKey string) (string, time.Time, error) {
	if !a.keyMatches(apiKey) {
		a.log.Warn().Msg("admin login rejected")
		return "", time.Time{}, domain.ErrUnauthorized
	}
	return a.Mint(w)
}

// Logout clears the session cookie. Bearer tokens stay valid until expiry.
func (a *AuthManager) Logout(w http.ResponseWriter) { a.Clear(w) }

func (a *AuthManager) Mint(w http.ResponseWriter) (string, time.Time, error) {
	now := a.now()
	exp := now.Add(a.cfg.TTL)
	claims := AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Subject:   subjectAdmin,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.cfg.HMACSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    signed,
		Path:     "/",
		Domain:   a.cfg.CookieDomain,
		MaxAge:   int(a.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	return signed, exp, nil
}

func (a *AuthManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   a.cfg.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

// Authenticate returns the admin subject for r.
func (a *AuthManager) Authenticate(r *http.Request) (string, error) {
	// Authorization: Bearer <api key | jwt>
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			return "", errors.New("unsupported authorization scheme")
		}
		tok := strings.TrimSpace(hdr[7:])
		if a.keyMatches(tok) {
			return subjectAPIKey, nil
		}
		return a.parse(tok)
	}
	// Cookie
	if c, err := r.Cookie(a.cfg.CookieName); err == nil {
		return a.parse(c.Value)
	}
	return "", errors.New("missing token")
}

func (a *AuthManager) parse(tok string) (string, error) {
	claims := &AdminClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.cfg.HMACSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil || !tkn.Valid || claims.Role != "admin" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

// keyMatches is false whenever no API key is configured.
func (a *AuthManager) keyMatches(key string) bool {
	if len(a.cfg.APIKey) == 0 || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare(a.cfg.APIKey, []byte(key)) == 1
}

// Middleware enforces authentication on operations the generated wrapper
// marked with BearerAuth scopes. Other operations pass through.
func (a *AuthManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, secured := r.Context().Value(apiv1.BearerAuthScopes).([]string); !secured {
			next.ServeHTTP(w, r)
			return
		}
		subject, err := a.Authenticate(r)
		if err != nil {
			logging.With(r.Context(), a.log).Debug().Err(err).Str("path", r.URL.Path).Msg("admin auth failed")
			w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
			apiv1.WriteError(w, http.StatusUnauthorized, apiv1.UNAUTHORIZED, "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(logging.WithAdmin(r.Context(), subject)))
	})
}
