package apiapp

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	authsvc "github.com/ivankudzin/orgreviews/internal/services/auth"
	"github.com/ivankudzin/orgreviews/internal/services/rate"
	httperrors "github.com/ivankudzin/orgreviews/internal/transport/http/errors"
)

type chiRouter interface {
	Use(middlewares ...func(http.Handler) http.Handler)
}

type sessionValidator interface {
	ValidateAccessToken(ctx context.Context, accessToken string) (authsvc.Identity, error)
	ValidateSession(ctx context.Context, sid string) (authsvc.Identity, error)
}

func ApplyMiddlewares(r chiRouter, log *zap.Logger, metrics *Metrics) {
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(requestLogger(log))
	if metrics != nil {
		r.Use(metrics.Middleware)
	}
}

// Authenticator resolves the caller from a bearer token or, failing that,
// from the session cookie.
type Authenticator struct {
	sessions sessionValidator
	cookies  *authsvc.CookieCodec
	logger   *zap.Logger
}

func NewAuthenticator(sessions sessionValidator, cookies *authsvc.CookieCodec, log *zap.Logger) *Authenticator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Authenticator{sessions: sessions, cookies: cookies, logger: log}
}

// Require rejects requests without a valid session.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.resolve(r)
		if err != nil {
			a.logger.Debug("auth middleware validation failed", zap.Error(err))
			httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{
				Code:    httperrors.CodeUnauthenticated,
				Message: "authentication required",
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(authsvc.WithIdentity(r.Context(), identity)))
	})
}

// Optional attaches the identity when the request carries a valid session
// and lets anonymous requests through untouched.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, err := a.resolve(r); err == nil {
			r = r.WithContext(authsvc.WithIdentity(r.Context(), identity))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireModerator must run after Require.
func RequireModerator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := authsvc.RequireModerator(r.Context()); err != nil {
			httperrors.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) resolve(r *http.Request) (authsvc.Identity, error) {
	if a.sessions == nil {
		return authsvc.Identity{}, authsvc.ErrUnauthenticated
	}
	if token, ok := extractBearerToken(r.Header.Get("Authorization")); ok {
		return a.sessions.ValidateAccessToken(r.Context(), token)
	}
	if a.cookies != nil {
		sid, err := a.cookies.Read(r)
		if err != nil {
			return authsvc.Identity{}, err
		}
		return a.sessions.ValidateSession(r.Context(), sid)
	}
	return authsvc.Identity{}, authsvc.ErrUnauthenticated
}

func extractBearerToken(value string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// RateLimit throttles by client address. Limiter failures let the request
// through.
func RateLimit(limiter *rate.Limiter, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !limiter.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			retryAfter, allowed, err := limiter.Allow(r.Context(), clientAddr(r))
			if err != nil {
				if log != nil {
					log.Warn("rate limiter unavailable", zap.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				sec := int64(retryAfter / time.Second)
				w.Header().Set("Retry-After", strconv.FormatInt(sec, 10))
				httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
					Code:          httperrors.CodeRateLimited,
					Message:       "too many attempts",
					RetryAfterSec: sec,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}
	return r.RemoteAddr
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if log != nil {
				log.Info("http_request",
					zap.String("request_id", chimiddleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("route", routePattern(r)),
					zap.Int("status", statusOf(ww)),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

func statusOf(ww chimiddleware.WrapResponseWriter) int {
	if status := ww.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}
