package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
	"github.com/sngm3741/bean-beacon-services/api/internal/infrastructure/jwtauth"
	"github.com/sngm3741/bean-beacon-services/api/internal/interfaces/http/common"
	"github.com/sngm3741/bean-beacon-services/api/internal/logging"
	"github.com/sngm3741/bean-beacon-services/api/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

type tokenParser interface {
	Parse(token string) (*jwtauth.Claims, error)
}

// requestID reuses an incoming X-Request-ID or generates one, and stores it
// in the request context for logging.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = logging.GenerateRequestID()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

// accessLog writes one structured line per request and records HTTP metrics
// by route pattern.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		elapsed := time.Since(start)
		metrics.RecordHTTPRequest(r.Method, route, status, elapsed)

		logging.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", elapsed).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

// authMiddleware は Authorization ヘッダーの JWT を検証し、認証済みユーザーをコンテキストへ詰める。
// required=false の場合、トークンが無い・不正なリクエストも匿名のまま通す。
func authMiddleware(tokens tokenParser, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r.Header.Get("Authorization"))
			if err == nil {
				var claims *jwtauth.Claims
				if claims, err = tokens.Parse(tokenString); err == nil {
					user := common.AuthenticatedUser{
						ID:    claims.Subject,
						Name:  claims.Name,
						Email: claims.Email,
					}
					next.ServeHTTP(w, r.WithContext(common.ContextWithUser(r.Context(), user)))
					return
				}
				err = apperror.Unauthorized("invalid token")
			}

			if required {
				common.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", apperror.Unauthorized("no token provided")
	}
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", apperror.Unauthorized("bearer token required")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return "", apperror.Unauthorized("access token is empty")
	}
	return token, nil
}
