package httphandler

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
)

// Request headers consumed by the gate stages.
const (
	headerSiteID     = "X-Site-Id"
	headerSiteSecret = "X-Site-Secret"
)

type contextKey int

const (
	claimsKey contextKey = iota
	tokenKey
)

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and delegates to the embedded writer.
func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware logs each HTTP request with method, path, status, and duration.
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start).Round(time.Microsecond),
			"remote", r.RemoteAddr,
		)
	})
}

// recoveryMiddleware recovers from panics in HTTP handlers, logs the error,
// and returns a 500 response.
func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("panic recovered",
					"panic", v,
					"path", r.URL.Path,
				)
				writeError(w, http.StatusInternalServerError, model.KindInternal, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// corsMiddleware answers preflight requests and sets the CORS response
// headers for origins in the allow list. A "*" entry allows any origin.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowAny := slices.Contains(origins, "*")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowAny || slices.Contains(origins, origin)) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers",
				strings.Join([]string{"Authorization", "Content-Type", headerSiteID, headerSiteSecret}, ", "))
			h.Set("Access-Control-Max-Age", "600")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// requireSite is the first per-route stage: the request must carry the id
// and secret of an active site.
func (h *Handler) requireSite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, err := h.gate.CheckAccess(r.Context(), r.Header.Get(headerSiteID), r.Header.Get(headerSiteSecret))
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		if !ok {
			writeError(w, http.StatusUnauthorized, model.KindUnauthorizedAccess, model.ErrUnauthorizedAccess.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireToken is the second per-route stage. It runs only after the site
// gate and stores the verified claims in the request context.
func (h *Handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, model.KindInvalidToken, "missing bearer token")
			return
		}

		claims, err := h.tokens.Verify(r.Context(), token)
		if err != nil {
			if model.KindOf(err) == model.KindInvalidToken {
				writeError(w, http.StatusUnauthorized, model.KindInvalidToken, model.ErrInvalidToken.Error())
				return
			}
			h.writeDomainError(w, r, err)
			return
		}

		h.logger.Debug("token accepted", "user_id", claims.UserID, "username", claims.Username)

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		ctx = context.WithValue(ctx, tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func claimsFromContext(ctx context.Context) *model.TokenClaims {
	c, _ := ctx.Value(claimsKey).(*model.TokenClaims)
	return c
}

func tokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

// clientIP returns the address recorded against issued tokens. The first
// X-Forwarded-For hop is used only when the server sits behind a trusted proxy.
func (h *Handler) clientIP(r *http.Request) string {
	if h.opts.TrustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
