// Package httphandler implements the JSON REST driving adapter.
package httphandler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/gatekeep/internal/application"
)

// Options are the immutable HTTP-level settings of a Handler.
type Options struct {
	// TrustProxy takes the client address from X-Forwarded-For.
	TrustProxy bool
	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string
	// Version is reported by the auth health endpoint.
	Version string
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	gate      *application.AccessGate
	tokens    *application.TokenService
	auth      *application.AuthService
	customers *application.CustomerService
	posts     *application.PostService
	opts      Options
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	gate *application.AccessGate,
	tokens *application.TokenService,
	auth *application.AuthService,
	customers *application.CustomerService,
	posts *application.PostService,
	opts Options,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		gate:      gate,
		tokens:    tokens,
		auth:      auth,
		customers: customers,
		posts:     posts,
		opts:      opts,
		logger:    logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered. Every gated
// route runs the site gate before token verification; the whole mux is
// wrapped with recovery, logging and CORS middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	site := func(fn http.HandlerFunc) http.Handler { return h.requireSite(fn) }
	authed := func(fn http.HandlerFunc) http.Handler { return h.requireSite(h.requireToken(fn)) }

	mux.HandleFunc("GET /api/v1/health", h.Health)

	mux.Handle("GET /api/v1/auth/health", site(h.AuthHealth))
	mux.Handle("POST /api/v1/auth/login", site(h.Login))
	mux.Handle("POST /api/v1/auth/register", authed(h.Register))
	mux.Handle("GET /api/v1/auth/validate", authed(h.Validate))
	mux.Handle("POST /api/v1/auth/logout", authed(h.Logout))
	mux.Handle("GET /api/v1/auth/tokens", authed(h.ListTokens))

	mux.Handle("GET /api/v1/customers", authed(h.ListCustomers))
	mux.Handle("POST /api/v1/customers", authed(h.CreateCustomer))
	mux.Handle("GET /api/v1/customers/{id}", authed(h.GetCustomer))
	mux.Handle("PUT /api/v1/customers/{id}", authed(h.UpdateCustomer))
	mux.Handle("DELETE /api/v1/customers/{id}", authed(h.DeleteCustomer))
	mux.Handle("GET /api/v1/customers/{id}/posts", authed(h.ListCustomerPosts))

	mux.Handle("GET /api/v1/posts", authed(h.ListPosts))
	mux.Handle("POST /api/v1/posts", authed(h.CreatePost))
	mux.Handle("GET /api/v1/posts/search", authed(h.SearchPosts))
	mux.Handle("POST /api/v1/posts/batch", authed(h.CreatePostBatch))
	mux.Handle("GET /api/v1/posts/{id}", authed(h.GetPost))
	mux.Handle("PUT /api/v1/posts/{id}", authed(h.UpdatePost))
	mux.Handle("DELETE /api/v1/posts/{id}", authed(h.DeletePost))

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = corsMiddleware(h.opts.CORSOrigins, wrapped)

	return wrapped
}

// Health returns a simple liveness response. It is not gated so container
// probes can reach it.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   formatTime(time.Now()),
	})
}

// AuthHealth confirms the caller's site credentials are accepted.
func (h *Handler) AuthHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, AuthHealthResponse{
		Status:    "Healthy",
		Version:   h.opts.Version,
		Timestamp: formatTime(time.Now()),
	})
}
