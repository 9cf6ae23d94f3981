package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error","code":"internal"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code, reason
// code and message.
func writeError(w http.ResponseWriter, status int, code model.ErrorKind, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: string(code)})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusForKind maps an error kind onto its HTTP status.
func statusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.KindUnauthorizedAccess, model.KindInvalidToken, model.KindInvalidCredentials:
		return http.StatusUnauthorized
	case model.KindDuplicateUsername, model.KindDuplicateEmail:
		return http.StatusConflict
	case model.KindNoChanges, model.KindInvalidRequest:
		return http.StatusBadRequest
	case model.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError classifies err and writes the matching response. Internal
// failures are logged and answered with a generic message.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	kind := model.KindOf(err)
	status := statusForKind(kind)

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, status, model.KindInternal, "internal server error")
		return
	}

	writeError(w, status, kind, err.Error())
}

// HealthResponse is the JSON representation of the liveness endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// AuthHealthResponse is returned by the gated auth health endpoint.
type AuthHealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// ProfileResponse is the JSON representation of a user profile.
type ProfileResponse struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	RoleID       int64   `json:"role_id"`
	RoleName     string  `json:"role_name"`
	Active       bool    `json:"active"`
	CreatedAt    string  `json:"created_at"`
	LastAccessAt *string `json:"last_access_at"`
}

// SessionResponse is the JSON body of a successful login.
type SessionResponse struct {
	Token     string          `json:"token"`
	TokenType string          `json:"token_type"`
	ExpiresAt string          `json:"expires_at"`
	ExpiresIn int64           `json:"expires_in"`
	User      ProfileResponse `json:"user"`
}

// IssuedTokenResponse is one entry of the caller's token audit list. The
// token value itself is never echoed back.
type IssuedTokenResponse struct {
	ID        string `json:"id"`
	SourceIP  string `json:"source_ip"`
	IssuedAt  string `json:"issued_at"`
	ExpiresAt string `json:"expires_at"`
	Current   bool   `json:"current"`
}

// CustomerResponse is the JSON representation of a customer.
type CustomerResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PostResponse is the JSON representation of a post. BodyHTML is the body
// rendered as sanitized markdown.
type PostResponse struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	BodyHTML   string `json:"body_html"`
	Type       int    `json:"type"`
	Category   string `json:"category"`
	CustomerID int64  `json:"customer_id"`
}

// PageResponse wraps one page of a listing.
type PageResponse[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// BatchItemResponse is the outcome of one item of a bulk create.
type BatchItemResponse struct {
	Index int            `json:"index"`
	Post  *PostResponse  `json:"post,omitempty"`
	Error *errorResponse `json:"error,omitempty"`
}

// BatchResponse summarizes a bulk create.
type BatchResponse struct {
	Created int                 `json:"created"`
	Failed  int                 `json:"failed"`
	Results []BatchItemResponse `json:"results"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toProfileResponse(p model.UserProfile) ProfileResponse {
	resp := ProfileResponse{
		ID:        p.ID,
		Username:  p.Username,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		RoleID:    p.RoleID,
		RoleName:  p.RoleName,
		Active:    p.Active,
		CreatedAt: formatTime(p.CreatedAt),
	}
	if p.LastAccessAt != nil {
		s := formatTime(*p.LastAccessAt)
		resp.LastAccessAt = &s
	}
	return resp
}

func toSessionResponse(s model.Session, ttl time.Duration) SessionResponse {
	return SessionResponse{
		Token:     s.Token,
		TokenType: "Bearer",
		ExpiresAt: formatTime(s.ExpiresAt),
		ExpiresIn: int64(ttl / time.Second),
		User:      toProfileResponse(s.Profile),
	}
}

func toIssuedTokenResponse(t model.IssuedToken, currentID string) IssuedTokenResponse {
	return IssuedTokenResponse{
		ID:        t.ID,
		SourceIP:  t.SourceIP,
		IssuedAt:  formatTime(t.IssuedAt),
		ExpiresAt: formatTime(t.ExpiresAt),
		Current:   t.ID == currentID,
	}
}

func toCustomerResponse(c model.Customer) CustomerResponse {
	return CustomerResponse{ID: c.ID, Name: c.Name}
}

func toPostResponse(p model.Post) PostResponse {
	return PostResponse{
		ID:         p.ID,
		Title:      p.Title,
		Body:       p.Body,
		BodyHTML:   renderMarkdown(p.Body),
		Type:       int(p.Type),
		Category:   p.Category,
		CustomerID: p.CustomerID,
	}
}

func toPostResponses(posts []model.Post) []PostResponse {
	resp := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		resp = append(resp, toPostResponse(p))
	}
	return resp
}

func toPageResponse[T, R any](page model.Page[T], conv func(T) R) PageResponse[R] {
	items := make([]R, 0, len(page.Items))
	for _, it := range page.Items {
		items = append(items, conv(it))
	}
	return PageResponse[R]{
		Items:      items,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages(),
	}
}
