package httphandler

import (
	"net/http"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
)

// Login authenticates a user and returns a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	session, err := h.auth.Login(r.Context(), req.Username, req.Password, h.clientIP(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session, h.tokens.TTL()))
}

// Register creates a new account. The caller must already hold a valid token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	profile, err := h.auth.Register(r.Context(), req.toModel())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProfileResponse(profile))
}

// Validate returns the profile of the token's subject.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	profile, err := h.auth.LookupByID(r.Context(), claims.UserID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, model.KindNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(*profile))
}

// Logout revokes the token presented with the request.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), tokenFromContext(r.Context())); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListTokens returns the ledger entries of the calling user.
func (h *Handler) ListTokens(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	tokens, err := h.tokens.ListForSubject(r.Context(), claims.UserID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := make([]IssuedTokenResponse, 0, len(tokens))
	for _, t := range tokens {
		resp = append(resp, toIssuedTokenResponse(t, claims.TokenID))
	}

	writeJSON(w, http.StatusOK, resp)
}
