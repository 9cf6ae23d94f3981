package httphandler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
)

// ListCustomers returns one page of customers, optionally filtered by name.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	req, err := parsePageRequest(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	page, err := h.customers.List(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPageResponse(page, toCustomerResponse))
}

// GetCustomer returns a single customer.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	c, err := h.customers.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCustomerResponse(c))
}

// CreateCustomer adds a customer.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	c, err := h.customers.Create(r.Context(), req.toModel())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCustomerResponse(c))
}

// UpdateCustomer replaces a customer. An identical body is rejected with
// no_changes.
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	var req CustomerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := checkBodyID(id, req.ID); err != nil {
		writeBadRequest(w, err)
		return
	}

	c, err := h.customers.Update(r.Context(), id, req.toModel())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCustomerResponse(c))
}

// DeleteCustomer removes a customer and its posts.
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := h.customers.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListCustomerPosts returns the posts owned by a customer.
func (h *Handler) ListCustomerPosts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	posts, err := h.posts.ListByCustomer(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponses(posts))
}

// ListPosts returns one page of posts, optionally filtered by title.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	req, err := parsePageRequest(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	page, err := h.posts.List(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPageResponse(page, toPostResponse))
}

// SearchPosts returns posts whose title or body contains q.
func (h *Handler) SearchPosts(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		writeBadRequest(w, errors.New("q: cannot be blank"))
		return
	}

	posts, err := h.posts.Search(r.Context(), term)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponses(posts))
}

// GetPost returns a single post.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	p, err := h.posts.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(p))
}

// CreatePost adds a post after applying the publishing rules.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req PostRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	p, err := h.posts.Create(r.Context(), req.toModel())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPostResponse(p))
}

// CreatePostBatch creates many posts in one call. Items that fail validation
// or creation are reported individually; the rest are still created.
func (h *Handler) CreatePostBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []PostRequest
	if err := decodeBody(w, r, (*postBatch)(&reqs)); err != nil {
		writeBadRequest(w, err)
		return
	}

	results := make([]BatchItemResponse, len(reqs))
	valid := make([]model.Post, 0, len(reqs))
	positions := make([]int, 0, len(reqs))

	for i, req := range reqs {
		results[i].Index = i
		if err := req.Validate(); err != nil {
			results[i].Error = &errorResponse{Error: err.Error(), Code: string(model.KindInvalidRequest)}
			continue
		}
		valid = append(valid, req.toModel())
		positions = append(positions, i)
	}

	resp := BatchResponse{Results: results}
	for _, res := range h.posts.CreateBatch(r.Context(), valid) {
		item := &resp.Results[positions[res.Index]]
		if res.Err != nil {
			kind := model.KindOf(res.Err)
			msg := res.Err.Error()
			if kind == model.KindInternal {
				h.logger.Error("batch item failed", "index", item.Index, "error", res.Err)
				msg = "internal server error"
			}
			item.Error = &errorResponse{Error: msg, Code: string(kind)}
			continue
		}
		p := toPostResponse(*res.Post)
		item.Post = &p
	}

	for _, item := range resp.Results {
		if item.Error != nil {
			resp.Failed++
		} else {
			resp.Created++
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdatePost replaces a post. A body that is identical after the publishing
// rules are applied is rejected with no_changes.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	var req PostRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := checkBodyID(id, req.ID); err != nil {
		writeBadRequest(w, err)
		return
	}

	p, err := h.posts.Update(r.Context(), id, req.toModel())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(p))
}

// DeletePost removes a post.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := h.posts.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
