package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
)

// maxBodyBytes caps request bodies read by decodeBody.
const maxBodyBytes = 1 << 20

// maxBatchSize is the largest number of posts accepted by one bulk create.
const maxBatchSize = 100

// errInvalidBody is reported for bodies that are not the expected JSON shape.
var errInvalidBody = errors.New("invalid request body")

// LoginRequest is the JSON body for the login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate implements validation.Validatable.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegisterRequest is the JSON body for the register endpoint.
type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	RoleID    int64  `json:"role_id"`
}

// Validate implements validation.Validatable.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 250)),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(1, 100), is.Email),
		validation.Field(&r.RoleID, validation.Required, validation.Min(int64(1))),
	)
}

func (r RegisterRequest) toModel() model.Registration {
	return model.Registration{
		Username:  r.Username,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		RoleID:    r.RoleID,
	}
}

// CustomerRequest is the JSON body for customer create and update. ID is
// optional; on update it must match the id in the path when present.
type CustomerRequest struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Validate implements validation.Validatable.
func (r CustomerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, model.CustomerNameMaxLen)),
	)
}

func (r CustomerRequest) toModel() model.Customer {
	return model.Customer{ID: r.ID, Name: r.Name}
}

// PostRequest is the JSON body for post create and update.
type PostRequest struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Type       int    `json:"type"`
	Category   string `json:"category"`
	CustomerID int64  `json:"customer_id"`
}

// Validate implements validation.Validatable.
func (r PostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Type, validation.Min(0)),
		validation.Field(&r.CustomerID, validation.Required, validation.Min(int64(1))),
	)
}

func (r PostRequest) toModel() model.Post {
	return model.Post{
		ID:         r.ID,
		Title:      r.Title,
		Body:       r.Body,
		Type:       model.PostType(r.Type),
		Category:   r.Category,
		CustomerID: r.CustomerID,
	}
}

// postBatch is the body of a bulk create. Only the batch size is checked
// here; items are validated one by one so a bad item does not sink the rest.
type postBatch []PostRequest

// Validate implements validation.Validatable.
func (b postBatch) Validate() error {
	if len(b) == 0 {
		return errors.New("posts: cannot be blank")
	}
	if len(b) > maxBatchSize {
		return fmt.Errorf("posts: at most %d items per batch", maxBatchSize)
	}
	return nil
}

// pageQuery holds the raw paging parameters of a list request.
type pageQuery struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Validate implements validation.Validatable.
func (q pageQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Page, validation.Min(1), validation.Max(model.MaxPage)),
		validation.Field(&q.PageSize, validation.Min(1), validation.Max(model.MaxPageSize)),
	)
}

// decodeBody reads a JSON body into v and runs its validation rules.
func decodeBody(w http.ResponseWriter, r *http.Request, v validation.Validatable) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errInvalidBody
	}
	return v.Validate()
}

// parsePageRequest reads page, page_size and q from the query string.
// Missing values default to the first page of DefaultPageSize items.
func parsePageRequest(r *http.Request) (model.PageRequest, error) {
	values := r.URL.Query()
	q := pageQuery{Page: 1, PageSize: model.DefaultPageSize}

	if raw := values.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return model.PageRequest{}, errors.New("page: must be an integer")
		}
		q.Page = n
	}
	if raw := values.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return model.PageRequest{}, errors.New("page_size: must be an integer")
		}
		q.PageSize = n
	}
	if err := q.Validate(); err != nil {
		return model.PageRequest{}, err
	}

	return model.PageRequest{
		Page:     q.Page,
		PageSize: q.PageSize,
		Query:    strings.TrimSpace(values.Get("q")),
	}, nil
}

// pathID parses a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s: must be a positive integer", name)
	}
	return id, nil
}

// checkBodyID rejects a body id that disagrees with the path id.
func checkBodyID(pathID, bodyID int64) error {
	if bodyID != 0 && bodyID != pathID {
		return fmt.Errorf("id mismatch: path %d, body %d", pathID, bodyID)
	}
	return nil
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, model.KindInvalidRequest, err.Error())
}
