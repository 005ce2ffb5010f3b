package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nhle/hr-console/internal/model"
)

// ListParams controls pagination and filtering for list calls.
type ListParams struct {
	Page    int
	PerPage int
	Search  string
	Filters map[string]string
}

// Values encodes the params as a query string.
func (p ListParams) Values() url.Values {
	v := p.signatureValues()
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	return v
}

// Signature identifies the query independently of the page number, so
// that every page of one query shares a pagination window.
func (p ListParams) Signature() string {
	return p.signatureValues().Encode()
}

// WithPage returns a copy of p pointing at page n.
func (p ListParams) WithPage(n int) ListParams {
	p.Page = n
	return p
}

func (p ListParams) signatureValues() url.Values {
	v := url.Values{}
	if p.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(p.PerPage))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	for k, val := range p.Filters {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v
}

// ListResponse is the paginated list envelope.
type ListResponse[T any] struct {
	Data        []T `json:"data"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// Pagination extracts the page window exactly as reported by the server.
func (r ListResponse[T]) Pagination() model.Pagination {
	return model.Pagination{
		CurrentPage: r.CurrentPage,
		LastPage:    r.LastPage,
		PerPage:     r.PerPage,
		Total:       r.Total,
	}
}

// ItemResponse wraps a single record.
type ItemResponse[T any] struct {
	Data T `json:"data"`
}

// MutationResponse is returned by create, update and delete.
type MutationResponse[T any] struct {
	Data    *T     `json:"data"`
	Message string `json:"message"`
}

// Resource exposes CRUD calls for one entity endpoint.
type Resource[T any] struct {
	client *Client
	path   string
}

// NewResource binds an entity endpoint (e.g. "/employees") to the client.
func NewResource[T any](client *Client, path string) *Resource[T] {
	return &Resource[T]{client: client, path: path}
}

// List fetches one page.
func (r *Resource[T]) List(ctx context.Context, params ListParams) (*ListResponse[T], error) {
	path := r.path
	if q := params.Values().Encode(); q != "" {
		path += "?" + q
	}
	var resp ListResponse[T]
	if err := r.client.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Get fetches one record.
func (r *Resource[T]) Get(ctx context.Context, id int64) (*T, error) {
	var resp ItemResponse[T]
	if err := r.client.Get(ctx, r.itemPath(id), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Create posts a new record.
func (r *Resource[T]) Create(ctx context.Context, payload interface{}) (*MutationResponse[T], error) {
	var resp MutationResponse[T]
	if err := r.client.Post(ctx, r.path, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Update replaces a record.
func (r *Resource[T]) Update(ctx context.Context, id int64, payload interface{}) (*MutationResponse[T], error) {
	var resp MutationResponse[T]
	if err := r.client.Put(ctx, r.itemPath(id), payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Delete removes a record.
func (r *Resource[T]) Delete(ctx context.Context, id int64) (*MutationResponse[T], error) {
	var resp MutationResponse[T]
	if err := r.client.Delete(ctx, r.itemPath(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *Resource[T]) itemPath(id int64) string {
	return fmt.Sprintf("%s/%d", r.path, id)
}

// EntityPath returns the API path of an entity.
func EntityPath(e model.Entity) string {
	switch e {
	case model.EntityEmployees:
		return "/employees"
	case model.EntityDepartments:
		return "/departments"
	case model.EntityJobTitles:
		return "/job-titles"
	case model.EntityShifts:
		return "/shifts"
	case model.EntityLeaveRequests:
		return "/leave-requests"
	case model.EntitySalaries:
		return "/salaries"
	case model.EntityPayslips:
		return "/payslips"
	default:
		return "/" + string(e)
	}
}
