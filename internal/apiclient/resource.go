package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Resource is a typed CRUD client for one backend collection. Each operation
// is exactly one round trip; idempotence is the server's business.
type Resource[T any] struct {
	c    *Client
	path string // collection path, e.g. "/api/topics"
	name string // member name used by the legacy envelope, e.g. "topics"
}

// NewResource builds a resource client for a collection path. name is the
// key older backend builds wrap list responses under.
func NewResource[T any](c *Client, path, name string) *Resource[T] {
	return &Resource[T]{c: c, path: path, name: name}
}

// ListAll fetches the whole collection, accepting any of the three response
// envelopes the backend has shipped over time: a bare array, {"data": [...]},
// or {"<name>": [...]}.
func (r *Resource[T]) ListAll(ctx context.Context) ([]T, error) {
	raw, err := r.c.do(ctx, http.MethodGet, r.path, nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[T](raw, r.name)
}

// GetByID fetches a single record.
func (r *Resource[T]) GetByID(ctx context.Context, id int) (T, error) {
	var rec T
	raw, err := r.c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", r.path, id), nil)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(unwrapData(raw), &rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// Create posts a full payload and returns the stored record.
func (r *Resource[T]) Create(ctx context.Context, payload any) (T, error) {
	var rec T
	raw, err := r.c.do(ctx, http.MethodPost, r.path, payload)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(unwrapData(raw), &rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// Update patches a record. Only keys present in patch are sent, so the server
// leaves every other field untouched; omission, not null, means "no change".
func (r *Resource[T]) Update(ctx context.Context, id int, patch map[string]any) (T, error) {
	var rec T
	raw, err := r.c.do(ctx, http.MethodPatch, fmt.Sprintf("%s/%d", r.path, id), patch)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(unwrapData(raw), &rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// Remove deletes a record.
func (r *Resource[T]) Remove(ctx context.Context, id int) error {
	_, err := r.c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", r.path, id), nil)
	return err
}

// decodeCollection resolves the list-envelope union into a plain slice.
func decodeCollection[T any](raw []byte, name string) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("unrecognized list response: %w", err)
	}
	member, ok := envelope["data"]
	if !ok {
		member, ok = envelope[name]
	}
	if !ok {
		return nil, fmt.Errorf("list response has neither %q nor %q member", "data", name)
	}
	var items []T
	if err := json.Unmarshal(member, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// unwrapData strips a {"data": ...} envelope when present; any other shape is
// returned as-is.
func unwrapData(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return trimmed
	}
	if len(bytes.TrimSpace(envelope.Data)) == 0 {
		return trimmed
	}
	return envelope.Data
}
