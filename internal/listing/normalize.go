// Package listing provides list-response normalization and pagination
// windowing shared by every list endpoint and client of them.
package listing

import (
	"bytes"
	"encoding/json"
)

// Meta describes the pagination state of a list response.
type Meta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Page is the uniform shape every list payload is normalized into.
type Page[T any] struct {
	Items []T   `json:"items"`
	Meta  *Meta `json:"meta,omitempty"`
}

// envelope mirrors the paginated wire shape. Items stays raw so a
// malformed items field degrades to empty instead of failing the whole
// payload.
type envelope struct {
	Items json.RawMessage `json:"items"`
	Meta  *Meta           `json:"meta"`
}

// Normalize accepts a raw list payload that is either a bare JSON array,
// a paginated envelope ({"items": [...], "meta": {...}}), or null/empty,
// and returns the uniform Page shape. It is a total function: malformed
// input degrades to an empty item list, it never returns an error. This
// shields callers from response-shape drift at the cost of silently
// masking contract violations.
func Normalize[T any](payload json.RawMessage) Page[T] {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return Page[T]{Items: []T{}}
	}

	if payload[0] == '[' {
		var items []T
		if err := json.Unmarshal(payload, &items); err != nil || items == nil {
			return Page[T]{Items: []T{}}
		}
		return Page[T]{Items: items}
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Page[T]{Items: []T{}}
	}

	page := Page[T]{Items: []T{}, Meta: env.Meta}
	raw := bytes.TrimSpace(env.Items)
	if len(raw) == 0 || raw[0] != '[' {
		// Non-array items field is treated as empty
		return page
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return page
	}
	page.Items = items
	return page
}
