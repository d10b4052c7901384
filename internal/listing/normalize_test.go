package listing

import (
	"encoding/json"
	"testing"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantItems int
		wantMeta  bool
	}{
		{"nil payload", "", 0, false},
		{"json null", "null", 0, false},
		{"bare empty array", "[]", 0, false},
		{"bare array", `[{"id":1,"name":"a"},{"id":2,"name":"b"}]`, 2, false},
		{"envelope with items and meta", `{"items":[{"id":1,"name":"a"}],"meta":{"page":2,"page_size":10,"total_items":11,"total_pages":2}}`, 1, true},
		{"envelope without meta", `{"items":[{"id":1,"name":"a"}]}`, 1, false},
		{"envelope with null items", `{"items":null,"meta":{"page":1}}`, 0, true},
		{"envelope with non-array items", `{"items":"oops","meta":{"page":1}}`, 0, true},
		{"envelope with extra fields", `{"items":[{"id":3,"name":"c"}],"status":"ok","count":1}`, 1, false},
		{"object without items", `{"message":"no content"}`, 0, false},
		{"malformed json", `{"items":[`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload json.RawMessage
			if tt.payload != "" {
				payload = json.RawMessage(tt.payload)
			}
			page := Normalize[item](payload)
			if page.Items == nil {
				t.Fatal("Normalize() returned nil Items, want non-nil slice")
			}
			if len(page.Items) != tt.wantItems {
				t.Errorf("len(Items) = %d, want %d", len(page.Items), tt.wantItems)
			}
			if (page.Meta != nil) != tt.wantMeta {
				t.Errorf("Meta presence = %v, want %v", page.Meta != nil, tt.wantMeta)
			}
		})
	}
}

func TestNormalizePreservesItemOrder(t *testing.T) {
	page := Normalize[item](json.RawMessage(`[{"id":3,"name":"c"},{"id":1,"name":"a"}]`))
	if len(page.Items) != 2 || page.Items[0].ID != 3 || page.Items[1].ID != 1 {
		t.Errorf("Normalize() reordered items: %+v", page.Items)
	}
}

func TestNormalizeMetaPassthrough(t *testing.T) {
	page := Normalize[item](json.RawMessage(`{"items":[],"meta":{"page":3,"page_size":20,"total_items":41,"total_pages":3}}`))
	if page.Meta == nil {
		t.Fatal("Meta = nil, want populated")
	}
	if page.Meta.Page != 3 || page.Meta.PageSize != 20 || page.Meta.TotalItems != 41 || page.Meta.TotalPages != 3 {
		t.Errorf("Meta = %+v, want {3 20 41 3}", *page.Meta)
	}
}
