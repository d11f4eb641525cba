// ABOUTME: Tests for Item model helpers
// ABOUTME: Verifies validation, short ids, and label name extraction

package models

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestItem_Validate(t *testing.T) {
	tests := []struct {
		name    string
		item    Item
		wantErr bool
	}{
		{
			name:    "valid text item",
			item:    Item{Content: "buy milk", ContentType: ContentText},
			wantErr: false,
		},
		{
			name:    "empty content",
			item:    Item{Content: "", ContentType: ContentText},
			wantErr: true,
		},
		{
			name:    "whitespace content",
			item:    Item{Content: " \n\t ", ContentType: ContentText},
			wantErr: true,
		},
		{
			name:    "custom content type",
			item:    Item{Content: "voice memo", ContentType: "audio"},
			wantErr: false,
		},
		{
			name:    "content type too long",
			item:    Item{Content: "x", ContentType: ContentType(strings.Repeat("a", 51))},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestShortID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"abcdef12-3456-7890-abcd-ef1234567890", "abcdef12"},
		{"abc", "abc"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ShortID(tt.id); got != tt.want {
			t.Errorf("ShortID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestItem_Names(t *testing.T) {
	item := &Item{
		Categories: []Category{{Name: "work"}, {Name: "ideas"}},
		Tags:       []Tag{{Name: "go"}},
	}

	if got := item.CategoryNames(); !reflect.DeepEqual(got, []string{"work", "ideas"}) {
		t.Errorf("CategoryNames() = %v", got)
	}
	if got := item.TagNames(); !reflect.DeepEqual(got, []string{"go"}) {
		t.Errorf("TagNames() = %v", got)
	}

	empty := &Item{}
	if got := empty.CategoryNames(); len(got) != 0 {
		t.Errorf("CategoryNames() on empty item = %v, want empty", got)
	}
	if empty.HasEmbedding() {
		t.Error("HasEmbedding() should be false without a vector")
	}
}
