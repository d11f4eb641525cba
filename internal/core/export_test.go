// ABOUTME: Tests for item export encodings and format parsing
// ABOUTME: Decodes the produced bytes to check record layout and ordering
package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/harper/stash/internal/llm"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		allowed []Format
		want    Format
		wantErr bool
	}{
		{"json", []Format{FormatJSON, FormatCSV}, FormatJSON, false},
		{" CSV ", []Format{FormatJSON, FormatCSV}, FormatCSV, false},
		{"yml", []Format{FormatYAML}, FormatYAML, false},
		{"yaml", []Format{FormatJSON, FormatCSV}, "", true},
		{"xml", []Format{FormatJSON, FormatCSV, FormatYAML}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in, tt.allowed...)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("ParseFormat(%q) error = %v, want ErrUnsupportedFormat", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormat(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func seedExportItems(t *testing.T) *ItemService {
	t.Helper()
	ai := &fakeProvider{labels: map[string]string{"first, with comma": "work", "second": "ideas"}}
	svc := NewItemService(newTestStore(t), ai, quiet())
	ctx := context.Background()

	first, err := svc.CreateItem(ctx, NewItem{Content: "first, with comma"})
	if err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}
	if _, err := svc.AddTags(ctx, first.ID, []string{"a", "b"}); err != nil {
		t.Fatalf("AddTags() error = %v", err)
	}
	if _, err := svc.CreateItem(ctx, NewItem{Content: "second", ContentType: "url", URL: "https://example.com"}); err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}
	return svc
}

func TestExportItems_JSON(t *testing.T) {
	svc := seedExportItems(t)

	exp, err := svc.Export(context.Background(), "json")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if exp.Filename != "stash_export.json" || exp.MIMEType != "application/json" || exp.Count != 2 {
		t.Errorf("Export() = %q %q %d", exp.Filename, exp.MIMEType, exp.Count)
	}

	var records []itemRecord
	if err := json.Unmarshal(exp.Data, &records); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Content != "first, with comma" {
		t.Errorf("records[0] = %q, want oldest first", records[0].Content)
	}
	if len(records[0].Tags) != 2 || records[0].Categories[0] != "work" {
		t.Errorf("records[0] labels = %v %v", records[0].Categories, records[0].Tags)
	}
	if records[1].URL != "https://example.com" || records[1].ContentType != "url" {
		t.Errorf("records[1] = %+v", records[1])
	}
}

func TestExportItems_CSV(t *testing.T) {
	svc := seedExportItems(t)

	exp, err := svc.Export(context.Background(), "csv")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	rows, err := csv.NewReader(bytes.NewReader(exp.Data)).ReadAll()
	if err != nil {
		t.Fatalf("csv ReadAll() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header plus 2", len(rows))
	}
	wantHeader := []string{"id", "content", "content_type", "url", "categories", "tags", "created_at"}
	for i, h := range wantHeader {
		if rows[0][i] != h {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], h)
		}
	}
	if rows[1][1] != "first, with comma" || rows[1][5] != "a,b" {
		t.Errorf("row 1 = %v", rows[1])
	}
}

func TestExportItems_YAML(t *testing.T) {
	svc := seedExportItems(t)

	exp, err := svc.Export(context.Background(), "yaml")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if exp.Filename != "stash_export.yaml" {
		t.Errorf("Filename = %q", exp.Filename)
	}

	var records []itemRecord
	if err := yaml.Unmarshal(exp.Data, &records); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if len(records) != 2 || records[1].Categories[0] != "ideas" {
		t.Errorf("records = %+v", records)
	}
}

func TestExportItems_Errors(t *testing.T) {
	svc := NewItemService(newTestStore(t), &fakeProvider{err: llm.ErrUnavailable}, quiet())
	ctx := context.Background()

	if _, err := svc.Export(ctx, "json"); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("Export() empty store error = %v, want ErrNothingToExport", err)
	}
	if _, err := svc.Export(ctx, "xml"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Export(xml) error = %v, want ErrUnsupportedFormat", err)
	}
}
