// ABOUTME: Export encoders for items and declutter tasks
// ABOUTME: JSON and CSV follow the original record layout; YAML mirrors the JSON records
package core

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/stash/internal/models"
)

// Format is an export encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

var mimeTypes = map[Format]string{
	FormatJSON: "application/json",
	FormatCSV:  "text/csv",
	FormatYAML: "application/yaml",
}

// ParseFormat accepts format when it is one of allowed (case-insensitive, "yml" means yaml)
func ParseFormat(format string, allowed ...Format) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(format)))
	if f == "yml" {
		f = FormatYAML
	}
	for _, a := range allowed {
		if f == a {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Export is a finished download: bytes plus the name and type to attach them under
type Export struct {
	Filename string
	MIMEType string
	Data     []byte
	Count    int
}

type itemRecord struct {
	ID          string   `json:"id" yaml:"id"`
	Content     string   `json:"content" yaml:"content"`
	ContentType string   `json:"content_type" yaml:"content_type"`
	URL         string   `json:"url" yaml:"url"`
	URLTitle    string   `json:"url_title" yaml:"url_title"`
	Categories  []string `json:"categories" yaml:"categories"`
	Tags        []string `json:"tags" yaml:"tags"`
	CreatedAt   string   `json:"created_at" yaml:"created_at"`
}

func encodeItems(items []*models.Item, f Format) (*Export, error) {
	records := make([]itemRecord, len(items))
	for i, item := range items {
		records[i] = itemRecord{
			ID:          item.ID,
			Content:     item.Content,
			ContentType: string(item.ContentType),
			URL:         item.URL,
			URLTitle:    item.URLTitle,
			Categories:  item.CategoryNames(),
			Tags:        item.TagNames(),
			CreatedAt:   item.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	}

	var (
		data []byte
		err  error
	)
	switch f {
	case FormatJSON:
		data, err = json.MarshalIndent(records, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(records)
	case FormatCSV:
		data, err = writeCSV([]string{"id", "content", "content_type", "url", "categories", "tags", "created_at"},
			len(records), func(i int) []string {
				r := records[i]
				return []string{r.ID, r.Content, r.ContentType, r.URL,
					strings.Join(r.Categories, ","), strings.Join(r.Tags, ","), r.CreatedAt}
			})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", f, err)
	}

	return &Export{
		Filename: "stash_export." + string(f),
		MIMEType: mimeTypes[f],
		Data:     data,
		Count:    len(records),
	}, nil
}

type taskRecord struct {
	ID          string `json:"id"`
	ItemName    string `json:"item_name"`
	Decision    string `json:"decision"`
	Status      string `json:"status"`
	Analysis    string `json:"analysis"`
	ActionTaken string `json:"action_taken"`
	CreatedAt   string `json:"created_at"`
}

func encodeTasks(tasks []*models.DeclutterTask, f Format) (*Export, error) {
	var (
		data []byte
		err  error
	)
	switch f {
	case FormatJSON:
		records := make([]taskRecord, len(tasks))
		for i, t := range tasks {
			records[i] = taskRecord{
				ID:          t.ShortID(),
				ItemName:    t.ItemName,
				Decision:    string(t.Decision),
				Status:      string(t.Status),
				Analysis:    t.Analysis,
				ActionTaken: t.ActionTaken,
				CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339Nano),
			}
		}
		data, err = json.MarshalIndent(records, "", "  ")
	case FormatCSV:
		data, err = writeCSV([]string{"id", "item_name", "decision", "status", "action_taken", "created_at"},
			len(tasks), func(i int) []string {
				t := tasks[i]
				return []string{t.ShortID(), t.ItemName, string(t.Decision), string(t.Status),
					t.ActionTaken, t.CreatedAt.UTC().Format("2006-01-02 15:04")}
			})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", f, err)
	}

	return &Export{
		Filename: "declutter_export." + string(f),
		MIMEType: mimeTypes[f],
		Data:     data,
		Count:    len(tasks),
	}, nil
}

func writeCSV(header []string, n int, row func(int) []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
