// ABOUTME: Scanning helpers shared by the SQL repositories
// ABOUTME: Handles nullable columns and engine-specific timestamp encodings
package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the fixed-width text form used by engines without a native
// timestamp type. Fixed width keeps lexical order equal to time order.
const TimeLayout = "2006-01-02 15:04:05.000000"

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// timeValue scans native timestamps as well as TimeLayout/RFC 3339 text
type timeValue struct {
	t time.Time
}

func (v *timeValue) Scan(src any) error {
	switch x := src.(type) {
	case nil:
		v.t = time.Time{}
	case time.Time:
		v.t = x.UTC()
	case string:
		return v.parse(x)
	case []byte:
		return v.parse(string(x))
	default:
		return fmt.Errorf("unsupported time value %T", src)
	}
	return nil
}

func (v *timeValue) parse(s string) error {
	for _, layout := range []string{TimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			v.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("cannot parse time %q", s)
}

// nullString converts empty strings to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// escapeLike escapes LIKE metacharacters for use with ESCAPE '\'
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
