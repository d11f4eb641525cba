// ABOUTME: Tests for the postgres dialect
// ABOUTME: Placeholder rebinding plus vector and time value encoding
package postgres

import (
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"
)

func TestDialectPlaceholders(t *testing.T) {
	d := Dialect{}
	if got := d.Placeholder(3); got != "$3" {
		t.Errorf("Placeholder(3) = %q, want $3", got)
	}
	if got := d.IDText("id"); got != "id::text" {
		t.Errorf("IDText() = %q", got)
	}
	if got := d.Lower("content"); got != "LOWER(content)" {
		t.Errorf("Lower() = %q", got)
	}
}

func TestVectorValue(t *testing.T) {
	d := Dialect{}

	v, err := d.VectorValue(nil)
	if err != nil || v != nil {
		t.Errorf("VectorValue(nil) = %v, %v; want nil, nil", v, err)
	}

	v, err = d.VectorValue([]float32{1, 2})
	if err != nil {
		t.Fatalf("VectorValue() error = %v", err)
	}
	vec, ok := v.(pgvector.Vector)
	if !ok {
		t.Fatalf("VectorValue() type = %T, want pgvector.Vector", v)
	}
	if len(vec.Slice()) != 2 {
		t.Errorf("Slice() = %v", vec.Slice())
	}
}

func TestNullVectorScan(t *testing.T) {
	var n nullVector
	if err := n.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error = %v", err)
	}
	if n.Vector() != nil {
		t.Errorf("Vector() = %v, want nil", n.Vector())
	}

	if err := n.Scan([]byte("[0.5,1,2]")); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	got := n.Vector()
	if len(got) != 3 || got[0] != 0.5 {
		t.Errorf("Vector() = %v, want [0.5 1 2]", got)
	}
}

func TestTimeValueIsUTC(t *testing.T) {
	loc := time.FixedZone("test", 3*3600)
	in := time.Date(2025, 1, 1, 12, 0, 0, 0, loc)
	got, ok := Dialect{}.TimeValue(in).(time.Time)
	if !ok {
		t.Fatal("TimeValue() did not return time.Time")
	}
	if got.Location() != time.UTC || !got.Equal(in) {
		t.Errorf("TimeValue() = %v", got)
	}
}
