// ABOUTME: Tests for prefix normalization and vector helpers
// ABOUTME: Engine-independent pieces of the storage package

package storage

import (
	"errors"
	"math"
	"testing"
)

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"short hex", "abcdef12", "abcdef12", nil},
		{"upper case and spaces", "  ABCDEF12 ", "abcdef12", nil},
		{"full uuid", "abcdef12-3456-7890-abcd-ef1234567890", "abcdef12-3456-7890-abcd-ef1234567890", nil},
		{"empty", "", "", ErrNotFound},
		{"wildcard", "ab%", "", ErrInvalidPrefix},
		{"underscore", "ab_c", "", ErrInvalidPrefix},
		{"non hex letter", "xyz", "", ErrInvalidPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePrefix(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NormalizePrefix(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizePrefix(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizePrefix(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEncodeDecodeVector(t *testing.T) {
	original := []float32{0.1, -0.5, 1.0, 0}
	decoded, err := DecodeVector(EncodeVector(original))
	if err != nil {
		t.Fatalf("DecodeVector() error = %v", err)
	}
	if len(decoded) != len(original) {
		t.Fatalf("decoded length = %d, want %d", len(decoded), len(original))
	}
	for i := range original {
		if decoded[i] != original[i] {
			t.Errorf("decoded[%d] = %v, want %v", i, decoded[i], original[i])
		}
	}

	if _, err := DecodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("DecodeVector() should reject truncated blobs")
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
			if d := CosineDistance(tt.a, tt.b); math.Abs(d-(1-tt.want)) > 1e-9 {
				t.Errorf("CosineDistance() = %v, want %v", d, 1-tt.want)
			}
		})
	}
}
