package db

import (
	"testing"

	"github.com/google/uuid"
)

func TestVectorLiteral(t *testing.T) {
	tests := []struct {
		name     string
		input    []float32
		expected string
	}{
		{"empty", nil, "[]"},
		{"single", []float32{0.5}, "[0.5]"},
		{"several", []float32{1, -0.25, 3}, "[1,-0.25,3]"},
		{"zero", []float32{0}, "[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := vectorLiteral(tt.input)
			if result != tt.expected {
				t.Errorf("vectorLiteral(%v) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNullableUUID(t *testing.T) {
	if nullableUUID(uuid.Nil) != nil {
		t.Error("zero UUID should map to NULL")
	}

	id := uuid.New()
	if nullableUUID(id) != id {
		t.Error("non-zero UUID should pass through")
	}
}
