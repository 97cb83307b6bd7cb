package models

import (
	"reflect"
	"testing"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want []string
	}{
		{"empty string", "", nil},
		{"single tag", "news", []string{"news"}},
		{"trims whitespace", "  a ,  b ", []string{"a", "b"}},
		{"drops empty entries", "a,,b,  ,c", []string{"a", "b", "c"}},
		{"deduplicates preserving first occurrence", "a, a, b", []string{"a", "b"}},
		{"duplicate later in list", "b, a, b, c", []string{"b", "a", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTags(tt.csv)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTags(%q) = %v, want %v", tt.csv, got, tt.want)
			}
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	if got := NormalizeTags("a, a, b"); got != "a, b" {
		t.Errorf("NormalizeTags() = %q, want %q", got, "a, b")
	}
	if got := NormalizeTags(""); got != "" {
		t.Errorf("NormalizeTags(empty) = %q, want empty", got)
	}
}
