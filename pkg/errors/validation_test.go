package errors

import (
	"strings"
	"testing"
)

func TestValidateBlockID(t *testing.T) {
	valid := []string{
		"entry",
		"bb.42",
		"func_main:3",
		"block-7",
		strings.Repeat("x", 256),
	}
	for _, id := range valid {
		if err := ValidateBlockID(id); err != nil {
			t.Errorf("ValidateBlockID(%q) = %v, want nil", id, err)
		}
	}

	invalid := []struct {
		name string
		id   string
	}{
		{"Empty", ""},
		{"TooLong", strings.Repeat("x", 257)},
		{"NullByte", "bb\x00"},
		{"Newline", "bb\nname"},
		{"Traversal", "../etc"},
		{"AbsolutePath", "/etc/passwd"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBlockID(tt.id)
			if err == nil {
				t.Fatalf("ValidateBlockID(%q) = nil, want error", tt.id)
			}
			if !Is(err, ErrCodeInvalidGraph) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidGraph)
			}
		})
	}
}

func TestValidateOutputPath(t *testing.T) {
	if err := ValidateOutputPath("out/table.json"); err != nil {
		t.Errorf("valid path rejected: %v", err)
	}
	if err := ValidateOutputPath(""); !Is(err, ErrCodeInvalidPath) {
		t.Errorf("empty path: code = %v", GetCode(err))
	}
	if err := ValidateOutputPath("out\x00.json"); !Is(err, ErrCodeInvalidPath) {
		t.Errorf("null byte path: code = %v", GetCode(err))
	}
}
