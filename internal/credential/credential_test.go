package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"empty", "", false},
		{"too short", "AIzaSyShortKey", false},
		{"nineteen chars", strings.Repeat("a", 19), false},
		{"twenty chars", strings.Repeat("a", 20), true},
		{"typical key", "AIzaSyD-abc_123XYZ456789qwerty", true},
		{"contains space", "AIzaSyD abc_123XYZ456789qwerty", false},
		{"contains dot", "AIzaSyD.abc_123XYZ456789qwerty", false},
		{"trailing newline", strings.Repeat("k", 24) + "\n", false},
		{"non ascii", strings.Repeat("k", 24) + "é", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.key))
		})
	}
}
