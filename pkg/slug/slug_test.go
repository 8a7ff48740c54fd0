package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Wireless Headphones", "wireless-headphones"},
		{"Beauty & Health", "beauty-health"},
		{"  Trimmed  ", "trimmed"},
		{"Already-Slugged", "already-slugged"},
		{"MacBook Pro 16\"", "macbook-pro-16"},
		{"---", ""},
		{"", ""},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, Generate(tc.input), "input %q", tc.input)
	}
}
