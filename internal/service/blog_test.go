package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasureContent(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantWords int
	}{
		{"empty", "", 0},
		{"whitespace only", "  \n\t  ", 0},
		{"single word", "hello", 1},
		{"mixed whitespace", "one  two\nthree\tfour", 4},
		{"full minute", strings.Repeat("word ", 256), 256},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			words, readTime := measureContent(tt.content)
			assert.Equal(t, tt.wantWords, words)
			assert.InDelta(t, float64(tt.wantWords)/256.0, readTime, 1e-9)
		})
	}
}

func TestNormalizeTagNames(t *testing.T) {
	names, err := normalizeTagNames([]string{" Go ", "go", "GO", "databases", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "databases"}, names)
}

func TestNormalizeTagNames_TooLong(t *testing.T) {
	_, err := normalizeTagNames([]string{strings.Repeat("x", 51)})
	assert.Error(t, err)
}

func TestNormalizeTagNames_Empty(t *testing.T) {
	names, err := normalizeTagNames(nil)
	require.NoError(t, err)
	assert.Empty(t, names)
}
