package differ

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestDiff_IdenticalContent(t *testing.T) {
	cd := NewContentDiffer(zerolog.Nop())

	result := cd.Diff("line one\nline two\n", "line one\nline two\n")
	assert.True(t, result.Identical)
	assert.Equal(t, 0, result.LinesAdded)
	assert.Equal(t, 0, result.LinesRemoved)
}

func TestDiff_NoBaseline(t *testing.T) {
	cd := NewContentDiffer(zerolog.Nop())

	result := cd.Diff("", "first\nsecond\nthird\n")
	assert.False(t, result.Identical)
	assert.Equal(t, 3, result.LinesAdded)
	assert.Equal(t, 0, result.LinesRemoved)
}

func TestDiff_AddedLines(t *testing.T) {
	cd := NewContentDiffer(zerolog.Nop())

	previous := "alpha\nbeta\n"
	current := "alpha\nbeta\ngamma\n"

	result := cd.Diff(previous, current)
	assert.False(t, result.Identical)
	assert.Equal(t, 1, result.LinesAdded)
	assert.Equal(t, 0, result.LinesRemoved)
}

func TestDiff_RemovedLines(t *testing.T) {
	cd := NewContentDiffer(zerolog.Nop())

	previous := "alpha\nbeta\ngamma\n"
	current := "alpha\ngamma\n"

	result := cd.Diff(previous, current)
	assert.False(t, result.Identical)
	assert.Equal(t, 0, result.LinesAdded)
	assert.Equal(t, 1, result.LinesRemoved)
}

func TestDiff_ReplacedLine(t *testing.T) {
	cd := NewContentDiffer(zerolog.Nop())

	previous := "headline: old story\nbody text\n"
	current := "headline: new story\nbody text\n"

	result := cd.Diff(previous, current)
	assert.False(t, result.Identical)
	assert.GreaterOrEqual(t, result.LinesAdded, 1)
	assert.GreaterOrEqual(t, result.LinesRemoved, 1)
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "empty", text: "", expected: 0},
		{name: "single line no newline", text: "hello", expected: 1},
		{name: "single line with newline", text: "hello\n", expected: 1},
		{name: "two lines", text: "a\nb\n", expected: 2},
		{name: "trailing fragment", text: "a\nb", expected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, countLines(tt.text))
		})
	}
}
