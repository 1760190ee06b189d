package parse

import (
	"testing"

	"mangadex-dl/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chapters(numbers ...float64) []domain.ChapterInfo {
	out := make([]domain.ChapterInfo, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, domain.ChapterInfo{Number: n})
	}
	return out
}

func numbers(chapters []domain.ChapterInfo) []float64 {
	out := make([]float64, 0, len(chapters))
	for _, c := range chapters {
		out = append(out, c.Number)
	}
	return out
}

func TestChapterSelection(t *testing.T) {
	available := chapters(1, 2, 2.5, 3, 10, 11)

	tests := []struct {
		name  string
		input string
		want  []float64
	}{
		{name: "empty selects everything", input: "", want: []float64{1, 2, 2.5, 3, 10, 11}},
		{name: "single", input: "3", want: []float64{3}},
		{name: "fractional", input: "2.5", want: []float64{2.5}},
		{name: "range", input: "2-3", want: []float64{2, 2.5, 3}},
		{name: "range and single", input: "1, 10-11", want: []float64{1, 10, 11}},
		{name: "overlap", input: "1-2,2", want: []float64{1, 2}},
		{name: "first", input: "first", want: []float64{1}},
		{name: "latest", input: "LATEST", want: []float64{11}},
		{name: "missing number", input: "42", want: []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ChapterSelection(tt.input, available)
			require.NoError(t, err)
			assert.Equal(t, tt.want, numbers(got))
		})
	}
}

func TestChapterSelection_Errors(t *testing.T) {
	available := chapters(1, 2)

	for _, input := range []string{"a", "1-2-3", "x-2", "2-y", "3-1"} {
		_, err := ChapterSelection(input, available)
		assert.Error(t, err, input)
	}
}

func TestChapterSelection_NoChapters(t *testing.T) {
	got, err := ChapterSelection("latest", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
