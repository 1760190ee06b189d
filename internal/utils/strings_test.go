package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		num  float64
		want string
	}{
		{num: 1.0, want: "1"},
		{num: 1.5, want: "1.5"},
		{num: 10, want: "10"},
		{num: 100, want: "100"},
		{num: 0, want: "0"},
		{num: 12.25, want: "12.2"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.num))
	}
}

func TestChapterDirectory(t *testing.T) {
	tests := []struct {
		number float64
		title  string
		want   string
	}{
		{number: 2.0, title: "bar", want: "002 bar"},
		{number: 2.5, title: "bar", want: "002.5 bar"},
		{number: 0, title: "Oneshot", want: "000 Oneshot"},
		{number: 10, title: "Ten", want: "010 Ten"},
		{number: 100, title: "Hundred", want: "100 Hundred"},
		{number: 1000.5, title: "Long", want: "1000.5 Long"},
		{number: 3, title: "What?", want: "003 What_"},
	}

	for _, tt := range tests {
		got, err := ChapterDirectory(tt.number, tt.title)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)

		again, err := ChapterDirectory(tt.number, tt.title)
		require.NoError(t, err)
		assert.Equal(t, got, again)
	}
}

func TestChapterDirectory_NotANumber(t *testing.T) {
	_, err := ChapterDirectory(math.NaN(), "bar")
	assert.Error(t, err)

	_, err = ChapterDirectory(math.Inf(1), "bar")
	assert.Error(t, err)
}
