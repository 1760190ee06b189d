package utils

import (
	"fmt"
	"math"
	"strings"

	"mangadex-dl/internal/sanitize"
)

// FormatNumber renders a chapter number with one decimal and strips trailing
// zeros and the dot, so 1.0 becomes "1" and 1.5 stays "1.5".
func FormatNumber(num float64) string {
	return trimZeros(fmt.Sprintf("%.1f", num))
}

// PadNumber is FormatNumber with the integer part zero padded to three digits.
func PadNumber(num float64) string {
	return trimZeros(fmt.Sprintf("%05.1f", num))
}

// ChapterDirectory returns the directory name for a chapter, e.g.
// (2.0, "bar") -> "002 bar" and (2.5, "bar") -> "002.5 bar".
func ChapterDirectory(number float64, title string) (string, error) {
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return "", fmt.Errorf("chapter number is not a number: %v", number)
	}

	return PadNumber(number) + " " + sanitize.Filename(title), nil
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}

	return strings.TrimRight(strings.TrimRight(s, "0"), ".")
}
