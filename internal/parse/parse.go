package parse

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"mangadex-dl/internal/domain"
)

// ChapterSelection filters chapters by a comma separated selection of chapter
// numbers ("3"), inclusive ranges ("1-10", "10.5-12") and the keywords
// "first" and "latest". The input order of chapters is kept.
func ChapterSelection(input string, chapters []domain.ChapterInfo) ([]domain.ChapterInfo, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return chapters, nil
	}

	var matchers []func(float64) bool

	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)

		switch {
		case part == "":
			continue

		case strings.EqualFold(part, "first"), strings.EqualFold(part, "latest"):
			if len(chapters) == 0 {
				continue
			}

			target := minNumber(chapters)
			if strings.EqualFold(part, "latest") {
				target = maxNumber(chapters)
			}

			matchers = append(matchers, func(n float64) bool { return n == target })

		case strings.Contains(part, "-"):
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				return nil, fmt.Errorf("invalid range format: %s", part)
			}

			start, end, err := getRange(rangeParts)
			if err != nil {
				return nil, err
			}

			matchers = append(matchers, func(n float64) bool { return n >= start && n <= end })

		default:
			number, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid chapter number: %s", part)
			}

			matchers = append(matchers, func(n float64) bool { return n == number })
		}
	}

	selected := make([]domain.ChapterInfo, 0, len(chapters))
	for _, chapter := range chapters {
		if slices.ContainsFunc(matchers, func(match func(float64) bool) bool { return match(chapter.Number) }) {
			selected = append(selected, chapter)
		}
	}

	return selected, nil
}

// getRange parses the user input for chapter ranges
func getRange(rangeParts []string) (float64, float64, error) {
	start, err := strconv.ParseFloat(strings.TrimSpace(rangeParts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start of range: %s", rangeParts[0])
	}
	end, err := strconv.ParseFloat(strings.TrimSpace(rangeParts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid end of range: %s", rangeParts[1])
	}

	if start > end {
		return 0, 0, fmt.Errorf("start of range should not be greater than end: %s-%s", rangeParts[0], rangeParts[1])
	}

	return start, end, nil
}

func minNumber(chapters []domain.ChapterInfo) float64 {
	return slices.MinFunc(chapters, compareNumber).Number
}

func maxNumber(chapters []domain.ChapterInfo) float64 {
	return slices.MaxFunc(chapters, compareNumber).Number
}

func compareNumber(a, b domain.ChapterInfo) int {
	switch {
	case a.Number < b.Number:
		return -1
	case a.Number > b.Number:
		return 1
	default:
		return 0
	}
}
