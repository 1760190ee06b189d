package sanitize

import (
	"regexp"
)

var unsafePattern = regexp.MustCompile(`[^A-Za-z0-9_.\- ]`)

// Filename replaces every character that is not a letter, digit, underscore,
// dash, dot or space with an underscore.
func Filename(name string) string {
	return unsafePattern.ReplaceAllString(name, "_")
}
