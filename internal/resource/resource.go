package resource

import (
	"regexp"
	"strings"

	"mangadex-dl/internal/domain"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	mangadexURLPattern = regexp.MustCompile(`^(?:https?://)?(?:www\.)?mangadex\.org/?`)
	resourcePattern    = regexp.MustCompile(
		`^(?:https?://)?(?:www\.)?mangadex\.org/(\w+)/([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})(?:[/?#].*)?$`,
	)
)

// IsMangadexURL reports whether ref points at mangadex.org.
func IsMangadexURL(ref string) bool {
	return mangadexURLPattern.MatchString(strings.TrimSpace(ref))
}

// Resolve parses a MangaDex title or chapter url into its kind and id. A bare
// uuid is treated as a series id.
func Resolve(ref string) (domain.ResourceKind, string, error) {
	ref = strings.TrimSpace(ref)

	if id, err := parseUUID(ref); err == nil {
		return domain.ResourceSeries, id, nil
	}

	if !IsMangadexURL(ref) {
		return 0, "", errors.Wrapf(domain.ErrInvalidReference, "%q is neither a mangadex url nor a uuid", ref)
	}

	matches := resourcePattern.FindStringSubmatch(ref)
	if matches == nil {
		return 0, "", errors.Wrapf(domain.ErrInvalidReference, "could not get resource type or uuid from %q", ref)
	}

	id, err := parseUUID(matches[2])
	if err != nil {
		return 0, "", errors.Wrapf(domain.ErrInvalidReference, "%q: %v", matches[2], err)
	}

	switch matches[1] {
	case "title":
		return domain.ResourceSeries, id, nil
	case "chapter":
		return domain.ResourceChapter, id, nil
	default:
		return 0, "", errors.Wrapf(domain.ErrInvalidReference, "unsupported resource type %q", matches[1])
	}
}

func parseUUID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}

	if id.Version() != 4 {
		return "", errors.Errorf("uuid %s is version %d, expected 4", s, id.Version())
	}

	return id.String(), nil
}
