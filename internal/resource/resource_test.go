package resource

import (
	"testing"

	"mangadex-dl/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		kind domain.ResourceKind
		id   string
	}{
		{
			name: "title with slug",
			ref:  "https://mangadex.org/title/a96676e5-8ae2-425e-b549-7f15dd34a6d8/komi-san-wa-komyushou-desu",
			kind: domain.ResourceSeries,
			id:   "a96676e5-8ae2-425e-b549-7f15dd34a6d8",
		},
		{
			name: "title without slug",
			ref:  "https://mangadex.org/title/a96676e5-8ae2-425e-b549-7f15dd34a6d8",
			kind: domain.ResourceSeries,
			id:   "a96676e5-8ae2-425e-b549-7f15dd34a6d8",
		},
		{
			name: "chapter",
			ref:  "https://mangadex.org/chapter/56eecc6f-1a4e-464c-b6a4-a1cbdfdfd726",
			kind: domain.ResourceChapter,
			id:   "56eecc6f-1a4e-464c-b6a4-a1cbdfdfd726",
		},
		{
			name: "chapter with page",
			ref:  "mangadex.org/chapter/56eecc6f-1a4e-464c-b6a4-a1cbdfdfd726/1",
			kind: domain.ResourceChapter,
			id:   "56eecc6f-1a4e-464c-b6a4-a1cbdfdfd726",
		},
		{
			name: "www host",
			ref:  "https://www.mangadex.org/title/a96676e5-8ae2-425e-b549-7f15dd34a6d8/",
			kind: domain.ResourceSeries,
			id:   "a96676e5-8ae2-425e-b549-7f15dd34a6d8",
		},
		{
			name: "bare uuid",
			ref:  "a96676e5-8ae2-425e-b549-7f15dd34a6d8",
			kind: domain.ResourceSeries,
			id:   "a96676e5-8ae2-425e-b549-7f15dd34a6d8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, id, err := Resolve(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestResolve_Invalid(t *testing.T) {
	refs := []string{
		"https://mangadex.org/chapter",
		"https://mangadex.org/56eecc6f-1a4e-464c-b6a4-a1cbdfdfd726",
		"https://mangadex.org/group/56eecc6f-1a4e-464c-b6a4-a1cbdfdfd726",
		"https://www.google.com/title/56eecc6f-1a4e-464c-b6a4-a1cbdfdfd726",
		"https://mangadex.org/title/56eecc6f-1a4e-164c-b6a4-a1cbdfdfd726",
		"./test/test.jpg",
		"",
	}

	for _, ref := range refs {
		_, _, err := Resolve(ref)
		assert.ErrorIs(t, err, domain.ErrInvalidReference, ref)
	}
}

func TestIsMangadexURL(t *testing.T) {
	assert.True(t, IsMangadexURL("https://mangadex.org"))
	assert.False(t, IsMangadexURL("https://www.google.com"))
	assert.False(t, IsMangadexURL("./test/test.jpg"))
}
