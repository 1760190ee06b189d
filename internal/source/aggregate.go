package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"mangadex-dl/internal/domain"

	"github.com/pkg/errors"
)

type aggregateVolume struct {
	Volume   *string         `json:"volume"`
	Chapters json.RawMessage `json:"chapters"`
}

type aggregateChapter struct {
	Chapter *string  `json:"chapter"`
	ID      *string  `json:"id"`
	Others  []string `json:"others"`
}

// FetchVolumeTree gets the aggregate listing of a series in the configured
// translation language. Volume and chapter order follow the server response.
func (m *Mangadex) FetchVolumeTree(ctx context.Context, seriesID string) (domain.VolumeTree, error) {
	var aggregate struct {
		Volumes json.RawMessage `json:"volumes"`
	}

	query := url.Values{"translatedLanguage[]": []string{m.language}}
	if err := m.getJSON(ctx, query, &aggregate, "manga", seriesID, "aggregate"); err != nil {
		return nil, err
	}

	tree, err := parseVolumeTree(aggregate.Volumes)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrMalformedResponse, "aggregate for %s: %v", seriesID, err)
	}

	m.log.Debug().Str("series", seriesID).Msgf("got %d volumes", len(tree))

	return tree, nil
}

func parseVolumeTree(raw json.RawMessage) (domain.VolumeTree, error) {
	tree := domain.VolumeTree{}

	err := eachMember(raw, func(value json.RawMessage) error {
		var v aggregateVolume
		if err := json.Unmarshal(value, &v); err != nil {
			return err
		}

		if v.Volume == nil {
			return errors.New("volume entry without label")
		}

		if chapters := bytes.TrimSpace(v.Chapters); len(chapters) == 0 || bytes.Equal(chapters, []byte("null")) {
			return errors.Errorf("volume entry %q without chapters", *v.Volume)
		}

		volume := domain.Volume{Label: *v.Volume}

		if err := eachMember(v.Chapters, func(value json.RawMessage) error {
			var c aggregateChapter
			if err := json.Unmarshal(value, &c); err != nil {
				return err
			}

			if c.Chapter == nil || c.ID == nil {
				return errors.Errorf("volume %q: chapter entry without number or id", volume.Label)
			}

			ids := append([]string{*c.ID}, c.Others...)
			volume.Chapters = append(volume.Chapters, domain.ChapterGroup{Number: *c.Chapter, IDs: ids})

			return nil
		}); err != nil {
			return err
		}

		tree = append(tree, volume)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return tree, nil
}

// eachMember calls fn for every value of a JSON object or array, in document
// order. The aggregate endpoint returns either shape depending on content.
func eachMember(raw json.RawMessage, fn func(json.RawMessage) error) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if tok == nil {
		return nil
	}

	delim, ok := tok.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return fmt.Errorf("expected object or array, got %v", tok)
	}

	for dec.More() {
		if delim == '{' {
			if _, err := dec.Token(); err != nil {
				return err
			}
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}

		if err := fn(value); err != nil {
			return err
		}
	}

	_, err = dec.Token()
	return err
}
