package source

import (
	"context"
	"net/url"
	"strconv"

	"mangadex-dl/internal/domain"

	"github.com/pkg/errors"
)

const coverPageSize = 50

type coverList struct {
	Data *[]struct {
		Attributes struct {
			Volume   *string `json:"volume"`
			FileName *string `json:"fileName"`
		} `json:"attributes"`
	} `json:"data"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// FetchCoverVolumes maps volume labels to the url of their japanese cover.
// Covers without a volume are left out.
func (m *Mangadex) FetchCoverVolumes(ctx context.Context, seriesID string) (map[string]string, error) {
	covers := make(map[string]string)

	for offset := 0; ; {
		var list coverList

		query := url.Values{
			"manga[]":   []string{seriesID},
			"locales[]": []string{"ja"},
			"limit":     []string{strconv.Itoa(coverPageSize)},
			"offset":    []string{strconv.Itoa(offset)},
		}

		if err := m.getJSON(ctx, query, &list, "cover"); err != nil {
			return nil, err
		}

		if list.Data == nil {
			return nil, errors.Wrapf(domain.ErrMalformedResponse, "covers for %s: missing data", seriesID)
		}

		for _, cover := range *list.Data {
			if cover.Attributes.FileName == nil {
				return nil, errors.Wrapf(domain.ErrMalformedResponse, "covers for %s: missing file name", seriesID)
			}

			if cover.Attributes.Volume == nil {
				continue
			}

			covers[*cover.Attributes.Volume] = m.coverURL(seriesID, *cover.Attributes.FileName)
		}

		limit := list.Limit
		if limit <= 0 {
			limit = coverPageSize
		}

		offset += limit
		if len(*list.Data) == 0 || offset >= list.Total {
			break
		}
	}

	m.log.Debug().Str("series", seriesID).Msgf("got %d volume covers", len(covers))

	return covers, nil
}
