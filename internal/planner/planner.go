package planner

import (
	"context"
	"slices"

	"mangadex-dl/internal/domain"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Planner decides which chapters of a series still need downloading.
type Planner struct {
	resolver domain.ChapterResolver
	workers  int
	log      zerolog.Logger
}

func New(resolver domain.ChapterResolver, workers int, log zerolog.Logger) *Planner {
	if workers <= 0 {
		workers = domain.DefaultWorkers
	}

	return &Planner{
		resolver: resolver,
		workers:  workers,
		log:      log.With().Str("module", "planner").Logger(),
	}
}

// PlanPending resolves the canonical release of every chapter group with no
// cached release, sorted by chapter number. Externally hosted chapters are left out.
func (p *Planner) PlanPending(ctx context.Context, tree domain.VolumeTree, cached map[string]struct{}) ([]domain.ChapterInfo, error) {
	ids := CanonicalPending(tree, cached)

	p.log.Debug().Msgf("%d chapters pending", len(ids))

	chapters, err := p.ResolveChapters(ctx, ids)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(chapters, func(a, b domain.ChapterInfo) int {
		switch {
		case a.Number < b.Number:
			return -1
		case a.Number > b.Number:
			return 1
		default:
			return 0
		}
	})

	return chapters, nil
}

// ResolveChapters fetches chapter information for ids with a bounded number
// of concurrent requests. The result keeps the order of ids.
func (p *Planner) ResolveChapters(ctx context.Context, ids []string) ([]domain.ChapterInfo, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	resolved := make([]*domain.ChapterInfo, len(ids))

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			info, err := p.resolver.FetchChapterInfo(ctx, id)
			if err != nil {
				if errors.Is(err, domain.ErrExternalChapter) {
					p.log.Info().Str("chapter", id).Msg("skipping externally hosted chapter")
					return nil
				}
				return err
			}

			resolved[i] = &info
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	chapters := make([]domain.ChapterInfo, 0, len(ids))
	for _, info := range resolved {
		if info != nil {
			chapters = append(chapters, *info)
		}
	}

	return chapters, nil
}

// CanonicalPending returns the first id of every chapter group that has no
// cached release, in tree order.
func CanonicalPending(tree domain.VolumeTree, cached map[string]struct{}) []string {
	var ids []string

	for _, group := range tree.Groups() {
		if len(group.IDs) == 0 || anyCached(group.IDs, cached) {
			continue
		}

		ids = append(ids, group.IDs[0])
	}

	return ids
}

// MatchCached returns every id in the tree that is cached, in tree order.
func MatchCached(tree domain.VolumeTree, cached map[string]struct{}) []string {
	var ids []string

	for _, group := range tree.Groups() {
		for _, id := range group.IDs {
			if _, ok := cached[id]; ok {
				ids = append(ids, id)
			}
		}
	}

	return ids
}

func anyCached(ids []string, cached map[string]struct{}) bool {
	for _, id := range ids {
		if _, ok := cached[id]; ok {
			return true
		}
	}

	return false
}
