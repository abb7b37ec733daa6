package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/booktrack/booktrack-go/internal/apperr"
	"github.com/booktrack/booktrack-go/internal/model"
)

// Dashboard list sizes.
const (
	DashboardTopTags    = 10
	DashboardRecent     = 5
	DashboardTopAuthors = 5
)

// DashboardStatistics summarizes the user's collection. The sub-queries run
// concurrently; the first failure cancels the others.
func (s *BookService) DashboardStatistics(ctx context.Context, userID string) (model.DashboardStats, error) {
	var stats model.DashboardStats

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.repo.Count(ctx, model.BookFilter{UserID: userID})
		if err != nil {
			return fmt.Errorf("counting books: %w", err)
		}
		stats.TotalBooks = n
		return nil
	})
	s.countStatuses(ctx, g, userID, &stats.StatusCounts)
	g.Go(func() error {
		tags, err := s.repo.TagCounts(ctx, userID, DashboardTopTags)
		if err != nil {
			return fmt.Errorf("counting tags: %w", err)
		}
		stats.Tags = tags
		return nil
	})
	g.Go(func() error {
		recent, err := s.repo.Recent(ctx, userID, DashboardRecent)
		if err != nil {
			return fmt.Errorf("loading recent books: %w", err)
		}
		stats.RecentBooks = recent
		return nil
	})
	g.Go(func() error {
		authors, err := s.repo.AuthorCounts(ctx, userID, DashboardTopAuthors)
		if err != nil {
			return fmt.Errorf("counting authors: %w", err)
		}
		stats.TopAuthors = authors
		return nil
	})

	if err := g.Wait(); err != nil {
		return model.DashboardStats{}, apperr.Internal(err)
	}

	return stats, nil
}

// StatusCounts returns the number of books per status and their sum.
func (s *BookService) StatusCounts(ctx context.Context, userID string) (model.StatusCountsWithTotal, error) {
	var counts model.StatusCounts

	g, gctx := errgroup.WithContext(ctx)
	s.countStatuses(gctx, g, userID, &counts)
	if err := g.Wait(); err != nil {
		return model.StatusCountsWithTotal{}, apperr.Internal(err)
	}

	return model.StatusCountsWithTotal{
		StatusCounts: counts,
		Total:        counts.WantToRead + counts.Reading + counts.Completed,
	}, nil
}

// countStatuses schedules one count per status on g, each writing its own field.
func (s *BookService) countStatuses(ctx context.Context, g *errgroup.Group, userID string, out *model.StatusCounts) {
	targets := map[model.BookStatus]*int{
		model.StatusWantToRead: &out.WantToRead,
		model.StatusReading:    &out.Reading,
		model.StatusCompleted:  &out.Completed,
	}

	for status, dst := range targets {
		g.Go(func() error {
			n, err := s.repo.Count(ctx, model.BookFilter{UserID: userID, Status: status})
			if err != nil {
				return fmt.Errorf("counting %s books: %w", status, err)
			}
			*dst = n
			return nil
		})
	}
}
