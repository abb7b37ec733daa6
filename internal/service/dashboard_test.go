package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booktrack/booktrack-go/internal/apperr"
	"github.com/booktrack/booktrack-go/internal/model"
)

func TestDashboardStatistics(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.registerUser(t, "owner@example.com")
	other := env.registerUser(t, "other@example.com")

	statuses := []model.BookStatus{
		model.StatusReading, model.StatusReading, model.StatusCompleted,
		model.StatusWantToRead, model.StatusCompleted, model.StatusCompleted, model.StatusReading,
	}
	for i, st := range statuses {
		env.addBook(t, owner, model.CreateBookRequest{
			Title:  fmt.Sprintf("Book %d", i),
			Author: fmt.Sprintf("Author %d", i%2),
			Status: st,
			Tags:   []string{"common", fmt.Sprintf("t%d", i)},
		})
	}
	env.addBook(t, other, model.CreateBookRequest{Title: "Elsewhere", Author: "Nobody", Tags: []string{"common"}})

	stats, err := env.books.DashboardStatistics(ctx, owner)
	require.NoError(t, err)

	assert.Equal(t, 7, stats.TotalBooks)
	assert.Equal(t, model.StatusCounts{WantToRead: 1, Reading: 3, Completed: 3}, stats.StatusCounts)
	assert.Equal(t, stats.TotalBooks,
		stats.StatusCounts.WantToRead+stats.StatusCounts.Reading+stats.StatusCounts.Completed)

	require.Len(t, stats.Tags, 8)
	assert.Equal(t, model.NameCount{Name: "common", Count: 7}, stats.Tags[0])

	require.Len(t, stats.RecentBooks, DashboardRecent)
	assert.Equal(t, "Book 6", stats.RecentBooks[0].Title)
	assert.Equal(t, "Book 2", stats.RecentBooks[4].Title)

	assert.Equal(t, []model.NameCount{
		{Name: "Author 0", Count: 4},
		{Name: "Author 1", Count: 3},
	}, stats.TopAuthors)
}

func TestDashboardStatistics_TopTagsCapped(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.registerUser(t, "owner@example.com")

	tags := make([]string, 15)
	for i := range tags {
		tags[i] = fmt.Sprintf("tag-%02d", i)
	}
	env.addBook(t, owner, model.CreateBookRequest{Title: "Tagged", Author: "A", Tags: tags})

	stats, err := env.books.DashboardStatistics(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, stats.Tags, DashboardTopTags)

	all, err := env.books.UserTags(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, all, 15)
}

func TestDashboardStatistics_Empty(t *testing.T) {
	env := newTestEnv(t)
	owner := env.registerUser(t, "owner@example.com")

	stats, err := env.books.DashboardStatistics(context.Background(), owner)
	require.NoError(t, err)

	assert.Zero(t, stats.TotalBooks)
	assert.NotNil(t, stats.Tags)
	assert.NotNil(t, stats.RecentBooks)
	assert.NotNil(t, stats.TopAuthors)
}

func TestStatusCounts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.registerUser(t, "owner@example.com")

	for _, st := range []model.BookStatus{model.StatusReading, model.StatusCompleted, model.StatusCompleted} {
		env.addBook(t, owner, model.CreateBookRequest{Title: "B", Author: "A", Status: st})
	}

	counts, err := env.books.StatusCounts(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCountsWithTotal{
		StatusCounts: model.StatusCounts{WantToRead: 0, Reading: 1, Completed: 2},
		Total:        3,
	}, counts)
}

// failingStore fails every count so the fan-out error path can be observed.
type failingStore struct {
	BookStore
}

func (failingStore) Count(context.Context, model.BookFilter) (int, error) {
	return 0, errors.New("store offline")
}

func (failingStore) TagCounts(context.Context, string, int) ([]model.NameCount, error) {
	return []model.NameCount{}, nil
}

func (failingStore) AuthorCounts(context.Context, string, int) ([]model.NameCount, error) {
	return []model.NameCount{}, nil
}

func (failingStore) Recent(context.Context, string, int) ([]model.RecentBook, error) {
	return []model.RecentBook{}, nil
}

func TestDashboardStatistics_SubQueryFailure(t *testing.T) {
	svc := NewBookService(failingStore{})

	_, err := svc.DashboardStatistics(context.Background(), "u1")
	requireKind(t, err, apperr.KindInternal, "")
	assert.ErrorContains(t, err, "store offline")

	_, err = svc.StatusCounts(context.Background(), "u1")
	requireKind(t, err, apperr.KindInternal, "")
}
