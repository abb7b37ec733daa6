package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booktrack/booktrack-go/internal/apperr"
	"github.com/booktrack/booktrack-go/internal/crypto"
	"github.com/booktrack/booktrack-go/internal/model"
)

func (e *testEnv) addBook(t *testing.T, userID string, req model.CreateBookRequest) model.BookResponse {
	t.Helper()

	b, err := e.books.CreateBook(context.Background(), userID, req)
	require.NoError(t, err)
	return b
}

func TestCreateBook_Defaults(t *testing.T) {
	env := newTestEnv(t)
	owner := env.registerUser(t, "reader@example.com")

	b := env.addBook(t, owner, model.CreateBookRequest{Title: "Dune", Author: "Herbert"})

	assert.True(t, crypto.IsValidObjectID(b.ID))
	assert.Equal(t, model.StatusWantToRead, b.Status)
	assert.Equal(t, "Want to Read", b.StatusDisplay)
	assert.Equal(t, []string{}, b.Tags)
	assert.Equal(t, "", b.Notes)
	assert.Equal(t, owner, b.User)
}

func TestCreateBook_SanitizesTags(t *testing.T) {
	env := newTestEnv(t)
	owner := env.registerUser(t, "reader@example.com")

	b := env.addBook(t, owner, model.CreateBookRequest{
		Title:  "Dune",
		Author: "Herbert",
		Tags:   []string{"Fiction", " fiction ", "sci-fi"},
	})
	assert.Equal(t, []string{"fiction", "sci-fi"}, b.Tags)

	got, err := env.books.GetBookByID(context.Background(), b.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"fiction", "sci-fi"}, got.Tags)
}

func TestCreateBook_Validation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.registerUser(t, "reader@example.com")

	tests := []struct {
		name string
		req  model.CreateBookRequest
		want []string
	}{
		{
			name: "missing title and author",
			req:  model.CreateBookRequest{Title: "  "},
			want: []string{"Title is required", "Author is required"},
		},
		{
			name: "title too long",
			req:  model.CreateBookRequest{Title: strings.Repeat("t", 201), Author: "A"},
			want: []string{"Title must be less than 200 characters"},
		},
		{
			name: "bad status",
			req:  model.CreateBookRequest{Title: "T", Author: "A", Status: "finished"},
			want: []string{"Status must be one of: want-to-read, reading, completed"},
		},
		{
			name: "notes too long",
			req:  model.CreateBookRequest{Title: "T", Author: "A", Notes: strings.Repeat("n", 1001)},
			want: []string{"Notes must be less than 1000 characters"},
		},
		{
			name: "tag too long",
			req:  model.CreateBookRequest{Title: "T", Author: "A", Tags: []string{strings.Repeat("x", 101)}},
			want: []string{"Tags must be less than 100 characters"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.books.CreateBook(context.Background(), owner, tt.req)
			requireKind(t, err, apperr.KindValidation, MsgValidationFailed)
			assert.Equal(t, tt.want, apperr.From(err).Fields)
		})
	}
}

func TestGetBookByID_Ownership(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.registerUser(t, "owner@example.com")
	intruder := env.registerUser(t, "intruder@example.com")

	b := env.addBook(t, owner, model.CreateBookRequest{Title: "Mine", Author: "Me", Notes: "keep out"})

	got, err := env.books.GetBookByID(ctx, b.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, "keep out", got.Notes)
	assert.True(t, b.CreatedAt.Equal(got.CreatedAt))

	_, err = env.books.GetBookByID(ctx, b.ID, intruder)
	requireKind(t, err, apperr.KindNotFound, MsgBookNotFound)

	_, err = env.books.UpdateBook(ctx, b.ID, intruder, model.UpdateBookRequest{Title: strPtr("Stolen")})
	requireKind(t, err, apperr.KindNotFound, MsgBookNotFound)

	err = env.books.DeleteBook(ctx, b.ID, intruder)
	requireKind(t, err, apperr.KindNotFound, MsgBookNotFound)

	got, err = env.books.GetBookByID(ctx, b.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Title)

	_, err = env.books.GetBookByID(ctx, crypto.NewObjectID(), owner)
	requireKind(t, err, apperr.KindNotFound, MsgBookNotFound)

	_, err = env.books.GetBookByID(ctx, "bogus", owner)
	requireKind(t, err, apperr.KindValidation, MsgInvalidID)
}

func TestUpdateBook_Partial(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.registerUser(t, "reader@example.com")

	b := env.addBook(t, owner, model.CreateBookRequest{
		Title:  "Emma",
		Author: "Austen",
		Tags:   []string{"classic"},
		Notes:  "re-read",
	})

	reading := model.StatusReading
	got, err := env.books.UpdateBook(ctx, b.ID, owner, model.UpdateBookRequest{Status: &reading})
	require.NoError(t, err)

	assert.Equal(t, model.StatusReading, got.Status)
	assert.Equal(t, "Reading", got.StatusDisplay)
	assert.Equal(t, b.Title, got.Title)
	assert.Equal(t, b.Author, got.Author)
	assert.Equal(t, b.Tags, got.Tags)
	assert.Equal(t, b.Notes, got.Notes)
	assert.True(t, b.CreatedAt.Equal(got.CreatedAt))
	assert.False(t, got.UpdatedAt.Before(b.UpdatedAt))

	tags := []string{" Romance", "CLASSIC", "romance"}
	got, err = env.books.UpdateBook(ctx, b.ID, owner, model.UpdateBookRequest{Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, []string{"romance", "classic"}, got.Tags)

	stored, err := env.books.GetBookByID(ctx, b.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"romance", "classic"}, stored.Tags)
	assert.Equal(t, model.StatusReading, stored.Status)
}

func TestUpdateBook_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.registerUser(t, "reader@example.com")
	b := env.addBook(t, owner, model.CreateBookRequest{Title: "Emma", Author: "Austen"})

	_, err := env.books.UpdateBook(ctx, b.ID, owner, model.UpdateBookRequest{Title: strPtr("  ")})
	requireKind(t, err, apperr.KindValidation, MsgValidationFailed)
	assert.Equal(t, []string{"Title is required"}, apperr.From(err).Fields)

	bad := model.BookStatus("done")
	_, err = env.books.UpdateBook(ctx, b.ID, owner, model.UpdateBookRequest{Status: &bad})
	requireKind(t, err, apperr.KindValidation, MsgValidationFailed)
	assert.Equal(t, []string{MsgInvalidStatus}, apperr.From(err).Fields)

	empty := model.BookStatus("")
	_, err = env.books.UpdateBook(ctx, b.ID, owner, model.UpdateBookRequest{Status: &empty})
	requireKind(t, err, apperr.KindValidation, MsgValidationFailed)
	assert.Equal(t, []string{MsgInvalidStatus}, apperr.From(err).Fields)
	assert.Nil(t, apperr.From(err).Err)

	got, err := env.books.GetBookByID(ctx, b.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "Emma", got.Title)
	assert.Equal(t, model.StatusWantToRead, got.Status)
}

func TestDeleteBook(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.registerUser(t, "reader@example.com")
	b := env.addBook(t, owner, model.CreateBookRequest{Title: "Gone", Author: "Soon", Tags: []string{"x"}})

	require.NoError(t, env.books.DeleteBook(ctx, b.ID, owner))

	_, err := env.books.GetBookByID(ctx, b.ID, owner)
	requireKind(t, err, apperr.KindNotFound, MsgBookNotFound)

	tags, err := env.books.UserTags(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, tags)

	err = env.books.DeleteBook(ctx, b.ID, owner)
	requireKind(t, err, apperr.KindNotFound, MsgBookNotFound)
}

func TestCreateBooks(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.registerUser(t, "reader@example.com")

	created, err := env.books.CreateBooks(ctx, owner, []model.CreateBookRequest{
		{Title: "One", Author: "A"},
		{Title: "Two", Author: "B", Status: model.StatusCompleted, Tags: []string{"T"}},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "One", created[0].Title)
	assert.Equal(t, model.StatusWantToRead, created[0].Status)
	assert.Equal(t, []string{"t"}, created[1].Tags)

	list, err := env.books.ListBooks(ctx, owner, model.BookQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Pagination.Total)
}

func TestCreateBooks_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.registerUser(t, "reader@example.com")

	_, err := env.books.CreateBooks(ctx, owner, []model.CreateBookRequest{
		{Title: "Fine", Author: "A"},
		{Title: "", Author: "B"},
	})
	requireKind(t, err, apperr.KindValidation, MsgValidationFailed)
	assert.Equal(t, []string{"Book 2: Title is required"}, apperr.From(err).Fields)

	list, err := env.books.ListBooks(ctx, owner, model.BookQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, list.Pagination.Total)
}

func TestCreateBooks_Bounds(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.registerUser(t, "reader@example.com")

	_, err := env.books.CreateBooks(ctx, owner, nil)
	requireKind(t, err, apperr.KindValidation, MsgValidationFailed)

	many := make([]model.CreateBookRequest, MaxBulkBooks+1)
	for i := range many {
		many[i] = model.CreateBookRequest{Title: fmt.Sprintf("B%d", i), Author: "A"}
	}
	_, err = env.books.CreateBooks(ctx, owner, many)
	requireKind(t, err, apperr.KindValidation, MsgValidationFailed)
}

func TestListBooks_Filters(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.registerUser(t, "owner@example.com")
	other := env.registerUser(t, "other@example.com")

	env.addBook(t, owner, model.CreateBookRequest{Title: "Dune", Author: "Frank Herbert", Status: model.StatusReading, Tags: []string{"sci-fi"}})
	env.addBook(t, owner, model.CreateBookRequest{Title: "Emma", Author: "Jane Austen", Status: model.StatusCompleted})
	env.addBook(t, owner, model.CreateBookRequest{Title: "Hyperion", Author: "Dan Simmons", Tags: []string{"sci-fi"}})
	env.addBook(t, other, model.CreateBookRequest{Title: "Other Dune", Author: "X", Status: model.StatusReading})

	titles := func(l model.BookList) []string {
		out := []string{}
		for _, b := range l.Books {
			out = append(out, b.Title)
		}
		return out
	}

	tests := []struct {
		name  string
		query model.BookQuery
		want  []string
	}{
		{"no filters", model.BookQuery{}, []string{"Hyperion", "Emma", "Dune"}},
		{"reading only", model.BookQuery{Status: "reading"}, []string{"Dune"}},
		{"unknown status ignored", model.BookQuery{Status: "finished"}, []string{"Hyperion", "Emma", "Dune"}},
		{"tag", model.BookQuery{Tag: "Sci-Fi"}, []string{"Hyperion", "Dune"}},
		{"search author", model.BookQuery{Search: "HERBERT"}, []string{"Dune"}},
		{"search keeps spaces", model.BookQuery{Search: "k h"}, []string{"Dune"}},
		{"search padded", model.BookQuery{Search: " Dune "}, []string{}},
		{"tag and status", model.BookQuery{Tag: "sci-fi", Status: "want-to-read"}, []string{"Hyperion"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := env.books.ListBooks(ctx, owner, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(list))
			assert.Equal(t, len(tt.want), list.Pagination.Total)
			for _, b := range list.Books {
				assert.Equal(t, owner, b.User)
			}
		})
	}
}

func TestListBooks_Pagination(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.registerUser(t, "owner@example.com")

	for i := range 7 {
		env.addBook(t, owner, model.CreateBookRequest{Title: fmt.Sprintf("Book %d", i), Author: "A"})
	}

	list, err := env.books.ListBooks(ctx, owner, model.BookQuery{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, list.Books, 3)
	assert.Equal(t, model.PaginationMeta{Total: 7, Page: 2, Limit: 3, Pages: 3}, list.Pagination)
	assert.Equal(t, "Book 3", list.Books[0].Title)

	tests := []struct {
		name      string
		page      int
		limit     int
		wantPage  int
		wantLimit int
	}{
		{"defaults", 0, 0, 1, 10},
		{"negative page", -4, 5, 1, 5},
		{"limit too big", 1, 500, 1, 100},
		{"limit negative", 1, -1, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := env.books.ListBooks(ctx, owner, model.BookQuery{Page: tt.page, Limit: tt.limit})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, list.Pagination.Page)
			assert.Equal(t, tt.wantLimit, list.Pagination.Limit)
			assert.GreaterOrEqual(t, list.Pagination.Page, 1)
			assert.True(t, list.Pagination.Limit >= 1 && list.Pagination.Limit <= model.MaxLimit)
		})
	}
}

func TestUserTags(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.registerUser(t, "owner@example.com")

	env.addBook(t, owner, model.CreateBookRequest{Title: "A", Author: "X", Tags: []string{"b", "a"}})
	env.addBook(t, owner, model.CreateBookRequest{Title: "B", Author: "X", Tags: []string{"a"}})

	tags, err := env.books.UserTags(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []model.NameCount{{Name: "a", Count: 2}, {Name: "b", Count: 1}}, tags)
}
