package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/booktrack/booktrack-go/internal/apperr"
	"github.com/booktrack/booktrack-go/internal/model"
	"github.com/booktrack/booktrack-go/internal/repository"
)

// MaxBulkBooks caps how many books one bulk create may insert.
const MaxBulkBooks = 100

// Client-facing book messages.
const (
	MsgBookNotFound = "Book not found"
	MsgInvalidID    = "Invalid ID format"
)

// BookStore is the persistence the book service needs.
type BookStore interface {
	Create(ctx context.Context, book *model.Book) error
	CreateMany(ctx context.Context, books []*model.Book) error
	GetByID(ctx context.Context, id, userID string) (*model.Book, error)
	Update(ctx context.Context, book *model.Book, tagsChanged bool) error
	Delete(ctx context.Context, id, userID string) error
	List(ctx context.Context, f model.BookFilter, p model.Page) ([]model.Book, error)
	Count(ctx context.Context, f model.BookFilter) (int, error)
	TagCounts(ctx context.Context, userID string, limit int) ([]model.NameCount, error)
	AuthorCounts(ctx context.Context, userID string, limit int) ([]model.NameCount, error)
	Recent(ctx context.Context, userID string, n int) ([]model.RecentBook, error)
}

// BookService handles book business logic. Every operation is scoped to the
// calling user; another user's book is reported as not found.
type BookService struct {
	repo BookStore
}

// NewBookService creates a new BookService.
func NewBookService(repo BookStore) *BookService {
	return &BookService{repo: repo}
}

// ListBooks returns one page of the user's books matching the query.
// Unknown statuses are ignored and pagination is clamped to valid bounds.
func (s *BookService) ListBooks(ctx context.Context, userID string, q model.BookQuery) (model.BookList, error) {
	filter := model.BookFilter{
		UserID: userID,
		Tag:    strings.TrimSpace(q.Tag),
		Search: q.Search,
	}
	if status := model.BookStatus(q.Status); status.Valid() {
		filter.Status = status
	}
	page := model.NormalizePage(q.Page, q.Limit)

	books, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return model.BookList{}, apperr.Internal(fmt.Errorf("listing books: %w", err))
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return model.BookList{}, apperr.Internal(fmt.Errorf("counting books: %w", err))
	}

	return model.BookList{
		Books:      model.BooksToResponse(books),
		Pagination: model.NewPaginationMeta(total, page),
	}, nil
}

// GetBookByID fetches a single book owned by the user.
func (s *BookService) GetBookByID(ctx context.Context, id, userID string) (model.BookResponse, error) {
	book, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return model.BookResponse{}, bookError("loading book", err)
	}

	return book.Response(), nil
}

// CreateBook adds a book to the user's collection.
func (s *BookService) CreateBook(ctx context.Context, userID string, req model.CreateBookRequest) (model.BookResponse, error) {
	book, err := newBook(userID, req)
	if err != nil {
		return model.BookResponse{}, err
	}

	if err := s.repo.Create(ctx, book); err != nil {
		return model.BookResponse{}, bookError("creating book", err)
	}

	return book.Response(), nil
}

// CreateBooks adds several books at once. Either all are stored or none.
func (s *BookService) CreateBooks(ctx context.Context, userID string, reqs []model.CreateBookRequest) ([]model.BookResponse, error) {
	switch {
	case len(reqs) == 0:
		return nil, apperr.Validation(MsgValidationFailed, "At least one book is required")
	case len(reqs) > MaxBulkBooks:
		return nil, apperr.Validation(MsgValidationFailed,
			fmt.Sprintf("A maximum of %d books can be added at once", MaxBulkBooks))
	}

	books := make([]*model.Book, len(reqs))
	var fields []string
	for i, req := range reqs {
		book, err := newBook(userID, req)
		if err != nil {
			var ae *apperr.Error
			if !errors.As(err, &ae) {
				return nil, err
			}
			for _, f := range ae.Fields {
				fields = append(fields, fmt.Sprintf("Book %d: %s", i+1, f))
			}
			continue
		}
		books[i] = book
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(MsgValidationFailed, fields...)
	}

	if err := s.repo.CreateMany(ctx, books); err != nil {
		return nil, bookError("creating books", err)
	}

	out := make([]model.BookResponse, len(books))
	for i, b := range books {
		out[i] = b.Response()
	}
	return out, nil
}

// bookRecord is the merged state of an updated book. Every field has already
// been defaulted, so unlike a create request the status is required.
type bookRecord struct {
	Title  string           `validate:"required,max=200"`
	Author string           `validate:"required,max=100"`
	Tags   []string         `validate:"omitempty,dive,max=100"`
	Status model.BookStatus `validate:"required,bookstatus"`
	Notes  string           `validate:"max=1000"`
}

// UpdateBook applies a partial update. Only fields present in req change.
func (s *BookService) UpdateBook(ctx context.Context, id, userID string, req model.UpdateBookRequest) (model.BookResponse, error) {
	book, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return model.BookResponse{}, bookError("loading book", err)
	}

	if req.Title != nil {
		book.Title = strings.TrimSpace(*req.Title)
	}
	if req.Author != nil {
		book.Author = strings.TrimSpace(*req.Author)
	}
	if req.Notes != nil {
		book.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.Status != nil {
		book.Status = *req.Status
	}
	tagsChanged := req.Tags != nil
	if tagsChanged {
		book.Tags = model.SanitizeTags(*req.Tags)
	}

	if err := validateStruct(&bookRecord{
		Title:  book.Title,
		Author: book.Author,
		Tags:   book.Tags,
		Status: book.Status,
		Notes:  book.Notes,
	}); err != nil {
		return model.BookResponse{}, err
	}

	if err := s.repo.Update(ctx, book, tagsChanged); err != nil {
		return model.BookResponse{}, bookError("updating book", err)
	}

	return book.Response(), nil
}

// DeleteBook permanently removes a book.
func (s *BookService) DeleteBook(ctx context.Context, id, userID string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return bookError("deleting book", err)
	}
	return nil
}

// UserTags returns every tag the user has applied, most used first.
func (s *BookService) UserTags(ctx context.Context, userID string) ([]model.NameCount, error) {
	tags, err := s.repo.TagCounts(ctx, userID, 0)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("counting tags: %w", err))
	}
	return tags, nil
}

// newBook validates a create request and builds the record with defaults applied.
func newBook(userID string, req model.CreateBookRequest) (*model.Book, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	req.Notes = strings.TrimSpace(req.Notes)
	req.Tags = model.SanitizeTags(req.Tags)

	if err := validateStruct(&req); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = model.StatusWantToRead
	}

	return &model.Book{
		UserID: userID,
		Title:  req.Title,
		Author: req.Author,
		Tags:   req.Tags,
		Status: status,
		Notes:  req.Notes,
	}, nil
}

// bookError maps store failures onto client-facing errors.
func bookError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrBookNotFound):
		return apperr.NotFound(MsgBookNotFound)
	case errors.Is(err, repository.ErrInvalidID):
		return apperr.Validation(MsgInvalidID)
	case errors.Is(err, repository.ErrConstraint):
		e := apperr.Validation(MsgValidationFailed)
		e.Err = err
		return e
	default:
		return apperr.Internal(fmt.Errorf("%s: %w", op, err))
	}
}
