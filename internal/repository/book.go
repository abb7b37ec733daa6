package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/booktrack/booktrack-go/internal/crypto"
	"github.com/booktrack/booktrack-go/internal/model"
)

var ErrBookNotFound = errors.New("book not found")

const bookColumns = `b.id, b.user_id, b.title, b.author, b.status, b.notes, b.created_at, b.updated_at`

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// BookRepository handles book persistence operations. Every read and write
// is scoped to the owning user.
type BookRepository struct {
	db *sql.DB
}

// NewBookRepository creates a new BookRepository.
func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db: db}
}

// withTx runs fn inside a transaction, committing on success.
func (r *BookRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

// Create inserts a book and its tags, assigning the ID and timestamps.
func (r *BookRepository) Create(ctx context.Context, book *model.Book) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return insertBook(ctx, tx, book)
	})
}

// CreateMany inserts all books in a single transaction; either all are stored or none.
func (r *BookRepository) CreateMany(ctx context.Context, books []*model.Book) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for i, b := range books {
			if err := insertBook(ctx, tx, b); err != nil {
				return fmt.Errorf("book %d: %w", i, err)
			}
		}
		return nil
	})
}

func insertBook(ctx context.Context, q querier, book *model.Book) error {
	now := now()
	book.ID = crypto.NewObjectID()
	book.CreatedAt = now
	book.UpdatedAt = now

	query := `INSERT INTO books (id, user_id, title, author, title_search, author_search,
		status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := q.ExecContext(ctx, query,
		book.ID, book.UserID, book.Title, book.Author, foldSearch(book.Title), foldSearch(book.Author),
		string(book.Status), book.Notes, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		return classify(err, nil)
	}

	return replaceTags(ctx, q, book.ID, book.Tags)
}

// replaceTags overwrites the stored tag set of a book, preserving order.
func replaceTags(ctx context.Context, q querier, bookID string, tags []string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM book_tags WHERE book_id = ?`, bookID); err != nil {
		return err
	}

	for i, tag := range tags {
		_, err := q.ExecContext(ctx,
			`INSERT INTO book_tags (book_id, position, tag) VALUES (?, ?, ?)`, bookID, i, tag)
		if err != nil {
			return classify(err, nil)
		}
	}

	return nil
}

// GetByID retrieves a book by ID, only if it belongs to userID.
func (r *BookRepository) GetByID(ctx context.Context, id, userID string) (*model.Book, error) {
	if !crypto.IsValidObjectID(id) {
		return nil, ErrInvalidID
	}

	query := `SELECT ` + bookColumns + ` FROM books b WHERE b.id = ? AND b.user_id = ?`

	book := &model.Book{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&book.ID, &book.UserID, &book.Title, &book.Author, &book.Status, &book.Notes,
		&book.CreatedAt, &book.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	tags, err := loadTags(ctx, r.db, []string{book.ID})
	if err != nil {
		return nil, err
	}
	book.Tags = tags[book.ID]
	if book.Tags == nil {
		book.Tags = []string{}
	}

	return book, nil
}

// Update saves every mutable column of the book. Tags are rewritten only when tagsChanged.
// The caller loads the book through GetByID first; the WHERE clause keeps the write owner-scoped.
func (r *BookRepository) Update(ctx context.Context, book *model.Book, tagsChanged bool) error {
	book.UpdatedAt = now()

	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := `UPDATE books SET title = ?, author = ?, title_search = ?, author_search = ?,
			status = ?, notes = ?, updated_at = ?
			WHERE id = ? AND user_id = ?`

		_, err := tx.ExecContext(ctx, query,
			book.Title, book.Author, foldSearch(book.Title), foldSearch(book.Author),
			string(book.Status), book.Notes, book.UpdatedAt,
			book.ID, book.UserID,
		)
		if err != nil {
			return classify(err, nil)
		}

		if tagsChanged {
			return replaceTags(ctx, tx, book.ID, book.Tags)
		}
		return nil
	})
}

// Delete permanently removes a book and its tags.
func (r *BookRepository) Delete(ctx context.Context, id, userID string) error {
	if !crypto.IsValidObjectID(id) {
		return ErrInvalidID
	}

	return r.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return err
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return ErrBookNotFound
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM book_tags WHERE book_id = ?`, id)
		return err
	})
}

// List returns one page of books matching the filter, most recently created first.
func (r *BookRepository) List(ctx context.Context, f model.BookFilter, p model.Page) ([]model.Book, error) {
	where, args := buildBookWhere(f)
	query := `SELECT ` + bookColumns + ` FROM books b WHERE ` + where +
		` ORDER BY b.created_at DESC, b.id DESC LIMIT ? OFFSET ?`
	args = append(args, p.Limit, p.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []model.Book{}
	ids := []string{}
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.Title, &b.Author, &b.Status, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		books = append(books, b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags, err := loadTags(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range books {
		books[i].Tags = tags[books[i].ID]
		if books[i].Tags == nil {
			books[i].Tags = []string{}
		}
	}

	return books, nil
}

// Count returns the number of books matching the filter, ignoring pagination.
func (r *BookRepository) Count(ctx context.Context, f model.BookFilter) (int, error) {
	where, args := buildBookWhere(f)

	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books b WHERE `+where, args...).Scan(&n)
	return n, err
}

// TagCounts returns tag frequencies for a user's books, highest first.
// A limit of zero or less returns every tag.
func (r *BookRepository) TagCounts(ctx context.Context, userID string, limit int) ([]model.NameCount, error) {
	query := `SELECT t.tag, COUNT(*) AS n FROM book_tags t
		JOIN books b ON b.id = t.book_id
		WHERE b.user_id = ?
		GROUP BY t.tag
		ORDER BY n DESC, t.tag ASC`
	return r.nameCounts(ctx, query, userID, limit)
}

// AuthorCounts returns how many books a user has per author, highest first.
func (r *BookRepository) AuthorCounts(ctx context.Context, userID string, limit int) ([]model.NameCount, error) {
	query := `SELECT b.author, COUNT(*) AS n FROM books b
		WHERE b.user_id = ?
		GROUP BY b.author
		ORDER BY n DESC, b.author ASC`
	return r.nameCounts(ctx, query, userID, limit)
}

func (r *BookRepository) nameCounts(ctx context.Context, query, userID string, limit int) ([]model.NameCount, error) {
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []model.NameCount{}
	for rows.Next() {
		var c model.NameCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// Recent returns the n most recently created books of a user, projected.
func (r *BookRepository) Recent(ctx context.Context, userID string, n int) ([]model.RecentBook, error) {
	query := `SELECT b.id, b.title, b.author, b.status, b.created_at FROM books b
		WHERE b.user_id = ?
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recent := []model.RecentBook{}
	for rows.Next() {
		var rb model.RecentBook
		if err := rows.Scan(&rb.ID, &rb.Title, &rb.Author, &rb.Status, &rb.CreatedAt); err != nil {
			return nil, err
		}
		recent = append(recent, rb)
	}

	return recent, rows.Err()
}

// loadTags fetches the tags of the given books, keyed by book ID, in stored order.
func loadTags(ctx context.Context, q querier, bookIDs []string) (map[string][]string, error) {
	tags := make(map[string][]string, len(bookIDs))
	if len(bookIDs) == 0 {
		return tags, nil
	}

	args := make([]any, len(bookIDs))
	for i, id := range bookIDs {
		args[i] = id
	}

	query := `SELECT book_id, tag FROM book_tags WHERE book_id IN (` + placeholders(len(bookIDs)) + `)
		ORDER BY book_id, position`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var bookID, tag string
		if err := rows.Scan(&bookID, &tag); err != nil {
			return nil, err
		}
		tags[bookID] = append(tags[bookID], tag)
	}

	return tags, rows.Err()
}
