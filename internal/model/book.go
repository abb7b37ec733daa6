package model

import (
	"strings"
	"time"
)

// BookStatus is the reading state of a book.
type BookStatus string

const (
	StatusWantToRead BookStatus = "want-to-read"
	StatusReading    BookStatus = "reading"
	StatusCompleted  BookStatus = "completed"
)

// Statuses lists every valid status in display order.
var Statuses = []BookStatus{StatusWantToRead, StatusReading, StatusCompleted}

// Valid reports whether s is one of the known statuses.
func (s BookStatus) Valid() bool {
	switch s {
	case StatusWantToRead, StatusReading, StatusCompleted:
		return true
	}
	return false
}

// StatusDisplay returns the human-readable label for a status, or "" if unknown.
func StatusDisplay(s BookStatus) string {
	switch s {
	case StatusWantToRead:
		return "Want to Read"
	case StatusReading:
		return "Reading"
	case StatusCompleted:
		return "Completed"
	}
	return ""
}

// Field limits for books.
const (
	TitleMaxLength  = 200
	AuthorMaxLength = 100
	NotesMaxLength  = 1000
	TagMaxLength    = 100
)

// Book represents a book record in the database.
type Book struct {
	ID        string
	UserID    string
	Title     string
	Author    string
	Tags      []string
	Status    BookStatus
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateBookRequest is the payload for creating a book.
type CreateBookRequest struct {
	Title  string     `json:"title" validate:"required,max=200"`
	Author string     `json:"author" validate:"required,max=100"`
	Tags   []string   `json:"tags" validate:"omitempty,dive,max=100"`
	Status BookStatus `json:"status" validate:"omitempty,bookstatus"`
	Notes  string     `json:"notes" validate:"max=1000"`
}

// UpdateBookRequest is a partial update. Nil fields are left unchanged.
type UpdateBookRequest struct {
	Title  *string     `json:"title" validate:"omitempty,max=200"`
	Author *string     `json:"author" validate:"omitempty,max=100"`
	Tags   *[]string   `json:"tags" validate:"omitempty,dive,max=100"`
	Status *BookStatus `json:"status" validate:"omitempty,bookstatus"`
	Notes  *string     `json:"notes" validate:"omitempty,max=1000"`
}

// BookResponse is the API representation of a book.
type BookResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	Tags          []string   `json:"tags"`
	Status        BookStatus `json:"status"`
	StatusDisplay string     `json:"statusDisplay"`
	Notes         string     `json:"notes"`
	User          string     `json:"user"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Response converts a book into its API representation.
func (b *Book) Response() BookResponse {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	return BookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Tags:          tags,
		Status:        b.Status,
		StatusDisplay: StatusDisplay(b.Status),
		Notes:         b.Notes,
		User:          b.UserID,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

// BooksToResponse converts a slice of books, never returning nil.
func BooksToResponse(books []Book) []BookResponse {
	result := make([]BookResponse, len(books))
	for i := range books {
		result[i] = books[i].Response()
	}
	return result
}

// SanitizeTags trims and lowercases tags, drops empties and removes
// duplicates while keeping first-seen order. The result is never nil.
func SanitizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))

	for _, tag := range tags {
		t := NormalizeTag(tag)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	return out
}

// NormalizeTag returns the canonical form of a single tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
