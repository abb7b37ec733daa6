package repository

import (
	"strings"

	"github.com/booktrack/booktrack-go/internal/model"
)

// likeEscape is the escape character used in LIKE patterns. It is not a
// default escape in either MySQL or SQLite, so it is declared explicitly.
const likeEscape = "!"

var likeEscaper = strings.NewReplacer(
	likeEscape, likeEscape+likeEscape,
	"%", likeEscape+"%",
	"_", likeEscape+"_",
)

// foldSearch is the case folding applied to the stored search columns and to
// search terms. SQL LOWER is ASCII-only on SQLite, so folding happens in Go.
func foldSearch(s string) string {
	return strings.ToLower(s)
}

// containsPattern builds a case-folded LIKE pattern matching s anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(foldSearch(s)) + "%"
}

// buildBookWhere composes the owner-scoped WHERE clause for a filter.
// Active filters are AND-ed; the search term matches title OR author.
func buildBookWhere(f model.BookFilter) (string, []any) {
	clauses := []string{"b.user_id = ?"}
	args := []any{f.UserID}

	if f.Status.Valid() {
		clauses = append(clauses, "b.status = ?")
		args = append(args, string(f.Status))
	}

	if tag := model.NormalizeTag(f.Tag); tag != "" {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM book_tags t WHERE t.book_id = b.id AND t.tag = ?)")
		args = append(args, tag)
	}

	if f.Search != "" {
		pattern := containsPattern(f.Search)
		clauses = append(clauses,
			"(b.title_search LIKE ? ESCAPE '"+likeEscape+"' OR b.author_search LIKE ? ESCAPE '"+likeEscape+"')")
		args = append(args, pattern, pattern)
	}

	return strings.Join(clauses, " AND "), args
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
