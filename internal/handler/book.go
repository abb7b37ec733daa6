package handler

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/booktrack/booktrack-go/internal/apperr"
	"github.com/booktrack/booktrack-go/internal/crypto"
	"github.com/booktrack/booktrack-go/internal/middleware"
	"github.com/booktrack/booktrack-go/internal/model"
	"github.com/booktrack/booktrack-go/internal/service"
)

// BookService is the book behaviour the HTTP layer depends on.
type BookService interface {
	ListBooks(ctx context.Context, userID string, q model.BookQuery) (model.BookList, error)
	GetBookByID(ctx context.Context, id, userID string) (model.BookResponse, error)
	CreateBook(ctx context.Context, userID string, req model.CreateBookRequest) (model.BookResponse, error)
	CreateBooks(ctx context.Context, userID string, reqs []model.CreateBookRequest) ([]model.BookResponse, error)
	UpdateBook(ctx context.Context, id, userID string, req model.UpdateBookRequest) (model.BookResponse, error)
	DeleteBook(ctx context.Context, id, userID string) error
	DashboardStatistics(ctx context.Context, userID string) (model.DashboardStats, error)
	UserTags(ctx context.Context, userID string) ([]model.NameCount, error)
	StatusCounts(ctx context.Context, userID string) (model.StatusCountsWithTotal, error)
}

// BookHandler handles HTTP requests for the caller's books.
type BookHandler struct {
	errorWriter
	service BookService
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(svc BookService, dev bool) *BookHandler {
	return &BookHandler{errorWriter: errorWriter{dev: dev}, service: svc}
}

// HandleList handles GET /api/books requests.
func (h *BookHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, found := currentUser(w, r)
	if !found {
		return
	}

	q, err := parseBookQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	list, err := h.service.ListBooks(r.Context(), userID, q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listEnvelope{
		Success: true,
		Count:   len(list.Books),
		Total:   list.Pagination.Total,
		Page:    list.Pagination.Page,
		Pages:   list.Pagination.Pages,
		Limit:   list.Pagination.Limit,
		Data:    list.Books,
	})
}

// HandleGet handles GET /api/books/{id} requests.
func (h *BookHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, found := currentUser(w, r)
	if !found {
		return
	}
	id, err := bookID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	book, err := h.service.GetBookByID(r.Context(), id, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ok(w, http.StatusOK, "", book)
}

// HandleCreate handles POST /api/books requests.
func (h *BookHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, found := currentUser(w, r)
	if !found {
		return
	}

	var req model.CreateBookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	book, err := h.service.CreateBook(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ok(w, http.StatusCreated, "Book added successfully", book)
}

// HandleBulkCreate handles POST /api/books/bulk requests with a JSON array body.
func (h *BookHandler) HandleBulkCreate(w http.ResponseWriter, r *http.Request) {
	userID, found := currentUser(w, r)
	if !found {
		return
	}

	var reqs []model.CreateBookRequest
	if err := decodeJSON(w, r, &reqs); err != nil {
		h.writeError(w, r, err)
		return
	}

	books, err := h.service.CreateBooks(r.Context(), userID, reqs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, countEnvelope{
		Success: true,
		Message: "Books added successfully",
		Count:   len(books),
		Data:    books,
	})
}

// HandleUpdate handles PUT /api/books/{id} requests.
func (h *BookHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, found := currentUser(w, r)
	if !found {
		return
	}
	id, err := bookID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req model.UpdateBookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	book, err := h.service.UpdateBook(r.Context(), id, userID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ok(w, http.StatusOK, "Book updated successfully", book)
}

// HandleDelete handles DELETE /api/books/{id} requests.
func (h *BookHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, found := currentUser(w, r)
	if !found {
		return
	}
	id, err := bookID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.DeleteBook(r.Context(), id, userID); err != nil {
		h.writeError(w, r, err)
		return
	}

	ok(w, http.StatusOK, "Book deleted successfully", map[string]any{})
}

// HandleDashboard handles GET /api/books/dashboard/stats requests.
func (h *BookHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, found := currentUser(w, r)
	if !found {
		return
	}

	stats, err := h.service.DashboardStatistics(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ok(w, http.StatusOK, "", stats)
}

// HandleTags handles GET /api/books/tags requests.
func (h *BookHandler) HandleTags(w http.ResponseWriter, r *http.Request) {
	userID, found := currentUser(w, r)
	if !found {
		return
	}

	tags, err := h.service.UserTags(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, countEnvelope{Success: true, Count: len(tags), Data: tags})
}

// HandleStatusCounts handles GET /api/books/stats/status requests.
func (h *BookHandler) HandleStatusCounts(w http.ResponseWriter, r *http.Request) {
	userID, found := currentUser(w, r)
	if !found {
		return
	}

	counts, err := h.service.StatusCounts(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ok(w, http.StatusOK, "", counts)
}

// parseBookQuery reads list filters from the query string, rejecting
// unknown statuses and out-of-range pagination.
func parseBookQuery(r *http.Request) (model.BookQuery, error) {
	values := r.URL.Query()
	q := model.BookQuery{
		Status: values.Get("status"),
		Tag:    values.Get("tag"),
		Search: values.Get("search"),
	}

	var fields []string

	if q.Status != "" && !model.BookStatus(q.Status).Valid() {
		fields = append(fields, service.MsgInvalidStatus)
	}

	if raw := values.Get("page"); raw != "" {
		page, numeric := queryInt(raw)
		if !numeric || page < 1 {
			fields = append(fields, "Page must be a positive number")
		} else {
			q.Page = page
		}
	}

	if raw := values.Get("limit"); raw != "" {
		limit, numeric := queryInt(raw)
		if !numeric || limit < 1 || limit > model.MaxLimit {
			fields = append(fields, "Limit must be between 1 and 100")
		} else {
			q.Limit = limit
		}
	}

	if len(fields) > 0 {
		return model.BookQuery{}, apperr.Validation(service.MsgValidationFailed, fields...)
	}
	return q, nil
}

// bookID returns the {id} path parameter if it is a well-formed object id.
func bookID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if !crypto.IsValidObjectID(id) {
		return "", apperr.Validation(service.MsgInvalidID)
	}
	return id, nil
}

// currentUser fetches the authenticated user id, answering 401 when absent.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, found := middleware.UserIDFromContext(r.Context())
	if !found {
		writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: middleware.MsgNoToken})
	}
	return userID, found
}

// queryInt reads a numeric query value and keeps its integer part, so
// "2.7" is page 2. Non-numeric input reports false.
func queryInt(raw string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Trunc(max(min(f, math.MaxInt32), math.MinInt32))), true
}
