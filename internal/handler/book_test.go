package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/snnyvrz/books-catalog/internal/model"
	"github.com/snnyvrz/books-catalog/internal/repository"
	"github.com/snnyvrz/books-catalog/internal/validation"
)

var validBook = map[string]any{
	"title":  "Dune",
	"author": "Frank Herbert",
	"genre":  "Science Fiction",
	"pages":  412,
}

func TestListBooks_PassesPagingToRepository(t *testing.T) {
	var got repository.BookPageParams
	repo := &fakeBookRepo{
		FindPageFn: func(ctx context.Context, params repository.BookPageParams) (repository.BookPage, error) {
			got = params
			return repository.BookPage{
				Books: []model.Book{{ID: 6, Title: "T", Author: "A", Genre: "Fiction", Pages: 10}},
				Total: 12,
			}, nil
		},
	}
	router := setupBookRouterWithRepo(repo, false)

	w := doJSON(t, router, http.MethodGet, "/api/all?page=2&limit=5", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if got.Limit != 5 || got.Offset() != 5 {
		t.Fatalf("expected limit 5 offset 5, got limit %d offset %d", got.Limit, got.Offset())
	}
	if got.SortBy != "createdAt" || got.Order != "DESC" {
		t.Fatalf("expected default sort createdAt DESC, got %s %s", got.SortBy, got.Order)
	}

	resp := decode[ListBooksResponse](t, w)
	want := Pagination{Page: 2, Limit: 5, Total: 12, Pages: 3}
	if resp.Pagination != want {
		t.Fatalf("expected pagination %+v, got %+v", want, resp.Pagination)
	}
	if len(resp.Books) != 1 || resp.Books[0].ID != 6 {
		t.Fatalf("unexpected books: %+v", resp.Books)
	}
}

func TestListBooks_LimitBounds(t *testing.T) {
	tests := []struct {
		query string
		limit int
	}{
		{"limit=500", repository.MaxPageLimit},
		{"limit=0", repository.DefaultPageLimit},
		{"limit=abc", repository.DefaultPageLimit},
		{"", repository.DefaultPageLimit},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got repository.BookPageParams
			repo := &fakeBookRepo{
				FindPageFn: func(ctx context.Context, params repository.BookPageParams) (repository.BookPage, error) {
					got = params
					return repository.BookPage{}, nil
				},
			}
			router := setupBookRouterWithRepo(repo, false)

			w := doJSON(t, router, http.MethodGet, "/api/all?"+tt.query, nil)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
			}
			if got.Limit != tt.limit {
				t.Fatalf("expected limit %d, got %d", tt.limit, got.Limit)
			}
			if resp := decode[ListBooksResponse](t, w); resp.Books == nil {
				t.Fatalf("expected books to be an empty array, not null")
			}
		})
	}
}

func TestGetBookByID_InvalidIDSkipsRepository(t *testing.T) {
	for _, id := range []string{"abc", "0", "-1", "1.5", "99999999999999999999"} {
		t.Run(id, func(t *testing.T) {
			called := false
			repo := &fakeBookRepo{
				FindByIDFn: func(ctx context.Context, id uint) (*model.Book, error) {
					called = true
					return nil, repository.ErrNotFound
				},
			}
			router := setupBookRouterWithRepo(repo, false)

			w := doJSON(t, router, http.MethodGet, "/api/book/"+id, nil)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
			if called {
				t.Fatalf("repository must not be called for id %q", id)
			}
			resp := decode[validation.ErrorResponse](t, w)
			if resp.Error != "Invalid book ID" {
				t.Fatalf("expected %q, got %q", "Invalid book ID", resp.Error)
			}
		})
	}
}

func TestGetBookByID_NotFound(t *testing.T) {
	router := setupBookRouterWithRepo(&fakeBookRepo{}, false)

	w := doJSON(t, router, http.MethodGet, "/api/book/999999", nil)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
	resp := decode[validation.ErrorResponse](t, w)
	if resp.Code != "BOOK_NOT_FOUND" || resp.Error != "Book not found" {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestSearchByTitle_TooShort(t *testing.T) {
	called := false
	repo := &fakeBookRepo{
		SearchByTitleFn: func(ctx context.Context, q string) ([]model.Book, error) {
			called = true
			return nil, nil
		},
	}
	router := setupBookRouterWithRepo(repo, false)

	for _, path := range []string{"/api/search/a", "/api/search/%20a%20"} {
		w := doJSON(t, router, http.MethodGet, path, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d, got %d", path, http.StatusBadRequest, w.Code)
		}
	}
	if called {
		t.Fatalf("repository must not be called for short terms")
	}
}

func TestSearchByTitle_TrimsTerm(t *testing.T) {
	var term string
	repo := &fakeBookRepo{
		SearchByTitleFn: func(ctx context.Context, q string) ([]model.Book, error) {
			term = q
			return []model.Book{{ID: 1, Title: "Dune"}}, nil
		},
	}
	router := setupBookRouterWithRepo(repo, false)

	w := doJSON(t, router, http.MethodGet, "/api/search/%20du%20", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if term != "du" {
		t.Fatalf("expected trimmed term %q, got %q", "du", term)
	}
	resp := decode[TitleSearchResponse](t, w)
	if resp.SearchTerm != "du" || resp.Count != 1 {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestSearchByGenreAndAuthor_BlankParam(t *testing.T) {
	router := setupBookRouterWithRepo(&fakeBookRepo{}, false)

	tests := []struct {
		path string
		code string
	}{
		{"/api/genre/%20", "GENRE_REQUIRED"},
		{"/api/author/%20", "AUTHOR_REQUIRED"},
	}
	for _, tt := range tests {
		w := doJSON(t, router, http.MethodGet, tt.path, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d, got %d", tt.path, http.StatusBadRequest, w.Code)
		}
		if resp := decode[validation.ErrorResponse](t, w); resp.Code != tt.code {
			t.Fatalf("%s: expected code %s, got %s", tt.path, tt.code, resp.Code)
		}
	}
}

func TestLongAndShortBooks_Envelope(t *testing.T) {
	repo := &fakeBookRepo{
		FindLongFn: func(ctx context.Context) ([]model.Book, error) {
			return []model.Book{{ID: 1, Pages: 900}, {ID: 2, Pages: 400}}, nil
		},
	}
	router := setupBookRouterWithRepo(repo, false)

	w := doJSON(t, router, http.MethodGet, "/api/books/long", nil)
	resp := decode[FilterResponse](t, w)
	if resp.Filter != "long" || resp.Count != 2 || resp.Criteria != "More than 300 pages" {
		t.Fatalf("unexpected long response: %+v", resp)
	}

	w = doJSON(t, router, http.MethodGet, "/api/books/short", nil)
	resp = decode[FilterResponse](t, w)
	if resp.Filter != "short" || resp.Count != 0 || resp.Criteria != "150 pages or less" {
		t.Fatalf("unexpected short response: %+v", resp)
	}
}

func TestCreateBook_MissingFields(t *testing.T) {
	called := false
	repo := &fakeBookRepo{
		CreateFn: func(ctx context.Context, fields model.BookFields) (*model.Book, error) {
			called = true
			return nil, nil
		},
	}
	router := setupBookRouterWithRepo(repo, false)

	w := doJSON(t, router, http.MethodPost, "/api/books", map[string]any{})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if called {
		t.Fatalf("repository must not be called for invalid input")
	}

	resp := decode[validation.ErrorResponse](t, w)
	want := []string{
		"Title is required",
		"Author is required",
		"Genre is required",
		"Pages must be a positive number",
	}
	if strings.Join(resp.Details, "|") != strings.Join(want, "|") {
		t.Fatalf("expected details %q, got %q", want, resp.Details)
	}
}

func TestCreateBook_Duplicate(t *testing.T) {
	repo := &fakeBookRepo{
		CreateFn: func(ctx context.Context, fields model.BookFields) (*model.Book, error) {
			return nil, &repository.DuplicateError{Existing: model.Book{ID: 7, Title: fields.Title, Author: fields.Author}}
		},
	}
	router := setupBookRouterWithRepo(repo, false)

	w := doJSON(t, router, http.MethodPost, "/api/books", validBook)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
	}
	resp := decode[ConflictResponse](t, w)
	if resp.ExistingBook.ID != 7 || resp.ExistingBook.Title != "Dune" {
		t.Fatalf("unexpected conflict body: %+v", resp)
	}
}

func TestCreateBook_FormBody(t *testing.T) {
	var got model.BookFields
	repo := &fakeBookRepo{
		CreateFn: func(ctx context.Context, fields model.BookFields) (*model.Book, error) {
			got = fields
			return &model.Book{ID: 3, Title: fields.Title, Author: fields.Author, Genre: fields.Genre, Pages: fields.Pages}, nil
		},
	}
	router := setupBookRouterWithRepo(repo, false)

	form := url.Values{"title": {"Emma"}, "author": {"Jane Austen"}, "genre": {"Romance"}, "pages": {"474"}}
	req := httptest.NewRequest(http.MethodPost, "/api/books", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	if got.Pages != 474 || got.Genre != "Romance" {
		t.Fatalf("unexpected fields: %+v", got)
	}
}

func TestUpdateBook_ValidatesBodyBeforeID(t *testing.T) {
	router := setupBookRouterWithRepo(&fakeBookRepo{}, false)

	w := doJSON(t, router, http.MethodPut, "/api/books/abc", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if resp := decode[validation.ErrorResponse](t, w); resp.Code != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %q", resp.Code)
	}

	w = doJSON(t, router, http.MethodPut, "/api/books/abc", validBook)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if resp := decode[validation.ErrorResponse](t, w); resp.Code != "INVALID_BOOK_ID" {
		t.Fatalf("expected INVALID_BOOK_ID, got %q", resp.Code)
	}
}

func TestUpdateBook_NotFound(t *testing.T) {
	repo := &fakeBookRepo{
		UpdateFn: func(ctx context.Context, id uint, fields model.BookFields) (*model.Book, error) {
			return nil, repository.ErrNotFound
		},
	}
	router := setupBookRouterWithRepo(repo, false)

	w := doJSON(t, router, http.MethodPut, "/api/books/42", validBook)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestDeleteBook_InvalidID(t *testing.T) {
	router := setupBookRouterWithRepo(&fakeBookRepo{}, false)

	w := doJSON(t, router, http.MethodDelete, "/api/books/abc", nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestStats_Response(t *testing.T) {
	repo := &fakeBookRepo{
		StatsFn: func(ctx context.Context) (model.Stats, error) {
			return model.Stats{
				TotalBooks:   2,
				TotalPages:   500,
				AveragePages: 250,
				GenreDistribution: []model.GenreCount{
					{Genre: "Fiction", Count: 1},
					{Genre: "History", Count: 1},
				},
			}, nil
		},
	}
	router := setupBookRouterWithRepo(repo, false)

	w := doJSON(t, router, http.MethodGet, "/api/stats", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	resp := decode[StatsResponse](t, w)
	if resp.TotalBooks != 2 || resp.TotalPages != 500 || resp.AveragePages != 250 {
		t.Fatalf("unexpected stats: %+v", resp)
	}
	if len(resp.GenreDistribution) != 2 || resp.GenreDistribution[0].Genre != "Fiction" {
		t.Fatalf("unexpected distribution: %+v", resp.GenreDistribution)
	}
}

func TestInternalError_HiddenOutsideDevelopment(t *testing.T) {
	repo := &fakeBookRepo{
		StatsFn: func(ctx context.Context) (model.Stats, error) {
			return model.Stats{}, errors.New("connection refused")
		},
	}

	tests := []struct {
		name    string
		expose  bool
		message string
	}{
		{"production", false, "Internal server error"},
		{"development", true, "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupBookRouterWithRepo(repo, tt.expose)

			w := doJSON(t, router, http.MethodGet, "/api/stats", nil)

			if w.Code != http.StatusInternalServerError {
				t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
			}
			resp := decode[validation.ErrorResponse](t, w)
			if resp.Error != "Something went wrong!" {
				t.Fatalf("expected generic error, got %q", resp.Error)
			}
			if resp.Message != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, resp.Message)
			}
		})
	}
}

// The remaining tests run the handler against a real sqlite-backed
// repository.

func TestCreateBook_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	w := doJSON(t, router, http.MethodPost, "/api/books", validBook)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	created := decode[BookMessageResponse](t, w)
	if created.Message != "Book created successfully" {
		t.Fatalf("unexpected message %q", created.Message)
	}
	if created.Book.ID == 0 || created.Book.Title != "Dune" || created.Book.Pages != 412 {
		t.Fatalf("unexpected created book: %+v", created.Book)
	}

	w = doJSON(t, router, http.MethodGet, "/api/book/"+itoa(created.Book.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	fetched := decode[Book](t, w)
	if fetched.Title != "Dune" || fetched.Author != "Frank Herbert" ||
		fetched.Genre != "Science Fiction" || fetched.Pages != 412 {
		t.Fatalf("round trip mismatch: %+v", fetched)
	}
}

func TestCreateBook_DuplicateAgainstStore(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	first := decode[BookMessageResponse](t, doJSON(t, router, http.MethodPost, "/api/books", validBook))

	w := doJSON(t, router, http.MethodPost, "/api/books", validBook)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
	}
	resp := decode[ConflictResponse](t, w)
	if resp.ExistingBook.ID != first.Book.ID {
		t.Fatalf("expected existing id %d, got %d", first.Book.ID, resp.ExistingBook.ID)
	}
}

func TestUpdateBook_AgainstStore(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	created := decode[BookMessageResponse](t, doJSON(t, router, http.MethodPost, "/api/books", validBook))
	time.Sleep(5 * time.Millisecond)

	w := doJSON(t, router, http.MethodPut, "/api/books/"+itoa(created.Book.ID), map[string]any{
		"title":  "Dune Messiah",
		"author": "Frank Herbert",
		"genre":  "Science Fiction",
		"pages":  256,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	updated := decode[BookMessageResponse](t, w)
	if updated.Message != "Book updated successfully" || updated.Book.Title != "Dune Messiah" {
		t.Fatalf("unexpected update response: %+v", updated)
	}
	if !updated.Book.UpdatedAt.After(created.Book.UpdatedAt) {
		t.Fatalf("expected updatedAt to advance")
	}
}

func TestDeleteBook_ThenNotFound(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	created := decode[BookMessageResponse](t, doJSON(t, router, http.MethodPost, "/api/books", validBook))
	path := "/api/books/" + itoa(created.Book.ID)

	w := doJSON(t, router, http.MethodDelete, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	resp := decode[DeleteBookResponse](t, w)
	if resp.DeletedBook.ID != created.Book.ID || resp.Message != "Book deleted successfully" {
		t.Fatalf("unexpected delete response: %+v", resp)
	}

	w = doJSON(t, router, http.MethodDelete, path, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d on second delete, got %d", http.StatusNotFound, w.Code)
	}
}

func TestStats_AgainstStore(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	for _, b := range []map[string]any{
		{"title": "A", "author": "X", "genre": "Fiction", "pages": 200},
		{"title": "B", "author": "Y", "genre": "History", "pages": 300},
	} {
		if w := doJSON(t, router, http.MethodPost, "/api/books", b); w.Code != http.StatusCreated {
			t.Fatalf("seed failed with %d: %s", w.Code, w.Body.String())
		}
	}

	resp := decode[StatsResponse](t, doJSON(t, router, http.MethodGet, "/api/stats", nil))
	if resp.TotalBooks != 2 || resp.TotalPages != 500 || resp.AveragePages != 250 {
		t.Fatalf("unexpected stats: %+v", resp)
	}
}

func TestListBooks_RepeatableWithoutWrites(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	for _, title := range []string{"One", "Two", "Three"} {
		b := map[string]any{"title": title, "author": "Anon", "genre": "Other", "pages": 10}
		if w := doJSON(t, router, http.MethodPost, "/api/books", b); w.Code != http.StatusCreated {
			t.Fatalf("seed failed with %d", w.Code)
		}
	}

	first := doJSON(t, router, http.MethodGet, "/api/all?limit=2&sortBy=title&order=asc", nil).Body.String()
	second := doJSON(t, router, http.MethodGet, "/api/all?limit=2&sortBy=title&order=asc", nil).Body.String()
	if first != second {
		t.Fatalf("expected identical listings:\n%s\n%s", first, second)
	}
}

func TestListBooks_PageBeyondAddressableOffset(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	for _, title := range []string{"Alpha", "Beta", "Gamma"} {
		b := map[string]any{"title": title, "author": "Anon", "genre": "Other", "pages": 10}
		if w := doJSON(t, router, http.MethodPost, "/api/books", b); w.Code != http.StatusCreated {
			t.Fatalf("seed failed with %d", w.Code)
		}
	}

	w := doJSON(t, router, http.MethodGet, "/api/all?page=4611686018427387904&limit=4", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	resp := decode[ListBooksResponse](t, w)
	if len(resp.Books) != 0 {
		t.Fatalf("expected no books past the end, got %+v", resp.Books)
	}
	want := Pagination{Page: 4611686018427387904, Limit: 4, Total: 3, Pages: 1}
	if resp.Pagination != want {
		t.Fatalf("expected pagination %+v, got %+v", want, resp.Pagination)
	}
}
