package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/snnyvrz/books-catalog/internal/middleware"
	"github.com/snnyvrz/books-catalog/internal/model"
	"github.com/snnyvrz/books-catalog/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeBookRepo struct {
	FindPageFn       func(ctx context.Context, params repository.BookPageParams) (repository.BookPage, error)
	FindByIDFn       func(ctx context.Context, id uint) (*model.Book, error)
	SearchByTitleFn  func(ctx context.Context, q string) ([]model.Book, error)
	SearchByGenreFn  func(ctx context.Context, genre string) ([]model.Book, error)
	SearchByAuthorFn func(ctx context.Context, author string) ([]model.Book, error)
	FindLongFn       func(ctx context.Context) ([]model.Book, error)
	FindShortFn      func(ctx context.Context) ([]model.Book, error)
	CreateFn         func(ctx context.Context, fields model.BookFields) (*model.Book, error)
	UpdateFn         func(ctx context.Context, id uint, fields model.BookFields) (*model.Book, error)
	DeleteFn         func(ctx context.Context, id uint) (*model.Book, error)
	StatsFn          func(ctx context.Context) (model.Stats, error)
	PingFn           func(ctx context.Context) error
}

func (f *fakeBookRepo) FindPage(ctx context.Context, params repository.BookPageParams) (repository.BookPage, error) {
	if f.FindPageFn != nil {
		return f.FindPageFn(ctx, params)
	}
	return repository.BookPage{}, nil
}

func (f *fakeBookRepo) FindByID(ctx context.Context, id uint) (*model.Book, error) {
	if f.FindByIDFn != nil {
		return f.FindByIDFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBookRepo) SearchByTitle(ctx context.Context, q string) ([]model.Book, error) {
	if f.SearchByTitleFn != nil {
		return f.SearchByTitleFn(ctx, q)
	}
	return nil, nil
}

func (f *fakeBookRepo) SearchByGenre(ctx context.Context, genre string) ([]model.Book, error) {
	if f.SearchByGenreFn != nil {
		return f.SearchByGenreFn(ctx, genre)
	}
	return nil, nil
}

func (f *fakeBookRepo) SearchByAuthor(ctx context.Context, author string) ([]model.Book, error) {
	if f.SearchByAuthorFn != nil {
		return f.SearchByAuthorFn(ctx, author)
	}
	return nil, nil
}

func (f *fakeBookRepo) FindLong(ctx context.Context) ([]model.Book, error) {
	if f.FindLongFn != nil {
		return f.FindLongFn(ctx)
	}
	return nil, nil
}

func (f *fakeBookRepo) FindShort(ctx context.Context) ([]model.Book, error) {
	if f.FindShortFn != nil {
		return f.FindShortFn(ctx)
	}
	return nil, nil
}

func (f *fakeBookRepo) FindDuplicate(ctx context.Context, title, author string) (*model.Book, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeBookRepo) Create(ctx context.Context, fields model.BookFields) (*model.Book, error) {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, fields)
	}
	return &model.Book{ID: 1, Title: fields.Title, Author: fields.Author, Genre: fields.Genre, Pages: fields.Pages}, nil
}

func (f *fakeBookRepo) Update(ctx context.Context, id uint, fields model.BookFields) (*model.Book, error) {
	if f.UpdateFn != nil {
		return f.UpdateFn(ctx, id, fields)
	}
	return &model.Book{ID: id, Title: fields.Title, Author: fields.Author, Genre: fields.Genre, Pages: fields.Pages}, nil
}

func (f *fakeBookRepo) Delete(ctx context.Context, id uint) (*model.Book, error) {
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBookRepo) Stats(ctx context.Context) (model.Stats, error) {
	if f.StatsFn != nil {
		return f.StatsFn(ctx)
	}
	return model.Stats{GenreDistribution: []model.GenreCount{}}, nil
}

func (f *fakeBookRepo) Ping(ctx context.Context) error {
	if f.PingFn != nil {
		return f.PingFn(ctx)
	}
	return nil
}

func setupBookRouterWithRepo(repo repository.BookRepository, exposeErrors bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r.Use(middleware.Errors(log, exposeErrors))

	h := NewBookHandler(repo)
	h.RegisterRoutes(r.Group("/api"))

	return r
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:testdb_" + uuid.New().String() + "?mode=memory&cache=shared"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(&model.Book{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	return setupBookRouterWithRepo(repository.NewGormBookRepository(db, time.Second), false)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", w.Body.String(), err)
	}
	return v
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
