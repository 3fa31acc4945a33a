package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/snnyvrz/books-catalog/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100

	titleSearchCap  = 50
	filterResultCap = 100

	defaultQueryTimeout = 5 * time.Second
)

type BookRepository interface {
	FindPage(ctx context.Context, params BookPageParams) (BookPage, error)
	FindByID(ctx context.Context, id uint) (*model.Book, error)
	SearchByTitle(ctx context.Context, q string) ([]model.Book, error)
	SearchByGenre(ctx context.Context, genre string) ([]model.Book, error)
	SearchByAuthor(ctx context.Context, author string) ([]model.Book, error)
	FindLong(ctx context.Context) ([]model.Book, error)
	FindShort(ctx context.Context) ([]model.Book, error)
	FindDuplicate(ctx context.Context, title, author string) (*model.Book, error)
	Create(ctx context.Context, fields model.BookFields) (*model.Book, error)
	Update(ctx context.Context, id uint, fields model.BookFields) (*model.Book, error)
	Delete(ctx context.Context, id uint) (*model.Book, error)
	Stats(ctx context.Context) (model.Stats, error)
	Ping(ctx context.Context) error
}

type BookPageParams struct {
	Page   int
	Limit  int
	SortBy string
	Order  string
}

// Normalize clamps paging values and maps the sort request onto a known
// column. Unknown sort fields fall back to createdAt.
func (p BookPageParams) Normalize() BookPageParams {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageLimit
	case p.Limit > MaxPageLimit:
		p.Limit = MaxPageLimit
	}
	if _, ok := sortColumns[p.SortBy]; !ok {
		p.SortBy = "createdAt"
	}
	if strings.EqualFold(p.Order, "ASC") {
		p.Order = "ASC"
	} else {
		p.Order = "DESC"
	}
	return p
}

// Offset saturates at math.MaxInt for pages too far out to address, which
// still lands past the last row.
func (p BookPageParams) Offset() int {
	if p.Limit > 0 && p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

type BookPage struct {
	Books []model.Book
	Total int64
}

var sortColumns = map[string]string{
	"id":        "id",
	"title":     "title",
	"author":    "author",
	"genre":     "genre",
	"pages":     "pages",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type GormBookRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewGormBookRepository(db *gorm.DB, queryTimeout time.Duration) *GormBookRepository {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &GormBookRepository{db: db, timeout: queryTimeout}
}

func (r *GormBookRepository) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	return r.db.WithContext(ctx), cancel
}

func (r *GormBookRepository) FindPage(ctx context.Context, params BookPageParams) (BookPage, error) {
	params = params.Normalize()

	db, cancel := r.conn(ctx)
	defer cancel()

	desc := params.Order == "DESC"
	order := clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: sortColumns[params.SortBy]}, Desc: desc},
		{Column: clause.Column{Name: "id"}, Desc: desc},
	}}

	var page BookPage
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Book{}).Count(&page.Total).Error; err != nil {
			return err
		}
		return tx.Order(order).
			Limit(params.Limit).
			Offset(params.Offset()).
			Find(&page.Books).Error
	})
	if err != nil {
		return BookPage{}, fmt.Errorf("find page: %w", err)
	}
	return page, nil
}

func (r *GormBookRepository) FindByID(ctx context.Context, id uint) (*model.Book, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var book model.Book
	if err := db.First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *GormBookRepository) SearchByTitle(ctx context.Context, q string) ([]model.Book, error) {
	return r.searchColumn(ctx, "title", q, titleSearchCap)
}

func (r *GormBookRepository) SearchByGenre(ctx context.Context, genre string) ([]model.Book, error) {
	return r.searchColumn(ctx, "genre", genre, filterResultCap)
}

func (r *GormBookRepository) SearchByAuthor(ctx context.Context, author string) ([]model.Book, error) {
	return r.searchColumn(ctx, "author", author, filterResultCap)
}

// searchColumn runs a case-insensitive contains match. Both sides are folded
// by the store so its own LOWER rules apply to column and term alike. column
// is never user input.
func (r *GormBookRepository) searchColumn(ctx context.Context, column, q string, limit int) ([]model.Book, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	pattern := "%" + escapeLike(q) + "%"

	var books []model.Book
	err := db.
		Where("LOWER("+column+") LIKE LOWER(?) ESCAPE '\\'", pattern).
		Order("title ASC").
		Order("id ASC").
		Limit(limit).
		Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", column, err)
	}
	return books, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *GormBookRepository) FindLong(ctx context.Context) ([]model.Book, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var books []model.Book
	err := db.
		Where("pages > ?", model.LongBookMinPages).
		Order("pages DESC").
		Order("id ASC").
		Limit(filterResultCap).
		Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("find long: %w", err)
	}
	return books, nil
}

func (r *GormBookRepository) FindShort(ctx context.Context) ([]model.Book, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var books []model.Book
	err := db.
		Where("pages <= ?", model.ShortBookMaxPages).
		Order("pages ASC").
		Order("id ASC").
		Limit(filterResultCap).
		Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("find short: %w", err)
	}
	return books, nil
}

func (r *GormBookRepository) FindDuplicate(ctx context.Context, title, author string) (*model.Book, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var book model.Book
	err := db.
		Where("title = ? AND author = ?", strings.TrimSpace(title), strings.TrimSpace(author)).
		Order("id ASC").
		First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Create inserts a new book unless one with the same title and author
// exists. The check and the insert are separate statements; the unique
// index on (title, author) catches whatever slips between them.
func (r *GormBookRepository) Create(ctx context.Context, fields model.BookFields) (*model.Book, error) {
	existing, err := r.FindDuplicate(ctx, fields.Title, fields.Author)
	switch {
	case err == nil:
		return nil, &DuplicateError{Existing: *existing}
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("check duplicate: %w", err)
	}

	db, cancel := r.conn(ctx)
	defer cancel()

	book := model.Book{
		Title:  strings.TrimSpace(fields.Title),
		Author: strings.TrimSpace(fields.Author),
		Genre:  strings.TrimSpace(fields.Genre),
		Pages:  fields.Pages,
	}
	if err := db.Create(&book).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, r.duplicateOf(ctx, book.Title, book.Author, err)
		}
		return nil, fmt.Errorf("create book: %w", err)
	}
	return &book, nil
}

func (r *GormBookRepository) Update(ctx context.Context, id uint, fields model.BookFields) (*model.Book, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var book model.Book
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, id).Error; err != nil {
			return err
		}
		book.Title = strings.TrimSpace(fields.Title)
		book.Author = strings.TrimSpace(fields.Author)
		book.Genre = strings.TrimSpace(fields.Genre)
		book.Pages = fields.Pages
		return tx.Save(&book).Error
	})
	switch {
	case err == nil:
		return &book, nil
	case errors.Is(err, ErrNotFound):
		return nil, err
	case isUniqueViolation(err):
		return nil, r.duplicateOf(ctx, book.Title, book.Author, err)
	default:
		return nil, fmt.Errorf("update book %d: %w", id, err)
	}
}

func (r *GormBookRepository) Delete(ctx context.Context, id uint) (*model.Book, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var book model.Book
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, id).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Book{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("delete book %d: %w", id, err)
	}
	return &book, nil
}

func (r *GormBookRepository) Stats(ctx context.Context) (model.Stats, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var (
		stats model.Stats
		agg   struct {
			Total    int64
			SumPages int64
			AvgPages float64
		}
	)
	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.Book{}).
			Select("COUNT(*) AS total, COALESCE(SUM(pages), 0) AS sum_pages, COALESCE(AVG(pages), 0) AS avg_pages").
			Scan(&agg).Error
		if err != nil {
			return err
		}
		return tx.Model(&model.Book{}).
			Select("genre, COUNT(*) AS count").
			Group("genre").
			Order("count DESC").
			Order("genre ASC").
			Scan(&stats.GenreDistribution).Error
	})
	if err != nil {
		return model.Stats{}, fmt.Errorf("stats: %w", err)
	}

	stats.TotalBooks = agg.Total
	stats.TotalPages = agg.SumPages
	stats.AveragePages = int64(math.Round(agg.AvgPages))
	if stats.GenreDistribution == nil {
		stats.GenreDistribution = []model.GenreCount{}
	}
	return stats, nil
}

func (r *GormBookRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func (r *GormBookRepository) duplicateOf(ctx context.Context, title, author string, cause error) error {
	existing, err := r.FindDuplicate(ctx, title, author)
	if err != nil {
		return fmt.Errorf("unique violation without visible duplicate: %w", cause)
	}
	return &DuplicateError{Existing: *existing}
}
