package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/snnyvrz/books-catalog/internal/model"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = gorm.ErrRecordNotFound
	ErrDuplicate = errors.New("book with this title and author already exists")
)

// DuplicateError reports the record that already holds a (title, author) pair.
type DuplicateError struct {
	Existing model.Book
}

func (e *DuplicateError) Error() string {
	return ErrDuplicate.Error()
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
