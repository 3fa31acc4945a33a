package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/snnyvrz/books-catalog/internal/model"
	"github.com/snnyvrz/books-catalog/internal/validation"
)

var errInvalidID = errors.New("invalid book id")

func parseIntQuery(c *gin.Context, key string, def int) int {
	if s := c.Query(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return def
}

// parseIDParam accepts positive base-10 integers only.
func parseIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 63)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return uint(id), nil
}

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, validation.ErrorResponse{
		Code:  code,
		Error: message,
	})
}

func toBook(b model.Book) Book {
	return Book{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		Genre:     b.Genre,
		Pages:     b.Pages,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func toBooks(books []model.Book) []Book {
	out := make([]Book, 0, len(books))
	for _, b := range books {
		out = append(out, toBook(b))
	}
	return out
}

func toBookRef(b model.Book) BookRef {
	return BookRef{ID: b.ID, Title: b.Title, Author: b.Author}
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
