package model

import "time"

type Book struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Title     string    `gorm:"size:255;not null;index;uniqueIndex:idx_books_title_author,priority:1"`
	Author    string    `gorm:"size:255;not null;index;uniqueIndex:idx_books_title_author,priority:2"`
	Genre     string    `gorm:"size:100;not null;index"`
	Pages     int       `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// BookFields are the caller-supplied, mutable attributes of a Book.
type BookFields struct {
	Title  string `validate:"required,max=255"`
	Author string `validate:"required,max=255"`
	Genre  string `validate:"required,genre"`
	Pages  int    `validate:"min=1,max=10000"`
}

const (
	LongBookMinPages  = 300
	ShortBookMaxPages = 150
)

var Genres = []string{
	"Fiction",
	"Non-Fiction",
	"Science Fiction",
	"Fantasy",
	"Mystery",
	"Romance",
	"Thriller",
	"Biography",
	"History",
	"Other",
}

func IsGenre(s string) bool {
	for _, g := range Genres {
		if g == s {
			return true
		}
	}
	return false
}

type GenreCount struct {
	Genre string
	Count int64
}

type Stats struct {
	TotalBooks        int64
	TotalPages        int64
	AveragePages      int64
	GenreDistribution []GenreCount
}
