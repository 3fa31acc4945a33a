package handler

import "time"

type Book struct {
	ID        uint      `json:"id" example:"1"`
	Title     string    `json:"title" example:"Dune"`
	Author    string    `json:"author" example:"Frank Herbert"`
	Genre     string    `json:"genre" example:"Science Fiction"`
	Pages     int       `json:"pages" example:"412"`
	CreatedAt time.Time `json:"createdAt" example:"2025-11-24T10:00:00Z"`
	UpdatedAt time.Time `json:"updatedAt" example:"2025-11-24T10:00:00Z"`
}

// BookRef identifies a book in conflict and delete responses.
type BookRef struct {
	ID     uint   `json:"id" example:"1"`
	Title  string `json:"title" example:"Dune"`
	Author string `json:"author" example:"Frank Herbert"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type ListBooksResponse struct {
	Books      []Book     `json:"books"`
	Pagination Pagination `json:"pagination"`
}

type TitleSearchResponse struct {
	Books      []Book `json:"books"`
	SearchTerm string `json:"searchTerm"`
	Count      int    `json:"count"`
}

type GenreSearchResponse struct {
	Books []Book `json:"books"`
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

type AuthorSearchResponse struct {
	Books  []Book `json:"books"`
	Author string `json:"author"`
	Count  int    `json:"count"`
}

type FilterResponse struct {
	Books    []Book `json:"books"`
	Filter   string `json:"filter" example:"long"`
	Count    int    `json:"count"`
	Criteria string `json:"criteria" example:"More than 300 pages"`
}

type BookMessageResponse struct {
	Message string `json:"message"`
	Book    Book   `json:"book"`
}

type DeleteBookResponse struct {
	Message     string  `json:"message"`
	DeletedBook BookRef `json:"deletedBook"`
}

type ConflictResponse struct {
	Code         string  `json:"code"`
	Error        string  `json:"error"`
	ExistingBook BookRef `json:"existingBook"`
}

type GenreCount struct {
	Genre string `json:"genre"`
	Count int64  `json:"count"`
}

type StatsResponse struct {
	TotalBooks        int64        `json:"totalBooks"`
	TotalPages        int64        `json:"totalPages"`
	AveragePages      int64        `json:"averagePages"`
	GenreDistribution []GenreCount `json:"genreDistribution"`
}
