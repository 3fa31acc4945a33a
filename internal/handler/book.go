package handler

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/snnyvrz/books-catalog/internal/repository"
	"github.com/snnyvrz/books-catalog/internal/validation"
)

const minSearchTermLen = 2

type BookHandler struct {
	repo repository.BookRepository
}

func NewBookHandler(repo repository.BookRepository) *BookHandler {
	return &BookHandler{repo: repo}
}

func (h *BookHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/all", h.ListBooks)
	r.GET("/search/:title", h.SearchByTitle)
	r.GET("/book/:id", h.GetBookByID)
	r.GET("/genre/:genre", h.SearchByGenre)
	r.GET("/author/:author", h.SearchByAuthor)
	r.GET("/stats", h.Stats)

	books := r.Group("/books")
	{
		books.GET("/long", h.LongBooks)
		books.GET("/short", h.ShortBooks)
		books.POST("", h.CreateBook)
		books.PUT("/:id", h.UpdateBook)
		books.DELETE("/:id", h.DeleteBook)
	}
}

// fail maps repository errors onto responses. Anything it does not
// recognise is handed to the error middleware as a 500.
func (h *BookHandler) fail(c *gin.Context, err error) {
	var dup *repository.DuplicateError
	switch {
	case errors.As(err, &dup):
		c.AbortWithStatusJSON(http.StatusConflict, ConflictResponse{
			Code:         "BOOK_DUPLICATE",
			Error:        "A book with this title and author already exists",
			ExistingBook: toBookRef(dup.Existing),
		})
	case errors.Is(err, repository.ErrNotFound):
		writeError(c, http.StatusNotFound, "BOOK_NOT_FOUND", "Book not found")
	default:
		c.Status(http.StatusInternalServerError)
		_ = c.Error(err)
		c.Abort()
	}
}

// ListBooks godoc
// @Summary      List books
// @Description  Paged listing of all books
// @Tags         books
// @Produce      json
// @Param        page    query     int     false  "Page number"     default(1) minimum(1)
// @Param        limit   query     int     false  "Items per page"  default(50) minimum(1) maximum(100)
// @Param        sortBy  query     string  false  "Sort field"      Enums(id,title,author,genre,pages,createdAt,updatedAt)
// @Param        order   query     string  false  "Sort direction"  Enums(ASC,DESC)
// @Success      200  {object}  ListBooksResponse
// @Failure      500  {object}  validation.ErrorResponse  "Internal server error"
// @Router       /all [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	params := repository.BookPageParams{
		Page:   parseIntQuery(c, "page", 1),
		Limit:  parseIntQuery(c, "limit", repository.DefaultPageLimit),
		SortBy: c.DefaultQuery("sortBy", "createdAt"),
		Order:  c.DefaultQuery("order", "DESC"),
	}.Normalize()

	result, err := h.repo.FindPage(c.Request.Context(), params)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, ListBooksResponse{
		Books: toBooks(result.Books),
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: result.Total,
			Pages: totalPages(result.Total, params.Limit),
		},
	})
}

// SearchByTitle godoc
// @Summary      Search books by title
// @Description  Case-insensitive substring match on title, at most 50 results
// @Tags         books
// @Produce      json
// @Param        title  path      string  true  "Search term (at least 2 characters)"
// @Success      200    {object}  TitleSearchResponse
// @Failure      400    {object}  validation.ErrorResponse  "Search term too short"
// @Failure      500    {object}  validation.ErrorResponse  "Internal server error"
// @Router       /search/{title} [get]
func (h *BookHandler) SearchByTitle(c *gin.Context) {
	term := strings.TrimSpace(c.Param("title"))
	if utf8.RuneCountInString(term) < minSearchTermLen {
		writeError(c, http.StatusBadRequest,
			"SEARCH_TERM_TOO_SHORT",
			"Search term must be at least 2 characters long",
		)
		return
	}

	books, err := h.repo.SearchByTitle(c.Request.Context(), term)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, TitleSearchResponse{
		Books:      toBooks(books),
		SearchTerm: term,
		Count:      len(books),
	})
}

// GetBookByID godoc
// @Summary      Get a book by ID
// @Tags         books
// @Produce      json
// @Param        id   path      int  true  "Book ID"
// @Success      200  {object}  Book
// @Failure      400  {object}  validation.ErrorResponse  "Invalid ID"
// @Failure      404  {object}  validation.ErrorResponse  "Book not found"
// @Failure      500  {object}  validation.ErrorResponse  "Internal server error"
// @Router       /book/{id} [get]
func (h *BookHandler) GetBookByID(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_BOOK_ID", "Invalid book ID")
		return
	}

	book, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toBook(*book))
}

// SearchByGenre godoc
// @Summary      Search books by genre
// @Description  Case-insensitive substring match on genre, at most 100 results
// @Tags         books
// @Produce      json
// @Param        genre  path      string  true  "Genre or part of it"
// @Success      200    {object}  GenreSearchResponse
// @Failure      400    {object}  validation.ErrorResponse  "Missing genre"
// @Failure      500    {object}  validation.ErrorResponse  "Internal server error"
// @Router       /genre/{genre} [get]
func (h *BookHandler) SearchByGenre(c *gin.Context) {
	genre := strings.TrimSpace(c.Param("genre"))
	if genre == "" {
		writeError(c, http.StatusBadRequest, "GENRE_REQUIRED", "Genre parameter is required")
		return
	}

	books, err := h.repo.SearchByGenre(c.Request.Context(), genre)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, GenreSearchResponse{
		Books: toBooks(books),
		Genre: genre,
		Count: len(books),
	})
}

// SearchByAuthor godoc
// @Summary      Search books by author
// @Description  Case-insensitive substring match on author, at most 100 results
// @Tags         books
// @Produce      json
// @Param        author  path      string  true  "Author or part of the name"
// @Success      200     {object}  AuthorSearchResponse
// @Failure      400     {object}  validation.ErrorResponse  "Missing author"
// @Failure      500     {object}  validation.ErrorResponse  "Internal server error"
// @Router       /author/{author} [get]
func (h *BookHandler) SearchByAuthor(c *gin.Context) {
	author := strings.TrimSpace(c.Param("author"))
	if author == "" {
		writeError(c, http.StatusBadRequest, "AUTHOR_REQUIRED", "Author parameter is required")
		return
	}

	books, err := h.repo.SearchByAuthor(c.Request.Context(), author)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthorSearchResponse{
		Books:  toBooks(books),
		Author: author,
		Count:  len(books),
	})
}

// LongBooks godoc
// @Summary      Long books
// @Description  Books with more than 300 pages, longest first
// @Tags         books
// @Produce      json
// @Success      200  {object}  FilterResponse
// @Failure      500  {object}  validation.ErrorResponse  "Internal server error"
// @Router       /books/long [get]
func (h *BookHandler) LongBooks(c *gin.Context) {
	books, err := h.repo.FindLong(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, FilterResponse{
		Books:    toBooks(books),
		Filter:   "long",
		Count:    len(books),
		Criteria: "More than 300 pages",
	})
}

// ShortBooks godoc
// @Summary      Short books
// @Description  Books with 150 pages or less, shortest first
// @Tags         books
// @Produce      json
// @Success      200  {object}  FilterResponse
// @Failure      500  {object}  validation.ErrorResponse  "Internal server error"
// @Router       /books/short [get]
func (h *BookHandler) ShortBooks(c *gin.Context) {
	books, err := h.repo.FindShort(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, FilterResponse{
		Books:    toBooks(books),
		Filter:   "short",
		Count:    len(books),
		Criteria: "150 pages or less",
	})
}

// CreateBook godoc
// @Summary      Create a book
// @Description  Create a book; title and author together must be unique
// @Tags         books
// @Accept       json
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        payload  body      validation.BookInput      true  "Book to create"
// @Success      201      {object}  BookMessageResponse
// @Failure      400      {object}  validation.ErrorResponse  "Validation error"
// @Failure      409      {object}  ConflictResponse          "Duplicate title and author"
// @Failure      500      {object}  validation.ErrorResponse  "Internal server error"
// @Router       /books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	fields, ok := validation.BindBook(c)
	if !ok {
		return
	}

	book, err := h.repo.Create(c.Request.Context(), fields)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, BookMessageResponse{
		Message: "Book created successfully",
		Book:    toBook(*book),
	})
}

// UpdateBook godoc
// @Summary      Replace a book
// @Description  Replace title, author, genre and pages of an existing book
// @Tags         books
// @Accept       json
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        id       path      int                       true  "Book ID"
// @Param        payload  body      validation.BookInput      true  "New field values"
// @Success      200      {object}  BookMessageResponse
// @Failure      400      {object}  validation.ErrorResponse  "Invalid ID or payload"
// @Failure      404      {object}  validation.ErrorResponse  "Book not found"
// @Failure      409      {object}  ConflictResponse          "Duplicate title and author"
// @Failure      500      {object}  validation.ErrorResponse  "Internal server error"
// @Router       /books/{id} [put]
func (h *BookHandler) UpdateBook(c *gin.Context) {
	fields, ok := validation.BindBook(c)
	if !ok {
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_BOOK_ID", "Invalid book ID")
		return
	}

	book, err := h.repo.Update(c.Request.Context(), id, fields)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, BookMessageResponse{
		Message: "Book updated successfully",
		Book:    toBook(*book),
	})
}

// DeleteBook godoc
// @Summary      Delete a book
// @Tags         books
// @Produce      json
// @Param        id   path      int  true  "Book ID"
// @Success      200  {object}  DeleteBookResponse
// @Failure      400  {object}  validation.ErrorResponse  "Invalid ID"
// @Failure      404  {object}  validation.ErrorResponse  "Book not found"
// @Failure      500  {object}  validation.ErrorResponse  "Internal server error"
// @Router       /books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_BOOK_ID", "Invalid book ID")
		return
	}

	book, err := h.repo.Delete(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, DeleteBookResponse{
		Message:     "Book deleted successfully",
		DeletedBook: toBookRef(*book),
	})
}

// Stats godoc
// @Summary      Catalog statistics
// @Description  Book count, page totals and per-genre distribution
// @Tags         stats
// @Produce      json
// @Success      200  {object}  StatsResponse
// @Failure      500  {object}  validation.ErrorResponse  "Internal server error"
// @Router       /stats [get]
func (h *BookHandler) Stats(c *gin.Context) {
	stats, err := h.repo.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	dist := make([]GenreCount, 0, len(stats.GenreDistribution))
	for _, g := range stats.GenreDistribution {
		dist = append(dist, GenreCount{Genre: g.Genre, Count: g.Count})
	}

	c.JSON(http.StatusOK, StatsResponse{
		TotalBooks:        stats.TotalBooks,
		TotalPages:        stats.TotalPages,
		AveragePages:      stats.AveragePages,
		GenreDistribution: dist,
	})
}
