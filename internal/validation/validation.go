package validation

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/snnyvrz/books-catalog/internal/model"
)

type ErrorResponse struct {
	Code    string   `json:"code,omitempty"`
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

// BookInput is the raw create/update payload. Values stay untyped until
// ValidateBook has looked at them, so "pages": "120" and "pages": 120 are
// treated alike.
type BookInput struct {
	Title  any `json:"title" swaggertype:"string" example:"Dune"`
	Author any `json:"author" swaggertype:"string" example:"Frank Herbert"`
	Genre  any `json:"genre" swaggertype:"string" example:"Science Fiction"`
	Pages  any `json:"pages" swaggertype:"integer" example:"412"`
}

// pagesCeiling keeps absurd inputs inside int range before the max rule
// rejects them.
const pagesCeiling = 1_000_000_000

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("genre", func(fl validator.FieldLevel) bool {
		return model.IsGenre(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

var fieldOrder = []string{"Title", "Author", "Genre", "Pages"}

// ValidateBook checks every field of in and returns the normalized fields,
// or all violations in field order. A field gets at most one message.
func ValidateBook(in BookInput) (model.BookFields, []string) {
	var fields model.BookFields
	problems := make(map[string]string, len(fieldOrder))

	var msg string
	if fields.Title, msg = requiredText(in.Title, "Title"); msg != "" {
		problems["Title"] = msg
	}
	if fields.Author, msg = requiredText(in.Author, "Author"); msg != "" {
		problems["Author"] = msg
	}
	if fields.Genre, msg = requiredText(in.Genre, "Genre"); msg != "" {
		problems["Genre"] = msg
	}

	pages, ok := parsePages(in.Pages)
	if !ok {
		problems["Pages"] = "Pages must be a positive number"
	}
	fields.Pages = pages

	var verrs validator.ValidationErrors
	if err := validate.Struct(fields); errors.As(err, &verrs) {
		for _, fe := range verrs {
			if _, seen := problems[fe.Field()]; seen {
				continue
			}
			problems[fe.Field()] = buildMessage(fe)
		}
	}

	if len(problems) == 0 {
		return fields, nil
	}

	msgs := make([]string, 0, len(problems))
	for _, f := range fieldOrder {
		if m, ok := problems[f]; ok {
			msgs = append(msgs, m)
		}
	}
	return model.BookFields{}, msgs
}

func requiredText(v any, label string) (string, string) {
	switch s := v.(type) {
	case nil:
		return "", label + " is required"
	case string:
		s = strings.TrimSpace(s)
		if s == "" {
			return "", label + " is required"
		}
		return s, ""
	default:
		return "", label + " must be a string"
	}
}

// parsePages accepts JSON numbers and numeric strings. Fractions are
// truncated once the value is known to be at least 1.
func parsePages(v any) (int, bool) {
	var f float64
	switch p := v.(type) {
	case float64:
		f = p
	case int:
		f = float64(p)
	case json.Number:
		n, err := p.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 1 {
		return 0, false
	}
	if f > pagesCeiling {
		f = pagesCeiling
	}
	return int(f), true
}

func buildMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Title", "Author":
		if fe.Tag() == "max" {
			return fe.Field() + " must be between 1 and 255 characters"
		}
	case "Genre":
		if fe.Tag() == "genre" {
			return "Genre must be a valid category"
		}
	case "Pages":
		if fe.Tag() == "max" {
			return "Pages cannot exceed 10,000"
		}
		return "Pages must be a positive number"
	}

	if fe.Tag() == "required" {
		return fe.Field() + " is required"
	}
	return fe.Field() + " is invalid (" + fe.Tag() + ")"
}

// BindBook reads a book payload from a JSON or form body and validates it.
// On failure it has already written the 400 response.
func BindBook(c *gin.Context) (model.BookFields, bool) {
	in, err := readBookInput(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_BODY",
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return model.BookFields{}, false
	}

	fields, msgs := ValidateBook(in)
	if len(msgs) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_FAILED",
			Error:   "Validation failed",
			Details: msgs,
		})
		return model.BookFields{}, false
	}

	return fields, true
}

func readBookInput(c *gin.Context) (BookInput, error) {
	var in BookInput

	switch c.ContentType() {
	case binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		if v, ok := c.GetPostForm("title"); ok {
			in.Title = v
		}
		if v, ok := c.GetPostForm("author"); ok {
			in.Author = v
		}
		if v, ok := c.GetPostForm("genre"); ok {
			in.Genre = v
		}
		if v, ok := c.GetPostForm("pages"); ok {
			in.Pages = v
		}
		return in, nil
	}

	if err := c.ShouldBindJSON(&in); err != nil {
		if errors.Is(err, io.EOF) {
			return BookInput{}, nil
		}
		return BookInput{}, err
	}
	return in, nil
}
