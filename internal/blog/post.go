package blog

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/inkwell-app/inkwell/internal/users"

	"github.com/google/uuid"
)

var (
	ErrPostNotFound   = errors.New("post not found")
	ErrNotPostAuthor  = errors.New("requester is not the post author")
	ErrAuthorNotFound = errors.New("post author not found")
)

const (
	titleMinLen       = 3
	titleMaxLen       = 200
	descriptionMinLen = 10
	descriptionMaxLen = 100
	contentMinLen     = 50

	defaultPage  = 1
	defaultLimit = 12
)

type Post struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Content     string         `json:"content,omitempty"`
	CoverImage  string         `json:"coverImage"`
	AuthorID    int64          `json:"-"`
	Author      users.Identity `json:"author"`
	Published   bool           `json:"published"`
	PublishedOn *time.Time     `json:"publishedOn"`
	ViewCount   int            `json:"viewCount"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Pagination describes the window a listing response covers.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalBlogs  int  `json:"totalBlogs"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

func NewPagination(page, limit, totalBlogs int) Pagination {
	totalPages := totalBlogs / limit
	if totalBlogs%limit != 0 {
		totalPages++
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalBlogs:  totalBlogs,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// bounds are in characters, not bytes, so multi-byte input measures
// the same as its on-screen length
func ValidateTitle(title string) bool {
	length := utf8.RuneCountInString(strings.TrimSpace(title))
	return length >= titleMinLen && length <= titleMaxLen
}

func ValidateDescription(description string) bool {
	length := utf8.RuneCountInString(strings.TrimSpace(description))
	return length >= descriptionMinLen && length <= descriptionMaxLen
}

func ValidateContent(content string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(content)) >= contentMinLen
}
