package blog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTitle(t *testing.T) {
	testCases := []struct {
		name  string
		title string
		valid bool
	}{
		{name: "empty", title: "", valid: false},
		{name: "below min", title: "ab", valid: false},
		{name: "at min", title: "abc", valid: true},
		{name: "typical", title: "Why Goroutines Are Not Threads", valid: true},
		{name: "at max", title: strings.Repeat("a", 200), valid: true},
		{name: "above max", title: strings.Repeat("a", 201), valid: false},
		{name: "whitespace does not count", title: "  ab  ", valid: false},
		// bounds are in characters, not bytes
		{name: "multi-byte at max", title: strings.Repeat("é", 200), valid: true},
		{name: "multi-byte above max", title: strings.Repeat("é", 201), valid: false},
		{name: "multi-byte below min", title: "éé", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, ValidateTitle(tc.title))
		})
	}
}

func TestValidateDescription(t *testing.T) {
	testCases := []struct {
		name        string
		description string
		valid       bool
	}{
		{name: "empty", description: "", valid: false},
		{name: "below min", description: strings.Repeat("a", 9), valid: false},
		{name: "at min", description: strings.Repeat("a", 10), valid: true},
		{name: "at max", description: strings.Repeat("a", 100), valid: true},
		{name: "above max", description: strings.Repeat("a", 101), valid: false},
		{name: "multi-byte at max", description: strings.Repeat("ü", 100), valid: true},
		{name: "multi-byte above max", description: strings.Repeat("ü", 101), valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, ValidateDescription(tc.description))
		})
	}
}

func TestValidateContent(t *testing.T) {
	assert.False(t, ValidateContent(""))
	assert.False(t, ValidateContent(strings.Repeat("a", 49)))
	assert.True(t, ValidateContent(strings.Repeat("a", 50)))
	assert.False(t, ValidateContent(strings.Repeat("a", 49)+" "))
	assert.True(t, ValidateContent(strings.Repeat("é", 50)))
	assert.False(t, ValidateContent(strings.Repeat("é", 49)))
}

func TestNewPagination(t *testing.T) {
	testCases := []struct {
		name     string
		page     int
		limit    int
		total    int
		expected Pagination
	}{
		{
			name:  "first of three pages",
			page:  1,
			limit: 12,
			total: 25,
			expected: Pagination{
				CurrentPage: 1,
				TotalPages:  3,
				TotalBlogs:  25,
				HasNext:     true,
				HasPrev:     false,
			},
		},
		{
			name:  "middle page",
			page:  2,
			limit: 12,
			total: 25,
			expected: Pagination{
				CurrentPage: 2,
				TotalPages:  3,
				TotalBlogs:  25,
				HasNext:     true,
				HasPrev:     true,
			},
		},
		{
			name:  "last page",
			page:  3,
			limit: 12,
			total: 25,
			expected: Pagination{
				CurrentPage: 3,
				TotalPages:  3,
				TotalBlogs:  25,
				HasNext:     false,
				HasPrev:     true,
			},
		},
		{
			name:  "exact multiple",
			page:  2,
			limit: 12,
			total: 24,
			expected: Pagination{
				CurrentPage: 2,
				TotalPages:  2,
				TotalBlogs:  24,
				HasNext:     false,
				HasPrev:     true,
			},
		},
		{
			name:  "no posts",
			page:  1,
			limit: 12,
			total: 0,
			expected: Pagination{
				CurrentPage: 1,
				TotalPages:  0,
				TotalBlogs:  0,
				HasNext:     false,
				HasPrev:     false,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NewPagination(tc.page, tc.limit, tc.total))
		})
	}
}
