// Package blog holds the BlogPost entity shared by the API server, the REST
// client and the web frontend.
package blog

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Post is a single blog record. The server assigns ID and, when the client
// does not send one, Date.
type Post struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Category    []string  `json:"category"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	CoverImage  string    `json:"coverImage"`
	Content     string    `json:"content"`
}

// CreateRequest is the body of POST /blogs.
type CreateRequest struct {
	Title       string    `json:"title" validate:"required"`
	Category    []string  `json:"category" validate:"required,min=1"`
	Description string    `json:"description" validate:"required"`
	CoverImage  string    `json:"coverImage" validate:"required,url"`
	Content     string    `json:"content" validate:"required"`
	Date        time.Time `json:"date"`
}

// ParseCategories turns the form's comma-separated category input into tags.
// Each segment is trimmed and upper-cased; empty segments are kept, so
// "tech," yields ["TECH", ""].
func ParseCategories(input string) []string {
	return NormalizeCategories(strings.Split(input, ","))
}

// NormalizeCategories trims and upper-cases every tag without filtering.
func NormalizeCategories(tags []string) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	return out
}

// FormatDate renders a date the way the views show it, e.g. "March 4, 2025".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:n]), " ") + "…"
}
