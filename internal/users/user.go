package users

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type User struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"fullname"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is the public projection of a user, safe to embed in
// API responses and post listings.
type Identity struct {
	ID       int64  `json:"id,omitempty"`
	FullName string `json:"fullname"`
	Email    string `json:"email"`
}

func (u *User) Identity() Identity {
	return Identity{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
	}
}

// NormalizeEmail lowercases and trims an email address; emails are
// stored and compared in this normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// the minimum is in characters, not bytes
func ValidateFullName(fullName string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(fullName)) >= 2
}

func ValidateEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}

func ValidatePassword(password string) bool {
	return len(password) >= 6
}
