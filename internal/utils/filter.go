package utils

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"
)

var (
	ErrEmptyQuery   = errors.New("missing 'q' parameter")
	ErrQueryTooLong = errors.New("query too long")
	ErrInvalidQuery = errors.New("query is not valid UTF-8")
)

// CheckQuery rejects queries the matcher cannot take.
// Length is counted in runes.
func CheckQuery(q string, maxRunes int) error {
	if q == "" {
		return ErrEmptyQuery
	}
	if !utf8.ValidString(q) {
		return ErrInvalidQuery
	}
	if n := utf8.RuneCountInString(q); n > maxRunes {
		return fmt.Errorf("%w: query exceeds maximum length of %d characters", ErrQueryTooLong, maxRunes)
	}
	return nil
}

// IsValidPrefix checks if input should be processed for completions.
// Word index keys only hold letters, so anything else can never complete.
func IsValidPrefix(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return !IsRepetitive(s)
}

// IsRepetitive checks if a string consists of one character repeated 3+ times (e.g. "aaa")
func IsRepetitive(s string) bool {
	if len(s) <= 2 {
		return false
	}
	firstChar := s[0]
	for i := 1; i < len(s); i++ {
		if s[i] != firstChar {
			return false
		}
	}
	return true
}
