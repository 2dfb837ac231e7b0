package customers

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
)

const maxTagLength = 64

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return nil
}

func validatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return &ValidationError{Field: "phone", Message: "phone is required"}
	}
	for _, r := range phone {
		if !unicode.IsDigit(r) && r != '+' && r != ' ' && r != '-' {
			return &ValidationError{Field: "phone", Message: "phone may only contain digits, spaces, '+' and '-'"}
		}
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return &ValidationError{Field: "email", Message: "invalid email address"}
	}
	return nil
}

func validateTag(tag string) error {
	if tag == "" {
		return &ValidationError{Field: "tag", Message: "tag must not be empty"}
	}
	if len(tag) > maxTagLength {
		return &ValidationError{Field: "tag", Message: fmt.Sprintf("tag must be at most %d characters", maxTagLength)}
	}
	return nil
}

// NormalizeTags trims every tag, drops empties and duplicates, and keeps
// first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
