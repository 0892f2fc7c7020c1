package model

import (
	"regexp"
	"strings"
)

var (
	reEmail    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	rePhone    = regexp.MustCompile(`^[0-9+\-()\s]{7,20}$`)
	reNonDigit = regexp.MustCompile(`[^\d]`)
)

// ValidationError maps a field name to a human-readable problem.
type ValidationError map[string]string

func (e ValidationError) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}

// SubmissionInput is the viewer-entered form data, before validation.
type SubmissionInput struct {
	Name  string `json:"name" form:"name"`
	Phone string `json:"phone" form:"phone"`
	Email string `json:"email" form:"email"`
}

// Normalize trims surrounding whitespace from every field.
func (in SubmissionInput) Normalize() SubmissionInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	return in
}

// Validate checks the normalized input. Email is optional, name and phone
// are not. Returns nil when everything passes.
func (in SubmissionInput) Validate() error {
	errs := ValidationError{}

	switch {
	case in.Name == "":
		errs["name"] = "name is required"
	case len(in.Name) < 2:
		errs["name"] = "name must be at least 2 characters"
	case len(in.Name) > 100:
		errs["name"] = "name must be less than 100 characters"
	}

	if in.Phone == "" {
		errs["phone"] = "mobile number is required"
	} else if !ValidPhone(in.Phone) {
		errs["phone"] = "enter a valid mobile number (7-20 digits)"
	}

	if in.Email != "" {
		if !reEmail.MatchString(in.Email) {
			errs["email"] = "enter a valid email address or leave it empty"
		} else if len(in.Email) > 100 {
			errs["email"] = "email must be less than 100 characters"
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidPhone accepts digits, +, -, parentheses and spaces, 7 to 20
// characters total, with 7 to 20 actual digits.
func ValidPhone(phone string) bool {
	if !rePhone.MatchString(phone) {
		return false
	}
	digits := reNonDigit.ReplaceAllLiteralString(phone, "")
	return len(digits) >= 7 && len(digits) <= 20
}

// ValidEmail accepts anything shaped local@host.tld without whitespace.
func ValidEmail(email string) bool {
	return reEmail.MatchString(email)
}
