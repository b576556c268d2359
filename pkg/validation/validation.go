package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	PasswordMinLength = 8
	FullNameMinLength = 2
	FullNameMaxLength = 100

	MessageMissingFields     = "Missing required fields: %s"
	MessageInvalidEmail      = "Invalid email format"
	MessageFullNameTooShort  = "Full name must be at least 2 characters"
	MessageFullNameTooLong   = "Full name cannot exceed 100 characters"
	MessagePasswordLength    = "Password must be at least 8 characters long"
	MessagePasswordLowercase = "Password must contain at least one lowercase letter"
	MessagePasswordUppercase = "Password must contain at least one uppercase letter"
	MessagePasswordDigit     = "Password must contain at least one number"
	MessagePasswordSymbol    = "Password must contain at least one special character"
)

var (
	validate = validator.New()

	lowercasePattern = regexp.MustCompile(`[a-z]`)
	uppercasePattern = regexp.MustCompile(`[A-Z]`)
	digitPattern     = regexp.MustCompile(`[0-9]`)
	symbolPattern    = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?]`)
)

// Error is a failed validation. Message summarizes it, Violations lists every
// rule that did not pass so all of them can be reported at once.
type Error struct {
	Message    string
	Violations []string
}

func (e *Error) Error() string {
	return e.Message
}

// Field is a named input checked by RequiredFields.
type Field struct {
	Name  string
	Value string
}

// RequiredFields fails when any of the fields is empty or blank.
func RequiredFields(fields ...Field) *Error {
	var missingFields []string
	for _, field := range fields {
		if strings.TrimSpace(field.Value) == "" {
			missingFields = append(missingFields, field.Name)
		}
	}

	if len(missingFields) == 0 {
		return nil
	}

	return &Error{
		Message:    fmt.Sprintf(MessageMissingFields, strings.Join(missingFields, ", ")),
		Violations: missingFields,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func Email(email string) *Error {
	err := validate.Var(email, "required,email")
	if err != nil {
		return &Error{
			Message:    MessageInvalidEmail,
			Violations: []string{MessageInvalidEmail},
		}
	}

	return nil
}

func FullName(fullName string) *Error {
	length := len([]rune(fullName))
	switch {
	case length < FullNameMinLength:
		return &Error{
			Message:    MessageFullNameTooShort,
			Violations: []string{MessageFullNameTooShort},
		}
	case length > FullNameMaxLength:
		return &Error{
			Message:    MessageFullNameTooLong,
			Violations: []string{MessageFullNameTooLong},
		}
	}

	return nil
}

// Password checks every strength rule and reports all of the failing ones.
func Password(password string) *Error {
	var violations []string

	if len(password) < PasswordMinLength {
		violations = append(violations, MessagePasswordLength)
	}

	if !lowercasePattern.MatchString(password) {
		violations = append(violations, MessagePasswordLowercase)
	}

	if !uppercasePattern.MatchString(password) {
		violations = append(violations, MessagePasswordUppercase)
	}

	if !digitPattern.MatchString(password) {
		violations = append(violations, MessagePasswordDigit)
	}

	if !symbolPattern.MatchString(password) {
		violations = append(violations, MessagePasswordSymbol)
	}

	if len(violations) == 0 {
		return nil
	}

	return &Error{
		Message:    strings.Join(violations, ", "),
		Violations: violations,
	}
}
