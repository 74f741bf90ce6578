// Package oracle models how the employee hub is expected to behave: which
// layout a viewport width gets, how the add-employee form validates, and when
// saving is allowed. Page objects assert the live application against it.
package oracle

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/ternarybob/hubcheck/internal/models"
)

// MaxNameLength is the longest first or last name the form accepts
const MaxNameLength = 50

// ErrorColour is the border colour of a field in the invalid state
const ErrorColour = "rgb(229, 26, 26)"

// emailPattern requires a non-empty local part, an "@", and a domain with at
// least one dot followed by a non-empty label ("x@y." fails, "x@y.co" passes).
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@.]+(\.[^\s@.]+)+$`)

// Field identifies an input on the add-employee form. Values are the element
// ids the application renders.
type Field string

const (
	FirstName    Field = "firstName"
	LastName     Field = "lastName"
	Email        Field = "email"
	Phone        Field = "phoneNumber"
	JobTitle     Field = "jobTitle"
	StartDate    Field = "startDate"
	Registration Field = "registrationEmail"
)

// RequiredFields are the fields that gate saving
var RequiredFields = []Field{FirstName, LastName, Email}

// TextFields are the plain text inputs, in form order
var TextFields = []Field{FirstName, LastName, Email, Phone, JobTitle}

// IsRequired reports whether f gates saving
func (f Field) IsRequired() bool {
	return f == FirstName || f == LastName || f == Email
}

// ValidName reports whether a first or last name is acceptable
func ValidName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= 1 && n <= MaxNameLength
}

// ValidEmail reports whether an email address has the accepted shape
func ValidEmail(email string) bool {
	return email != "" && emailPattern.MatchString(email)
}

// ValidField applies the predicate for f. Optional fields are always valid.
func ValidField(f Field, value string) bool {
	switch f {
	case FirstName, LastName:
		return ValidName(value)
	case Email:
		return ValidEmail(value)
	default:
		return true
	}
}

var draftValidator = newDraftValidator()

func newDraftValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("employee_email", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register employee_email validation: %v", err))
	}
	return v
}

// FieldError describes one failed rule on a draft
type FieldError struct {
	Field Field
	Rule  string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s failed %s", e.Field, e.Rule)
}

// DraftErrors is returned by ValidateDraft when one or more fields fail
type DraftErrors []FieldError

func (e DraftErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return "invalid employee draft: " + strings.Join(parts, ", ")
}

// Fields returns the distinct fields that failed
func (e DraftErrors) Fields() []Field {
	var out []Field
	seen := make(map[Field]bool)
	for _, fe := range e {
		if !seen[fe.Field] {
			seen[fe.Field] = true
			out = append(out, fe.Field)
		}
	}
	return out
}

var structFieldToField = map[string]Field{
	"FirstName": FirstName,
	"LastName":  LastName,
	"Email":     Email,
	"StartDay":  StartDate,
}

// ValidateDraft checks a whole draft. It returns nil or DraftErrors.
func ValidateDraft(d models.EmployeeDraft) error {
	err := draftValidator.Struct(d)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate employee draft: %w", err)
	}

	out := make(DraftErrors, 0, len(verrs))
	for _, fe := range verrs {
		field, ok := structFieldToField[fe.StructField()]
		if !ok {
			field = Field(fe.StructField())
		}
		out = append(out, FieldError{Field: field, Rule: fe.Tag()})
	}
	return out
}

// SubmitEnabled is the save-button invariant: enabled iff every required field
// is valid, independent of the optional fields.
func SubmitEnabled(d models.EmployeeDraft) bool {
	return ValidName(d.FirstName) && ValidName(d.LastName) && ValidEmail(d.Email)
}
