package oracle

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ternarybob/hubcheck/internal/models"
)

// ErrIllegalTransition is returned when an action is not allowed in the
// form's current state.
var ErrIllegalTransition = errors.New("illegal form transition")

// DatePlaceholder is shown by the start date control until a day is picked
const DatePlaceholder = "Select date"

// DefaultProductName appears in the success confirmation
const DefaultProductName = "BrightHR Lite"

// State is the workflow position of the add-employee form
type State int

const (
	Closed State = iota
	OpenEmpty
	OpenPartial  // at least one field touched, save disabled
	OpenComplete // all required fields valid, save enabled
	Submitting
	Success
)

var stateNames = map[State]string{
	Closed:       "closed",
	OpenEmpty:    "open(empty)",
	OpenPartial:  "open(partial)",
	OpenComplete: "open(complete)",
	Submitting:   "submitting",
	Success:      "success",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// IsOpen reports whether the form modal is showing
func (s State) IsOpen() bool {
	return s == OpenEmpty || s == OpenPartial || s == OpenComplete
}

// Validity is the displayed validation state of a required field
type Validity int

const (
	Untouched Validity = iota // never blurred, never shown invalid
	Valid
	Invalid
)

func (v Validity) String() string {
	switch v {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "untouched"
	}
}

// Confirmation is the content of the success dialog
type Confirmation struct {
	Title   string
	Message string
	Actions []string
}

// Success dialog actions
const (
	ActionAddAnother  = "Add another employee"
	ActionGoToProfile = "Go to profile"
	ActionGoToRotas   = "Go to rotas"
)

type phase int

const (
	phaseClosed phase = iota
	phaseOpen
	phaseSubmitting
	phaseSuccess
)

// Form is the state machine of the add-employee workflow. It is not safe for
// concurrent use; scenarios drive it from a single goroutine.
type Form struct {
	phase        phase
	values       map[Field]string
	validity     map[Field]Validity
	registration bool
	startDay     int
	productName  string
	submitted    *models.EmployeeRecord
	records      []models.EmployeeRecord
	now          func() time.Time
}

// NewForm returns a closed form
func NewForm() *Form {
	return &Form{
		productName: DefaultProductName,
		now:         time.Now,
	}
}

// WithProductName overrides the product name used in the confirmation message
func (f *Form) WithProductName(name string) *Form {
	if name != "" {
		f.productName = name
	}
	return f
}

// ProductName is the product the confirmation message names
func (f *Form) ProductName() string {
	return f.productName
}

// State derives the current workflow state
func (f *Form) State() State {
	switch f.phase {
	case phaseSubmitting:
		return Submitting
	case phaseSuccess:
		return Success
	case phaseOpen:
		if f.SubmitEnabled() {
			return OpenComplete
		}
		if f.isEmpty() {
			return OpenEmpty
		}
		return OpenPartial
	default:
		return Closed
	}
}

func (f *Form) isEmpty() bool {
	for _, v := range f.values {
		if v != "" {
			return false
		}
	}
	for _, v := range f.validity {
		if v != Untouched {
			return false
		}
	}
	return f.registration && f.startDay == 0
}

func (f *Form) illegal(action string) error {
	return fmt.Errorf("%w: %s while %s", ErrIllegalTransition, action, f.State())
}

// Open moves Closed -> Open(empty), resetting every field to its default
func (f *Form) Open() error {
	if f.phase != phaseClosed {
		return f.illegal("open")
	}
	f.reset()
	f.phase = phaseOpen
	return nil
}

func (f *Form) reset() {
	f.values = make(map[Field]string, len(TextFields))
	for _, field := range TextFields {
		f.values[field] = ""
	}
	f.validity = make(map[Field]Validity, len(RequiredFields))
	for _, field := range RequiredFields {
		f.validity[field] = Untouched
	}
	f.registration = true
	f.startDay = 0
	f.submitted = nil
}

func (f *Form) requireOpen(action string, field Field) error {
	if f.phase != phaseOpen {
		return f.illegal(action)
	}
	if _, ok := f.values[field]; !ok {
		return fmt.Errorf("%s: %q is not a text field", action, field)
	}
	return nil
}

// Type appends text to a field. Typing never changes the displayed validity.
func (f *Form) Type(field Field, text string) error {
	if err := f.requireOpen("type", field); err != nil {
		return err
	}
	f.values[field] += text
	return nil
}

// Clear empties a field
func (f *Form) Clear(field Field) error {
	if err := f.requireOpen("clear", field); err != nil {
		return err
	}
	f.values[field] = ""
	return nil
}

// Backspace removes the last character of a field
func (f *Form) Backspace(field Field) error {
	if err := f.requireOpen("backspace", field); err != nil {
		return err
	}
	v := f.values[field]
	if v == "" {
		return nil
	}
	_, size := utf8.DecodeLastRuneInString(v)
	f.values[field] = v[:len(v)-size]
	return nil
}

// Blur moves focus away from a field. For required fields this is the only
// point where the displayed validity is recomputed.
func (f *Form) Blur(field Field) error {
	if err := f.requireOpen("blur", field); err != nil {
		return err
	}
	if !field.IsRequired() {
		return nil
	}
	if ValidField(field, f.values[field]) {
		f.validity[field] = Valid
	} else {
		f.validity[field] = Invalid
	}
	return nil
}

// Value returns the current text of a field
func (f *Form) Value(field Field) string {
	return f.values[field]
}

// Validity returns the displayed validation state of a required field
func (f *Form) Validity(field Field) Validity {
	return f.validity[field]
}

// ShowsError reports whether the field is rendered with the error border
func (f *Form) ShowsError(field Field) bool {
	return f.validity[field] == Invalid
}

// BorderColourMatchesError reports whether an observed border colour means
// "invalid" for this oracle.
func BorderColourMatchesError(observed string) bool {
	return strings.EqualFold(strings.TrimSpace(observed), ErrorColour)
}

// SubmitEnabled evaluates the save invariant against the current values
func (f *Form) SubmitEnabled() bool {
	if f.phase != phaseOpen {
		return false
	}
	return SubmitEnabled(f.Draft())
}

// Registration returns the "Send registration email" checkbox state
func (f *Form) Registration() bool {
	return f.registration
}

// ToggleRegistration flips the registration checkbox
func (f *Form) ToggleRegistration() error {
	if f.phase != phaseOpen {
		return f.illegal("toggle registration")
	}
	f.registration = !f.registration
	return nil
}

// SelectStartDay picks a day of the visible month in the date control
func (f *Form) SelectStartDay(day int) error {
	if f.phase != phaseOpen {
		return f.illegal("select start day")
	}
	if day < 1 || day > 31 {
		return fmt.Errorf("start day %d out of range", day)
	}
	f.startDay = day
	return nil
}

// StartDateText is what the date control displays
func (f *Form) StartDateText() string {
	if f.startDay == 0 {
		return DatePlaceholder
	}
	return fmt.Sprintf("%d", f.startDay)
}

// Draft snapshots the current form values
func (f *Form) Draft() models.EmployeeDraft {
	return models.EmployeeDraft{
		FirstName:             f.values[FirstName],
		LastName:              f.values[LastName],
		Email:                 f.values[Email],
		Phone:                 f.values[Phone],
		JobTitle:              f.values[JobTitle],
		StartDay:              f.startDay,
		SendRegistrationEmail: f.registration,
	}
}

// Fill types a whole draft into an open form, replacing current values.
// Optional fields are only touched when the draft sets them.
func (f *Form) Fill(d models.EmployeeDraft) error {
	for _, step := range []struct {
		field Field
		value string
	}{
		{FirstName, d.FirstName},
		{LastName, d.LastName},
		{Email, d.Email},
	} {
		if err := f.Clear(step.field); err != nil {
			return err
		}
		if err := f.Type(step.field, step.value); err != nil {
			return err
		}
	}
	for field, value := range map[Field]string{Phone: d.Phone, JobTitle: d.JobTitle} {
		if value == "" {
			continue
		}
		if err := f.Clear(field); err != nil {
			return err
		}
		if err := f.Type(field, value); err != nil {
			return err
		}
	}
	if d.StartDay != 0 {
		if err := f.SelectStartDay(d.StartDay); err != nil {
			return err
		}
	}
	return nil
}

// Cancel closes an open form without saving
func (f *Form) Cancel() error {
	if f.phase != phaseOpen {
		return f.illegal("cancel")
	}
	f.phase = phaseClosed
	return nil
}

// Submit moves Open(complete) -> Submitting. It fails while saving is disabled.
func (f *Form) Submit() error {
	if f.State() != OpenComplete {
		return f.illegal("submit")
	}
	f.phase = phaseSubmitting
	return nil
}

// Complete moves Submitting -> Success and persists the record
func (f *Form) Complete() (models.EmployeeRecord, error) {
	if f.phase != phaseSubmitting {
		return models.EmployeeRecord{}, f.illegal("complete")
	}
	record := models.RecordFromDraft(f.Draft(), f.now())
	f.records = append(f.records, record)
	f.submitted = &record
	f.phase = phaseSuccess
	return record, nil
}

// Confirmation returns the expected success dialog content
func (f *Form) Confirmation() (Confirmation, error) {
	if f.phase != phaseSuccess || f.submitted == nil {
		return Confirmation{}, f.illegal("confirmation")
	}
	return ExpectedConfirmation(f.submitted.FirstName, f.productName), nil
}

// ExpectedConfirmation builds the success dialog content for a first name
func ExpectedConfirmation(firstName, productName string) Confirmation {
	if productName == "" {
		productName = DefaultProductName
	}
	return Confirmation{
		Title:   "Success",
		Message: fmt.Sprintf("%s added to %s", firstName, productName),
		Actions: []string{ActionAddAnother, ActionGoToProfile, ActionGoToRotas},
	}
}

// ConfirmationPattern matches the success message for a first name, allowing
// any whitespace between words and any letter case.
func ConfirmationPattern(firstName, productName string) *regexp.Regexp {
	if productName == "" {
		productName = DefaultProductName
	}
	words := append([]string{regexp.QuoteMeta(firstName), "added", "to"}, strings.Fields(productName)...)
	for i := 3; i < len(words); i++ {
		words[i] = regexp.QuoteMeta(words[i])
	}
	return regexp.MustCompile(`(?i)` + strings.Join(words, `\s+`))
}

// AddAnother moves Success -> Open(empty) without leaving the dialog flow
func (f *Form) AddAnother() error {
	if f.phase != phaseSuccess {
		return f.illegal("add another")
	}
	f.reset()
	f.phase = phaseOpen
	return nil
}

// Dismiss closes the success dialog and returns to the listing
func (f *Form) Dismiss() error {
	if f.phase != phaseSuccess {
		return f.illegal("dismiss")
	}
	f.phase = phaseClosed
	return nil
}

// Records returns every employee created through this form, oldest first
func (f *Form) Records() []models.EmployeeRecord {
	out := make([]models.EmployeeRecord, len(f.records))
	copy(out, f.records)
	return out
}

// Listed reports whether a full name is discoverable in the listing
func (f *Form) Listed(fullName string) bool {
	for _, r := range f.records {
		if r.FullName == fullName {
			return true
		}
	}
	return false
}
