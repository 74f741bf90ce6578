package models

import (
	"time"
)

// EmployeeDraft is the in-progress state of the "Add new employee" form.
// Validation tags are evaluated by the oracle package, which registers the
// employee_email rule.
type EmployeeDraft struct {
	FirstName             string `json:"first_name" validate:"required,max=50"`
	LastName              string `json:"last_name" validate:"required,max=50"`
	Email                 string `json:"email" validate:"required,employee_email"`
	Phone                 string `json:"phone,omitempty"`
	JobTitle              string `json:"job_title,omitempty"`
	StartDay              int    `json:"start_day,omitempty" validate:"omitempty,min=1,max=31"` // Day of the visible month, 0 = no date
	SendRegistrationEmail bool   `json:"send_registration_email"`
}

// NewEmployeeDraft creates a draft with the form's defaults applied
func NewEmployeeDraft(firstName, lastName, email string) EmployeeDraft {
	return EmployeeDraft{
		FirstName:             firstName,
		LastName:              lastName,
		Email:                 email,
		SendRegistrationEmail: true,
	}
}

// FullName is the name shown in the employee listing
func (d EmployeeDraft) FullName() string {
	return d.FirstName + " " + d.LastName
}

// EmployeeRecord is a persisted employee as it appears after a successful save
type EmployeeRecord struct {
	FullName              string    `json:"full_name"`
	FirstName             string    `json:"first_name"`
	LastName              string    `json:"last_name"`
	Email                 string    `json:"email"`
	Phone                 string    `json:"phone,omitempty"`
	JobTitle              string    `json:"job_title,omitempty"`
	StartDay              int       `json:"start_day,omitempty"`
	SendRegistrationEmail bool      `json:"send_registration_email"`
	CreatedAt             time.Time `json:"created_at"`
}

// RecordFromDraft converts a submitted draft into the record the listing shows
func RecordFromDraft(d EmployeeDraft, createdAt time.Time) EmployeeRecord {
	return EmployeeRecord{
		FullName:              d.FullName(),
		FirstName:             d.FirstName,
		LastName:              d.LastName,
		Email:                 d.Email,
		Phone:                 d.Phone,
		JobTitle:              d.JobTitle,
		StartDay:              d.StartDay,
		SendRegistrationEmail: d.SendRegistrationEmail,
		CreatedAt:             createdAt,
	}
}
