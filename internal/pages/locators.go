package pages

import (
	"fmt"

	"github.com/ternarybob/hubcheck/internal/browser"
	"github.com/ternarybob/hubcheck/internal/oracle"
)

// Application paths
const (
	LitePath        = "/lite"
	LoginPath       = "/login"
	DashboardPath   = "/dashboard"
	EmployeeHubPath = "/employee-hub"
)

// Ids are used where the application renders them. Text locators are the
// fallback where it does not, and break when the copy changes.
var (
	LoginLink   = browser.ByText("a", "Log in")
	UsernameBox = browser.ByID("username")
	PasswordBox = browser.ByID("password")
	LoginButton = browser.ByID("login")

	EmployeesLink = browser.ByText("a", "Employees")

	AddEmployeeButton = browser.ByText("button", "Add employee")
	ModalTitle        = browser.ByText("h2", "Add new employee")
	SaveButton        = browser.ByText("button", "Save new employee")
	CancelButton      = browser.ByText("button", "Cancel")

	StartDateBox         = browser.ByID(string(oracle.StartDate))
	StartDateTrigger     = browser.ByCSS(`[data-testid="input-selector"]`).Within(StartDateBox)
	DayPickerPanel       = browser.ByCSS(`[data-testid="daypicker-panel"]`)
	RegistrationCheckbox = browser.ByID(string(oracle.Registration))
	RegistrationLabel    = browser.ByCSS(`label[for="registrationEmail"]`)

	Dialog           = browser.ByCSS(`[role="dialog"]`)
	dialogXPath      = browser.ByXPath("dialog", `//*[@role="dialog"]`)
	SuccessHeading   = browser.ByXPath("success heading", `//*[self::h1 or self::h2 or self::h3][contains(translate(normalize-space(.), "SUCES", "suces"), "success")]`).Within(dialogXPath)
	AddAnotherButton = browser.ByText("button", oracle.ActionAddAnother).Within(dialogXPath)
	GoToProfileLink  = browser.ByText("a", oracle.ActionGoToProfile).Within(dialogXPath)
	GoToRotasLink    = browser.ByText("a", oracle.ActionGoToRotas).Within(dialogXPath)
	CloseModalButton = browser.ByCSS(`button[aria-label="Close modal"]`)
)

// FieldInput locates the input for a text field or the registration checkbox
func FieldInput(field oracle.Field) browser.Locator {
	return browser.ByID(string(field))
}

// DayCell locates an enabled day number in the open date picker
func DayCell(day int) browser.Locator {
	return browser.ByXPath(
		fmt.Sprintf("day %d", day),
		fmt.Sprintf(`//*[@data-testid="daypicker-panel"]//*[contains(concat(" ", @class, " "), " DayPicker-Day ") and @aria-disabled="false"]//*[contains(@class, "DayPicker-Day-Number") and normalize-space(.)="%d"]`, day),
	)
}

// ListedEmployee locates a full name anywhere on the page
func ListedEmployee(fullName string) browser.Locator {
	return browser.ByText("", fullName)
}
