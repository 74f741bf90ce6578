package scenarios

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/hubcheck/internal/oracle"
)

// Scenario is one independent check against the employee hub. Every
// scenario starts authenticated on the dashboard.
type Scenario struct {
	ID   string // short name for --scenario
	Name string
	Run  func(ctx context.Context, env *Env) error
}

// Test data shared by the scenarios
const (
	MobileWidth  = oracle.DesktopBreakpoint - 1
	DesktopWidth = oracle.DesktopBreakpoint
	ProbeHeight  = 800

	TestPhone    = "07123456789"
	TestJobTitle = "Test Analyst"

	InvalidEmail = "invalid.email@domain."
	EmailFix     = "o"
)

// TooLongName exceeds the name limit by one character
var TooLongName = strings.Repeat("A", oracle.MaxNameLength+1)

// All returns the scenarios in run order
func All() []Scenario {
	return []Scenario{
		{ID: "mobile-layout", Name: "991px mobile layout with kebab menu", Run: mobileLayout},
		{ID: "desktop-layout", Name: "992px desktop layout: Employees nav visible with side bar", Run: desktopLayout},
		{ID: "modal-fields", Name: "Employees modal check for each field input", Run: modalFields},
		{ID: "validation", Name: "Validation on mandatory fields resolves field by field", Run: validationFlow},
		{ID: "happy-path", Name: "Happy path adds two employees and lists both", Run: happyPath},
	}
}

// Select returns the scenarios whose ids are given, in run order. No ids
// selects every scenario.
func Select(ids ...string) ([]Scenario, error) {
	all := All()
	if len(ids) == 0 {
		return all, nil
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[strings.TrimSpace(id)] = true
	}
	var out []Scenario
	for _, s := range all {
		if wanted[s.ID] {
			out = append(out, s)
			delete(wanted, s.ID)
		}
	}
	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for id := range wanted {
			unknown = append(unknown, id)
		}
		return nil, fmt.Errorf("unknown scenario(s) %s; available: %s", strings.Join(unknown, ", "), strings.Join(IDs(), ", "))
	}
	return out, nil
}

// IDs lists every scenario id
func IDs() []string {
	all := All()
	ids := make([]string, len(all))
	for i, s := range all {
		ids[i] = s.ID
	}
	return ids
}

func mobileLayout(ctx context.Context, env *Env) error {
	env.Step("Setting viewport to %dpx so the mobile layout is displayed", MobileWidth)
	if err := env.Dashboard.VerifyOnDashboard(ctx); err != nil {
		return err
	}
	layout, err := env.Dashboard.AssertLayoutFor(ctx, MobileWidth, ProbeHeight)
	if err != nil {
		return err
	}
	env.Screenshot(ctx, "mobile-dashboard")
	env.Pass("%s layout: Employees link hidden in the kebab menu", layout)
	return nil
}

func desktopLayout(ctx context.Context, env *Env) error {
	env.Step("Setting viewport to %dpx so the desktop layout is displayed", DesktopWidth)
	if err := env.Dashboard.VerifyOnDashboard(ctx); err != nil {
		return err
	}
	layout, err := env.Dashboard.AssertLayoutFor(ctx, DesktopWidth, ProbeHeight)
	if err != nil {
		return err
	}
	env.Screenshot(ctx, "desktop-dashboard")
	env.Pass("%s layout: Employees link visible in the sidebar", layout)
	return nil
}

// openModal goes from the dashboard to an open, empty add-employee form
func openModal(ctx context.Context, env *Env) error {
	if err := env.Dashboard.VerifyOnDashboard(ctx); err != nil {
		return err
	}
	if err := env.Dashboard.OpenEmployees(ctx); err != nil {
		return err
	}
	env.Pass("On the employee hub")
	if err := env.Employees.OpenAddEmployeeModal(ctx); err != nil {
		return err
	}
	env.Pass("Add employee modal open")
	return nil
}

func modalFields(ctx context.Context, env *Env) error {
	if err := openModal(ctx, env); err != nil {
		return err
	}
	e := env.Employees

	if err := e.AssertSaveDisabled(ctx); err != nil {
		return err
	}
	env.Pass("Save new employee present but disabled until mandatory fields are populated")

	if err := e.AssertFieldsEmptyOrDefault(ctx); err != nil {
		return err
	}
	env.Pass("Inputs start empty, start date shows %q, registration email ticked", oracle.DatePlaceholder)

	if err := e.AssertCancelEnabled(ctx); err != nil {
		return err
	}
	if err := e.ValidateFieldBordersRedOnBlur(ctx); err != nil {
		return err
	}
	env.Screenshot(ctx, "required-fields-red")
	env.Pass("Mandatory fields turn red when left empty")
	return nil
}

func validationFlow(ctx context.Context, env *Env) error {
	if err := openModal(ctx, env); err != nil {
		return err
	}
	e := env.Employees

	env.Step("Typing invalid names and email")
	if err := e.TypeInvalidNamesAndEmail(ctx, TooLongName, InvalidEmail); err != nil {
		return err
	}
	if err := e.ExpectThreeRequiredRed(ctx); err != nil {
		return err
	}
	if err := e.ExpectSaveDisabled(ctx); err != nil {
		return err
	}
	env.Screenshot(ctx, "all-invalid")
	env.Pass("All invalid fields red; Save disabled")

	steps := []struct {
		step   string
		edit   func(context.Context) error
		expect func(context.Context) error
		done   string
	}{
		{"Fixing the email", func(ctx context.Context) error { return e.MakeEmailValidByTyping(ctx, EmailFix) }, e.ExpectEmailNotRed, "Email fixed"},
		{"Fixing the last name", e.BackspaceLastNameOnce, e.ExpectLastNameNotRed, "Last name fixed"},
		{"Fixing the first name", e.BackspaceFirstNameOnce, e.ExpectFirstNameNotRed, "First name fixed"},
	}
	for _, s := range steps {
		env.Step("%s", s.step)
		if err := s.edit(ctx); err != nil {
			return err
		}
		if err := s.expect(ctx); err != nil {
			return err
		}
		// Save follows the oracle: disabled until the last required field is valid
		if err := e.ExpectSaveMatchesOracle(ctx); err != nil {
			return err
		}
		env.Pass("%s; Save enabled=%t", s.done, e.Form().SubmitEnabled())
	}
	if err := e.ExpectSaveEnabled(ctx); err != nil {
		return err
	}

	env.Step("Toggling the registration email checkbox")
	if err := e.ToggleRegistrationCheckbox(ctx); err != nil {
		return err
	}
	env.Pass("Checkbox toggles off and on")
	return nil
}

func happyPath(ctx context.Context, env *Env) error {
	drafts, err := env.Pool.DistinctDrafts(2)
	if err != nil {
		return err
	}
	for i, day := range []int{7, 26} {
		drafts[i].Phone = TestPhone
		drafts[i].JobTitle = TestJobTitle
		drafts[i].StartDay = day
		env.Step("Employee %d: %s (%s)", i+1, drafts[i].FullName(), drafts[i].Email)
	}

	if err := openModal(ctx, env); err != nil {
		return err
	}
	e := env.Employees

	names := make([]string, 0, len(drafts))
	for i, draft := range drafts {
		if i > 0 {
			if err := e.ClickAddAnotherEmployee(ctx); err != nil {
				return err
			}
			if err := e.AssertFieldsEmptyOrDefault(ctx); err != nil {
				return err
			}
		}
		if err := e.FillEmployeeForm(ctx, draft); err != nil {
			return err
		}
		if err := e.ClickSave(ctx); err != nil {
			return err
		}
		if err := e.AssertSuccessModalFor(ctx, draft.FirstName); err != nil {
			return err
		}
		env.Screenshot(ctx, fmt.Sprintf("employee-%d-saved", i+1))
		env.Pass("Employee %d saved: %s", i+1, draft.FullName())
		names = append(names, draft.FullName())
	}

	if err := e.CloseSuccessModalOnly(ctx); err != nil {
		return err
	}
	if err := e.AssertOnEmployeeHubPage(ctx); err != nil {
		return err
	}
	if err := e.AssertEmployeesVisible(ctx, names); err != nil {
		return err
	}
	env.Pass("Both employees listed: %s", strings.Join(names, ", "))
	return nil
}

