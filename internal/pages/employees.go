package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hubcheck/internal/browser"
	"github.com/ternarybob/hubcheck/internal/models"
	"github.com/ternarybob/hubcheck/internal/oracle"
)

// EmployeesPage drives the employee hub and its "Add employee" modal. Every
// action is mirrored on an oracle form, and assertions compare what the page
// renders with what the oracle predicts.
type EmployeesPage struct {
	driver   Driver
	form     *oracle.Form
	timeouts Timeouts
	logger   arbor.ILogger
}

func NewEmployeesPage(driver Driver, form *oracle.Form, timeouts Timeouts, logger arbor.ILogger) *EmployeesPage {
	if form == nil {
		form = oracle.NewForm()
	}
	return &EmployeesPage{driver: driver, form: form, timeouts: timeouts.withDefaults(), logger: logger}
}

// Form exposes the oracle tracking this page
func (p *EmployeesPage) Form() *oracle.Form {
	return p.form
}

func (p *EmployeesPage) act(ctx context.Context, fn func(ctx context.Context) error) error {
	return within(ctx, p.timeouts.Action, fn)
}

// OpenAddEmployeeModal clicks "Add employee" and waits for the modal title
func (p *EmployeesPage) OpenAddEmployeeModal(ctx context.Context) error {
	if err := p.act(ctx, func(ctx context.Context) error { return p.driver.Click(ctx, AddEmployeeButton) }); err != nil {
		return err
	}
	if err := p.act(ctx, func(ctx context.Context) error { return p.driver.WaitVisible(ctx, ModalTitle) }); err != nil {
		return err
	}
	return p.form.Open()
}

// typeAndBlur appends text (or backspaces) and blurs, on the page and the oracle
func (p *EmployeesPage) typeAndBlur(ctx context.Context, field oracle.Field, text string, backspaces int) error {
	loc := FieldInput(field)
	if err := p.act(ctx, func(ctx context.Context) error {
		if text != "" {
			if err := p.driver.Type(ctx, loc, text); err != nil {
				return err
			}
		}
		if backspaces > 0 {
			if err := p.driver.Backspace(ctx, loc, backspaces); err != nil {
				return err
			}
		}
		return p.driver.Blur(ctx, loc)
	}); err != nil {
		return err
	}

	if err := p.form.Type(field, text); err != nil {
		return err
	}
	for i := 0; i < backspaces; i++ {
		if err := p.form.Backspace(field); err != nil {
			return err
		}
	}
	return p.form.Blur(field)
}

// TypeInvalidNamesAndEmail types invalid values into the required fields,
// blurring each one to trigger validation.
func (p *EmployeesPage) TypeInvalidNamesAndEmail(ctx context.Context, tooLong, invalidEmail string) error {
	for _, step := range []struct {
		field oracle.Field
		value string
	}{
		{oracle.FirstName, tooLong},
		{oracle.LastName, tooLong},
		{oracle.Email, invalidEmail},
	} {
		if err := p.typeAndBlur(ctx, step.field, step.value, 0); err != nil {
			return err
		}
	}
	return nil
}

// MakeEmailValidByTyping appends extra to the email and blurs
func (p *EmployeesPage) MakeEmailValidByTyping(ctx context.Context, extra string) error {
	return p.typeAndBlur(ctx, oracle.Email, extra, 0)
}

// BackspaceLastNameOnce deletes one character from the last name and blurs
func (p *EmployeesPage) BackspaceLastNameOnce(ctx context.Context) error {
	return p.typeAndBlur(ctx, oracle.LastName, "", 1)
}

// BackspaceFirstNameOnce deletes one character from the first name and blurs
func (p *EmployeesPage) BackspaceFirstNameOnce(ctx context.Context) error {
	return p.typeAndBlur(ctx, oracle.FirstName, "", 1)
}

// replace clears a field and types value without blurring
func (p *EmployeesPage) replace(ctx context.Context, field oracle.Field, value string) error {
	loc := FieldInput(field)
	if err := p.act(ctx, func(ctx context.Context) error {
		if err := p.driver.Clear(ctx, loc); err != nil {
			return err
		}
		return p.driver.Type(ctx, loc, value)
	}); err != nil {
		return err
	}
	if err := p.form.Clear(field); err != nil {
		return err
	}
	return p.form.Type(field, value)
}

// TypeMandatoryFields replaces first name, last name and email
func (p *EmployeesPage) TypeMandatoryFields(ctx context.Context, firstName, lastName, email string) error {
	for _, step := range []struct {
		field oracle.Field
		value string
	}{
		{oracle.FirstName, firstName},
		{oracle.LastName, lastName},
		{oracle.Email, email},
	} {
		if err := p.replace(ctx, step.field, step.value); err != nil {
			return err
		}
	}
	return nil
}

// TypeOptionalFields replaces phone and job title when values are given
func (p *EmployeesPage) TypeOptionalFields(ctx context.Context, phone, jobTitle string) error {
	if phone != "" {
		if err := p.replace(ctx, oracle.Phone, phone); err != nil {
			return err
		}
	}
	if jobTitle != "" {
		if err := p.replace(ctx, oracle.JobTitle, jobTitle); err != nil {
			return err
		}
	}
	return nil
}

// FillEmployeeForm types a whole draft, picking the start day when set
func (p *EmployeesPage) FillEmployeeForm(ctx context.Context, draft models.EmployeeDraft) error {
	if err := p.TypeMandatoryFields(ctx, draft.FirstName, draft.LastName, draft.Email); err != nil {
		return err
	}
	if err := p.TypeOptionalFields(ctx, draft.Phone, draft.JobTitle); err != nil {
		return err
	}
	if draft.StartDay != 0 {
		if err := p.SelectStartDateByDay(ctx, draft.StartDay); err != nil {
			return err
		}
	}
	p.logger.Debug().
		Str("employee", draft.FullName()).
		Bool("save_enabled", p.form.SubmitEnabled()).
		Msg("Employee form filled")
	return nil
}

// SelectStartDateByDay opens the date picker and clicks an enabled day of the
// visible month.
func (p *EmployeesPage) SelectStartDateByDay(ctx context.Context, day int) error {
	if err := p.act(ctx, func(ctx context.Context) error {
		if err := p.driver.Click(ctx, StartDateTrigger); err != nil {
			return err
		}
		if err := p.driver.WaitVisible(ctx, DayPickerPanel); err != nil {
			return err
		}
		return p.driver.Click(ctx, DayCell(day))
	}); err != nil {
		return fmt.Errorf("select start day %d: %w", day, err)
	}
	if err := p.form.SelectStartDay(day); err != nil {
		return err
	}
	p.logger.Debug().Int("day", day).Msg("Start date selected")
	return nil
}

// ClickSave checks Save is enabled, clicks it and waits for the success dialog
func (p *EmployeesPage) ClickSave(ctx context.Context) error {
	if err := p.ExpectSaveEnabled(ctx); err != nil {
		return err
	}
	if err := p.act(ctx, func(ctx context.Context) error { return p.driver.Click(ctx, SaveButton) }); err != nil {
		return err
	}
	if err := p.form.Submit(); err != nil {
		return err
	}
	if err := within(ctx, p.timeouts.Dialog, func(ctx context.Context) error {
		return p.driver.WaitVisible(ctx, Dialog)
	}); err != nil {
		return fmt.Errorf("waiting for success dialog: %w", err)
	}
	record, err := p.form.Complete()
	if err != nil {
		return err
	}
	p.logger.Info().Str("employee", record.FullName).Msg("Employee saved")
	return nil
}

// ClickAddAnotherEmployee reopens an empty form from the success dialog
func (p *EmployeesPage) ClickAddAnotherEmployee(ctx context.Context) error {
	if err := within(ctx, p.timeouts.Dialog, func(ctx context.Context) error {
		return p.driver.Click(ctx, AddAnotherButton)
	}); err != nil {
		return err
	}
	if err := p.act(ctx, func(ctx context.Context) error { return p.driver.WaitVisible(ctx, ModalTitle) }); err != nil {
		return err
	}
	return p.form.AddAnother()
}

// CloseSuccessModalOnly closes the success dialog with its X button
func (p *EmployeesPage) CloseSuccessModalOnly(ctx context.Context) error {
	if err := p.act(ctx, func(ctx context.Context) error { return p.driver.Click(ctx, CloseModalButton) }); err != nil {
		return err
	}
	return p.form.Dismiss()
}

// Cancel closes the open form without saving
func (p *EmployeesPage) Cancel(ctx context.Context) error {
	if err := p.AssertCancelEnabled(ctx); err != nil {
		return err
	}
	if err := p.act(ctx, func(ctx context.Context) error { return p.driver.Click(ctx, CancelButton) }); err != nil {
		return err
	}
	return p.form.Cancel()
}

// ToggleRegistrationCheckbox switches "Send registration email" off and on
// again through its label, checking the state after each click.
func (p *EmployeesPage) ToggleRegistrationCheckbox(ctx context.Context) error {
	if err := p.expectRegistration(ctx); err != nil {
		return err
	}
	for i := 0; i < 2; i++ {
		if err := p.act(ctx, func(ctx context.Context) error { return p.driver.Click(ctx, RegistrationLabel) }); err != nil {
			return err
		}
		if err := p.form.ToggleRegistration(); err != nil {
			return err
		}
		if err := p.expectRegistration(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (p *EmployeesPage) expectRegistration(ctx context.Context) error {
	want := p.form.Registration()
	return eventually(ctx, p.timeouts.Action, fmt.Sprintf("registration checkbox checked=%t", want), func(ctx context.Context) (bool, string, error) {
		checked, err := p.driver.Checked(ctx, RegistrationCheckbox)
		return checked == want, fmt.Sprintf("checked=%t", checked), err
	})
}

// AssertSaveDisabled asserts Save is visible and disabled
func (p *EmployeesPage) AssertSaveDisabled(ctx context.Context) error {
	return p.ExpectSaveDisabled(ctx)
}

// ExpectSaveDisabled asserts Save is visible and disabled, and that the
// oracle agrees it should be.
func (p *EmployeesPage) ExpectSaveDisabled(ctx context.Context) error {
	if p.form.SubmitEnabled() {
		return fmt.Errorf("save expected disabled but the form is %s", p.form.State())
	}
	return p.expectSave(ctx, false)
}

// ExpectSaveEnabled asserts Save is visible and enabled, and that the oracle
// agrees it should be.
func (p *EmployeesPage) ExpectSaveEnabled(ctx context.Context) error {
	if !p.form.SubmitEnabled() {
		return fmt.Errorf("save expected enabled but the form is %s: %w", p.form.State(), oracle.ValidateDraft(p.form.Draft()))
	}
	return p.expectSave(ctx, true)
}

// ExpectSaveMatchesOracle asserts Save's enabled state is whatever the oracle
// predicts for the current values.
func (p *EmployeesPage) ExpectSaveMatchesOracle(ctx context.Context) error {
	return p.expectSave(ctx, p.form.SubmitEnabled())
}

func (p *EmployeesPage) expectSave(ctx context.Context, enabled bool) error {
	return eventually(ctx, p.timeouts.Action, fmt.Sprintf("Save visible and enabled=%t", enabled), func(ctx context.Context) (bool, string, error) {
		_, visible, err := p.driver.Visibility(ctx, SaveButton)
		if err != nil {
			return false, "", err
		}
		if !visible {
			return false, "not visible", nil
		}
		got, err := p.driver.Enabled(ctx, SaveButton)
		return got == enabled, fmt.Sprintf("enabled=%t", got), err
	})
}

// AssertFieldsEmptyOrDefault checks a freshly opened form: empty text fields,
// the date placeholder and the registration checkbox ticked.
func (p *EmployeesPage) AssertFieldsEmptyOrDefault(ctx context.Context) error {
	for _, field := range oracle.TextFields {
		want := p.form.Value(field)
		loc := FieldInput(field)
		if err := eventually(ctx, p.timeouts.Action, fmt.Sprintf("%s value %q", field, want), func(ctx context.Context) (bool, string, error) {
			got, err := p.driver.Value(ctx, loc)
			return got == want, fmt.Sprintf("%q", got), err
		}); err != nil {
			return err
		}
	}

	wantDate := p.form.StartDateText()
	if err := eventually(ctx, p.timeouts.Action, fmt.Sprintf("start date showing %q", wantDate), func(ctx context.Context) (bool, string, error) {
		text, err := p.driver.Text(ctx, StartDateBox)
		return strings.Contains(text, wantDate), fmt.Sprintf("%q", text), err
	}); err != nil {
		return err
	}

	return p.expectRegistration(ctx)
}

// AssertCancelEnabled asserts Cancel is visible, enabled and shows a pointer
func (p *EmployeesPage) AssertCancelEnabled(ctx context.Context) error {
	return eventually(ctx, p.timeouts.Action, "Cancel visible, enabled, cursor pointer", func(ctx context.Context) (bool, string, error) {
		_, visible, err := p.driver.Visibility(ctx, CancelButton)
		if err != nil {
			return false, "", err
		}
		enabled, err := p.driver.Enabled(ctx, CancelButton)
		if err != nil {
			return false, "", err
		}
		cursor, err := p.driver.CSS(ctx, CancelButton, "cursor")
		if err != nil {
			return false, "", err
		}
		observed := fmt.Sprintf("visible=%t enabled=%t cursor=%s", visible, enabled, cursor)
		return visible && enabled && cursor == "pointer", observed, nil
	})
}

// ValidateFieldBordersRedOnBlur focuses and blurs each empty required field
// and expects the error border on all of them.
func (p *EmployeesPage) ValidateFieldBordersRedOnBlur(ctx context.Context) error {
	for _, field := range oracle.RequiredFields {
		loc := FieldInput(field)
		if err := p.act(ctx, func(ctx context.Context) error {
			if err := p.driver.Focus(ctx, loc); err != nil {
				return err
			}
			return p.driver.Blur(ctx, loc)
		}); err != nil {
			return err
		}
		if err := p.form.Blur(field); err != nil {
			return err
		}
		if err := p.ExpectFieldBorder(ctx, field); err != nil {
			return err
		}
	}
	return nil
}

// ExpectThreeRequiredRed asserts every required field shows the error border
func (p *EmployeesPage) ExpectThreeRequiredRed(ctx context.Context) error {
	for _, field := range oracle.RequiredFields {
		if !p.form.ShowsError(field) {
			return fmt.Errorf("%s expected invalid but is %s", field, p.form.Validity(field))
		}
		if err := p.ExpectFieldBorder(ctx, field); err != nil {
			return err
		}
	}
	return nil
}

// ExpectEmailNotRed asserts the email field no longer shows the error border
func (p *EmployeesPage) ExpectEmailNotRed(ctx context.Context) error {
	return p.expectNotRed(ctx, oracle.Email)
}

// ExpectLastNameNotRed asserts the last name field no longer shows the error border
func (p *EmployeesPage) ExpectLastNameNotRed(ctx context.Context) error {
	return p.expectNotRed(ctx, oracle.LastName)
}

// ExpectFirstNameNotRed asserts the first name field no longer shows the error border
func (p *EmployeesPage) ExpectFirstNameNotRed(ctx context.Context) error {
	return p.expectNotRed(ctx, oracle.FirstName)
}

func (p *EmployeesPage) expectNotRed(ctx context.Context, field oracle.Field) error {
	if p.form.ShowsError(field) {
		return fmt.Errorf("%s expected valid but the oracle shows it invalid (value %q)", field, p.form.Value(field))
	}
	return p.ExpectFieldBorder(ctx, field)
}

// ExpectFieldBorder asserts the field's border colour matches the oracle:
// the error colour exactly when the field is displayed invalid.
func (p *EmployeesPage) ExpectFieldBorder(ctx context.Context, field oracle.Field) error {
	wantError := p.form.ShowsError(field)
	loc := FieldInput(field)
	expectation := fmt.Sprintf("%s border %s", field, oracle.ErrorColour)
	if !wantError {
		expectation = fmt.Sprintf("%s border not %s", field, oracle.ErrorColour)
	}
	return eventually(ctx, p.timeouts.Action, expectation, func(ctx context.Context) (bool, string, error) {
		colour, err := p.driver.CSS(ctx, loc, "border-color")
		return oracle.BorderColourMatchesError(colour) == wantError, colour, err
	})
}

// AssertSuccessModalFor checks the success dialog against the confirmation
// the oracle expects for firstName.
func (p *EmployeesPage) AssertSuccessModalFor(ctx context.Context, firstName string) error {
	confirmation, err := p.form.Confirmation()
	if err != nil {
		return err
	}
	if !strings.HasPrefix(confirmation.Message, firstName+" ") {
		return fmt.Errorf("last saved employee is not %s: %s", firstName, confirmation.Message)
	}

	for _, loc := range []browser.Locator{Dialog, SuccessHeading, AddAnotherButton, GoToProfileLink, GoToRotasLink} {
		if err := within(ctx, p.timeouts.Dialog, func(ctx context.Context) error {
			return p.driver.WaitVisible(ctx, loc)
		}); err != nil {
			return fmt.Errorf("success dialog: %w", err)
		}
	}

	pattern := oracle.ConfirmationPattern(firstName, p.form.ProductName())
	return eventually(ctx, p.timeouts.Dialog, fmt.Sprintf("dialog text matching %q", pattern), func(ctx context.Context) (bool, string, error) {
		text, err := p.driver.Text(ctx, Dialog)
		return pattern.MatchString(text), fmt.Sprintf("%q", text), err
	})
}

// AssertOnEmployeeHubPage asserts the URL and the "Add employee" button
func (p *EmployeesPage) AssertOnEmployeeHubPage(ctx context.Context) error {
	if err := eventually(ctx, p.timeouts.Action, "url containing "+EmployeeHubPath, func(ctx context.Context) (bool, string, error) {
		location, err := p.driver.Location(ctx)
		return strings.Contains(location, EmployeeHubPath), location, err
	}); err != nil {
		return err
	}
	return p.act(ctx, func(ctx context.Context) error { return p.driver.WaitVisible(ctx, AddEmployeeButton) })
}

// AssertEmployeesVisible asserts each full name is visible in the listing.
// Names must have been saved through this page first.
func (p *EmployeesPage) AssertEmployeesVisible(ctx context.Context, fullNames []string) error {
	for _, name := range fullNames {
		if !p.form.Listed(name) {
			return fmt.Errorf("%s was never saved through this form", name)
		}
		if err := p.act(ctx, func(ctx context.Context) error {
			return p.driver.WaitVisible(ctx, ListedEmployee(name))
		}); err != nil {
			return fmt.Errorf("%w: employee %s not listed: %w", ErrAssertion, name, err)
		}
	}
	return nil
}
