package fakehub

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/hubcheck/internal/browser"
	"github.com/ternarybob/hubcheck/internal/models"
	"github.com/ternarybob/hubcheck/internal/oracle"
	"github.com/ternarybob/hubcheck/internal/pages"
)

type kind int

const (
	kindUnknown kind = iota
	kindStatic       // fixed element, compared by locator
	kindField
	kindDay
	kindListed
)

type element struct {
	kind  kind
	loc   browser.Locator
	field oracle.Field
	day   int
	name  string
}

// resolve maps a locator onto a known element of the hub
func (h *Hub) resolve(loc browser.Locator) element {
	for _, field := range append(append([]oracle.Field(nil), oracle.TextFields...), oracle.Registration) {
		if loc == pages.FieldInput(field) {
			return element{kind: kindField, loc: loc, field: field}
		}
	}
	for day := 1; day <= 31; day++ {
		if loc == pages.DayCell(day) {
			return element{kind: kindDay, loc: loc, day: day}
		}
	}
	for _, name := range h.listingLocked() {
		if loc == pages.ListedEmployee(name) {
			return element{kind: kindListed, loc: loc, name: name}
		}
	}
	switch loc {
	case pages.LoginLink, pages.UsernameBox, pages.PasswordBox, pages.LoginButton,
		pages.EmployeesLink, pages.AddEmployeeButton, pages.ModalTitle,
		pages.SaveButton, pages.CancelButton, pages.StartDateBox, pages.StartDateTrigger,
		pages.DayPickerPanel, pages.RegistrationLabel, pages.Dialog, pages.SuccessHeading,
		pages.AddAnotherButton, pages.GoToProfileLink, pages.GoToRotasLink, pages.CloseModalButton:
		return element{kind: kindStatic, loc: loc}
	}
	return element{kind: kindUnknown, loc: loc}
}

func (h *Hub) visibility(loc browser.Locator) (present, visible bool) {
	el := h.resolve(loc)
	state := h.form.State()
	onLogin := h.origin == LoginOrigin && h.path == pages.LoginPath

	shown := func(cond bool) (bool, bool) { return cond, cond }

	switch el.kind {
	case kindField:
		return shown(state.IsOpen())
	case kindDay:
		return shown(h.pickerOpen && state.IsOpen())
	case kindListed:
		return shown(h.onPage(pages.EmployeeHubPath))
	case kindStatic:
		switch loc {
		case pages.LoginLink:
			return shown(h.onPage(pages.LitePath))
		case pages.UsernameBox, pages.PasswordBox, pages.LoginButton:
			return shown(onLogin)
		case pages.EmployeesLink:
			if h.origin != AppOrigin || h.path == pages.LitePath {
				return false, false
			}
			return h.navState()
		case pages.AddEmployeeButton:
			return shown(h.onPage(pages.EmployeeHubPath))
		case pages.ModalTitle, pages.SaveButton, pages.CancelButton, pages.StartDateBox,
			pages.StartDateTrigger, pages.RegistrationLabel:
			return shown(state.IsOpen())
		case pages.DayPickerPanel:
			return shown(h.pickerOpen && state.IsOpen())
		case pages.Dialog, pages.SuccessHeading, pages.AddAnotherButton, pages.GoToProfileLink,
			pages.GoToRotasLink, pages.CloseModalButton:
			return shown(state == oracle.Success)
		}
	}
	return false, false
}

// interactable returns the element when it is visible, mirroring a real
// browser refusing to act on hidden nodes.
func (h *Hub) interactable(ctx context.Context, loc browser.Locator, action string) (element, error) {
	if _, visible := h.visibility(loc); !visible {
		h.mu.Unlock()
		<-ctx.Done()
		h.mu.Lock()
		return element{}, fmt.Errorf("%s %s: not visible: %w", action, loc, ctx.Err())
	}
	return h.resolve(loc), nil
}

// Click performs the element's action in the simulated application
func (h *Hub) Click(ctx context.Context, loc browser.Locator) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	el, err := h.interactable(ctx, loc, "click")
	if err != nil {
		return err
	}
	h.clicks = append(h.clicks, loc.String())

	switch el.kind {
	case kindDay:
		h.pickerOpen = false
		return h.form.SelectStartDay(el.day)
	case kindField:
		if el.field == oracle.Registration {
			return h.form.ToggleRegistration()
		}
		return nil
	case kindListed:
		return nil
	}

	switch loc {
	case pages.LoginLink:
		h.origin, h.path = LoginOrigin, pages.LoginPath
	case pages.LoginButton:
		h.submitLogin()
	case pages.EmployeesLink:
		h.origin, h.path = AppOrigin, pages.EmployeeHubPath
	case pages.AddEmployeeButton:
		if h.form.State() != oracle.Closed {
			return nil
		}
		return h.form.Open()
	case pages.SaveButton:
		return h.save()
	case pages.CancelButton:
		return h.form.Cancel()
	case pages.StartDateTrigger, pages.StartDateBox:
		h.pickerOpen = true
	case pages.RegistrationLabel:
		return h.form.ToggleRegistration()
	case pages.AddAnotherButton:
		return h.form.AddAnother()
	case pages.CloseModalButton:
		return h.form.Dismiss()
	}
	return nil
}

func (h *Hub) submitLogin() {
	if h.username != h.opts.Email || h.password != h.opts.Password {
		return
	}
	h.logins++
	h.setCookie(models.Cookie{
		Name:     SessionCookie,
		Value:    h.token,
		Domain:   strings.TrimPrefix(AppOrigin, "https://"),
		Path:     "/",
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	})
	h.username, h.password = "", ""
	h.origin, h.path = AppOrigin, pages.DashboardPath
}

func (h *Hub) save() error {
	enabled := h.form.SubmitEnabled()
	if !enabled && !h.opts.SaveAlwaysEnabled {
		return nil
	}
	if !enabled {
		// The faulty build saves invalid data: close the form silently
		return h.form.Cancel()
	}
	if err := h.form.Submit(); err != nil {
		return err
	}
	record, err := h.form.Complete()
	if err != nil {
		return err
	}
	if !h.opts.DropSaved {
		h.listing = append(h.listing, record.FullName)
	}
	return nil
}

func (h *Hub) textField(ctx context.Context, loc browser.Locator, action string) (oracle.Field, error) {
	el, err := h.interactable(ctx, loc, action)
	if err != nil {
		return "", err
	}
	if el.kind != kindField || el.field == oracle.Registration {
		return "", fmt.Errorf("%s %s: not a text input", action, loc)
	}
	return el.field, nil
}

// Type appends text to an input
func (h *Hub) Type(ctx context.Context, loc browser.Locator, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch loc {
	case pages.UsernameBox, pages.PasswordBox:
		if _, err := h.interactable(ctx, loc, "type into"); err != nil {
			return err
		}
		if loc == pages.UsernameBox {
			h.username += text
		} else {
			h.password += text
		}
		return nil
	}

	field, err := h.textField(ctx, loc, "type into")
	if err != nil {
		return err
	}
	return h.form.Type(field, text)
}

func (h *Hub) Clear(ctx context.Context, loc browser.Locator) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	field, err := h.textField(ctx, loc, "clear")
	if err != nil {
		return err
	}
	return h.form.Clear(field)
}

func (h *Hub) Backspace(ctx context.Context, loc browser.Locator, n int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	field, err := h.textField(ctx, loc, "backspace in")
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := h.form.Backspace(field); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hub) Focus(ctx context.Context, loc browser.Locator) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.interactable(ctx, loc, "focus")
	return err
}

// Blur validates required fields, as the application does on focus loss
func (h *Hub) Blur(ctx context.Context, loc browser.Locator) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	el, err := h.interactable(ctx, loc, "blur")
	if err != nil {
		return err
	}
	if el.kind != kindField || el.field == oracle.Registration {
		return nil
	}
	return h.form.Blur(el.field)
}

func (h *Hub) Value(_ context.Context, loc browser.Locator) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	el := h.resolve(loc)
	if el.kind != kindField {
		return "", fmt.Errorf("read value of %s: no such input", loc)
	}
	return h.form.Value(el.field), nil
}

func (h *Hub) Checked(_ context.Context, loc browser.Locator) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if loc != pages.RegistrationCheckbox {
		return false, fmt.Errorf("read checked of %s: not a checkbox", loc)
	}
	return h.form.Registration(), nil
}

func (h *Hub) Enabled(_ context.Context, loc browser.Locator) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if loc == pages.SaveButton {
		return h.form.SubmitEnabled() || h.opts.SaveAlwaysEnabled, nil
	}
	if present, _ := h.visibility(loc); !present {
		return false, fmt.Errorf("read disabled of %s: not found", loc)
	}
	return true, nil
}

func (h *Hub) CSS(_ context.Context, loc browser.Locator, property string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	el := h.resolve(loc)
	switch {
	case el.kind == kindField && property == "border-color":
		if h.form.ShowsError(el.field) && !h.opts.NoErrorBorder {
			return oracle.ErrorColour, nil
		}
		return NeutralBorder, nil
	case property == "cursor":
		if loc == pages.CancelButton || loc == pages.SaveButton && h.form.SubmitEnabled() {
			return "pointer", nil
		}
		return "auto", nil
	}
	return "", fmt.Errorf("read css %s of %s: unsupported", property, loc)
}

func (h *Hub) Text(ctx context.Context, loc browser.Locator) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.interactable(ctx, loc, "read text of"); err != nil {
		return "", err
	}
	switch loc {
	case pages.StartDateBox:
		return "Start date " + h.form.StartDateText(), nil
	case pages.Dialog:
		c, err := h.form.Confirmation()
		if err != nil {
			return "", err
		}
		return strings.Join(append([]string{c.Title, c.Message}, c.Actions...), "\n"), nil
	}
	return loc.String(), nil
}
