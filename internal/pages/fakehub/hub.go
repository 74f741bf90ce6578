// Package fakehub is an in-memory stand-in for the employee hub application.
// It implements pages.Driver and the session cookie jar so page objects and
// scenarios can be exercised without Chrome. The hub's own add-employee
// behaviour is an oracle.Form; options inject the faults a real regression
// would show.
package fakehub

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/ternarybob/hubcheck/internal/browser"
	"github.com/ternarybob/hubcheck/internal/models"
	"github.com/ternarybob/hubcheck/internal/oracle"
	"github.com/ternarybob/hubcheck/internal/pages"
)

// Origins the hub answers on
const (
	AppOrigin   = "https://app.fakehub.test"
	LoginOrigin = "https://login.fakehub.test"
)

// SessionCookie is the cookie a successful login sets on the app origin
const SessionCookie = "hub_session"

// NeutralBorder is the border colour of a field not in error
const NeutralBorder = "rgb(204, 204, 204)"

// NavMode is how the mobile layout treats the Employees link
type NavMode int

const (
	NavHidden NavMode = iota // rendered with display:none
	NavAbsent                // not rendered at all
)

// Options configure the simulated application
type Options struct {
	Email    string
	Password string

	MobileNav NavMode

	// Faults
	NavAlwaysVisible  bool // Employees link visible on mobile too
	SaveAlwaysEnabled bool // Save enabled regardless of validity
	NoErrorBorder     bool // invalid fields keep the neutral border
	DropSaved         bool // saved employees never reach the listing
	ProductName       string
}

// Hub is the simulated application plus the browser tab looking at it
type Hub struct {
	mu sync.Mutex

	opts     Options
	origin   string
	path     string
	width    int
	height   int
	token    string
	cookies  []models.Cookie
	username string
	password string

	form       *oracle.Form
	pickerOpen bool
	listing    []string

	logins int
	clicks []string
}

var (
	_ pages.Driver = (*Hub)(nil)
)

// New returns a hub showing a blank page at a desktop viewport
func New(opts Options) *Hub {
	form := oracle.NewForm().WithProductName(opts.ProductName)
	return &Hub{
		opts:   opts,
		origin: "about:",
		path:   "blank",
		width:  1280,
		height: 800,
		token:  "token-" + strings.ToLower(strings.ReplaceAll(opts.Email, "@", ".")),
		form:   form,
	}
}

// Seed adds existing employees to the listing
func (h *Hub) Seed(fullNames ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listing = append(h.listing, fullNames...)
}

// Logins counts successful submissions of the login form
func (h *Hub) Logins() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.logins
}

// Clicks returns every clicked locator name, in order
func (h *Hub) Clicks() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.clicks))
	copy(out, h.clicks)
	return out
}

// Listing returns the names the employee hub currently lists
func (h *Hub) Listing() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.listingLocked()
}

func (h *Hub) listingLocked() []string {
	return append([]string(nil), h.listing...)
}

func (h *Hub) authenticated() bool {
	for _, c := range h.cookies {
		if c.Name == SessionCookie && c.Value == h.token {
			return true
		}
	}
	return false
}

func (h *Hub) location() string {
	if h.origin == "about:" {
		return "about:blank"
	}
	return h.origin + h.path
}

// Navigate loads an app path. Protected pages bounce to the login form.
func (h *Hub) Navigate(_ context.Context, path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if strings.HasPrefix(path, "http") {
		for _, origin := range []string{AppOrigin, LoginOrigin} {
			if strings.HasPrefix(path, origin) {
				h.origin, h.path = origin, strings.TrimPrefix(path, origin)
				return nil
			}
		}
		return fmt.Errorf("navigate to %s: unknown host", path)
	}

	switch path {
	case pages.LitePath:
		h.origin, h.path = AppOrigin, path
	case pages.DashboardPath, pages.EmployeeHubPath:
		if !h.authenticated() {
			h.origin, h.path = LoginOrigin, pages.LoginPath
			return nil
		}
		h.origin, h.path = AppOrigin, path
	default:
		return fmt.Errorf("navigate to %s: not found", path)
	}
	h.resetTransient()
	return nil
}

func (h *Hub) resetTransient() {
	h.pickerOpen = false
	if h.form.State() != oracle.Closed {
		h.form = oracle.NewForm().WithProductName(h.opts.ProductName)
	}
}

func (h *Hub) Location(_ context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.location(), nil
}

func (h *Hub) WaitURLContains(ctx context.Context, fragment string) error {
	h.mu.Lock()
	location := h.location()
	h.mu.Unlock()
	if strings.Contains(location, fragment) {
		return nil
	}
	<-ctx.Done()
	return fmt.Errorf("wait for url containing %q (at %s): %w", fragment, location, ctx.Err())
}

func (h *Hub) WaitVisible(ctx context.Context, loc browser.Locator) error {
	h.mu.Lock()
	_, visible := h.visibility(loc)
	h.mu.Unlock()
	if visible {
		return nil
	}
	<-ctx.Done()
	return fmt.Errorf("wait for %s to be visible: %w", loc, ctx.Err())
}

func (h *Hub) Visibility(_ context.Context, loc browser.Locator) (bool, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	present, visible := h.visibility(loc)
	return present, visible, nil
}

func (h *Hub) Screenshot(_ context.Context) ([]byte, error) {
	return []byte("\x89PNG\r\n\x1a\n"), nil
}

func (h *Hub) SetViewport(_ context.Context, width, height int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.width, h.height = width, height
	return nil
}

// Cookies returns the cookies set by the hub or injected by the caller
func (h *Hub) Cookies(_ context.Context) ([]models.Cookie, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.Cookie(nil), h.cookies...), nil
}

// SetCookies injects cookies, replacing any with the same name
func (h *Hub) SetCookies(_ context.Context, cookies []models.Cookie) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range cookies {
		h.setCookie(c)
	}
	return nil
}

func (h *Hub) setCookie(c models.Cookie) {
	for i := range h.cookies {
		if h.cookies[i].Name == c.Name {
			h.cookies[i] = c
			return
		}
	}
	h.cookies = append(h.cookies, c)
}

// HTML renders enough of the current page for DOM snapshot queries
func (h *Hub) HTML(_ context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var b strings.Builder
	b.WriteString("<html><head><title>Fake hub</title></head><body>")
	if h.origin == AppOrigin && h.path != pages.LitePath {
		b.WriteString("<nav>")
		present, visible := h.navState()
		if present {
			style := ""
			if !visible {
				style = ` style="display:none"`
			}
			fmt.Fprintf(&b, `<a href="%s"%s>Employees</a>`, pages.EmployeeHubPath, style)
		}
		b.WriteString("</nav>")
	}
	if h.onPage(pages.EmployeeHubPath) {
		b.WriteString(`<button>Add employee</button><ul class="employees">`)
		for _, name := range h.listingLocked() {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(name))
		}
		b.WriteString("</ul>")
	}
	b.WriteString("</body></html>")
	return b.String(), nil
}

func (h *Hub) onPage(path string) bool {
	return h.origin == AppOrigin && h.path == path
}

func (h *Hub) navState() (present, visible bool) {
	if oracle.LayoutFor(h.width).NavVisible() || h.opts.NavAlwaysVisible {
		return true, true
	}
	if h.opts.MobileNav == NavAbsent {
		return false, false
	}
	return true, false
}
