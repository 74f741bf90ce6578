package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hubcheck/internal/common"
	"github.com/ternarybob/hubcheck/internal/models"
)

// Browser is a single Chrome tab driven over the DevTools protocol. Every
// action is bounded: by the caller's deadline when one is set, otherwise by
// the configured action timeout.
type Browser struct {
	ctx             context.Context
	cancelTab       context.CancelFunc
	cancelAllocator context.CancelFunc

	baseURL       string
	cookieOrigins []string
	actionTimeout time.Duration
	logger        arbor.ILogger
}

// New starts Chrome with the configured allocator flags and opens one tab
// sized to the configured window.
func New(config *common.Config, logger arbor.ILogger) (*Browser, error) {
	startTime := time.Now()

	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Browser.Headless),
		chromedp.Flag("disable-gpu", config.Browser.DisableGPU),
		chromedp.Flag("no-sandbox", config.Browser.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(config.Browser.Width, config.Browser.Height),
	)
	if config.Browser.UserAgent != "" {
		allocatorOpts = append(allocatorOpts, chromedp.UserAgent(config.Browser.UserAgent))
	}

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocatorCtx)

	b := &Browser{
		ctx:             tabCtx,
		cancelTab:       tabCancel,
		cancelAllocator: allocatorCancel,
		baseURL:         strings.TrimRight(config.App.BaseURL, "/"),
		cookieOrigins:   []string{config.App.BaseURL, config.App.LoginOrigin},
		actionTimeout:   config.Browser.ActionTimeout,
		logger:          logger,
	}

	startupCtx, cancel := context.WithTimeout(tabCtx, 30*time.Second)
	defer cancel()
	if err := chromedp.Run(startupCtx,
		chromedp.Navigate("about:blank"),
		chromedp.EmulateViewport(int64(config.Browser.Width), int64(config.Browser.Height)),
		network.Enable(),
	); err != nil {
		b.Close()
		return nil, fmt.Errorf("browser failed startup: %w", err)
	}

	logger.Debug().
		Bool("headless", config.Browser.Headless).
		Int("width", config.Browser.Width).
		Int("height", config.Browser.Height).
		Dur("startup_time", time.Since(startTime)).
		Msg("Browser started")

	return b, nil
}

// Close shuts the tab and the Chrome process
func (b *Browser) Close() {
	if b.cancelTab != nil {
		b.cancelTab()
	}
	if b.cancelAllocator != nil {
		b.cancelAllocator()
	}
}

// run executes actions on the tab, bounded by ctx's deadline (or the action
// timeout) and cancelled together with ctx.
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	var runCtx context.Context
	var cancel context.CancelFunc
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(b.ctx, deadline)
	} else {
		runCtx, cancel = context.WithTimeout(b.ctx, b.actionTimeout)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// resolve turns an app-relative path into an absolute URL
func (b *Browser) resolve(path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return b.baseURL + path
}

// Navigate loads path, relative to the application base URL unless absolute
func (b *Browser) Navigate(ctx context.Context, path string) error {
	target := b.resolve(path)
	b.logger.Debug().Str("url", target).Msg("Navigating")
	if err := b.run(ctx, chromedp.Navigate(target)); err != nil {
		return fmt.Errorf("navigate to %s: %w", target, err)
	}
	return nil
}

// Location returns the current page URL
func (b *Browser) Location(ctx context.Context) (string, error) {
	var location string
	if err := b.run(ctx, chromedp.Location(&location)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return location, nil
}

// WaitURLContains polls the page URL until it contains fragment
func (b *Browser) WaitURLContains(ctx context.Context, fragment string) error {
	var matched bool
	expr := fmt.Sprintf(`window.location.href.includes(%s)`, jsString(fragment))
	if err := b.run(ctx, chromedp.Poll(expr, &matched, chromedp.WithPollingInterval(100*time.Millisecond))); err != nil {
		return fmt.Errorf("wait for url containing %q: %w", fragment, err)
	}
	return nil
}

// WaitVisible waits until the locator matches a visible element
func (b *Browser) WaitVisible(ctx context.Context, loc Locator) error {
	opts := append(loc.queryOptions(), chromedp.NodeVisible)
	if err := b.run(ctx, chromedp.WaitVisible(loc.Query(), opts...)); err != nil {
		return fmt.Errorf("wait for %s to be visible: %w", loc, err)
	}
	return nil
}

// Visibility reports, without waiting, whether the locator matches anything
// and whether any match is rendered.
func (b *Browser) Visibility(ctx context.Context, loc Locator) (present bool, visible bool, err error) {
	var res struct {
		Present bool `json:"present"`
		Visible bool `json:"visible"`
	}
	expr := fmt.Sprintf(`(() => {
		const els = %s;
		if (els.length === 0) return {present: false, visible: false};
		const visible = els.some(el => {
			const style = window.getComputedStyle(el);
			const rect = el.getBoundingClientRect();
			return style.display !== 'none' && style.visibility !== 'hidden' &&
				style.opacity !== '0' && rect.width > 0 && rect.height > 0;
		});
		return {present: true, visible};
	})()`, loc.jsElements())
	if err := b.run(ctx, chromedp.Evaluate(expr, &res)); err != nil {
		return false, false, fmt.Errorf("check visibility of %s: %w", loc, err)
	}
	return res.Present, res.Visible, nil
}

// Click clicks the first visible match
func (b *Browser) Click(ctx context.Context, loc Locator) error {
	opts := append(loc.queryOptions(), chromedp.NodeVisible)
	if err := b.run(ctx, chromedp.Click(loc.Query(), opts...)); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return nil
}

// Type appends text to the element's current value as keystrokes
func (b *Browser) Type(ctx context.Context, loc Locator, text string) error {
	opts := append(loc.queryOptions(), chromedp.NodeVisible)
	if err := b.run(ctx, chromedp.SendKeys(loc.Query(), text, opts...)); err != nil {
		return fmt.Errorf("type into %s: %w", loc, err)
	}
	return nil
}

// Clear empties an input with select-all and backspace so framework change
// handlers see the edit.
func (b *Browser) Clear(ctx context.Context, loc Locator) error {
	opts := append(loc.queryOptions(), chromedp.NodeVisible)
	var ok bool
	err := b.run(ctx,
		chromedp.Focus(loc.Query(), opts...),
		chromedp.Evaluate(fmt.Sprintf(`(() => { const el = %s[0]; el.select(); return true; })()`, loc.jsElements()), &ok),
		chromedp.KeyEvent(kb.Backspace),
	)
	if err != nil {
		return fmt.Errorf("clear %s: %w", loc, err)
	}
	return nil
}

// Backspace deletes n characters from the end of the element's value
func (b *Browser) Backspace(ctx context.Context, loc Locator, n int) error {
	opts := append(loc.queryOptions(), chromedp.NodeVisible)
	var ok bool
	actions := []chromedp.Action{
		chromedp.Focus(loc.Query(), opts...),
		chromedp.Evaluate(fmt.Sprintf(`(() => {
			const el = %s[0];
			el.setSelectionRange(el.value.length, el.value.length);
			return true;
		})()`, loc.jsElements()), &ok),
	}
	for i := 0; i < n; i++ {
		actions = append(actions, chromedp.KeyEvent(kb.Backspace))
	}
	if err := b.run(ctx, actions...); err != nil {
		return fmt.Errorf("backspace %d in %s: %w", n, loc, err)
	}
	return nil
}

// Focus focuses the element
func (b *Browser) Focus(ctx context.Context, loc Locator) error {
	opts := append(loc.queryOptions(), chromedp.NodeVisible)
	if err := b.run(ctx, chromedp.Focus(loc.Query(), opts...)); err != nil {
		return fmt.Errorf("focus %s: %w", loc, err)
	}
	return nil
}

// Blur removes focus from the element, firing blur and focusout
func (b *Browser) Blur(ctx context.Context, loc Locator) error {
	opts := append(loc.queryOptions(), chromedp.NodeVisible)
	if err := b.run(ctx, chromedp.Blur(loc.Query(), opts...)); err != nil {
		return fmt.Errorf("blur %s: %w", loc, err)
	}
	return nil
}

// Value reads the element's value property
func (b *Browser) Value(ctx context.Context, loc Locator) (string, error) {
	var value string
	if err := b.run(ctx, chromedp.Value(loc.Query(), &value, loc.queryOptions()...)); err != nil {
		return "", fmt.Errorf("read value of %s: %w", loc, err)
	}
	return value, nil
}

// Checked reads the element's checked property
func (b *Browser) Checked(ctx context.Context, loc Locator) (bool, error) {
	var checked bool
	if err := b.run(ctx, chromedp.JavascriptAttribute(loc.Query(), "checked", &checked, loc.queryOptions()...)); err != nil {
		return false, fmt.Errorf("read checked of %s: %w", loc, err)
	}
	return checked, nil
}

// Enabled reports whether the element's disabled property is false
func (b *Browser) Enabled(ctx context.Context, loc Locator) (bool, error) {
	var disabled bool
	if err := b.run(ctx, chromedp.JavascriptAttribute(loc.Query(), "disabled", &disabled, loc.queryOptions()...)); err != nil {
		return false, fmt.Errorf("read disabled of %s: %w", loc, err)
	}
	return !disabled, nil
}

// CSS reads a computed style property. Shorthands such as border-color are
// resolved by the page, which the protocol's computed style list does not do.
func (b *Browser) CSS(ctx context.Context, loc Locator, property string) (string, error) {
	var value string
	expr := fmt.Sprintf(`(() => {
		const el = %s[0];
		if (!el) throw new Error("no element");
		return window.getComputedStyle(el).getPropertyValue(%s);
	})()`, loc.jsElements(), jsString(property))
	if err := b.run(ctx,
		chromedp.WaitReady(loc.Query(), loc.queryOptions()...),
		chromedp.Evaluate(expr, &value),
	); err != nil {
		return "", fmt.Errorf("read css %s of %s: %w", property, loc, err)
	}
	return strings.TrimSpace(value), nil
}

// Text returns the rendered text of the first visible match
func (b *Browser) Text(ctx context.Context, loc Locator) (string, error) {
	var text string
	opts := append(loc.queryOptions(), chromedp.NodeVisible)
	if err := b.run(ctx, chromedp.Text(loc.Query(), &text, opts...)); err != nil {
		return "", fmt.Errorf("read text of %s: %w", loc, err)
	}
	return strings.TrimSpace(text), nil
}

// SetViewport resizes the layout viewport so media queries re-evaluate
func (b *Browser) SetViewport(ctx context.Context, width, height int) error {
	if err := b.run(ctx, chromedp.EmulateViewport(int64(width), int64(height))); err != nil {
		return fmt.Errorf("set viewport %dx%d: %w", width, height, err)
	}
	return nil
}

// HTML returns the document's outer HTML
func (b *Browser) HTML(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

// Screenshot captures the current viewport as PNG
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := b.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

// Cookies returns the browser's cookies for the application and login origins
func (b *Browser) Cookies(ctx context.Context) ([]models.Cookie, error) {
	var cookies []*network.Cookie
	err := b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().WithURLs(b.cookieOrigins).Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}

	out := make([]models.Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, models.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: c.SameSite.String(),
		})
	}
	return out, nil
}

// SetCookies injects cookies into the browser. Expired cookies are skipped.
func (b *Browser) SetCookies(ctx context.Context, cookies []models.Cookie) error {
	now := time.Now()
	injected := 0
	err := b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			var expires *cdp.TimeSinceEpoch
			if c.Expires > 0 {
				expiresTime := time.Unix(int64(c.Expires), 0)
				if !expiresTime.After(now) {
					continue
				}
				ts := cdp.TimeSinceEpoch(expiresTime)
				expires = &ts
			}

			params := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithSecure(c.Secure).
				WithHTTPOnly(c.HTTPOnly).
				WithExpires(expires)
			switch strings.ToLower(c.SameSite) {
			case "strict":
				params = params.WithSameSite(network.CookieSameSiteStrict)
			case "lax":
				params = params.WithSameSite(network.CookieSameSiteLax)
			case "none":
				params = params.WithSameSite(network.CookieSameSiteNone)
			}
			if err := params.Do(ctx); err != nil {
				return fmt.Errorf("cookie %s: %w", c.Name, err)
			}
			injected++
		}
		return nil
	}))
	if err != nil {
		return fmt.Errorf("inject cookies: %w", err)
	}

	b.logger.Debug().Int("cookies_injected", injected).Msg("Cookies injected into browser")
	return nil
}

