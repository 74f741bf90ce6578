package oracle

// DesktopBreakpoint is the narrowest viewport width that gets the desktop
// layout. The boundary is inclusive.
const DesktopBreakpoint = 992

// Layout is the responsive variant the dashboard renders
type Layout int

const (
	Mobile Layout = iota
	Desktop
)

func (l Layout) String() string {
	if l == Desktop {
		return "desktop"
	}
	return "mobile"
}

// LayoutFor returns the variant for a viewport width
func LayoutFor(width int) Layout {
	if width >= DesktopBreakpoint {
		return Desktop
	}
	return Mobile
}

// NavVisible reports whether the Employees sidebar entry must be rendered
// visible. On mobile it must be absent or hidden (it lives in the kebab menu).
func (l Layout) NavVisible() bool {
	return l == Desktop
}

// NavState is what a page object observed for the Employees nav entry
type NavState struct {
	Present bool
	Visible bool
}

// Satisfies reports whether an observed nav state matches the layout contract
func (l Layout) Satisfies(s NavState) bool {
	if l.NavVisible() {
		return s.Present && s.Visible
	}
	return !s.Present || !s.Visible
}
