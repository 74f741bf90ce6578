package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestLayoutFor_Boundary(t *testing.T) {
	assert.Equal(t, Mobile, LayoutFor(991))
	assert.Equal(t, Desktop, LayoutFor(992))
	assert.Equal(t, Desktop, LayoutFor(993))
	assert.Equal(t, Mobile, LayoutFor(320))
}

func TestLayoutFor_AllWidths(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := rapid.IntRange(1, 4000).Draw(t, "width")
		layout := LayoutFor(w)
		if (w >= DesktopBreakpoint) != layout.NavVisible() {
			t.Fatalf("width %d: nav visible = %v", w, layout.NavVisible())
		}
	})
}

func TestLayoutSatisfies(t *testing.T) {
	absent := NavState{}
	hidden := NavState{Present: true, Visible: false}
	shown := NavState{Present: true, Visible: true}

	assert.True(t, Mobile.Satisfies(absent), "absent from the DOM counts as hidden")
	assert.True(t, Mobile.Satisfies(hidden))
	assert.False(t, Mobile.Satisfies(shown))

	assert.False(t, Desktop.Satisfies(absent))
	assert.False(t, Desktop.Satisfies(hidden))
	assert.True(t, Desktop.Satisfies(shown))
}

func TestLayoutString(t *testing.T) {
	assert.Equal(t, "mobile", Mobile.String())
	assert.Equal(t, "desktop", Desktop.String())
}
