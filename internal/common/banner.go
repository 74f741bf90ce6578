package common

import (
	"fmt"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the runner banner with the target being checked.
// Credentials are only reported as set or not set.
func PrintBanner(config *Config) {
	mode := "headed"
	if config.Browser.Headless {
		mode = "headless"
	}
	credentials := "not set"
	if config.Credentials.IsSet() {
		credentials = "set"
	}

	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorCyan).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(72)

	b.PrintTopLine()
	b.PrintCenteredText("HUBCHECK")
	b.PrintCenteredText("Employee hub checks")
	b.PrintSeparatorLine()
	b.PrintKeyValue("Version", GetVersion(), 13)
	b.PrintKeyValue("Target", config.App.BaseURL, 13)
	b.PrintKeyValue("Login", config.App.LoginOrigin, 13)
	b.PrintKeyValue("Browser", fmt.Sprintf("%s %dx%d", mode, config.Browser.Width, config.Browser.Height), 13)
	b.PrintKeyValue("Credentials", credentials, 13)
	b.PrintBottomLine()
	fmt.Println()
}
