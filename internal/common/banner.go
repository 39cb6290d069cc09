package common

import (
	"fmt"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the startup banner with the version and run mode
func PrintBanner(mode string) {
	banner.PrintSimple("MenuScout", fmt.Sprintf("%s - %s", GetVersion(), mode))
}
