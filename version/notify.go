// Package version provides unified mechanisms for application version tracking and update discovery.
package version

import (
	"fmt"

	"github.com/spf13/viper"
	"github.com/tidewave-cli/tidewave/color"
	"github.com/tidewave-cli/tidewave/constant"
	"github.com/tidewave-cli/tidewave/icon"
	"github.com/tidewave-cli/tidewave/key"
	"github.com/tidewave-cli/tidewave/style"
	"github.com/tidewave-cli/tidewave/util"
)

// Notify displays a terminal alert if a more recent stable application version is available.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if new version is available...", icon.Get(icon.Progress)))
	version, err := Latest()
	erase()
	if err == nil {
		comp, err := Compare(version, constant.Version)
		if err == nil && comp <= 0 {
			return
		}
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(version),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/tidewave-cli/tidewave/releases/tag/v"+version),
	)
}
