// Package open provides a cross-platform abstraction for launching URLs with the system's default handler.
package open

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/tidewave-cli/tidewave/constant"
)

// Start opens the specified URL using the default system handler asynchronously.
func Start(input string) error {
	cmd, ok := command(input)
	if !ok {
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
	return cmd.Start()
}

func command(input string) (*exec.Cmd, bool) {
	switch runtime.GOOS {
	case constant.Linux:
		return exec.Command("xdg-open", input), true
	case constant.Darwin:
		return exec.Command("open", input), true
	case constant.Windows:
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", input), true
	default:
		return nil, false
	}
}
