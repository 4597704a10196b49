package cmd

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/tidewave-cli/tidewave/color"
	"github.com/tidewave-cli/tidewave/icon"
	"github.com/tidewave-cli/tidewave/style"
)

// CheckDependencies warns about missing external tools. ffmpeg is needed for
// videos and the protected-content remux, mp4decrypt only for protected
// content; neither blocks plain downloads, so this never exits.
func CheckDependencies() {
	for _, dep := range []string{"ffmpeg", "mp4decrypt"} {
		if _, err := exec.LookPath(dep); err != nil {
			printMissingDependencyWarning(dep)
		}
	}
}

func printMissingDependencyWarning(dep string) {
	var installCmd string
	switch runtime.GOOS {
	case "darwin":
		installCmd = "brew install " + dep
	case "linux":
		installCmd = "sudo apt install " + dep
	case "windows":
		installCmd = "scoop install " + dep
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color.Yellow).
		Padding(0, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(color.Yellow).
		Render(fmt.Sprintf("%s Missing optional dependency", icon.Get(icon.Progress)))
	body := fmt.Sprintf("'%s' was not found in your PATH.\nSome content types will not be downloadable.", dep)

	suggestion := ""
	if installCmd != "" {
		suggestion = fmt.Sprintf("\nTo install it, try:\n  %s",
			style.New().Foreground(color.Cyan).Bold(true).Render(installCmd))
	}

	fmt.Println(box.Render(lipgloss.JoinVertical(lipgloss.Left, title, body, suggestion)))
}
