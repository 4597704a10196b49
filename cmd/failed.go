package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/tidewave-cli/tidewave/color"
	"github.com/tidewave-cli/tidewave/downloader"
	"github.com/tidewave-cli/tidewave/icon"
	"github.com/tidewave-cli/tidewave/style"
)

func init() {
	rootCmd.AddCommand(failedCmd)
	failedCmd.Flags().Bool("clear", false, "Empty the failed-downloads registry")
	failedCmd.SetOut(os.Stdout)
}

// failedCmd lists downloads that previously failed, kept for manual retry.
var failedCmd = &cobra.Command{
	Use:   "failed",
	Short: "List downloads that failed in previous runs",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("clear")) {
			handleErr(downloader.ClearFailures())
			fmt.Printf("%s cleared the failed-downloads registry\n", style.Fg(color.Green)(icon.Get(icon.Success)))
			return
		}

		failures := downloader.Failures()
		if len(failures) == 0 {
			cmd.Println("no failed downloads recorded")
			return
		}

		keys := lo.Keys(failures)
		sort.Strings(keys)

		for _, key := range keys {
			f := failures[key]
			cmd.Printf("%s %s\n  %s\n  %s\n",
				icon.Get(icon.Fail),
				style.Bold(f.Item),
				f.Reason,
				style.Faint(f.At.Format("2006-01-02 15:04:05")),
			)
		}
	},
}
