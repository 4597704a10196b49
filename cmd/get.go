package cmd

import (
	"os"
	"os/signal"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tidewave-cli/tidewave/downloader"
	"github.com/tidewave-cli/tidewave/key"
	"github.com/tidewave-cli/tidewave/media"
	"github.com/tidewave-cli/tidewave/session"
	"github.com/tidewave-cli/tidewave/tag"
	"github.com/tidewave-cli/tidewave/where"
)

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringP("quality", "q", "", "Preferred stream quality (LOW, HIGH, LOSSLESS, HI_RES)")
	getCmd.Flags().StringP("output", "o", "", "Download root directory")
	getCmd.Flags().Bool("overwrite", false, "Redownload files that already exist")
	getCmd.Flags().Bool("brute-force", false, "Probe every stored account until one can serve the item")

	lo.Must0(viper.BindPFlag(key.QualityPreferred, getCmd.Flags().Lookup("quality")))
	lo.Must0(viper.BindPFlag(key.DownloadsPath, getCmd.Flags().Lookup("output")))
	lo.Must0(viper.BindPFlag(key.DownloadsOverwrite, getCmd.Flags().Lookup("overwrite")))
	lo.Must0(viper.BindPFlag(key.AccountsBruteForce, getCmd.Flags().Lookup("brute-force")))
}

// getCmd downloads tracks, albums, playlists, artists and videos by URL or id.
var getCmd = &cobra.Command{
	Use:     "get <url|kind:id>...",
	Short:   "Download media items from the streaming service",
	Example: "  tidewave get https://tidal.com/browse/album/131613238\n  tidewave get track:77692131 -q HI_RES",
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		CheckDependencies()

		store, err := session.Load(where.Sessions())
		handleErr(err)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		orchestrator := downloader.New(
			store,
			downloader.OptionsFromConfig(),
			tag.NewWriter(),
			media.NewFetcher(),
		)
		handleErr(orchestrator.Run(ctx, args))
	},
}
