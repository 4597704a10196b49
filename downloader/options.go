// Package downloader drives the download lifecycle of requested media items,
// from resolution through manifest negotiation, transfer, tagging and cleanup.
package downloader

import (
	"github.com/spf13/viper"

	"github.com/tidewave-cli/tidewave/api"
	"github.com/tidewave-cli/tidewave/key"
)

// Options is the immutable per-run download configuration. Snapshotted once at
// orchestrator construction so a run never observes a config change midway.
type Options struct {
	Path          string
	AlbumTemplate string
	TrackTemplate string
	Overwrite     bool
	KeepCover     bool
	ArtworkSize   int
	Tries         int

	Quality      api.Quality
	SkipMismatch bool

	BruteForce bool
	Autoselect bool

	SkipVariants bool
	Dedupe360    bool
	SkipSingles  bool

	VideoMaxResolution int
}

// OptionsFromConfig snapshots the current configuration into Options.
func OptionsFromConfig() Options {
	return Options{
		Path:          viper.GetString(key.DownloadsPath),
		AlbumTemplate: viper.GetString(key.DownloadsAlbumTemplate),
		TrackTemplate: viper.GetString(key.DownloadsTrackTemplate),
		Overwrite:     viper.GetBool(key.DownloadsOverwrite),
		KeepCover:     viper.GetBool(key.DownloadsKeepCover),
		ArtworkSize:   viper.GetInt(key.DownloadsArtworkSize),
		Tries:         viper.GetInt(key.DownloadsTries),

		Quality:      api.Quality(viper.GetString(key.QualityPreferred)),
		SkipMismatch: viper.GetBool(key.QualitySkipMismatch),

		BruteForce: viper.GetBool(key.AccountsBruteForce),
		Autoselect: viper.GetBool(key.AccountsAutoselect),

		SkipVariants: viper.GetBool(key.FiltersSkipVariants),
		Dedupe360:    viper.GetBool(key.FiltersDedupe360),
		SkipSingles:  viper.GetBool(key.FiltersSkipSingles),

		VideoMaxResolution: viper.GetInt(key.VideoMaxResolution),
	}
}
