// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Download Targets - these keys control where and how downloaded media is written.
const (
	DownloadsPath          = "downloads.path"
	DownloadsAlbumTemplate = "downloads.album_template"
	DownloadsTrackTemplate = "downloads.track_template"
	DownloadsOverwrite     = "downloads.overwrite"
	DownloadsKeepCover     = "downloads.keep_cover"
	DownloadsArtworkSize   = "downloads.artwork_size"
	DownloadsTries         = "downloads.tries"
)

// Quality Selection - these keys govern stream quality negotiation.
const (
	QualityPreferred    = "quality.preferred"
	QualitySkipMismatch = "quality.skip_mismatch"
)

// Account Selection - these keys drive the session fallback policy.
const (
	AccountsBruteForce = "accounts.brute_force"
	AccountsAutoselect = "accounts.autoselect"
)

// Artist Resolution Filters - these keys prune an artist's discography before download.
const (
	FiltersSkipVariants = "filters.skip_variants"
	FiltersDedupe360    = "filters.dedupe_360"
	FiltersSkipSingles  = "filters.skip_singles_when_possible"
)

// Video Handling.
const (
	VideoMaxResolution = "video.max_resolution"
)

// Network Behavior.
const (
	NetworkTLSSpoof = "network.tls_spoof"
)

// Diagnostics - these keys configure the persistent logging subsystem.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Presentation.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
	IconsVariant    = "icons.variant"
)
