// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

// Default path templates for downloaded media. Placeholders are substituted
// with sanitized track/album fields before the path is created.
const (
	// DefaultAlbumTemplate names the directory a downloaded album lands in.
	DefaultAlbumTemplate = "{album_artist} - {album}"

	// DefaultTrackTemplate names a single downloaded track file, without extension.
	DefaultTrackTemplate = "{tracknumber} - {title}"

	// DiscDirFormat names the per-disc subdirectory of a multi-volume album.
	DiscDirFormat = "CD%d"
)
