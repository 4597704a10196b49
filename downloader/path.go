package downloader

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidewave-cli/tidewave/api"
	"github.com/tidewave-cli/tidewave/util"
)

var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// renderTemplate substitutes {placeholder} tokens from fields. Unknown
// placeholders render empty so a template typo degrades instead of crashing.
func renderTemplate(tmpl string, fields map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[1 : len(match)-1]
		return fields[name]
	})
}

func albumFields(album *api.Album) map[string]string {
	year := ""
	if len(album.ReleaseDate) >= 4 {
		year = album.ReleaseDate[:4]
	}
	return map[string]string{
		"album":        album.Title,
		"album_artist": album.Artist.Name,
		"artist":       album.Artist.Name,
		"year":         year,
		"date":         album.ReleaseDate,
		"quality":      album.AudioQuality,
		"id":           fmt.Sprint(album.ID),
	}
}

func trackFields(track *api.Track, album *api.Album) map[string]string {
	title := track.Title
	if track.Version != "" {
		title = fmt.Sprintf("%s (%s)", track.Title, track.Version)
	}

	fields := map[string]string{
		"title":       title,
		"artist":      track.Artist.Name,
		"tracknumber": fmt.Sprintf("%02d", track.TrackNumber),
		"discnumber":  fmt.Sprint(track.VolumeNumber),
		"quality":     track.AudioQuality,
		"explicit":    "",
		"id":          fmt.Sprint(track.ID),
	}
	if track.Explicit {
		fields["explicit"] = "E"
	}
	if album != nil {
		fields["album"] = album.Title
		fields["album_artist"] = album.Artist.Name
	}
	return fields
}

// albumDir renders the album directory under the download root.
func (o *Orchestrator) albumDir(album *api.Album) string {
	name := util.SanitizeFilename(renderTemplate(o.opts.AlbumTemplate, albumFields(album)))
	return filepath.Join(o.opts.Path, name)
}

// trackDir returns the directory a track belongs in. Multi-volume releases get
// one CD subdirectory per volume.
func (o *Orchestrator) trackDir(track *api.Track, album *api.Album) string {
	dir := o.albumDir(album)
	if album.NumberOfVolumes > 1 {
		dir = filepath.Join(dir, fmt.Sprintf("CD%d", track.VolumeNumber))
	}
	return dir
}

// trackBase renders the track's file name without extension.
func (o *Orchestrator) trackBase(track *api.Track, album *api.Album) string {
	return util.SanitizeFilename(strings.TrimSpace(renderTemplate(o.opts.TrackTemplate, trackFields(track, album))))
}
