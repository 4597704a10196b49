// Package tag embeds metadata into downloaded files.
package tag

import (
	"fmt"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/samber/lo"

	"github.com/tidewave-cli/tidewave/api"
	"github.com/tidewave-cli/tidewave/filesystem"
	"github.com/tidewave-cli/tidewave/log"
)

// Metadata is the field set embedded into a finished download.
type Metadata struct {
	Track     *api.Track
	Album     *api.Album
	Credits   []api.Contributor
	CoverPath string
}

// Writer embeds metadata into the file at path. Implementations either tag the
// file completely or leave it untouched; a partially tagged file is a bug.
type Writer interface {
	Write(path string, meta Metadata) error
}

// ID3Writer tags files whose container accepts an ID3v2 header.
type ID3Writer struct{}

// NewWriter returns the default tag writer.
func NewWriter() Writer {
	return &ID3Writer{}
}

// Write embeds metadata into the file. Containers that do not carry ID3 frames
// are left untouched and reported as tagged; the download itself is complete.
func (w *ID3Writer) Write(path string, meta Metadata) error {
	// An ID3 header before the ftyp box would corrupt an MP4 container, and
	// FLAC carries Vorbis comments; only MP3 accepts these frames.
	if !strings.HasSuffix(path, ".mp3") {
		log.Debugf("skipping ID3 frames for %s: container does not carry them", path)
		return nil
	}

	file, err := id3v2.Open(path, id3v2.Options{Parse: false})
	if err != nil {
		return fmt.Errorf("open for tagging: %w", err)
	}
	defer file.Close()

	file.SetTitle(trackTitle(meta.Track))
	file.SetArtist(joinArtists(meta.Track.Artists, meta.Track.Artist))
	if meta.Album != nil {
		file.SetAlbum(meta.Album.Title)
		if len(meta.Album.ReleaseDate) >= 4 {
			file.SetYear(meta.Album.ReleaseDate[:4])
		}
		file.AddTextFrame(file.CommonID("Band/Orchestra/Accompaniment"), file.DefaultEncoding(),
			joinArtists(meta.Album.Artists, meta.Album.Artist))
		file.AddTextFrame(file.CommonID("Track number/Position in set"), file.DefaultEncoding(),
			fmt.Sprintf("%d/%d", meta.Track.TrackNumber, meta.Album.NumberOfTracks))
		file.AddTextFrame(file.CommonID("Part of a set"), file.DefaultEncoding(),
			fmt.Sprintf("%d/%d", meta.Track.VolumeNumber, meta.Album.NumberOfVolumes))
	}
	if meta.Track.Copyright != "" {
		file.AddTextFrame(file.CommonID("Copyright message"), file.DefaultEncoding(), meta.Track.Copyright)
	}
	if meta.Track.ISRC != "" {
		file.AddTextFrame(file.CommonID("ISRC"), file.DefaultEncoding(), meta.Track.ISRC)
	}

	for _, role := range []string{"Composer", "Lyricist"} {
		names := lo.FilterMap(meta.Credits, func(c api.Contributor, _ int) (string, bool) {
			return c.Name, c.Role == role
		})
		if len(names) > 0 {
			file.AddTextFrame(file.CommonID(role), file.DefaultEncoding(), strings.Join(names, ", "))
		}
	}

	if meta.CoverPath != "" {
		if art, err := filesystem.API().ReadFile(meta.CoverPath); err == nil {
			file.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    "image/jpeg",
				PictureType: id3v2.PTFrontCover,
				Picture:     art,
			})
		}
	}

	if err := file.Save(); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}
	return nil
}

func trackTitle(t *api.Track) string {
	if t.Version != "" {
		return fmt.Sprintf("%s (%s)", t.Title, t.Version)
	}
	return t.Title
}

func joinArtists(artists []api.Artist, fallback api.Artist) string {
	if len(artists) == 0 {
		return fallback.Name
	}
	return strings.Join(lo.Map(artists, func(a api.Artist, _ int) string {
		return a.Name
	}), ", ")
}
