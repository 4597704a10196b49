package tag

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/tidewave-cli/tidewave/api"
)

func TestID3Writer(t *testing.T) {
	Convey("ID3Writer", t, func() {
		dir := t.TempDir()
		w := NewWriter()

		track := &api.Track{
			Title:        "Song",
			TrackNumber:  1,
			VolumeNumber: 1,
			ISRC:         "NOABC2400001",
			Artist:       api.Artist{Name: "Band"},
		}
		album := &api.Album{
			Title:           "Record",
			ReleaseDate:     "2024-03-01",
			NumberOfTracks:  10,
			NumberOfVolumes: 1,
			Artist:          api.Artist{Name: "Band"},
		}

		Convey("Writes frames into an MP3 container", func() {
			path := filepath.Join(dir, "01 - Song.mp3")
			So(os.WriteFile(path, nil, 0644), ShouldBeNil)

			So(w.Write(path, Metadata{Track: track, Album: album}), ShouldBeNil)

			file, err := id3v2.Open(path, id3v2.Options{Parse: true})
			So(err, ShouldBeNil)
			defer file.Close()
			So(file.Title(), ShouldEqual, "Song")
			So(file.Artist(), ShouldEqual, "Band")
			So(file.Album(), ShouldEqual, "Record")
			So(file.Year(), ShouldEqual, "2024")
		})

		Convey("Leaves non-MP3 containers byte-identical", func() {
			// An ID3 header would corrupt an MP4 box layout or a FLAC stream.
			for _, name := range []string{"01 - Song.m4a", "01 - Song.flac"} {
				path := filepath.Join(dir, name)
				So(os.WriteFile(path, []byte("AUDIO"), 0644), ShouldBeNil)

				So(w.Write(path, Metadata{Track: track, Album: album}), ShouldBeNil)

				data, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "AUDIO")
			}
		})
	})
}
