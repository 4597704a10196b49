package downloader

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseItem(t *testing.T) {
	Convey("ParseItem", t, func() {
		Convey("Understands browse share URLs", func() {
			item, err := ParseItem("https://tidal.com/browse/album/131613238")
			So(err, ShouldBeNil)
			So(item.Kind, ShouldEqual, KindAlbum)
			So(item.ID, ShouldEqual, "131613238")
			So(item.CountryHint.IsAbsent(), ShouldBeTrue)
		})

		Convey("Understands listen URLs with playlist UUIDs", func() {
			item, err := ParseItem("https://listen.tidal.com/playlist/550e8400-e29b-41d4-a716-446655440000")
			So(err, ShouldBeNil)
			So(item.Kind, ShouldEqual, KindPlaylist)
			So(item.ID, ShouldEqual, "550e8400-e29b-41d4-a716-446655440000")
		})

		Convey("Understands the compact kind:id form", func() {
			item, err := ParseItem("track:77692131")
			So(err, ShouldBeNil)
			So(item.Kind, ShouldEqual, KindTrack)
			So(item.ID, ShouldEqual, "77692131")

			id, err := item.NumericID()
			So(err, ShouldBeNil)
			So(id, ShouldEqual, 77692131)
		})

		Convey("Extracts a region hint from the countryCode parameter", func() {
			item, err := ParseItem("https://tidal.com/browse/track/1?countryCode=de")
			So(err, ShouldBeNil)
			So(item.CountryHint.MustGet(), ShouldEqual, "DE")
		})

		Convey("Extracts a region hint from a CC: prefix", func() {
			item, err := ParseItem("NO:https://tidal.com/browse/artist/42")
			So(err, ShouldBeNil)
			So(item.Kind, ShouldEqual, KindArtist)
			So(item.CountryHint.MustGet(), ShouldEqual, "NO")
		})

		Convey("Rejects inputs without a downloadable item", func() {
			for _, input := range []string{"", "not a url", "https://tidal.com/browse/", "https://example.com/genre/pop"} {
				_, err := ParseItem(input)
				So(err, ShouldNotBeNil)
			}
		})
	})
}

func TestParseItems(t *testing.T) {
	Convey("ParseItems", t, func() {
		Convey("Parses the whole batch", func() {
			items, err := ParseItems([]string{"track:1", "album:2"})
			So(err, ShouldBeNil)
			So(items, ShouldHaveLength, 2)
		})
		Convey("Fails on the first malformed input before downloading anything", func() {
			_, err := ParseItems([]string{"track:1", "???"})
			So(err, ShouldNotBeNil)
		})
	})
}
