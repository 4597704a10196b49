package config

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"

	"github.com/tidewave-cli/tidewave/filesystem"
	"github.com/tidewave-cli/tidewave/key"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			err := Setup()
			So(err, ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
		})

		Convey("Quality defaults to lossless with skip-on-mismatch", func() {
			_ = Setup()
			So(viper.GetString(key.QualityPreferred), ShouldEqual, "LOSSLESS")
			So(viper.GetBool(key.QualitySkipMismatch), ShouldBeTrue)
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			So(EnvKeyReplacer.Replace("downloads.album_template"), ShouldEqual, "downloads_album_template")
		})

		Convey("Fields expose their environment variable name", func() {
			f := Default[key.DownloadsPath]
			So(f.Env(), ShouldEqual, "TIDEWAVE_DOWNLOADS_PATH")
		})
	})
}
