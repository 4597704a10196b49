package version

import (
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCompare(t *testing.T) {
	Convey("Compare", t, func() {
		Convey("Orders semantic versions", func() {
			So(lo.Must(Compare("1.2.3", "1.2.3")), ShouldEqual, 0)
			So(lo.Must(Compare("2.0.0", "1.9.9")), ShouldEqual, 1)
			So(lo.Must(Compare("1.2.3", "1.3.0")), ShouldEqual, -1)
		})

		Convey("Tolerates a v prefix", func() {
			So(lo.Must(Compare("v1.0.1", "1.0.0")), ShouldEqual, 1)
		})

		Convey("Rejects garbage", func() {
			_, err := Compare("not-a-version", "1.0.0")
			So(err, ShouldNotBeNil)
		})
	})
}
