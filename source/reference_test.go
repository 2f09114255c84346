package source

import (
	"encoding/json"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMediaReference(t *testing.T) {
	Convey("MediaReference", t, func() {
		Convey("Movies validate without season or episode", func() {
			So(NewMovie(603).Validate(), ShouldBeNil)
		})

		Convey("Series require season and episode", func() {
			ref := NewMovie(1399)
			ref.Type = Series
			So(errors.Is(ref.Validate(), ErrInvalidReference), ShouldBeTrue)
			So(NewEpisode(1399, 1, 2).Validate(), ShouldBeNil)
		})

		Convey("Non-positive ids are rejected", func() {
			So(errors.Is(NewMovie(0).Validate(), ErrInvalidReference), ShouldBeTrue)
		})

		Convey("CacheKey follows mediaType:externalId:season:episode", func() {
			So(NewMovie(603).CacheKey(), ShouldEqual, "movie:603::")
			So(NewEpisode(1399, 3, 9).CacheKey(), ShouldEqual, "series:1399:3:9")
		})

		Convey("Optional fields serialize as null when absent", func() {
			data, err := json.Marshal(NewMovie(7))
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"season":null`)
		})

		Convey("ParseMediaType accepts aliases", func() {
			typ, err := ParseMediaType("tv")
			So(err, ShouldBeNil)
			So(typ, ShouldEqual, Series)
			_, err = ParseMediaType("podcast")
			So(err, ShouldNotBeNil)
		})
	})
}
