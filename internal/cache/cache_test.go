package cache

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/streamscout/streamscout/filesystem"
	"github.com/streamscout/streamscout/source"
)

func TestStore(t *testing.T) {
	Convey("Given an in-memory store", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()

		now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		store := New("/cache/results.json", time.Minute)
		store.now = func() time.Time { return now }

		ref := source.NewEpisode(1399, 1, 2)
		streams := []source.ExtractedStream{{URL: "https://cdn.test/a.m3u8", Type: source.HLS, Provider: "p"}}

		Convey("When nothing was stored", func() {
			Convey("Then the lookup misses", func() {
				So(store.Get(ref).IsPresent(), ShouldBeFalse)
			})
		})

		Convey("When streams are stored", func() {
			So(store.Set(ref, streams), ShouldBeNil)

			Convey("Then they are returned before the deadline", func() {
				cached, ok := store.Get(ref).Get()
				So(ok, ShouldBeTrue)
				So(cached, ShouldHaveLength, 1)
				So(cached[0].URL, ShouldEqual, "https://cdn.test/a.m3u8")
			})

			Convey("Then another episode misses", func() {
				So(store.Get(source.NewEpisode(1399, 1, 3)).IsPresent(), ShouldBeFalse)
			})

			Convey("Then they expire after the ttl", func() {
				now = now.Add(time.Minute)
				So(store.Get(ref).IsPresent(), ShouldBeFalse)
			})

			Convey("Then clearing drops them", func() {
				So(store.Clear(), ShouldBeNil)
				So(store.Get(ref).IsPresent(), ShouldBeFalse)
			})
		})

		Convey("When an empty list is stored", func() {
			So(store.Set(ref, nil), ShouldBeNil)

			Convey("Then nothing is cached", func() {
				So(store.Get(ref).IsPresent(), ShouldBeFalse)
			})
		})
	})
}
