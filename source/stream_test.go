package source

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestExtractedStream(t *testing.T) {
	Convey("ExtractedStream", t, func() {
		Convey("Valid requires an absolute http(s) URL", func() {
			So((&ExtractedStream{URL: "https://cdn.test/a.m3u8"}).Valid(), ShouldBeTrue)
			So((&ExtractedStream{URL: ""}).Valid(), ShouldBeFalse)
			So((&ExtractedStream{URL: "/relative.m3u8"}).Valid(), ShouldBeFalse)
			So((&ExtractedStream{URL: "blob:https://x.test/1"}).Valid(), ShouldBeFalse)
		})

		Convey("String prefers a concrete quality", func() {
			s := &ExtractedStream{URL: "https://cdn.test/a.mp4", Quality: "720p"}
			So(s.String(), ShouldEqual, "720p")
			s.Quality = QualityAuto
			So(s.String(), ShouldEqual, "https://cdn.test/a.mp4")
		})
	})

	Convey("StreamTypeFromURL", t, func() {
		So(StreamTypeFromURL("https://cdn.test/master.m3u8?t=1"), ShouldEqual, HLS)
		So(StreamTypeFromURL("https://cdn.test/video.mp4?expiry=2"), ShouldEqual, MP4)
		So(StreamTypeFromURL("https://cdn.test/manifest.mpd"), ShouldEqual, DASH)
		So(StreamTypeFromURL("https://cdn.test/get_video?id=1&type=.mp4"), ShouldEqual, MP4)
	})

	Convey("QualityFromURL", t, func() {
		So(QualityFromURL("https://cdn.test/hls/1080p/index.m3u8"), ShouldEqual, "1080p")
		So(QualityFromURL("https://cdn.test/v_720.mp4"), ShouldEqual, "720p")
		So(QualityFromURL("https://cdn.test/a/b/master.m3u8"), ShouldEqual, QualityAuto)
		So(QualityFromURL("https://cdn.test/id/110800/master.m3u8"), ShouldEqual, QualityAuto)
	})
}
