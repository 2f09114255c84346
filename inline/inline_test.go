package inline

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/streamscout/streamscout/engine"
	"github.com/streamscout/streamscout/source"
)

type fakeResolver struct {
	calls  int
	report *engine.Report
}

func (r *fakeResolver) ResolveAll(_ context.Context, ref source.MediaReference) *engine.Report {
	r.calls++
	r.report.Reference = ref
	return r.report
}

type memoryCache map[string][]source.ExtractedStream

func (c memoryCache) Get(ref source.MediaReference) mo.Option[[]source.ExtractedStream] {
	if s, ok := c[ref.CacheKey()]; ok {
		return mo.Some(s)
	}
	return mo.None[[]source.ExtractedStream]()
}

func (c memoryCache) Set(ref source.MediaReference, streams []source.ExtractedStream) error {
	c[ref.CacheKey()] = streams
	return nil
}

func newResolver() *fakeResolver {
	return &fakeResolver{report: &engine.Report{
		Streams: []source.ExtractedStream{
			{Provider: "a", URL: "https://a.test/vf.m3u8", Type: source.HLS, Language: source.VF},
			{Provider: "b", URL: "https://b.test/multi.mp4", Type: source.MP4, Language: source.Multi},
		},
		Results: []*source.ExtractionResult{
			{Provider: "a"},
			{Provider: "c", Error: "connection refused"},
		},
	}}
}

func TestRun(t *testing.T) {
	Convey("Given a resolver with two streams", t, func() {
		resolver := newResolver()
		var buf bytes.Buffer
		opts := &Options{Out: &buf, Resolver: resolver, Reference: source.NewMovie(603)}

		Convey("When printing plain output", func() {
			So(Run(context.Background(), opts), ShouldBeNil)

			Convey("Then one URL is printed per line in rank order", func() {
				So(strings.Split(strings.TrimSpace(buf.String()), "\n"), ShouldResemble, []string{
					"https://a.test/vf.m3u8",
					"https://b.test/multi.mp4",
				})
			})
		})

		Convey("When printing JSON with a type filter", func() {
			filter, err := ParseTypeFilter("MP4")
			So(err, ShouldBeNil)
			opts.Json = true
			opts.TypeFilter = mo.Some(filter)

			So(Run(context.Background(), opts), ShouldBeNil)

			var output Output
			So(json.Unmarshal(buf.Bytes(), &output), ShouldBeNil)

			Convey("Then only matching streams are written with every result", func() {
				So(output.Cached, ShouldBeFalse)
				So(output.Streams, ShouldHaveLength, 1)
				So(output.Streams[0].Provider, ShouldEqual, "b")
				So(output.Results, ShouldHaveLength, 2)
				So(output.Reference.ExternalID, ShouldEqual, 603)
			})
		})

		Convey("When a cache is configured", func() {
			c := memoryCache{}
			opts.Cache = mo.Some[Cache](c)
			opts.Json = true

			So(Run(context.Background(), opts), ShouldBeNil)
			buf.Reset()
			So(Run(context.Background(), opts), ShouldBeNil)

			var output Output
			So(json.Unmarshal(buf.Bytes(), &output), ShouldBeNil)

			Convey("Then the second run is served from it", func() {
				So(resolver.calls, ShouldEqual, 1)
				So(output.Cached, ShouldBeTrue)
				So(output.Streams, ShouldHaveLength, 2)
			})
		})

		Convey("When the reference is invalid", func() {
			opts.Reference = source.NewMovie(0)

			Convey("Then nothing is resolved", func() {
				So(Run(context.Background(), opts), ShouldNotBeNil)
				So(resolver.calls, ShouldEqual, 0)
			})
		})
	})

	Convey("Given an empty result", t, func() {
		var buf bytes.Buffer
		resolver := &fakeResolver{report: &engine.Report{}}
		err := Run(context.Background(), &Options{Out: &buf, Resolver: resolver, Reference: source.NewMovie(1), Json: true})

		Convey("Then the JSON still holds an empty stream list", func() {
			So(err, ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, `"streams": []`)
		})
	})
}

func TestParseFilters(t *testing.T) {
	Convey("ParseLanguageFilter", t, func() {
		f, err := ParseLanguageFilter("vostfr")
		So(err, ShouldBeNil)
		out := f([]source.ExtractedStream{{URL: "x", Language: source.VOSTFR}, {URL: "y", Language: source.VF}})
		So(out, ShouldHaveLength, 1)
		So(out[0].URL, ShouldEqual, "x")

		_, err = ParseLanguageFilter("klingon")
		So(err, ShouldNotBeNil)
	})

	Convey("ParseTypeFilter rejects unknown types", t, func() {
		_, err := ParseTypeFilter("flv")
		So(err, ShouldNotBeNil)
	})
}
