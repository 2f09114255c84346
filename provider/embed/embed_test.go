package embed

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/streamscout/streamscout/network"
	"github.com/streamscout/streamscout/source"
)

func TestExtract(t *testing.T) {
	Convey("Given an embed site whose player lives on another host", t, func() {
		var playerReferer string

		player := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			playerReferer = r.Referer()
			_, _ = w.Write([]byte(`<script>jwplayer().setup({sources: [{file:"https://cdn.test/603/1080/index.m3u8"}]});</script>`))
		}))
		defer player.Close()

		mux := http.NewServeMux()
		mux.HandleFunc("/embed/movie/603", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html><body><iframe width="100%" src="` + player.URL + `/player/603"></iframe></body></html>`))
		})
		mux.HandleFunc("/embed/tv/1399/1/2", func(w http.ResponseWriter, r *http.Request) {
			encoded := base64.StdEncoding.EncodeToString([]byte("https://cdn.test/1399/master.m3u8"))
			_, _ = w.Write([]byte(`<script>var f = "https://cdn.test/1399/720.mp4"; load(atob('` + encoded + `'));</script>`))
		})
		mux.HandleFunc("/embed/movie/1", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>Nothing here</html>`))
		})
		site := httptest.NewServer(mux)
		defer site.Close()

		extractor := New(Embed{
			Name:       "direct",
			MovieURL:   site.URL + "/embed/movie/{id}",
			EpisodeURL: site.URL + "/embed/tv/{id}/{season}/{episode}",
			Priority:   3,
		}, network.New(network.Options{Timeout: 2 * time.Second}))
		ctx := context.Background()

		Convey("When the embed only holds an iframe", func() {
			result := extractor.Extract(ctx, source.NewMovie(603))

			Convey("Then the iframe is followed once with the embed as referer", func() {
				So(result.Error, ShouldBeEmpty)
				So(result.Streams, ShouldHaveLength, 1)
				So(result.Streams[0].URL, ShouldEqual, "https://cdn.test/603/1080/index.m3u8")
				So(result.Streams[0].Quality, ShouldEqual, "1080p")
				So(playerReferer, ShouldEqual, site.URL+"/embed/movie/603")
			})

			Convey("Then headers come from the page that served the player", func() {
				So(result.Streams[0].Headers["Referer"], ShouldEqual, player.URL+"/")
				So(result.Streams[0].Headers["Origin"], ShouldEqual, player.URL)
				So(result.Streams[0].Category, ShouldEqual, "embed")
				So(result.Streams[0].Language, ShouldEqual, source.Multi)
			})
		})

		Convey("When the embed holds the streams itself", func() {
			result := extractor.Extract(ctx, source.NewEpisode(1399, 1, 2))

			Convey("Then literal and atob streams are both reported", func() {
				So(result.Error, ShouldBeEmpty)
				So(result.Streams, ShouldHaveLength, 2)
				So(result.Streams[0].Type, ShouldEqual, source.MP4)
				So(result.Streams[1].URL, ShouldEqual, "https://cdn.test/1399/master.m3u8")
				So(result.Streams[0].Headers["Origin"], ShouldEqual, site.URL)
			})
		})

		Convey("When the embed holds nothing", func() {
			result := extractor.Extract(ctx, source.NewMovie(1))

			Convey("Then the result is an error", func() {
				So(result.Error, ShouldNotBeEmpty)
				So(result.Streams, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a movie-only embed site", t, func() {
		extractor := New(Embed{Name: "movies", MovieURL: "https://embed.test/{id}"}, nil)

		Convey("Then series references are unsupported", func() {
			result := extractor.Extract(context.Background(), source.NewEpisode(1, 1, 1))
			So(result.Error, ShouldContainSubstring, "unsupported media type")
		})
	})
}

func TestEmbedURL(t *testing.T) {
	Convey("Embed templates expand placeholders", t, func() {
		e := Embed{MovieURL: "https://e.test/movie?tmdb={id}", EpisodeURL: "https://e.test/tv?tmdb={id}&s={season}&e={episode}"}

		u, ok := e.URL(source.NewMovie(42))
		So(ok, ShouldBeTrue)
		So(u, ShouldEqual, "https://e.test/movie?tmdb=42")

		u, ok = e.URL(source.NewEpisode(42, 2, 5))
		So(ok, ShouldBeTrue)
		So(u, ShouldEqual, "https://e.test/tv?tmdb=42&s=2&e=5")
	})
}
