package hoster

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/streamscout/streamscout/network"
	"github.com/streamscout/streamscout/source"
)

// rewriting sends requests for fake hoster domains to a local server.
type rewriting struct {
	client *network.Client
	hosts  map[string]string
}

func (f *rewriting) Get(ctx context.Context, u string, headers map[string]string) (*network.Page, error) {
	for from, to := range f.hosts {
		if strings.HasPrefix(u, from) {
			u = to + strings.TrimPrefix(u, from)
			break
		}
	}
	return f.client.Get(ctx, u, headers)
}

const doodPage = `<html><script>
$.get('/pass_md5/8812-45-77/qwe123', function(data){ });
function makePlay(){ return a + "?token=qwe123&expiry=" + Date.now(); }
</script></html>`

const packedFilemoon = `<script>eval(function(p,a,c,k,e,d){while(c--)if(k[c])p=p.replace(new RegExp('\\b'+c.toString(a)+'\\b','g'),k[c]);return p}('0.1({2:[{3:"4://5.6/7/8.9"}]})',36,10,'jwplayer|setup|sources|file|https|cdn|filemoon|hls|master|m3u8'.split('|'),0,{}))</script>`

func newServer(passMD5 string) (*httptest.Server, *[]string) {
	var referers []string

	mux := http.NewServeMux()
	mux.HandleFunc("/e/dood", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(doodPage))
	})
	mux.HandleFunc("/pass_md5/", func(w http.ResponseWriter, r *http.Request) {
		referers = append(referers, r.Referer())
		_, _ = w.Write([]byte(passMD5))
	})
	mux.HandleFunc("/e/voe", func(w http.ResponseWriter, r *http.Request) {
		encoded := base64.StdEncoding.EncodeToString([]byte("https://delivery.voe.test/engine/hls/master.m3u8"))
		_, _ = w.Write([]byte(`<script>window.location.href = atob('` + encoded + `');</script>`))
	})
	mux.HandleFunc("/e/tape", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<div id="robotlink" style="display:none"></div><script>
document.getElementById('robotlink').innerHTML = '//streamtape.test/get_vid'+ ('xcdeo?id=abc&expires=1&ip=x&token=tk').substring(1).substring(2);
</script>`))
	})
	mux.HandleFunc("/e/mix", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<script>MDCore.ref="x";MDCore.wurl="//s-delivery1.mxdrop.test/v/abc.mp4?s=1&e=2";</script>`))
	})
	mux.HandleFunc("/e/moon", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(packedFilemoon))
	})
	mux.HandleFunc("/e/plain", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<script>player.setup({sources: [{file: "https://cdn.test/v/720.mp4"}]});</script>`))
	})
	mux.HandleFunc("/e/empty", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>Video not found</body></html>`))
	})

	return httptest.NewServer(mux), &referers
}

func TestResolve(t *testing.T) {
	Convey("Given a resolver against local hosters", t, func() {
		server, referers := newServer("https://cdn.dood.test/stream/abc~")
		defer server.Close()

		fetcher := &rewriting{
			client: network.New(network.Options{Timeout: 2 * time.Second}),
			hosts: map[string]string{
				"https://dood.test":       server.URL,
				"https://voe.test":        server.URL,
				"https://streamtape.test": server.URL,
				"https://mixdrop.test":    server.URL,
				"https://filemoon.test":   server.URL,
			},
		}

		resolver := New(fetcher)
		resolver.now = func() time.Time { return time.UnixMilli(1700000000000) }
		resolver.suffix = func(n int) string { return strings.Repeat("a", n) }
		ctx := context.Background()

		Convey("When resolving a dood embed", func() {
			res, err := resolver.Resolve(ctx, "https://dood.test/e/dood")

			Convey("Then the pass_md5 exchange builds the salted link", func() {
				So(err, ShouldBeNil)
				So(res.Family, ShouldEqual, "dood")
				So(res.URL, ShouldEqual, "https://cdn.dood.test/stream/abc~aaaaaaaaaa?token=qwe123&expiry=1700000000000")
				So(res.Type, ShouldEqual, source.MP4)
				So(*referers, ShouldResemble, []string{"https://dood.test/e/dood"})
			})

			Convey("Then the headers carry the serving origin", func() {
				So(err, ShouldBeNil)
				So(res.Headers["Referer"], ShouldEqual, server.URL+"/")
				So(res.Headers["Origin"], ShouldEqual, server.URL)
			})
		})

		Convey("When the suffix is random", func() {
			resolver.suffix = randomAlphanumeric
			res, err := resolver.Resolve(ctx, "https://dood.test/e/dood")

			Convey("Then it is ten alphanumerics before the token", func() {
				So(err, ShouldBeNil)
				So(regexp.MustCompile(`^https://cdn\.dood\.test/stream/abc~[A-Za-z0-9]{10}\?token=qwe123&expiry=\d+$`).MatchString(res.URL), ShouldBeTrue)
			})
		})

		Convey("When resolving a voe embed", func() {
			res, err := resolver.Resolve(ctx, "https://voe.test/e/voe")

			Convey("Then the atob redirect is decoded", func() {
				So(err, ShouldBeNil)
				So(res.Family, ShouldEqual, "voe")
				So(res.URL, ShouldEqual, "https://delivery.voe.test/engine/hls/master.m3u8")
				So(res.Type, ShouldEqual, source.HLS)
			})
		})

		Convey("When resolving a streamtape embed", func() {
			res, err := resolver.Resolve(ctx, "https://streamtape.test/e/tape")

			Convey("Then the robotlink and token are joined", func() {
				So(err, ShouldBeNil)
				So(res.URL, ShouldEqual, "https://streamtape.test/get_video?id=abc&expires=1&ip=x&token=tk&stream=1")
				So(res.Type, ShouldEqual, source.MP4)
			})
		})

		Convey("When resolving a mixdrop embed", func() {
			res, err := resolver.Resolve(ctx, "https://mixdrop.test/e/mix")

			Convey("Then wurl is normalized to https", func() {
				So(err, ShouldBeNil)
				So(res.URL, ShouldEqual, "https://s-delivery1.mxdrop.test/v/abc.mp4?s=1&e=2")
			})
		})

		Convey("When the player config is packed", func() {
			res, err := resolver.Resolve(ctx, "https://filemoon.test/e/moon")

			Convey("Then it is unpacked and scanned", func() {
				So(err, ShouldBeNil)
				So(res.Family, ShouldEqual, "filemoon")
				So(res.URL, ShouldEqual, "https://cdn.filemoon/hls/master.m3u8")
			})
		})

		Convey("When the host is unknown", func() {
			res, err := resolver.Resolve(ctx, server.URL+"/e/plain")

			Convey("Then the generic strategy scans the page", func() {
				So(err, ShouldBeNil)
				So(res.Family, ShouldEqual, Generic)
				So(res.URL, ShouldEqual, "https://cdn.test/v/720.mp4")
				So(res.Quality, ShouldEqual, "720p")
				So(res.Type, ShouldEqual, source.MP4)
			})
		})

		Convey("When nothing can be found", func() {
			_, err := resolver.Resolve(ctx, server.URL+"/e/empty")

			Convey("Then ErrNoStream is returned", func() {
				So(errors.Is(err, ErrNoStream), ShouldBeTrue)
			})
		})

		Convey("When the embed is missing", func() {
			_, err := resolver.Resolve(ctx, server.URL+"/e/gone")

			Convey("Then ErrNoStream is returned", func() {
				So(errors.Is(err, ErrNoStream), ShouldBeTrue)
			})
		})
	})

	Convey("Given an embed that redirects to another host", t, func() {
		target, _ := newServer("")
		defer target.Close()

		front := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, target.URL+"/e/plain", http.StatusFound)
		}))
		defer front.Close()

		client := network.New(network.Options{Timeout: 2 * time.Second})
		res, err := New(client).Resolve(context.Background(), front.URL+"/e/hop")

		Convey("Then the headers carry the origin that served the page", func() {
			So(err, ShouldBeNil)
			So(res.URL, ShouldEqual, "https://cdn.test/v/720.mp4")
			So(res.Headers["Referer"], ShouldEqual, target.URL+"/")
			So(res.Headers["Origin"], ShouldEqual, target.URL)
			So(res.Headers["Origin"], ShouldNotEqual, front.URL)
		})
	})

	Convey("Given a pass_md5 endpoint that does not answer with a link", t, func() {
		server, _ := newServer("RELOAD")
		defer server.Close()

		fetcher := &rewriting{
			client: network.New(network.Options{Timeout: 2 * time.Second}),
			hosts:  map[string]string{"https://dood.test": server.URL},
		}

		_, err := New(fetcher).Resolve(context.Background(), "https://dood.test/e/dood")

		Convey("Then the body is rejected", func() {
			So(errors.Is(err, ErrNoStream), ShouldBeTrue)
		})
	})
}

func TestFamily(t *testing.T) {
	Convey("Family dispatches on host fragments", t, func() {
		So(Family("https://dood.wf/e/abc"), ShouldEqual, "dood")
		So(Family("https://d0000d.com/e/abc"), ShouldEqual, "dood")
		So(Family("https://voe.sx/e/abc"), ShouldEqual, "voe")
		So(Family("https://streamtape.com/e/abc"), ShouldEqual, "streamtape")
		So(Family("https://mixdrop.co/e/abc"), ShouldEqual, "mixdrop")
		So(Family("https://filemoon.sx/e/abc"), ShouldEqual, "filemoon")
		So(Family("https://streamwish.to/e/abc"), ShouldEqual, "streamwish")
		So(Family("https://filelions.to/v/abc"), ShouldEqual, "vidhide")
		So(Family("https://uqload.io/embed-abc.html"), ShouldEqual, "uqload")
		So(Family("https://unknown.example/e/abc"), ShouldEqual, Generic)
	})

	Convey("Families ends with the generic fallback", t, func() {
		names := Families()
		So(names[len(names)-1], ShouldEqual, Generic)
		So(names, ShouldContain, "dood")
	})
}
