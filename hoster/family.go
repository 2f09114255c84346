package hoster

import (
	"context"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"github.com/streamscout/streamscout/source"
)

// Generic is the family of hosts no dedicated strategy knows about.
const Generic = "generic"

// protocol is a hoster-specific multi-step resolution, tried after the generic scans.
type protocol func(ctx context.Context, r *Resolver, p *embedPage) (string, error)

type family struct {
	name  string
	hosts []string
	// keys are extra keyed-value names the family's player config uses.
	keys []string
	// fallback is the stream type for direct links without a telling extension.
	fallback source.StreamType
	protocol protocol
}

// families is ordered; the first family whose host fragment matches wins.
var families = []family{
	{
		name:     "dood",
		hosts:    []string{"dood", "ds2play", "d0000d", "d000d", "dooood", "doods"},
		fallback: source.MP4,
		protocol: doodProtocol,
	},
	{
		name:     "voe",
		hosts:    []string{"voe.sx", "voe"},
		keys:     []string{"hls", "mp4"},
		protocol: voeProtocol,
	},
	{
		name:     "streamtape",
		hosts:    []string{"streamtape", "strtape", "stape", "tapecontent"},
		fallback: source.MP4,
		protocol: streamtapeProtocol,
	},
	{
		name:     "mixdrop",
		hosts:    []string{"mixdrop", "mixdrp", "mxdrop"},
		fallback: source.MP4,
		protocol: mixdropProtocol,
	},
	{name: "filemoon", hosts: []string{"filemoon", "moonplayer", "kerapoxy"}},
	{name: "streamwish", hosts: []string{"streamwish", "wishembed", "swish", "awish", "dwish", "strwish"}},
	{name: "vidhide", hosts: []string{"vidhide", "filelions"}},
	{name: "uqload", hosts: []string{"uqload"}, fallback: source.MP4},
	{name: "vidoza", hosts: []string{"vidoza"}, fallback: source.MP4},
	{name: "upstream", hosts: []string{"upstream"}},
}

var generic = family{name: Generic, keys: []string{"hls", "mp4", "source"}, protocol: genericProtocol}

// Family names the hoster family serving embedURL, or Generic.
func Family(embedURL string) string {
	return lookup(embedURL).name
}

func lookup(embedURL string) family {
	host := strings.ToLower(embedURL)
	if u, err := url.Parse(embedURL); err == nil && u.Host != "" {
		host = strings.ToLower(u.Hostname())
	}

	f, ok := lo.Find(families, func(f family) bool {
		return lo.SomeBy(f.hosts, func(fragment string) bool {
			return strings.Contains(host, fragment)
		})
	})
	if !ok {
		return generic
	}
	return f
}

// Families lists every known family name in dispatch order.
func Families() []string {
	return append(lo.Map(families, func(f family, _ int) string { return f.name }), Generic)
}
