package inline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/streamscout/streamscout/engine"
	"github.com/streamscout/streamscout/source"
)

type (
	// StreamFilter narrows the ranked list without reordering it.
	StreamFilter func([]source.ExtractedStream) []source.ExtractedStream

	// Resolver is satisfied by *engine.Engine.
	Resolver interface {
		ResolveAll(ctx context.Context, ref source.MediaReference) *engine.Report
	}

	// Cache is satisfied by *cache.Store.
	Cache interface {
		Get(ref source.MediaReference) mo.Option[[]source.ExtractedStream]
		Set(ref source.MediaReference, streams []source.ExtractedStream) error
	}
)

type Options struct {
	Out            io.Writer
	Resolver       Resolver
	Cache          mo.Option[Cache]
	Reference      source.MediaReference
	Json           bool
	TypeFilter     mo.Option[StreamFilter]
	LanguageFilter mo.Option[StreamFilter]
}

// ParseTypeFilter accepts hls, mp4 or dash.
func ParseTypeFilter(value string) (StreamFilter, error) {
	t := source.StreamType(strings.ToLower(value))
	if !lo.Contains([]source.StreamType{source.HLS, source.MP4, source.DASH}, t) {
		return nil, fmt.Errorf("unknown stream type: %s", value)
	}

	return func(streams []source.ExtractedStream) []source.ExtractedStream {
		return lo.Filter(streams, func(s source.ExtractedStream, _ int) bool {
			return s.Type == t
		})
	}, nil
}

// ParseLanguageFilter accepts VF, VOSTFR or Multi, case-insensitively.
func ParseLanguageFilter(value string) (StreamFilter, error) {
	language, ok := lo.Find([]source.Language{source.VF, source.VOSTFR, source.Multi}, func(l source.Language) bool {
		return strings.EqualFold(string(l), value)
	})
	if !ok {
		return nil, fmt.Errorf("unknown language: %s", value)
	}

	return func(streams []source.ExtractedStream) []source.ExtractedStream {
		return lo.Filter(streams, func(s source.ExtractedStream, _ int) bool {
			return s.Language == language
		})
	}, nil
}
