package source

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// StreamType is the container or manifest format of a stream.
type StreamType string

const (
	HLS  StreamType = "hls"
	MP4  StreamType = "mp4"
	DASH StreamType = "dash"
)

// Language is the audio/subtitle hint detected for a stream.
type Language string

const (
	VF     Language = "VF"
	VOSTFR Language = "VOSTFR"
	Multi  Language = "Multi"
)

// QualityAuto is used when no resolution label can be inferred.
const QualityAuto = "auto"

// ExtractedStream is the universal output unit of every extractor and hoster strategy.
type ExtractedStream struct {
	Provider string     `json:"provider"`
	URL      string     `json:"url"`
	Quality  string     `json:"quality"`
	Type     StreamType `json:"streamType"`
	Language Language   `json:"languageHint,omitempty"`
	Category string     `json:"categoryTag,omitempty"`
	// Headers must be sufficient to re-fetch URL, typically Referer and Origin.
	Headers map[string]string `json:"requiredHeaders,omitempty"`
}

// Valid reports whether URL is a non-empty absolute http(s) URL.
func (s *ExtractedStream) Valid() bool {
	if s.URL == "" {
		return false
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// String returns the quality or URL for display.
func (s *ExtractedStream) String() string {
	if s.Quality != "" && s.Quality != QualityAuto {
		return s.Quality
	}
	return s.URL
}

// StreamTypeFromURL picks the stream type from the URL path extension. Unknown extensions are HLS,
// since extension-less manifests served by hosters are almost always playlists.
func StreamTypeFromURL(rawURL string) StreamType {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}

	switch strings.ToLower(path.Ext(p)) {
	case ".mp4", ".m4v", ".mkv", ".webm":
		return MP4
	case ".mpd":
		return DASH
	default:
		if strings.Contains(strings.ToLower(rawURL), ".mp4") {
			return MP4
		}
		return HLS
	}
}

var qualityPattern = regexp.MustCompile(`(?i)(?:^|[^0-9])(2160|1440|1080|720|576|480|360|240)p?(?:[^0-9]|$)`)

// QualityFromURL extracts a resolution label such as "1080p" from the URL, or QualityAuto.
func QualityFromURL(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}

	m := qualityPattern.FindStringSubmatch(p)
	if m == nil {
		return QualityAuto
	}
	return m[1] + "p"
}
