// Package scan pulls candidate stream and embed URLs out of raw page text.
// Nothing here trusts its input to be valid HTML or JSON: a missing closing
// delimiter is a non-match and truncated input never panics.
package scan

import (
	"net/url"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// SourcesWindow bounds how far past a sources marker SourcesArray looks.
const SourcesWindow = 1500

// maxURL bounds backtracking from a terminal marker to its opening delimiter.
const maxURL = 4096

var (
	mediaMarkers   = []string{".m3u8", ".mp4", ".mpd"}
	sourcesMarkers = []string{"sources:", `"sources":`, "sourceslist:", "sources: ["}
	defaultKeys    = []string{"file", "src"}
	delimiters     = "\"'`"
)

// Match is a URL found in markup together with the byte offset of the tag or attribute it came from.
type Match struct {
	URL    string
	Offset int
}

// LiteralMediaURLs finds quoted absolute URLs ending in a media extension, in page order.
func LiteralMediaURLs(text string) []string {
	var hits []Match
	for _, marker := range mediaMarkers {
		from := 0
		for {
			i := strings.Index(text[from:], marker)
			if i < 0 {
				break
			}
			i += from
			from = i + len(marker)

			if u, ok := quotedAround(text, i, from); ok {
				hits = append(hits, Match{URL: u, Offset: i})
			}
		}
	}

	return matchURLs(inOrder(hits))
}

// quotedAround recovers the delimited string containing text[at:end].
func quotedAround(text string, at, end int) (string, bool) {
	floor := max(0, at-maxURL)

	open := strings.LastIndexAny(text[floor:at], delimiters)
	if open < 0 {
		return "", false
	}
	open += floor
	quote := text[open]

	ceil := min(len(text), end+maxURL)
	closing := strings.IndexByte(text[end:ceil], quote)
	if closing < 0 {
		return "", false
	}

	// An escaped closing quote leaves its backslash behind.
	candidate := unescape(strings.TrimSuffix(text[open+1:end+closing], `\`))
	if !IsHTTP(candidate) || strings.ContainsAny(candidate, " \t\r\n") {
		return "", false
	}

	return candidate, true
}

// KeyedURL extracts media URLs assigned to any of keys, in "key":"value", 'key':'value'
// or key:"value" form. With no keys, file and src are used.
func KeyedURL(text string, keys ...string) []string {
	if len(keys) == 0 {
		keys = defaultKeys
	}

	var hits []Match
	for _, key := range keys {
		from := 0
		for {
			i := strings.Index(text[from:], key)
			if i < 0 {
				break
			}
			i += from
			from = i + len(key)

			if i > 0 && isIdentByte(text[i-1]) {
				continue
			}

			if value, ok := keyedValue(text, from); ok {
				value = normalizeScheme(unescape(value))
				if IsMediaURL(value) {
					hits = append(hits, Match{URL: value, Offset: i})
				}
			}
		}
	}

	return matchURLs(inOrder(hits))
}

// keyedValue reads the quoted value following a key that ends at pos.
func keyedValue(text string, pos int) (string, bool) {
	if pos < len(text) && (text[pos] == '"' || text[pos] == '\'') {
		pos++
	} else if pos < len(text) && isIdentByte(text[pos]) {
		return "", false
	}

	pos = skipSpaces(text, pos)
	if pos >= len(text) || text[pos] != ':' {
		return "", false
	}

	pos = skipSpaces(text, pos+1)
	if pos >= len(text) || !strings.ContainsRune(delimiters, rune(text[pos])) {
		return "", false
	}

	quote := text[pos]
	end := strings.IndexByte(text[pos+1:min(len(text), pos+1+maxURL)], quote)
	if end < 0 {
		return "", false
	}

	return text[pos+1 : pos+1+end], true
}

// SourcesArray scans a bounded window after each sources marker for keyed values
// and bare string arrays. With no markers, the common player markers are used.
func SourcesArray(text string, markers ...string) []string {
	if len(markers) == 0 {
		markers = sourcesMarkers
	}

	var found []string
	for _, marker := range markers {
		from := 0
		for {
			i := strings.Index(text[from:], marker)
			if i < 0 {
				break
			}
			start := from + i + len(marker)
			from = start

			window := text[start:min(len(text), start+SourcesWindow)]
			found = append(found, KeyedURL(window)...)
			found = append(found, LiteralMediaURLs(window)...)
		}
	}

	return lo.Uniq(found)
}

// IframeSrcs returns the src of every iframe in html, resolved against base.
func IframeSrcs(html, base string) []string {
	return lo.Map(IframeMatches(html, base), func(m Match, _ int) string { return m.URL })
}

// IframeMatches returns the src of every iframe with the offset of its tag.
func IframeMatches(html, base string) []Match {
	lower := asciiLower(html)

	var out []Match
	from := 0
	for {
		i := strings.Index(lower[from:], "<iframe")
		if i < 0 {
			break
		}
		i += from

		end := strings.IndexByte(lower[i:], '>')
		if end < 0 {
			break
		}
		end += i
		from = end + 1

		value, ok := attrValue(html[i:end], lower[i:end], "src")
		if !ok {
			continue
		}

		if u := Resolve(base, value); IsHTTP(u) {
			out = append(out, Match{URL: u, Offset: i})
		}
	}

	return lo.UniqBy(out, func(m Match) string { return m.URL })
}

// AttrMatches returns values of the named attributes anywhere in html, resolved against base.
func AttrMatches(html, base string, attrs ...string) []Match {
	lower := asciiLower(html)

	var out []Match
	for _, attr := range attrs {
		needle := asciiLower(attr) + "="
		from := 0
		for {
			i := strings.Index(lower[from:], needle)
			if i < 0 {
				break
			}
			i += from
			from = i + len(needle)

			if i > 0 && !isSpace(lower[i-1]) {
				continue
			}

			value, ok := quotedValue(html, from)
			if !ok {
				continue
			}

			if u := Resolve(base, value); IsHTTP(u) {
				out = append(out, Match{URL: u, Offset: i})
			}
		}
	}

	return inOrder(out)
}

// inOrder restores page order across separately scanned markers and keeps the first of each URL.
func inOrder(matches []Match) []Match {
	slices.SortStableFunc(matches, func(a, b Match) int { return a.Offset - b.Offset })
	return lo.UniqBy(matches, func(m Match) string { return m.URL })
}

func matchURLs(matches []Match) []string {
	return lo.Map(matches, func(m Match, _ int) string { return m.URL })
}

// attrValue finds a standalone attribute inside a single tag.
func attrValue(tag, lowerTag, name string) (string, bool) {
	needle := name + "="
	from := 0
	for {
		i := strings.Index(lowerTag[from:], needle)
		if i < 0 {
			return "", false
		}
		i += from
		from = i + len(needle)

		if i == 0 || !isSpace(lowerTag[i-1]) {
			continue
		}

		return quotedValue(tag, from)
	}
}

// quotedValue reads an attribute value starting at pos, quoted or bare.
func quotedValue(s string, pos int) (string, bool) {
	if pos >= len(s) {
		return "", false
	}

	if q := s[pos]; q == '"' || q == '\'' {
		end := strings.IndexByte(s[pos+1:], q)
		if end < 0 {
			return "", false
		}
		return strings.TrimSpace(s[pos+1 : pos+1+end]), true
	}

	end := pos
	for end < len(s) && !isSpace(s[end]) && s[end] != '>' {
		end++
	}
	if end == pos {
		return "", false
	}
	return s[pos:end], true
}

// AtobArgs returns the string arguments of every atob('...') call in text.
func AtobArgs(text string) []string {
	var out []string
	from := 0
	for {
		i := strings.Index(text[from:], "atob(")
		if i < 0 {
			break
		}
		pos := skipSpaces(text, from+i+len("atob("))
		from = pos

		if pos >= len(text) || !strings.ContainsRune(delimiters, rune(text[pos])) {
			continue
		}

		quote := text[pos]
		end := strings.IndexByte(text[pos+1:], quote)
		if end < 0 {
			break
		}

		out = append(out, text[pos+1:pos+1+end])
		from = pos + 1 + end
	}

	return lo.Uniq(out)
}

// Resolve makes ref absolute against base. Protocol-relative refs get https when
// base is unusable. It returns an empty string for refs that cannot be parsed.
func Resolve(base, ref string) string {
	ref = strings.TrimSpace(unescape(ref))
	if ref == "" {
		return ""
	}

	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	b, err := url.Parse(base)
	if err != nil || b.Scheme == "" || b.Host == "" {
		return normalizeScheme(ref)
	}

	return b.ResolveReference(r).String()
}

// IsHTTP reports whether u is an absolute http(s) URL with a host.
func IsHTTP(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// IsMediaURL reports whether u is an http(s) URL whose path or query names a media manifest or file.
func IsMediaURL(u string) bool {
	if !IsHTTP(u) || strings.ContainsAny(u, " \t\r\n") {
		return false
	}

	lower := strings.ToLower(u)
	return lo.SomeBy(mediaMarkers, func(m string) bool {
		return strings.Contains(lower, m)
	})
}

// Master picks the first master playlist among urls, falling back to the first URL.
func Master(urls []string) (string, bool) {
	if len(urls) == 0 {
		return "", false
	}

	if m, ok := lo.Find(urls, func(u string) bool {
		return strings.Contains(strings.ToLower(u), "master") && strings.Contains(u, ".m3u8")
	}); ok {
		return m, true
	}

	return urls[0], true
}

func normalizeScheme(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return strings.NewReplacer(`\/`, `/`, `\u0026`, `&`, `\u002F`, `/`, `\u002f`, `/`).Replace(s)
}

func skipSpaces(s string, pos int) int {
	for pos < len(s) && isSpace(s[pos]) {
		pos++
	}
	return pos
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '$' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}

// asciiLower lowercases A-Z only so byte offsets stay aligned with the input.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
