// Package unpack reverses the eval(function(p,a,c,k,e,d){...}) JavaScript packing used by
// hoster embed pages to hide their player configuration. Nothing is executed: the packed
// call is parsed as text and its dictionary substituted back into the payload.
package unpack

import (
	"strconv"
	"strings"
)

var markers = []string{
	"eval(function(p,a,c,k,e,d)",
	"eval(function(p,a,c,k,e,r)",
}

const (
	splitTail = ".split('|')"
	alphabet  = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Detect reports whether text contains a packed script.
func Detect(text string) bool {
	return markerIndex(text) >= 0
}

// Unpack decodes the first packed script in text. It reports false when text is not packed
// or the packed call is truncated, unbalanced or carries non-numeric radix/count fields.
func Unpack(text string) (string, bool) {
	start := markerIndex(text)
	if start < 0 {
		return "", false
	}

	expr, ok := packedExpression(text[start:])
	if !ok {
		return "", false
	}

	c, ok := parseCall(expr)
	if !ok {
		return "", false
	}

	return c.substitute(), true
}

// UnpackAll decodes every packed script in text, in page order.
func UnpackAll(text string) []string {
	var out []string
	for {
		start := markerIndex(text)
		if start < 0 {
			return out
		}

		expr, ok := packedExpression(text[start:])
		if !ok {
			return out
		}

		if c, ok := parseCall(expr); ok {
			out = append(out, c.substitute())
		}
		text = text[start+len(expr):]
	}
}

func markerIndex(text string) int {
	best := -1
	for _, m := range markers {
		if i := strings.Index(text, m); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	return best
}

// packedExpression returns the text from "eval(" up to its matching closing paren.
// The split tail must appear inside it, otherwise this is not a dictionary-packed call.
func packedExpression(text string) (string, bool) {
	tail := strings.Index(text, splitTail)
	if tail < 0 {
		return "", false
	}

	open := strings.IndexByte(text, '(')
	depth := 0
	var quote byte

	for i := open; i < len(text); i++ {
		ch := text[i]

		if quote != 0 {
			switch ch {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}

		switch ch {
		case '\'', '"':
			quote = ch
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				if i < tail {
					return "", false
				}
				return text[:i+1], true
			}
		}
	}

	return "", false
}

type call struct {
	payload string
	radix   int
	count   int
	dict    []string
}

// parseCall reads ('<payload>',<radix>,<count>,'<dict>'.split('|') from the argument list
// that follows the function body.
func parseCall(expr string) (*call, bool) {
	args := -1
	for _, sep := range []string{"}('", "}(\""} {
		if i := strings.Index(expr, sep); i >= 0 && (args < 0 || i < args) {
			args = i
		}
	}
	if args < 0 {
		return nil, false
	}

	r := &reader{s: expr, pos: args + 2}

	payload, ok := r.quoted()
	if !ok {
		return nil, false
	}

	radix, ok := r.number()
	if !ok || radix < 2 || radix > len(alphabet) {
		return nil, false
	}

	count, ok := r.number()
	if !ok || count < 0 {
		return nil, false
	}

	r.skip(',')
	words, ok := r.quoted()
	if !ok || !strings.HasPrefix(r.rest(), splitTail) {
		return nil, false
	}

	// Tokens past the dictionary have no word and are left as they are.
	dict := strings.Split(words, "|")
	count = min(count, len(dict))

	return &call{payload: payload, radix: radix, count: count, dict: dict[:count]}, true
}

// substitute replaces tokens from the highest index down. Substituted words are never
// rescanned, so a dictionary word that happens to look like a lower token survives intact.
func (c *call) substitute() string {
	segs := []segment{{text: c.payload}}

	for i := c.count - 1; i >= 0; i-- {
		word := c.dict[i]
		if word == "" {
			continue
		}
		segs = replaceWord(segs, encode(i, c.radix), word)
	}

	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.text)
	}
	return b.String()
}

type segment struct {
	text string
	done bool
}

func replaceWord(segs []segment, token, word string) []segment {
	out := make([]segment, 0, len(segs))

	for _, s := range segs {
		if s.done || !strings.Contains(s.text, token) {
			out = append(out, s)
			continue
		}

		rest := s.text
		for {
			i := wholeWordIndex(rest, token)
			if i < 0 {
				break
			}
			if i > 0 {
				out = append(out, segment{text: rest[:i]})
			}
			out = append(out, segment{text: word, done: true})
			rest = rest[i+len(token):]
		}
		if rest != "" {
			out = append(out, segment{text: rest})
		}
	}

	return out
}

// wholeWordIndex finds token in s where neither neighbor is a letter, digit or underscore.
func wholeWordIndex(s, token string) int {
	from := 0
	for from <= len(s)-len(token) {
		i := strings.Index(s[from:], token)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(token)

		if (i == 0 || !isWordByte(s[i-1])) && (end == len(s) || !isWordByte(s[end])) {
			return i
		}
		from = i + 1
	}
	return -1
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}

// encode renders n in the given radix with the 0-9a-zA-Z digit alphabet.
func encode(n, radix int) string {
	if n < radix {
		return alphabet[n : n+1]
	}
	return encode(n/radix, radix) + alphabet[n%radix:n%radix+1]
}

type reader struct {
	s   string
	pos int
}

func (r *reader) rest() string {
	if r.pos >= len(r.s) {
		return ""
	}
	return r.s[r.pos:]
}

func (r *reader) spaces() {
	for r.pos < len(r.s) && (r.s[r.pos] == ' ' || r.s[r.pos] == '\n' || r.s[r.pos] == '\t' || r.s[r.pos] == '\r') {
		r.pos++
	}
}

func (r *reader) skip(ch byte) bool {
	r.spaces()
	if r.pos < len(r.s) && r.s[r.pos] == ch {
		r.pos++
		return true
	}
	return false
}

// quoted reads a single or double quoted JS string literal, resolving escaped quotes,
// backslashes and slashes. Other escapes are kept verbatim.
func (r *reader) quoted() (string, bool) {
	r.spaces()
	if r.pos >= len(r.s) || (r.s[r.pos] != '\'' && r.s[r.pos] != '"') {
		return "", false
	}

	q := r.s[r.pos]
	r.pos++

	var b strings.Builder
	for r.pos < len(r.s) {
		ch := r.s[r.pos]
		switch {
		case ch == '\\' && r.pos+1 < len(r.s):
			next := r.s[r.pos+1]
			if next == q || next == '\\' || next == '/' || next == '\'' || next == '"' {
				b.WriteByte(next)
			} else {
				b.WriteByte(ch)
				b.WriteByte(next)
			}
			r.pos += 2
		case ch == q:
			r.pos++
			return b.String(), true
		default:
			b.WriteByte(ch)
			r.pos++
		}
	}

	return "", false
}

// number reads ",<int>".
func (r *reader) number() (int, bool) {
	if !r.skip(',') {
		return 0, false
	}
	r.spaces()

	start := r.pos
	for r.pos < len(r.s) && r.s[r.pos] >= '0' && r.s[r.pos] <= '9' {
		r.pos++
	}

	n, err := strconv.Atoi(r.s[start:r.pos])
	if err != nil {
		return 0, false
	}
	return n, true
}
