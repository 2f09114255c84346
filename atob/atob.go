// Package atob decodes the base64 strings hoster pages pass to atob() for their redirects.
package atob

import "strings"

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var lookup = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		t[alphabet[i]] = int8(i)
	}
	return t
}()

// Decode decodes standard-alphabet base64. Trailing padding is optional; any other
// byte outside the alphabet makes the whole input invalid.
func Decode(s string) ([]byte, bool) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	if s == "" {
		return nil, false
	}

	out := make([]byte, 0, len(s)*3/4)

	var (
		acc  uint32
		bits uint
	)

	for i := 0; i < len(s); i++ {
		v := lookup[s[i]]
		if v < 0 {
			return nil, false
		}

		acc = acc<<6 | uint32(v)
		bits += 6

		if bits >= 8 {
			bits -= 8
			out = append(out, byte(acc>>bits))
			acc &= 1<<bits - 1
		}
	}

	return out, true
}

// DecodeString is Decode for callers that want text.
func DecodeString(s string) (string, bool) {
	b, ok := Decode(s)
	if !ok {
		return "", false
	}
	return string(b), true
}
