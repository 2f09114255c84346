package hoster

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/streamscout/streamscout/atob"
	"github.com/streamscout/streamscout/scan"
)

var (
	passMD5Pattern = regexp.MustCompile(`/pass_md5/[^'"\s<>]+`)
	doodToken      = regexp.MustCompile(`token=([A-Za-z0-9]+)&expiry`)

	robotlinkPattern = regexp.MustCompile(`getElementById\(\s*['"]robotlink['"]\s*\)\.innerHTML\s*=\s*['"]([^'"]+)['"]\s*\+\s*\(?\s*['"]([^'"]+)['"]\s*\)?((?:\.substring\(\d+\))*)`)
	substringPattern = regexp.MustCompile(`\.substring\((\d+)\)`)
	streamtapeToken  = regexp.MustCompile(`(?:token|substring)\s*[=()]+\s*['"]([^'"]+)['"]`)

	wurlPattern = regexp.MustCompile(`wurl\s*=\s*["']([^"']+)["']`)
)

// doodProtocol exchanges the page's pass_md5 path for a short-lived direct link.
// The hoster salts links with a random suffix and expires them, so the final URL is
// built from the pass_md5 response, ten random characters and the page token.
func doodProtocol(ctx context.Context, r *Resolver, p *embedPage) (string, error) {
	path := passMD5Pattern.FindString(p.body)
	if path == "" {
		return "", fmt.Errorf("%w: pass_md5 path not found", ErrNoStream)
	}

	page, err := r.fetcher.Get(ctx, p.origin+path, map[string]string{"Referer": p.embedURL})
	if err != nil {
		return "", fmt.Errorf("fetch pass_md5: %w", err)
	}

	base := strings.TrimSpace(page.Body)
	if !page.OK() || !scan.IsHTTP(base) {
		return "", fmt.Errorf("%w: pass_md5 did not return a link", ErrNoStream)
	}

	token := path[strings.LastIndexByte(path, '/')+1:]
	if m := doodToken.FindStringSubmatch(p.body); m != nil {
		token = m[1]
	}

	return base + r.suffix(10) + "?token=" + token + "&expiry=" + strconv.FormatInt(r.now().UnixMilli(), 10), nil
}

// voeProtocol decodes atob() redirects, and scans their decoded text when it is not a link itself.
func voeProtocol(_ context.Context, _ *Resolver, p *embedPage) (string, error) {
	if u, ok := decodeAtob(p.body, []string{"hls", "mp4", "file", "src"}); ok {
		return u, nil
	}
	return "", fmt.Errorf("%w: no atob redirect", ErrNoStream)
}

// streamtapeProtocol joins the robotlink innerHTML with its substring token.
func streamtapeProtocol(_ context.Context, _ *Resolver, p *embedPage) (string, error) {
	var link string

	if m := robotlinkPattern.FindStringSubmatch(p.body); m != nil {
		token := m[2]
		for _, sub := range substringPattern.FindAllStringSubmatch(m[3], -1) {
			n, _ := strconv.Atoi(sub[1])
			token = token[min(n, len(token)):]
		}
		link = m[1] + token
	} else if doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.body)); err == nil {
		base := strings.TrimSpace(doc.Find("#robotlink").First().Text())
		if base != "" {
			link = base
			if m := streamtapeToken.FindStringSubmatch(p.body); m != nil && !strings.Contains(base, "token=") {
				link = base + m[1]
			}
		}
	}

	link = strings.Trim(link, `'"`)
	if strings.HasPrefix(link, "/") && !strings.HasPrefix(link, "//") {
		link = p.origin + link
	}
	link = normalizeSlashes(link)

	if !strings.Contains(link, "get_video") || !scan.IsHTTP(link) {
		return "", fmt.Errorf("%w: robotlink not found", ErrNoStream)
	}
	return link + "&stream=1", nil
}

// mixdropProtocol reads MDCore.wurl, normally found in the packed player script.
func mixdropProtocol(_ context.Context, _ *Resolver, p *embedPage) (string, error) {
	texts := append(append([]string{}, p.unpacked...), p.body)
	for _, text := range texts {
		if m := wurlPattern.FindStringSubmatch(text); m != nil {
			if u := normalizeSlashes(m[1]); scan.IsHTTP(u) {
				return u, nil
			}
		}
	}
	return "", fmt.Errorf("%w: wurl not found", ErrNoStream)
}

// genericProtocol is the last resort for unknown hosts: atob payloads in the page or its packed scripts.
func genericProtocol(_ context.Context, _ *Resolver, p *embedPage) (string, error) {
	if u, ok := decodeAtob(p.body, nil); ok {
		return u, nil
	}
	for _, script := range p.unpacked {
		if u, ok := decodeAtob(script, nil); ok {
			return u, nil
		}
	}
	return "", ErrNoStream
}

// decodeAtob returns the first atob() argument that decodes to a media URL or to text containing one.
func decodeAtob(text string, keys []string) (string, bool) {
	for _, arg := range scan.AtobArgs(text) {
		decoded, ok := atob.DecodeString(arg)
		if !ok {
			continue
		}

		decoded = strings.TrimSpace(decoded)
		if scan.IsMediaURL(decoded) {
			return decoded, true
		}

		if u, ok := scanText(decoded, append([]string{"file", "src"}, keys...)); ok {
			return u, true
		}
	}
	return "", false
}

func normalizeSlashes(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}
