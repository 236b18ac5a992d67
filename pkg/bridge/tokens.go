package bridge

import (
	"strings"

	"github.com/aretw0/atlas/pkg/core"
)

// tokenPlaceholder is the marker providers embed in URLs where an access
// token belongs.
const tokenPlaceholder = "{key}"

// substituteTokens returns a copy of the style with access tokens filled
// into URL placeholders. Tokens are keyed by a substring of the URL host
// (e.g. "maptiler.com"); the first matching key wins. The input style is
// not modified.
func substituteTokens(s *core.Style, tokens map[string]string) *core.Style {
	if len(tokens) == 0 {
		return s
	}

	out := s.Clone()
	out.Glyphs = fillToken(out.Glyphs, tokens)
	out.Sprite = fillToken(out.Sprite, tokens)
	for name, src := range out.Sources {
		src.URL = fillToken(src.URL, tokens)
		for i, tile := range src.Tiles {
			src.Tiles[i] = fillToken(tile, tokens)
		}
		out.Sources[name] = src
	}
	return out
}

func fillToken(url string, tokens map[string]string) string {
	if !strings.Contains(url, tokenPlaceholder) {
		return url
	}
	for host, token := range tokens {
		if strings.Contains(url, host) {
			return strings.ReplaceAll(url, tokenPlaceholder, token)
		}
	}
	return url
}
