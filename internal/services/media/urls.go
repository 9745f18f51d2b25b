package media

import (
	"fmt"
	"regexp"
	"strings"
)

// Share links from mobile clients carry a tracking suffix that must not leak
// into canonical cache keys.
const copyLinkSuffix = "?utm_medium=copy_link"

var (
	urlPattern = regexp.MustCompile(`^https?://\S+$`)

	youtubeIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`youtube\.com/watch\?(?:\S*&)?v=([\w-]{6,})`),
		regexp.MustCompile(`youtu\.be/([\w-]{6,})`),
		regexp.MustCompile(`youtube\.com/shorts/([\w-]{6,})`),
	}

	catalogTrackPattern = regexp.MustCompile(`album/(\d+)/track/(\d+)`)
)

// IsURL reports whether the input looks like a URL rather than a free-text
// query.
func IsURL(input string) bool {
	return urlPattern.MatchString(strings.TrimSpace(input))
}

// NormalizeURL canonicalizes a user-supplied URL for cache addressing.
func NormalizeURL(url string) string {
	url = strings.TrimSpace(url)
	url = strings.TrimSuffix(url, copyLinkSuffix)
	return url
}

// YouTubeVideoID extracts the video ID from any supported YouTube URL form
// (watch, youtu.be, shorts).
func YouTubeVideoID(url string) (string, bool) {
	for _, re := range youtubeIDPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// CatalogTrackID extracts the track identifier from an album/track URL.
// The platform addresses tracks as "<track>:<album>".
func CatalogTrackID(url string) (string, bool) {
	m := catalogTrackPattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return fmt.Sprintf("%s:%s", m[2], m[1]), true
}
