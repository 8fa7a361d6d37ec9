package extractor

import (
	"net/url"
	"regexp"
	"strings"
)

// shareLink matches note links and short links inside pasted share text.
var shareLink = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:xiaohongshu\.com/(?:explore|discovery/item|user/profile/[A-Za-z0-9_\-]+)/[A-Za-z0-9_\-]+(?:\?[^\s，。,]*)?|xhslink\.com/[A-Za-z0-9/_\-]+)`)

// ExtractLinks finds post links in free-form share text, in order and
// without repeats. Links lacking a scheme get https://.
func ExtractLinks(text string) []string {
	links := []string{}
	seen := make(map[string]struct{})
	for _, m := range shareLink.FindAllString(text, -1) {
		if !strings.HasPrefix(m, "http://") && !strings.HasPrefix(m, "https://") {
			m = "https://" + m
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		links = append(links, m)
	}
	return links
}

const originalImageHost = "https://ci.xiaohongshu.com/"

// OriginalImageURL rewrites an xhscdn.com image rendition URL such as
//
//	http://sns-webpic-qc.xhscdn.com/202404121854/a7e6.../{token}!nd_dft_wlteh_webp_3
//
// to the original-quality endpoint https://ci.xiaohongshu.com/{token}.
// Video URLs and other hosts are returned unchanged.
func OriginalImageURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !strings.HasSuffix(u.Hostname(), "xhscdn.com") {
		return raw
	}
	if strings.Contains(raw, "video") {
		return raw
	}

	// scheme:, "", host, timestamp, hash, token...
	parts := strings.Split(raw, "/")
	if len(parts) <= 5 {
		return raw
	}
	token := strings.Join(parts[5:], "/")
	if i := strings.IndexAny(token, "!?"); i >= 0 {
		token = token[:i]
	}
	if token == "" {
		return raw
	}
	return originalImageHost + token
}
