package categorize

import (
	"sort"
	"strings"
)

// SocialPlatforms maps each social media platform to its package prefixes.
var SocialPlatforms = map[string][]string{
	"facebook":  FacebookPrefixes,
	"tiktok":    TikTokPrefixes,
	"twitter":   TwitterPrefixes,
	"instagram": InstagramPrefixes,
	"parler":    ParlerPrefixes,
	"reddit":    RedditPrefixes,
}

// DetectSocial returns the installed packages of each social platform.
// Unlike Categorize it ignores bucket priority, so an OEM-bundled Facebook
// stub still shows up here. Platforms with no packages are omitted.
func DetectSocial(packages []string) map[string][]string {
	out := make(map[string][]string)
	pkgs := dedupe(packages)
	for platform, prefixes := range SocialPlatforms {
		match := prefixMatcher(prefixes)
		for _, pkg := range pkgs {
			if match(pkg) {
				out[platform] = append(out[platform], pkg)
			}
		}
	}
	for _, list := range out {
		sort.Strings(list)
	}
	return out
}

// Platforms returns the social platform names sorted.
func Platforms() []string {
	names := make([]string, 0, len(SocialPlatforms))
	for name := range SocialPlatforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summary is one bucket's count, for display.
type Summary struct {
	Bucket Bucket
	Count  int
}

// Summarize lists non-empty buckets in priority order.
func (r Result) Summarize() []Summary {
	var out []Summary
	for _, b := range Buckets {
		if n := len(r[b]); n > 0 {
			out = append(out, Summary{Bucket: b, Count: n})
		}
	}
	return out
}

// Title returns the bucket name with an upper-case first letter.
func (b Bucket) Title() string {
	s := string(b)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
