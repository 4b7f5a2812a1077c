// Package categorize partitions installed package names into origin
// buckets and detects social media apps.
package categorize

import (
	"sort"
	"strings"
)

// Bucket is a package origin category.
type Bucket string

const (
	Manufacturer  Bucket = "manufacturer"
	Android       Bucket = "android"
	Google        Bucket = "google"
	Facebook      Bucket = "facebook"
	TikTok        Bucket = "tiktok"
	Twitter       Bucket = "twitter"
	Instagram     Bucket = "instagram"
	Parler        Bucket = "parler"
	Reddit        Bucket = "reddit"
	Vendor        Bucket = "vendor"
	User          Bucket = "user"
	System        Bucket = "system"
	Uncategorized Bucket = "uncategorized"
)

// Buckets lists every bucket in match priority order.
var Buckets = []Bucket{
	Manufacturer, Android, Google,
	Facebook, TikTok, Twitter, Instagram, Parler, Reddit,
	Vendor, User, System, Uncategorized,
}

// Input is one device's package listing.
type Input struct {
	Packages     []string // all installed packages
	System       []string // `pm list packages -s`
	User         []string // `pm list packages -3`
	Manufacturer string
}

// Result maps every bucket to its sorted packages. All buckets are
// present, empty ones as empty slices.
type Result map[Bucket][]string

// Total returns the number of categorized packages.
func (r Result) Total() int {
	n := 0
	for _, pkgs := range r {
		n += len(pkgs)
	}
	return n
}

// BucketOf returns the bucket holding pkg.
func (r Result) BucketOf(pkg string) (Bucket, bool) {
	for b, pkgs := range r {
		i := sort.SearchStrings(pkgs, pkg)
		if i < len(pkgs) && pkgs[i] == pkg {
			return b, true
		}
	}
	return "", false
}

type rule struct {
	bucket Bucket
	match  func(pkg string) bool
}

// Categorize assigns every distinct package in in.Packages to exactly one
// bucket. Rules run in Buckets order and the first match wins.
func Categorize(in Input) Result {
	rules := rulesFor(in)

	res := make(Result, len(Buckets))
	for _, b := range Buckets {
		res[b] = []string{}
	}

	for _, pkg := range dedupe(in.Packages) {
		for _, r := range rules {
			if r.match(pkg) {
				res[r.bucket] = append(res[r.bucket], pkg)
				break
			}
		}
	}

	for _, pkgs := range res {
		sort.Strings(pkgs)
	}
	return res
}

func rulesFor(in Input) []rule {
	users := toSet(in.User)
	systems := toSet(in.System)

	return []rule{
		{Manufacturer, manufacturerMatcher(in.Manufacturer)},
		{Android, prefixMatcher(AndroidPrefixes)},
		{Google, prefixMatcher(GooglePrefixes)},
		{Facebook, prefixMatcher(FacebookPrefixes)},
		{TikTok, prefixMatcher(TikTokPrefixes)},
		{Twitter, prefixMatcher(TwitterPrefixes)},
		{Instagram, prefixMatcher(InstagramPrefixes)},
		{Parler, prefixMatcher(ParlerPrefixes)},
		{Reddit, prefixMatcher(RedditPrefixes)},
		{Vendor, prefixMatcher(VendorPrefixes)},
		{User, func(pkg string) bool { _, ok := users[pkg]; return ok }},
		{System, func(pkg string) bool { _, ok := systems[pkg]; return ok }},
		{Uncategorized, func(string) bool { return true }},
	}
}

// manufacturerMatcher matches a package containing the manufacturer name
// anywhere, or starting with "com.<manufacturer>". An unknown manufacturer
// matches nothing.
func manufacturerMatcher(manufacturer string) func(string) bool {
	mfr := strings.ToLower(strings.TrimSpace(manufacturer))
	if mfr == "" {
		return func(string) bool { return false }
	}
	prefix := "com." + mfr
	return func(pkg string) bool {
		p := strings.ToLower(pkg)
		return strings.Contains(p, mfr) || strings.HasPrefix(p, prefix)
	}
}

func prefixMatcher(prefixes []string) func(string) bool {
	lowered := make([]string, len(prefixes))
	for i, p := range prefixes {
		lowered[i] = strings.ToLower(p)
	}
	return func(pkg string) bool {
		return hasAnyPrefix(strings.ToLower(pkg), lowered)
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func toSet(in []string) map[string]struct{} {
	set := make(map[string]struct{}, len(in))
	for _, s := range in {
		set[strings.TrimSpace(s)] = struct{}{}
	}
	return set
}
