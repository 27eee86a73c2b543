package unsubscribe

import (
	"net/url"
	"regexp"
	"strings"
)

// suspiciousHostPatterns is a fixed deny-list of host shapes we refuse to
// contact automatically: raw IPv4 literals, free dynamic-DNS TLDs, and URL
// shorteners that hide the real destination. Allow-by-default otherwise;
// this is not a reputation service.
var suspiciousHostPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`),
	regexp.MustCompile(`(?i)[a-z0-9-]+\.tk$`),
	regexp.MustCompile(`(?i)[a-z0-9-]+\.ml$`),
	regexp.MustCompile(`(?i)bit\.ly`),
	regexp.MustCompile(`(?i)tinyurl\.com`),
	regexp.MustCompile(`(?i)goo\.gl`),
}

// IsSafeURL reports whether a URL may be targeted by an automated request.
// mailto URLs are always safe since no network action is ever taken on
// them; anything else must be a well-formed HTTP(S) URL whose host matches
// no deny pattern.
func IsSafeURL(raw string) bool {
	if raw == "" {
		return false
	}
	if strings.HasPrefix(raw, "mailto:") {
		return true
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	for _, pattern := range suspiciousHostPatterns {
		if pattern.MatchString(parsed.Host) {
			return false
		}
	}
	return true
}
