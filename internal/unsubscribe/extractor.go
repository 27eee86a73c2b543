// Package unsubscribe finds, screens, and executes unsubscribe mechanisms
// for unwanted senders.
package unsubscribe

import (
	"regexp"
	"strings"

	"github.com/mikey/llm-mail-triage/internal/core"
)

// bracketedURI matches the <...> entries of a List-Unsubscribe header
// (RFC 2369).
var bracketedURI = regexp.MustCompile(`<([^>]+)>`)

// bodyPatterns are tried in order against the body text; the first match
// wins. Structured headers always take priority over these heuristics.
var bodyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://[^\s<>"]+?unsubscribe[^\s<>"]*`),
	regexp.MustCompile(`(?i)https?://[^\s<>"]+?opt[_-]?out[^\s<>"]*`),
	regexp.MustCompile(`(?i)https?://[^\s<>"]+?stop[_-]?receiving[^\s<>"]*`),
	regexp.MustCompile(`(?i)https?://[^\s<>"]+?manage[_-]?preferences[^\s<>"]*`),
	regexp.MustCompile(`(?i)https?://[^\s<>"]+?email[_-]?preferences[^\s<>"]*`),
}

// Extract determines the best available unsubscribe mechanism for a
// message, preferring one-click (RFC 8058), then plain HTTP, then mailto
// from the headers, then a heuristic scan of the body. At most one
// candidate is returned.
func Extract(headers core.Headers, body string) core.UnsubscribeInfo {
	listUnsubscribe := headers.Get("List-Unsubscribe")
	listUnsubscribePost := headers.Get("List-Unsubscribe-Post")

	if listUnsubscribe != "" {
		var uris []string
		for _, m := range bracketedURI.FindAllStringSubmatch(listUnsubscribe, -1) {
			uris = append(uris, m[1])
		}

		// One-click needs both the post header and an HTTP(S) target; the
		// post value is carried forward for the POST request.
		if strings.Contains(listUnsubscribePost, "List-Unsubscribe=One-Click") {
			for _, uri := range uris {
				if strings.HasPrefix(uri, "http") {
					return core.UnsubscribeInfo{
						HasUnsubscribe:      true,
						Method:              core.MethodOneClick,
						URL:                 uri,
						ListUnsubscribePost: listUnsubscribePost,
					}
				}
			}
		}

		for _, uri := range uris {
			if strings.HasPrefix(uri, "http") {
				return core.UnsubscribeInfo{
					HasUnsubscribe: true,
					Method:         core.MethodHTTP,
					URL:            uri,
				}
			}
		}

		for _, uri := range uris {
			if strings.HasPrefix(uri, "mailto:") {
				return core.UnsubscribeInfo{
					HasUnsubscribe: true,
					Method:         core.MethodMailto,
					URL:            uri,
				}
			}
		}
	}

	if url := findInBody(body); url != "" {
		return core.UnsubscribeInfo{
			HasUnsubscribe: true,
			Method:         core.MethodWeb,
			URL:            url,
		}
	}

	return core.UnsubscribeInfo{}
}

// findInBody scans the body with the fixed pattern list and strips
// trailing punctuation that commonly trails pasted links.
func findInBody(body string) string {
	for _, pattern := range bodyPatterns {
		if match := pattern.FindString(body); match != "" {
			return strings.TrimRight(match, ".,;:)")
		}
	}
	return ""
}
