package log

import "regexp"

// API keys occasionally leak into upstream error bodies. Mask them
// before anything reaches a log sink.
var apiKeyPattern = regexp.MustCompile(`sk-[a-zA-Z0-9\-_]{20,100}`)

// Sanitize masks secret-looking tokens in s.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return apiKeyPattern.ReplaceAllString(s, "sk-***")
}
