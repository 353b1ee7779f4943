// Package redact provides utilities for redacting sensitive information from strings
// before they are logged or returned in error responses. API keys travel in query
// strings of the photo API and credentials in database and broker URLs; neither
// may leak into logs.
package redact

import (
	"net/url"
	"regexp"
	"strings"
)

// Constants for redaction placeholders
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
)

// sensitiveParams are query parameter names whose values are always masked
var sensitiveParams = map[string]bool{
	"consumer_key": true,
	"api_key":      true,
	"apikey":       true,
	"key":          true,
	"token":        true,
	"access_token": true,
	"password":     true,
}

// Precompiled regex patterns
var (
	// Connection strings with embedded credentials
	connRegex = regexp.MustCompile(`(?i)(postgres|postgresql|amqp|amqps)://[^@\s]+@`)

	// Credentials and tokens
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`)
	apiKeyRegex   = regexp.MustCompile(
		`(?i)(consumer_key|api[_-]?key|token|secret)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)

	patterns = []struct {
		re          *regexp.Regexp
		replacement string
	}{
		{connRegex, "${1}://" + RedactedCredentialPlaceholder + "@"},
		{passwordRegex, "${1}${2}" + RedactedCredentialPlaceholder},
		{apiKeyRegex, "${1}${2}" + RedactedKeyPlaceholder},
	}
)

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, p := range patterns {
		result = p.re.ReplaceAllString(result, p.replacement)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}

// URL masks credentials and sensitive query parameters in a URL.
// Input that does not parse is passed through String instead.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return String(raw)
	}

	if u.User != nil {
		u.User = url.User(RedactedCredentialPlaceholder)
	}

	if u.RawQuery != "" {
		q := u.Query()
		for name := range q {
			if sensitiveParams[strings.ToLower(name)] {
				q.Set(name, RedactedKeyPlaceholder)
			}
		}
		u.RawQuery = q.Encode()
	}

	// Keep placeholders readable instead of percent-encoded
	out := u.String()
	out = strings.ReplaceAll(out, url.QueryEscape(RedactedKeyPlaceholder), RedactedKeyPlaceholder)
	out = strings.ReplaceAll(out, url.PathEscape(RedactedCredentialPlaceholder), RedactedCredentialPlaceholder)
	return out
}
