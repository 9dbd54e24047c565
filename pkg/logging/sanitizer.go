package logging

import (
	"regexp"
)

const (
	// MaxQueryLogLength is the maximum length of user query text to log
	MaxQueryLogLength = 100
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Pattern to match potential passwords in connection strings
	// Matches: password=xxx, pwd=xxx, pass=xxx (until next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Pattern to match connection string credentials (user:pass@host format)
	connStringPattern = regexp.MustCompile(`://[^:]+:[^@]+@[^/\s]+`)

	// Control characters that should never reach a log line from user input
	controlPattern = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// SanitizeConnectionString removes credentials from store DSNs before logging.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// SanitizeError sanitizes error messages that might contain store DSNs.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeConnectionString(err.Error())
}

// SanitizeQuery truncates and cleans user search text for logging. Search
// text is attacker-controlled; control characters are stripped so a crafted
// query cannot forge log lines.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}

	sanitized := controlPattern.ReplaceAllString(query, " ")
	if len(sanitized) > MaxQueryLogLength {
		sanitized = sanitized[:MaxQueryLogLength] + "..."
	}
	return sanitized
}
