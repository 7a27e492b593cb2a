package loader

import "strings"

// Redacted replaces the value of a meta key that looks sensitive
const Redacted = "***REDACTED***"

// DefaultSensitiveKeys are matched as case-insensitive substrings of meta keys
var DefaultSensitiveKeys = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"api_key",
	"apikey",
	"access_key",
	"private_key",
	"credential",
	"authorization",
}

func isSensitive(key string, patterns []string) bool {
	lower := strings.ToLower(key)
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// redactMeta masks sensitive values in place
func redactMeta(meta map[string]string, patterns []string) {
	for k := range meta {
		if isSensitive(k, patterns) {
			meta[k] = Redacted
		}
	}
}
