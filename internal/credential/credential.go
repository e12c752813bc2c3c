// Package credential checks the shape of caller-supplied Gemini API keys.
package credential

import "regexp"

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{20,}$`)

// Valid reports whether key looks like an API key: at least 20 characters
// drawn from letters, digits, underscore and hyphen. It does not check that
// the key is live; the upstream service reports that on first use.
func Valid(key string) bool {
	if key == "" {
		return false
	}
	return keyPattern.MatchString(key)
}
