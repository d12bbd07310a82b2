package env

import (
	"os"
	"strings"
)

// Prefix namespaces the service's variables.
const Prefix = "SHOKUJIN_"

// Get returns the trimmed value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// GetPrefixed reads SHOKUJIN_<key> and falls back to the bare key, so
// variables shared with other tooling (LOG_FORMAT) still apply.
func GetPrefixed(key, fallback string) string {
	return Get(Prefix+key, Get(key, fallback))
}
