package instance

import (
	"os"

	"github.com/shokujin-wiki/shokujin-api/pkg/env"
)

// IDEnv names the variable that overrides the id attached to startup logs.
// SHOKUJIN_INSTANCE_ID wins over a platform provided INSTANCE_ID.
const IDEnv = "INSTANCE_ID"

// GetID returns the configured instance id, the hostname, or "local".
func GetID() string {
	if id := env.GetPrefixed(IDEnv, ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
