package featureflags

import (
	"os"
	"strings"
)

// DenyTransition gates the landlord deny endpoint; off by default so the
// lifecycle matches deployments that never wired a denial path.
const DenyTransition = "deny_transition"

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes (case-insensitive)
func Enabled(name string) bool {
	v := os.Getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
