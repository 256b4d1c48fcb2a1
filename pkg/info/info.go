// Package info carries build metadata, injected at link time via -ldflags.
package info

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

var (
	Version    = "0.0.0"
	GitRev     = "000000"
	BuildTime  = "2000-01-01_00:00:00"
	InstanceID = uuid.New().String()
)

var (
	EnvMode = "development"
)

func init() {
	mode := os.Getenv("COMPTA_MODE")
	if mode != "" {
		EnvMode = mode
	}
}

// String returns the one-line version stamp shown by the bots.
func String() string {
	return fmt.Sprintf("v%s (%s, built %s)", Version, GitRev, BuildTime)
}
