// Package instance identifies the running process replica in logs and locks.
package instance

import (
	"fmt"
	"os"

	"github.com/veoxhq/veox-backend/pkg/env"
)

// GetID returns the replica identifier. It prefers an explicit WORKER_ID,
// then the hostname the orchestrator assigned, then a pid-based fallback.
func GetID() string {
	if id := env.Get("WORKER_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fmt.Sprintf("worker-%d", os.Getpid())
}
