// Package env reads environment variables that sit outside the typed config,
// mostly knobs the process needs before config parsing happens.
package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of the variable, or fallback when unset.
func Get(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}

// Bool reports whether the variable is set to a truthy value.
func Bool(key string) bool {
	switch strings.ToLower(Get(key, "")) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
