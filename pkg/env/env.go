// Package env reads process environment variables with fallbacks, for the few
// knobs (log level, port) consulted before the full config is loaded.
package env

import "os"

// Get returns the named variable, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
