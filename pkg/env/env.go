package env

import "os"

// Get reads an environment variable, returning fallback when the
// variable is unset or blank.
func Get(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
