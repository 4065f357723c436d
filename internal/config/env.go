package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/loopreel/loopreel/internal/log"
)

// ParseString reads a string from an environment variable or returns
// defaultValue, logging the source for observability.
func ParseString(key, defaultValue string) string {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().Str("key", key).Str("default", defaultValue).Str("source", "default").Msg("using default value")
		return defaultValue
	}
	logger.Debug().Str("key", key).Str("value", v).Str("source", "environment").Msg("using environment variable")
	return v
}

// ParseStringList reads a comma-separated environment variable into a
// slice, trimming whitespace around each element.
func ParseStringList(key string, defaultValue []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return defaultValue
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseBool reads a boolean from an environment variable, accepting
// "true"/"false"/"1"/"0"/"yes"/"no" case-insensitively.
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		logger.Warn().Str("key", key).Str("value", v).Msg("invalid boolean in environment variable, using default")
		return defaultValue
	}
}

// ParseInt reads an integer from an environment variable, falling back
// to defaultValue on parse errors or absence.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Msg("invalid integer in environment variable, using default")
		return defaultValue
	}
	return i
}
