package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/loopreel/loopreel/internal/log"
)

// envPrefix namespaces every environment override, mirroring the
// teacher's single-prefix override convention.
const envPrefix = "LOOPREEL_"

// Load reads the YAML file at path (if it exists), strictly decodes it
// (unknown keys are an error, per the teacher's KnownFields(true)
// convention), deep-merges it over Defaults(), applies environment
// overrides, and validates the result.
func Load(path string) (FileConfig, error) {
	base := Defaults()

	var file FileConfig
	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
		switch {
		case err == nil:
			dec := yaml.NewDecoder(strings.NewReader(string(data)))
			dec.KnownFields(true)
			if err := dec.Decode(&file); err != nil {
				return FileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			log.WithComponent("config").Warn().Str("path", path).Msg("config file not found, using defaults")
		default:
			return FileConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	merged := Merge(base, file)
	applyEnvOverrides(&merged)

	if err := Validate(merged); err != nil {
		return FileConfig{}, fmt.Errorf("validate config: %w", err)
	}
	return merged, nil
}

// applyEnvOverrides layers LOOPREEL_* environment variables over the
// file-derived config, logging the source of each override so operators
// can see why a running value differs from the file on disk.
func applyEnvOverrides(cfg *FileConfig) {
	logger := log.WithComponent("config")

	if v, ok := lookupEnv("DIRECTORIES"); ok {
		cfg.Directories = strings.Split(v, string(os.PathListSeparator))
		logger.Info().Str("env", envPrefix+"DIRECTORIES").Msg("overriding directories from environment")
	}
	if v, ok := lookupEnv("SERVER_HOST"); ok {
		if cfg.Network == nil {
			cfg.Network = &NetworkConfig{Server: &ServerConfig{}}
		}
		cfg.Network.Server.Host = v
		logger.Info().Str("env", envPrefix+"SERVER_HOST").Msg("overriding server host from environment")
	}
	if v, ok := lookupEnv("SERVER_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			if cfg.Network == nil {
				cfg.Network = &NetworkConfig{Server: &ServerConfig{}}
			}
			cfg.Network.Server.Port = &port
			logger.Info().Str("env", envPrefix+"SERVER_PORT").Msg("overriding server port from environment")
		} else {
			logger.Warn().Str("env", envPrefix+"SERVER_PORT").Str("value", v).Msg("ignoring non-numeric port override")
		}
	}
	if v, ok := lookupEnv("PERFORMANCE_MODE"); ok {
		cfg.Performance.Mode = v
		logger.Info().Str("env", envPrefix+"PERFORMANCE_MODE").Msg("overriding performance mode from environment")
	}
}

func lookupEnv(suffix string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + suffix)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Validate rejects configurations that would make the jukebox unable to
// run at all: no library directories, or nonsensical sizes.
func Validate(cfg FileConfig) error {
	if len(cfg.Directories) == 0 && len(cfg.SeasonalDirectories) == 0 {
		return fmt.Errorf("at least one of directories or seasonalDirectories must be configured")
	}
	if cfg.Video != nil {
		if cfg.Video.PreprocessedQueueSize != nil && *cfg.Video.PreprocessedQueueSize < 1 {
			return fmt.Errorf("video.preprocessedQueueSize must be >= 1")
		}
		if cfg.Video.PlaybackQueueSize != nil && *cfg.Video.PlaybackQueueSize < 1 {
			return fmt.Errorf("video.playbackQueueSize must be >= 1")
		}
	}
	for i, s := range cfg.SeasonalDirectories {
		if s.Likelihood < 0 || s.Likelihood > 1 {
			return fmt.Errorf("seasonalDirectories[%d].likelihood must be in [0,1], got %f", i, s.Likelihood)
		}
	}
	if cfg.Network != nil && cfg.Network.Server != nil && cfg.Network.Server.Port != nil {
		if p := *cfg.Network.Server.Port; p < 1 || p > 65535 {
			return fmt.Errorf("network.server.port must be in [1,65535], got %d", p)
		}
	}
	return nil
}
