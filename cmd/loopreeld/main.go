// Package main is the loopreel daemon entrypoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/loopreel/loopreel/internal/app"
	"github.com/loopreel/loopreel/internal/config"
	"github.com/loopreel/loopreel/internal/log"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	log.Configure(log.Config{Level: "info", Service: "loopreel", Version: version})
	logger := log.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dataDir := strings.TrimSpace(config.ParseString("LOOPREEL_DATA", "./data"))
	effectiveConfigPath := strings.TrimSpace(*configPath)
	if effectiveConfigPath == "" {
		autoPath := filepath.Join(dataDir, "config.yaml")
		if _, err := os.Stat(autoPath); err == nil {
			effectiveConfigPath = autoPath
		}
	}

	holder, err := config.NewHolder(effectiveConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", effectiveConfigPath).Msg("failed to load configuration")
	}
	snap := holder.Current()
	cfg := snap.Config

	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("buildDate", buildDate).
		Int("libraryDirs", len(cfg.Directories)).
		Int("seasonalDirs", len(cfg.SeasonalDirectories)).
		Msg("starting loopreel")

	cacheDir := strings.TrimSpace(config.ParseString("LOOPREEL_CACHE_DIR", filepath.Join(dataDir, "cache")))
	tempDir := strings.TrimSpace(config.ParseString("LOOPREEL_TEMP_DIR", filepath.Join(dataDir, "temp")))
	stateBackend := strings.TrimSpace(config.ParseString("LOOPREEL_STATE_BACKEND", "json"))

	for _, d := range []string{dataDir, cacheDir, tempDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			logger.Fatal().Err(err).Str("dir", d).Msg("failed to create required directory")
		}
	}

	a, err := app.New(holder, app.Options{CacheDir: cacheDir, TempDir: tempDir, StateBackend: stateBackend})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to construct application")
	}

	host := "0.0.0.0"
	port := 8080
	autoOpen := false
	if cfg.Network != nil && cfg.Network.Server != nil {
		if cfg.Network.Server.Host != "" {
			host = cfg.Network.Server.Host
		}
		if cfg.Network.Server.Port != nil {
			port = *cfg.Network.Server.Port
		}
		if cfg.Network.Server.AutoOpenBrowser != nil {
			autoOpen = *cfg.Network.Server.AutoOpenBrowser
		}
	}
	httpAddr := fmt.Sprintf("%s:%d", host, port)

	allowedOrigins := config.ParseStringList("LOOPREEL_ALLOWED_ORIGINS", nil)
	csp := config.ParseString("LOOPREEL_CSP", "")
	rateLimitRPS := config.ParseInt("LOOPREEL_RATE_LIMIT_RPS", 20)

	if autoOpen {
		go openBrowserWhenReady(httpAddr)
	}

	if err := a.Run(ctx, httpAddr, allowedOrigins, csp, rateLimitRPS); err != nil {
		logger.Fatal().Err(err).Msg("application exited with error")
	}

	logger.Info().Msg("loopreel exiting")
}

// openBrowserWhenReady waits briefly for the listener to come up, then
// opens the jukebox UI in the default browser. No library in the
// dependency set provides this, so it shells out directly per OS.
func openBrowserWhenReady(addr string) {
	time.Sleep(500 * time.Millisecond)
	host := addr
	if strings.HasPrefix(host, "0.0.0.0:") || strings.HasPrefix(host, ":") {
		host = "localhost" + host[strings.Index(host, ":"):]
	}
	target := (&url.URL{Scheme: "http", Host: host}).String()

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		log.WithComponent("main").Warn().Err(err).Msg("failed to auto-open browser")
	}
}
