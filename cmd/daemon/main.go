// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/vidfolio/internal/config"
	"github.com/ManuGH/vidfolio/internal/daemon"
	"github.com/ManuGH/vidfolio/internal/health"
	vflog "github.com/ManuGH/vidfolio/internal/log"
	xtls "github.com/ManuGH/vidfolio/internal/tls"
	"github.com/ManuGH/vidfolio/internal/version"
)

const (
	// defaultConfigFile is picked up from the working directory when no path is given.
	defaultConfigFile = "config.yaml"

	daemonCloseTimeout = 10 * time.Second
)

func main() {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	if len(os.Args) > 1 {
		if run, ok := subcommands[os.Args[1]]; ok {
			os.Exit(run(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	vflog.Configure(vflog.Config{
		Level:   "info",
		Service: "vidfolio",
		Version: version.Version,
	})
	logger := vflog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := resolveConfigPath(*configPath)
	loader := config.NewLoader(path, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(vflog.FieldEvent, "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}
	if err := config.Validate(cfg); err != nil {
		logger.Fatal().
			Err(err).
			Str(vflog.FieldEvent, "config.invalid").
			Msg("configuration rejected")
	}

	vflog.Configure(vflog.Config{
		Level:   cfg.LogLevel,
		Service: "vidfolio",
		Version: cfg.Version,
	})

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str(vflog.FieldEvent, "config.loaded").
		Str("source", source).
		Str("path", path).
		Msg("loaded configuration")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Fatal().
			Err(err).
			Str(vflog.FieldEvent, "startup.check_failed").
			Msg("startup checks failed, verify configuration and permissions")
	}

	serverCfg := config.ParseServerConfigForApp(cfg)
	logger.Info().
		Str(vflog.FieldEvent, "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("addr", serverCfg.ListenAddr).
		Str("catalog", cfg.Catalog.Backend).
		Msg("starting vidfolio")

	if cfg.Server.TLSSelfSigned {
		if err := xtls.EnsureCertificates(xtls.Config{
			CertPath: cfg.Server.TLSCert,
			KeyPath:  cfg.Server.TLSKey,
			Hosts:    []string{siteHost(cfg.Site.BaseURL)},
			Logger:   vflog.WithComponent("tls"),
		}); err != nil {
			logger.Fatal().
				Err(err).
				Str(vflog.FieldEvent, "tls.ensure.failed").
				Msg("failed to ensure TLS certificates")
		}
	}

	rt, err := daemon.Build(ctx, cfg)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(vflog.FieldEvent, "runtime.build_failed").
			Msg("failed to assemble runtime")
	}

	mgr, err := daemon.NewManager(serverCfg, daemon.Deps{
		Logger:         logger,
		APIHandler:     rt.Handler,
		MetricsHandler: promhttp.Handler(),
		MetricsAddr:    strings.TrimSpace(cfg.Metrics.ListenAddr),
		TLSCert:        cfg.Server.TLSCert,
		TLSKey:         cfg.Server.TLSKey,
	})
	if err != nil {
		closeRuntime(rt)
		logger.Fatal().
			Err(err).
			Str(vflog.FieldEvent, "manager.creation.failed").
			Msg("failed to create daemon manager")
	}

	var holder *config.Holder
	if path != "" {
		holder = config.NewHolder(cfg, loader)
	}

	app := daemon.NewApp(logger, mgr, holder, rt)
	if err := app.Run(ctx); err != nil {
		logger.Fatal().
			Err(err).
			Str(vflog.FieldEvent, "manager.failed").
			Msg("daemon app failed")
	}

	logger.Info().Msg("server exiting")
}

var subcommands = map[string]func([]string) int{
	"config":      runConfigCLI,
	"healthcheck": runHealthcheckCLI,
	"seed":        runSeedCLI,
	"storage":     runStorageCLI,
}

// resolveConfigPath picks the explicit path, then $VIDFOLIO_CONFIG, then
// ./config.yaml when it exists. Empty means env and defaults only.
func resolveConfigPath(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	if p := strings.TrimSpace(config.ParseString(config.EnvPrefix+"CONFIG", "")); p != "" {
		return p
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

// siteHost extracts the host of the public base URL for certificate SANs.
func siteHost(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func closeRuntime(rt *daemon.Runtime) {
	ctx, cancel := context.WithTimeout(context.Background(), daemonCloseTimeout)
	defer cancel()
	_ = rt.Close(ctx)
}
