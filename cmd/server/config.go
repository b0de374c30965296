package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Chesten223/SoRight3/internal/config"
	"github.com/Chesten223/SoRight3/internal/platform/logger"
)

// bootstrap loads the configuration and installs the application logger.
// Logs go to stdout unless logOut is set; commands that print results log
// to stderr instead.
func bootstrap(opts *rootOptions, logOut io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var log *slog.Logger
	if logOut == nil {
		log = logger.Setup(cfg.Server)
	} else {
		log = logger.New(logOut, cfg.Server.LogLevel)
		slog.SetDefault(log)
	}
	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Bool("cache_enabled", cfg.Cache.URL != ""))
	return cfg, log, nil
}
