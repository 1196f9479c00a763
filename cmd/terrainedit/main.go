// Package main is the entry point for the terrain editor.
package main

import (
	"fmt"
	"os"

	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/editor"
	"github.com/Faultbox/midgard-terrain/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard Terrain Editor ===")
	for _, w := range cfg.Validate() {
		logger.Warn(w)
	}

	ed, err := editor.New(cfg)
	if err != nil {
		logger.Sugar.Errorf("Failed to start editor: %v", err)
		logger.Sync()
		os.Exit(1)
	}
	defer ed.Close()

	ed.Run()
}
