// mapbake generates the terrain maps on the CPU and writes them as PNG or
// TIFF images.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/bake"
	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/scenefile"
)

func main() {
	// The viewer's flags live on flag.CommandLine, so mapbake uses its own set.
	fs := flag.NewFlagSet("mapbake", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to terrain config file")
	scenePath := fs.String("scene", "", "Path to scene file")
	outDir := fs.String("out", "maps", "Output directory")
	format := fs.String("format", "png", "Image format: png or tiff")
	resolution := fs.Int("resolution", 0, "Map resolution (overrides config)")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Usage = func() { printUsage(fs) }
	_ = fs.Parse(os.Args[1:])

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *resolution > 0 {
		cfg.Maps.Resolution = *resolution
	}
	if *scenePath == "" {
		*scenePath = cfg.Scene.Path
	}

	level := cfg.Logging.Level
	if *debug {
		level = "debug"
	}
	if err := logger.Init(level, cfg.Logging.LogFile, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	imgFormat, err := bake.ParseFormat(*format)
	if err != nil {
		logger.Error("invalid format", zap.Error(err))
		os.Exit(1)
	}

	var doc *scenefile.Document
	if *scenePath != "" {
		doc, err = scenefile.Load(*scenePath)
		if err != nil {
			logger.Error("failed to load scene", zap.Error(err))
			os.Exit(1)
		}
	}

	p, err := bake.Generate(terrain.FromConfig(cfg).Maps, doc)
	if err != nil {
		logger.Error("failed to generate maps", zap.Error(err))
		os.Exit(1)
	}

	paths, err := bake.Export(p, *outDir, imgFormat)
	if err != nil {
		logger.Error("failed to export maps", zap.Error(err))
		os.Exit(1)
	}
	for _, path := range paths {
		fmt.Println(path)
	}
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, `mapbake - generate terrain maps without a GPU

Usage:
  mapbake [options]

Options:`)
	fs.PrintDefaults()
	fmt.Fprintln(os.Stderr, `
Examples:
  mapbake -resolution 512 -out ./maps
  mapbake -config terrain.yaml -scene island.scene.yaml -format tiff`)
}
