// Package main is the entry point for the tagoverlay live preview.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/tagoverlay/internal/app"
	"github.com/Faultbox/tagoverlay/internal/config"
	"github.com/Faultbox/tagoverlay/internal/logger"
)

var (
	flagWriteConfig = flag.String("write-config", "", "Write the effective config to this path and exit")
	flagSaveConfig  = flag.Bool("save-config", false, "Save the effective config to the user config directory and exit")
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *flagWriteConfig != "":
		if err := cfg.SaveTo(*flagWriteConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			os.Exit(1)
		}
		return
	case *flagSaveConfig:
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== tagoverlay ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	a, err := app.New(cfg)
	if err != nil {
		logger.Error("failed to start preview", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	runErr := a.Run()
	closeErr := a.Close()
	if runErr != nil {
		logger.Error("preview error", zap.Error(runErr))
		logger.Sync()
		os.Exit(1)
	}
	if closeErr != nil {
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("preview closed normally")
}
