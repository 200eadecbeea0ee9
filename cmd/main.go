package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"custodian/config"
	"custodian/logger"
	"custodian/pipeline"
	"custodian/scanner"
	"custodian/tracing"
	"custodian/update"
	"custodian/version"
)

// Exit codes. Zero sensitive files is still a success.
const (
	exitOK         = 0
	exitBadConfig  = 1
	exitBadScanDir = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := tracing.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start trace: %v\n", err)
	} else {
		defer tracing.Stop()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return exitBadConfig
	}

	logger.Init(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel, make(chan os.Signal, 1))

	if release, newer, err := update.Check(ctx, version.Version); err == nil && newer {
		if strings.Contains(strings.ToLower(release.Notes), "security") {
			logger.Warnf("Update available: %s -> %s (security fixes included)", version.Version, release.Version)
		} else {
			logger.Infof("Update available: %s -> %s", version.Version, release.Version)
		}
	}

	result, err := pipeline.New(cfg).Run(ctx)
	if err != nil {
		if errors.Is(err, scanner.ErrInvalidDirectory) {
			logger.Errorf("%v", err)
			return exitBadScanDir
		}
		logger.Errorf("Pipeline failed: %v", err)
		return exitBadConfig
	}

	logger.Infof("Run complete: %d files scanned, %d sensitive, %d backed up",
		len(result.Records), result.SensitiveCount, result.BackedUpCount)
	return exitOK
}

func handleSignals(cancel context.CancelFunc, sigChan chan os.Signal) {
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("Interrupt signal received. Shutting down...")
	cancel()
}
