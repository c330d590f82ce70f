package main

import (
	"context"
	"os"
	"time"

	prof "github.com/go-while/go-cpu-mem-profiler"
	"github.com/sirupsen/logrus"
)

var Prof *prof.Profiler

// startProfiler exposes the pprof web endpoints on addr.
func startProfiler(addr string, logger logrus.FieldLogger) {
	Prof = prof.NewProf()
	go Prof.PprofWeb(addr)
	logger.Infof("[WEB]: pprof listening on %s", addr)
}

// monitorUpdateFile checks for the existence of the update file every interval
// and signals for shutdown when found, after renaming it to <name>.todo
func monitorUpdateFile(ctx context.Context, updateFilePath string, interval time.Duration, shutdownChan chan<- bool, logger logrus.FieldLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Infof("[WEB]: Update file monitor started, checking for '%s' every %s", updateFilePath, interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if _, err := os.Stat(updateFilePath); err != nil {
			// File doesn't exist, continue monitoring
			continue
		}
		logger.Infof("[WEB]: Update file '%s' detected, triggering graceful shutdown", updateFilePath)

		if err := os.Rename(updateFilePath, updateFilePath+".todo"); err != nil {
			logger.Warnf("[WEB]: Failed to rename update file '%s': %v", updateFilePath, err)
			continue
		}

		// Signal shutdown
		select {
		case shutdownChan <- true:
			logger.Infof("[WEB]: Shutdown signal sent via update file monitor")
		default:
			logger.Infof("[WEB]: Shutdown channel already signaled")
		}
		return
	}
}
