package main

import (
	"log/slog"
	"path/filepath"

	"smarttask/internal/config"
	"smarttask/internal/logging"
)

// buildLogger wires the configured log format and level to stdout plus a
// file under the log directory.
func buildLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		OutputPaths: []string{
			"stdout",
			filepath.Join(cfg.Paths.LogDir, "smarttaskd.log"),
		},
	})
}
