package app

import (
	"fmt"
	"os"

	"service-job-assignment/internal/config"
	"service-job-assignment/internal/logx"
)

// NewLogger returns a JSON logger on stdout at the configured level.
func NewLogger(cfg *config.Config) (logx.Logger, error) {
	level, err := logx.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return logx.NewJSON(os.Stdout, level).With(logx.String("service", "service-job-assignment")), nil
}
