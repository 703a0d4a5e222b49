package config

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds a production logger at the given level name.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	return zc.Build()
}
