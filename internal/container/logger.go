package container

import (
	"fmt"

	"github.com/samber/do"
	"go.uber.org/zap"
)

// NewLogger builds a zap logger for the given format.
func NewLogger(format string) (*zap.Logger, error) {
	switch format {
	case "", "console":
		return zap.NewDevelopment()
	case "json":
		return zap.NewProduction()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// LoggerPackage provides the *zap.Logger.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		return NewLogger(opts.LogFormat)
	})
}
