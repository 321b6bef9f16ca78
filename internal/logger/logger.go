package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// Init installs the global logger used through zap.L(). Production gets JSON
// output, every other environment the human readable development encoder.
func Init(environment string) error {
	var (
		l   *zap.Logger
		err error
	)

	switch environment {
	case "production", "prod":
		l, err = zap.NewProduction()
	default:
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return fmt.Errorf("failed to build %s logger -> %w", environment, err)
	}

	zap.ReplaceGlobals(l)

	return nil
}
