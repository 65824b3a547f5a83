package logging

import "go.uber.org/zap"

// New creates a new zap logger. Production mode drops debug output by level
// rather than silencing the stream.
func New(env string) *zap.SugaredLogger {
	if env == "production" {
		logger, _ := zap.NewProduction()
		return logger.Sugar()
	}
	logger := zap.NewExample()
	return logger.Sugar()
}
