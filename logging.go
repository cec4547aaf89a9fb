package frontier

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLevelFromString parses a config log_level string ("debug", "info",
// "warn", "error") into a zapcore.Level, matching the names zap itself
// accepts for UnmarshalText.
func zapLevelFromString(s string) (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return level, nil
}

// NewLogger builds the process-wide *zap.SugaredLogger from Config.LogLevel.
func NewLogger(levelName string) (*zap.SugaredLogger, error) {
	level, err := zapLevelFromString(levelName)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
