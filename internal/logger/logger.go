package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Logger = zap.NewNop()
	sugar  = Logger.Sugar()
)

// Init builds the process logger. Production gets JSON on stdout, anything
// else gets the colored development console encoder.
func Init(env string, debug bool) error {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.Config{
			Encoding:         "json",
			Level:            zap.NewAtomicLevelAt(zapcore.InfoLevel),
			OutputPaths:      []string{"stdout"},
			ErrorOutputPaths: []string{"stderr"},
			EncoderConfig: zapcore.EncoderConfig{
				TimeKey:        "time",
				LevelKey:       "level",
				MessageKey:     "message",
				CallerKey:      "caller",
				EncodeTime:     zapcore.ISO8601TimeEncoder,
				EncodeLevel:    zapcore.CapitalLevelEncoder,
				EncodeCaller:   zapcore.ShortCallerEncoder,
				EncodeDuration: zapcore.StringDurationEncoder,
			},
		}
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// Set swaps the process logger. Tests use it with zaptest or zap.NewNop.
func Set(l *zap.Logger) {
	Logger = l
	sugar = l.Sugar()
}

// L returns the structured logger for callers that want typed fields.
func L() *zap.Logger {
	return Logger.WithOptions(zap.AddCallerSkip(-1))
}

func Sync() {
	_ = Logger.Sync()
}

func Info(msg string, args ...any) {
	sugar.Infow(msg, args...)
}

func Error(msg string, args ...any) {
	sugar.Errorw(msg, args...)
}

func Debug(msg string, args ...any) {
	sugar.Debugw(msg, args...)
}

func Warn(msg string, args ...any) {
	sugar.Warnw(msg, args...)
}
