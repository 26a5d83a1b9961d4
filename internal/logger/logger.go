// Package logger builds the zap loggers used by the server and the client.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a logger writing JSON to a rotating file and, depending on
// prod, JSON or console output to stdout.
func New(filePath string, prod bool) *zap.Logger {
	fileCore := zapcore.NewCore(jsonEncoder(), zapcore.AddSync(rotator(filePath)), zap.InfoLevel)

	var consoleEncoder zapcore.Encoder
	if prod {
		consoleEncoder = jsonEncoder()
	} else {
		consoleEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	consoleCore := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), zap.DebugLevel)

	return zap.New(zapcore.NewTee(fileCore, consoleCore), zap.AddCaller())
}

// NewFileOnly returns a logger that writes to the file and never to the
// terminal. The TUI client uses it because it owns the terminal.
func NewFileOnly(filePath string) *zap.Logger {
	core := zapcore.NewCore(jsonEncoder(), zapcore.AddSync(rotator(filePath)), zap.InfoLevel)
	return zap.New(core, zap.AddCaller())
}

func rotator(filePath string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
}

func jsonEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.MessageKey = "message"
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}
