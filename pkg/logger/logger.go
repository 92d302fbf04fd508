// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogInit tees a JSON core writing to fp and a console core writing to stdout.
func LogInit(fp *os.File, dbg bool) *zap.Logger {
	level := logLevel(dbg)
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(fp), level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig()), zapcore.Lock(os.Stdout), level),
	)
	return zap.New(core)
}

// NewConsoleLogger writes human readable logs to stderr, keeping stdout for
// command output.
func NewConsoleLogger(dbg bool) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig()), zapcore.Lock(os.Stderr), logLevel(dbg))
	return zap.New(core)
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	pe := zap.NewProductionEncoderConfig()
	pe.EncodeTime = zapcore.ISO8601TimeEncoder
	return pe
}

func logLevel(dbg bool) zapcore.Level {
	if dbg {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}
