package logging

import (
	"io"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewFileLogger is like NewLogger at the given level but also appends JSON lines to a size rotated
// file at path. Closing the returned io.Closer closes the file.
func NewFileLogger(name string, level Level, path string) (Logger, io.Closer, error) {
	config := NewLoggerConfig()
	atomic := NewAtomicLevelAt(level)
	config.Level = atomic.zap
	console, err := config.Build()
	if err != nil {
		return nil, nil, err
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 3,
		Compress:   true,
	}
	encoderConfig := config.EncoderConfig
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), atomic.zap)

	return newImpl(name, atomic, zapcore.NewTee(console.Core(), fileCore)), file, nil
}
