package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar *zap.SugaredLogger

func Init() {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	sugar = l.Sugar()
}

func get() *zap.SugaredLogger {
	if sugar == nil {
		Init()
	}
	return sugar
}

func Info(msg string, keysAndValues ...interface{}) {
	get().Infow(msg, keysAndValues...)
}

func Infof(format string, v ...interface{}) {
	get().Infof(format, v...)
}

func Warn(msg string, keysAndValues ...interface{}) {
	get().Warnw(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...interface{}) {
	get().Errorw(msg, keysAndValues...)
}

func Errorf(format string, v ...interface{}) {
	get().Errorf(format, v...)
}

func Debug(msg string, keysAndValues ...interface{}) {
	get().Debugw(msg, keysAndValues...)
}

func Debugf(format string, v ...interface{}) {
	get().Debugf(format, v...)
}

func Fatal(msg string, keysAndValues ...interface{}) {
	get().Fatalw(msg, keysAndValues...)
}

func Fatalf(format string, v ...interface{}) {
	get().Fatalf(format, v...)
}
