package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func setupObserved() *observer.ObservedLogs {
	core, logs := observer.New(zap.DebugLevel)
	sugar = zap.New(core).Sugar()
	return logs
}

func TestInit(t *testing.T) {
	Init()
	assert.NotNil(t, sugar)
}

func TestInfo(t *testing.T) {
	logs := setupObserved()

	Info("test message", "key", "value")

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "test message", entries[0].Message)
	assert.Equal(t, "value", entries[0].ContextMap()["key"])
}

func TestError(t *testing.T) {
	logs := setupObserved()

	Error("test error")

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, zap.ErrorLevel.String(), entries[0].Level.String())
}

func TestInfof(t *testing.T) {
	logs := setupObserved()

	Infof("test %s", "message")

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "test message", entries[0].Message)
}

func TestDebug(t *testing.T) {
	logs := setupObserved()

	Debug("test debug")

	assert.Len(t, logs.All(), 1)
}
