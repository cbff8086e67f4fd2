package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestUninitializedLoggingIsNoop(t *testing.T) {
	baseLogger, sugarLogger = nil, nil

	assert.NotPanics(t, func() {
		Infof("hello %s", "world")
		Warnf("hello")
		Errorf("hello")
		L().Info("structured")
		Sync()
	})
}

func TestSetLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { baseLogger, sugarLogger = nil, nil })

	Infof("payment %d confirmed", 7)
	Warnf("mirror degraded")
	L().Error("structured", zap.String("reference", "ws_CO_1"))

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "payment 7 confirmed", entries[0].Message)
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
		assert.Equal(t, "ws_CO_1", entries[2].ContextMap()["reference"])
	}
}

func TestInitLogging(t *testing.T) {
	t.Cleanup(func() { baseLogger, sugarLogger = nil, nil })

	assert.NoError(t, InitLogging(true, "warn"))
	assert.True(t, L().Core().Enabled(zapcore.WarnLevel))
	assert.False(t, L().Core().Enabled(zapcore.InfoLevel))

	assert.NoError(t, InitLogging(false, "not-a-level"))
	assert.True(t, L().Core().Enabled(zapcore.DebugLevel))
}
