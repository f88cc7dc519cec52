package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zap.InfoLevel, lvl)

	lvl, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, zap.DebugLevel, lvl)

	lvl, err = ParseLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, zap.WarnLevel, lvl)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestComponentLoggerUsesGlobal(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Set(zap.New(core).Sugar())
	t.Cleanup(func() { Set(nil) })

	ComponentLogger("runner").Infow("started", FieldRunID, "abc")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "runner", entries[0].LoggerName)
	assert.Equal(t, "abc", entries[0].ContextMap()[FieldRunID])
}

func TestSetNilFallsBackToNop(t *testing.T) {
	Set(nil)
	require.NotNil(t, Logger)
	ComponentLogger("x").Infow("ignored")
}

func TestInitializeRejectsUnknownLevel(t *testing.T) {
	require.Error(t, Initialize(Options{Level: "chatty"}))
}
