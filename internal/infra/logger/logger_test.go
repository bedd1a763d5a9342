package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New("dev", "loud")
	assert.Error(t, err)

	l, err := New("prod", "warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
	assert.True(t, l.Core().Enabled(zap.WarnLevel))
}

func TestHelpers_AttachRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := zap.New(core)

	ctx := WithRequestID(context.Background(), "req-1")
	Warn(ctx, l, "store closed", zap.Int64("seller_id", 7))
	Info(context.Background(), l, "no id")

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	assert.Equal(t, int64(7), entries[0].ContextMap()["seller_id"])
	_, ok := entries[1].ContextMap()["request_id"]
	assert.False(t, ok)
}
