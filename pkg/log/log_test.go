package log

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoggerSubscribeReceivesEvent(t *testing.T) {
	logger := NewMockLogger()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger.Start(ctx)

	feed, unsub := logger.Subscribe()
	defer unsub()

	logger.Info().Src("track").Track("v0").Msg("prepared")

	select {
	case entry := <-feed:
		require.Equal(t, LevelInfo, entry.Level)
		require.Equal(t, "track", entry.Src)
		require.Equal(t, "v0", entry.Track)
		require.Equal(t, "prepared", entry.Msg)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for log entry")
	}
}

func TestLoggerMsgf(t *testing.T) {
	logger := NewMockLogger()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger.Start(ctx)

	feed, unsub := logger.Subscribe()
	defer unsub()

	logger.Warn().Msgf("segment %d exceeds %d bytes", 3, 65000)

	select {
	case entry := <-feed:
		require.Equal(t, "segment 3 exceeds 65000 bytes", entry.Msg)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for log entry")
	}
}
