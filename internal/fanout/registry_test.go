package fanout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetOrCreateReusesLiveStreamer(t *testing.T) {
	reg := newFakeRegistry()
	reg.playlists["top40"] = []string{"a"}
	reg.filenames["a"] = "a.mp3"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sr := NewStreamerRegistry(ctx, reg, Options{
		RetryDelay: time.Millisecond,
		Spawner: func(ctx context.Context, url string) (Process, error) {
			return &pacedProcess{}, nil
		},
	})

	first := sr.GetOrCreate("top40")
	second := sr.GetOrCreate("top40")
	require.Same(t, first, second, "a live streamer must be reused, never duplicated")
}

func TestGetOrCreateReplacesTerminatedStreamer(t *testing.T) {
	reg := newFakeRegistry()
	reg.playlists["top40"] = []string{"a"}
	reg.filenames["a"] = "a.mp3"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sr := NewStreamerRegistry(ctx, reg, Options{
		RetryDelay: time.Millisecond,
		Spawner: func(ctx context.Context, url string) (Process, error) {
			return &pacedProcess{}, nil
		},
	})

	first := sr.GetOrCreate("top40")
	first.PutCommand(CommandStop)
	require.Eventually(t, func() bool { return !first.IsAlive() }, time.Second, 5*time.Millisecond)

	second := sr.GetOrCreate("top40")
	require.NotSame(t, first, second, "a terminated streamer entry is garbage and must be replaced")
	require.True(t, second.IsAlive())
}
