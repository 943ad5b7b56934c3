package station

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/skywavefm/skywave/internal/fanout"
	"github.com/skywavefm/skywave/internal/queue"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	playlists map[string][]string
	filenames map[string]string
}

func (f *fakeRegistry) GetPlaylist(name string) ([]string, bool) {
	keys, ok := f.playlists[name]
	return keys, ok
}
func (f *fakeRegistry) GetTrackFilename(key string) (string, bool) {
	fn, ok := f.filenames[key]
	return fn, ok
}
func (f *fakeRegistry) GetSignedURL(filename string) (string, error) {
	return "https://cdn.test/" + filename, nil
}

type silentProcess struct{}

func (silentProcess) Read(buf []byte) (int, error) { return 0, io.EOF }
func (silentProcess) Close() error                 { return nil }

func TestPlayPlaylistMigratesListenersAtomically(t *testing.T) {
	reg := &fakeRegistry{
		playlists: map[string][]string{"jazz": {"a"}, "rock": {"b"}},
		filenames: map[string]string{"a": "a.mp3", "b": "b.mp3"},
	}
	opts := fanout.Options{
		ChunkSize:  8,
		RetryDelay: time.Millisecond,
		Spawner: func(ctx context.Context, url string) (fanout.Process, error) {
			return silentProcess{}, nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	streamers := fanout.NewStreamerRegistry(ctx, reg, opts)

	ch := New("lobby")
	ch.PlayPlaylist("jazz", streamers)

	jazzStreamer, ok := streamers.Get("jazz")
	require.True(t, ok)

	q := queue.New("lobby", 4)
	jazzStreamer.AddListener(ch.Name(), q)
	require.Equal(t, 1, jazzStreamer.ListenerCount())

	ch.PlayPlaylist("rock", streamers)

	rockStreamer, ok := streamers.Get("rock")
	require.True(t, ok)

	require.Equal(t, 0, jazzStreamer.ListenerCount(), "listener must be fully detached from the old streamer")
	require.Equal(t, 1, rockStreamer.ListenerCount(), "listener must be attached to the new streamer")
	require.Equal(t, "rock", ch.CurrentPlaylist())
}

func TestPlayPlaylistSameNameIsNoop(t *testing.T) {
	reg := &fakeRegistry{playlists: map[string][]string{"jazz": {"a"}}, filenames: map[string]string{"a": "a.mp3"}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	streamers := fanout.NewStreamerRegistry(ctx, reg, fanout.Options{
		Spawner: func(ctx context.Context, url string) (fanout.Process, error) { return silentProcess{}, nil },
	})

	ch := New("lobby")
	ch.PlayPlaylist("jazz", streamers)
	first, _ := streamers.Get("jazz")

	ch.PlayPlaylist("jazz", streamers)
	second, _ := streamers.Get("jazz")

	require.Same(t, first, second, "re-selecting the current playlist must not spawn a new streamer")
}

func TestSendCommandForwardsToCurrentStreamer(t *testing.T) {
	reg := &fakeRegistry{playlists: map[string][]string{"jazz": {"a"}}, filenames: map[string]string{"a": "a.mp3"}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	streamers := fanout.NewStreamerRegistry(ctx, reg, fanout.Options{
		Spawner: func(ctx context.Context, url string) (fanout.Process, error) { return silentProcess{}, nil },
	})

	ch := New("lobby")
	ch.SendCommand(fanout.CommandNext, streamers) // no playlist yet, must not panic

	ch.PlayPlaylist("jazz", streamers)
	jazz, ok := streamers.Get("jazz")
	require.True(t, ok)

	ch.SendCommand(fanout.CommandStop, streamers)
	require.Eventually(t, func() bool { return !jazz.IsAlive() }, time.Second, 5*time.Millisecond,
		"stop must reach the streamer backing the channel's current playlist")
}
