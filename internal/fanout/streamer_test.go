package fanout

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/skywavefm/skywave/internal/queue"
	"github.com/stretchr/testify/require"
)

// fakeRegistry is a minimal in-memory catalog.Registry for tests.
type fakeRegistry struct {
	mu        sync.Mutex
	playlists map[string][]string
	filenames map[string]string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{playlists: map[string][]string{}, filenames: map[string]string{}}
}

func (f *fakeRegistry) GetPlaylist(name string) ([]string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys, ok := f.playlists[name]
	return keys, ok
}

func (f *fakeRegistry) GetTrackFilename(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn, ok := f.filenames[key]
	return fn, ok
}

func (f *fakeRegistry) GetSignedURL(filename string) (string, error) {
	return "https://cdn.test/" + filename, nil
}

// fakeProcess yields a fixed number of chunks then EOF.
type fakeProcess struct {
	chunks [][]byte
	i      int
	closed bool
}

func (p *fakeProcess) Read(buf []byte) (int, error) {
	if p.i >= len(p.chunks) {
		return 0, io.EOF
	}
	n := copy(buf, p.chunks[p.i])
	p.i++
	return n, nil
}

func (p *fakeProcess) Close() error {
	p.closed = true
	return nil
}

func TestStreamerFansOutChunksToAllListeners(t *testing.T) {
	reg := newFakeRegistry()
	reg.playlists["top40"] = []string{"a"}
	reg.filenames["a"] = "a.mp3"

	var spawned int
	opts := Options{
		ChunkSize:  8,
		RetryDelay: time.Millisecond,
		Spawner: func(ctx context.Context, url string) (Process, error) {
			spawned++
			return &fakeProcess{chunks: [][]byte{[]byte("hello"), []byte("world")}}, nil
		},
	}

	s := New("top40", reg, opts)
	q1 := queue.New("a", 8)
	q2 := queue.New("b", 8)
	s.AddListener("station-a", q1)
	s.AddListener("station-b", q2)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	s.Start(ctx)

	require.GreaterOrEqual(t, spawned, 1)
	c1, ok := q1.Poll(context.Background(), time.Millisecond)
	require.True(t, ok)
	require.Equal(t, queue.Chunk("hello"), c1)

	c2, ok := q2.Poll(context.Background(), time.Millisecond)
	require.True(t, ok)
	require.Equal(t, queue.Chunk("hello"), c2)
}

func TestStreamerStopCommandTerminates(t *testing.T) {
	reg := newFakeRegistry()
	reg.playlists["top40"] = []string{"a"}
	reg.filenames["a"] = "a.mp3"

	opts := Options{
		ChunkSize:  8,
		RetryDelay: time.Millisecond,
		Spawner: func(ctx context.Context, url string) (Process, error) {
			return &pacedProcess{}, nil
		},
	}

	s := New("top40", reg, opts)
	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	// Give the loop a moment to enter playTrack.
	time.Sleep(20 * time.Millisecond)
	s.PutCommand(CommandStop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("streamer did not terminate on stop command")
	}
	require.Equal(t, StateTerminated, s.State())
}

// pacedProcess emits one byte per read at roughly real-time pacing,
// mirroring a -re transcoder: commands are picked up between reads.
type pacedProcess struct{}

func (p *pacedProcess) Read(buf []byte) (int, error) {
	time.Sleep(time.Millisecond)
	buf[0] = 'x'
	return 1, nil
}

func (p *pacedProcess) Close() error { return nil }

func TestStreamerIdleTimeoutTerminates(t *testing.T) {
	reg := newFakeRegistry()
	reg.playlists["top40"] = []string{"a"}
	reg.filenames["a"] = "a.mp3"

	opts := Options{
		ChunkSize:   8,
		RetryDelay:  time.Millisecond,
		IdleTimeout: 10 * time.Millisecond,
		Spawner: func(ctx context.Context, url string) (Process, error) {
			return &infiniteProcess{}, nil
		},
	}

	s := New("top40", reg, opts)
	s.lastListenerNano.Store(time.Now().Add(-time.Hour).UnixNano())

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("streamer did not self-terminate on idle timeout")
	}
}

func TestStartTwiceRunsOneSupervisionLoop(t *testing.T) {
	reg := newFakeRegistry()
	reg.playlists["top40"] = []string{"a"}
	reg.filenames["a"] = "a.mp3"

	s := New("top40", reg, Options{
		RetryDelay: time.Millisecond,
		Spawner: func(ctx context.Context, url string) (Process, error) {
			return &pacedProcess{}, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)
	time.Sleep(10 * time.Millisecond)

	// The second call must return immediately instead of running a second
	// loop over the same command inbox.
	returned := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("second Start call did not return immediately")
	}
}

type infiniteProcess struct{}

func (p *infiniteProcess) Read(buf []byte) (int, error) {
	buf[0] = 'x'
	return 1, nil
}

func (p *infiniteProcess) Close() error { return nil }
