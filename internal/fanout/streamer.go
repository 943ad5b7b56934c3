// Package fanout implements the Streamer: the per-playlist supervision loop
// that owns exactly one TranscoderProcess at a time and fans its output out
// to every listener currently attached across every channel tuned to this
// playlist.
package fanout

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skywavefm/skywave/internal/catalog"
	"github.com/skywavefm/skywave/internal/queue"
	"github.com/skywavefm/skywave/internal/transcode"
)

// Command is a control message sent to a running Streamer.
type Command string

const (
	CommandStop Command = "stop"
	CommandNext Command = "next"
)

// State describes where a Streamer is in its lifecycle.
type State int32

const (
	StateIdleResolving State = iota
	StateStreaming
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdleResolving:
		return "idle-resolving"
	case StateStreaming:
		return "streaming"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Process is the subset of transcode.Process the Streamer depends on,
// kept as an interface so tests can substitute a fake without spawning a
// real ffmpeg subprocess.
type Process interface {
	Read(p []byte) (int, error)
	Close() error
}

// Spawner starts a transcoder for sourceURL. The default, production
// Spawner wraps transcode.Start; tests inject a fake.
type Spawner func(ctx context.Context, sourceURL string) (Process, error)

// Options configures a Streamer.
type Options struct {
	ChunkSize   int
	IdleTimeout time.Duration
	RetryDelay  time.Duration
	Spawner     Spawner
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 1024
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 10 * time.Minute
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 5 * time.Second
	}
	if o.Spawner == nil {
		o.Spawner = defaultSpawner
	}
	return o
}

func defaultSpawner(ctx context.Context, sourceURL string) (Process, error) {
	return transcode.Start(ctx, sourceURL, transcode.Options{})
}

// Streamer supervises one playlist: it resolves track keys through a
// catalog.Registry, spawns a transcoder per track, and fans decoded MP3
// chunks out to every attached ListenerQueue, regardless of which Channel
// added it.
type Streamer struct {
	playlistName string
	registry     catalog.Registry
	opts         Options

	mu        sync.Mutex
	listeners map[string]map[*queue.ListenerQueue]struct{}

	commands chan Command
	state    atomic.Int32
	started  atomic.Bool

	lastListenerNano atomic.Int64
	done             chan struct{}
}

// New creates a Streamer for playlistName. It does not start running until
// Start is called.
func New(playlistName string, registry catalog.Registry, opts Options) *Streamer {
	s := &Streamer{
		playlistName: playlistName,
		registry:     registry,
		opts:         opts.withDefaults(),
		listeners:    make(map[string]map[*queue.ListenerQueue]struct{}),
		commands:     make(chan Command, 8),
		done:         make(chan struct{}),
	}
	s.lastListenerNano.Store(time.Now().UnixNano())
	return s
}

// PlaylistName returns the playlist this Streamer is resolving.
func (s *Streamer) PlaylistName() string { return s.playlistName }

// State returns the Streamer's current lifecycle state.
func (s *Streamer) State() State { return State(s.state.Load()) }

// IsAlive reports whether the Streamer's supervision loop is still running.
func (s *Streamer) IsAlive() bool { return s.State() != StateTerminated }

// AddListener attaches q under channelName so it receives this Streamer's
// fan-out. Safe to call concurrently with the run loop.
func (s *Streamer) AddListener(channelName string, q *queue.ListenerQueue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.listeners[channelName]
	if !ok {
		set = make(map[*queue.ListenerQueue]struct{})
		s.listeners[channelName] = set
	}
	set[q] = struct{}{}
	q.SetOwner(s)
}

// RemoveListener detaches q from channelName. Safe to call even after the
// Streamer has terminated.
func (s *Streamer) RemoveListener(channelName string, q *queue.ListenerQueue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.listeners[channelName]
	if !ok {
		return
	}
	delete(set, q)
	if len(set) == 0 {
		delete(s.listeners, channelName)
	}
}

// DetachChannel removes and returns every listener queue currently attached
// under channelName, atomically with respect to the run loop's fan-out.
// Used by Channel.PlayPlaylist to migrate listeners to a new Streamer so
// that no queue is ever attached to both Streamers at once. Between this
// call and the queue's AddListener on the new Streamer, neither Streamer
// delivers to it.
func (s *Streamer) DetachChannel(channelName string) []*queue.ListenerQueue {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.listeners[channelName]
	if !ok {
		return nil
	}
	out := make([]*queue.ListenerQueue, 0, len(set))
	for q := range set {
		out = append(out, q)
	}
	delete(s.listeners, channelName)
	return out
}

// ChannelListenerCount returns how many listener queues are attached under
// channelName.
func (s *Streamer) ChannelListenerCount(channelName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners[channelName])
}

// ListenerCount returns the total number of attached listener queues across
// every channel.
func (s *Streamer) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, set := range s.listeners {
		n += len(set)
	}
	return n
}

// PutCommand enqueues a control command. Delivery is lossless: the
// capacity-8 buffer is sized generously against realistic host command
// rates, and PutCommand blocks briefly rather than drop a stop/next.
func (s *Streamer) PutCommand(cmd Command) {
	select {
	case s.commands <- cmd:
	case <-s.done:
	}
}

// Start runs the supervision loop until ctx is cancelled, a "stop" command
// arrives, or IdleTimeout elapses with no attached listeners. Calling it a
// second time is a no-op. It blocks;
// callers that want it running in the background should invoke it in its
// own goroutine (this is exactly what StreamerRegistry does).
func (s *Streamer) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	defer func() {
		s.state.Store(int32(StateTerminated))
		close(s.done)
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		s.state.Store(int32(StateIdleResolving))
		trackKeys, ok := s.registry.GetPlaylist(s.playlistName)
		if !ok || len(trackKeys) == 0 {
			slog.Warn("fanout: playlist not found or empty", "playlist", s.playlistName)
			if !s.sleep(ctx, s.opts.RetryDelay) {
				return
			}
			continue
		}

		type resolved struct{ key, filename string }
		tracks := make([]resolved, 0, len(trackKeys))
		for _, key := range trackKeys {
			filename, ok := s.registry.GetTrackFilename(key)
			if !ok {
				slog.Warn("fanout: track key not found in registry", "key", key)
				continue
			}
			tracks = append(tracks, resolved{key: key, filename: filename})
		}
		if len(tracks) == 0 {
			slog.Warn("fanout: no valid tracks found, waiting", "playlist", s.playlistName)
			if !s.sleep(ctx, s.opts.RetryDelay) {
				return
			}
			continue
		}

		rand.Shuffle(len(tracks), func(i, j int) { tracks[i], tracks[j] = tracks[j], tracks[i] })

		for _, track := range tracks {
			if ctx.Err() != nil {
				return
			}
			if s.consumeStopCommand() {
				return
			}

			trackURL, err := s.registry.GetSignedURL(track.filename)
			if err != nil {
				slog.Error("fanout: could not sign track url", "filename", track.filename, "error", err)
				continue
			}
			slog.Info("fanout: now playing", "playlist", s.playlistName, "key", track.key, "filename", track.filename)

			if s.playTrack(ctx, trackURL) {
				return
			}
		}
	}
}

// playTrack streams a single track to completion, returning true if the
// Streamer should terminate entirely (stop command or idle timeout).
func (s *Streamer) playTrack(ctx context.Context, trackURL string) (terminate bool) {
	proc, err := s.opts.Spawner(ctx, trackURL)
	if err != nil {
		slog.Error("fanout: failed to start transcoder", "error", err)
		s.sleep(ctx, s.opts.RetryDelay)
		return false
	}
	s.state.Store(int32(StateStreaming))

	defer func() {
		if cerr := proc.Close(); cerr != nil {
			slog.Debug("fanout: transcoder exit", "error", cerr)
		}
	}()

	buf := make([]byte, s.opts.ChunkSize)
	for {
		select {
		case cmd := <-s.commands:
			switch cmd {
			case CommandStop:
				slog.Info("fanout: streamer stopped", "playlist", s.playlistName)
				return true
			case CommandNext:
				slog.Info("fanout: skipping track", "playlist", s.playlistName)
				return false
			}
		default:
		}

		n, err := proc.Read(buf)
		if n > 0 {
			chunk := make(queue.Chunk, n)
			copy(chunk, buf[:n])
			s.broadcast(chunk)
		}
		if err != nil {
			if err != io.EOF {
				slog.Debug("fanout: transcoder read error", "error", err)
			}
			slog.Info("fanout: end of track reached", "playlist", s.playlistName)
			return false
		}

		if s.idleExpired() {
			slog.Info("fanout: no listeners, exiting", "playlist", s.playlistName, "timeout", s.opts.IdleTimeout)
			return true
		}
	}
}

// broadcast fans chunk out to every attached listener queue, dropping on
// any queue that is full rather than blocking the producer.
func (s *Streamer) broadcast(chunk queue.Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hasListeners := false
	for _, set := range s.listeners {
		if len(set) > 0 {
			hasListeners = true
			break
		}
	}
	if hasListeners {
		s.lastListenerNano.Store(time.Now().UnixNano())
	}

	for _, set := range s.listeners {
		for q := range set {
			q.Offer(chunk)
		}
	}
}

func (s *Streamer) idleExpired() bool {
	last := time.Unix(0, s.lastListenerNano.Load())
	return time.Since(last) > s.opts.IdleTimeout
}

// consumeStopCommand drains a pending stop command without blocking; used
// between tracks so a stop issued while nothing is playing still lands.
func (s *Streamer) consumeStopCommand() bool {
	select {
	case cmd := <-s.commands:
		if cmd == CommandStop {
			return true
		}
	default:
	}
	return false
}

// sleep waits for d or ctx cancellation, returning false if ctx was
// cancelled first.
func (s *Streamer) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
