package fanout

import (
	"context"
	"sync"

	"github.com/skywavefm/skywave/internal/catalog"
)

// StreamerRegistry maps playlist name -> the (at most one) live Streamer
// resolving it, creating one lazily on first reference and reusing it
// while it is still alive.
type StreamerRegistry struct {
	ctx      context.Context
	registry catalog.Registry
	opts     Options

	mu        sync.Mutex
	streamers map[string]*Streamer
}

// NewStreamerRegistry returns a StreamerRegistry. ctx bounds the lifetime
// of every Streamer it spawns; cancelling it shuts every running Streamer
// down.
func NewStreamerRegistry(ctx context.Context, registry catalog.Registry, opts Options) *StreamerRegistry {
	return &StreamerRegistry{
		ctx:       ctx,
		registry:  registry,
		opts:      opts,
		streamers: make(map[string]*Streamer),
	}
}

// GetOrCreate returns the live Streamer for playlistName, spawning a new
// one in the background if none exists or the existing one has since
// terminated.
func (r *StreamerRegistry) GetOrCreate(playlistName string) *Streamer {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.streamers[playlistName]; ok && s.IsAlive() {
		return s
	}

	s := New(playlistName, r.registry, r.opts)
	r.streamers[playlistName] = s
	go s.Start(r.ctx)
	return s
}

// Get returns the Streamer currently registered for playlistName, if any,
// without creating one.
func (r *StreamerRegistry) Get(playlistName string) (*Streamer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streamers[playlistName]
	return s, ok
}

// List returns every Streamer the registry currently knows about,
// including terminated ones it has not yet been asked to replace.
func (r *StreamerRegistry) List() []*Streamer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Streamer, 0, len(r.streamers))
	for _, s := range r.streamers {
		out = append(out, s)
	}
	return out
}
