// Package station implements Channel: a named tuner that points at exactly
// one playlist at a time and migrates its listeners atomically when that
// playlist changes.
package station

import (
	"regexp"
	"sync"

	"github.com/skywavefm/skywave/internal/fanout"
)

// nameRe is the channel-name grammar every HTTP entrypoint enforces before
// a name reaches a registry.
var nameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}$`)

// ValidName reports whether name is an acceptable channel name.
func ValidName(name string) bool { return nameRe.MatchString(name) }

// Channel is a named tuner. Listeners attach to a Channel's name, not to a
// Streamer directly; PlayPlaylist moves them between Streamers behind the
// scenes.
type Channel struct {
	name string

	mu              sync.Mutex
	currentPlaylist string
}

// New creates a Channel with no playlist selected yet.
func New(name string) *Channel {
	return &Channel{name: name}
}

// Name returns the channel's name.
func (c *Channel) Name() string { return c.name }

// CurrentPlaylist returns the playlist currently assigned to this channel,
// or "" if none has been selected yet.
func (c *Channel) CurrentPlaylist() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentPlaylist
}

// PlayPlaylist switches the channel to newPlaylist. If newPlaylist is
// already playing, this is a no-op. Otherwise it ensures a live Streamer
// exists for newPlaylist (creating one if needed or if the existing one
// has died) and migrates every listener currently attached under this
// channel's name from the old Streamer to the new one in a single atomic
// step under the channel's lock.
func (c *Channel) PlayPlaylist(newPlaylist string, registry *fanout.StreamerRegistry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentPlaylist == newPlaylist {
		return
	}
	oldPlaylist := c.currentPlaylist
	c.currentPlaylist = newPlaylist

	newStreamer := registry.GetOrCreate(newPlaylist)

	if oldPlaylist == "" {
		return
	}
	oldStreamer, ok := registry.Get(oldPlaylist)
	if !ok {
		return
	}

	for _, q := range oldStreamer.DetachChannel(c.name) {
		newStreamer.AddListener(c.name, q)
	}
}

// SendCommand forwards cmd to the Streamer currently backing this
// channel's playlist, if any.
func (c *Channel) SendCommand(cmd fanout.Command, registry *fanout.StreamerRegistry) {
	c.mu.Lock()
	playlist := c.currentPlaylist
	c.mu.Unlock()

	if playlist == "" {
		return
	}
	if s, ok := registry.Get(playlist); ok {
		s.PutCommand(cmd)
	}
}
