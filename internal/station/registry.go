package station

import "sync"

// ChannelRegistry maps channel name -> Channel, creating one lazily on
// first reference.
type ChannelRegistry struct {
	mu       sync.Mutex
	channels map[string]*Channel
}

// NewChannelRegistry returns an empty ChannelRegistry.
func NewChannelRegistry() *ChannelRegistry {
	return &ChannelRegistry{channels: make(map[string]*Channel)}
}

// GetOrCreate returns the Channel named name, creating it if this is the
// first reference.
func (r *ChannelRegistry) GetOrCreate(name string) *Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.channels[name]; ok {
		return c
	}
	c := New(name)
	r.channels[name] = c
	return c
}

// Get returns the Channel named name, if it has been created.
func (r *ChannelRegistry) Get(name string) (*Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.channels[name]
	return c, ok
}

// List returns every known Channel.
func (r *ChannelRegistry) List() []*Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Channel, 0, len(r.channels))
	for _, c := range r.channels {
		out = append(out, c)
	}
	return out
}

// Remove deletes a channel from the registry (used when the StreamEndpoint
// observes its last listener disconnect).
func (r *ChannelRegistry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, name)
}
