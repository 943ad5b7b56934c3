// Package queue implements the bounded, drop-on-full listener queue each
// HTTP stream connection reads from.
package queue

import (
	"context"
	"sync/atomic"
	"time"
)

// Chunk is one fan-out unit, a slice of already-copied MP3 bytes.
type Chunk []byte

// ListenerQueue is a bounded FIFO of Chunks. Offer never blocks: once full,
// further chunks are dropped rather than backing up the producer. A single
// ListenerQueue is owned by exactly one HTTP stream connection for its
// lifetime and is not safe to reuse across connections.
type ListenerQueue struct {
	ch      chan Chunk
	channel string

	// owner is the Streamer this queue is currently attached to, recorded
	// at attach time. Playlist migration re-points it; the HTTP drainer
	// detaches through it rather than re-resolving the channel's (possibly
	// since-changed) current playlist.
	owner atomic.Value
}

// New creates a ListenerQueue with room for maxSize chunks, tagged with the
// channel name it was created to serve (used only for logging/inspection).
func New(channel string, maxSize int) *ListenerQueue {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &ListenerQueue{
		ch:      make(chan Chunk, maxSize),
		channel: channel,
	}
}

// Channel returns the channel name this queue was created for.
func (q *ListenerQueue) Channel() string { return q.channel }

// Offer enqueues a chunk without blocking. It returns false if the queue was
// full and the chunk was dropped.
func (q *ListenerQueue) Offer(c Chunk) bool {
	select {
	case q.ch <- c:
		return true
	default:
		return false
	}
}

// Poll waits up to timeout for a chunk. It returns (chunk, true) on success,
// or (nil, false) if the timeout elapses or ctx is cancelled first.
func (q *ListenerQueue) Poll(ctx context.Context, timeout time.Duration) (Chunk, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case c := <-q.ch:
		return c, true
	case <-timer.C:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

// Len returns the number of chunks currently buffered in the queue.
func (q *ListenerQueue) Len() int { return len(q.ch) }

// SetOwner records the Streamer this queue is attached to. Called by the
// Streamer itself on attach; typed as any so this package does not import
// its own consumer.
func (q *ListenerQueue) SetOwner(owner any) { q.owner.Store(owner) }

// Owner returns the Streamer recorded by the most recent SetOwner, or nil
// if the queue was never attached.
func (q *ListenerQueue) Owner() any { return q.owner.Load() }
