package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOfferDropsWhenFull(t *testing.T) {
	q := New("top40", 2)

	require.True(t, q.Offer(Chunk("a")))
	require.True(t, q.Offer(Chunk("b")))
	require.False(t, q.Offer(Chunk("c")), "third offer should be dropped, not block")
	require.Equal(t, 2, q.Len())
}

func TestPollReturnsInOrder(t *testing.T) {
	q := New("top40", 4)
	q.Offer(Chunk("first"))
	q.Offer(Chunk("second"))

	ctx := context.Background()
	c, ok := q.Poll(ctx, time.Second)
	require.True(t, ok)
	require.Equal(t, Chunk("first"), c)

	c, ok = q.Poll(ctx, time.Second)
	require.True(t, ok)
	require.Equal(t, Chunk("second"), c)
}

func TestPollTimesOutWhenEmpty(t *testing.T) {
	q := New("top40", 4)
	ctx := context.Background()

	start := time.Now()
	_, ok := q.Poll(ctx, 20*time.Millisecond)
	require.False(t, ok)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestPollReturnsOnContextCancellation(t *testing.T) {
	q := New("top40", 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := q.Poll(ctx, time.Second)
	require.False(t, ok)
}
