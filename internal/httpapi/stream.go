package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skywavefm/skywave/internal/fanout"
	"github.com/skywavefm/skywave/internal/queue"
	"github.com/skywavefm/skywave/internal/station"
)

// handleStream serves GET /stream?channel=<name>: an unbounded audio/mpeg
// body fed from a freshly attached ListenerQueue, with silence substituted
// whenever the queue starves.
func (s *Server) handleStream(c *gin.Context) {
	channelName := c.Query("channel")
	if !station.ValidName(channelName) {
		c.String(http.StatusBadRequest, "Invalid channel name")
		return
	}

	channel, ok := s.opts.Channels.Get(channelName)
	if !ok || channel.CurrentPlaylist() == "" {
		c.String(http.StatusBadRequest, "Channel not active")
		return
	}
	streamer, ok := s.opts.Streamers.Get(channel.CurrentPlaylist())
	if !ok || !streamer.IsAlive() {
		c.String(http.StatusBadRequest, "Channel not active")
		return
	}

	q := queue.New(channelName, s.opts.QueueMaxSize)
	// Seed before attaching so the first frame a client decodes is always
	// the silence filler, never a mid-track chunk.
	q.Offer(s.opts.Silence)
	streamer.AddListener(channelName, q)

	listenerID := uuid.NewString()
	var country, city string
	if s.opts.Geo != nil {
		info := s.opts.Geo.Enrich(c.Request.RemoteAddr)
		country, city = info.Country, info.City
	}
	slog.Info("httpapi: listener connected",
		"listener", listenerID,
		"channel", channelName,
		"playlist", streamer.PlaylistName(),
		"country", country,
		"city", city,
	)

	defer func() {
		s.detach(channelName, q)
		slog.Info("httpapi: listener disconnected", "listener", listenerID, "channel", channelName)
	}()

	c.Header("Content-Type", "audio/mpeg")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	for {
		if ctx.Err() != nil {
			return
		}
		chunk, ok := q.Poll(ctx, s.opts.PollTimeout)
		if !ok {
			if ctx.Err() != nil {
				return
			}
			chunk = s.opts.Silence
		}
		if _, err := c.Writer.Write(chunk); err != nil {
			return
		}
		c.Writer.Flush()
	}
}

// detach removes q from the Streamer it is currently attached to — which,
// after a playlist switch, is not necessarily the one it was attached to
// at connect time — and drops the channel from the registry once its last
// listener is gone.
func (s *Server) detach(channelName string, q *queue.ListenerQueue) {
	owner, _ := q.Owner().(*fanout.Streamer)
	if owner == nil {
		return
	}
	owner.RemoveListener(channelName, q)
	if owner.ChannelListenerCount(channelName) == 0 {
		s.opts.Channels.Remove(channelName)
	}
}
