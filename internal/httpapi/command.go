package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skywavefm/skywave/internal/fanout"
	"github.com/skywavefm/skywave/internal/station"
)

type commandRequest struct {
	Channel  string `json:"channel"`
	Playlist string `json:"playlist"`
	Command  string `json:"command"`
}

// handleCommand serves POST /command: host-driven playlist selection and
// stop/next control for one channel.
func (s *Server) handleCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !station.ValidName(req.Channel) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid channel name"})
		return
	}

	switch {
	case req.Playlist != "":
		if _, ok := s.opts.Catalog.GetPlaylist(req.Playlist); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Playlist not found"})
			return
		}
		channel := s.opts.Channels.GetOrCreate(req.Channel)
		channel.PlayPlaylist(req.Playlist, s.opts.Streamers)
		slog.Info("httpapi: playlist selected", "channel", req.Channel, "playlist", req.Playlist)

	case req.Command != "":
		cmd := fanout.Command(req.Command)
		if cmd != fanout.CommandStop && cmd != fanout.CommandNext {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid command"})
			return
		}
		channel := s.opts.Channels.GetOrCreate(req.Channel)
		channel.SendCommand(cmd, s.opts.Streamers)
		slog.Info("httpapi: command dispatched", "channel", req.Channel, "command", req.Command)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing command or playlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "channel": req.Channel})
}
