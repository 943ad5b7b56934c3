package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skywavefm/skywave/internal/schedule"
	"github.com/skywavefm/skywave/internal/station"
)

// handleStationStatus serves GET /api/stations/:channel — read-only
// introspection of one channel's current playlist and streamer.
func (s *Server) handleStationStatus(c *gin.Context) {
	name := c.Param("channel")
	if !station.ValidName(name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid channel name"})
		return
	}

	channel, ok := s.opts.Channels.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found"})
		return
	}

	playlist := channel.CurrentPlaylist()
	resp := gin.H{
		"channel":          name,
		"current_playlist": playlist,
		"streamer_state":   "none",
		"listener_count":   0,
	}
	if playlist != "" {
		if streamer, ok := s.opts.Streamers.Get(playlist); ok {
			resp["streamer_state"] = streamer.State().String()
			resp["listener_count"] = streamer.ChannelListenerCount(name)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// handlePlaylists serves GET /api/catalog/playlists.
func (s *Server) handlePlaylists(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"playlists": s.opts.Catalog.AllPlaylistNames()})
}

// handleTracks serves GET /api/catalog/tracks.
func (s *Server) handleTracks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tracks": s.opts.Catalog.AllTrackKeys()})
}

// handleSetSchedule serves PUT /api/schedule/:channel — assigns a
// time-tag -> playlist auto-switch schedule to a channel.
func (s *Server) handleSetSchedule(c *gin.Context) {
	name := c.Param("channel")
	if !station.ValidName(name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid channel name"})
		return
	}
	if s.opts.Scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scheduler not running"})
		return
	}

	var body map[string]string
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sched := make(map[schedule.TimeTag]string, len(body))
	for tag, playlist := range body {
		if _, ok := s.opts.Catalog.GetPlaylist(playlist); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Playlist not found"})
			return
		}
		sched[schedule.TimeTag(tag)] = playlist
	}
	if err := s.opts.Scheduler.SetSchedule(name, sched); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slog.Info("httpapi: schedule assigned", "channel", name, "entries", len(sched))
	c.JSON(http.StatusOK, gin.H{"status": "ok", "channel": name})
}

// handleReload serves POST /api/catalog/reload — re-reads the registry's
// backing files. This is the endpoint the skywavectl CLI posts to.
func (s *Server) handleReload(c *gin.Context) {
	if err := s.opts.Catalog.Reload(); err != nil {
		slog.Error("httpapi: catalog reload failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reload failed"})
		return
	}
	slog.Info("httpapi: catalog reloaded", "remote", c.ClientIP())
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"playlists": len(s.opts.Catalog.AllPlaylistNames()),
		"tracks":    len(s.opts.Catalog.AllTrackKeys()),
	})
}

// handleScan serves POST /api/catalog/scan — reconciles the local music
// directory into the registry's track library.
func (s *Server) handleScan(c *gin.Context) {
	added, removed, err := s.opts.Catalog.ScanMusicDir()
	if err != nil {
		slog.Error("httpapi: music dir scan failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Scan failed"})
		return
	}
	slog.Info("httpapi: music dir scanned", "added", added, "removed", removed)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "added": added, "removed": removed})
}
