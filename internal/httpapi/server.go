// Package httpapi is the station's HTTP surface: the listener-facing
// stream endpoint, the host-facing command endpoint, and a small set of
// read-only introspection routes.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skywavefm/skywave/internal/auth"
	"github.com/skywavefm/skywave/internal/catalog"
	"github.com/skywavefm/skywave/internal/fanout"
	"github.com/skywavefm/skywave/internal/geo"
	"github.com/skywavefm/skywave/internal/queue"
	"github.com/skywavefm/skywave/internal/schedule"
	"github.com/skywavefm/skywave/internal/station"
)

// Catalog is the registry surface the HTTP layer needs: the Streamer's
// lookup contract plus introspection and reload for the host endpoints.
type Catalog interface {
	catalog.Registry
	AllPlaylistNames() []string
	AllTrackKeys() []string
	Reload() error
	ScanMusicDir() (added, removed int, err error)
}

// Options wires a Server.
type Options struct {
	StationName      string
	Catalog          Catalog
	Streamers        *fanout.StreamerRegistry
	Channels         *station.ChannelRegistry
	Auth             *auth.Auth
	Geo              *geo.Resolver
	Scheduler        *schedule.Scheduler
	Silence          queue.Chunk
	QueueMaxSize     int
	PollTimeout      time.Duration
	LoginRedirectURL string
}

// Server holds the process-wide registries the handlers close over. One is
// instantiated at startup; it has no mutable state of its own.
type Server struct {
	opts Options
}

// NewServer builds a Server. PollTimeout defaults to the 5 s the stream
// drainer's silence-substitution policy is specified with.
func NewServer(opts Options) *Server {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 5 * time.Second
	}
	if opts.QueueMaxSize <= 0 {
		opts.QueueMaxSize = 256
	}
	if opts.LoginRedirectURL == "" {
		opts.LoginRedirectURL = "/login"
	}
	return &Server{opts: opts}
}

// Router assembles the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), SecurityHeadersMiddleware())

	r.GET("/stream", s.handleStream)
	r.POST("/login", s.handleLogin)
	r.GET("/healthz", s.handleHealthz)

	r.GET("/api/stations/:channel", s.handleStationStatus)
	r.GET("/api/catalog/playlists", s.handlePlaylists)
	r.GET("/api/catalog/tracks", s.handleTracks)

	protected := r.Group("/", s.SessionRequired())
	protected.POST("/command", s.handleCommand)
	protected.PUT("/api/schedule/:channel", s.handleSetSchedule)
	protected.POST("/api/catalog/reload", s.handleReload)
	protected.POST("/api/catalog/scan", s.handleScan)

	return r
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "station": s.opts.StationName})
}
