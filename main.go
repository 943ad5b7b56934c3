package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skywavefm/skywave/internal/auth"
	"github.com/skywavefm/skywave/internal/catalog"
	"github.com/skywavefm/skywave/internal/config"
	"github.com/skywavefm/skywave/internal/fanout"
	"github.com/skywavefm/skywave/internal/geo"
	"github.com/skywavefm/skywave/internal/httpapi"
	"github.com/skywavefm/skywave/internal/schedule"
	"github.com/skywavefm/skywave/internal/signedurl"
	"github.com/skywavefm/skywave/internal/station"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()

	slog.Info("starting station",
		"port", cfg.Port,
		"station_name", cfg.StationName,
		"chunk_size", cfg.ChunkSize,
		"idle_timeout", cfg.IdleTimeout,
	)

	signer := signedurl.NewHMACSigner(cfg.SignedURLBase, []byte(cfg.SignedURLSecret), cfg.SignedURLTTL)

	store, err := catalog.NewStore(cfg.PlaylistStorePath)
	if err != nil {
		slog.Error("could not open playlist store", "path", cfg.PlaylistStorePath, "error", err)
		os.Exit(1)
	}
	registry := catalog.NewFileRegistry(cfg.TracksCSVPath, cfg.PlaylistsCSVPath, cfg.MusicDir, store, signer.Sign)
	if err := registry.Reload(); err != nil {
		slog.Warn("initial catalog load failed, streamers will retry", "error", err)
	}

	sessions := auth.New(auth.Config{
		HostUsername: cfg.HostUsername,
		HostPassword: cfg.HostPassword,
		Secret:       cfg.SessionSecret,
	})

	resolver := geo.NewResolver(cfg.GeoIPDBPath, cfg.GeoIPSalt)
	defer resolver.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	streamers := fanout.NewStreamerRegistry(ctx, registry, fanout.Options{
		ChunkSize:   cfg.ChunkSize,
		IdleTimeout: cfg.IdleTimeout,
	})
	channels := station.NewChannelRegistry()

	scheduler := schedule.New(func(channelName, playlist string) {
		channels.GetOrCreate(channelName).PlayPlaylist(playlist, streamers)
	}, time.Minute, time.UTC)
	go scheduler.Start(ctx)

	silence := fanout.LoadSilence(cfg.SilencePath, cfg.ChunkSize)

	api := httpapi.NewServer(httpapi.Options{
		StationName:      cfg.StationName,
		Catalog:          registry,
		Streamers:        streamers,
		Channels:         channels,
		Auth:             sessions,
		Geo:              resolver,
		Scheduler:        scheduler,
		Silence:          silence,
		QueueMaxSize:     cfg.ListenerQueueMaxSize,
		PollTimeout:      5 * time.Second,
		LoginRedirectURL: cfg.SessionLoginURL,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.Router(),
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		slog.Info("shutdown signal received")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
