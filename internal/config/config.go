// Package config loads the station's runtime configuration from the
// environment, with a .env file honored first if one is present.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full runtime configuration.
type Config struct {
	Port        string
	StationName string

	// Fan-out engine tunables.
	ChunkSize            int
	ListenerQueueMaxSize int
	IdleTimeout          time.Duration
	SilencePath          string

	// Registry backing files.
	MusicDir          string
	TracksCSVPath     string
	PlaylistsCSVPath  string
	PlaylistStorePath string

	// Signed playback URLs.
	SignedURLBase   string
	SignedURLSecret string
	SignedURLTTL    time.Duration

	// Host session auth.
	HostUsername    string
	HostPassword    string
	SessionSecret   string
	SessionLoginURL string

	// Optional GeoIP listener enrichment.
	GeoIPDBPath string
	GeoIPSalt   string
}

// Load reads configuration from a .env file (if present) and the process
// environment. Every value has a workable default so a bare `go run .`
// starts a usable station.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8000"),
		StationName: getEnv("STATION_NAME", "Skywave FM"),

		ChunkSize:            getEnvAsInt("CHUNK_SIZE", 1024),
		ListenerQueueMaxSize: getEnvAsInt("LISTENER_QUEUE_MAXSIZE", 256),
		IdleTimeout:          time.Duration(getEnvAsInt("IDLE_TIMEOUT", 600)) * time.Second,
		SilencePath:          getEnv("SILENCE_PATH", "./data/silence.mp3"),

		MusicDir:          getEnv("MUSIC_DIR", "./music"),
		TracksCSVPath:     getEnv("CATALOG_TRACKS_CSV", "./data/tracks.csv"),
		PlaylistsCSVPath:  getEnv("CATALOG_PLAYLISTS_CSV", "./data/playlists.csv"),
		PlaylistStorePath: getEnv("PLAYLIST_STORE_FILE", "./data/playlists.json"),

		SignedURLBase:   getEnv("SIGNED_URL_BASE", "http://localhost:8000/audio"),
		SignedURLSecret: getEnv("SIGNED_URL_SECRET", "change-me-in-production-please"),
		SignedURLTTL:    time.Duration(getEnvAsInt("SIGNED_URL_TTL", 600)) * time.Second,

		HostUsername:    getEnv("HOST_USERNAME", "host"),
		HostPassword:    getEnv("HOST_PASSWORD", "skywave"),
		SessionSecret:   getEnv("SESSION_JWT_SECRET", "change-me-in-production-please"),
		SessionLoginURL: getEnv("SESSION_LOGIN_URL", "/login"),

		GeoIPDBPath: getEnv("GEOIP_DB_PATH", ""),
		GeoIPSalt:   getEnv("GEOIP_SALT", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultVal
}
