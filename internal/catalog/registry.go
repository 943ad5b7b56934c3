// Package catalog implements the Registry external collaborator described
// in the specification: playlist name -> track keys, track key -> filename,
// and filename -> a signed playback URL. The spec treats this as an
// out-of-scope component with a minimal contract; FileRegistry is that
// minimal, concrete, locally-backed implementation.
package catalog

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the external collaborator contract the Streamer depends on.
type Registry interface {
	// GetPlaylist returns the ordered track keys for a playlist, or
	// (nil, false) if the playlist is unknown.
	GetPlaylist(name string) ([]string, bool)
	// GetTrackFilename returns the filename for a track key, or
	// ("", false) if the key is unknown.
	GetTrackFilename(key string) (string, bool)
	// GetSignedURL returns a time-boxed playback URL for filename.
	GetSignedURL(filename string) (string, error)
}

// SignFunc mints a signed playback URL for a filename. Implemented by
// internal/signedurl.Signer.Sign; kept as a function type here so catalog
// has no dependency on the signedurl package.
type SignFunc func(filename string) (string, error)

// FileRegistry is a Registry backed by CSV track/playlist files (the
// original's Google-Sheets-export contract) with an optional local JSON
// Store overlay so playlists can also be set through SetPlaylist without
// touching the CSV source of truth.
type FileRegistry struct {
	tracksCSVPath    string
	playlistsCSVPath string
	musicDir         string
	store            *Store
	library          *Library
	sign             SignFunc

	mu        sync.RWMutex
	tracks    map[string]string
	playlists map[string][]string
}

// NewFileRegistry constructs a FileRegistry. store may be nil, in which
// case playlists are sourced purely from playlistsCSVPath. musicDir may be
// empty, in which case the local-scan path is disabled.
func NewFileRegistry(tracksCSVPath, playlistsCSVPath, musicDir string, store *Store, sign SignFunc) *FileRegistry {
	return &FileRegistry{
		tracksCSVPath:    tracksCSVPath,
		playlistsCSVPath: playlistsCSVPath,
		musicDir:         musicDir,
		store:            store,
		library:          NewLibrary(),
		sign:             sign,
	}
}

// Reload re-reads the CSV sources (and the Store overlay, if configured),
// replacing the in-memory tracks/playlists wholesale. Mirrors the
// original's reload_tracks/reload_playlists: a full reload, not a merge.
func (r *FileRegistry) Reload() error {
	tracks, err := loadTracksCSV(r.tracksCSVPath)
	if err != nil {
		return fmt.Errorf("catalog: reload tracks: %w", err)
	}

	playlists, err := loadPlaylistsCSV(r.playlistsCSVPath)
	if err != nil {
		return fmt.Errorf("catalog: reload playlists: %w", err)
	}

	if r.store != nil && r.store.Exists() {
		overlay, err := r.store.Load()
		if err != nil {
			return fmt.Errorf("catalog: reload store overlay: %w", err)
		}
		for name, keys := range overlay {
			playlists[name] = keys
		}
	}

	r.mu.Lock()
	r.tracks = tracks
	r.playlists = playlists
	r.mu.Unlock()
	return nil
}

// ensureLoaded lazily loads on first access, matching the original's
// "reload only if empty" pattern.
func (r *FileRegistry) ensureLoaded() {
	r.mu.RLock()
	loaded := r.tracks != nil
	r.mu.RUnlock()
	if !loaded {
		_ = r.Reload()
	}
}

// GetPlaylist implements Registry.
func (r *FileRegistry) GetPlaylist(name string) ([]string, bool) {
	r.ensureLoaded()
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys, ok := r.playlists[name]
	return keys, ok
}

// GetTrackFilename implements Registry. Keys resolve first through the CSV
// track registry, then through the scanned local library (where a key is a
// content checksum).
func (r *FileRegistry) GetTrackFilename(key string) (string, bool) {
	r.ensureLoaded()
	r.mu.RLock()
	filename, ok := r.tracks[key]
	r.mu.RUnlock()
	if ok {
		return filename, true
	}
	if t, ok := r.library.Get(key); ok {
		return t.Filename, true
	}
	return "", false
}

// ScanMusicDir reconciles the local library against the configured music
// directory, picking up new files (keyed by content checksum) and dropping
// entries whose files are gone.
func (r *FileRegistry) ScanMusicDir() (added, removed int, err error) {
	if r.musicDir == "" {
		return 0, 0, fmt.Errorf("catalog: no music directory configured")
	}
	return ReconcileTracks(r.musicDir, r.library)
}

// LibraryTracks returns the scanned local tracks, ordered by checksum.
func (r *FileRegistry) LibraryTracks() []*Track {
	return r.library.List()
}

// GetSignedURL implements Registry.
func (r *FileRegistry) GetSignedURL(filename string) (string, error) {
	if r.sign == nil {
		return "", fmt.Errorf("catalog: no signer configured")
	}
	return r.sign(filename)
}

// AllPlaylistNames returns every known playlist name, sorted, for the
// read-only catalog introspection endpoints.
func (r *FileRegistry) AllPlaylistNames() []string {
	r.ensureLoaded()
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.playlists))
	for name := range r.playlists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllTrackKeys returns every known track key, sorted: the CSV registry's
// keys plus the checksums of locally scanned tracks.
func (r *FileRegistry) AllTrackKeys() []string {
	r.ensureLoaded()
	r.mu.RLock()
	keys := make([]string, 0, len(r.tracks))
	for k := range r.tracks {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	for _, t := range r.library.List() {
		keys = append(keys, t.Checksum)
	}
	sort.Strings(keys)
	return keys
}

// SetPlaylist assigns (or replaces) a playlist's track keys and persists
// it through the Store overlay, without touching the CSV source.
func (r *FileRegistry) SetPlaylist(name string, trackKeys []string) error {
	r.ensureLoaded()

	r.mu.Lock()
	if r.playlists == nil {
		r.playlists = make(map[string][]string)
	}
	r.playlists[name] = trackKeys
	snapshot := make(map[string][]string, len(r.playlists))
	for k, v := range r.playlists {
		snapshot[k] = v
	}
	r.mu.Unlock()

	if r.store == nil {
		return nil
	}
	return r.store.Save(snapshot)
}
