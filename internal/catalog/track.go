package catalog

import (
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dhowden/tag"
)

// SupportedFormats lists the audio file extensions the scanner recognises.
var SupportedFormats = []string{".mp3", ".wav", ".flac", ".aac", ".ogg"}

// IsSupportedFormat reports whether ext (as returned by filepath.Ext) names
// a format the scanner will index.
func IsSupportedFormat(ext string) bool {
	for _, f := range SupportedFormats {
		if f == ext {
			return true
		}
	}
	return false
}

// Track is one entry in the catalog: a playable file identified by a
// content checksum, with whatever ID3/tag metadata could be extracted.
type Track struct {
	Checksum string `json:"checksum"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	FilePath string `json:"filePath"`
	Filename string `json:"filename"`
}

// NewTrackFromFile computes the checksum of path and extracts tag metadata,
// falling back to the filename when tags are absent or unreadable.
func NewTrackFromFile(path string) (*Track, error) {
	checksum, err := computeChecksum(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: checksum %s: %w", path, err)
	}

	t := &Track{
		Checksum: checksum,
		FilePath: path,
		Filename: filepath.Base(path),
		Title:    filepath.Base(path),
	}
	extractTrackMetadata(t, path)
	return t, nil
}

func computeChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func extractTrackMetadata(t *Track, path string) {
	f, err := os.Open(path)
	if err != nil {
		slog.Warn("catalog: could not open file for metadata", "path", path, "error", err)
		return
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		slog.Debug("catalog: could not read tags", "path", path, "error", err)
		return
	}

	if m.Title() != "" {
		t.Title = m.Title()
	}
	if m.Artist() != "" {
		t.Artist = m.Artist()
	}
	if m.Album() != "" {
		t.Album = m.Album()
	}
}
