package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanMusicDirIndexesAndReconciles(t *testing.T) {
	dir := t.TempDir()
	musicDir := filepath.Join(dir, "music")
	require.NoError(t, os.MkdirAll(musicDir, 0o755))

	writeCSV(t, filepath.Join(dir, "tracks.csv"), "KEY TITLE,File Name\n")
	writeCSV(t, filepath.Join(dir, "playlists.csv"), "Playlist Title,Track Key\n")

	one := filepath.Join(musicDir, "one.mp3")
	two := filepath.Join(musicDir, "two.mp3")
	require.NoError(t, os.WriteFile(one, []byte("first-track-bytes"), 0o644))
	require.NoError(t, os.WriteFile(two, []byte("second-track-bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(musicDir, "notes.txt"), []byte("ignored"), 0o644))

	reg := NewFileRegistry(
		filepath.Join(dir, "tracks.csv"),
		filepath.Join(dir, "playlists.csv"),
		musicDir, nil, nil,
	)

	added, removed, err := reg.ScanMusicDir()
	require.NoError(t, err)
	require.Equal(t, 2, added)
	require.Equal(t, 0, removed)

	tracks := reg.LibraryTracks()
	require.Len(t, tracks, 2)

	// Scanned tracks resolve by checksum even though the CSV registry is
	// empty.
	filename, ok := reg.GetTrackFilename(tracks[0].Checksum)
	require.True(t, ok)
	require.Contains(t, []string{"one.mp3", "two.mp3"}, filename)

	// A deleted file disappears on the next reconcile.
	require.NoError(t, os.Remove(two))
	added, removed, err = reg.ScanMusicDir()
	require.NoError(t, err)
	require.Equal(t, 0, added)
	require.Equal(t, 1, removed)
	require.Len(t, reg.LibraryTracks(), 1)
}

func TestScanMusicDirRequiresConfiguredDir(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "tracks.csv"), "KEY TITLE,File Name\n")
	writeCSV(t, filepath.Join(dir, "playlists.csv"), "Playlist Title,Track Key\n")

	reg := NewFileRegistry(
		filepath.Join(dir, "tracks.csv"),
		filepath.Join(dir, "playlists.csv"),
		"", nil, nil,
	)
	_, _, err := reg.ScanMusicDir()
	require.Error(t, err)
}
