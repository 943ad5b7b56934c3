package fanout

import (
	"log/slog"
	"os"

	"github.com/skywavefm/skywave/internal/queue"
)

// LoadSilence loads the configured silence filler (a valid MP3 frame at the
// station's codec configuration) from path. If path is empty or unreadable
// it falls back to a zeroed buffer of chunkSize bytes so the stream never
// stalls for want of a filler, at the cost of an audible gap in players
// that don't tolerate raw silence bytes as gracefully as a real MP3 frame.
func LoadSilence(path string, chunkSize int) queue.Chunk {
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil && len(data) > 0 {
			return queue.Chunk(data)
		}
		slog.Warn("fanout: could not load silence filler, falling back to zeroed buffer", "path", path, "error", err)
	}
	return make(queue.Chunk, chunkSize)
}
