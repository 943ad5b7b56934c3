// Package transcode supervises the external ffmpeg process that turns a
// source URL into an MP3 byte stream. ffmpeg itself remains fully out of
// scope as a transcoding implementation; this package only owns the
// spawn/read/cleanup contract described for TranscoderProcess.
package transcode

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
)

// Options controls the ffmpeg invocation.
type Options struct {
	Bitrate    string // e.g. "128k"
	SampleRate string // e.g. "44100"
}

func (o Options) withDefaults() Options {
	if o.Bitrate == "" {
		o.Bitrate = "128k"
	}
	if o.SampleRate == "" {
		o.SampleRate = "44100"
	}
	return o
}

// Process wraps a running ffmpeg invocation. Read pulls decoded MP3 bytes
// from its stdout; Close guarantees the subprocess is killed and reaped
// exactly once regardless of how the caller stops reading.
type Process struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

// Start spawns ffmpeg against sourceURL and returns a Process ready to be
// read from. The caller must call Close when done, on every exit path.
func Start(ctx context.Context, sourceURL string, opts Options) (*Process, error) {
	opts = opts.withDefaults()

	cmd := exec.CommandContext(ctx,
		"ffmpeg",
		"-hide_banner",
		"-loglevel", "quiet",
		"-re",
		"-i", sourceURL,
		"-vn",
		"-acodec", "libmp3lame",
		"-ar", opts.SampleRate,
		"-b:a", opts.Bitrate,
		"-f", "mp3",
		"-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("transcode: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("transcode: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("transcode: start ffmpeg: %w", err)
	}

	go drainStderr(stderr)

	return &Process{cmd: cmd, stdout: stdout}, nil
}

func drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		slog.Debug("ffmpeg", "line", scanner.Text())
	}
}

// Read pulls up to len(p) bytes of decoded MP3 from ffmpeg's stdout. It
// tolerates short reads the way an audio pipe naturally produces them.
func (p *Process) Read(buf []byte) (int, error) {
	return p.stdout.Read(buf)
}

// Close kills the ffmpeg process if still running, closes stdout, and
// reaps it. A second call finds the process already reaped and returns the
// error from Wait.
func (p *Process) Close() error {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	_ = p.stdout.Close()
	return p.cmd.Wait()
}
