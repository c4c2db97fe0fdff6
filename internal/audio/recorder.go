package audio

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"murmur/internal/ports"
)

// ErrNoCaptureFile reports a recorder that exited without producing output.
var ErrNoCaptureFile = errors.New("capture file not found")

// stopGrace is how long a stopped recorder may take to exit after SIGTERM
// before it is killed.
const stopGrace = 1200 * time.Millisecond

// Recorder starts capture subprocesses writing 16 kHz mono S16_LE WAV files.
type Recorder struct {
	command string
}

// NewRecorder returns a Recorder using command, defaulting to arecord.
func NewRecorder(command string) *Recorder {
	if command == "" {
		command = "arecord"
	}
	return &Recorder{command: command}
}

// NewPath allocates an isolated temp directory and returns the capture file
// path inside it. The caller removes both through Cleanup.
func (r *Recorder) NewPath() (string, error) {
	dir := filepath.Join(os.TempDir(), "murmur-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create capture dir: %w", err)
	}
	return filepath.Join(dir, "capture.wav"), nil
}

func recordArgs(path string) []string {
	return []string{"-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "wav", path}
}

// Start spawns the capture process. A spawn failure never leaves a handle
// behind.
func (r *Recorder) Start(path string) (ports.Recording, error) {
	cmd := exec.Command(r.command, recordArgs(path)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s (is alsa-utils installed?): %w", r.command, err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	return &recording{
		path:    path,
		process: cmd.Process,
		waitErr: waitErr,
		stderr:  &stderr,
	}, nil
}

// Cleanup removes a capture file and its temp directory. Missing paths are
// not an error.
func (r *Recorder) Cleanup(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to clean up capture file", "path", path, "error", err)
	}
	if parent := filepath.Dir(path); parent != os.TempDir() {
		_ = os.Remove(parent)
	}
}

type recording struct {
	path    string
	process *os.Process
	waitErr <-chan error
	stderr  *bytes.Buffer

	stopOnce sync.Once
	stopErr  error
}

// Stop terminates the capture with SIGTERM, escalating to SIGKILL after a
// grace period, and verifies the output file exists. Subsequent calls
// return the first result.
func (s *recording) Stop() (string, error) {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(unix.SIGTERM)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeExit(err)
			}
		case <-time.After(stopGrace):
			if s.process != nil {
				_ = s.process.Kill()
			}
			if err, ok := <-s.waitErr; ok {
				s.stopErr = normalizeExit(err)
			}
		}

		if s.stopErr == nil {
			if _, err := os.Stat(s.path); err != nil {
				s.stopErr = fmt.Errorf("%w: %s", ErrNoCaptureFile, s.path)
			}
		}

		if s.stopErr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, bytes.TrimSpace(s.stderr.Bytes()))
		}
	})

	if s.stopErr != nil {
		return "", s.stopErr
	}
	return s.path, nil
}

// normalizeExit treats signal-driven exits as clean: the recorder is always
// stopped by signalling it.
func normalizeExit(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
