package transcribe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

const hfBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// minModelSize guards against saving an error page as a model file.
const minModelSize = 1_000_000

// DefaultModelDir returns where downloaded ggml models are stored.
func DefaultModelDir() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "murmur", "models")
}

// ModelPath returns the local path for a model by name.
func ModelPath(name string) string {
	return filepath.Join(DefaultModelDir(), "ggml-"+name+".bin")
}

func modelURL(name string) string {
	return hfBaseURL + "/ggml-" + name + ".bin"
}

// EnsureModel makes sure the named model exists locally, downloading it on
// first use. Progress is reported through onStatus.
func EnsureModel(ctx context.Context, name string, onStatus func(string)) (string, error) {
	path := ModelPath(name)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	onStatus(fmt.Sprintf("Downloading model '%s'...", name))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create model dir: %w", err)
	}

	tmp := path + ".part"
	if err := download(ctx, modelURL(name), tmp, onStatus); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}

	info, err := os.Stat(tmp)
	if err != nil {
		return "", fmt.Errorf("downloaded model not found: %w", err)
	}
	if info.Size() < minModelSize {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("downloaded model too small (%dB), likely a download error", info.Size())
	}

	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("failed to move model into place: %w", err)
	}

	onStatus("Model downloaded")
	return path, nil
}

func download(ctx context.Context, url, dest string, onStatus func(string)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("model download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model download failed: %s returned %s", url, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer f.Close()

	src := io.Reader(resp.Body)
	if resp.ContentLength > 0 {
		src = io.TeeReader(resp.Body, &progressReporter{total: resp.ContentLength, onStatus: onStatus})
	}
	if _, err := io.Copy(f, src); err != nil {
		return fmt.Errorf("model download interrupted: %w", err)
	}
	return nil
}

// progressReporter emits a status message at every 10% of the download.
type progressReporter struct {
	total    int64
	written  int64
	lastStep int64
	onStatus func(string)
}

func (p *progressReporter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	step := p.written * 10 / p.total
	if step > p.lastStep {
		p.lastStep = step
		p.onStatus(fmt.Sprintf("Downloading model... %d%%", step*10))
	}
	return len(b), nil
}
