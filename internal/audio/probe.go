package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// Probe validates that path holds a decodable WAV file and returns its
// audio duration. Truncated or non-WAV captures fail here rather than
// deep inside a transcription backend.
func Probe(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open capture file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("not a valid WAV file: %s", path)
	}
	dur, err := dec.Duration()
	if err != nil {
		return 0, fmt.Errorf("failed to read WAV duration: %w", err)
	}
	return dur, nil
}
