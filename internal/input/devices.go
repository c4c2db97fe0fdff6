package input

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Device identifies one input device node.
type Device struct {
	Path string
	Name string
}

// Label formats the device for status reporting.
func (d Device) Label() string {
	if d.Name == "" {
		return d.Path
	}
	return d.Path + " - " + d.Name
}

// Enumerator lists and selects input devices. The directory roots exist so
// tests can point it at a fabricated tree; zero values mean the real system
// paths.
type Enumerator struct {
	DevDir string // default /dev/input
	SysDir string // default /sys/class/input
}

func (e Enumerator) devDir() string {
	if e.DevDir == "" {
		return "/dev/input"
	}
	return e.DevDir
}

func (e Enumerator) sysDir() string {
	if e.SysDir == "" {
		return "/sys/class/input"
	}
	return e.SysDir
}

// List returns all event devices that can be opened, sorted by path.
// Devices the process cannot read (permissions) are skipped.
func (e Enumerator) List() ([]Device, error) {
	entries, err := os.ReadDir(e.devDir())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", e.devDir(), err)
	}

	var devices []Device
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "event") {
			continue
		}
		path := filepath.Join(e.devDir(), entry.Name())
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		f.Close()
		devices = append(devices, Device{Path: path, Name: e.deviceName(entry.Name())})
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].Path < devices[j].Path })
	return devices, nil
}

func (e Enumerator) deviceName(event string) string {
	raw, err := os.ReadFile(filepath.Join(e.sysDir(), event, "device", "name"))
	if err != nil {
		return "Unknown"
	}
	name := strings.TrimSpace(string(raw))
	if name == "" {
		return "Unknown"
	}
	return name
}

var pointerPatterns = []string{"mouse", "touchpad", "trackpoint", "trackball", "virtual"}

// FilterKeyboards drops mice, touchpads, and virtual devices by name.
func FilterKeyboards(devices []Device) []Device {
	var keyboards []Device
	for _, d := range devices {
		lower := strings.ToLower(d.Name)
		excluded := false
		for _, pattern := range pointerPatterns {
			if strings.Contains(lower, pattern) {
				excluded = true
				break
			}
		}
		if !excluded {
			keyboards = append(keyboards, d)
		}
	}
	return keyboards
}

// SupportsKey reports whether the device declares key in its EV_KEY
// capability bitmap.
func (e Enumerator) SupportsKey(d Device, key Key) bool {
	raw, err := os.ReadFile(filepath.Join(e.sysDir(), filepath.Base(d.Path), "device", "capabilities", "key"))
	if err != nil {
		return false
	}
	words, err := parseKeyBitmap(string(raw))
	if err != nil {
		return false
	}
	word := int(key) / 64
	if word >= len(words) {
		return false
	}
	return words[word]>>(uint(key)%64)&1 == 1
}

// parseKeyBitmap parses the sysfs capability bitmap: space-separated hex
// words, most significant first. The returned slice is indexed so that
// words[0] holds bits 0..63.
func parseKeyBitmap(s string) ([]uint64, error) {
	fields := strings.Fields(s)
	words := make([]uint64, 0, len(fields))
	for i := len(fields) - 1; i >= 0; i-- {
		w, err := strconv.ParseUint(fields[i], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid capability word %q: %w", fields[i], err)
		}
		words = append(words, w)
	}
	return words, nil
}

// Pick selects the device to monitor. An explicit path is used as-is and
// fails fast if absent. "auto" prefers the first keyboard advertising key,
// then falls back to the first keyboard.
func (e Enumerator) Pick(setting string, key Key) (Device, error) {
	if setting != "auto" {
		if _, err := os.Stat(setting); err != nil {
			return Device{}, fmt.Errorf("configured keyboard device not found: %s", setting)
		}
		return Device{Path: setting, Name: e.deviceName(filepath.Base(setting))}, nil
	}

	devices, err := e.List()
	if err != nil {
		return Device{}, err
	}
	keyboards := FilterKeyboards(devices)

	for _, d := range keyboards {
		if e.SupportsKey(d, key) {
			slog.Info("auto-selected input device", "path", d.Path, "name", d.Name, "key", key.String())
			return d, nil
		}
	}

	if len(keyboards) > 0 {
		d := keyboards[0]
		slog.Warn("no device advertises the watched key, falling back",
			"key", key.String(), "path", d.Path, "name", d.Name)
		return d, nil
	}

	return Device{}, fmt.Errorf("no keyboard devices found (check /dev/input permissions)")
}

// WriteDeviceList prints the keyboard devices for the --list-devices mode.
func (e Enumerator) WriteDeviceList(w io.Writer) error {
	devices, err := e.List()
	if err != nil {
		return err
	}
	keyboards := FilterKeyboards(devices)

	fmt.Fprintln(w, "Input devices (keyboards):")
	for _, d := range keyboards {
		fmt.Fprintf(w, "  %s\n", d.Label())
	}
	if len(keyboards) == 0 {
		fmt.Fprintln(w, "  (none found - check /dev/input permissions)")
		fmt.Fprintln(w, "  Try: sudo usermod -aG input $USER")
	}
	return nil
}
