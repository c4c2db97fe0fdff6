package paste

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/atotto/clipboard"
)

// Config carries the resolved paste settings.
type Config struct {
	Method         Method
	Hotkey         string
	ClipboardPaste string // "auto", "on" or "off"
	ClipboardDelay time.Duration
}

// Dispatcher delivers transcribed text into the focused application using
// the configured method. A trailing space is appended so consecutive
// dictations don't run together.
type Dispatcher struct {
	cfg Config

	run  func(ctx context.Context, name string, args ...string) error
	copy func(text string) error
}

func NewDispatcher(cfg Config) *Dispatcher {
	return &Dispatcher{
		cfg:  cfg,
		run:  runCommand,
		copy: clipboard.WriteAll,
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

func (d *Dispatcher) Paste(ctx context.Context, text string) error {
	text += " "
	switch d.cfg.Method {
	case MethodXdotool:
		return d.pasteXdotool(ctx, text)
	case MethodWtype:
		return d.pasteWtype(ctx, text)
	case MethodYdotool:
		return d.pasteYdotool(ctx, text)
	case MethodWlCopy:
		return d.pasteClipboardOnly(text)
	default:
		return fmt.Errorf("unknown paste method %q", d.cfg.Method)
	}
}

func (d *Dispatcher) pasteXdotool(ctx context.Context, text string) error {
	if shouldUseClipboard(d.cfg.ClipboardPaste) {
		if err := d.copyAndWait(ctx, text); err != nil {
			return err
		}
		return d.run(ctx, "xdotool", "key", d.cfg.Hotkey)
	}
	return d.run(ctx, "xdotool", "type", "--delay", "1", text)
}

func (d *Dispatcher) pasteWtype(ctx context.Context, text string) error {
	if shouldUseClipboard(d.cfg.ClipboardPaste) {
		return d.clipboardPasteWtype(ctx, text)
	}
	if err := d.run(ctx, "wtype", text); err != nil {
		slog.Warn("wtype direct typing failed, falling back to clipboard paste", "error", err)
		return d.clipboardPasteWtype(ctx, text)
	}
	return nil
}

func (d *Dispatcher) pasteYdotool(ctx context.Context, text string) error {
	if shouldUseClipboard(d.cfg.ClipboardPaste) {
		return d.clipboardPasteYdotool(ctx, text)
	}
	if err := d.run(ctx, "ydotool", "type", text); err != nil {
		slog.Warn("ydotool direct typing failed, falling back to clipboard paste", "error", err)
		return d.clipboardPasteYdotool(ctx, text)
	}
	return nil
}

func (d *Dispatcher) pasteClipboardOnly(text string) error {
	if err := d.copy(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	slog.Info("text copied to clipboard, paste with Ctrl+V")
	return nil
}

func (d *Dispatcher) clipboardPasteWtype(ctx context.Context, text string) error {
	if err := d.copyAndWait(ctx, text); err != nil {
		return err
	}
	if err := d.run(ctx, "wtype", HotkeyToWtypeArgs(d.cfg.Hotkey)...); err != nil {
		// Compositor may not support virtual keyboards. The clipboard
		// copy succeeded, so the user can still paste manually.
		slog.Warn("wtype key simulation failed, text left on clipboard", "error", err)
		return nil
	}
	return nil
}

func (d *Dispatcher) clipboardPasteYdotool(ctx context.Context, text string) error {
	if err := d.copyAndWait(ctx, text); err != nil {
		return err
	}
	args := append([]string{"key"}, HotkeyToYdotoolArgs(d.cfg.Hotkey)...)
	return d.run(ctx, "ydotool", args...)
}

// copyAndWait puts the text on the clipboard and gives the clipboard
// manager a moment to pick it up before the paste hotkey fires.
func (d *Dispatcher) copyAndWait(ctx context.Context, text string) error {
	if err := d.copy(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	select {
	case <-time.After(d.cfg.ClipboardDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func shouldUseClipboard(setting string) bool {
	return setting == "auto" || setting == "on"
}
