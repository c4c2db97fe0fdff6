package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"murmur/internal/domain"
	"murmur/internal/ports"
)

const defaultPollInterval = 500 * time.Millisecond

// Config controls the controller's event loop.
type Config struct {
	// PollInterval bounds how long a shutdown request can sit unnoticed
	// while no key edges arrive.
	PollInterval time.Duration
}

// Controller runs the dictation session: it owns the state machine from
// Starting through Stopped, consumes key edges, and drives capture,
// transcription, rules, and paste in order. Single-goroutine by design;
// all cross-goroutine coordination happens through the edge channel and
// the shutdown flag.
type Controller struct {
	keys     ports.KeySource
	capture  ports.Capture
	loader   ports.TranscriberLoader
	rules    ports.RulesEngine
	paster   ports.Paster
	notifier ports.Notifier
	cfg      Config

	shutdown domain.ShutdownFlag
	stopping bool
}

func NewController(
	keys ports.KeySource,
	capture ports.Capture,
	loader ports.TranscriberLoader,
	rules ports.RulesEngine,
	paster ports.Paster,
	notifier ports.Notifier,
	cfg Config,
) *Controller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Controller{
		keys:     keys,
		capture:  capture,
		loader:   loader,
		rules:    rules,
		paster:   paster,
		notifier: notifier,
		cfg:      cfg,
	}
}

// ShutdownHandle exposes the flag external signal handlers flip to request
// a graceful stop. Safe to call from any goroutine.
func (c *Controller) ShutdownHandle() *domain.ShutdownFlag {
	return &c.shutdown
}

// Run blocks until the session ends. Startup failures return an error;
// once the session reaches Ready, all subsequent exits are graceful and
// return nil.
func (c *Controller) Run(ctx context.Context) error {
	c.notifier.State(domain.SessionStateStarting)

	engine, err := c.loader.Load(ctx, c.notifier.Status)
	if err != nil {
		c.notifier.Error(fmt.Sprintf("Failed to load transcription engine: %v", err))
		c.notifier.State(domain.SessionStateStopped)
		return fmt.Errorf("failed to load transcription engine: %w", err)
	}

	edges := c.keys.Start(&c.shutdown)
	c.notifier.Status("Listening on " + c.keys.Label())
	c.notifier.State(domain.SessionStateReady)

	var recording ports.Recording

	for {
		select {
		case edge, ok := <-edges:
			if !ok {
				if !c.shutdown.Requested() {
					c.notifier.Error("Key reader exited unexpectedly")
				}
				c.enterStopping()
			} else {
				recording = c.handleEdge(ctx, engine, edge, recording)
			}
		case <-time.After(c.cfg.PollInterval):
		}

		if c.shutdown.Requested() {
			c.enterStopping()
		}
		if c.stopping {
			break
		}
	}

	if recording != nil {
		if path, err := recording.Stop(); err == nil {
			c.capture.Cleanup(path)
		} else {
			slog.Warn("failed to stop recording during shutdown", "error", err)
		}
	}

	c.notifier.State(domain.SessionStateStopped)
	return nil
}

func (c *Controller) handleEdge(ctx context.Context, engine ports.Transcriber, edge domain.KeyEdge, recording ports.Recording) ports.Recording {
	switch edge.Kind {
	case domain.KeyEdgePress:
		if recording != nil {
			// Repeat or duplicate press while already recording.
			return recording
		}
		return c.startRecording()

	case domain.KeyEdgeRelease:
		if recording == nil {
			return nil
		}
		c.finishRecording(ctx, engine, recording)
		return nil

	case domain.KeyEdgeReaderError:
		c.notifier.Error("Key reader failed: " + edge.Err)
		c.enterStopping()
		return recording
	}
	return recording
}

func (c *Controller) startRecording() ports.Recording {
	c.notifier.State(domain.SessionStateRecording)

	path, err := c.capture.NewPath()
	if err != nil {
		c.notifier.Error(fmt.Sprintf("Failed to prepare capture: %v", err))
		c.notifier.State(domain.SessionStateReady)
		return nil
	}

	recording, err := c.capture.Start(path)
	if err != nil {
		c.capture.Cleanup(path)
		c.notifier.Error(fmt.Sprintf("Failed to start recording: %v", err))
		c.notifier.State(domain.SessionStateReady)
		return nil
	}
	return recording
}

// finishRecording runs the release half of the cycle: stop the capture,
// transcribe, apply rules, paste. Every failure is recoverable; the
// session returns to Ready regardless.
func (c *Controller) finishRecording(ctx context.Context, engine ports.Transcriber, recording ports.Recording) {
	c.notifier.State(domain.SessionStateTranscribing)

	path, err := recording.Stop()
	if err != nil {
		c.notifier.Error(fmt.Sprintf("Recording failed: %v", err))
		c.notifier.State(domain.SessionStateReady)
		return
	}
	defer c.capture.Cleanup(path)

	text, err := engine.Transcribe(ctx, path)
	if err != nil {
		c.notifier.Error(fmt.Sprintf("Transcription failed: %v", err))
		c.notifier.State(domain.SessionStateReady)
		return
	}

	if c.rules != nil {
		text = c.rules.Apply(text)
	}

	if text != "" {
		c.notifier.Text(text)
		if err := c.paster.Paste(ctx, text); err != nil {
			// The transcript was already surfaced; losing the paste
			// does not take the session down.
			c.notifier.Error(fmt.Sprintf("Paste failed: %v", err))
		}
	}

	c.notifier.State(domain.SessionStateReady)
}

// enterStopping transitions to Stopping exactly once, no matter how many
// exit paths fire.
func (c *Controller) enterStopping() {
	if c.stopping {
		return
	}
	c.stopping = true
	c.shutdown.Request()
	c.notifier.State(domain.SessionStateStopping)
}
