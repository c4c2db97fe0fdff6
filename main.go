package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"golang.org/x/sys/unix"

	"murmur/internal/bootstrap"
	"murmur/internal/config"
	"murmur/internal/diagnostics"
	"murmur/internal/input"
	"murmur/internal/notify"
	"murmur/internal/paste"
	"murmur/internal/ports"
	"murmur/internal/preflight"
)

const version = "0.3.0"

func main() {
	var (
		configPath  = flag.String("config", "", "config file path (default: ~/.config/murmur/config.ini)")
		listDevices = flag.Bool("list-devices", false, "list keyboard input devices and exit")
		check       = flag.Bool("check", false, "run environment preflight checks and exit")
		diagnose    = flag.Bool("diagnose", false, "print a JSON diagnose report and exit")
		smokeTest   = flag.Bool("smoke-test", false, "like -diagnose, plus a live capture/transcription probe")
		repairPaste = flag.Bool("repair-paste", false, "start ydotoold and repair /dev/uinput permissions, then exit")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("murmur " + version)
		return
	}

	if *listDevices {
		if err := (input.Enumerator{}).WriteDeviceList(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if *repairPaste {
		if err := paste.RepairPasteSetup(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("ydotool paste setup is working")
		return
	}

	cfg, err := loadSettings(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *check {
		report := preflight.CheckEnvironment(cfg)
		fmt.Print(report.String())
		if report.HasCriticalFailures() {
			os.Exit(1)
		}
		return
	}

	if *diagnose || *smokeTest {
		ok, err := diagnostics.RunAndPrint(os.Stdout, cfg, commandName(*smokeTest), version, *smokeTest)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if !ok {
			os.Exit(1)
		}
		return
	}

	os.Exit(runDaemon(cfg, *configPath))
}

func commandName(withSmokeTest bool) string {
	if withSmokeTest {
		return "smoke-test"
	}
	return "diagnose"
}

func loadSettings(path string) (config.Settings, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func runDaemon(cfg config.Settings, configPath string) int {
	closeLog := setupLogging(cfg)
	defer closeLog()

	if configPath == "" {
		if path, err := config.EnsureDefaultFile(); err != nil {
			slog.Warn("could not write default config", "error", err)
		} else {
			slog.Info("using config", "path", path)
		}
	}

	report := preflight.CheckEnvironment(cfg)
	if report.HasCriticalFailures() {
		fmt.Fprint(os.Stderr, report.String())
		slog.Error("startup blocked by environment", "summary", report.CriticalFailureSummary())
		return 1
	}
	if report.HasWarnings() {
		slog.Warn("environment has warnings, run -check for details")
	}

	var notifier ports.Notifier = notify.Log{}
	if cfg.DesktopNotifications {
		notifier = notify.Multi{notify.Log{}, notify.Desktop{}}
	}

	slog.Info(bootstrap.DescribeStartup(cfg))
	services, err := bootstrap.Build(cfg, notifier)
	if err != nil {
		slog.Error("failed to assemble session", "error", err)
		return 1
	}

	controller := services.Controller

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, unix.SIGTERM)
	go func() {
		sig := <-signals
		slog.Info("shutdown signal received", "signal", sig.String())
		controller.ShutdownHandle().Request()
	}()

	if err := controller.Run(context.Background()); err != nil {
		slog.Error("session failed", "error", err)
		return 1
	}
	return 0
}

// setupLogging sends structured logs to stderr and, when configured, to
// the log file the -diagnose report tails.
func setupLogging(cfg config.Settings) func() {
	var out io.Writer = os.Stderr
	closer := func() {}

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err == nil {
			if f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
				out = io.MultiWriter(os.Stderr, f)
				closer = func() { f.Close() }
			}
		}
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)})
	slog.SetDefault(slog.New(handler))
	return closer
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
