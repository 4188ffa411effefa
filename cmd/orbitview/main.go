// Command orbitview opens a window and renders a full-screen scene around a pivot that
// mouse, touch and keyboard input orbit, pan and zoom.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/Carmen-Shannon/orbitview/engine"
	"github.com/Carmen-Shannon/orbitview/engine/config"
	"github.com/Carmen-Shannon/orbitview/engine/renderer"
	"github.com/pkg/profile"
)

// drainTimeout bounds the wait for in-flight frames at shutdown.
const drainTimeout = 5 * time.Second

func init() {
	// GLFW must run on the main thread.
	runtime.LockOSThread()
}

type options struct {
	configPath  string
	logLevel    string
	cpuProfile  string
	presentMode string
	fallback    bool
	profiling   bool
	dumpConfig  string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	if opts.dumpConfig != "" {
		if err := dumpConfig(stdout, opts.dumpConfig, cfg); err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
		return 0
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if opts.cpuProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(opts.cpuProfile), profile.NoShutdownHook).Stop()
	}

	e, err := engine.NewEngineFromConfig(cfg, logger)
	if err != nil {
		logger.Error("setup failed", slog.Any("error", err), slog.Bool("gpu", errors.Is(err, renderer.ErrSetup)))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runErr := e.Run(ctx)

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := e.Close(drainCtx); err != nil {
		logger.Warn("shutdown", slog.Any("error", err))
	}

	if runErr != nil {
		logger.Error("stopped", slog.Any("error", runErr))
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("orbitview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "TOML or YAML configuration file")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level override: debug, info, warn or error")
	fs.StringVar(&opts.cpuProfile, "cpuprofile", "", "write a CPU profile into this directory")
	fs.StringVar(&opts.presentMode, "present-mode", "", "present mode override: vsync or uncapped")
	fs.BoolVar(&opts.fallback, "fallback-adapter", false, "force the software fallback adapter")
	fs.BoolVar(&opts.profiling, "profile-frames", false, "log frame statistics periodically")
	fs.StringVar(&opts.dumpConfig, "dump-config", "", "print the effective configuration as toml or yaml and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
		fmt.Fprintln(stderr, err)
		return options{}, err
	}
	return opts, nil
}

// loadConfig layers the config file and then the flags over the defaults.
func loadConfig(opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.presentMode != "" {
		cfg.Renderer.PresentMode = opts.presentMode
	}
	if opts.fallback {
		cfg.Renderer.ForceFallbackAdapter = true
	}
	if opts.profiling {
		cfg.Profiling.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func dumpConfig(w io.Writer, format string, cfg config.Config) error {
	f, err := config.FormatFromPath("." + format)
	if err != nil {
		return err
	}
	return config.Encode(w, f, cfg)
}
