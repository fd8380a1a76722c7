package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/runnerforge/internal/build"
	"git.home.luguber.info/inful/runnerforge/internal/bundler"
	"git.home.luguber.info/inful/runnerforge/internal/capability"
	"git.home.luguber.info/inful/runnerforge/internal/config"
	"git.home.luguber.info/inful/runnerforge/internal/daemon"
	"git.home.luguber.info/inful/runnerforge/internal/discovery"
	"git.home.luguber.info/inful/runnerforge/internal/logfields"
	"git.home.luguber.info/inful/runnerforge/internal/metrics"
	"git.home.luguber.info/inful/runnerforge/internal/sandbox"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"runnerforge.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output      string `short:"o" help:"Output directory name (overrides configuration)"`
		SkipCatalog bool   `help:"Bundle entries only; skip catalog and manifest generation"`
	} `cmd:"" help:"Build the runner catalog from the project source tree"`

	Discover struct{} `cmd:"" help:"List qualifying entry points without building"`

	Daemon struct {
		Output string `short:"o" help:"Output directory name (overrides configuration)"`
	} `cmd:"" help:"Rebuild the catalog continuously on source changes"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", logfields.Error(err))
		os.Exit(1)
	}

	switch ctx.Command() {
	case "build":
		opts := build.Options{OutputDir: CLI.Build.Output, SkipCatalog: CLI.Build.SkipCatalog}
		if err := runBuild(cfg, opts); err != nil {
			slog.Error("Build failed", logfields.Error(err))
			os.Exit(1)
		}
	case "discover":
		if err := runDiscover(cfg); err != nil {
			slog.Error("Discover failed", logfields.Error(err))
			os.Exit(1)
		}
	case "daemon":
		opts := build.Options{OutputDir: CLI.Daemon.Output}
		if err := runDaemon(cfg, opts); err != nil {
			slog.Error("Daemon failed", logfields.Error(err))
			os.Exit(1)
		}
	}
}

func newService(cfg *config.Config, recorder metrics.Recorder) *build.Service {
	return build.NewService(cfg,
		&bundler.ESBuildEngine{},
		&sandbox.NodeLoader{},
		capability.StaticEvaluator{},
		recorder)
}

func runBuild(cfg *config.Config, opts build.Options) error {
	res, err := newService(cfg, nil).Run(context.Background(), opts)
	if err != nil {
		return err
	}
	if res.Catalog != nil {
		slog.Info("Catalog written",
			logfields.Path(res.OutputDir),
			logfields.Count(len(res.Catalog.Runners)))
	}
	for _, warning := range res.Warnings {
		slog.Warn("Build completed with warning", logfields.Error(warning))
	}
	return nil
}

func runDiscover(cfg *config.Config) error {
	entries, err := discovery.NewDiscoverer(cfg.Source).Discover()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		slog.Info("Entry point",
			logfields.Path(entry.SourcePath),
			logfields.BuildID(entry.BuildID))
	}
	slog.Info("Discovery completed", logfields.Count(len(entries)))
	return nil
}

func runDaemon(cfg *config.Config, opts build.Options) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.New(cfg, func(recorder metrics.Recorder) *build.Service {
		return newService(cfg, recorder)
	}, opts)
	if err != nil {
		return err
	}
	return d.Run(ctx)
}
