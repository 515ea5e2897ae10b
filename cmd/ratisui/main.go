// Package main is the entry point for the ratisui terminal client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/honhimW/ratisui/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		cancel()
	}()

	application, err := app.New(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize terminal: %v\n", err)
		return 1
	}
	defer screen.Fini()
	application.SetScreen(screen)

	if err := application.Run(ctx); err != nil {
		if errors.Is(err, app.ErrQuit) || errors.Is(err, context.Canceled) {
			return 0
		}
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() app.Options {
	var opts app.Options
	var tick time.Duration
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.Datasource, "datasource", "", "Name of a saved datasource")
	flag.StringVar(&opts.Datasource, "s", "", "Name of a saved datasource (shorthand)")
	flag.StringVar(&opts.Host, "host", "", "Connect directly to this host, skipping saved datasources")
	flag.IntVar(&opts.Port, "port", 0, "Port for -host (default 6379)")
	flag.StringVar(&opts.ConfigDir, "config-dir", "", "Override the config/state directory")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error); empty disables logging")
	flag.DurationVar(&tick, "tick", 0, "Render tick interval (default 50ms)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Ratisui - Redis terminal client\n\n")
		fmt.Fprintf(os.Stderr, "Usage: ratisui [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  ratisui                     Connect to the default datasource\n")
		fmt.Fprintf(os.Stderr, "  ratisui -s staging          Connect to a saved datasource\n")
		fmt.Fprintf(os.Stderr, "  ratisui -host 127.0.0.1     Connect directly\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Ratisui %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.LogLevel {
	case "", "debug", "info", "warn", "error":
		// Valid
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	opts.TickRate = tick
	return opts
}
