package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/rivertile/internal/config"
	"github.com/1broseidon/rivertile/internal/layout"
	"github.com/1broseidon/rivertile/internal/tiling"
	"github.com/1broseidon/rivertile/internal/wayland"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stderr)
		os.Exit(layout.ExitUsage)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runRun(os.Args[2:]))
	case "layout":
		os.Exit(runLayout(os.Args[2:]))
	case "preview":
		os.Exit(runPreview(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(layout.ExitOK)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(layout.ExitUsage)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: rivertile <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Connect to the compositor and serve layouts (foreground)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  layout list         List available layouts")
	fmt.Fprintln(w, "  preview             Sketch a layout in the terminal")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'rivertile <command> --help' for command-specific options.")
}

// parseFlags parses args and maps the outcome to an exit status; ok is
// false when the command should return code immediately.
func parseFlags(fs *flag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return layout.ExitOK, false
		}
		return layout.ExitUsage, false
	}
	return 0, true
}

func runRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: rivertile run [--config PATH] [--namespace NS]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Register as a layout generator with the running compositor and answer")
		fmt.Fprintln(os.Stderr, "layout demands until interrupted.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "Config file path (default: ~/.config/rivertile/config.yaml)")
	namespace := fs.String("namespace", "", "Layout namespace (overrides config)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "run takes no arguments")
		fs.Usage()
		return layout.ExitUsage
	}

	res, err := config.Load(*configPath)
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return layout.ExitFailure
	}
	cfg := res.Config
	if *namespace != "" {
		cfg.Namespace = *namespace
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return layout.ExitUsage
		}
	}
	policy, err := layout.ParseLayoutErrorPolicy(cfg.OnLayoutError)
	if err != nil {
		log.Printf("Invalid configuration: %v", err)
		return layout.ExitFailure
	}

	logger := newLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := wayland.Dial(ctx, logger)
	if err != nil {
		log.Printf("Failed to connect to compositor: %v", err)
		return layout.ExitCode(err)
	}

	conn := layout.NewConnection(client, tiling.NewGenerator(cfg, logger), layout.Options{
		Logger:        logger,
		OnLayoutError: policy,
	})
	if res.File != "" {
		log.Printf("Configuration loaded from %s (namespace: %s, default layout: %s)", res.File, cfg.Namespace, cfg.DefaultLayout)
	} else {
		log.Printf("Using default configuration (namespace: %s)", cfg.Namespace)
	}

	runErr := conn.Run(ctx)
	if err := conn.Close(); err != nil {
		logger.Debug("connection close", "error", err)
	}
	return runExitCode(runErr)
}

// runExitCode maps the result of a run to an exit status. An interrupted
// run is a clean shutdown.
func runExitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		log.Println("rivertile stopped")
		return layout.ExitOK
	}
	log.Printf("rivertile: %v", err)
	return layout.ExitCode(err)
}

// newLogger builds the text logger internal packages write to.
func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slogLevel(level)}))
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
