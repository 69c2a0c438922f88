// Hamcp exposes a Home Assistant hub to LLM agents over the Model
// Context Protocol.
//
// It normalizes the hub's raw registry and state data into clean typed
// records, ranks entities against free-text descriptions, summarizes
// state history, and triggers services, all through a tool-calling
// surface served over stdio or streamable HTTP. Configuration is
// loaded from a single YAML file discovered automatically (see
// [config.DefaultSearchPaths]).
//
// Usage:
//
//	hamcp serve              Start the MCP server
//	hamcp version            Print version and build information
//	hamcp -o json version    Output version information as JSON
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/guidomitolo/my-home-assistant/internal/action"
	"github.com/guidomitolo/my-home-assistant/internal/buildinfo"
	"github.com/guidomitolo/my-home-assistant/internal/config"
	"github.com/guidomitolo/my-home-assistant/internal/homeassistant"
	"github.com/guidomitolo/my-home-assistant/internal/mcp"
	"github.com/guidomitolo/my-home-assistant/internal/retrieval"
	"github.com/guidomitolo/my-home-assistant/internal/tools"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run]. This keeps
// os.Exit, os.Stdout, and os.Args out of the application logic so that
// the full startup-to-shutdown lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the hamcp command. All OS-level
// dependencies are injected as parameters:
//
//   - ctx controls the lifetime of the process. Cancelling it triggers
//     graceful shutdown of the server.
//   - stdin and stdout carry the MCP protocol when serving over stdio,
//     which is why structured logs always go to stderr.
//   - args is os.Args[1:], the command-line arguments after the program
//     name. We parse these manually rather than using the flag package
//     to avoid global state that interferes with parallel tests.
//
// run returns nil on clean shutdown and a non-nil error for any failure.
// The caller (main) is responsible for printing the error and exiting.
func run(ctx context.Context, stdin io.Reader, stdout io.Writer, stderr io.Writer, args []string) error {
	// Parse arguments by hand. The flag package relies on package-level
	// globals (flag.CommandLine), which makes it impossible to call run()
	// concurrently from tests. Our argument surface is small enough that
	// manual parsing is clearer than bringing in a CLI framework.
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++ // skip the value
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdin, stdout, stderr, configPath)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runServe is the primary operating mode: loads config, connects to
// Home Assistant, wires retrieval and action services into the tool
// registry, and serves MCP over the configured transport until a
// shutdown signal arrives.
func runServe(ctx context.Context, stdin io.Reader, stdout io.Writer, stderr io.Writer, configPath string) error {
	logger := newLogger(stderr, slog.LevelInfo)

	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", cfgPath, err)
	}

	// Reconfigure logger now that we know the desired level. The
	// initial Info-level logger covers only config loading.
	if cfg.LogLevel != "" {
		level, _ := config.ParseLogLevel(cfg.LogLevel)
		logger = newLogger(stderr, level)
	}

	logger.Info("starting hamcp",
		"version", buildinfo.Version,
		"commit", buildinfo.GitCommit,
		"config", cfgPath,
		"transport", transportName(cfg),
	)

	// SIGINT/SIGTERM cancel the context and trigger graceful shutdown.
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ha := homeassistant.NewClient(cfg.HomeAssistant.URL, cfg.HomeAssistant.Token, logger)
	retriever := retrieval.NewService(ha, logger)
	actor := action.NewService(ha, retriever, logger)
	registry := tools.NewRegistry(retriever, actor, logger)
	server := mcp.NewServer(registry, logger)

	switch transportName(cfg) {
	case "http":
		addr := fmt.Sprintf("%s:%d", cfg.Serve.Address, cfg.Serve.Port)
		return mcp.NewHTTPServer(server).ListenAndServe(ctx, addr)
	default:
		return mcp.ServeStdio(ctx, server, stdin, stdout)
	}
}

// transportName resolves the configured transport, defaulting to stdio.
func transportName(cfg *config.Config) string {
	if cfg.Serve.Transport == "" {
		return "stdio"
	}
	return cfg.Serve.Transport
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	// Print fields in a stable order for human readability.
	for _, k := range []string{"version", "git_commit", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// printUsage writes the top-level help text to w. It is called when
// hamcp is invoked with no arguments, or with -h / --help.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "hamcp - Home Assistant MCP server")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: hamcp [flags] <command>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Start the MCP server")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./config.yaml, ~/.config/hamcp/config.yaml, /etc/hamcp/config.yaml")
	return nil
}

// newLogger builds a structured text logger writing to w. Serving over
// stdio reserves stdout for the protocol, so w is always stderr.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadConfig locates and parses the YAML configuration file. If explicit
// is non-empty, that exact path is used (and must exist). Otherwise,
// [config.FindConfig] searches the default locations. Returns the parsed
// config, the path that was loaded, and any error.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}
