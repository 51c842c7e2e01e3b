// Package main is the entry point for the avagql command line client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vyrodovalexey/avagql/internal/config"
	"github.com/vyrodovalexey/avagql/internal/observability"
	"github.com/vyrodovalexey/avagql/internal/util"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// Exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitCancelled = 130
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	endpoint    string
	queryPath   string
	variables   string
	authType    string
	maxTries    int
	repeat      int
	interval    time.Duration
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if flags.showVersion {
		printVersion(stdout)
		return exitOK
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return exitUsage
	}

	logger, err := initLogger(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()

	text, err := readQuery(flags.queryPath, stdin)
	if err != nil {
		logger.Error("failed to read query", observability.Error(err))
		return exitUsage
	}
	variables, err := parseVariables(flags.variables)
	if err != nil {
		logger.Error("failed to parse variables", observability.Error(err))
		return exitUsage
	}

	app, err := initApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize client", observability.Error(err))
		return exitUsage
	}
	defer app.shutdown(logger)

	err = runQueries(ctx, app, text, variables, flags.repeat, flags.interval, stdout)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		logger.Warn("interrupted")
		return exitCancelled
	case util.IsConfigError(err):
		logger.Error("invalid request", observability.Error(err))
		return exitUsage
	default:
		logger.Error("query failed", observability.Error(err))
		return exitFailure
	}
}

// parseFlags parses command line flags.
func parseFlags(args []string, stderr io.Writer) (cliFlags, error) {
	var flags cliFlags

	fs := flag.NewFlagSet("avagql", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&flags.configPath, "config", getEnvOrDefault("AVAGQL_CONFIG", ""),
		"Path to configuration file")
	fs.StringVar(&flags.endpoint, "endpoint", "",
		"GraphQL endpoint URL (overrides config and GRAPHQL_ENDPOINT)")
	fs.StringVar(&flags.queryPath, "query", "-",
		"Path to a file holding the query, or - for stdin")
	fs.StringVar(&flags.variables, "variables", "",
		"Query variables as a JSON object")
	fs.StringVar(&flags.authType, "auth-type", "",
		"Authentication type (bearer, hasura-admin, jwt, none)")
	fs.IntVar(&flags.maxTries, "max-tries", getEnvInt("AVAGQL_MAX_TRIES", 0),
		"Maximum number of attempts (0 keeps the configured value)")
	fs.IntVar(&flags.repeat, "repeat", 1,
		"Number of times to run the query")
	fs.DurationVar(&flags.interval, "interval", getEnvDuration("AVAGQL_INTERVAL", 0),
		"Delay between repeated runs")
	fs.StringVar(&flags.logLevel, "log-level", getEnvOrDefault("AVAGQL_LOG_LEVEL", ""),
		"Log level (debug, info, warn, error)")
	fs.StringVar(&flags.logFormat, "log-format", getEnvOrDefault("AVAGQL_LOG_FORMAT", ""),
		"Log format (json, console)")
	fs.BoolVar(&flags.showVersion, "version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}
	if flags.repeat < 1 {
		fmt.Fprintln(stderr, "-repeat must be at least 1")
		return cliFlags{}, util.NewConfigError("repeat", "must be at least 1")
	}
	if flags.maxTries < 0 {
		fmt.Fprintln(stderr, "-max-tries must be non-negative")
		return cliFlags{}, util.NewConfigError("maxTries", "must be non-negative")
	}
	return flags, nil
}

// printVersion prints version information.
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "avagql version %s\n", version)
	fmt.Fprintf(w, "  Build time: %s\n", buildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", gitCommit)
}

// loadConfig loads the configuration file, if any, and applies flag
// overrides.
func loadConfig(flags cliFlags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if flags.endpoint != "" {
		cfg.Endpoint = flags.endpoint
	}
	if flags.authType != "" {
		cfg.Auth.Type = flags.authType
	}
	if flags.maxTries > 0 {
		cfg.Retry.MaxTries = flags.maxTries
	}
	if flags.logLevel != "" {
		cfg.Observability.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Observability.Logging.Format = flags.logFormat
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogger initializes the logger. Output named "stderr" goes to stderr
// so that results on stdout stay machine-readable.
func initLogger(cfg *config.Config, stderr io.Writer) (observability.Logger, error) {
	logCfg := cfg.LogConfig()
	if logCfg.Output == "" || logCfg.Output == "stderr" {
		logger, err := observability.NewWriterLogger(logCfg, stderr)
		if err != nil {
			return nil, err
		}
		observability.SetGlobalLogger(logger)
		return logger, nil
	}

	logger, err := observability.NewLogger(logCfg)
	if err != nil {
		return nil, err
	}
	observability.SetGlobalLogger(logger)
	return logger, nil
}
