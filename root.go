package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/zvmconnector-go/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagHost       string
	flagPort       int
	flagTokenPath  string
	flagSSL        bool
	flagJSON       bool
	flagVerbose    bool
	flagDebug      bool
	flagQuiet      bool
)

// skipConfigAnnotation marks commands that manage the config file themselves
// and must work before a valid one exists.
const skipConfigAnnotation = "skipConfig"

const logFilePermissions = 0o600

// CLIFlags is a snapshot of the persistent flags for one invocation.
type CLIFlags struct {
	ConfigPath string
	JSON       bool
	Verbose    bool
	Debug      bool
	Quiet      bool
}

// CLIContext carries everything a subcommand needs: the resolved config,
// the logger built from it, and the flag snapshot.
type CLIContext struct {
	Flags   CLIFlags
	Cfg     *config.Config
	CfgPath string
	Logger  *slog.Logger

	logCloser io.Closer
}

type cliContextKey struct{}

// cliContextFrom returns the CLIContext stored by the root pre-run, or nil.
func cliContextFrom(ctx context.Context) *CLIContext {
	cc, _ := ctx.Value(cliContextKey{}).(*CLIContext)

	return cc
}

// mustCLIContext is cliContextFrom for commands that always run after the
// root pre-run.
func mustCLIContext(ctx context.Context) *CLIContext {
	cc := cliContextFrom(ctx)
	if cc == nil {
		panic("BUG: CLIContext not initialized by PersistentPreRunE")
	}

	return cc
}

// newRootCmd builds the root command with all subcommands registered.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "zvmconnector",
		Short:   "z/VM Cloud Connector client",
		Long:    "Run z/VM Cloud Connector operations and manage images from the command line.",
		Version: version,
		// Errors are printed once by main.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := newCLIContext(cmd)
			if err != nil {
				return err
			}

			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cc))

			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if cc := cliContextFrom(cmd.Context()); cc != nil && cc.logCloser != nil {
				return cc.logCloser.Close()
			}

			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flagConfigPath, "config", "", "config file path")
	pf.StringVar(&flagHost, "host", "", "connector host (overrides config)")
	pf.IntVar(&flagPort, "port", 0, "connector port (overrides config)")
	pf.StringVar(&flagTokenPath, "token-path", "", "admin credential file (overrides config)")
	pf.BoolVar(&flagSSL, "ssl", false, "use HTTPS (overrides config)")
	pf.BoolVar(&flagJSON, "json", false, "output in JSON format")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "enable info logging")
	pf.BoolVar(&flagDebug, "debug", false, "enable debug logging, including request traces")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newCallCmd())
	cmd.AddCommand(newOpsCmd())
	cmd.AddCommand(newImageCmd())
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newRecordsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func snapshotFlags() CLIFlags {
	return CLIFlags{
		ConfigPath: flagConfigPath,
		JSON:       flagJSON,
		Verbose:    flagVerbose,
		Debug:      flagDebug,
		Quiet:      flagQuiet,
	}
}

// cliOverrides collects only the flags the user explicitly set.
func cliOverrides(cmd *cobra.Command) config.CLIOverrides {
	cli := config.CLIOverrides{ConfigPath: flagConfigPath}
	flags := cmd.Flags()

	if flags.Changed("host") {
		cli.Host = &flagHost
	}

	if flags.Changed("port") {
		cli.Port = &flagPort
	}

	if flags.Changed("token-path") {
		cli.TokenPath = &flagTokenPath
	}

	if flags.Changed("ssl") {
		cli.SSLEnabled = &flagSSL
	}

	return cli
}

// newCLIContext resolves configuration and builds the logger. Commands
// annotated with skipConfigAnnotation get a bootstrap logger and no config.
func newCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	env := config.ReadEnvOverrides()
	cli := cliOverrides(cmd)

	cc := &CLIContext{
		Flags:   snapshotFlags(),
		CfgPath: config.ResolvePath(env, cli),
	}

	if cmd.Annotations[skipConfigAnnotation] == "true" {
		cc.Logger = bootstrapLogger()

		return cc, nil
	}

	cfg, err := config.Resolve(env, cli)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	cc.Cfg = cfg

	logger, closer, err := buildLogger(cfg, cc.Flags)
	if err != nil {
		return nil, err
	}

	cc.Logger = logger
	cc.logCloser = closer

	logger.Debug("config resolved", slog.String("path", cc.CfgPath), slog.String("host", cfg.Host))

	return cc, nil
}

// bootstrapLogger is used before config is available. Default level is Warn;
// --verbose, --debug and --quiet adjust it.
func bootstrapLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: flagLevel(slog.LevelWarn, snapshotFlags()),
	}))
}

// flagLevel applies the CLI verbosity flags on top of a baseline level.
func flagLevel(base slog.Level, flags CLIFlags) slog.Level {
	switch {
	case flags.Quiet:
		return slog.LevelError
	case flags.Debug:
		return slog.LevelDebug
	case flags.Verbose && base > slog.LevelInfo:
		return slog.LevelInfo
	default:
		return base
	}
}

// configLevel maps log_level to an slog level.
func configLevel(name string) slog.Level {
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

// buildLogger creates the logger described by the config, with CLI flags
// taking precedence over log_level. The returned closer is non-nil when a
// log file was opened.
func buildLogger(cfg *config.Config, flags CLIFlags) (*slog.Logger, io.Closer, error) {
	var (
		out    io.Writer = os.Stderr
		closer io.Closer
	)

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}

		out = f
		closer = f
	}

	opts := &slog.HandlerOptions{Level: flagLevel(configLevel(cfg.LogLevel), flags)}

	if useJSONLogs(cfg.LogFormat, out) {
		return slog.New(slog.NewJSONHandler(out, opts)), closer, nil
	}

	return slog.New(slog.NewTextHandler(out, opts)), closer, nil
}

// useJSONLogs resolves log_format. "auto" picks text for terminals and JSON
// for everything else.
func useJSONLogs(format string, out io.Writer) bool {
	switch format {
	case "json":
		return true
	case "text":
		return false
	}

	f, ok := out.(*os.File)
	if !ok {
		return true
	}

	return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
