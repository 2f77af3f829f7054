package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/config"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/engine"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/logging"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/telemetry"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/version"
)

var (
	// errScanFailed means every resource class failed at enumeration; the
	// report was written but carries no audited resources.
	errScanFailed = errors.New("every resource class failed to enumerate")

	// errUnhealthy is returned by doctor after it has printed its result.
	errUnhealthy = errors.New("environment unhealthy")
)

// app carries the collaborators shared by all commands. Tests replace the
// provider and directory factory with fakes.
type app struct {
	v   *viper.Viper
	cfg *config.Config
	log zerolog.Logger

	provider    common.AWSClientProvider
	directories engine.DirectoryFactory

	stdout io.Writer
	stderr io.Writer

	// tracing is off for tests and for commands that never start spans.
	tracing       bool
	stopTelemetry telemetry.ShutdownFunc
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		v:           config.New(),
		log:         zerolog.Nop(),
		provider:    common.NewDefaultAWSClientProvider(),
		directories: engine.AWSDirectories,
		stdout:      stdout,
		stderr:      stderr,
		tracing:     true,
	}
}

func newRootCmd(a *app) *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "posture",
		Short:         "Audit AWS storage, identity and audit-trail posture",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, configFile)
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default: .posture.yaml in cwd, $HOME or $XDG_CONFIG_HOME/posture)")
	pf.String("profile", "", "AWS profile name (default: credential chain)")
	pf.String("endpoint", "", "custom AWS endpoint URL")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "console", "log format: console or json")
	pf.Bool("no-color", false, "disable coloured output")
	pf.String("otel-endpoint", "", "OTLP/HTTP endpoint for traces")

	root.AddCommand(newAuditCmd(a), newDoctorCmd(a), newVersionCmd())
	return root
}

// init resolves configuration and builds the logger. Flags are bound here
// rather than at construction so the executing subcommand's flags are seen.
func (a *app) init(cmd *cobra.Command, configFile string) error {
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return fmt.Errorf("%w: %w", engine.ErrSetup, err)
	}
	used, err := config.ReadFile(a.v, configFile)
	if err != nil {
		return fmt.Errorf("%w: %w", engine.ErrSetup, err)
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("%w: invalid configuration: %w", engine.ErrSetup, err)
	}
	a.cfg = cfg

	a.log, err = logging.Init(logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		NoColor: cfg.Log.NoColor,
		Writer:  a.stderr,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", engine.ErrSetup, err)
	}
	if used != "" {
		a.log.Debug().Str("file", used).Msg("config loaded")
	}
	if cfg.Log.NoColor {
		color.NoColor = true
	}

	if a.tracing && cmd.Name() == "audit" {
		a.stopTelemetry, err = telemetry.Init(cmd.Context(), "posture", version.Version, cfg.Otel.Endpoint)
		if err != nil {
			a.log.Warn().Err(err).Msg("tracing disabled")
		}
	}
	return nil
}

func (a *app) shutdown() {
	if a.stopTelemetry == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.stopTelemetry(ctx); err != nil {
		a.log.Debug().Err(err).Msg("flush traces")
	}
}

// exitCode maps a command error onto the process exit status and prints it.
// Findings and partial failures never reach here as errors.
func (a *app) exitCode(err error) int {
	if err == nil {
		return 0
	}
	switch {
	case errors.Is(err, errUnhealthy):
		// doctor already printed its result.
	case errors.Is(err, engine.ErrSetup):
		fmt.Fprintf(a.stderr, "Error: setup failed, no report written: %v\n", unwrapSentinel(err, engine.ErrSetup))
	case errors.Is(err, engine.ErrOutput):
		fmt.Fprintf(a.stderr, "Error: audit completed but the report could not be written: %v\n", unwrapSentinel(err, engine.ErrOutput))
	case errors.Is(err, errScanFailed):
		fmt.Fprintf(a.stderr, "Error: %v; see scan_status in the report\n", err)
	default:
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
	return 1
}

// unwrapSentinel strips the "sentinel: " prefix added when wrapping.
func unwrapSentinel(err, sentinel error) string {
	msg, _ := strings.CutPrefix(err.Error(), sentinel.Error()+": ")
	return msg
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}
