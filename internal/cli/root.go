package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"pamadmin/internal/config"
	"pamadmin/internal/log"
)

// Options lets tests replace the clock and the configuration source.
type Options struct {
	Clock      func() time.Time
	LoadConfig func() (*config.Config, error)
}

// runtime is filled by the root command before any subcommand runs.
type runtime struct {
	opts   Options
	cfg    *config.Config
	logger *log.Logger
}

// build wires a fresh App for one command invocation.
func (rt *runtime) build(ctx context.Context) (*App, error) {
	return Build(ctx, rt.cfg, rt.logger, rt.opts.Clock)
}

func (rt *runtime) now() time.Time {
	if rt.opts.Clock != nil {
		return rt.opts.Clock()
	}
	return time.Now()
}

// NewRootCmd creates the "pam-admin" command and registers its
// subcommands.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.LoadConfig == nil {
		opts.LoadConfig = LoadAndValidateConfig
	}
	rt := &runtime{opts: opts}

	var envFile string
	root := &cobra.Command{
		Use:           "pam-admin",
		Short:         "Attendance and payroll administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if envFile != "" {
				LoadEnvFile(envFile)
			} else {
				LoadEnvFile()
			}
			cfg, err := rt.opts.LoadConfig()
			if err != nil {
				return err
			}
			rt.cfg = cfg
			rt.logger = SetupLogger(cfg, cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment variables from this file instead of .env")

	root.AddCommand(
		newServeCmd(rt),
		newAuditWorkerCmd(rt),
		newSummaryCmd(rt),
		newSalaryCmd(rt),
	)
	return root
}

// colorEnabled reports whether w is a terminal.
func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
