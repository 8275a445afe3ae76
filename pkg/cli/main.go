package cli

import (
	"os"

	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/mhahn/stacker-blueprints/pkg/closenicely"
	"github.com/mhahn/stacker-blueprints/pkg/logging"
	"github.com/spf13/cobra"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type BlueprintsMain struct {
	Version  string
	Registry *blueprint.Registry
}

type rootOptions struct {
	verbose bool
	jsonLog bool
	color   string
	strict  bool
	configs []string
}

var hadWarnings = atomic.NewBool(false)

func (bm BlueprintsMain) Main() {
	// Errors from flag parsing happen before the configured logger exists.
	if z, err := (logging.LogOpts{}).NewLogger(nil); err == nil {
		zap.ReplaceGlobals(z)
	}

	opts := &rootOptions{}
	root := bm.newRootCmd(opts)

	err := root.Execute()
	if err != nil {
		ErrorHandler{Verbose: opts.verbose}.PrintErr(err)
		os.Exit(1)
	}
	if hadWarnings.Load() && opts.strict {
		zap.S().Error("Warnings were logged and --strict is set")
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Flag values are written into opts.
func (bm BlueprintsMain) newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "blueprints",
		Short:         "Render CloudFormation templates from stack configs",
		Version:       bm.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setupLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closenicely.FuncOrDebug(zap.L().Sync, "logger")
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose flag")
	flags.BoolVar(&opts.jsonLog, "json-log", false, "Log as JSON")
	flags.StringVar(&opts.color, "color", "auto", "Colorize console logs: auto, always or never")
	flags.BoolVar(&opts.strict, "strict", false, "Fail on warnings")
	flags.StringArrayVarP(&opts.configs, "config", "c", nil, "Stack config files or globs, merged in order")

	registry := bm.Registry
	root.AddCommand(
		newRenderCmd(opts, registry),
		newValidateCmd(opts, registry),
		newDiffCmd(opts, registry),
		newListCmd(registry),
		newGraphCmd(opts, registry),
	)
	return root
}

func (opts *rootOptions) setupLogger() error {
	logOpts := logging.LogOpts{Verbose: opts.verbose, Color: opts.color}
	if opts.jsonLog {
		logOpts.Encoding = "json"
	}
	z, err := logOpts.NewLogger(hadWarnings)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(z)
	return nil
}
