package cli

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/mhahn/stacker-blueprints/pkg/config"
	"github.com/mhahn/stacker-blueprints/pkg/io"
	"github.com/mhahn/stacker-blueprints/pkg/stack"
	"github.com/mhahn/stacker-blueprints/pkg/templatediff"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const defaultOutDir = "templates"

var errDifferences = errors.New("rendered templates differ")

var stackColor = color.New(color.FgCyan, color.Bold)

type renderOptions struct {
	outDir   string
	format   string
	stacks   []string
	exitCode bool
}

func newRenderCmd(root *rootOptions, registry *blueprint.Registry) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the templates and parameters of the configured stacks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, renderer, err := loadRenderer(root, registry)
			if err != nil {
				return err
			}
			rendered, err := renderer.Render(opts.stacks...)
			if err != nil {
				return err
			}
			files, err := renderedFiles(cfg, rendered, opts.templateFormat(cfg))
			if err != nil {
				return err
			}
			if err := io.OutputTo(files, opts.outDir); err != nil {
				return err
			}
			zap.S().Infof("Rendered %d stacks to %s", len(rendered), opts.outDir)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.outDir, "outDir", "o", defaultOutDir, "Output directory")
	opts.addSelectionFlags(flags)
	return cmd
}

func newValidateCmd(root *rootOptions, registry *blueprint.Registry) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Render every configured stack and report all errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, renderer, err := loadRenderer(root, registry)
			if err != nil {
				return err
			}
			if err := renderer.Validate(opts.stacks...); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&opts.stacks, "stack", nil, "Only these stacks")
	return cmd
}

func newDiffCmd(root *rootOptions, registry *blueprint.Registry) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare rendered stacks against the files of a previous render",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, renderer, err := loadRenderer(root, registry)
			if err != nil {
				return err
			}
			rendered, err := renderer.Render(opts.stacks...)
			if err != nil {
				return err
			}
			differing := 0
			for _, rs := range rendered {
				changed, err := diffStack(cmd, cfg, rs, opts)
				if err != nil {
					return err
				}
				if changed {
					differing++
				}
			}
			if differing == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes")
				return nil
			}
			if opts.exitCode {
				return fmt.Errorf("%w: %d stacks", errDifferences, differing)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.outDir, "dir", "d", defaultOutDir, "Directory of the previous render")
	flags.BoolVar(&opts.exitCode, "exit-code", false, "Fail when any stack differs")
	opts.addSelectionFlags(flags)
	return cmd
}

func (opts *renderOptions) addSelectionFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&opts.format, "format", "F", "", "Template format: json or yaml. Defaults to the config's format")
	flags.StringSliceVar(&opts.stacks, "stack", nil, "Only these stacks")
}

// templateFormat is the --format flag or the format of the config, json for toml configs.
func (opts *renderOptions) templateFormat(cfg config.Config) string {
	if opts.format != "" {
		return opts.format
	}
	if cfg.Format == "yaml" {
		return "yaml"
	}
	return "json"
}

func loadRenderer(root *rootOptions, registry *blueprint.Registry) (config.Config, *stack.Renderer, error) {
	if len(root.configs) == 0 {
		return config.Config{}, nil, errors.New("no config given, use --config")
	}
	cfg, err := config.Load(root.configs...)
	if err != nil {
		return cfg, nil, err
	}
	renderer, err := stack.NewRenderer(cfg, registry)
	return cfg, renderer, err
}

func renderedFiles(cfg config.Config, rendered []*stack.Rendered, format string) ([]io.File, error) {
	var files []io.File
	for _, rs := range rendered {
		fs, err := rs.Files(cfg.Namespace, format)
		if err != nil {
			return nil, err
		}
		files = append(files, fs...)
	}
	return files, nil
}

// diffStack prints the changes of one stack against the files in opts.outDir and reports whether
// there were any. A missing previous template shows every field as created.
func diffStack(cmd *cobra.Command, cfg config.Config, rs *stack.Rendered, opts *renderOptions) (bool, error) {
	out := cmd.OutOrStdout()
	format := opts.templateFormat(cfg)
	templatePath := stack.TemplatePath(cfg.Namespace, rs.Stack.Name, format)
	paramsPath := stack.ParametersPath(cfg.Namespace, rs.Stack.Name)

	previous, err := io.ReadDir(opts.outDir, []string{templatePath, paramsPath})
	if err != nil {
		return false, err
	}
	old, err := contents(previous)
	if err != nil {
		return false, err
	}
	files, err := rs.Files(cfg.Namespace, format)
	if err != nil {
		return false, err
	}
	current, err := contents(files)
	if err != nil {
		return false, err
	}

	changes, err := templatediff.Documents(old[templatePath], current[templatePath])
	if err != nil {
		return false, fmt.Errorf("stack %s: %w", rs.Stack.Name, err)
	}
	paramsChanged := !bytes.Equal(old[paramsPath], current[paramsPath])
	if len(changes) == 0 && !paramsChanged {
		zap.L().Debug("Stack unchanged", zap.String("stack", rs.Stack.Name))
		return false, nil
	}

	stackColor.Fprintf(out, "%s\n", rs.Stack.Name)
	if err := changes.Print(out); err != nil {
		return true, err
	}
	if paramsChanged {
		fmt.Fprintf(out, "~ %s\n", paramsPath)
	}
	return true, nil
}

func contents(files []io.File) (map[string][]byte, error) {
	byPath := make(map[string][]byte, len(files))
	for _, f := range files {
		buf := new(bytes.Buffer)
		if _, err := f.WriteTo(buf); err != nil {
			return nil, err
		}
		byPath[f.Path()] = buf.Bytes()
	}
	return byPath, nil
}
