package cli

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/mhahn/stacker-blueprints/pkg/datapipeline"
	"github.com/mhahn/stacker-blueprints/pkg/dot"
	"github.com/mhahn/stacker-blueprints/pkg/provider/aws/resources"
	"github.com/mhahn/stacker-blueprints/pkg/stack"
	"github.com/spf13/cobra"
)

var (
	nameColor     = color.New(color.Bold)
	requiredColor = color.New(color.FgRed)
)

func newListCmd(registry *blueprint.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "list [blueprint]",
		Short: "List the registered blueprints, or describe one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, name := range registry.Names() {
					bp, _ := registry.Get(name)
					nameColor.Fprintf(out, "%-24s", name)
					fmt.Fprintf(out, " %s\n", bp.Description)
				}
				return nil
			}
			bp, ok := registry.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown blueprint %s", args[0])
			}
			describe(out, bp)
			return nil
		},
	}
}

func describe(out io.Writer, bp *blueprint.Blueprint) {
	nameColor.Fprintln(out, bp.Name)
	fmt.Fprintln(out, bp.Description)

	if len(bp.Variables) > 0 {
		fmt.Fprintln(out, "\nVariables:")
		for _, name := range bp.Variables.Names() {
			v := bp.Variables[name]
			describeField(out, name, string(v.Type), v.Default, v.Description)
		}
	}
	if len(bp.Parameters) > 0 {
		fmt.Fprintln(out, "\nParameters:")
		for _, name := range bp.Parameters.Names() {
			p := bp.Parameters[name]
			describeField(out, name, p.Type, p.Default, p.Description)
		}
	}
}

func describeField(out io.Writer, name, typ string, def any, description string) {
	fmt.Fprintf(out, "  %s (%s)", name, typ)
	if def == nil {
		requiredColor.Fprint(out, " required")
	} else {
		fmt.Fprintf(out, " default %q", fmt.Sprint(def))
	}
	if description != "" {
		fmt.Fprintf(out, ": %s", description)
	}
	fmt.Fprintln(out)
}

type graphOptions struct {
	output string
}

func newGraphCmd(root *rootOptions, registry *blueprint.Registry) *cobra.Command {
	opts := &graphOptions{}
	cmd := &cobra.Command{
		Use:   "graph <stack>",
		Short: "Print the creation order of a stack's resources and data pipeline objects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, renderer, err := loadRenderer(root, registry)
			if err != nil {
				return err
			}
			s, ok := renderer.Config.Stack(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", stack.ErrUnknownStack, args[0])
			}
			rs, err := renderer.RenderStack(s)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch opts.output {
			case "text":
				return printGraph(out, rs)
			case "dot":
				return writeDot(out, rs)
			case "svg":
				buf := new(bytes.Buffer)
				if err := writeDot(buf, rs); err != nil {
					return err
				}
				svg, err := dot.ExecPan(buf, rs.Stack.Name)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, svg)
				return err
			default:
				return fmt.Errorf("unknown graph output %q", opts.output)
			}
		},
	}
	cmd.Flags().StringVar(&opts.output, "output", "text", "Output: text, dot or svg. svg requires graphviz")
	return cmd
}

func pipelines(t *cfn.Template, order []string) map[string]*datapipeline.Pipeline {
	ps := make(map[string]*datapipeline.Pipeline)
	for _, id := range order {
		if dp, ok := t.Resources[id].Properties.(*resources.DataPipeline); ok {
			ps[id] = datapipeline.FromResource(dp)
		}
	}
	return ps
}

func printGraph(out io.Writer, rs *stack.Rendered) error {
	order, err := rs.Template.CreationOrder()
	if err != nil {
		return err
	}
	nameColor.Fprintf(out, "%s resources:\n", rs.Stack.Name)
	for _, id := range order {
		fmt.Fprintf(out, "  %s (%s)\n", id, rs.Template.Resources[id].Type)
	}

	ps := pipelines(rs.Template, order)
	for _, id := range order {
		p, ok := ps[id]
		if !ok {
			continue
		}
		objects, err := p.Order()
		if err != nil {
			return fmt.Errorf("pipeline %s: %w", id, err)
		}
		nameColor.Fprintf(out, "%s objects:\n", id)
		for _, o := range objects {
			fmt.Fprintf(out, "  %s\n", o)
		}
	}
	return nil
}

func writeDot(out io.Writer, rs *stack.Rendered) error {
	g, err := rs.Template.DependencyGraph()
	if err != nil {
		return err
	}
	order, err := rs.Template.CreationOrder()
	if err != nil {
		return err
	}
	clusters := []dot.Cluster{{
		Name:  "resources",
		Graph: g,
		Order: order,
		Attributes: func(id string) map[string]string {
			return map[string]string{"tooltip": rs.Template.Resources[id].Type}
		},
	}}

	ps := pipelines(rs.Template, order)
	for _, id := range order {
		p, ok := ps[id]
		if !ok {
			continue
		}
		pg, err := p.Graph()
		if err != nil {
			return fmt.Errorf("pipeline %s: %w", id, err)
		}
		objects, err := p.Order()
		if err != nil {
			return fmt.Errorf("pipeline %s: %w", id, err)
		}
		clusters = append(clusters, dot.Cluster{
			Name:  id,
			Graph: pg,
			Order: objects,
			Attributes: func(oid string) map[string]string {
				o, _ := p.Object(oid)
				return map[string]string{"tooltip": o.Type(), "shape": "ellipse"}
			},
		})
	}
	return dot.WriteDigraph(out, rs.Stack.Name, clusters...)
}
