package stack

import (
	"errors"
	"fmt"

	"github.com/dominikbraun/graph"
	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/mhahn/stacker-blueprints/pkg/config"
	"github.com/mhahn/stacker-blueprints/pkg/lookup"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type (
	Renderer struct {
		Config   config.Config
		Registry *blueprint.Registry
		Lookups  *lookup.Resolver
	}

	// Rendered is the result of rendering one stack.
	Rendered struct {
		Stack      config.Stack
		Blueprint  *blueprint.Blueprint
		Template   *cfn.Template
		Parameters map[string]string
	}
)

var ErrUnknownStack = errors.New("unknown stack")

// NewRenderer returns a renderer for cfg, registering the config's lookup aliases.
func NewRenderer(cfg config.Config, registry *blueprint.Registry) (*Renderer, error) {
	resolver := lookup.NewResolver()
	if err := resolver.Alias(cfg.Lookups); err != nil {
		return nil, err
	}
	return &Renderer{Config: cfg, Registry: registry, Lookups: resolver}, nil
}

// Order returns the stacks to render: the enabled stacks, limited to selection when it is not
// empty, ordered so that each stack follows the stacks it requires. Ties keep config order.
func (r *Renderer) Order(selection ...string) ([]config.Stack, error) {
	selected := make(map[string]bool, len(selection))
	for _, name := range selection {
		if _, ok := r.Config.Stack(name); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStack, name)
		}
		selected[name] = true
	}

	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	position := make(map[string]int, len(r.Config.Stacks))
	for i, s := range r.Config.Stacks {
		position[s.Name] = i
		if len(selected) > 0 && !selected[s.Name] {
			continue
		}
		if !s.IsEnabled() {
			zap.S().Warnf("Skipping disabled stack %s", s.Name)
			continue
		}
		if err := g.AddVertex(s.Name); err != nil {
			return nil, err
		}
	}

	for _, s := range r.Config.Stacks {
		if _, err := g.Vertex(s.Name); err != nil {
			continue
		}
		for _, req := range s.Requires {
			if _, ok := r.Config.Stack(req); !ok {
				return nil, fmt.Errorf("stack %s requires %w: %s", s.Name, ErrUnknownStack, req)
			}
			if _, err := g.Vertex(req); err != nil {
				continue
			}
			err := g.AddEdge(req, s.Name)
			switch {
			case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				return nil, fmt.Errorf("stack %s requiring %s creates a cycle: %w", s.Name, req, err)
			default:
				return nil, err
			}
		}
	}

	names, err := graph.StableTopologicalSort(g, func(a, b string) bool {
		return position[a] < position[b]
	})
	if err != nil {
		return nil, err
	}
	stacks := make([]config.Stack, len(names))
	for i, name := range names {
		stacks[i], _ = r.Config.Stack(name)
	}
	return stacks, nil
}

// RenderStack resolves lookups, variables and parameters of a single stack and builds its template.
func (r *Renderer) RenderStack(s config.Stack) (*Rendered, error) {
	bp, ok := r.Registry.Get(s.Blueprint)
	if !ok {
		return nil, fmt.Errorf("stack %s: unknown blueprint %s", s.Name, s.Blueprint)
	}

	vars, err := r.Lookups.ResolveMap(s.Variables)
	if err != nil {
		return nil, fmt.Errorf("stack %s: %w", s.Name, err)
	}
	params, err := r.Lookups.ResolveMap(s.Parameters)
	if err != nil {
		return nil, fmt.Errorf("stack %s: %w", s.Name, err)
	}
	paramValues, err := blueprint.ResolveParameters(bp.Parameters, params)
	if err != nil {
		var cfgErr *blueprint.ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Stack = s.Name
		}
		return nil, err
	}

	mappings := make(map[string]cfn.Mapping, len(r.Config.Mappings))
	for name, m := range r.Config.Mappings {
		mappings[name] = cfn.Mapping(m)
	}

	t, err := blueprint.Render(bp, blueprint.Input{
		Namespace: r.Config.Namespace,
		StackName: s.Name,
		Mappings:  mappings,
		Tags:      s.Tags,
		Variables: vars,
	})
	if err != nil {
		return nil, err
	}
	zap.L().Debug("Rendered stack", zap.String("stack", s.Name), zap.String("blueprint", bp.Name))
	return &Rendered{Stack: s, Blueprint: bp, Template: t, Parameters: paramValues}, nil
}

// Render renders the selected stacks in order, stopping at the first failure.
func (r *Renderer) Render(selection ...string) ([]*Rendered, error) {
	stacks, err := r.Order(selection...)
	if err != nil {
		return nil, err
	}
	rendered := make([]*Rendered, 0, len(stacks))
	for _, s := range stacks {
		rs, err := r.RenderStack(s)
		if err != nil {
			return nil, err
		}
		rendered = append(rendered, rs)
	}
	return rendered, nil
}

// Validate renders every selected stack and returns the errors of all of them.
func (r *Renderer) Validate(selection ...string) error {
	stacks, err := r.Order(selection...)
	if err != nil {
		return err
	}
	var errs error
	for _, s := range stacks {
		if _, err := r.RenderStack(s); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
