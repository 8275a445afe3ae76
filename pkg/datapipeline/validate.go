package datapipeline

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/dominikbraun/graph"
	"go.uber.org/zap"
)

// parameterExprRegexp matches pipeline parameter expressions such as #{myRegion}. Parameter ids
// always start with "my", which distinguishes them from field expressions like #{input.tableName}.
var parameterExprRegexp = regexp.MustCompile(`#\{(my[A-Za-z0-9_]*)\}`)

var (
	ErrDuplicateID  = errors.New("duplicate pipeline object id")
	ErrEmptyID      = errors.New("pipeline object id must not be empty")
	ErrInvalidField = errors.New("field must have exactly one of StringValue or RefValue")
)

// ReferenceError is returned when a field refers to an object or parameter that is not declared
// in the pipeline.
type ReferenceError struct {
	Object string
	Field  string
	Ref    string
	// Parameter is set when the dangling reference is a #{myParameter} expression.
	Parameter bool
}

func (e *ReferenceError) Error() string {
	if e.Parameter {
		return fmt.Sprintf("object %s field %s: undeclared pipeline parameter %q", e.Object, e.Field, e.Ref)
	}
	return fmt.Sprintf("object %s field %s: reference to unknown object %q", e.Object, e.Field, e.Ref)
}

// Validate checks that ids are unique, that every reference resolves to an object of this
// pipeline, that expressions only use declared parameters and that references are acyclic.
func (p *Pipeline) Validate() error {
	_, err := p.Graph()
	return err
}

// Graph validates the pipeline and returns its reference graph. Edges run from the referring
// object to the referenced object.
func (p *Pipeline) Graph() (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for _, o := range p.Objects {
		if o.ID == "" {
			return nil, ErrEmptyID
		}
		err := g.AddVertex(o.ID)
		if errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, o.ID)
		} else if err != nil {
			return nil, err
		}
	}

	params := make(map[string]struct{}, len(p.ParameterObjects))
	for _, po := range p.ParameterObjects {
		params[po.ID] = struct{}{}
	}
	for _, pv := range p.ParameterValues {
		if _, ok := params[pv.ID]; !ok {
			return nil, fmt.Errorf("value for undeclared pipeline parameter %q", pv.ID)
		}
	}

	for _, o := range p.Objects {
		for _, f := range o.Fields {
			if (f.RefValue == "") == (f.StringValue == nil) {
				return nil, fmt.Errorf("object %s field %s: %w", o.ID, f.Key, ErrInvalidField)
			}
			if s, ok := f.StringValue.(string); ok {
				for _, m := range parameterExprRegexp.FindAllStringSubmatch(s, -1) {
					if _, declared := params[m[1]]; !declared {
						return nil, &ReferenceError{Object: o.ID, Field: f.Key, Ref: m[1], Parameter: true}
					}
				}
			}
			if !f.IsRef() {
				continue
			}
			err := g.AddEdge(o.ID, f.RefValue)
			switch {
			case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
			case errors.Is(err, graph.ErrVertexNotFound):
				return nil, &ReferenceError{Object: o.ID, Field: f.Key, Ref: f.RefValue}
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				return nil, fmt.Errorf("object %s field %s references %s: %w", o.ID, f.Key, f.RefValue, err)
			default:
				return nil, err
			}
		}
	}
	zap.L().Debug("Validated pipeline", zap.String("pipeline", p.Name), zap.Int("objects", len(p.Objects)))
	return g, nil
}

// Order returns the object ids so that every object precedes the objects it references, breaking
// ties by declaration order.
func (p *Pipeline) Order() ([]string, error) {
	g, err := p.Graph()
	if err != nil {
		return nil, err
	}
	position := make(map[string]int, len(p.Objects))
	for i, o := range p.Objects {
		position[o.ID] = i
	}
	return graph.StableTopologicalSort(g, func(a, b string) bool {
		return position[a] < position[b]
	})
}

func sortedTagKeys(tags map[string]string) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
