package blueprint

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"go.uber.org/zap"
)

type VariableType string

const (
	String VariableType = "string"
	Number VariableType = "number"
	Bool   VariableType = "bool"
	List   VariableType = "list"
	Map    VariableType = "map"
	// TypedList is a list or a title keyed map of resource property objects. Values are decoded
	// by the blueprint into its resource type.
	TypedList VariableType = "typed_list"
	Any       VariableType = "any"
)

type (
	// Variable describes a value that is resolved locally and used while building the template.
	// It never appears in the rendered template as a parameter.
	Variable struct {
		Type          VariableType
		Description   string
		Default       any
		AllowedValues []string
		// Validator runs after type and allowed value checks. It returns the value to use, which
		// may have defaults filled in.
		Validator func(value any) (any, error)
	}

	Variables map[string]Variable

	// Parameter is a CloudFormation parameter declared by the blueprint. A nil Default means the
	// parameter is required.
	Parameter struct {
		Type          string
		Description   string
		Default       any
		AllowedValues []string
		NoEcho        bool
	}

	Parameters map[string]Parameter
)

// With returns a copy of vs extended by other, entries of other overriding those of vs.
func (vs Variables) With(other Variables) Variables {
	out := make(Variables, len(vs)+len(other))
	for k, v := range vs {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

func (vs Variables) Names() []string {
	return sortedNames(vs)
}

// With returns a copy of ps extended by other, entries of other overriding those of ps.
func (ps Parameters) With(other Parameters) Parameters {
	out := make(Parameters, len(ps)+len(other))
	for k, v := range ps {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

func (ps Parameters) Names() []string {
	return sortedNames(ps)
}

func (p Parameter) Template() cfn.Parameter {
	typ := p.Type
	if typ == "" {
		typ = "String"
	}
	return cfn.Parameter{
		Type:          typ,
		Description:   p.Description,
		Default:       p.Default,
		AllowedValues: p.AllowedValues,
		NoEcho:        p.NoEcho,
	}
}

// Resolve checks values against the schema and returns the resolved variables with defaults
// applied. Keys are processed in sorted order and the first failure is returned.
func Resolve(vs Variables, values map[string]any) (map[string]any, error) {
	for _, k := range sortedNames(values) {
		if _, ok := vs[k]; !ok {
			zap.S().Warnf("Ignoring unknown variable %s", k)
		}
	}

	resolved := make(map[string]any, len(vs))
	for _, name := range vs.Names() {
		v := vs[name]
		value, ok := values[name]
		if !ok || value == nil {
			if v.Default == nil {
				return nil, &ConfigError{Kind: "variable", Key: name, Err: ErrMissingRequired}
			}
			value = v.Default
		}

		value, err := coerce(v.Type, value)
		if err != nil {
			return nil, &ConfigError{Kind: "variable", Key: name, Err: err}
		}
		if err := checkAllowed(v.AllowedValues, value); err != nil {
			return nil, &ConfigError{Kind: "variable", Key: name, Err: err}
		}
		if v.Validator != nil {
			value, err = v.Validator(value)
			if err != nil {
				return nil, &ConfigError{Kind: "variable", Key: name, Message: "validation failed", Err: err}
			}
		}
		resolved[name] = value
	}
	return resolved, nil
}

// ResolveParameters checks parameter values against the schema and returns them as strings,
// the form CloudFormation accepts. Parameters that are not given and have a default are left to
// CloudFormation and are not included.
func ResolveParameters(ps Parameters, values map[string]any) (map[string]string, error) {
	for _, k := range sortedNames(values) {
		if _, ok := ps[k]; !ok {
			zap.S().Warnf("Ignoring unknown parameter %s", k)
		}
	}

	resolved := make(map[string]string, len(values))
	for _, name := range ps.Names() {
		p := ps[name]
		value, ok := values[name]
		if !ok || value == nil {
			if p.Default == nil {
				return nil, &ConfigError{Kind: "parameter", Key: name, Err: ErrMissingRequired}
			}
			continue
		}
		s, err := parameterString(value)
		if err != nil {
			return nil, &ConfigError{Kind: "parameter", Key: name, Err: err}
		}
		if err := checkAllowed(p.AllowedValues, s); err != nil {
			return nil, &ConfigError{Kind: "parameter", Key: name, Err: err}
		}
		resolved[name] = s
	}
	return resolved, nil
}

func parameterString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			s, err := parameterString(item)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, ","), nil
	case []string:
		return strings.Join(v, ","), nil
	case map[string]any:
		return "", fmt.Errorf("%w: parameters cannot be maps", ErrWrongType)
	default:
		return fmt.Sprint(v), nil
	}
}

func coerce(typ VariableType, value any) (any, error) {
	switch typ {
	case String:
		switch v := value.(type) {
		case string:
			return v, nil
		case bool, int, int64, uint64, float64:
			return fmt.Sprint(v), nil
		}
	case Number:
		switch v := value.(type) {
		case int, int64, uint64, float64:
			return v, nil
		case string:
			if _, err := strconv.ParseFloat(v, 64); err == nil {
				return v, nil
			}
		}
	case Bool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b, nil
			}
		}
	case List:
		switch v := value.(type) {
		case []any:
			return v, nil
		case []string:
			out := make([]any, len(v))
			for i, s := range v {
				out[i] = s
			}
			return out, nil
		}
	case Map:
		if v, ok := value.(map[string]any); ok {
			return v, nil
		}
	case TypedList:
		switch value.(type) {
		case []any, map[string]any:
			return value, nil
		}
	case Any, "":
		return value, nil
	}
	return nil, fmt.Errorf("%w: expected %s, got %T", ErrWrongType, typ, value)
}

func checkAllowed(allowed []string, value any) error {
	if len(allowed) == 0 {
		return nil
	}
	s := fmt.Sprint(value)
	for _, a := range allowed {
		if a == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not one of [%s]", ErrNotAllowed, s, strings.Join(allowed, ", "))
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
