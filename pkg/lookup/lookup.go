package lookup

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// lookupRegexp matches ${type input}. The type is a word, the input runs to the closing brace.
var lookupRegexp = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)\s+([^}]*)\}`)

var ErrUnknownType = errors.New("unknown lookup type")

type (
	Handler func(input string) (any, error)

	// Resolver replaces lookups in configuration values with the result of their handler.
	Resolver struct {
		handlers map[string]Handler
		types    map[string]string
	}

	Error struct {
		Type  string
		Input string
		Err   error
	}
)

func (e *Error) Error() string {
	return fmt.Sprintf("lookup ${%s %s}: %v", e.Type, e.Input, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewResolver returns a resolver with the built in handlers registered under their own names.
func NewResolver() *Resolver {
	r := &Resolver{
		handlers: make(map[string]Handler),
		types:    make(map[string]string),
	}
	r.Register("custom", Custom)
	r.Register("env", Env)
	r.Register("file", File)
	r.Register("database_url", DatabaseURL)
	return r
}

// Register makes a handler available and usable as a lookup type of the same name.
func (r *Resolver) Register(name string, h Handler) {
	r.handlers[name] = h
	r.types[name] = name
}

// Alias maps lookup types to registered handler names, as given in the config's lookups section.
func (r *Resolver) Alias(aliases map[string]string) error {
	types := make([]string, 0, len(aliases))
	for t := range aliases {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		handler := aliases[t]
		if _, ok := r.handlers[handler]; !ok {
			return fmt.Errorf("lookup %s: %w: no handler named %q", t, ErrUnknownType, handler)
		}
		r.types[t] = handler
	}
	return nil
}

// Resolve returns value with every lookup replaced. Maps and lists are resolved recursively and
// the input is not modified. A string that is exactly one lookup becomes the handler's result,
// whatever its type; lookups embedded in longer strings are interpolated.
func (r *Resolver) Resolve(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return r.resolveString(v)

	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			resolved, err := r.Resolve(item)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil

	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			resolved, err := r.Resolve(item)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	}
	return value, nil
}

// ResolveMap is Resolve for the variables and parameters sections of a stack.
func (r *Resolver) ResolveMap(values map[string]any) (map[string]any, error) {
	if values == nil {
		return nil, nil
	}
	resolved, err := r.Resolve(values)
	if err != nil {
		return nil, err
	}
	return resolved.(map[string]any), nil
}

func (r *Resolver) resolveString(s string) (any, error) {
	matches := lookupRegexp.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}
	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(s) {
		return r.call(s[matches[0][2]:matches[0][3]], s[matches[0][4]:matches[0][5]])
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(s[last:m[0]])
		v, err := r.call(s[m[2]:m[3]], s[m[4]:m[5]])
		if err != nil {
			return nil, err
		}
		fmt.Fprint(&sb, v)
		last = m[1]
	}
	sb.WriteString(s[last:])
	return sb.String(), nil
}

func (r *Resolver) call(typ, input string) (any, error) {
	input = strings.TrimSpace(input)
	name, ok := r.types[typ]
	if !ok {
		return nil, &Error{Type: typ, Input: input, Err: ErrUnknownType}
	}
	v, err := r.handlers[name](input)
	if err != nil {
		return nil, &Error{Type: typ, Input: input, Err: err}
	}
	zap.L().Debug("Resolved lookup", zap.String("type", typ), zap.String("handler", name))
	return v, nil
}
