package blueprint

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingRequired = errors.New("missing required value")
	ErrNotAllowed      = errors.New("value not allowed")
	ErrWrongType       = errors.New("value has the wrong type")
	ErrUnknownVariant  = errors.New("unknown variant")
)

// ConfigError is a configuration problem detected before a template is built.
type ConfigError struct {
	Stack string
	// Kind is "variable" or "parameter".
	Kind    string
	Key     string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	var parts []string
	if e.Stack != "" {
		parts = append(parts, "stack "+e.Stack)
	}
	if e.Key != "" {
		kind := e.Kind
		if kind == "" {
			kind = "variable"
		}
		parts = append(parts, fmt.Sprintf("%s %s", kind, e.Key))
	}
	msg := e.Message
	switch {
	case msg == "" && e.Err != nil:
		msg = e.Err.Error()
	case e.Err != nil:
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	parts = append(parts, msg)
	return strings.Join(parts, ": ")
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// withStack sets the stack on a ConfigError anywhere in err's chain.
func withStack(err error, stack string) error {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) && cfgErr.Stack == "" {
		cfgErr.Stack = stack
	}
	return err
}
