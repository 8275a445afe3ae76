package blueprint

import (
	"fmt"
	"sync"

	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

type (
	// Blueprint generates a CloudFormation template from resolved variables. Build must not
	// mutate anything but the template it is given.
	Blueprint struct {
		Name        string
		Description string
		Variables   Variables
		Parameters  Parameters
		Build       func(ctx *Context, t *cfn.Template) error
	}

	// Input is everything a stack supplies to a blueprint at render time.
	Input struct {
		Namespace string
		StackName string
		Mappings  map[string]cfn.Mapping
		Tags      map[string]string
		Variables map[string]any
	}

	Context struct {
		Namespace string
		StackName string
		Mappings  map[string]cfn.Mapping
		Tags      map[string]string
		// Variables holds the resolved variables, defaults applied.
		Variables map[string]any
	}

	Registry struct {
		mu         sync.RWMutex
		blueprints map[string]*Blueprint
	}
)

// Var returns the resolved variable. It panics if the blueprint did not declare it, which is a
// programming error rather than a configuration one.
func (c *Context) Var(name string) any {
	v, ok := c.Variables[name]
	if !ok {
		panic(fmt.Sprintf("variable %s not declared", name))
	}
	return v
}

func (c *Context) String(name string) string {
	return fmt.Sprint(c.Var(name))
}

func (c *Context) Bool(name string) bool {
	b, _ := c.Var(name).(bool)
	return b
}

// Decode decodes the resolved variables into out, matching fields by their mapstructure tag.
func (c *Context) Decode(out any) error {
	return DecodeValue(c.Variables, out)
}

// DecodeValue decodes a configuration value into out. Input is weakly typed so that numbers
// and booleans from YAML satisfy string fields.
func DecodeValue(value any, out any) error {
	return decode(value, out, false)
}

// DecodeStrict is DecodeValue that also fails on keys out has no field for.
func DecodeStrict(value any, out any) error {
	return decode(value, out, true)
}

func decode(value any, out any, errorUnused bool) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      errorUnused,
	})
	if err != nil {
		return err
	}
	return dec.Decode(value)
}

// Render resolves the input against the blueprint's schema and builds a validated template.
func Render(bp *Blueprint, in Input) (*cfn.Template, error) {
	log := zap.L().With(zap.String("stack", in.StackName), zap.String("blueprint", bp.Name))

	vars, err := Resolve(bp.Variables, in.Variables)
	if err != nil {
		return nil, withStack(err, in.StackName)
	}

	t := cfn.NewTemplate(bp.Description)
	for _, name := range bp.Parameters.Names() {
		if err := t.AddParameter(name, bp.Parameters[name].Template()); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedNames(in.Mappings) {
		if err := t.AddMapping(name, in.Mappings[name]); err != nil {
			return nil, err
		}
	}

	ctx := &Context{
		Namespace: in.Namespace,
		StackName: in.StackName,
		Mappings:  in.Mappings,
		Tags:      in.Tags,
		Variables: vars,
	}
	if err := bp.Build(ctx, t); err != nil {
		return nil, withStack(fmt.Errorf("building %s: %w", bp.Name, err), in.StackName)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("stack %s: invalid template: %w", in.StackName, err)
	}

	log.Debug("Built template",
		zap.Int("parameters", len(t.Parameters)),
		zap.Int("resources", len(t.Resources)),
		zap.Int("outputs", len(t.Outputs)),
	)
	return t, nil
}

func NewRegistry() *Registry {
	return &Registry{blueprints: make(map[string]*Blueprint)}
}

func (r *Registry) Register(bps ...*Blueprint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bp := range bps {
		if _, ok := r.blueprints[bp.Name]; ok {
			return fmt.Errorf("blueprint %s already registered", bp.Name)
		}
		r.blueprints[bp.Name] = bp
	}
	return nil
}

func (r *Registry) MustRegister(bps ...*Blueprint) {
	if err := r.Register(bps...); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(name string) (*Blueprint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bp, ok := r.blueprints[name]
	return bp, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedNames(r.blueprints)
}
