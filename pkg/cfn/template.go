package cfn

import (
	"fmt"
	"sort"
)

const FormatVersion = "2010-09-09"

type (
	// Template is a CloudFormation document. Maps are used for every section so that
	// encoding/json emits keys in sorted order, which keeps rendering deterministic.
	Template struct {
		AWSTemplateFormatVersion string               `json:"AWSTemplateFormatVersion"`
		Description              string               `json:"Description,omitempty"`
		Parameters               map[string]Parameter `json:"Parameters,omitempty"`
		Mappings                 map[string]Mapping   `json:"Mappings,omitempty"`
		Conditions               map[string]any       `json:"Conditions,omitempty"`
		Resources                map[string]*Resource `json:"Resources"`
		Outputs                  map[string]Output    `json:"Outputs,omitempty"`
	}

	Parameter struct {
		Type                  string   `json:"Type"`
		Default               any      `json:"Default,omitempty"`
		AllowedValues         []string `json:"AllowedValues,omitempty"`
		AllowedPattern        string   `json:"AllowedPattern,omitempty"`
		ConstraintDescription string   `json:"ConstraintDescription,omitempty"`
		Description           string   `json:"Description,omitempty"`
		NoEcho                bool     `json:"NoEcho,omitempty"`
	}

	// Mapping is a two level lookup table addressed by Fn::FindInMap.
	Mapping map[string]map[string]any

	Resource struct {
		Type         string             `json:"Type"`
		Condition    string             `json:"Condition,omitempty"`
		DependsOn    []string           `json:"DependsOn,omitempty"`
		Metadata     map[string]any     `json:"Metadata,omitempty"`
		Properties   ResourceProperties `json:"Properties,omitempty"`
		UpdatePolicy any                `json:"UpdatePolicy,omitempty"`
	}

	Output struct {
		Description string  `json:"Description,omitempty"`
		Condition   string  `json:"Condition,omitempty"`
		Value       any     `json:"Value"`
		Export      *Export `json:"Export,omitempty"`
	}

	Export struct {
		Name any `json:"Name"`
	}

	// ResourceProperties is implemented by every typed resource. The returned string is the
	// resource type as it appears in the template, eg. "AWS::EC2::SecurityGroup".
	ResourceProperties interface {
		AWSCloudFormationType() string
	}

	ResourceOption func(*Resource)
)

func NewTemplate(description string) *Template {
	return &Template{
		AWSTemplateFormatVersion: FormatVersion,
		Description:              description,
		Resources:                make(map[string]*Resource),
	}
}

func WithCondition(condition string) ResourceOption {
	return func(r *Resource) {
		r.Condition = condition
	}
}

func WithDependsOn(ids ...string) ResourceOption {
	return func(r *Resource) {
		r.DependsOn = append(r.DependsOn, ids...)
	}
}

func WithMetadata(key string, value any) ResourceOption {
	return func(r *Resource) {
		if r.Metadata == nil {
			r.Metadata = make(map[string]any)
		}
		r.Metadata[key] = value
	}
}

func WithUpdatePolicy(policy any) ResourceOption {
	return func(r *Resource) {
		r.UpdatePolicy = policy
	}
}

// Add declares a resource under the logical id.
func (t *Template) Add(id string, props ResourceProperties, opts ...ResourceOption) error {
	if err := checkLogicalID(id); err != nil {
		return err
	}
	if _, ok := t.Resources[id]; ok {
		return fmt.Errorf("resource %s: %w", id, ErrDuplicate)
	}
	if props == nil {
		return fmt.Errorf("resource %s has no properties", id)
	}
	r := &Resource{
		Type:       props.AWSCloudFormationType(),
		Properties: props,
	}
	for _, opt := range opts {
		opt(r)
	}
	if t.Resources == nil {
		t.Resources = make(map[string]*Resource)
	}
	t.Resources[id] = r
	return nil
}

func (t *Template) AddParameter(name string, p Parameter) error {
	if err := checkLogicalID(name); err != nil {
		return err
	}
	if _, ok := t.Parameters[name]; ok {
		return fmt.Errorf("parameter %s: %w", name, ErrDuplicate)
	}
	if p.Type == "" {
		p.Type = "String"
	}
	if t.Parameters == nil {
		t.Parameters = make(map[string]Parameter)
	}
	t.Parameters[name] = p
	return nil
}

func (t *Template) AddCondition(name string, condition Fn) error {
	if err := checkLogicalID(name); err != nil {
		return err
	}
	if _, ok := t.Conditions[name]; ok {
		return fmt.Errorf("condition %s: %w", name, ErrDuplicate)
	}
	if t.Conditions == nil {
		t.Conditions = make(map[string]any)
	}
	t.Conditions[name] = condition
	return nil
}

func (t *Template) AddMapping(name string, m Mapping) error {
	if _, ok := t.Mappings[name]; ok {
		return fmt.Errorf("mapping %s: %w", name, ErrDuplicate)
	}
	if t.Mappings == nil {
		t.Mappings = make(map[string]Mapping)
	}
	t.Mappings[name] = m
	return nil
}

func (t *Template) AddOutput(name string, o Output) error {
	if err := checkLogicalID(name); err != nil {
		return err
	}
	if _, ok := t.Outputs[name]; ok {
		return fmt.Errorf("output %s: %w", name, ErrDuplicate)
	}
	if t.Outputs == nil {
		t.Outputs = make(map[string]Output)
	}
	t.Outputs[name] = o
	return nil
}

func (t *Template) Resource(id string) (*Resource, bool) {
	r, ok := t.Resources[id]
	return r, ok
}

// ResourceIDs returns the logical ids of all resources, sorted.
func (t *Template) ResourceIDs() []string {
	ids := make([]string, 0, len(t.Resources))
	for id := range t.Resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ParameterNames returns the names of all template parameters, sorted.
func (t *Template) ParameterNames() []string {
	names := make([]string, 0, len(t.Parameters))
	for name := range t.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkLogicalID(id string) error {
	if id == "" || len(id) > maxLogicalIDChars || !logicalIDRegexp.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidLogicalID, id)
	}
	return nil
}
