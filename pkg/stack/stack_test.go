package stack

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/mhahn/stacker-blueprints/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type topic struct {
	DisplayName any `json:"DisplayName,omitempty"`
}

func (topic) AWSCloudFormationType() string { return "AWS::SNS::Topic" }

var topicBlueprint = &blueprint.Blueprint{
	Name: "test.Topic",
	Variables: blueprint.Variables{
		"DisplayName": {Type: blueprint.String},
	},
	Parameters: blueprint.Parameters{
		"Owner": {Description: "team owning the topic"},
		"Env":   {Default: "dev", AllowedValues: []string{"dev", "prod"}},
	},
	Build: func(ctx *blueprint.Context, t *cfn.Template) error {
		return t.Add("Topic", topic{DisplayName: cfn.Join("-", ctx.Var("DisplayName"), cfn.Ref("Owner"))})
	},
}

func enabled(b bool) *bool { return &b }

func testRenderer(t *testing.T, stacks ...config.Stack) *Renderer {
	registry := blueprint.NewRegistry()
	registry.MustRegister(topicBlueprint)
	r, err := NewRenderer(config.Config{Namespace: "acme", Stacks: stacks}, registry)
	require.NoError(t, err)
	return r
}

func TestRenderer_Order(t *testing.T) {
	tests := []struct {
		name      string
		stacks    []config.Stack
		selection []string
		want      []string
		wantErr   error
	}{
		{
			name: "requires reorder",
			stacks: []config.Stack{
				{Name: "app", Requires: []string{"db", "vpc"}},
				{Name: "db", Requires: []string{"vpc"}},
				{Name: "vpc"},
				{Name: "logs"},
			},
			want: []string{"vpc", "logs", "db", "app"},
		},
		{
			name: "disabled skipped",
			stacks: []config.Stack{
				{Name: "app", Requires: []string{"vpc"}},
				{Name: "vpc", Enabled: enabled(false)},
			},
			want: []string{"app"},
		},
		{
			name: "selection",
			stacks: []config.Stack{
				{Name: "app", Requires: []string{"vpc"}},
				{Name: "vpc"},
				{Name: "db"},
			},
			selection: []string{"db", "app"},
			want:      []string{"app", "db"},
		},
		{
			name:      "unknown selection",
			stacks:    []config.Stack{{Name: "app"}},
			selection: []string{"nope"},
			wantErr:   ErrUnknownStack,
		},
		{
			name:    "unknown requirement",
			stacks:  []config.Stack{{Name: "app", Requires: []string{"nope"}}},
			wantErr: ErrUnknownStack,
		},
		{
			name: "cycle",
			stacks: []config.Stack{
				{Name: "a", Requires: []string{"b"}},
				{Name: "b", Requires: []string{"a"}},
			},
			wantErr: graph.ErrEdgeCreatesCycle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRenderer(t, tt.stacks...)
			got, err := r.Order(tt.selection...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			var names []string
			for _, s := range got {
				names = append(names, s.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestRenderer_Render(t *testing.T) {
	r := testRenderer(t, config.Stack{
		Name:       "events",
		Blueprint:  "test.Topic",
		Variables:  map[string]any{"DisplayName": "${custom events}"},
		Parameters: map[string]any{"Owner": "platform"},
	})

	rendered, err := r.Render()
	require.NoError(t, err)
	require.Len(t, rendered, 1)

	rs := rendered[0]
	assert.Equal(t, map[string]string{"Owner": "platform"}, rs.Parameters)
	assert.Equal(t, cfn.Join("-", "Custom Lookup: events", cfn.Ref("Owner")), rs.Template.Resources["Topic"].Properties.(topic).DisplayName)

	files, err := rs.Files("acme", "yaml")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "acme-events.yaml", files[0].Path())
	assert.Equal(t, "acme-events.parameters.json", files[1].Path())

	params, err := rs.ParametersJSON()
	require.NoError(t, err)
	var decoded []map[string]string
	require.NoError(t, json.Unmarshal(params, &decoded))
	assert.Equal(t, []map[string]string{{"ParameterKey": "Owner", "ParameterValue": "platform"}}, decoded)
}

func TestRenderer_Errors(t *testing.T) {
	r := testRenderer(t,
		config.Stack{Name: "missing-param", Blueprint: "test.Topic", Variables: map[string]any{"DisplayName": "x"}},
		config.Stack{Name: "missing-var", Blueprint: "test.Topic", Parameters: map[string]any{"Owner": "x"}},
		config.Stack{Name: "bad-blueprint", Blueprint: "test.Nope"},
	)

	_, err := r.Render()
	var cfgErr *blueprint.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "missing-param", cfgErr.Stack)
	assert.Equal(t, "Owner", cfgErr.Key)

	err = r.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "stack missing-param: parameter Owner")
	assert.ErrorContains(t, err, "stack missing-var: variable DisplayName")
	assert.ErrorContains(t, err, "unknown blueprint test.Nope")
}
