package blueprint

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queue struct {
	QueueName any `json:"QueueName,omitempty"`
}

func (queue) AWSCloudFormationType() string { return "AWS::SQS::Queue" }

func TestResolve(t *testing.T) {
	schema := Variables{
		"Name":    {Type: String},
		"Count":   {Type: Number, Default: 1},
		"Enabled": {Type: Bool, Default: false},
		"Mode":    {Type: String, Default: "cascade", AllowedValues: []string{"none", "cascade"}},
		"Items":   {Type: List, Default: []any{}},
	}
	tests := []struct {
		name    string
		values  map[string]any
		want    map[string]any
		wantErr error
		wantKey string
	}{
		{
			name:   "defaults applied",
			values: map[string]any{"Name": "a"},
			want:   map[string]any{"Name": "a", "Count": 1, "Enabled": false, "Mode": "cascade", "Items": []any{}},
		},
		{
			name:   "weak coercion",
			values: map[string]any{"Name": 5, "Count": "3", "Enabled": "true", "Items": []string{"x"}},
			want:   map[string]any{"Name": "5", "Count": "3", "Enabled": true, "Mode": "cascade", "Items": []any{"x"}},
		},
		{
			name:    "missing required",
			values:  map[string]any{},
			wantErr: ErrMissingRequired,
			wantKey: "Name",
		},
		{
			name:    "not allowed",
			values:  map[string]any{"Name": "a", "Mode": "sometimes"},
			wantErr: ErrNotAllowed,
			wantKey: "Mode",
		},
		{
			name:    "wrong type",
			values:  map[string]any{"Name": "a", "Items": "x"},
			wantErr: ErrWrongType,
			wantKey: "Items",
		},
		{
			name:    "first failure in sorted order",
			values:  map[string]any{"Count": "many", "Items": "x"},
			wantErr: ErrWrongType,
			wantKey: "Count",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(schema, tt.values)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				var cfgErr *ConfigError
				require.True(t, errors.As(err, &cfgErr))
				assert.Equal(t, tt.wantKey, cfgErr.Key)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_Validator(t *testing.T) {
	schema := Variables{
		"Ratio": {Type: String, Default: "", Validator: func(v any) (any, error) {
			if v == "" {
				return "0.25", nil
			}
			if v == "bad" {
				return nil, fmt.Errorf("bad ratio")
			}
			return v, nil
		}},
	}
	got, err := Resolve(schema, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.25", got["Ratio"])

	_, err = Resolve(schema, map[string]any{"Ratio": "bad"})
	assert.EqualError(t, err, "variable Ratio: validation failed: bad ratio")
}

func TestResolveParameters(t *testing.T) {
	schema := Parameters{
		"VpcId":   {Type: "AWS::EC2::VPC::Id"},
		"Subnets": {Type: "List<AWS::EC2::Subnet::Id>"},
		"Size":    {Type: "Number", Default: "1"},
		"Debug":   {Default: "false", AllowedValues: []string{"true", "false"}},
	}
	got, err := ResolveParameters(schema, map[string]any{
		"VpcId":   "vpc-1",
		"Subnets": []any{"subnet-a", "subnet-b"},
		"Debug":   true,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"VpcId":   "vpc-1",
		"Subnets": "subnet-a,subnet-b",
		"Debug":   "true",
	}, got)

	_, err = ResolveParameters(schema, map[string]any{"VpcId": "vpc-1"})
	assert.ErrorIs(t, err, ErrMissingRequired)

	_, err = ResolveParameters(schema, map[string]any{"VpcId": "vpc-1", "Subnets": "s", "Debug": "maybe"})
	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestVariables_With(t *testing.T) {
	base := Variables{"A": {Default: "a"}, "B": {Default: "b"}}
	child := base.With(Variables{"B": {Default: "B"}, "C": {Default: "c"}})

	assert.Equal(t, "b", base["B"].Default, "parent is not modified")
	assert.Len(t, base, 2)
	assert.Equal(t, []string{"A", "B", "C"}, child.Names())
	assert.Equal(t, "B", child["B"].Default)
}

func TestRender(t *testing.T) {
	bp := &Blueprint{
		Name:        "test.Queue",
		Description: "queue",
		Variables: Variables{
			"Prefix": {Type: String},
			"Count":  {Type: Number, Default: 2},
		},
		Parameters: Parameters{
			"Visibility": {Type: "Number", Default: "30"},
		},
		Build: func(ctx *Context, t *cfn.Template) error {
			var cfg struct {
				Prefix string `mapstructure:"Prefix"`
				Count  int    `mapstructure:"Count"`
			}
			if err := ctx.Decode(&cfg); err != nil {
				return err
			}
			for i := 0; i < cfg.Count; i++ {
				name := fmt.Sprintf("%s%d", cfg.Prefix, i)
				if err := t.Add(fmt.Sprintf("Queue%d", i), queue{QueueName: name}); err != nil {
					return err
				}
			}
			return t.AddOutput("First", cfn.Output{Value: cfn.Ref("Queue0")})
		},
	}

	tmpl, err := Render(bp, Input{StackName: "queues", Variables: map[string]any{"Prefix": "q", "Count": "3"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Queue0", "Queue1", "Queue2"}, tmpl.ResourceIDs())
	assert.Equal(t, "Number", tmpl.Parameters["Visibility"].Type)
	assert.Equal(t, "q1", tmpl.Resources["Queue1"].Properties.(queue).QueueName)

	_, err = Render(bp, Input{StackName: "queues"})
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "queues", cfgErr.Stack)
	assert.Equal(t, "stack queues: variable Prefix: missing required value", err.Error())
}

func TestRender_InvalidTemplate(t *testing.T) {
	bp := &Blueprint{
		Name: "test.Dangling",
		Build: func(ctx *Context, t *cfn.Template) error {
			return t.Add("Queue", queue{QueueName: cfn.Ref("Missing")})
		},
	}
	_, err := Render(bp, Input{StackName: "s"})
	var refErr *cfn.ReferenceError
	assert.True(t, errors.As(err, &refErr))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Blueprint{Name: "b"}, &Blueprint{Name: "a"}))
	assert.Error(t, r.Register(&Blueprint{Name: "a"}))
	assert.Equal(t, []string{"a", "b"}, r.Names())

	bp, ok := r.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "b", bp.Name)
	_, ok = r.Get("c")
	assert.False(t, ok)
}
