package datapipeline

import (
	"errors"
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePipeline() *Pipeline {
	p := &Pipeline{
		Name:             "Backup",
		Activate:         true,
		ParameterObjects: []ParameterObject{{ID: "myRegion", Description: "Region", Type: "String"}},
		ParameterValues:  []ParameterValue{{ID: "myRegion", StringValue: "us-east-1"}},
	}
	p.Add(
		NewObject("Default", String("type", "Default"), Ref("schedule", "Schedule")),
		NewObject("Schedule", String("type", "Schedule")),
		NewObject("Cluster", String("type", "EmrCluster"), String("region", "#{myRegion}")),
		NewObject("Activity",
			String("type", "EmrActivity"),
			Ref("runsOn", "Cluster"),
			String("step", "#{input.tableName}"),
		),
	)
	return p
}

func TestPipeline_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Pipeline)
		wantErr error
		wantRef *ReferenceError
	}{
		{
			name:   "valid",
			mutate: func(p *Pipeline) {},
		},
		{
			name: "duplicate id",
			mutate: func(p *Pipeline) {
				p.Add(NewObject("Schedule", String("type", "Schedule")))
			},
			wantErr: ErrDuplicateID,
		},
		{
			name: "empty id",
			mutate: func(p *Pipeline) {
				p.Add(Object{})
			},
			wantErr: ErrEmptyID,
		},
		{
			name: "dangling reference",
			mutate: func(p *Pipeline) {
				p.Add(NewObject("Orphan", Ref("input", "Missing")))
			},
			wantRef: &ReferenceError{Object: "Orphan", Field: "input", Ref: "Missing"},
		},
		{
			name: "undeclared parameter",
			mutate: func(p *Pipeline) {
				p.Add(NewObject("Node", String("tableName", "#{myTableName}")))
			},
			wantRef: &ReferenceError{Object: "Node", Field: "tableName", Ref: "myTableName", Parameter: true},
		},
		{
			name: "field with both values",
			mutate: func(p *Pipeline) {
				p.Add(NewObject("Node", Field{Key: "input", StringValue: "x", RefValue: "Schedule"}))
			},
			wantErr: ErrInvalidField,
		},
		{
			name: "field with no value",
			mutate: func(p *Pipeline) {
				p.Add(NewObject("Node", Field{Key: "input"}))
			},
			wantErr: ErrInvalidField,
		},
		{
			name: "cycle",
			mutate: func(p *Pipeline) {
				p.Add(
					NewObject("A", Ref("next", "B")),
					NewObject("B", Ref("next", "A")),
				)
			},
			wantErr: graph.ErrEdgeCreatesCycle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := samplePipeline()
			tt.mutate(p)
			err := p.Validate()
			switch {
			case tt.wantRef != nil:
				var refErr *ReferenceError
				require.True(t, errors.As(err, &refErr), "expected ReferenceError, got %v", err)
				assert.Equal(t, tt.wantRef, refErr)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestPipeline_Order(t *testing.T) {
	order, err := samplePipeline().Order()
	require.NoError(t, err)
	assert.Equal(t, []string{"Default", "Activity", "Schedule", "Cluster"}, order)
}

func TestPipeline_Resource(t *testing.T) {
	assert := assert.New(t)
	p := samplePipeline()
	p.Tags = map[string]string{"team": "data", "env": "prod"}

	res := p.Resource()
	assert.Equal("AWS::DataPipeline::Pipeline", res.AWSCloudFormationType())
	assert.Equal("Backup", res.Name)
	assert.Equal(p.IDs(), []string{"Default", "Schedule", "Cluster", "Activity"})
	for i, o := range res.PipelineObjects {
		assert.Equal(p.Objects[i].ID, o.Id)
		assert.Equal(p.Objects[i].Name, o.Name)
	}
	assert.Equal("schedule", res.PipelineObjects[0].Fields[1].Key)
	assert.Equal("Schedule", res.PipelineObjects[0].Fields[1].RefValue)
	assert.Nil(res.PipelineObjects[0].Fields[1].StringValue)

	require.Len(t, res.ParameterObjects, 1)
	assert.Equal("description", res.ParameterObjects[0].Attributes[0].Key)
	assert.Equal("type", res.ParameterObjects[0].Attributes[1].Key)
	assert.Equal("env", res.PipelineTags[0].Key)
	assert.Equal("team", res.PipelineTags[1].Key)

	activity, ok := p.Object("Activity")
	require.True(t, ok)
	assert.Equal("EmrActivity", activity.Type())
	_, ok = p.Object("Missing")
	assert.False(ok)
}

func TestFromResource(t *testing.T) {
	p := samplePipeline()
	p.Tags = map[string]string{"team": "data"}

	back := FromResource(p.Resource())
	assert.Equal(t, p.IDs(), back.IDs())
	assert.Equal(t, p.Resource(), back.Resource())

	order, err := back.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{"Default", "Activity", "Schedule", "Cluster"}, order)
}
