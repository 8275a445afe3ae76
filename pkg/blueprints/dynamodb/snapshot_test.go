package dynamodb

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/mhahn/stacker-blueprints/pkg/provider/aws/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSnapshotConfigs(t *testing.T) {
	tests := []struct {
		name      string
		configs   []any
		want      []any
		wantIndex int
		wantKey   string
	}{
		{
			name: "valid",
			configs: []any{
				map[string]any{"TableName": "SomeTable", "S3Output": "s3-bucket", "ThroughputRatio": "0.25"},
				map[string]any{"TableName": "SomeOtherTable", "S3Output": "s3-bucket"},
			},
			want: []any{
				map[string]any{"TableName": "SomeTable", "S3Output": "s3-bucket", "ThroughputRatio": "0.25"},
				map[string]any{"TableName": "SomeOtherTable", "S3Output": "s3-bucket", "ThroughputRatio": "0.25"},
			},
		},
		{
			name: "extra fields kept",
			configs: []any{
				map[string]any{"TableName": "T", "S3Output": "b", "ThroughputRatio": "0.5", "Owner": "data"},
			},
			want: []any{
				map[string]any{"TableName": "T", "S3Output": "b", "ThroughputRatio": "0.5", "Owner": "data"},
			},
		},
		{
			name:    "empty",
			configs: []any{},
			want:    []any{},
		},
		{
			name:    "missing table name",
			configs: []any{map[string]any{"S3Output": "s3-bucket"}},
			wantKey: "TableName",
		},
		{
			name: "fails on first invalid",
			configs: []any{
				map[string]any{"TableName": "T1", "S3Output": "b1"},
				map[string]any{"TableName": "T2"},
				map[string]any{"S3Output": "b3"},
			},
			wantIndex: 1,
			wantKey:   "S3Output",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateSnapshotConfigs(tt.configs)
			if tt.wantKey != "" {
				var cfgErr *SnapshotConfigError
				require.True(t, errors.As(err, &cfgErr), "expected SnapshotConfigError, got %v", err)
				assert.Equal(t, tt.wantIndex, cfgErr.Index)
				assert.Equal(t, tt.wantKey, cfgErr.Key)
				assert.ErrorIs(t, err, blueprint.ErrMissingRequired)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := ValidateSnapshotConfigs(got)
			require.NoError(t, err)
			assert.Equal(t, got, again, "validation is idempotent")
		})
	}
}

func TestValidateSnapshotConfigs_DoesNotModifyInput(t *testing.T) {
	config := map[string]any{"TableName": "T", "S3Output": "b"}
	_, err := ValidateSnapshotConfigs([]any{config})
	require.NoError(t, err)
	assert.NotContains(t, config, "ThroughputRatio")
}

func TestValidateSnapshotConfigs_WrongType(t *testing.T) {
	_, err := ValidateSnapshotConfigs([]any{"T1"})
	assert.ErrorIs(t, err, blueprint.ErrWrongType)

	_, err = ValidateSnapshotConfigs("T1")
	assert.ErrorIs(t, err, blueprint.ErrWrongType)
}

func snapshotInput(configs []any) blueprint.Input {
	return blueprint.Input{
		StackName: "snapshots",
		Variables: map[string]any{
			"Activate":        true,
			"PipelineLogUri":  "s3://logs/pipeline",
			"ResourceRole":    "DataPipelineDefaultResourceRole",
			"Role":            "DataPipelineDefaultRole",
			"SchedulePeriod":  "1 day",
			"ScheduleType":    "cron",
			"StartDateTime":   "2016-01-01T00:00:00",
			"SnapshotConfigs": configs,
		},
	}
}

func renderedPipeline(t *testing.T, tmpl *cfn.Template) *resources.DataPipeline {
	t.Helper()
	r, ok := tmpl.Resource(PipelineID)
	require.True(t, ok)
	assert.Equal(t, "AWS::DataPipeline::Pipeline", r.Type)
	return r.Properties.(*resources.DataPipeline)
}

func TestSnapshot_Objects(t *testing.T) {
	tmpl, err := blueprint.Render(Snapshot, snapshotInput([]any{
		map[string]any{"TableName": "T1", "S3Output": "b1"},
		map[string]any{"TableName": "T2", "S3Output": "b2", "ThroughputRatio": "0.5"},
	}))
	require.NoError(t, err)
	p := renderedPipeline(t, tmpl)

	ids := make([]string, len(p.PipelineObjects))
	objects := make(map[string]resources.PipelineObject)
	for i, o := range p.PipelineObjects {
		ids[i] = o.Id
		objects[o.Id] = o
		assert.Equal(t, o.Id, o.Name)
	}
	assert.Equal(t, []string{
		"Default", "Schedule", "EmrCluster",
		"T1", "T1S3Output", "T1EmrActivity",
		"T2", "T2S3Output", "T2EmrActivity",
	}, ids)
	assert.Len(t, objects, 9, "ids are unique")

	field := func(id, key string) resources.PipelineField {
		for _, f := range objects[id].Fields {
			if f.Key == key {
				return f
			}
		}
		t.Fatalf("object %s has no field %s", id, key)
		return resources.PipelineField{}
	}
	for _, table := range []string{"T1", "T2"} {
		activity := table + "EmrActivity"
		assert.Equal(t, table, field(activity, "input").RefValue)
		assert.Equal(t, table+"S3Output", field(activity, "output").RefValue)
		assert.Equal(t, EmrCluster, field(activity, "runsOn").RefValue)
		assert.Equal(t, "2", field(activity, "maximumRetries").StringValue)
		assert.Equal(t,
			"s3://dynamodb-emr-#{myRegion}/emr-ddb-storage-handler/2.1.0/emr-ddb-2.1.0.jar,org.apache.hadoop.dynamodb.tools.DynamoDbExport,#{output.directoryPath},#{input.tableName},#{input.readThroughputPercent}",
			field(activity, "step").StringValue)
	}
	assert.Equal(t, "0.25", field("T1", "readThroughputPercent").StringValue)
	assert.Equal(t, "0.5", field("T2", "readThroughputPercent").StringValue)
	assert.Equal(t, `b1/#{format(@scheduledStartTime, "YYYY-MM-dd-HH-mm-ss")}`, field("T1S3Output", "directoryPath").StringValue)
	assert.Equal(t, "cascade", field("Default", "failureAndRerunMode").StringValue)
	assert.Equal(t, Schedule, field("Default", "schedule").RefValue)
	assert.Equal(t, "#{myRegion}", field("EmrCluster", "region").StringValue)

	assert.Equal(t, true, p.Activate)
	assert.Equal(t, []resources.PipelineParameterValue{{Id: "myRegion", StringValue: cfn.Ref(cfn.Region)}}, p.ParameterValues)
}

func TestSnapshot_InvalidConfig(t *testing.T) {
	tmpl, err := blueprint.Render(Snapshot, snapshotInput([]any{map[string]any{"S3Output": "b1"}}))
	assert.Nil(t, tmpl)

	var cfgErr *blueprint.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "SnapshotConfigs", cfgErr.Key)
	var snapErr *SnapshotConfigError
	require.True(t, errors.As(err, &snapErr))
	assert.Equal(t, "TableName", snapErr.Key)
}

func TestSnapshot_DuplicateTable(t *testing.T) {
	_, err := blueprint.Render(Snapshot, snapshotInput([]any{
		map[string]any{"TableName": "T1", "S3Output": "b1"},
		map[string]any{"TableName": "T1", "S3Output": "b2"},
	}))
	assert.ErrorContains(t, err, "duplicate pipeline object id")
}

func TestSnapshot_Deterministic(t *testing.T) {
	render := func() []byte {
		tmpl, err := blueprint.Render(Snapshot, snapshotInput([]any{
			map[string]any{"TableName": "T1", "S3Output": "b1"},
			map[string]any{"TableName": "T2", "S3Output": "b2", "ThroughputRatio": "0.5"},
		}))
		require.NoError(t, err)
		out, err := tmpl.JSON()
		require.NoError(t, err)
		return out
	}
	first := render()
	assert.Equal(t, first, render())
	assert.Contains(t, string(first), "@scheduledStartTime")
}

func TestLegacySnapshot(t *testing.T) {
	tmpl, err := blueprint.Render(LegacySnapshot, blueprint.Input{StackName: "legacy"})
	require.NoError(t, err)
	assert.Len(t, tmpl.Parameters, 16)

	doc, err := tmpl.Generic()
	require.NoError(t, err)
	props := doc["Resources"].(map[string]any)[PipelineID].(map[string]any)["Properties"].(map[string]any)

	var ids []string
	for _, o := range props["PipelineObjects"].([]any) {
		ids = append(ids, o.(map[string]any)["Id"].(string))
	}
	if diff := cmp.Diff([]string{"Default", "Schedule", "EmrActivity", "SourceTable", "S3Output", "EmrCluster"}, ids); diff != "" {
		t.Errorf("pipeline objects mismatch (-want +got):\n%s", diff)
	}

	want := `[{"Id":"myDynamoDBRegion","StringValue":{"Ref":"AWS::Region"}},{"Id":"myDynamoDBTableName","StringValue":{"Ref":"TableName"}},{"Id":"myDynamoDBReadThroughputRatio","StringValue":{"Ref":"ThroughputRatio"}},{"Id":"myS3OutputLocation","StringValue":{"Ref":"S3OutputLocation"}}]`
	got, err := json.Marshal(props["ParameterValues"])
	require.NoError(t, err)
	assert.JSONEq(t, want, string(got))
}
