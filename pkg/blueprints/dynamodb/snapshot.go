package dynamodb

import (
	"fmt"

	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/mhahn/stacker-blueprints/pkg/datapipeline"
	"go.uber.org/zap"
)

const (
	DefaultObject = "Default"
	Schedule      = "Schedule"
	EmrActivity   = "EmrActivity"
	EmrCluster    = "EmrCluster"
	S3Output      = "S3Output"
	SourceTable   = "SourceTable"

	// PipelineID is the logical id of the pipeline resource and the pipeline's name.
	PipelineID = "DynamoDBSnapshot"

	scheduledDirectory = `#{format(@scheduledStartTime, "YYYY-MM-dd-HH-mm-ss")}`

	emrStepFmt = "s3://dynamodb-emr-#{%s}/emr-ddb-storage-handler/2.1.0/emr-ddb-2.1.0.jar," +
		"org.apache.hadoop.dynamodb.tools.DynamoDbExport," +
		"#{output.directoryPath},#{input.tableName},#{input.readThroughputPercent}"

	bootstrapActionFmt = "s3://#{%s}.elasticmapreduce/bootstrap-actions/configure-hadoop," +
		" --yarn-key-value,yarn.nodemanager.resource.memory-mb=11520," +
		"--yarn-key-value,yarn.scheduler.maximum-allocation-mb=11520," +
		"--yarn-key-value,yarn.scheduler.minimum-allocation-mb=1440," +
		"--yarn-key-value,yarn.app.mapreduce.am.resource.mb=2880," +
		"--mapred-key-value,mapreduce.map.memory.mb=5760," +
		"--mapred-key-value,mapreduce.map.java.opts=-Xmx4608M," +
		"--mapred-key-value,mapreduce.reduce.memory.mb=2880," +
		"--mapred-key-value,mapreduce.reduce.java.opts=-Xmx2304m," +
		"--mapred-key-value,mapreduce.map.speculative=false"
)

type (
	SnapshotConfig struct {
		TableName       string `mapstructure:"TableName"`
		S3Output        string `mapstructure:"S3Output"`
		ThroughputRatio string `mapstructure:"ThroughputRatio"`
	}

	// SnapshotVariables are the resolved variables of the Snapshot blueprint.
	SnapshotVariables struct {
		Activate                 bool             `mapstructure:"Activate"`
		PipelineLogUri           string           `mapstructure:"PipelineLogUri"`
		FailureAndRerunMode      string           `mapstructure:"FailureAndRerunMode"`
		ResourceRole             string           `mapstructure:"ResourceRole"`
		Role                     string           `mapstructure:"Role"`
		SchedulePeriod           string           `mapstructure:"SchedulePeriod"`
		ScheduleType             string           `mapstructure:"ScheduleType"`
		MaximumRetries           string           `mapstructure:"MaximumRetries"`
		SnapshotConfigs          []SnapshotConfig `mapstructure:"SnapshotConfigs"`
		CoreInstanceType         string           `mapstructure:"CoreInstanceType"`
		CoreInstanceCount        string           `mapstructure:"CoreInstanceCount"`
		MasterInstanceType       string           `mapstructure:"MasterInstanceType"`
		EmrClusterTerminateAfter string           `mapstructure:"EmrClusterTerminateAfter"`
		StartDateTime            string           `mapstructure:"StartDateTime"`
	}
)

var Snapshot = &blueprint.Blueprint{
	Name:        "dynamodb.Snapshot",
	Description: "Data Pipeline exporting DynamoDB tables to S3 through an EMR cluster",
	Variables: blueprint.Variables{
		"Activate": {
			Type:        blueprint.Bool,
			Description: "Boolean for whether or not the pipeline should be activated",
		},
		"PipelineLogUri": {
			Type:        blueprint.String,
			Description: "S3 URI to store pipeline logs",
		},
		"FailureAndRerunMode": {
			Type:          blueprint.String,
			Description:   "Configure how pipeline objects react when a dependency fails or is cancelled by the user.",
			Default:       "cascade",
			AllowedValues: []string{"none", "cascade"},
		},
		"ResourceRole": {
			Type:        blueprint.String,
			Description: "The role assumed by resources the pipeline creates",
		},
		"Role": {
			Type:        blueprint.String,
			Description: "The role assumed by the data pipeline to access AWS resources",
		},
		"SchedulePeriod": {
			Type:        blueprint.String,
			Description: "How often the pipeline should run",
		},
		"ScheduleType": {
			Type:          blueprint.String,
			Description:   "The schedule type for the pipeline",
			AllowedValues: []string{"ondemand", "cron", "timeseries"},
		},
		"MaximumRetries": {
			Type:        blueprint.String,
			Description: "The number of times to retry the backup",
			Default:     "2",
		},
		"SnapshotConfigs": {
			Type: blueprint.List,
			Description: "A list of snapshot configs, mappings with the keys TableName, S3Output and " +
				"ThroughputRatio, naming each DynamoDB table to back up and where in S3 to store it.",
			Validator: ValidateSnapshotConfigs,
		},
		"CoreInstanceType": {
			Type:        blueprint.String,
			Description: "The type of instance to use for core nodes",
			Default:     "m3.xlarge",
		},
		"CoreInstanceCount": {
			Type:        blueprint.String,
			Description: "The number of core instances to run",
			Default:     "1",
		},
		"MasterInstanceType": {
			Type:        blueprint.String,
			Description: "The type of instance to use for the master node",
			Default:     "m3.xlarge",
		},
		"EmrClusterTerminateAfter": {
			Type:        blueprint.String,
			Description: "How long to allow the EMR cluster to run before terminating it",
			Default:     "30 Minutes",
		},
		"StartDateTime": {
			Type:        blueprint.String,
			Description: "The date when the pipeline should be activated",
		},
	},
	Build: buildSnapshot,
}

func buildSnapshot(ctx *blueprint.Context, t *cfn.Template) error {
	var vars SnapshotVariables
	if err := ctx.Decode(&vars); err != nil {
		return err
	}
	p, err := SnapshotPipeline(vars)
	if err != nil {
		return err
	}
	p.Tags = ctx.Tags
	return t.Add(PipelineID, p.Resource())
}

// SnapshotPipeline builds the export pipeline for already validated variables: the default,
// schedule and cluster objects followed by a data node, S3 output and activity per table.
func SnapshotPipeline(vars SnapshotVariables) (*datapipeline.Pipeline, error) {
	p := &datapipeline.Pipeline{
		Name:     PipelineID,
		Activate: vars.Activate,
		ParameterObjects: []datapipeline.ParameterObject{
			{ID: "myRegion", Description: "Region containing the DynamoDB table", Type: "String"},
		},
		ParameterValues: []datapipeline.ParameterValue{
			{ID: "myRegion", StringValue: cfn.Ref(cfn.Region)},
		},
	}
	p.Add(
		datapipeline.NewObject(DefaultObject,
			datapipeline.String("failureAndRerunMode", vars.FailureAndRerunMode),
			datapipeline.String("resourceRole", vars.ResourceRole),
			datapipeline.String("role", vars.Role),
			datapipeline.String("pipelineLogUri", vars.PipelineLogUri),
			datapipeline.String("scheduleType", vars.ScheduleType),
			datapipeline.String("type", "Default"),
			datapipeline.Ref("schedule", Schedule),
		),
		datapipeline.NewObject(Schedule,
			datapipeline.String("startDateTime", vars.StartDateTime),
			datapipeline.String("period", vars.SchedulePeriod),
			datapipeline.String("type", "Schedule"),
		),
		emrClusterObject("myRegion", vars.CoreInstanceCount, vars.CoreInstanceType, vars.MasterInstanceType, vars.EmrClusterTerminateAfter),
	)
	for _, c := range vars.SnapshotConfigs {
		p.Add(tableObjects(c, vars.MaximumRetries)...)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot pipeline: %w", err)
	}
	zap.L().Debug("Built snapshot pipeline", zap.Int("tables", len(vars.SnapshotConfigs)), zap.Int("objects", len(p.Objects)))
	return p, nil
}

// tableObjects returns the data node, S3 output and export activity of one table.
func tableObjects(c SnapshotConfig, maximumRetries string) []datapipeline.Object {
	dataNodeID := c.TableName
	s3OutputID := c.TableName + "S3Output"
	activityID := c.TableName + "EmrActivity"
	return []datapipeline.Object{
		datapipeline.NewObject(dataNodeID,
			datapipeline.String("readThroughputPercent", c.ThroughputRatio),
			datapipeline.String("type", "DynamoDBDataNode"),
			datapipeline.String("tableName", c.TableName),
		),
		datapipeline.NewObject(s3OutputID,
			datapipeline.String("directoryPath", c.S3Output+"/"+scheduledDirectory),
			datapipeline.String("type", "S3DataNode"),
		),
		emrActivityObject(activityID, "myRegion", dataNodeID, s3OutputID, maximumRetries),
	}
}

func emrActivityObject(id, regionParam, input, output string, maximumRetries any) datapipeline.Object {
	return datapipeline.NewObject(id,
		datapipeline.Ref("runsOn", EmrCluster),
		datapipeline.String("type", "EmrActivity"),
		datapipeline.String("resizeClusterBeforeRunning", "true"),
		datapipeline.Ref("output", output),
		datapipeline.Ref("input", input),
		datapipeline.String("maximumRetries", maximumRetries),
		datapipeline.String("step", fmt.Sprintf(emrStepFmt, regionParam)),
	)
}

func emrClusterObject(regionParam string, coreCount, coreType, masterType, terminateAfter any) datapipeline.Object {
	return datapipeline.NewObject(EmrCluster,
		datapipeline.String("bootstrapAction", fmt.Sprintf(bootstrapActionFmt, regionParam)),
		datapipeline.String("coreInstanceCount", coreCount),
		datapipeline.String("coreInstanceType", coreType),
		datapipeline.String("amiVersion", "3.8.0"),
		datapipeline.String("masterInstanceType", masterType),
		datapipeline.String("region", "#{"+regionParam+"}"),
		datapipeline.String("type", "EmrCluster"),
		datapipeline.String("terminateAfter", terminateAfter),
	)
}
