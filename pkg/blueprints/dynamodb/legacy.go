package dynamodb

import (
	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/mhahn/stacker-blueprints/pkg/datapipeline"
)

// LegacySnapshot exports a single table. It is configured entirely through CloudFormation
// parameters, passed on to the pipeline as pipeline parameters.
var LegacySnapshot = &blueprint.Blueprint{
	Name:        "dynamodb.LegacySnapshot",
	Description: "Data Pipeline exporting a DynamoDB table to S3 through an EMR cluster",
	Parameters: blueprint.Parameters{
		"Activate": {
			Description:   "Boolean for whether or not the pipeline should be activated",
			AllowedValues: []string{"true", "false"},
		},
		"PipelineLogUri": {Description: "S3 URI to store pipeline logs"},
		"FailureAndRerunMode": {
			Description:   "Configure how pipeline objects react when a dependency fails or is cancelled by the user.",
			Default:       "cascade",
			AllowedValues: []string{"none", "cascade"},
		},
		"ResourceRole":   {Description: "The role assumed by resources the pipeline creates"},
		"Role":           {Description: "The role assumed by the data pipeline to access AWS resources"},
		"SchedulePeriod": {Description: "How often the pipeline should run"},
		"ScheduleType": {
			Description:   "The schedule type for the pipeline",
			AllowedValues: []string{"ondemand", "cron", "timeseries"},
		},
		"MaximumRetries": {Description: "The number of times to retry the backup", Default: "2"},
		"TableName":      {Description: "The name of the DynamoDB table to create a snapshot of"},
		"ThroughputRatio": {
			Description: "The amount of provisioned throughput to consume when creating the snapshot",
			Default:     DefaultThroughputRatio,
		},
		"S3OutputLocation":         {Description: "The S3 location to store the snapshot"},
		"CoreInstanceType":         {Description: "The type of instance to use for core nodes", Default: "m3.xlarge"},
		"CoreInstanceCount":        {Description: "The number of core instances to run", Default: "1"},
		"MasterInstanceType":       {Description: "The type of instance to use for the master node", Default: "m3.xlarge"},
		"EmrClusterTerminateAfter": {Description: "How long to allow the EMR cluster to run before terminating it", Default: "30 Minutes"},
		"StartDateTime":            {Description: "The date when the pipeline should be activated"},
	},
	Build: buildLegacySnapshot,
}

func buildLegacySnapshot(ctx *blueprint.Context, t *cfn.Template) error {
	p, err := LegacySnapshotPipeline()
	if err != nil {
		return err
	}
	p.Tags = ctx.Tags
	return t.Add(PipelineID, p.Resource())
}

func LegacySnapshotPipeline() (*datapipeline.Pipeline, error) {
	p := &datapipeline.Pipeline{
		Name:     PipelineID,
		Activate: cfn.Ref("Activate"),
		ParameterObjects: []datapipeline.ParameterObject{
			{ID: "myS3OutputLocation", Description: "Output S3 location", Type: "AWS::S3::ObjectKey"},
			{ID: "myDynamoDBRegion", Description: "Region containing the DynamoDB table", Type: "String"},
			{ID: "myDynamoDBTableName", Description: "Source DynamoDB table name", Type: "String"},
			{ID: "myDynamoDBReadThroughputRatio", Description: "DynamoDB read throughput ratio", Type: "Double"},
		},
		ParameterValues: []datapipeline.ParameterValue{
			{ID: "myDynamoDBRegion", StringValue: cfn.Ref(cfn.Region)},
			{ID: "myDynamoDBTableName", StringValue: cfn.Ref("TableName")},
			{ID: "myDynamoDBReadThroughputRatio", StringValue: cfn.Ref("ThroughputRatio")},
			{ID: "myS3OutputLocation", StringValue: cfn.Ref("S3OutputLocation")},
		},
	}
	p.Add(
		datapipeline.NewObject(DefaultObject,
			datapipeline.String("failureAndRerunMode", cfn.Ref("FailureAndRerunMode")),
			datapipeline.String("resourceRole", cfn.Ref("ResourceRole")),
			datapipeline.String("role", cfn.Ref("Role")),
			datapipeline.String("pipelineLogUri", cfn.Ref("PipelineLogUri")),
			datapipeline.String("scheduleType", cfn.Ref("ScheduleType")),
			datapipeline.String("type", "Default"),
			datapipeline.Ref("schedule", Schedule),
		),
		datapipeline.NewObject(Schedule,
			datapipeline.String("startDateTime", cfn.Ref("StartDateTime")),
			datapipeline.String("period", cfn.Ref("SchedulePeriod")),
			datapipeline.String("type", "Schedule"),
		),
		emrActivityObject(EmrActivity, "myDynamoDBRegion", SourceTable, S3Output, cfn.Ref("MaximumRetries")),
		datapipeline.NewObject(SourceTable,
			datapipeline.String("readThroughputPercent", "#{myDynamoDBReadThroughputRatio}"),
			datapipeline.String("type", "DynamoDBDataNode"),
			datapipeline.String("tableName", "#{myDynamoDBTableName}"),
		),
		datapipeline.NewObject(S3Output,
			datapipeline.String("directoryPath", "#{myS3OutputLocation}/#{format(@scheduledStartTime, 'YYYY-MM-dd-HH-mm-ss')}"),
			datapipeline.String("type", "S3DataNode"),
		),
		emrClusterObject("myDynamoDBRegion",
			cfn.Ref("CoreInstanceCount"),
			cfn.Ref("CoreInstanceType"),
			cfn.Ref("MasterInstanceType"),
			cfn.Ref("EmrClusterTerminateAfter"),
		),
	)
	return p, p.Validate()
}
