package firehose

import (
	"fmt"

	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/mhahn/stacker-blueprints/pkg/provider/aws/resources"
	"go.uber.org/multierr"
)

const (
	Bucket              = "S3Bucket"
	IAMRole             = "IAMRole"
	FirehoseWritePolicy = "FirehoseWriteAccess"
	LogsPolicy          = "LogsPolicy"
)

var Firehose = &blueprint.Blueprint{
	Name:        "firehose.Firehose",
	Description: "S3 bucket and IAM role for a Kinesis Firehose delivery stream",
	Parameters: blueprint.Parameters{
		"RoleNames": {
			Type:        "CommaDelimitedList",
			Description: "A list of role names that should have access to write to the firehose stream.",
			Default:     "",
		},
		"GroupNames": {
			Type:        "CommaDelimitedList",
			Description: "A list of group names that should have access to write to the firehose stream.",
			Default:     "",
		},
		"UserNames": {
			Type:        "CommaDelimitedList",
			Description: "A list of user names that should have access to write to the firehose stream.",
			Default:     "",
		},
		"BucketName": {
			Type:        "String",
			Description: "Name for the S3 Bucket",
		},
	},
	Build: func(ctx *blueprint.Context, t *cfn.Template) error {
		return multierr.Combine(
			createPolicies(ctx.Namespace, t),
			createBucket(t),
			createRole(ctx.Namespace, t),
		)
	},
}

func logsPolicy() *resources.PolicyDocument {
	return resources.NewPolicyDocument(
		resources.Allow([]any{"*"}, "logs:CreateLogStream", "logs:CreateLogGroup"),
	)
}

func firehoseWritePolicy() *resources.PolicyDocument {
	return resources.NewPolicyDocument(
		resources.Allow([]any{"*"},
			"firehose:CreateDeliveryStream",
			"firehose:DeleteDeliveryStream",
			"firehose:DescribeDeliveryStream",
			"firehose:PutRecord",
			"firehose:PutRecordBatch",
		),
	)
}

func logsWritePolicy() *resources.PolicyDocument {
	return resources.NewPolicyDocument(
		resources.Allow([]any{"*"}, "logs:PutLogEvents"),
	)
}

func s3WritePolicy(bucket any) *resources.PolicyDocument {
	return resources.NewPolicyDocument(
		resources.Allow(
			[]any{
				resources.BucketArn(bucket, ""),
				resources.BucketArn(cfn.Join("/", bucket, "*"), ""),
			},
			"s3:AbortMultipartUpload",
			"s3:GetBucketLocation",
			"s3:GetObject",
			"s3:ListBucket",
			"s3:ListBucketMultipartUploads",
			"s3:PutObject",
		),
	)
}

// externalPolicy attaches a policy to the role, group and user names given as parameters,
// omitting each list when it is empty.
func externalPolicy(name string, doc *resources.PolicyDocument) *resources.PolicyType {
	return &resources.PolicyType{
		PolicyName:     name,
		PolicyDocument: doc,
		Roles:          cfn.If("ExternalRoles", cfn.Ref("RoleNames"), cfn.NoValue()),
		Groups:         cfn.If("ExternalGroups", cfn.Ref("GroupNames"), cfn.NoValue()),
		Users:          cfn.If("ExternalUsers", cfn.Ref("UserNames"), cfn.NoValue()),
	}
}

func createPolicies(ns string, t *cfn.Template) error {
	return multierr.Combine(
		t.AddCondition("ExternalRoles", cfn.Not(cfn.Equals(cfn.JoinList(",", cfn.Ref("RoleNames")), ""))),
		t.AddCondition("ExternalGroups", cfn.Not(cfn.Equals(cfn.JoinList(",", cfn.Ref("GroupNames")), ""))),
		t.AddCondition("ExternalUsers", cfn.Not(cfn.Equals(cfn.JoinList(",", cfn.Ref("UserNames")), ""))),
		t.AddCondition("CreatePolicy", cfn.Or(
			cfn.Condition("ExternalRoles"),
			cfn.Condition("ExternalGroups"),
			cfn.Condition("ExternalUsers"),
		)),
		t.Add(FirehoseWritePolicy,
			externalPolicy(fmt.Sprintf("%s-firehose", ns), firehoseWritePolicy()),
			cfn.WithCondition("CreatePolicy")),
		t.Add(LogsPolicy,
			externalPolicy(fmt.Sprintf("%s-logs", ns), logsPolicy()),
			cfn.WithCondition("CreatePolicy")),
	)
}

func createBucket(t *cfn.Template) error {
	return multierr.Combine(
		t.Add(Bucket, &resources.Bucket{BucketName: cfn.Ref("BucketName")}),
		t.AddOutput("Bucket", cfn.Output{Value: cfn.Ref(Bucket)}),
	)
}

func createRole(ns string, t *cfn.Template) error {
	trust := resources.NewPolicyDocument(resources.StatementEntry{
		Effect:    resources.AllowEffect,
		Principal: &resources.Principal{Service: []string{"firehose.amazonaws.com"}},
		Action:    []string{"sts:AssumeRole"},
		Condition: &resources.Condition{
			StringEquals: map[string]any{"sts:ExternalId": cfn.Ref(cfn.AccountID)},
		},
	})
	return multierr.Combine(
		t.Add(IAMRole, &resources.Role{
			AssumeRolePolicyDocument: trust,
			Path:                     "/",
			Policies: []resources.Policy{
				{PolicyName: fmt.Sprintf("%s-s3-write", ns), PolicyDocument: s3WritePolicy(cfn.Ref("BucketName"))},
				{PolicyName: fmt.Sprintf("%s-logs-write", ns), PolicyDocument: logsWritePolicy()},
			},
		}),
		t.AddOutput("Role", cfn.Output{Value: cfn.Ref(IAMRole)}),
		t.AddOutput("RoleArn", cfn.Output{Value: cfn.GetAtt(IAMRole, "Arn")}),
	)
}
