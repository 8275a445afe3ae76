package empire

import (
	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/mhahn/stacker-blueprints/pkg/provider/aws/resources"
)

// daemonResources are the resources the daemon's policy is scoped to.
type daemonResources struct {
	CustomResourcesTopic any
	CustomResourcesQueue any
	// TemplateBucket is the ARN of the objects in the template bucket.
	TemplateBucket any
}

// daemonPolicy grants the Empire daemon what it needs to schedule apps: ECS and load balancers,
// DNS, CloudFormation stacks whose templates live in the template bucket, and the custom
// resources queue.
func daemonPolicy(r daemonResources) *resources.PolicyDocument {
	return resources.NewPolicyDocument(
		resources.Allow("*",
			"ecs:*",
			"ec2:DescribeSubnets",
			"ec2:DescribeSecurityGroups",
			"elasticloadbalancing:*",
			"route53:*",
			"cloudformation:*",
			"iam:GetServerCertificate",
			"iam:ListServerCertificates",
			"iam:PassRole",
			"lambda:*",
			"logs:CreateLogGroup",
			"logs:CreateLogStream",
			"logs:PutLogEvents",
			"logs:DescribeLogStreams",
		),
		resources.Allow(r.TemplateBucket, "s3:PutObject", "s3:PutObjectAcl", "s3:GetObject"),
		resources.Allow(r.CustomResourcesTopic, "sns:Publish"),
		resources.Allow(r.CustomResourcesQueue,
			"sqs:ReceiveMessage",
			"sqs:DeleteMessage",
			"sqs:ChangeMessageVisibility",
		),
	)
}

// snsToSQSPolicy lets topic deliver messages to the queue it is attached to.
func snsToSQSPolicy(topic any) *resources.PolicyDocument {
	return resources.NewPolicyDocument(resources.StatementEntry{
		Effect:    resources.AllowEffect,
		Principal: &resources.Principal{AWS: "*"},
		Action:    []string{"sqs:SendMessage"},
		Resource:  "*",
		Condition: &resources.Condition{
			ArnEquals: map[string]any{"aws:SourceArn": topic},
		},
	})
}

func snsEventsPolicy(topic any) *resources.PolicyDocument {
	return resources.NewPolicyDocument(resources.Allow(topic, "sns:Publish"))
}

func ecsAgentPolicy() *resources.PolicyDocument {
	return resources.NewPolicyDocument(
		resources.Allow("*",
			"ecs:CreateCluster",
			"ecs:DeregisterContainerInstance",
			"ecs:DiscoverPollEndpoint",
			"ecs:Poll",
			"ecs:RegisterContainerInstance",
			"ecs:StartTelemetrySession",
			"ecs:Submit*",
			"ecr:GetAuthorizationToken",
			"ecr:BatchCheckLayerAvailability",
			"ecr:GetDownloadUrlForLayer",
			"ecr:BatchGetImage",
		),
	)
}

// runLogsPolicy lets the controllers write interactive run output to the RunLogs group.
func runLogsPolicy() *resources.PolicyDocument {
	return resources.NewPolicyDocument(
		resources.Allow(
			cfn.Join("", "arn:aws:logs:*:*:log-group:", cfn.Ref(RunLogs), ":log-stream:*"),
			"logs:CreateLogStream",
			"logs:PutLogEvents",
			"logs:DescribeLogStreams",
		),
	)
}
