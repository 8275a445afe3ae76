package empire

import (
	"fmt"

	"github.com/google/shlex"
	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/mhahn/stacker-blueprints/pkg/provider/aws/resources"
	"go.uber.org/multierr"
)

const (
	ELBSecurityGroup     = "ELBSecurityGroup"
	EventsTopic          = "EventsTopic"
	CustomResourcesQueue = "CustomResourcesQueue"
	CustomResourcesTopic = "CustomResourcesTopic"
	TemplateBucket       = "TemplateBucket"
	LoadBalancer         = "LoadBalancer"
	TaskDefinition       = "TaskDefinition"

	daemonPort    = 8081
	containerName = "empire"
)

var Daemon = &blueprint.Blueprint{
	Name:        "empire.Daemon",
	Description: "Empire daemon ECS service and load balancer",
	Variables: blueprint.Variables{
		"Command": {
			Type:        blueprint.String,
			Description: "Command line of the empire container, split as a shell would.",
			Default:     "server -automigrate=true",
			Validator: func(v any) (any, error) {
				args, err := shlex.Split(fmt.Sprint(v))
				if err != nil {
					return nil, err
				}
				if len(args) == 0 {
					return nil, fmt.Errorf("command is empty")
				}
				return v, nil
			},
		},
	},
	Parameters: daemonParameters,
	Build:      buildDaemon,
}

var daemonParameters = blueprint.Parameters{
	"InstanceRole": {Type: "String", Description: "The IAM role to add permissions to."},
	"VpcId":        {Type: "AWS::EC2::VPC::Id", Description: "Vpc Id"},
	"DefaultSG":    {Type: "AWS::EC2::SecurityGroup::Id", Description: "Top level security group."},
	"ExternalDomain": {
		Type:        "String",
		Description: "Base domain for the stack.",
	},
	"PrivateSubnets": {Type: "List<AWS::EC2::Subnet::Id>", Description: "Subnets to deploy private instances in."},
	"PublicSubnets":  {Type: "List<AWS::EC2::Subnet::Id>", Description: "Subnets to deploy public (elb) instances in."},
	"AvailabilityZones": {
		Type:        "CommaDelimitedList",
		Description: "Availability Zones to deploy instances in.",
	},
	"TrustedNetwork": {Type: "String", Description: "CIDR block allowed to connect to empire ELB."},
	"GitHubCIDR": {
		Type:        "String",
		Description: "CIDR Network for for GitHub webhooks (https://goo.gl/D2kZKw).",
		Default:     "192.30.252.0/22",
	},
	"DatabaseHost":     {Type: "String", Description: "Host for the Empire DB"},
	"DatabaseUser":     {Type: "String", Description: "User for the Empire DB"},
	"DatabasePassword": {Type: "String", Description: "Password for the Empire DB", NoEcho: true},
	"ELBCertName": {
		Type:        "String",
		Description: "The SSL certificate name to use on the ELB. Note: If this is set, non-HTTPS access is disabled.",
		Default:     "",
	},
	"ELBCertType": {
		Type:        "String",
		Description: "The SSL certificate type to use on the ELB. Note: Can be either acm or iam.",
		Default:     "",
	},
	"InstanceSecurityGroup": {Type: "String", Description: "Security group of the controller instances."},
	"DockerImage": {
		Type:        "String",
		Description: "The docker image to run for the Empire dameon",
		Default:     "master",
	},
	"Environment":          {Type: "String", Description: "Environment used for Empire."},
	"GitHubClientId":       {Type: "String", Description: "EMPIRE_GITHUB_CLIENT_ID", Default: ""},
	"GitHubClientSecret":   {Type: "String", Description: "EMPIRE_GITHUB_CLIENT_SECRET", Default: ""},
	"GitHubOrganization":   {Type: "String", Description: "EMPIRE_GITHUB_ORGANIZATION", Default: ""},
	"GitHubWebhooksSecret": {Type: "String", Description: "EMPIRE_GITHUB_WEBHOOKS_SECRET", Default: ""},
	"GitHubDeploymentsEnvironment": {
		Type:        "String",
		Description: "Environment used for GitHub Deployments and honeybadger",
		Default:     "",
	},
	"TokenSecret":    {Type: "String", Description: "EMPIRE_TOKEN_SECRET", Default: ""},
	"TugboatUrl":     {Type: "String", Description: "EMPIRE_TUGBOAT_URL", Default: ""},
	"ConveyorUrl":    {Type: "String", Description: "EMPIRE_CONVEYOR_URL", Default: ""},
	"LogsStreamer":   {Type: "String", Description: "EMPIRE_LOGS_STREAMER", Default: ""},
	"RunLogs":        {Type: "String", Description: "EMPIRE_CLOUDWATCH_LOGS_GROUP", Default: ""},
	"Reporter":       {Type: "String", Description: "The reporter to use to report errors", Default: ""},
	"InternalZoneId": {Type: "String", Description: "The ID for the route53 zone for internal DNS", Default: ""},
	"PrivateAppELBSG": {
		Type:        "String",
		Description: "Security group to attach to internal load balancers",
		Default:     "",
	},
	"PublicAppELBSG": {
		Type:        "String",
		Description: "Security group to attach to public load balancers",
		Default:     "",
	},
	"MinionCluster":     {Type: "String", Description: "ECS Cluster for the Minions.", Default: ""},
	"ControllerCluster": {Type: "String", Description: "ECS Cluster for the Controllers.", Default: ""},
	"EnableSNSEvents": {
		Type: "String",
		Description: "If set to true, enables sending empire events to SNS. " +
			"A topic is created for the events.",
		Default:       "false",
		AllowedValues: []string{"true", "false"},
	},
}

func buildDaemon(ctx *blueprint.Context, t *cfn.Template) error {
	command, err := shlex.Split(ctx.String("Command"))
	if err != nil {
		return err
	}
	return multierr.Combine(
		daemonConditions(t),
		daemonSecurityGroups(t),
		customResources(t),
		t.Add(TemplateBucket, &resources.Bucket{}),
		daemonLoadBalancer(t),
		daemonService(t, command),
	)
}

func daemonConditions(t *cfn.Template) error {
	return multierr.Combine(
		t.AddCondition("UseSSL", cfn.Not(cfn.Equals(cfn.Ref("ELBCertName"), ""))),
		t.AddCondition("UseIAMCert", cfn.Not(cfn.Equals(cfn.Ref("ELBCertType"), "acm"))),
		t.AddCondition("EnableSNSEvents", cfn.Not(cfn.Equals(cfn.Ref("EnableSNSEvents"), "false"))),
	)
}

func trustedIngress(port int, cidr string) *resources.SecurityGroupIngress {
	return &resources.SecurityGroupIngress{
		IpProtocol: "tcp",
		FromPort:   port,
		ToPort:     port,
		CidrIp:     cfn.Ref(cidr),
		GroupId:    cfn.Ref(ELBSecurityGroup),
	}
}

func daemonSecurityGroups(t *cfn.Template) error {
	return multierr.Combine(
		t.Add(ELBSecurityGroup, &resources.SecurityGroup{
			GroupDescription: "Security group for load balancer",
			VpcId:            cfn.Ref("VpcId"),
		}),
		t.Add("ELBPort80FromTrustedNetwork", trustedIngress(80, "TrustedNetwork")),
		t.Add("ELBPort443FromTrustedNetwork", trustedIngress(443, "TrustedNetwork")),
		t.Add("ELBPort443GitHub", trustedIngress(443, "GitHubCIDR")),
		t.Add("80ToControllerPort8081",
			resources.TCPIngress(cfn.Ref("InstanceSecurityGroup"), cfn.Ref(ELBSecurityGroup), daemonPort)),
	)
}

// customResources is the SNS topic CloudFormation sends Empire custom resource requests to, and
// the queue the daemon reads them from.
func customResources(t *cfn.Template) error {
	return multierr.Combine(
		t.Add(CustomResourcesQueue, &resources.Queue{}),
		t.Add(CustomResourcesTopic, &resources.Topic{
			Subscription: []resources.Subscription{{
				Protocol: "sqs",
				Endpoint: cfn.GetAtt(CustomResourcesQueue, "Arn"),
			}},
		}),
		t.Add("CustomResourcesQueuePolicy", &resources.QueuePolicy{
			Queues:         []any{cfn.Ref(CustomResourcesQueue)},
			PolicyDocument: snsToSQSPolicy(cfn.Ref(CustomResourcesTopic)),
		}),
	)
}

func daemonListeners() cfn.Fn {
	acmCert := cfn.Join("",
		"arn:aws:acm:", cfn.Ref(cfn.Region), ":", cfn.Ref(cfn.AccountID), ":certificate/", cfn.Ref("ELBCertName"))
	iamCert := cfn.Join("",
		"arn:aws:iam::", cfn.Ref(cfn.AccountID), ":server-certificate/", cfn.Ref("ELBCertName"))
	withSSL := []resources.Listener{{
		LoadBalancerPort: 443,
		InstancePort:     daemonPort,
		Protocol:         "SSL",
		InstanceProtocol: "TCP",
		SSLCertificateId: cfn.If("UseIAMCert", iamCert, acmCert),
	}}
	noSSL := []resources.Listener{{
		LoadBalancerPort: 80,
		InstancePort:     daemonPort,
		Protocol:         "TCP",
		InstanceProtocol: "TCP",
	}}
	return cfn.If("UseSSL", withSSL, noSSL)
}

func daemonLoadBalancer(t *cfn.Template) error {
	return multierr.Combine(
		t.Add(LoadBalancer, &resources.LoadBalancer{
			HealthCheck: &resources.HealthCheck{
				Target:             fmt.Sprintf("HTTP:%d/health", daemonPort),
				HealthyThreshold:   3,
				UnhealthyThreshold: 3,
				Interval:           5,
				Timeout:            3,
			},
			Listeners:      daemonListeners(),
			SecurityGroups: []any{cfn.Ref(ELBSecurityGroup)},
			Subnets:        cfn.Ref("PublicSubnets"),
		}),
		t.Add("ElbDnsRecord", resources.ELBCNAME("Router ELB DNS", "empire", cfn.Ref("ExternalDomain"), LoadBalancer)),
	)
}

func env(name string, value any) resources.Environment {
	return resources.Environment{Name: name, Value: value}
}

// Environment is the configuration of the empire container.
func Environment() []resources.Environment {
	databaseURL := DatabaseURL("postgres", "${DatabaseUser}", "${DatabasePassword}", "${DatabaseHost}", "empire")
	return []resources.Environment{
		env("EMPIRE_ENVIRONMENT", cfn.Ref("Environment")),
		env("EMPIRE_SCHEDULER", "cloudformation-migration"),
		env("EMPIRE_REPORTER", cfn.Ref("Reporter")),
		env("EMPIRE_S3_TEMPLATE_BUCKET", cfn.Ref(TemplateBucket)),
		env("EMPIRE_GITHUB_CLIENT_ID", cfn.Ref("GitHubClientId")),
		env("EMPIRE_GITHUB_CLIENT_SECRET", cfn.Ref("GitHubClientSecret")),
		env("EMPIRE_DATABASE_URL", cfn.Sub(databaseURL)),
		env("EMPIRE_TOKEN_SECRET", cfn.Ref("TokenSecret")),
		env("AWS_REGION", cfn.Ref(cfn.Region)),
		env("EMPIRE_PORT", fmt.Sprint(daemonPort)),
		env("EMPIRE_GITHUB_ORGANIZATION", cfn.Ref("GitHubOrganization")),
		env("EMPIRE_GITHUB_WEBHOOKS_SECRET", cfn.Ref("GitHubWebhooksSecret")),
		env("EMPIRE_GITHUB_DEPLOYMENTS_ENVIRONMENT", cfn.Ref("GitHubDeploymentsEnvironment")),
		env("EMPIRE_EVENTS_BACKEND", "sns"),
		env("EMPIRE_SNS_TOPIC", cfn.If("EnableSNSEvents", cfn.Ref(EventsTopic), cfn.NoValue())),
		env("EMPIRE_TUGBOAT_URL", cfn.Ref("TugboatUrl")),
		env("EMPIRE_LOGS_STREAMER", cfn.Ref("LogsStreamer")),
		env("EMPIRE_ECS_CLUSTER", cfn.Ref("MinionCluster")),
		env("EMPIRE_ECS_SERVICE_ROLE", "ecsServiceRole"),
		env("EMPIRE_ROUTE53_INTERNAL_ZONE_ID", cfn.Ref("InternalZoneId")),
		env("EMPIRE_EC2_SUBNETS_PRIVATE", cfn.JoinList(",", cfn.Ref("PrivateSubnets"))),
		env("EMPIRE_EC2_SUBNETS_PUBLIC", cfn.JoinList(",", cfn.Ref("PublicSubnets"))),
		env("EMPIRE_ELB_SG_PRIVATE", cfn.Ref("PrivateAppELBSG")),
		env("EMPIRE_ELB_SG_PUBLIC", cfn.Ref("PublicAppELBSG")),
		env("EMPIRE_GITHUB_DEPLOYMENTS_IMAGE_BUILDER", "conveyor"),
		env("EMPIRE_CONVEYOR_URL", cfn.Ref("ConveyorUrl")),
		env("EMPIRE_RUN_LOGS_BACKEND", "cloudwatch"),
		env("EMPIRE_CUSTOM_RESOURCES_TOPIC", cfn.Ref(CustomResourcesTopic)),
		env("EMPIRE_CUSTOM_RESOURCES_QUEUE", cfn.Ref(CustomResourcesQueue)),
		env("EMPIRE_CLOUDWATCH_LOG_GROUP", cfn.Ref("RunLogs")),
	}
}

func daemonService(t *cfn.Template, command []string) error {
	instanceRoles := []any{cfn.Ref("InstanceRole")}
	return multierr.Combine(
		t.Add("AccessPolicy", &resources.PolicyType{
			PolicyName: "empire",
			PolicyDocument: daemonPolicy(daemonResources{
				CustomResourcesTopic: cfn.Ref(CustomResourcesTopic),
				CustomResourcesQueue: cfn.GetAtt(CustomResourcesQueue, "Arn"),
				TemplateBucket:       resources.BucketArn(cfn.Ref(TemplateBucket), "/*"),
			}),
			Roles: instanceRoles,
		}),
		t.Add(EventsTopic, &resources.Topic{DisplayName: "Empire events"},
			cfn.WithCondition("EnableSNSEvents")),
		t.Add("SNSEventsPolicy", &resources.PolicyType{
			PolicyName:     "EmpireSNSEventsPolicy",
			PolicyDocument: snsEventsPolicy(cfn.Ref(EventsTopic)),
			Roles:          instanceRoles,
		}, cfn.WithCondition("EnableSNSEvents")),
		t.Add(TaskDefinition, &resources.TaskDefinition{
			Volumes: []resources.Volume{
				{Name: "dockerSocket", Host: &resources.Host{SourcePath: "/var/run/docker.sock"}},
				{Name: "dockerCfg", Host: &resources.Host{SourcePath: "/root/.dockercfg"}},
			},
			ContainerDefinitions: []resources.ContainerDefinition{{
				Name:        containerName,
				Command:     command,
				Environment: Environment(),
				Essential:   true,
				Image:       cfn.Ref("DockerImage"),
				MountPoints: []resources.MountPoint{
					{SourceVolume: "dockerSocket", ContainerPath: "/var/run/docker.sock"},
					{SourceVolume: "dockerCfg", ContainerPath: "/root/.dockercfg"},
				},
				PortMappings: []resources.PortMapping{{HostPort: daemonPort, ContainerPort: daemonPort}},
				Cpu:          1024,
				Memory:       1024,
			}},
		}),
		t.Add("Service", &resources.Service{
			Cluster:      cfn.Ref("ControllerCluster"),
			DesiredCount: 2,
			LoadBalancers: []resources.ServiceLoadBalancer{{
				ContainerName:    containerName,
				ContainerPort:    daemonPort,
				LoadBalancerName: cfn.Ref(LoadBalancer),
			}},
			Role:           "ecsServiceRole",
			TaskDefinition: cfn.Ref(TaskDefinition),
		}),
	)
}
