package empire

import (
	"strings"

	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/mhahn/stacker-blueprints/pkg/provider/aws/resources"
	"github.com/mhahn/stacker-blueprints/pkg/templateutils"
	"go.uber.org/multierr"
)

const (
	ControllerSecurityGroup = "EmpireControllerSecurityGroup"
	ControllerCluster       = "EmpireControllerCluster"
	ControllerRole          = "EmpireControllerRole"
	ControllerProfile       = "EmpireControllerProfile"
	ControllerLaunchConfig  = "EmpireControllerLaunchConfig"
	RunLogs                 = "RunLogs"

	EnableRunLogs = "EnableRunLogs"
)

// seedTmpl is the user data of controller instances. The Empire AMI reads it as an env file.
var seedTmpl = templateutils.MustInline("seed", `
	EMPIRE_HOSTGROUP=controller
	ECS_CLUSTER={{ ref .Cluster }}
	DOCKER_REGISTRY={{ ref "DockerRegistry" }}
	DOCKER_USER={{ ref "DockerRegistryUser" }}
	DOCKER_PASS={{ ref "DockerRegistryPassword" }}
	DOCKER_EMAIL={{ ref "DockerRegistryEmail" }}
`)

var Controller = &blueprint.Blueprint{
	Name:        "empire.Controller",
	Description: "Empire controller instances and ECS cluster",
	Parameters: blueprint.Parameters{
		"VpcId":          {Type: "AWS::EC2::VPC::Id", Description: "Vpc Id"},
		"DefaultSG":      {Type: "AWS::EC2::SecurityGroup::Id", Description: "Top level security group."},
		"PrivateSubnets": {Type: "List<AWS::EC2::Subnet::Id>", Description: "Subnets to deploy private instances in."},
		"AvailabilityZones": {
			Type:        "CommaDelimitedList",
			Description: "Availability Zones to deploy instances in.",
		},
		"InstanceType": {
			Type:          "String",
			Description:   "Empire AWS Instance Type",
			Default:       "m3.medium",
			AllowedValues: resources.InstanceTypes,
		},
		"MinHosts":   {Type: "Number", Description: "Minimum # of empire controller instances.", Default: "2"},
		"MaxHosts":   {Type: "Number", Description: "Maximum # of empire controller instances.", Default: "3"},
		"SshKeyName": {Type: "AWS::EC2::KeyPair::KeyName"},
		"ImageName": {
			Type:        "String",
			Description: "The image name to use from the AMIMap (usually found in the config file.)",
			Default:     "NAT",
		},
		"EmpireDBSecurityGroup": {
			Type:        "AWS::EC2::SecurityGroup::Id",
			Description: "Security group of Empire database.",
		},
		"DisableRunLogs": {
			Type: "String",
			Description: "Disables run logs if set to anything. " +
				"Note: Without this, Empire will log interactive runs to CloudWatch.",
			Default: "",
		},
		"DockerRegistry": {
			Type:        "String",
			Description: "Optional docker registry where private images are located.",
			Default:     "https://index.docker.io/v1/",
		},
		"DockerRegistryUser": {
			Type:        "String",
			Description: "User for authentication with docker registry.",
			Default:     "",
		},
		"DockerRegistryPassword": {
			Type:        "String",
			Description: "Password for authentication with docker registry.",
			Default:     "",
			NoEcho:      true,
		},
		"DockerRegistryEmail": {
			Type:        "String",
			Description: "Email for authentication with docker registry.",
			Default:     "",
		},
	},
	Build: buildController,
}

func buildController(ctx *blueprint.Context, t *cfn.Template) error {
	seed, err := templateutils.Execute(seedTmpl, struct{ Cluster string }{ControllerCluster})
	if err != nil {
		return err
	}
	return multierr.Combine(
		t.AddCondition(EnableRunLogs, cfn.Equals(cfn.Ref("DisableRunLogs"), "")),
		controllerSecurityGroups(t),
		t.Add(ControllerCluster, &resources.Cluster{}),
		t.AddOutput("ControllerECSCluster", cfn.Output{Value: cfn.Ref(ControllerCluster)}),
		controllerProfile(t),
		controllerAutoScalingGroup(t, cfn.Base64(cfn.Sub(strings.TrimLeft(seed, "\n")))),
		t.Add(RunLogs, &resources.LogGroup{}, cfn.WithCondition(EnableRunLogs)),
		t.AddOutput(RunLogs, cfn.Output{Value: cfn.Ref(RunLogs), Condition: EnableRunLogs}),
	)
}

func controllerSecurityGroups(t *cfn.Template) error {
	return multierr.Combine(
		t.Add(ControllerSecurityGroup, &resources.SecurityGroup{
			GroupDescription: ControllerSecurityGroup,
			VpcId:            cfn.Ref("VpcId"),
		}),
		t.AddOutput("EmpireControllerSG", cfn.Output{Value: cfn.Ref(ControllerSecurityGroup)}),
		t.Add("EmpireControllerDBAccess",
			resources.TCPIngress(cfn.Ref("EmpireDBSecurityGroup"), cfn.Ref(ControllerSecurityGroup), 5432)),
	)
}

// controllerPolicies always includes the ECS agent policy and adds the run logs policy when run
// logs are enabled.
func controllerPolicies() cfn.Fn {
	base := []resources.Policy{{PolicyName: "ecs-agent", PolicyDocument: ecsAgentPolicy()}}
	withLogging := append([]resources.Policy{}, base...)
	withLogging = append(withLogging, resources.Policy{PolicyName: "runlogs", PolicyDocument: runLogsPolicy()})
	return cfn.If(EnableRunLogs, withLogging, base)
}

// controllerRole is the role with policies chosen by condition. resources.Role takes a fixed
// policy list so the property is set here.
type controllerRole struct {
	resources.Role
	Policies cfn.Fn `json:"Policies"`
}

func controllerProfile(t *cfn.Template) error {
	return multierr.Combine(
		t.Add(ControllerRole, &controllerRole{
			Role: resources.Role{
				AssumeRolePolicyDocument: resources.EC2AssumeRolePolicy,
				Path:                     "/",
			},
			Policies: controllerPolicies(),
		}),
		t.Add(ControllerProfile, &resources.InstanceProfile{
			Path:  "/",
			Roles: resources.RoleRefs(ControllerRole),
		}),
		t.AddOutput(ControllerRole, cfn.Output{Value: cfn.Ref(ControllerRole)}),
	)
}

func controllerAutoScalingGroup(t *cfn.Template, userData any) error {
	return multierr.Combine(
		t.Add(ControllerLaunchConfig, &resources.LaunchConfiguration{
			IamInstanceProfile: cfn.GetAtt(ControllerProfile, "Arn"),
			ImageId:            cfn.FindInMap("AmiMap", cfn.Ref(cfn.Region), cfn.Ref("ImageName")),
			BlockDeviceMappings: []resources.BlockDeviceMapping{{
				DeviceName: "/dev/sdh",
				Ebs:        &resources.EBSBlockDevice{VolumeSize: "50"},
			}},
			InstanceType:   cfn.Ref("InstanceType"),
			KeyName:        cfn.Ref("SshKeyName"),
			UserData:       userData,
			SecurityGroups: []any{cfn.Ref("DefaultSG"), cfn.Ref(ControllerSecurityGroup)},
		}),
		t.Add("EmpireControllerAutoscalingGroup", &resources.AutoScalingGroup{
			AvailabilityZones:       cfn.Ref("AvailabilityZones"),
			LaunchConfigurationName: cfn.Ref(ControllerLaunchConfig),
			MinSize:                 cfn.Ref("MinHosts"),
			MaxSize:                 cfn.Ref("MaxHosts"),
			VPCZoneIdentifier:       cfn.Ref("PrivateSubnets"),
			Tags: []resources.AutoScalingGroupTag{
				{Key: "Name", Value: "empire_controller", PropagateAtLaunch: true},
			},
		}),
	)
}
