// Package cluster builds an auto scaling group of instances behind a classic load balancer, the
// layout shared by the conveyor and drone blueprints.
package cluster

import (
	"fmt"

	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/mhahn/stacker-blueprints/pkg/provider/aws/resources"
	"go.uber.org/multierr"
)

const (
	LoadBalancer = "LoadBalancer"

	NoSSL  = "NoSSL"
	UseDNS = "UseDNS"
)

// ELBCluster names the resources of one cluster. Logical ids are derived from Name, eg.
// "Drone" gives DroneSecurityGroup and DroneLaunchConfiguration.
type ELBCluster struct {
	Name string
	// Tag is the value of the Name tag propagated to instances.
	Tag          string
	InstancePort int
}

func (c ELBCluster) SecurityGroup() string       { return c.Name + "SecurityGroup" }
func (c ELBCluster) ELBSecurityGroup() string    { return c.Name + "ELBSecurityGroup" }
func (c ELBCluster) LaunchConfiguration() string { return c.Name + "LaunchConfiguration" }
func (c ELBCluster) Profile() string             { return c.Name + "Profile" }
func (c ELBCluster) Role() string                { return c.Name + "Role" }

// Parameters are the network, load balancer and capacity parameters every cluster takes.
// Blueprints add their own defaults for Subdomain, Version, ImageName and the capacities.
func Parameters(product string) blueprint.Parameters {
	return blueprint.Parameters{
		"VpcId": {
			Type:        "AWS::EC2::VPC::Id",
			Description: fmt.Sprintf("ID of the VPC to launch %s in.", product),
		},
		"DefaultSG": {
			Type:        "AWS::EC2::SecurityGroup::Id",
			Description: "Top level security group.",
		},
		"PrivateSubnets": {
			Type:        "List<AWS::EC2::Subnet::Id>",
			Description: "Subnets to deploy private instances in.",
		},
		"PublicSubnets": {
			Type:        "List<AWS::EC2::Subnet::Id>",
			Description: "Subnets to deploy public (elb) instances in.",
		},
		"AvailabilityZones": {
			Type:        "List<AWS::EC2::AvailabilityZone::Name>",
			Description: "Comma delimited list of availability zones. MAX 2",
		},
		"SshKeyName": {
			Type:        "AWS::EC2::KeyPair::KeyName",
			Description: "The name of the key pair to use to allow SSH access.",
		},
		"TrustedNetwork": {
			Type:        "String",
			Description: fmt.Sprintf("CIDR block allowed to connect to %s ELB.", product),
		},
		"SSLCertificateName": {
			Type: "String",
			Description: "The name of the SSL certificate to attach to the load balancer. " +
				"Note: If this is set, non-HTTPS access is disabled.",
			Default: "",
		},
		"ExternalDomain": {
			Type:        "String",
			Description: "Base domain for the stack.",
			Default:     "",
		},
		"InstanceType": {
			Type:          "String",
			Description:   fmt.Sprintf("EC2 instance type to use for %s.", product),
			Default:       "t2.small",
			AllowedValues: resources.InstanceTypes,
		},
		"EbsOptimized": {
			Type:          "String",
			Description:   "Boolean to determine whether or not the instance should be EBS optimized",
			Default:       "false",
			AllowedValues: []string{"true", "false"},
		},
		"MinCapacity": {
			Type:        "Number",
			Description: "Minimum number of EC2 instances in the auto scaling group",
			Default:     "1",
		},
	}
}

// Capacity returns the MaxCapacity and DesiredCapacity parameters.
func Capacity(max, desired string) blueprint.Parameters {
	return blueprint.Parameters{
		"MaxCapacity": {
			Type:        "Number",
			Description: "Maximum number of EC2 instances in the auto scaling group",
			Default:     max,
		},
		"DesiredCapacity": {
			Type:        "Number",
			Description: "Desired number of EC2 instances in the auto scaling group",
			Default:     desired,
		},
	}
}

func AddConditions(t *cfn.Template) error {
	return multierr.Combine(
		t.AddCondition(NoSSL, cfn.Equals(cfn.Ref("SSLCertificateName"), "")),
		t.AddCondition(UseDNS, cfn.Not(cfn.Equals(cfn.Ref("ExternalDomain"), ""))),
	)
}

// BaseURL is the external URL of the cluster, http or https depending on NoSSL.
func BaseURL() cfn.Fn {
	return cfn.Join("",
		cfn.If(NoSSL, "http", "https"),
		"://",
		cfn.Ref("Subdomain"),
		".",
		cfn.Ref("ExternalDomain"),
	)
}

func listenerPort() cfn.Fn {
	return cfn.If(NoSSL, "80", "443")
}

func certificateARN() cfn.Fn {
	return cfn.Join("",
		"arn:aws:iam::",
		cfn.Ref(cfn.AccountID),
		":server-certificate/",
		cfn.Ref("SSLCertificateName"),
	)
}

func (c ELBCluster) AddSecurityGroups(t *cfn.Template) error {
	return multierr.Combine(
		t.Add(c.SecurityGroup(), &resources.SecurityGroup{
			GroupDescription: c.SecurityGroup(),
			VpcId:            cfn.Ref("VpcId"),
		}),
		t.Add(c.ELBSecurityGroup(), &resources.SecurityGroup{
			GroupDescription: c.ELBSecurityGroup(),
			VpcId:            cfn.Ref("VpcId"),
		}),
		t.Add(c.Name+"ELBFromTrusted", &resources.SecurityGroupIngress{
			IpProtocol: "tcp",
			FromPort:   listenerPort(),
			ToPort:     listenerPort(),
			CidrIp:     cfn.Ref("TrustedNetwork"),
			GroupId:    cfn.Ref(c.ELBSecurityGroup()),
		}),
		t.Add(fmt.Sprintf("%sELBTo%sCluster", c.Name, c.Name),
			resources.TCPIngress(cfn.Ref(c.SecurityGroup()), cfn.Ref(c.ELBSecurityGroup()), c.InstancePort)),
	)
}

// AddLoadBalancer adds the load balancer and, when ExternalDomain is set, a CNAME for
// Subdomain.ExternalDomain pointing at it.
func (c ELBCluster) AddLoadBalancer(t *cfn.Template) error {
	return multierr.Combine(
		t.Add(LoadBalancer, &resources.LoadBalancer{
			HealthCheck: &resources.HealthCheck{
				Target:             fmt.Sprintf("TCP:%d", c.InstancePort),
				HealthyThreshold:   3,
				UnhealthyThreshold: 3,
				Interval:           30,
				Timeout:            5,
			},
			Listeners: []resources.Listener{{
				LoadBalancerPort: listenerPort(),
				InstancePort:     c.InstancePort,
				Protocol:         cfn.If(NoSSL, "TCP", "SSL"),
				InstanceProtocol: "TCP",
				SSLCertificateId: cfn.If(NoSSL, cfn.NoValue(), certificateARN()),
			}},
			SecurityGroups: []any{cfn.Ref(c.ELBSecurityGroup())},
			CrossZone:      "true",
			Subnets:        cfn.Ref("PublicSubnets"),
		}),
		t.Add(c.Name+"ElbDnsRecord",
			resources.ELBCNAME(c.Name+" ELB DNS", cfn.Ref("Subdomain"), cfn.Ref("ExternalDomain"), LoadBalancer),
			cfn.WithCondition(UseDNS)),
	)
}

// AddInstanceProfile adds the instance role, with the given inline policies, and its profile.
func (c ELBCluster) AddInstanceProfile(t *cfn.Template, policies ...resources.Policy) error {
	return multierr.Combine(
		t.Add(c.Role(), &resources.Role{
			AssumeRolePolicyDocument: resources.EC2AssumeRolePolicy,
			Path:                     "/",
			Policies:                 policies,
		}),
		t.Add(c.Profile(), &resources.InstanceProfile{
			Path:  "/",
			Roles: resources.RoleRefs(c.Role()),
		}),
	)
}

// AddAutoScalingGroup adds the launch configuration, booting instances with userData and
// cfn-init files, and the group running it behind the load balancer.
func (c ELBCluster) AddAutoScalingGroup(t *cfn.Template, userData any, files resources.InitFiles) error {
	return multierr.Combine(
		t.Add(c.LaunchConfiguration(), &resources.LaunchConfiguration{
			IamInstanceProfile: cfn.Ref(c.Profile()),
			ImageId:            cfn.FindInMap("AmiMap", cfn.Ref(cfn.Region), cfn.Ref("ImageName")),
			InstanceType:       cfn.Ref("InstanceType"),
			KeyName:            cfn.Ref("SshKeyName"),
			UserData:           userData,
			SecurityGroups:     []any{cfn.Ref("DefaultSG"), cfn.Ref(c.SecurityGroup())},
			EbsOptimized:       cfn.Ref("EbsOptimized"),
		}, cfn.WithMetadata(resources.InitMetadataKey, resources.NewInit(files))),
		t.Add(c.Name+"AutoscalingGroup", &resources.AutoScalingGroup{
			AvailabilityZones:       cfn.Ref("AvailabilityZones"),
			LaunchConfigurationName: cfn.Ref(c.LaunchConfiguration()),
			MinSize:                 cfn.Ref("MinCapacity"),
			MaxSize:                 cfn.Ref("MaxCapacity"),
			DesiredCapacity:         cfn.Ref("DesiredCapacity"),
			VPCZoneIdentifier:       cfn.Ref("PrivateSubnets"),
			LoadBalancerNames:       []any{cfn.Ref(LoadBalancer)},
			Tags:                    []resources.AutoScalingGroupTag{{Key: "Name", Value: c.Tag, PropagateAtLaunch: true}},
		}, cfn.WithUpdatePolicy(resources.RollingUpdatePolicy())),
	)
}
