package resources

type (
	SecurityGroup struct {
		GroupDescription     any                 `json:"GroupDescription"`
		SecurityGroupEgress  []SecurityGroupRule `json:"SecurityGroupEgress,omitempty"`
		SecurityGroupIngress []SecurityGroupRule `json:"SecurityGroupIngress,omitempty"`
		Tags                 []Tag               `json:"Tags,omitempty"`
		VpcId                any                 `json:"VpcId,omitempty"`
	}

	SecurityGroupRule struct {
		CidrIp                any    `json:"CidrIp,omitempty"`
		FromPort              any    `json:"FromPort,omitempty"`
		IpProtocol            string `json:"IpProtocol"`
		SourceSecurityGroupId any    `json:"SourceSecurityGroupId,omitempty"`
		ToPort                any    `json:"ToPort,omitempty"`
	}

	// SecurityGroupIngress is a standalone ingress rule. GroupId is the group receiving traffic.
	SecurityGroupIngress struct {
		CidrIp                any    `json:"CidrIp,omitempty"`
		FromPort              any    `json:"FromPort"`
		GroupId               any    `json:"GroupId"`
		IpProtocol            string `json:"IpProtocol"`
		SourceSecurityGroupId any    `json:"SourceSecurityGroupId,omitempty"`
		ToPort                any    `json:"ToPort"`
	}

	Tag struct {
		Key   string `json:"Key"`
		Value any    `json:"Value"`
	}
)

func (SecurityGroup) AWSCloudFormationType() string        { return "AWS::EC2::SecurityGroup" }
func (SecurityGroupIngress) AWSCloudFormationType() string { return "AWS::EC2::SecurityGroupIngress" }

// TCPIngress allows a single TCP port into group from a source security group.
func TCPIngress(group, source any, port int) *SecurityGroupIngress {
	return &SecurityGroupIngress{
		IpProtocol:            "tcp",
		FromPort:              port,
		ToPort:                port,
		GroupId:               group,
		SourceSecurityGroupId: source,
	}
}
