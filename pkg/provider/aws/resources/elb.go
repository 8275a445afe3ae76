package resources

type (
	// LoadBalancer is the classic AWS::ElasticLoadBalancing::LoadBalancer.
	LoadBalancer struct {
		CrossZone      any          `json:"CrossZone,omitempty"`
		HealthCheck    *HealthCheck `json:"HealthCheck,omitempty"`
		Listeners      any          `json:"Listeners"`
		Scheme         string       `json:"Scheme,omitempty"`
		SecurityGroups []any        `json:"SecurityGroups,omitempty"`
		Subnets        any          `json:"Subnets,omitempty"`
	}

	Listener struct {
		InstancePort     any    `json:"InstancePort"`
		InstanceProtocol string `json:"InstanceProtocol,omitempty"`
		LoadBalancerPort any    `json:"LoadBalancerPort"`
		Protocol         any    `json:"Protocol"`
		SSLCertificateId any    `json:"SSLCertificateId,omitempty"`
	}

	HealthCheck struct {
		HealthyThreshold   any    `json:"HealthyThreshold"`
		Interval           any    `json:"Interval"`
		Target             string `json:"Target"`
		Timeout            any    `json:"Timeout"`
		UnhealthyThreshold any    `json:"UnhealthyThreshold"`
	}
)

func (LoadBalancer) AWSCloudFormationType() string { return "AWS::ElasticLoadBalancing::LoadBalancer" }
