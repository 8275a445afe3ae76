package resources

type (
	Cluster struct {
		ClusterName any `json:"ClusterName,omitempty"`
	}

	TaskDefinition struct {
		ContainerDefinitions []ContainerDefinition `json:"ContainerDefinitions"`
		Volumes              []Volume              `json:"Volumes,omitempty"`
	}

	ContainerDefinition struct {
		Command      []string      `json:"Command,omitempty"`
		Cpu          int           `json:"Cpu,omitempty"`
		Environment  []Environment `json:"Environment,omitempty"`
		Essential    bool          `json:"Essential"`
		Image        any           `json:"Image"`
		Memory       int           `json:"Memory,omitempty"`
		MountPoints  []MountPoint  `json:"MountPoints,omitempty"`
		Name         string        `json:"Name"`
		PortMappings []PortMapping `json:"PortMappings,omitempty"`
	}

	Environment struct {
		Name  string `json:"Name"`
		Value any    `json:"Value"`
	}

	MountPoint struct {
		ContainerPath string `json:"ContainerPath"`
		ReadOnly      bool   `json:"ReadOnly"`
		SourceVolume  string `json:"SourceVolume"`
	}

	PortMapping struct {
		ContainerPort int `json:"ContainerPort"`
		HostPort      int `json:"HostPort,omitempty"`
	}

	Volume struct {
		Host *Host  `json:"Host,omitempty"`
		Name string `json:"Name"`
	}

	Host struct {
		SourcePath string `json:"SourcePath"`
	}

	Service struct {
		Cluster        any                   `json:"Cluster"`
		DesiredCount   any                   `json:"DesiredCount"`
		LoadBalancers  []ServiceLoadBalancer `json:"LoadBalancers,omitempty"`
		Role           any                   `json:"Role,omitempty"`
		TaskDefinition any                   `json:"TaskDefinition"`
	}

	ServiceLoadBalancer struct {
		ContainerName    string `json:"ContainerName"`
		ContainerPort    int    `json:"ContainerPort"`
		LoadBalancerName any    `json:"LoadBalancerName"`
	}
)

func (Cluster) AWSCloudFormationType() string        { return "AWS::ECS::Cluster" }
func (TaskDefinition) AWSCloudFormationType() string { return "AWS::ECS::TaskDefinition" }
func (Service) AWSCloudFormationType() string        { return "AWS::ECS::Service" }
