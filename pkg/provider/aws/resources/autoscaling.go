package resources

type (
	LaunchConfiguration struct {
		BlockDeviceMappings []BlockDeviceMapping `json:"BlockDeviceMappings,omitempty"`
		EbsOptimized        any                  `json:"EbsOptimized,omitempty"`
		IamInstanceProfile  any                  `json:"IamInstanceProfile,omitempty"`
		ImageId             any                  `json:"ImageId"`
		InstanceType        any                  `json:"InstanceType"`
		KeyName             any                  `json:"KeyName,omitempty"`
		SecurityGroups      []any                `json:"SecurityGroups,omitempty"`
		UserData            any                  `json:"UserData,omitempty"`
	}

	BlockDeviceMapping struct {
		DeviceName string          `json:"DeviceName"`
		Ebs        *EBSBlockDevice `json:"Ebs,omitempty"`
	}

	EBSBlockDevice struct {
		DeleteOnTermination *bool  `json:"DeleteOnTermination,omitempty"`
		VolumeSize          any    `json:"VolumeSize,omitempty"`
		VolumeType          string `json:"VolumeType,omitempty"`
	}

	AutoScalingGroup struct {
		AvailabilityZones       any                   `json:"AvailabilityZones,omitempty"`
		DesiredCapacity         any                   `json:"DesiredCapacity,omitempty"`
		LaunchConfigurationName any                   `json:"LaunchConfigurationName"`
		LoadBalancerNames       []any                 `json:"LoadBalancerNames,omitempty"`
		MaxSize                 any                   `json:"MaxSize"`
		MinSize                 any                   `json:"MinSize"`
		Tags                    []AutoScalingGroupTag `json:"Tags,omitempty"`
		VPCZoneIdentifier       any                   `json:"VPCZoneIdentifier,omitempty"`
	}

	AutoScalingGroupTag struct {
		Key               string `json:"Key"`
		PropagateAtLaunch bool   `json:"PropagateAtLaunch"`
		Value             any    `json:"Value"`
	}

	// UpdatePolicy is the resource attribute controlling how CloudFormation replaces instances of
	// an auto scaling group. It is set with cfn.WithUpdatePolicy, not as a property.
	UpdatePolicy struct {
		AutoScalingRollingUpdate   *AutoScalingRollingUpdate   `json:"AutoScalingRollingUpdate,omitempty"`
		AutoScalingScheduledAction *AutoScalingScheduledAction `json:"AutoScalingScheduledAction,omitempty"`
	}

	AutoScalingRollingUpdate struct {
		MaxBatchSize          string `json:"MaxBatchSize,omitempty"`
		MinInstancesInService string `json:"MinInstancesInService,omitempty"`
		PauseTime             string `json:"PauseTime,omitempty"`
		WaitOnResourceSignals string `json:"WaitOnResourceSignals,omitempty"`
	}

	AutoScalingScheduledAction struct {
		IgnoreUnmodifiedGroupSizeProperties string `json:"IgnoreUnmodifiedGroupSizeProperties,omitempty"`
	}
)

func (LaunchConfiguration) AWSCloudFormationType() string {
	return "AWS::AutoScaling::LaunchConfiguration"
}

func (AutoScalingGroup) AWSCloudFormationType() string { return "AWS::AutoScaling::AutoScalingGroup" }

// RollingUpdatePolicy is the update policy shared by the instance clusters: keep one instance in
// service, replace two at a time and pause five minutes between batches.
func RollingUpdatePolicy() *UpdatePolicy {
	return &UpdatePolicy{
		AutoScalingScheduledAction: &AutoScalingScheduledAction{
			IgnoreUnmodifiedGroupSizeProperties: "true",
		},
		AutoScalingRollingUpdate: &AutoScalingRollingUpdate{
			MinInstancesInService: "1",
			MaxBatchSize:          "2",
			WaitOnResourceSignals: "false",
			PauseTime:             "PT5M",
		},
	}
}
