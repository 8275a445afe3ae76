package resources

type (
	Topic struct {
		DisplayName  any            `json:"DisplayName,omitempty"`
		Subscription []Subscription `json:"Subscription,omitempty"`
		TopicName    any            `json:"TopicName,omitempty"`
	}

	Subscription struct {
		Endpoint any    `json:"Endpoint"`
		Protocol string `json:"Protocol"`
	}
)

func (Topic) AWSCloudFormationType() string { return "AWS::SNS::Topic" }
