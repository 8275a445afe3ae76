package resources

type (
	Queue struct {
		QueueName         any `json:"QueueName,omitempty"`
		VisibilityTimeout any `json:"VisibilityTimeout,omitempty"`
	}

	QueuePolicy struct {
		PolicyDocument *PolicyDocument `json:"PolicyDocument"`
		Queues         []any           `json:"Queues"`
	}
)

func (Queue) AWSCloudFormationType() string       { return "AWS::SQS::Queue" }
func (QueuePolicy) AWSCloudFormationType() string { return "AWS::SQS::QueuePolicy" }
