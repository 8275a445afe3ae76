package resources

type LogGroup struct {
	LogGroupName    any `json:"LogGroupName,omitempty"`
	RetentionInDays any `json:"RetentionInDays,omitempty"`
}

func (LogGroup) AWSCloudFormationType() string { return "AWS::Logs::LogGroup" }
