package resources

type (
	// DataPipeline is AWS::DataPipeline::Pipeline. The object graph is built and checked by
	// package datapipeline, which converts to these wire types.
	DataPipeline struct {
		Activate         any                       `json:"Activate,omitempty"`
		Description      string                    `json:"Description,omitempty"`
		Name             string                    `json:"Name"`
		ParameterObjects []PipelineParameterObject `json:"ParameterObjects,omitempty"`
		ParameterValues  []PipelineParameterValue  `json:"ParameterValues,omitempty"`
		PipelineObjects  []PipelineObject          `json:"PipelineObjects"`
		PipelineTags     []PipelineTag             `json:"PipelineTags,omitempty"`
	}

	PipelineObject struct {
		Fields []PipelineField `json:"Fields"`
		Id     string          `json:"Id"`
		Name   string          `json:"Name"`
	}

	// PipelineField holds exactly one of StringValue or RefValue.
	PipelineField struct {
		Key         string `json:"Key"`
		RefValue    string `json:"RefValue,omitempty"`
		StringValue any    `json:"StringValue,omitempty"`
	}

	PipelineParameterObject struct {
		Attributes []PipelineParameterAttribute `json:"Attributes"`
		Id         string                       `json:"Id"`
	}

	PipelineParameterAttribute struct {
		Key         string `json:"Key"`
		StringValue string `json:"StringValue"`
	}

	PipelineParameterValue struct {
		Id          string `json:"Id"`
		StringValue any    `json:"StringValue"`
	}

	PipelineTag struct {
		Key   string `json:"Key"`
		Value string `json:"Value"`
	}
)

func (DataPipeline) AWSCloudFormationType() string { return "AWS::DataPipeline::Pipeline" }
