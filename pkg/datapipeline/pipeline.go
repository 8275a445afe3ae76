package datapipeline

import (
	"github.com/mhahn/stacker-blueprints/pkg/provider/aws/resources"
)

type (
	// Field is a pipeline object field holding either a literal value or a reference to the id of
	// another object in the same pipeline.
	Field struct {
		Key string
		// StringValue is a string or an intrinsic function resolved by CloudFormation.
		StringValue any
		RefValue    string
	}

	Object struct {
		ID     string
		Name   string
		Fields []Field
	}

	// ParameterObject declares a pipeline parameter usable in expressions as #{id}.
	ParameterObject struct {
		ID          string
		Description string
		Type        string
	}

	ParameterValue struct {
		ID          string
		StringValue any
	}

	Pipeline struct {
		Name             string
		Description      string
		Activate         any
		ParameterObjects []ParameterObject
		ParameterValues  []ParameterValue
		Objects          []Object
		Tags             map[string]string
	}
)

func String(key string, value any) Field {
	return Field{Key: key, StringValue: value}
}

func Ref(key, id string) Field {
	return Field{Key: key, RefValue: id}
}

func (f Field) IsRef() bool {
	return f.RefValue != ""
}

// NewObject returns an object whose name equals its id.
func NewObject(id string, fields ...Field) Object {
	return Object{ID: id, Name: id, Fields: fields}
}

// Field returns the first field with the key.
func (o Object) Field(key string) (Field, bool) {
	for _, f := range o.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Type is the value of the object's "type" field.
func (o Object) Type() string {
	f, ok := o.Field("type")
	if !ok {
		return ""
	}
	s, _ := f.StringValue.(string)
	return s
}

func (p *Pipeline) Add(objects ...Object) {
	p.Objects = append(p.Objects, objects...)
}

func (p *Pipeline) Object(id string) (Object, bool) {
	for _, o := range p.Objects {
		if o.ID == id {
			return o, true
		}
	}
	return Object{}, false
}

// IDs returns the object ids in declaration order.
func (p *Pipeline) IDs() []string {
	ids := make([]string, len(p.Objects))
	for i, o := range p.Objects {
		ids[i] = o.ID
	}
	return ids
}

// Resource converts the pipeline into AWS::DataPipeline::Pipeline properties, preserving the
// declaration order of objects and fields.
func (p *Pipeline) Resource() *resources.DataPipeline {
	res := &resources.DataPipeline{
		Activate:        p.Activate,
		Description:     p.Description,
		Name:            p.Name,
		PipelineObjects: make([]resources.PipelineObject, len(p.Objects)),
	}
	for _, po := range p.ParameterObjects {
		var attrs []resources.PipelineParameterAttribute
		if po.Description != "" {
			attrs = append(attrs, resources.PipelineParameterAttribute{Key: "description", StringValue: po.Description})
		}
		typ := po.Type
		if typ == "" {
			typ = "String"
		}
		attrs = append(attrs, resources.PipelineParameterAttribute{Key: "type", StringValue: typ})
		res.ParameterObjects = append(res.ParameterObjects, resources.PipelineParameterObject{
			Id:         po.ID,
			Attributes: attrs,
		})
	}
	for _, pv := range p.ParameterValues {
		res.ParameterValues = append(res.ParameterValues, resources.PipelineParameterValue{
			Id:          pv.ID,
			StringValue: pv.StringValue,
		})
	}
	for i, o := range p.Objects {
		fields := make([]resources.PipelineField, len(o.Fields))
		for j, f := range o.Fields {
			fields[j] = resources.PipelineField{Key: f.Key, RefValue: f.RefValue, StringValue: f.StringValue}
		}
		res.PipelineObjects[i] = resources.PipelineObject{Id: o.ID, Name: o.Name, Fields: fields}
	}
	for _, k := range sortedTagKeys(p.Tags) {
		res.PipelineTags = append(res.PipelineTags, resources.PipelineTag{Key: k, Value: p.Tags[k]})
	}
	return res
}

// FromResource rebuilds the object graph of rendered pipeline properties so that it can be
// validated or ordered again.
func FromResource(res *resources.DataPipeline) *Pipeline {
	p := &Pipeline{
		Name:        res.Name,
		Description: res.Description,
		Activate:    res.Activate,
	}
	for _, po := range res.ParameterObjects {
		obj := ParameterObject{ID: po.Id}
		for _, attr := range po.Attributes {
			switch attr.Key {
			case "description":
				obj.Description = attr.StringValue
			case "type":
				obj.Type = attr.StringValue
			}
		}
		p.ParameterObjects = append(p.ParameterObjects, obj)
	}
	for _, pv := range res.ParameterValues {
		p.ParameterValues = append(p.ParameterValues, ParameterValue{ID: pv.Id, StringValue: pv.StringValue})
	}
	for _, o := range res.PipelineObjects {
		obj := Object{ID: o.Id, Name: o.Name, Fields: make([]Field, len(o.Fields))}
		for i, f := range o.Fields {
			obj.Fields[i] = Field{Key: f.Key, StringValue: f.StringValue, RefValue: f.RefValue}
		}
		p.Objects = append(p.Objects, obj)
	}
	if len(res.PipelineTags) > 0 {
		p.Tags = make(map[string]string, len(res.PipelineTags))
		for _, tag := range res.PipelineTags {
			p.Tags[tag.Key] = tag.Value
		}
	}
	return p
}
