package stack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mhahn/stacker-blueprints/pkg/io"
)

type parameterValue struct {
	ParameterKey   string `json:"ParameterKey"`
	ParameterValue string `json:"ParameterValue"`
}

func TemplatePath(namespace, stack, format string) string {
	ext := format
	if ext == "" {
		ext = "json"
	}
	return fmt.Sprintf("%s-%s.%s", namespace, stack, ext)
}

func ParametersPath(namespace, stack string) string {
	return fmt.Sprintf("%s-%s.parameters.json", namespace, stack)
}

// Files encodes the template and its parameter values in the format CloudFormation accepts.
func (rs *Rendered) Files(namespace, format string) ([]io.File, error) {
	content, err := rs.Template.Encode(format)
	if err != nil {
		return nil, fmt.Errorf("stack %s: %w", rs.Stack.Name, err)
	}
	params, err := rs.ParametersJSON()
	if err != nil {
		return nil, fmt.Errorf("stack %s: %w", rs.Stack.Name, err)
	}
	return []io.File{
		&io.RawFile{FPath: TemplatePath(namespace, rs.Stack.Name, format), Content: content},
		&io.RawFile{FPath: ParametersPath(namespace, rs.Stack.Name), Content: params},
	}, nil
}

// ParametersJSON returns the parameter values as a list of ParameterKey/ParameterValue pairs
// sorted by key.
func (rs *Rendered) ParametersJSON() ([]byte, error) {
	keys := make([]string, 0, len(rs.Parameters))
	for k := range rs.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]parameterValue, len(keys))
	for i, k := range keys {
		values[i] = parameterValue{ParameterKey: k, ParameterValue: rs.Parameters[k]}
	}

	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(values); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
