package templateutils

import (
	"bytes"
	"encoding/json"
	"strings"
	"text/template"
)

var Funcs = template.FuncMap{
	"joinString": strings.Join,

	"json": func(v any) (string, error) {
		buf := new(bytes.Buffer)
		enc := json.NewEncoder(buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return "", err
		}
		return strings.TrimSpace(buf.String()), nil
	},

	// ref renders a Fn::Sub variable, eg. {{ ref "AWS::StackName" }} gives ${AWS::StackName}.
	"ref": SubVar,

	"subEscape": SubEscape,

	"replaceAll": func(s string, old string, new string) string {
		return strings.ReplaceAll(s, old, new)
	},
}

func SubVar(name string) string {
	return "${" + name + "}"
}

// SubEscape makes literal text safe to embed in a Fn::Sub string by turning ${ into ${!.
func SubEscape(s string) string {
	return strings.ReplaceAll(s, "${", "${!")
}
