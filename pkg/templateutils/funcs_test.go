package templateutils

import (
	"embed"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/*.tmpl
var testdata embed.FS

func TestSubEscape(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no variables", "echo hi", "echo hi"},
		{"shell variable", "echo ${HOME}", "echo ${!HOME}"},
		{"bare dollar", "echo $HOME", "echo $HOME"},
		{"multiple", "${a}${b}", "${!a}${!b}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SubEscape(tt.input))
		})
	}
}

func TestMustInline(t *testing.T) {
	tmpl := MustInline("script", `
		#!/bin/bash
		cfn-init -s {{ ref "AWS::StackName" }} -r {{ .Resource }}
		echo {{ .Literal | subEscape }} {{ .Items | json }}
		{{- range .Lines }}
		{{ . | upper }}
		{{- end }}
	`)
	out, err := Execute(tmpl, map[string]any{
		"Resource": "LaunchConfiguration",
		"Literal":  "${x}",
		"Items":    []string{"a&b"},
		"Lines":    []string{"one", "two"},
	})
	require.NoError(t, err)
	assert.Equal(t, "\n#!/bin/bash\ncfn-init -s ${AWS::StackName} -r LaunchConfiguration\necho ${!x} [\"a&b\"]\nONE\nTWO\n", out)
}

func TestMustInline_MissingKey(t *testing.T) {
	tmpl := MustInline("missing", "{{ .Nope }}")
	_, err := Execute(tmpl, map[string]any{})
	assert.Error(t, err)
}

func TestMustTemplate(t *testing.T) {
	tmpl := MustTemplate(testdata, "testdata/greeting.tmpl")
	out, err := Execute(tmpl, map[string]any{"Name": "conveyor"})
	require.NoError(t, err)
	assert.Equal(t, "hello CONVEYOR\n", out)

	assert.Panics(t, func() { MustTemplate(testdata, "testdata/missing.tmpl") })
}
