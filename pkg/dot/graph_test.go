package dot

import (
	"bytes"
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDigraph(t *testing.T) {
	g := graph.New(graph.StringHash, graph.Directed())
	for _, v := range []string{"Role", "Queue", "Profile"} {
		require.NoError(t, g.AddVertex(v))
	}
	require.NoError(t, g.AddEdge("Role", "Profile"))

	buf := new(bytes.Buffer)
	err := WriteDigraph(buf, "conveyor", Cluster{
		Name:  "resources",
		Graph: g,
		Order: []string{"Role", "Missing"},
		Attributes: func(id string) map[string]string {
			if id == "Queue" {
				return map[string]string{"tooltip": `AWS::SQS::Queue`}
			}
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `digraph "conveyor" {
  rankdir = LR
  subgraph "cluster_resources" {
    label = "resources"
    "resources/Role" [label="Role", shape="box"];
    "resources/Profile" [label="Profile", shape="box"];
    "resources/Queue" [label="Queue", shape="box", tooltip="AWS::SQS::Queue"];
  }
  "resources/Role" -> "resources/Profile";
}
`, buf.String())
}

func TestAttributesToString(t *testing.T) {
	tests := []struct {
		name    string
		attribs map[string]string
		want    string
	}{
		{name: "empty", want: ""},
		{name: "quoted", attribs: map[string]string{"label": `say "hi"`}, want: ` [label="say \"hi\""]`},
		{name: "html", attribs: map[string]string{"label": "<b>x</b>", "a": "1"}, want: ` [a="1", label=<b>x</b>]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AttributesToString(tt.attribs))
		})
	}
}

func TestSvgPan(t *testing.T) {
	svg := `<svg width="10pt" height="20pt" viewBox="0 0 10 20" xmlns="x"><g id="graph0" class="graph"></g></svg>`
	out := SvgPan(svg, "")
	assert.Contains(t, out, `<svg width="100%" height="100%" xmlns="x"><script`)
	assert.Contains(t, out, `<g id="viewport" transform="scale(0.5,0.5) translate(0,0)"><g id="graph0"`)
	assert.Contains(t, out, `</g></g></svg>`)
}

func TestSvgPan_Title(t *testing.T) {
	svg := `<svg width="10pt" height="20pt" viewBox="0 0 10 20" xmlns="x"><g id="graph0"></g></svg>`
	out := SvgPan(svg, "acme & co")
	assert.Contains(t, out, `<svg width="100%" height="100%" xmlns="x"><title>acme &amp; co</title><script`)
}
