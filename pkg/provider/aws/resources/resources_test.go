package resources

import (
	"encoding/json"
	"testing"

	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomResource_MarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		res     CustomResource
		want    string
		wantErr bool
	}{
		{
			name: "properties flattened next to service token",
			res: CustomResource{
				Name:         "EmpireApp",
				ServiceToken: cfn.Ref("ServiceToken"),
				Properties:   map[string]any{"Name": cfn.Ref("Name")},
			},
			want: `{"Name":{"Ref":"Name"},"ServiceToken":{"Ref":"ServiceToken"}}`,
		},
		{
			name: "service token only",
			res:  CustomResource{Name: "Thing", ServiceToken: "arn:aws:sns:us-east-1:123:topic"},
			want: `{"ServiceToken":"arn:aws:sns:us-east-1:123:topic"}`,
		},
		{
			name: "service token property rejected",
			res: CustomResource{
				Name:       "Thing",
				Properties: map[string]any{"ServiceToken": "x"},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.res)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
			assert.Equal(t, "Custom::"+tt.res.Name, tt.res.AWSCloudFormationType())
		})
	}
}

func TestServiceAssumeRolePolicy(t *testing.T) {
	got, err := json.Marshal(ServiceAssumeRolePolicy("ec2.amazonaws.com"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": {"Service": "ec2.amazonaws.com"},
			"Action": ["sts:AssumeRole"]
		}]
	}`, string(got))

	got, err = json.Marshal(ServiceAssumeRolePolicy("a.amazonaws.com", "b.amazonaws.com"))
	require.NoError(t, err)
	assert.Contains(t, string(got), `"Service":["a.amazonaws.com","b.amazonaws.com"]`)
}

func TestELBCNAME(t *testing.T) {
	tmpl := cfn.NewTemplate("")
	require.NoError(t, tmpl.AddParameter("ExternalDomain", cfn.Parameter{}))
	require.NoError(t, tmpl.Add("LoadBalancer", &LoadBalancer{Listeners: []Listener{}}))
	require.NoError(t, tmpl.Add("Dns", ELBCNAME("ELB DNS", "app", cfn.Ref("ExternalDomain"), "LoadBalancer")))
	require.NoError(t, tmpl.Validate())

	doc, err := tmpl.Generic()
	require.NoError(t, err)
	props := doc["Resources"].(map[string]any)["Dns"].(map[string]any)["Properties"].(map[string]any)
	assert.Equal(t, "CNAME", props["Type"])
	assert.Equal(t, "120", props["TTL"])
	assert.Equal(t, map[string]any{"Fn::Join": []any{".", []any{"app", map[string]any{"Ref": "ExternalDomain"}}}}, props["Name"])
}
