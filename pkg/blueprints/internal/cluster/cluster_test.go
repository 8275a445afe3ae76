package cluster

import (
	"testing"

	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserData(t *testing.T) {
	tests := []struct {
		name     string
		commands []string
		want     string
	}{
		{
			name: "no commands",
			want: "#!/bin/bash\ncfn-init -s ${AWS::StackName} -r WebLaunchConfiguration --region ${AWS::Region}\n",
		},
		{
			name:     "commands",
			commands: []string{"docker pull ${Image}", "echo done"},
			want: "#!/bin/bash\ncfn-init -s ${AWS::StackName} -r WebLaunchConfiguration --region ${AWS::Region}\n" +
				"docker pull ${Image}\necho done\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UserData("WebLaunchConfiguration", tt.commands...)
			require.NoError(t, err)
			assert.Equal(t, cfn.Base64(cfn.Sub(tt.want)), got)
		})
	}
}

func TestDatadogConf(t *testing.T) {
	got, err := DatadogConf("${DataDogApiKey}", "web")
	require.NoError(t, err)
	assert.Equal(t, cfn.Sub("[Main]\n\n"+
		"dd_url: https://app.datadoghq.com\n"+
		"api_key: ${DataDogApiKey}\n"+
		"tags: \"role:web\"\n"+
		"non_local_traffic: yes\n"), got)
}

func TestELBCluster(t *testing.T) {
	c := ELBCluster{Name: "Web", Tag: "web", InstancePort: 8080}
	tmpl := cfn.NewTemplate("web")
	require.NoError(t, AddConditions(tmpl))
	require.NoError(t, c.AddSecurityGroups(tmpl))
	require.NoError(t, c.AddLoadBalancer(tmpl))

	for _, id := range []string{"WebSecurityGroup", "WebELBSecurityGroup", "WebELBFromTrusted", "WebELBToWebCluster", LoadBalancer, "WebElbDnsRecord"} {
		assert.Contains(t, tmpl.Resources, id)
	}
	assert.Equal(t, UseDNS, tmpl.Resources["WebElbDnsRecord"].Condition)
	assert.Equal(t, cfn.If(NoSSL, "http", "https"), BaseURL()["Fn::Join"].([]any)[1].([]any)[0])
}
