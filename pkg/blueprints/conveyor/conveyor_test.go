package conveyor

import (
	"strings"
	"testing"

	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/mhahn/stacker-blueprints/pkg/provider/aws/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, vars map[string]any) *cfn.Template {
	t.Helper()
	tmpl, err := blueprint.Render(Conveyor, blueprint.Input{
		Namespace: "test",
		StackName: "conveyor",
		Mappings: map[string]cfn.Mapping{
			"AmiMap": {"us-east-1": {"conveyor": "ami-123"}},
		},
		Variables: vars,
	})
	require.NoError(t, err)
	return tmpl
}

func requiredVars() map[string]any {
	return map[string]any{
		"GitHubToken": "token",
		"SshIdRsa":    "private-key",
		"SshIdRsaPub": "public-key",
	}
}

func TestConveyor_Resources(t *testing.T) {
	tmpl := render(t, requiredVars())

	assert.Equal(t, []string{
		"ConveyorAutoscalingGroup",
		"ConveyorELBFromTrusted",
		"ConveyorELBSecurityGroup",
		"ConveyorELBToConveyorCluster",
		"ConveyorElbDnsRecord",
		"ConveyorLaunchConfiguration",
		"ConveyorProfile",
		"ConveyorRole",
		"ConveyorSecurityGroup",
		"LoadBalancer",
		"LogGroup",
		"Queue",
	}, tmpl.ResourceIDs())
	assert.Contains(t, tmpl.Conditions, "NoSSL")
	assert.Contains(t, tmpl.Conditions, "UseDNS")

	dns, ok := tmpl.Resource("ConveyorElbDnsRecord")
	require.True(t, ok)
	assert.Equal(t, "UseDNS", dns.Condition)

	ingress, _ := tmpl.Resource("ConveyorELBToConveyorCluster")
	assert.Equal(t, 8080, ingress.Properties.(*resources.SecurityGroupIngress).FromPort)

	lb, _ := tmpl.Resource("LoadBalancer")
	assert.Equal(t, "TCP:8080", lb.Properties.(*resources.LoadBalancer).HealthCheck.Target)

	asg, _ := tmpl.Resource("ConveyorAutoscalingGroup")
	assert.NotNil(t, asg.UpdatePolicy)
}

func TestConveyor_Parameters(t *testing.T) {
	tmpl := render(t, requiredVars())
	assert.Equal(t, "5", tmpl.Parameters["MaxCapacity"].Default)
	assert.Equal(t, "3", tmpl.Parameters["DesiredCapacity"].Default)
	assert.Equal(t, "conveyor", tmpl.Parameters["Subdomain"].Default)
	assert.Equal(t, []string{"0", "1"}, tmpl.Parameters["DryRun"].AllowedValues)
	assert.NotContains(t, tmpl.Parameters, "GitHubToken", "secrets are local variables")
}

func TestConveyor_InitFiles(t *testing.T) {
	vars := requiredVars()
	vars["GitHubToken"] = "abc${def}"
	vars["DockerConfig"] = `{"auths": {}}`
	vars["DataDogApiKey"] = "dd-key"
	tmpl := render(t, vars)

	lc, ok := tmpl.Resource("ConveyorLaunchConfiguration")
	require.True(t, ok)
	files := lc.Metadata[resources.InitMetadataKey].(resources.Init)["config"].Files
	assert.Len(t, files, 9)

	env := files["/etc/env/conveyor.env"].Content.(cfn.Fn)["Fn::Sub"].([]any)
	body := env[0].(string)
	assert.Contains(t, body, "GITHUB_TOKEN=abc${!def}\n")
	assert.Contains(t, body, "SQS_QUEUE_URL=${Queue}\n")
	assert.Contains(t, body, "LOGGER=cloudwatch://${LogGroup}\n")
	assert.Contains(t, env[1], "BaseURL")

	datadog := files["/etc/dd-agent/datadog.conf"].Content.(cfn.Fn)["Fn::Sub"].(string)
	assert.Contains(t, datadog, "api_key: dd-key\n")
	assert.Contains(t, datadog, `tags: "role:conveyor"`)

	home := files["/home/ubuntu/.docker/config.json"]
	assert.Equal(t, "ubuntu", home.Owner)
	assert.Equal(t, "000600", home.Mode)
	assert.Equal(t, `{"auths": {}}`, home.Content)
	assert.Equal(t, "private-key", files["/var/run/conveyor/.ssh/id_rsa"].Content)
}

func TestConveyor_UserData(t *testing.T) {
	tmpl := render(t, requiredVars())
	lc, _ := tmpl.Resource("ConveyorLaunchConfiguration")
	userData := lc.Properties.(*resources.LaunchConfiguration).UserData.(cfn.Fn)
	body := userData["Fn::Base64"].(cfn.Fn)["Fn::Sub"].(string)

	lines := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
	assert.Equal(t, []string{
		"#!/bin/bash",
		"cfn-init -s ${AWS::StackName} -r ConveyorLaunchConfiguration --region ${AWS::Region}",
		"docker pull ${BuilderImage}",
		"docker create --name data -v /var/run/conveyor:/var/run/conveyor:ro ubuntu:14.04",
		"/etc/init.d/datadog-agent start",
		"echo ${Version}",
	}, lines)
}

func TestConveyor_MissingSecret(t *testing.T) {
	vars := requiredVars()
	delete(vars, "SshIdRsa")
	_, err := blueprint.Render(Conveyor, blueprint.Input{StackName: "conveyor", Variables: vars})
	assert.ErrorIs(t, err, blueprint.ErrMissingRequired)
}

func TestConveyor_RequiresAmiMap(t *testing.T) {
	_, err := blueprint.Render(Conveyor, blueprint.Input{StackName: "conveyor", Variables: requiredVars()})
	var refErr *cfn.ReferenceError
	assert.ErrorAs(t, err, &refErr)
}
