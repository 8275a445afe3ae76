package conveyor

import (
	"embed"

	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/mhahn/stacker-blueprints/pkg/blueprints/internal/cluster"
	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/mhahn/stacker-blueprints/pkg/provider/aws/resources"
	"github.com/mhahn/stacker-blueprints/pkg/templateutils"
	"go.uber.org/multierr"
)

const (
	LogGroup = "LogGroup"
	Queue    = "Queue"

	instancePort = 8080
)

//go:embed templates/*.tmpl
var files embed.FS

var envTmpl = templateutils.MustTemplate(files, "templates/conveyor.env.tmpl")

var conveyorCluster = cluster.ELBCluster{Name: "Conveyor", Tag: "conveyor", InstancePort: instancePort}

// Secrets are the local variables written to the instances by cfn-init. They are embedded in the
// template as literals and never passed as parameters.
type Secrets struct {
	GitHubToken   string `mapstructure:"GitHubToken"`
	GitHubSecret  string `mapstructure:"GitHubSecret"`
	SlackToken    string `mapstructure:"SlackToken"`
	DataDogApiKey string `mapstructure:"DataDogApiKey"`
	DockerConfig  string `mapstructure:"DockerConfig"`
	SshIdRsa      string `mapstructure:"SshIdRsa"`
	SshIdRsaPub   string `mapstructure:"SshIdRsaPub"`
}

var Conveyor = &blueprint.Blueprint{
	Name:        "conveyor.Conveyor",
	Description: "Conveyor docker image builder cluster",
	Variables: blueprint.Variables{
		"GitHubToken": {
			Type:        blueprint.String,
			Description: "GitHub API token to use when creating commit statuses.",
		},
		"SshIdRsa": {
			Type:        blueprint.String,
			Description: "SSH id_rsa for the bot github user.",
		},
		"SshIdRsaPub": {
			Type:        blueprint.String,
			Description: "SSH id_rsa.pub for the bot github user.",
		},
		"GitHubSecret": {
			Type:        blueprint.String,
			Description: "The shared secret that GitHub uses to sign webhook payloads.",
			Default:     "",
		},
		"SlackToken": {
			Type:        blueprint.String,
			Description: "Secret shared with Slack to verify slash command webhooks.",
			Default:     "",
		},
		"DataDogApiKey": {
			Type:        blueprint.String,
			Description: "If provided, metrics will be collected and sent to datadog.",
			Default:     "",
		},
		"DockerConfig": {
			Type:        blueprint.String,
			Description: "Contents of a .docker/config.json file",
			Default:     "",
		},
	},
	Parameters: cluster.Parameters("Conveyor").
		With(cluster.Capacity("5", "3")).
		With(blueprint.Parameters{
			"Subdomain": {
				Type: "String",
				Description: "The subdomain you want to make conveyor available on. " +
					`NOTE: This only has an effect if "ExternalDomain" is set.`,
				Default: "conveyor",
			},
			"Version": {
				Type:        "String",
				Description: "Version of Conveyor to run.",
				Default:     "master",
			},
			"BuilderImage": {
				Type:        "String",
				Description: "Docker image to use to perform the build.",
				Default:     "remind101/conveyor-builder",
			},
			"DryRun": {
				Type:          "Number",
				Description:   "Set to 1 to enable dry run mode.",
				Default:       "0",
				AllowedValues: []string{"0", "1"},
			},
			"Reporter": {
				Type:        "String",
				Description: "A Reporter to use to report errors. Default is to write errors to stderr.",
				Default:     "",
			},
			"ImageName": {
				Type:        "String",
				Description: "The image name to use from the AMIMap (usually found in the config file).",
				Default:     "conveyor",
			},
			"LogGroupRetention": {
				Type:        "Number",
				Description: "Number of days to retain the logs",
				Default:     "7",
			},
		}),
	Build: build,
}

func build(ctx *blueprint.Context, t *cfn.Template) error {
	var secrets Secrets
	if err := ctx.Decode(&secrets); err != nil {
		return err
	}
	initFiles, err := instanceFiles(secrets)
	if err != nil {
		return err
	}
	userData, err := cluster.UserData(conveyorCluster.LaunchConfiguration(),
		`docker pull ${BuilderImage}`,
		`docker create --name data -v /var/run/conveyor:/var/run/conveyor:ro ubuntu:14.04`,
		`/etc/init.d/datadog-agent start`,
		`echo ${Version}`,
	)
	if err != nil {
		return err
	}
	return multierr.Combine(
		cluster.AddConditions(t),
		conveyorCluster.AddSecurityGroups(t),
		conveyorCluster.AddLoadBalancer(t),
		t.Add(LogGroup, &resources.LogGroup{RetentionInDays: cfn.Ref("LogGroupRetention")}),
		conveyorCluster.AddInstanceProfile(t, resources.Policy{
			PolicyName:     "ConveyorPolicy",
			PolicyDocument: policy(),
		}),
		t.Add(Queue, &resources.Queue{}),
		conveyorCluster.AddAutoScalingGroup(t, userData, initFiles),
	)
}

// policy lets instances consume the build queue and write build logs.
func policy() *resources.PolicyDocument {
	return resources.NewPolicyDocument(
		resources.Allow([]any{"*"}, "sqs:SendMessage", "sqs:ReceiveMessage", "sqs:DeleteMessage"),
		resources.Allow(
			[]any{cfn.Join("", "arn:aws:logs:*:*:log-group:", cfn.Ref(LogGroup), ":log-stream:*")},
			"logs:CreateLogStream", "logs:PutLogEvents", "logs:GetLogEvents",
		),
	)
}

func envFile(secrets Secrets) (cfn.Fn, error) {
	body, err := templateutils.Execute(envTmpl, struct {
		Secrets
		Queue    string
		LogGroup string
	}{secrets, Queue, LogGroup})
	if err != nil {
		return nil, err
	}
	return cfn.SubWith(body, map[string]any{"BaseURL": cluster.BaseURL()}), nil
}

func instanceFiles(secrets Secrets) (resources.InitFiles, error) {
	env, err := envFile(secrets)
	if err != nil {
		return nil, err
	}
	datadog, err := cluster.DatadogConf(templateutils.SubEscape(secrets.DataDogApiKey), "conveyor")
	if err != nil {
		return nil, err
	}
	private := func(content string) resources.InitFile {
		return resources.RootFile(content, "000600")
	}
	return resources.InitFiles{
		"/etc/env/conveyor.env":      resources.RootFile(env, "000644"),
		"/etc/conveyor/version":      resources.RootFile(cfn.Ref("Version"), "000644"),
		"/etc/dd-agent/datadog.conf": resources.RootFile(datadog, "000644"),
		"/home/ubuntu/.docker/config.json": {
			Content: secrets.DockerConfig,
			Mode:    "000600",
			Owner:   "ubuntu",
			Group:   "ubuntu",
		},
		"/root/.docker/config.json":             private(secrets.DockerConfig),
		"/var/run/conveyor/.docker/config.json": private(secrets.DockerConfig),
		"/var/run/conveyor/.ssh/id_rsa":         private(secrets.SshIdRsa),
		"/var/run/conveyor/.ssh/id_rsa.pub":     private(secrets.SshIdRsaPub),
	}, nil
}
