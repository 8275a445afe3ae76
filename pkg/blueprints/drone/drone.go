package drone

import (
	"embed"
	"fmt"
	"strings"

	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/mhahn/stacker-blueprints/pkg/blueprints/internal/cluster"
	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/mhahn/stacker-blueprints/pkg/provider/aws/resources"
	"github.com/mhahn/stacker-blueprints/pkg/templateutils"
	"go.uber.org/multierr"
)

// Variant selects the database a drone cluster is configured for.
type Variant string

const (
	// Base leaves the database to the DatabaseDriver and DatabaseConfig parameters.
	Base Variant = ""
	// Postgres connects to an existing postgres server and can create the database on boot.
	Postgres Variant = "postgres"
	// RDS connects to a table of an RDS instance.
	RDS Variant = "rds"
)

const (
	NoDatabaseConfig = "NoDatabaseConfig"

	instancePort = 8000
	postgresPort = 5432
)

//go:embed templates/*.tmpl
var files embed.FS

var (
	dronercTmpl         = templateutils.MustTemplate(files, "templates/dronerc.tmpl")
	createDatabaseTmpl  = templateutils.MustTemplate(files, "templates/create_database.sh.tmpl")
	droneCluster        = cluster.ELBCluster{Name: "Drone", Tag: "drone", InstancePort: instancePort}
	databaseURLTemplate = "${DatabaseConfigPrefix}${DatabaseUser}:${DatabasePassword}@${DatabaseHost}:${DatabasePort}/${%s}"
)

var (
	Drone         = New(Base)
	PostgresDrone = New(Postgres)
	RDSDrone      = New(RDS)
)

var baseParameters = cluster.Parameters("Drone").
	With(cluster.Capacity("2", "1")).
	With(blueprint.Parameters{
		"Subdomain": {
			Type: "String",
			Description: "The subdomain you want to make drone available on. " +
				`NOTE: This only has an effect if "ExternalDomain" is set.`,
			Default: "drone",
		},
		"Version": {
			Type:        "String",
			Description: "Version of Drone to run.",
			Default:     "0.4",
		},
		"ImageName": {
			Type:        "String",
			Description: "The image name to use from the AMIMap (usually found in the config file).",
			Default:     "drone",
		},
		"DataDogApiKey": {
			Type:        "String",
			Description: "If provided, metrics will be collected and sent to datadog.",
			Default:     "",
		},
		"RemoteDriver": {
			Type: "String",
			Description: "Drone will use your remote for authentication, and will add webhooks to your " +
				"projects to facilitate the build process. See http://readme.drone.io/setup/remotes/ " +
				"for possible values.",
		},
		"RemoteConfig": {
			Type:        "String",
			Description: "Settings for the specified RemoteDriver",
		},
		"DatabaseDriver": {
			Type:          "String",
			Description:   "Database driver to use, see http://readme.drone.io/setup/database/ for reference.",
			Default:       "",
			AllowedValues: []string{"", "sqlite3", "postgres", "mysql"},
		},
		"DatabaseConfig": {
			Type:        "String",
			Description: "Settings for the specified DatabaseDriver",
			Default:     "",
		},
		"PluginFilter": {
			Type: "String",
			Description: "This setting contains a space-separated list of patterns for determining " +
				"which plugins can be pulled and ran.",
			Default: "plugins/*",
		},
		"PluginParams": {
			Type: "String",
			Description: "Global parameters to pass into all plugins on all repositories. Values are " +
				"visible to every build.",
			Default: "",
		},
		"Debug": {
			Type:          "String",
			Description:   "Whether or not the drone server should be run in debug mode",
			Default:       "false",
			AllowedValues: []string{"true", "false"},
		},
	})

func databaseParameters(port string) blueprint.Parameters {
	return blueprint.Parameters{
		"DatabaseConfigPrefix": {
			Type:        "String",
			Description: "Prefix for the database config",
			Default:     "postgres://",
		},
		"DatabaseSecurityGroup": {
			Type:        "AWS::EC2::SecurityGroup::Id",
			Description: "Security group for the Drone database",
		},
		"DatabaseHost": {
			Type:        "String",
			Description: "Hostname for the Drone database",
		},
		"DatabaseUser": {
			Type:        "String",
			Description: "User for the Drone database",
		},
		"DatabasePassword": {
			Type:        "String",
			Description: "Password for the Drone database",
			NoEcho:      true,
		},
		"DatabasePort": {
			Type:        "String",
			Description: "Port for the database",
			Default:     port,
		},
	}
}

// New returns the drone blueprint for a variant. The variants share every resource of the base
// cluster; database variants add connection parameters, a DATABASE_CONFIG line built from them
// and access from the cluster to the database security group.
func New(v Variant) *blueprint.Blueprint {
	bp := &blueprint.Blueprint{
		Name:        "drone.Drone",
		Description: "Drone CI server cluster",
		Parameters:  baseParameters,
		Variables:   blueprint.Variables{},
	}
	switch v {
	case Postgres:
		bp.Name = "drone.postgres.Drone"
		bp.Parameters = bp.Parameters.With(databaseParameters("5432")).With(blueprint.Parameters{
			"DatabaseName": {
				Type:        "String",
				Description: "The name of the database to connect to",
			},
		})
		bp.Variables = blueprint.Variables{
			"CreateDatabase": {
				Type: blueprint.Bool,
				Description: "Whether the instances should create the database if it does not exist. " +
					"Useful when reusing another database server.",
				Default: false,
			},
		}
	case RDS:
		bp.Name = "drone.rds.Drone"
		bp.Parameters = bp.Parameters.With(databaseParameters("5342")).With(blueprint.Parameters{
			"DatabaseTable": {
				Type:        "String",
				Description: "Database table",
			},
		})
	}
	bp.Build = func(ctx *blueprint.Context, t *cfn.Template) error {
		return build(v, ctx, t)
	}
	return bp
}

func build(v Variant, ctx *blueprint.Context, t *cfn.Template) error {
	initFiles, err := instanceFiles(v)
	if err != nil {
		return err
	}
	boot, err := userData(v == Postgres && ctx.Bool("CreateDatabase"))
	if err != nil {
		return err
	}
	err = multierr.Combine(
		addConditions(t),
		droneCluster.AddSecurityGroups(t),
		droneCluster.AddLoadBalancer(t),
		droneCluster.AddInstanceProfile(t),
		t.AddOutput("IAMRole", cfn.Output{Value: cfn.Ref(droneCluster.Role())}),
		droneCluster.AddAutoScalingGroup(t, boot, initFiles),
	)
	if v != Base {
		err = multierr.Append(err, t.Add("DroneDBAccess",
			resources.TCPIngress(cfn.Ref("DatabaseSecurityGroup"), cfn.Ref(droneCluster.SecurityGroup()), postgresPort)))
	}
	return err
}

func addConditions(t *cfn.Template) error {
	return multierr.Combine(
		cluster.AddConditions(t),
		t.AddCondition("NoDatabaseDriver", cfn.Equals(cfn.Ref("DatabaseDriver"), "")),
		t.AddCondition(NoDatabaseConfig, cfn.Equals(cfn.Ref("DatabaseConfig"), "")),
		t.AddCondition("NoPluginFilter", cfn.Equals(cfn.Ref("PluginFilter"), "")),
		t.AddCondition("NoPluginParams", cfn.Equals(cfn.Ref("PluginParams"), "")),
		t.AddCondition("NoDebug", cfn.Or(
			cfn.Equals(cfn.Ref("Debug"), ""),
			cfn.Equals(cfn.Ref("Debug"), "false"),
		)),
	)
}

// optionalLine is a dronerc line written only when condition is false, or only when it is true
// for lines that replace another.
type optionalLine struct {
	name      string
	condition string
	line      string
	whenTrue  bool
}

func (l optionalLine) value() cfn.Fn {
	line := cfn.Sub(l.line + "\n")
	if l.whenTrue {
		return cfn.If(l.condition, line, "")
	}
	return cfn.If(l.condition, "", line)
}

func dronercLines(v Variant) []optionalLine {
	lines := []optionalLine{
		{name: "DatabaseDriverLine", condition: "NoDatabaseDriver", line: "DATABASE_DRIVER=${DatabaseDriver}"},
		{name: "DatabaseConfigLine", condition: NoDatabaseConfig, line: "DATABASE_CONFIG=${DatabaseConfig}"},
		{name: "PluginFilterLine", condition: "NoPluginFilter", line: "PLUGIN_FILTER=${PluginFilter}"},
		{name: "PluginParamsLine", condition: "NoPluginParams", line: "PLUGIN_PARAMS=${PluginParams}"},
		{name: "DebugLine", condition: "NoDebug", line: "DEBUG=${Debug}"},
	}
	if url := databaseURL(v); url != "" {
		lines = append(lines, optionalLine{
			name:      "DatabaseURLLine",
			condition: NoDatabaseConfig,
			line:      "DATABASE_CONFIG=" + url,
			whenTrue:  true,
		})
	}
	return lines
}

func databaseURL(v Variant) string {
	switch v {
	case Postgres:
		return fmt.Sprintf(databaseURLTemplate, "DatabaseName")
	case RDS:
		return fmt.Sprintf(databaseURLTemplate, "DatabaseTable")
	}
	return ""
}

func dronerc(v Variant) (cfn.Fn, error) {
	lines := dronercLines(v)
	names := make([]string, len(lines))
	vars := make(map[string]any, len(lines))
	for i, l := range lines {
		names[i] = l.name
		vars[l.name] = l.value()
	}
	body, err := templateutils.Execute(dronercTmpl, struct{ Optional []string }{names})
	if err != nil {
		return nil, err
	}
	return cfn.SubWith(body, vars), nil
}

func userData(createDatabase bool) (cfn.Fn, error) {
	commands := []string{
		"docker create --name data -v /var/lib/drone:/var/lib/drone:ro ubuntu:14.04",
		"/etc/init.d/datadog-agent start",
	}
	if createDatabase {
		create, err := templateutils.Execute(createDatabaseTmpl, nil)
		if err != nil {
			return nil, err
		}
		commands = append(commands, strings.TrimSpace(create))
	}
	commands = append(commands, "echo version: ${Version}")
	return cluster.UserData(droneCluster.LaunchConfiguration(), commands...)
}

func instanceFiles(v Variant) (resources.InitFiles, error) {
	rc, err := dronerc(v)
	if err != nil {
		return nil, err
	}
	datadog, err := cluster.DatadogConf("${DataDogApiKey}", "drone")
	if err != nil {
		return nil, err
	}
	return resources.InitFiles{
		"/etc/drone/dronerc":         resources.RootFile(rc, "000644"),
		"/etc/drone/version":         resources.RootFile(cfn.Ref("Version"), "000644"),
		"/etc/dd-agent/datadog.conf": resources.RootFile(datadog, "000644"),
	}, nil
}
