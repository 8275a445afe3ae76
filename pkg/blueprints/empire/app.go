package empire

import (
	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/mhahn/stacker-blueprints/pkg/provider/aws/resources"
	"go.uber.org/multierr"
)

// App declares an Empire app through the daemon's custom resource topic.
var App = &blueprint.Blueprint{
	Name:        "empire.App",
	Description: "Empire app custom resource",
	Parameters: blueprint.Parameters{
		"ServiceToken": {
			Type:        "String",
			Description: "An SNS Topic to fulfill the custom resource request.",
		},
		"Name": {
			Type:        "String",
			Description: "The name of the app.",
		},
	},
	Build: func(ctx *blueprint.Context, t *cfn.Template) error {
		return multierr.Combine(
			t.Add("EmpireApp", &resources.CustomResource{
				Name:         "EmpireApp",
				ServiceToken: cfn.Ref("ServiceToken"),
				Properties:   map[string]any{"Name": cfn.Ref("Name")},
			}),
			t.AddOutput("AppId", cfn.Output{Value: cfn.Ref("EmpireApp")}),
		)
	},
}
