package cluster

import (
	"embed"

	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/mhahn/stacker-blueprints/pkg/templateutils"
)

//go:embed templates/*.tmpl
var files embed.FS

var (
	userDataTmpl = templateutils.MustTemplate(files, "templates/user_data.sh.tmpl")
	datadogTmpl  = templateutils.MustTemplate(files, "templates/datadog.conf.tmpl")
)

// UserData is the boot script of an instance: cfn-init of the launch configuration's metadata
// followed by commands. Commands are Fn::Sub text, so ${Name} references a parameter or
// resource and literal shell variables must be escaped.
func UserData(launchConfiguration string, commands ...string) (cfn.Fn, error) {
	body, err := templateutils.Execute(userDataTmpl, struct {
		LaunchConfiguration string
		Commands            []string
	}{launchConfiguration, commands})
	if err != nil {
		return nil, err
	}
	return cfn.Base64(cfn.Sub(body)), nil
}

// DatadogConf renders the datadog agent configuration. apiKey is Fn::Sub text.
func DatadogConf(apiKey, role string) (cfn.Fn, error) {
	body, err := templateutils.Execute(datadogTmpl, struct {
		APIKey string
		Role   string
	}{apiKey, role})
	if err != nil {
		return nil, err
	}
	return cfn.Sub(body), nil
}
