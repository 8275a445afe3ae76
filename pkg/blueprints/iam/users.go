package iam

import (
	"github.com/iancoleman/strcase"
	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/mhahn/stacker-blueprints/pkg/provider/aws/resources"
)

var Users = &blueprint.Blueprint{
	Name:        "iam.Users",
	Description: "IAM users",
	Variables: blueprint.Variables{
		"Users": {
			Type:        blueprint.TypedList,
			Description: "IAM Users, keyed by title",
		},
	},
	Build: buildUsers,
}

func buildUsers(ctx *blueprint.Context, t *cfn.Template) error {
	users, err := blueprint.DecodeTypedList[resources.User](ctx.Var("Users"))
	if err != nil {
		return &blueprint.ConfigError{Kind: "variable", Key: "Users", Err: err}
	}
	for _, u := range users {
		id := LogicalID(u.Title)
		user := u.Value
		if err := t.Add(id, &user); err != nil {
			return err
		}
		if err := t.AddOutput(id+"Arn", cfn.Output{Value: cfn.GetAtt(id, "Arn")}); err != nil {
			return err
		}
	}
	return nil
}

// LogicalID turns a user title such as "deploy-bot" into an alphanumeric logical id, DeployBot.
func LogicalID(title string) string {
	return strcase.ToCamel(title)
}
