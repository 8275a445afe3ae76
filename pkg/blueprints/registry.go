// Package blueprints registers the built-in blueprints under the names stack configs use.
package blueprints

import (
	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/mhahn/stacker-blueprints/pkg/blueprints/conveyor"
	"github.com/mhahn/stacker-blueprints/pkg/blueprints/drone"
	"github.com/mhahn/stacker-blueprints/pkg/blueprints/dynamodb"
	"github.com/mhahn/stacker-blueprints/pkg/blueprints/empire"
	"github.com/mhahn/stacker-blueprints/pkg/blueprints/firehose"
	"github.com/mhahn/stacker-blueprints/pkg/blueprints/iam"
)

func All() []*blueprint.Blueprint {
	return []*blueprint.Blueprint{
		conveyor.Conveyor,
		drone.Drone,
		drone.PostgresDrone,
		drone.RDSDrone,
		dynamodb.Snapshot,
		dynamodb.LegacySnapshot,
		empire.App,
		empire.Controller,
		empire.Daemon,
		firehose.Firehose,
		iam.Users,
	}
}

// NewRegistry returns a registry holding every built-in blueprint.
func NewRegistry() *blueprint.Registry {
	r := blueprint.NewRegistry()
	r.MustRegister(All()...)
	return r
}
