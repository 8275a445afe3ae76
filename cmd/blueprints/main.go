package main

import (
	"github.com/mhahn/stacker-blueprints/pkg/blueprints"
	"github.com/mhahn/stacker-blueprints/pkg/cli"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "0.0.0-dev"

func main() {
	bm := cli.BlueprintsMain{
		Version:  Version,
		Registry: blueprints.NewRegistry(),
	}
	bm.Main()
}
