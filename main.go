// Package main is the entry point for the tidewave application.
package main

import (
	"github.com/samber/lo"

	"github.com/tidewave-cli/tidewave/cmd"
	"github.com/tidewave-cli/tidewave/config"
	"github.com/tidewave-cli/tidewave/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
