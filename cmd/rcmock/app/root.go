package app

import (
	"context"

	"github.com/Blackdeer1524/rcmock/src/cli"
)

var rootCmd = cli.Init("rcmock")

func MustExecute(ctx context.Context) {
	initSimulate()
	rootCmd.MustExecute(ctx)
}
