package app

import (
	"github.com/Blackdeer1524/rcmock/src/cli"
)

func initSimulate() {
	rootCmd.AddCommand(cli.NewSimulate(rootCmd).Command)
}
