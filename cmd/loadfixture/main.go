package main

import (
	"os"

	"github.com/G-Research/loadfixture/cmd/loadfixture/cmd"
	"github.com/G-Research/loadfixture/internal/common"
)

// Config is handled by cmd/params.go
func main() {
	common.ConfigureCommandLineLogging()
	err := cmd.RootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}
