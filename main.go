//	@title			Message Board API
//	@version		1.0
//	@description	A public message board backed by a primary and a standby database

//	@BasePath	/api/v0

//	@tag.name			messages
//	@tag.description	Board message operations

//	@tag.name			Operations
//	@tag.description	Operational endpoints for routing, monitoring and health

package main

import (
	"os"

	"github.com/msgboard/msgboard/cli"
)

func main() {
	cmd := cli.RootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
