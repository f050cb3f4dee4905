package main

import (
	// the availability gate needs the America/New_York zone even on
	// hosts without a system tz database
	_ "time/tzdata"

	"github.com/example/earworm-scheduler/cmd"
)

func main() {
	cmd.Execute()
}
