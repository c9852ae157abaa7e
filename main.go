package main

import (
	"github.com/sidkik/gpxsync/cmd"
	"github.com/sidkik/gpxsync/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
