package main

import (
	"os"

	ambientcmder "github.com/emilwagman/Ambient-AI/cmd/ambient"
)

func main() {
	cmd := ambientcmder.NewAmbientCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
