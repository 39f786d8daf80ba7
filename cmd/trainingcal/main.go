package main

import (
	"os"

	"trainingcal/internal/commands"
	appLog "trainingcal/internal/log"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		appLog.Error("trainingcal failed", err)
		os.Exit(1)
	}
}
