package main

import (
	"os"

	"github.com/beanflow-dev/beanflow/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
