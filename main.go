package main

import (
	"os"

	"github.com/karimzakaria/guideflow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
