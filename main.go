package main

import (
	"os"

	"github.com/skinmuseum/skinpost/cmd"
	"github.com/skinmuseum/skinpost/internal/logutil"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logutil.Errorf("%v", err)
		os.Exit(1)
	}
}
