package main

import (
	"os"

	"github.com/apex/log"
	"github.com/spf13/afero"

	"github.com/aligator/gojfs/internal/cmd"
)

func main() {
	if err := cmd.NewRootCmd(afero.NewOsFs()).Execute(); err != nil {
		log.WithField("error", err).Error("jfs failed")
		os.Exit(1)
	}
}
