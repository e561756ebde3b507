package main

import (
	"os"

	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"

	"github.com/pkgpatch/pkgpatch/cmd"
	"github.com/pkgpatch/pkgpatch/domain"
)

func main() {
	// BUILD_MODE and DEBUG may come from a .env file in the working directory.
	_ = godotenv.Load()

	//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
	logger.SetFormatter(&logger.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	if os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logger.DebugLevel)
	}

	if err := cmd.Execute(); err != nil {
		logger.Errorf("Error executing 'pkgpatch': %s", err)
		os.Exit(domain.ExitCodeFor(err))
	}
}
