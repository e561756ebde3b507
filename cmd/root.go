package cmd

import (
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	// Global flags
	modeFlag   string
	configPath string
	workDir    string
	verbose    bool
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var rootCmd = &cobra.Command{
	Use:   "pkgpatch",
	Short: "Version-aware patch injection and build dispatch for deb and rpm packages",
	Long: `A CLI tool that injects source patches into Debian and RPM package
builds and dispatches the native build tooling.

It resolves the package identity from the build artifact in the working
directory (.dsc or .src.rpm), exports the closest-matching patch set from a
ship-context directory, registers patches with the packaging system (quilt
for deb, spec-file Patch directives for rpm), and runs debuild or rpmbuild
with the package's own test suite disabled.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetLevel(logger.DebugLevel)
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.PersistentFlags().StringVarP(&modeFlag, "mode", "m", "",
		"Build mode: deb or rpm (overrides the config file and BUILD_MODE)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to config file (default: auto-detect)")
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "d", ".",
		"Working directory holding the build artifact and source folder")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")
}
