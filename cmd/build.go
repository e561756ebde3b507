package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var buildCmd = &cobra.Command{
	Use:   "build [package]",
	Short: "Run the native build tool for the active mode",
	Long: `Run debuild (deb) or rpmbuild (rpm) against the resolved package with
the package's own test suite disabled. The build tool's output streams
live and its exit code is forwarded verbatim.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(_ *cobra.Command, args []string) error {
	svc, err := injectService()
	if err != nil {
		return err
	}

	pkg := ""
	if len(args) > 0 {
		pkg = args[0]
	}

	return svc.Build(context.Background(), pkg)
}
