package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var applyCmd = &cobra.Command{
	Use:   "apply <patch-file> [package]",
	Short: "Register a patch with the packaging system",
	Long: `Register the given patch with the native packaging machinery of the
active mode: quilt import/push/refresh inside the source folder for deb, or
a new Patch directive in the spec file plus a patched side copy of the
source tree for rpm.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runApply,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.AddCommand(applyCmd)
}

func runApply(_ *cobra.Command, args []string) error {
	svc, err := injectService()
	if err != nil {
		return err
	}

	pkg := ""
	if len(args) > 1 {
		pkg = args[1]
	}

	return svc.Apply(context.Background(), args[0], pkg)
}
