package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var generateCmd = &cobra.Command{
	Use:   "generate <ship-context> <patch-file> [package]",
	Short: "Export the combined patch for the package's resolved version",
	Long: `Resolve the package identity from the build artifact in the working
directory, pick the closest-matching patch set from the ship-context
directory, and write the combined diff to <patch-file>.

The ship context is a directory holding a pkgpatch.yaml descriptor with
patches under patches/<version>/ and codepatches/. A plain directory of
.patch/.diff files, or a single patch file, is concatenated as-is with no
version negotiation.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runGenerate,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(_ *cobra.Command, args []string) error {
	svc, err := injectService()
	if err != nil {
		return err
	}

	pkg := ""
	if len(args) > 2 {
		pkg = args[2]
	}

	return svc.Generate(context.Background(), args[0], args[1], pkg)
}
