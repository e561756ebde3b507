package deb

import (
	"context"
	"fmt"
	"path/filepath"

	logger "github.com/sirupsen/logrus"

	"github.com/pkgpatch/pkgpatch/domain"
	"github.com/pkgpatch/pkgpatch/infrastructure/tools"
)

// RegisterPatch imports the patch into the quilt stack of the source tree,
// pushes it, and refreshes it. The three steps are strictly sequential and
// non-retryable: the first failure aborts the rest, naming the failing step
// and carrying the captured tool output.
func (p *Packager) RegisterPatch(ctx context.Context, workingDir string, desc *domain.PackageDescriptor, patchFile string) error {
	absPatch, err := filepath.Abs(patchFile)
	if err != nil {
		return fmt.Errorf("resolving patch file path: %w", err)
	}

	sourceDir := filepath.Join(workingDir, desc.SourceFolder)

	steps := []tools.Command{
		{Step: "quilt import", Name: "quilt", Args: []string{"import", absPatch}, Dir: sourceDir},
		{Step: "quilt push", Name: "quilt", Args: []string{"push"}, Dir: sourceDir},
		{Step: "quilt refresh", Name: "quilt", Args: []string{"refresh"}, Dir: sourceDir},
	}

	for _, step := range steps {
		result, runErr := p.runner.Run(ctx, step)
		if runErr != nil {
			return fmt.Errorf("%s: %w", step.Step, runErr)
		}
		if result.Stdout != "" {
			logger.Debugf("[deb] %s: %s", step.Step, result.Stdout)
		}
	}

	logger.Infof("[deb] Imported %s into the quilt stack of %s", filepath.Base(absPatch), desc.SourceFolder)
	return nil
}
