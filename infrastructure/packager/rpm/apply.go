package rpm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	logger "github.com/sirupsen/logrus"

	"github.com/pkgpatch/pkgpatch/domain"
	"github.com/pkgpatch/pkgpatch/infrastructure/tools"
)

// RegisterPatch wires a patch into the rpm build description: the patch file
// is copied byte-for-byte into SOURCES/<originalName>.patch, a new PatchN
// directive and apply invocation are injected into the spec file, and the
// patch is pre-applied to a side copy of the source tree (<SourceFolder>-new)
// so the original stays inspectable. The side copy survives a patch failure
// on purpose, for post-mortem inspection.
func (p *Packager) RegisterPatch(ctx context.Context, workingDir string, desc *domain.PackageDescriptor, patchFile string) error {
	data, err := os.ReadFile(patchFile)
	if err != nil {
		return fmt.Errorf("%w: reading patch file %s: %v", domain.ErrMissingInput, patchFile, err)
	}

	sourcesDir := filepath.Join(workingDir, "SOURCES")
	if err = os.MkdirAll(sourcesDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", sourcesDir, err)
	}

	archivedPatch := filepath.Join(sourcesDir, desc.OriginalName+".patch")
	if err = os.WriteFile(archivedPatch, data, 0o644); err != nil {
		return fmt.Errorf("archiving patch to %s: %w", archivedPatch, err)
	}

	specPath, err := p.locateSpec(workingDir, desc.Name)
	if err != nil {
		return err
	}

	editor, err := OpenSpec(specPath)
	if err != nil {
		return err
	}
	if err = InjectPatch(editor, desc.OriginalName); err != nil {
		return fmt.Errorf("injecting %s.patch into %s: %w", desc.OriginalName, specPath, err)
	}
	if err = editor.Commit(); err != nil {
		return err
	}
	logger.Infof("[rpm] Registered %s.patch in %s", desc.OriginalName, specPath)

	return p.applyToSideCopy(ctx, workingDir, desc, archivedPatch)
}

// applyToSideCopy copies the source tree to <SourceFolder>-new and applies
// the patch there with fuzzy, forced options so push-order drift in
// long-lived source trees does not abort the operation.
func (p *Packager) applyToSideCopy(ctx context.Context, workingDir string, desc *domain.PackageDescriptor, patchPath string) error {
	sourceDir := filepath.Join(workingDir, desc.SourceFolder)
	copyDir := sourceDir + "-new"

	if _, err := p.runner.Run(ctx, tools.Command{
		Step: "copy source tree",
		Name: "cp",
		Args: []string{"-a", sourceDir, copyDir},
	}); err != nil {
		return fmt.Errorf("copying source tree: %w", err)
	}

	absPatch, err := filepath.Abs(patchPath)
	if err != nil {
		return fmt.Errorf("resolving patch path: %w", err)
	}

	if _, err := p.runner.Run(ctx, tools.Command{
		Step: "patch",
		Name: "patch",
		Args: []string{"-p1", "-f", "--fuzz=3", "-i", absPatch},
		Dir:  copyDir,
	}); err != nil {
		return fmt.Errorf("applying patch to %s: %w", copyDir, err)
	}

	logger.Infof("[rpm] Applied %s to side copy %s", filepath.Base(absPatch), copyDir)
	return nil
}
