// Package application hosts the dispatch façade that turns the three
// lifecycle verbs — generate, apply, build — into packaging-system-specific
// operations.
package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/pkgpatch/pkgpatch/domain"
	"github.com/pkgpatch/pkgpatch/infrastructure/packager"
	"github.com/pkgpatch/pkgpatch/infrastructure/patchstore/shipdir"
)

// StoreFactory opens the patch store rooted at a ship-context directory.
type StoreFactory func(dir string) (domain.PatchStore, error)

// PatchService maps the lifecycle verbs onto the active packaging mode.
// Every verb re-resolves the package descriptor from the filesystem; no
// state survives between invocations.
type PatchService struct {
	registry   *packager.Registry
	stores     StoreFactory
	mode       domain.BuildMode
	workingDir string
}

// NewPatchService creates the service for one resolved build mode.
func NewPatchService(registry *packager.Registry, stores StoreFactory, mode domain.BuildMode, workingDir string) *PatchService {
	return &PatchService{
		registry:   registry,
		stores:     stores,
		mode:       mode,
		workingDir: workingDir,
	}
}

// Generate produces the combined patch for the package and writes it to
// patchFile. shipContext is either a patch-store context directory, a
// directory of raw .patch/.diff files, or a single patch file; raw inputs
// are concatenated newline-separated with no descriptor resolution.
func (s *PatchService) Generate(_ context.Context, shipContext, patchFile, pkg string) error {
	rawPatches, isContext, err := classifyShipContext(shipContext)
	if err != nil {
		return err
	}

	if !isContext {
		diff, concatErr := concatFiles(rawPatches)
		if concatErr != nil {
			return concatErr
		}
		logger.Infof("Concatenated %d raw patch file(s) into %s", len(rawPatches), patchFile)
		return writePatchFile(patchFile, diff)
	}

	store, err := s.stores(shipContext)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrExportFailed, err)
	}

	if pkg == "" {
		if named, ok := store.(interface{ ProjectName() string }); ok {
			pkg = named.ProjectName()
		}
	}

	active, err := s.registry.Get(s.mode)
	if err != nil {
		return err
	}
	desc, err := active.Resolve(s.workingDir, pkg)
	if err != nil {
		return err
	}

	artifact, err := s.exportPatch(desc, store)
	if err != nil {
		return err
	}

	logger.Infof("Exported patch %s for %s %s", artifact.Name, desc.Name, desc.Version)
	return writePatchFile(patchFile, artifact.Diff)
}

// Apply registers the patch with the packaging system of the active mode:
// quilt import/push/refresh for deb, spec directive injection for rpm.
func (s *PatchService) Apply(ctx context.Context, patchFile, pkg string) error {
	active, desc, err := s.resolve(pkg)
	if err != nil {
		return err
	}
	if err = s.ensureSourceFolder(desc); err != nil {
		return err
	}

	return active.RegisterPatch(ctx, s.workingDir, desc, patchFile)
}

// Build dispatches the mode's external build tool and propagates its exit
// code verbatim through the returned error.
func (s *PatchService) Build(ctx context.Context, pkg string) error {
	active, desc, err := s.resolve(pkg)
	if err != nil {
		return err
	}
	if err = s.ensureSourceFolder(desc); err != nil {
		return err
	}

	return active.Build(ctx, s.workingDir, desc)
}

// resolve establishes the package identity first, as every verb does.
func (s *PatchService) resolve(pkg string) (domain.Packager, *domain.PackageDescriptor, error) {
	active, err := s.registry.Get(s.mode)
	if err != nil {
		return nil, nil, err
	}

	desc, err := active.Resolve(s.workingDir, pkg)
	if err != nil {
		return nil, nil, err
	}

	return active, desc, nil
}

// ensureSourceFolder enforces the descriptor invariant: the source folder
// must exist before any apply or build operation.
func (s *PatchService) ensureSourceFolder(desc *domain.PackageDescriptor) error {
	path := filepath.Join(s.workingDir, desc.SourceFolder)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", domain.ErrSourceFolderNotFound, path)
	}
	return nil
}

// exportPatch asks the patch store for the combined patch of the resolved
// descriptor. A codepatch-only store skips version bookkeeping entirely;
// otherwise the requested version is negotiated against the store's
// enumeration before checkout and export.
func (s *PatchService) exportPatch(desc *domain.PackageDescriptor, store domain.PatchStore) (*domain.PatchArtifact, error) {
	if !store.HasVersionedPatches() {
		logger.Debugf("Patch store holds only codepatches; skipping version bookkeeping")

		diff, err := store.ExportFromDirectory(filepath.Join(s.workingDir, desc.SourceFolder))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrExportFailed, err)
		}

		if s.mode == domain.ModeRpm {
			if err = s.appendIgnoreEntry(desc, store.MetadataDir()); err != nil {
				return nil, err
			}
		}

		return &domain.PatchArtifact{Name: desc.OriginalName + ".patch", Diff: diff}, nil
	}

	if err := store.Prepare(); err != nil {
		return nil, fmt.Errorf("%w: preparing store: %v", domain.ErrExportFailed, err)
	}

	versions, err := store.Versions()
	if err != nil {
		return nil, fmt.Errorf("%w: enumerating versions: %v", domain.ErrExportFailed, err)
	}

	if !slices.Contains(versions, desc.Version) {
		negotiated := domain.Negotiate(desc.Version, versions)
		logger.Infof("Version %s not in the patch set; negotiated %s", desc.Version, negotiated)
		desc.Version = negotiated
	}

	if err = store.CheckoutVersion(desc.Version); err != nil {
		return nil, fmt.Errorf("%w: checking out %s: %v", domain.ErrExportFailed, desc.Version, err)
	}
	if err = store.ReloadIndex(); err != nil {
		return nil, fmt.Errorf("%w: reloading index: %v", domain.ErrExportFailed, err)
	}

	diff, err := store.ExportCombined(desc.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExportFailed, err)
	}

	return &domain.PatchArtifact{Name: desc.OriginalName + ".patch", Diff: diff}, nil
}

// appendIgnoreEntry keeps the store's bookkeeping directory out of later
// packaging steps by listing it in the source tree's ignore file.
func (s *PatchService) appendIgnoreEntry(desc *domain.PackageDescriptor, entry string) error {
	ignorePath := filepath.Join(s.workingDir, desc.SourceFolder, ".gitignore")

	existing, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", ignorePath, err)
	}
	if slices.Contains(strings.Split(string(existing), "\n"), entry) {
		return nil
	}

	f, err := os.OpenFile(ignorePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", ignorePath, err)
	}
	defer f.Close()

	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		entry = "\n" + entry
	}
	if _, err = fmt.Fprintln(f, entry); err != nil {
		return fmt.Errorf("appending to %s: %w", ignorePath, err)
	}

	logger.Debugf("Added %s to %s", entry, ignorePath)
	return nil
}

// classifyShipContext decides how to treat the generate input: a patch-store
// context directory, a directory of raw patches, or a single patch file.
func classifyShipContext(shipContext string) (rawPatches []string, isContext bool, err error) {
	info, err := os.Stat(shipContext)
	if err != nil {
		return nil, false, fmt.Errorf("%w: ship context %s: %v", domain.ErrMissingInput, shipContext, err)
	}

	if !info.IsDir() {
		if ext := filepath.Ext(shipContext); ext != ".patch" && ext != ".diff" {
			return nil, false, fmt.Errorf("%w: %s is neither a patch file nor a context directory",
				domain.ErrMissingInput, shipContext)
		}
		return []string{shipContext}, false, nil
	}

	if shipdir.IsContext(shipContext) {
		return nil, true, nil
	}

	for _, pattern := range []string{"*.patch", "*.diff"} {
		matches, globErr := filepath.Glob(filepath.Join(shipContext, pattern))
		if globErr != nil {
			return nil, false, fmt.Errorf("scanning %s: %w", shipContext, globErr)
		}
		rawPatches = append(rawPatches, matches...)
	}
	slices.Sort(rawPatches)

	if len(rawPatches) == 0 {
		return nil, false, fmt.Errorf("%w: %s contains neither a project descriptor nor patch files",
			domain.ErrMissingInput, shipContext)
	}
	return rawPatches, false, nil
}

// concatFiles joins the given files newline-separated, in order.
func concatFiles(paths []string) (string, error) {
	parts := make([]string, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("%w: reading %s: %v", domain.ErrMissingInput, path, err)
		}
		parts = append(parts, strings.TrimRight(string(data), "\n"))
	}
	return strings.Join(parts, "\n") + "\n", nil
}

func writePatchFile(path, diff string) error {
	if err := os.WriteFile(path, []byte(diff), 0o644); err != nil {
		return fmt.Errorf("writing patch file %s: %w", path, err)
	}
	return nil
}
