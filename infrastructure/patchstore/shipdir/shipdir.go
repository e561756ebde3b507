// Package shipdir is the directory-backed patch store: a "ship context"
// directory holding version-pinned patches under patches/<version>/,
// uniform source-level codepatches under codepatches/, and an optional
// pkgpatch.yaml project descriptor. When the context directory is itself a
// git repository, version history is materialized by checking out the
// branch or tag named after the requested version.
package shipdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// ProjectFileName marks a directory as a patch-store context.
	ProjectFileName = "pkgpatch.yaml"

	patchesDirName     = "patches"
	codepatchesDirName = "codepatches"
	metadataDirName    = ".pkgpatch"
)

// Project is the parsed pkgpatch.yaml project descriptor.
type Project struct {
	// Name overrides the package name discovered from build artifacts.
	Name string `yaml:"name"`
}

// Store implements domain.PatchStore over a ship-context directory.
type Store struct {
	dir     string
	project Project
	repo    *git.Repository // nil when the context is not git-backed

	versions    []string
	codepatches []string
}

// IsContext reports whether dir contains a project descriptor file.
func IsContext(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ProjectFileName))
	return err == nil
}

// New opens the store rooted at dir and scans its patch index.
func New(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("patch store context %s is not a directory", dir)
	}

	s := &Store{dir: dir}

	if data, readErr := os.ReadFile(filepath.Join(dir, ProjectFileName)); readErr == nil {
		if err = yaml.Unmarshal(data, &s.project); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", ProjectFileName, err)
		}
	}

	if err = s.ReloadIndex(); err != nil {
		return nil, err
	}

	return s, nil
}

// ProjectName returns the name from pkgpatch.yaml, or "" when absent.
func (s *Store) ProjectName() string {
	return s.project.Name
}

// Prepare materializes the store's version history. A plain directory needs
// nothing; a git-backed context is opened so versions can be checked out.
func (s *Store) Prepare() error {
	repo, err := git.PlainOpen(s.dir)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			logger.Debugf("Patch store %s is not git-backed", s.dir)
			return nil
		}
		return fmt.Errorf("opening patch store repository: %w", err)
	}

	s.repo = repo
	if head, headErr := repo.Head(); headErr == nil {
		logger.Debugf("Patch store %s at %s", s.dir, head.Hash())
	}
	return nil
}

// Versions returns the known upstream versions in the store's enumeration
// order: the lexically sorted subdirectories of patches/. Negotiation
// depends on this order being stable.
func (s *Store) Versions() ([]string, error) {
	return s.versions, nil
}

// HasVersionedPatches reports whether any per-version patches exist.
func (s *Store) HasVersionedPatches() bool {
	return len(s.versions) > 0
}

// CheckoutVersion materializes the patch set for the given version. For a
// git-backed context this checks out the branch (or tag) named after the
// version; otherwise the version's patch directory just has to exist.
func (s *Store) CheckoutVersion(version string) error {
	if s.repo != nil {
		worktree, err := s.repo.Worktree()
		if err != nil {
			return fmt.Errorf("opening worktree: %w", err)
		}

		err = worktree.Checkout(&git.CheckoutOptions{
			Branch: plumbing.NewBranchReferenceName(version),
		})
		if err != nil {
			tagErr := worktree.Checkout(&git.CheckoutOptions{
				Branch: plumbing.NewTagReferenceName(version),
			})
			if tagErr != nil {
				return fmt.Errorf("checking out version %q: %w", version, err)
			}
		}

		logger.Debugf("Checked out patch-store version %s", version)
		return nil
	}

	if _, err := os.Stat(s.versionDir(version)); err != nil {
		return fmt.Errorf("version %q not present in patch store: %w", version, err)
	}
	return nil
}

// ReloadIndex rescans the patch index from disk.
func (s *Store) ReloadIndex() error {
	s.versions = nil
	s.codepatches = nil

	entries, err := os.ReadDir(filepath.Join(s.dir, patchesDirName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("scanning %s: %w", patchesDirName, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			s.versions = append(s.versions, entry.Name())
		}
	}

	s.codepatches, err = listPatches(filepath.Join(s.dir, codepatchesDirName))
	if err != nil {
		return err
	}

	logger.Debugf("Patch store %s: %d versions, %d codepatches",
		s.dir, len(s.versions), len(s.codepatches))
	return nil
}

// ExportCombined returns the combined diff for a version: codepatches first,
// then the version-pinned series, each in sorted filename order.
func (s *Store) ExportCombined(version string) (string, error) {
	versioned, err := listPatches(s.versionDir(version))
	if err != nil {
		return "", err
	}
	if len(versioned) == 0 && len(s.codepatches) == 0 {
		return "", fmt.Errorf("patch store has no data for version %q", version)
	}

	return concatPatches(append(append([]string{}, s.codepatches...), versioned...))
}

// ExportFromDirectory returns the combined codepatch text for a source tree,
// with no version bookkeeping.
func (s *Store) ExportFromDirectory(sourceDir string) (string, error) {
	if _, err := os.Stat(sourceDir); err != nil {
		return "", fmt.Errorf("source directory %s: %w", sourceDir, err)
	}
	if len(s.codepatches) == 0 {
		return "", fmt.Errorf("patch store %s has no codepatches", s.dir)
	}

	return concatPatches(s.codepatches)
}

// MetadataDir returns the store's internal bookkeeping directory name.
func (s *Store) MetadataDir() string {
	return metadataDirName
}

func (s *Store) versionDir(version string) string {
	return filepath.Join(s.dir, patchesDirName, version)
}

// listPatches returns the .patch/.diff files of dir in sorted order. A
// missing directory is an empty list, not an error.
func listPatches(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	var patches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".patch" || ext == ".diff" {
			patches = append(patches, filepath.Join(dir, entry.Name()))
		}
	}
	return patches, nil
}

// concatPatches joins patch files newline-separated, in the given order.
func concatPatches(paths []string) (string, error) {
	parts := make([]string, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		parts = append(parts, strings.TrimRight(string(data), "\n"))
	}
	return strings.Join(parts, "\n") + "\n", nil
}
