// Package deb implements the Debian packaging mode: descriptor resolution
// from .dsc source-control files, patch registration through a quilt stack,
// and builds via debuild.
package deb

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/pkgpatch/pkgpatch/domain"
	"github.com/pkgpatch/pkgpatch/infrastructure/tools"
)

// dscPattern is the artifact filename grammar <name>_<version>[-<revision>].dsc.
// The version charset excludes the hyphen, which is what makes the optional
// hyphen-revision suffix unambiguous.
var dscPattern = regexp.MustCompile(`^([^_]+)_([0-9A-Za-z.+]+)(?:-([^_]+))?\.dsc$`)

// Options configures the external build invocation.
type Options struct {
	// BuildCommand is the build tool and its arguments. Defaults to debuild.
	BuildCommand []string
	// BuildEnv is appended to the build tool's environment. Defaults to
	// DEB_BUILD_OPTIONS=nocheck so package test suites stay disabled.
	BuildEnv []string
}

// Packager is the deb implementation of domain.Packager.
type Packager struct {
	runner tools.Runner
	opts   Options
}

// New creates the deb packager. Zero-value options get the debuild defaults.
func New(runner tools.Runner, opts Options) *Packager {
	if len(opts.BuildCommand) == 0 {
		opts.BuildCommand = []string{"debuild"}
	}
	if len(opts.BuildEnv) == 0 {
		opts.BuildEnv = []string{"DEB_BUILD_OPTIONS=nocheck"}
	}
	return &Packager{runner: runner, opts: opts}
}

func (p *Packager) Mode() domain.BuildMode {
	return domain.ModeDeb
}

// Resolve expects exactly one .dsc file in the working directory and parses
// the package identity out of its filename.
func (p *Packager) Resolve(workingDir, originalName string) (*domain.PackageDescriptor, error) {
	matches, err := filepath.Glob(filepath.Join(workingDir, "*.dsc"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s for .dsc files: %w", workingDir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no .dsc file in %s", domain.ErrNoArtifactFound, workingDir)
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("%w: expected exactly one .dsc file in %s, found %d",
			domain.ErrEnvironmentNotPrepared, workingDir, len(matches))
	}

	base := filepath.Base(matches[0])
	m := dscPattern.FindStringSubmatch(base)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrMalformedArtifactName, base)
	}

	name, fullVersion, revision := m[1], m[2], m[3]

	// The source folder keeps the full upstream version, including any "+"
	// flavor suffix; the descriptor version is truncated at the first "+".
	// Both values are preserved separately and never re-derived.
	sourceFolder := name + "-" + fullVersion
	version, _, _ := strings.Cut(fullVersion, "+")

	if originalName == "" {
		originalName = name
	}

	desc := &domain.PackageDescriptor{
		OriginalName: originalName,
		Name:         name,
		Version:      version,
		Revision:     revision,
		SourceFolder: sourceFolder,
	}
	logger.Debugf("[deb] Resolved %s: version=%s revision=%s source=%s",
		desc.Name, desc.Version, desc.Revision, desc.SourceFolder)

	return desc, nil
}

// Build runs the configured build tool (debuild by default) in the working
// directory, streaming output live and forwarding its exit code.
func (p *Packager) Build(ctx context.Context, workingDir string, desc *domain.PackageDescriptor) error {
	logger.Infof("[deb] Building %s %s-%s", desc.Name, desc.Version, desc.Revision)

	return p.runner.RunStreaming(ctx, tools.Command{
		Step: "debuild",
		Name: p.opts.BuildCommand[0],
		Args: p.opts.BuildCommand[1:],
		Dir:  workingDir,
		Env:  p.opts.BuildEnv,
	})
}
