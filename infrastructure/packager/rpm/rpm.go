// Package rpm implements the RPM packaging mode: descriptor resolution from
// .src.rpm files, patch registration through spec-file directive injection,
// and builds via rpmbuild.
package rpm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sassoftware/go-rpmutils"
	logger "github.com/sirupsen/logrus"

	"github.com/pkgpatch/pkgpatch/domain"
	"github.com/pkgpatch/pkgpatch/infrastructure/tools"
)

// versionPattern validates the version field of a .src.rpm filename:
// alphanumerics and dots, starting with a digit. The digit anchor is what
// lets the right-anchored split tell a hyphenated package name apart from
// the version field.
var versionPattern = regexp.MustCompile(`^[0-9][0-9A-Za-z.]*$`)

// revisionPattern validates the release field (e.g. "1.el9").
var revisionPattern = regexp.MustCompile(`^[0-9A-Za-z._]+$`)

// Options configures the external build invocation.
type Options struct {
	// BuildCommand is the build tool and its leading arguments. Defaults to
	// rpmbuild -ba.
	BuildCommand []string
	// ExtraArgs is appended after the spec file path. Defaults to --nocheck
	// so %check stages stay disabled.
	ExtraArgs []string
}

// Packager is the rpm implementation of domain.Packager.
type Packager struct {
	runner tools.Runner
	opts   Options
}

// New creates the rpm packager. Zero-value options get the rpmbuild defaults.
func New(runner tools.Runner, opts Options) *Packager {
	if len(opts.BuildCommand) == 0 {
		opts.BuildCommand = []string{"rpmbuild", "-ba"}
	}
	if len(opts.ExtraArgs) == 0 {
		opts.ExtraArgs = []string{"--nocheck"}
	}
	return &Packager{runner: runner, opts: opts}
}

func (p *Packager) Mode() domain.BuildMode {
	return domain.ModeRpm
}

// Resolve expects exactly one .src.rpm file directly in the working
// directory and parses the package identity out of its filename. The name,
// version and release are split right-anchored: the release is the last
// dash field and the version the one before it, matching how rpm composes
// NEVRA filenames for hyphenated package names.
func (p *Packager) Resolve(workingDir, originalName string) (*domain.PackageDescriptor, error) {
	matches, err := filepath.Glob(filepath.Join(workingDir, "*.src.rpm"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s for .src.rpm files: %w", workingDir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no .src.rpm file in %s", domain.ErrNoArtifactFound, workingDir)
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("%w: expected exactly one .src.rpm file in %s, found %d",
			domain.ErrEnvironmentNotPrepared, workingDir, len(matches))
	}

	base := filepath.Base(matches[0])
	name, version, revision, ok := splitSourceRPM(base)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrMalformedArtifactName, base)
	}

	if originalName == "" {
		originalName = name
	}

	desc := &domain.PackageDescriptor{
		OriginalName: originalName,
		Name:         name,
		Version:      version,
		Revision:     revision,
		SourceFolder: filepath.Join("BUILD", name+"-"+version),
	}
	logger.Debugf("[rpm] Resolved %s: version=%s revision=%s source=%s",
		desc.Name, desc.Version, desc.Revision, desc.SourceFolder)

	p.logHeader(matches[0], desc)

	return desc, nil
}

// splitSourceRPM parses <name>-<version>[-<revision>].src.rpm.
func splitSourceRPM(base string) (name, version, revision string, ok bool) {
	stem := strings.TrimSuffix(base, ".src.rpm")

	i := strings.LastIndex(stem, "-")
	if i <= 0 {
		return "", "", "", false
	}
	last := stem[i+1:]
	rest := stem[:i]

	// Preferred reading: the last two dash fields are version-release.
	if j := strings.LastIndex(rest, "-"); j > 0 {
		if versionPattern.MatchString(rest[j+1:]) && revisionPattern.MatchString(last) {
			return rest[:j], rest[j+1:], last, true
		}
	}

	// No revision: the last dash field is the version itself.
	if versionPattern.MatchString(last) {
		return rest, last, "", true
	}

	return "", "", "", false
}

// logHeader reads the rpm header for a best-effort cross-check of the
// filename parse. The filename stays authoritative; a disagreeing header is
// only worth a warning.
func (p *Packager) logHeader(rpmPath string, desc *domain.PackageDescriptor) {
	f, err := os.Open(rpmPath)
	if err != nil {
		logger.Debugf("[rpm] Cannot open %s for header inspection: %v", rpmPath, err)
		return
	}
	defer f.Close()

	pkg, err := rpmutils.ReadRpm(f)
	if err != nil {
		logger.Debugf("[rpm] Cannot read rpm header of %s: %v", rpmPath, err)
		return
	}

	nevra, err := pkg.Header.GetNEVRA()
	if err != nil {
		logger.Debugf("[rpm] Cannot read NEVRA of %s: %v", rpmPath, err)
		return
	}

	logger.Debugf("[rpm] Header NEVRA: %s", nevra.String())
	if nevra.Name != desc.Name || nevra.Version != desc.Version {
		logger.Warnf("[rpm] Header %s-%s disagrees with filename %s-%s; trusting the filename",
			nevra.Name, nevra.Version, desc.Name, desc.Version)
	}
}

// locateSpec returns the spec file path for the package: SPECS/<name>.spec
// when present, otherwise the single *.spec file under SPECS.
func (p *Packager) locateSpec(workingDir, name string) (string, error) {
	preferred := filepath.Join(workingDir, "SPECS", name+".spec")
	if _, err := os.Stat(preferred); err == nil {
		return preferred, nil
	}

	matches, err := filepath.Glob(filepath.Join(workingDir, "SPECS", "*.spec"))
	if err != nil {
		return "", fmt.Errorf("scanning for spec files: %w", err)
	}
	if len(matches) == 1 {
		return matches[0], nil
	}

	return "", fmt.Errorf("%w: no spec file for %s under %s", domain.ErrSpecFileNotFound,
		name, filepath.Join(workingDir, "SPECS"))
}

// Build runs rpmbuild against the package spec with the working directory as
// _topdir, streaming output live and forwarding its exit code.
func (p *Packager) Build(ctx context.Context, workingDir string, desc *domain.PackageDescriptor) error {
	specPath, err := p.locateSpec(workingDir, desc.Name)
	if err != nil {
		return err
	}

	absTop, err := filepath.Abs(workingDir)
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}

	logger.Infof("[rpm] Building %s %s-%s", desc.Name, desc.Version, desc.Revision)

	args := append([]string{}, p.opts.BuildCommand[1:]...)
	args = append(args, "--define", "_topdir "+absTop, specPath)
	args = append(args, p.opts.ExtraArgs...)

	return p.runner.RunStreaming(ctx, tools.Command{
		Step: "rpmbuild",
		Name: p.opts.BuildCommand[0],
		Args: args,
		Dir:  workingDir,
	})
}
