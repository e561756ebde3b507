package domain

import "context"

// Packager abstracts one packaging system (deb, rpm, ...). Each
// implementation owns the full mode-specific cycle: resolving the package
// descriptor from build artifacts on disk, registering a patch with the
// packaging system's canonical patch list, and dispatching the external
// build tool. The deb/rpm differences stay behind this interface so the
// dispatch layer never branches on mode strings.
type Packager interface {
	// Mode returns the build mode this packager implements.
	Mode() BuildMode

	// Resolve inspects workingDir for the mode's build artifact and returns
	// the package descriptor. originalName overrides the externally visible
	// package name when non-empty; otherwise the discovered name is used.
	Resolve(workingDir, originalName string) (*PackageDescriptor, error)

	// RegisterPatch injects the given patch file into the packaging system
	// so the next build applies it: quilt import/push/refresh for deb, spec
	// directive injection for rpm.
	RegisterPatch(ctx context.Context, workingDir string, desc *PackageDescriptor, patchFile string) error

	// Build invokes the mode's external build tool with test suites disabled
	// by configuration, streaming its output live. A non-zero exit surfaces
	// as a *ToolError carrying the tool's exit code verbatim.
	Build(ctx context.Context, workingDir string, desc *PackageDescriptor) error
}
