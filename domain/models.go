package domain

// BuildMode identifies the packaging system driving a run. Exactly one mode
// is active per invocation; it is resolved once at startup and never changes
// mid-run. Adding a mode (e.g. Arch) means one new constant plus one new
// Packager implementation registered in the packager registry.
type BuildMode string

const (
	ModeDeb BuildMode = "deb"
	ModeRpm BuildMode = "rpm"
)

// PackageDescriptor is the resolved identity of one package build unit.
// It is constructed once per command invocation from filesystem inspection
// and is immutable afterwards, except for the version rewrite performed by
// negotiation during patch export.
type PackageDescriptor struct {
	// OriginalName is the name as supplied by the caller, or the discovered
	// name when the caller did not specify one. Externally visible patch
	// filenames use it verbatim.
	OriginalName string
	// Name is the canonical source package name parsed from the artifact
	// filename.
	Name string
	// Version is the upstream version after suffix truncation.
	Version string
	// Revision is the packaging revision/release suffix. Informational only.
	Revision string
	// SourceFolder is the on-disk path (relative to the working directory)
	// expected to contain the unpacked source tree. For deb artifacts with a
	// "+" flavor suffix this intentionally differs from Name-Version; both
	// values are kept and never re-derived from one another.
	SourceFolder string
}

// PatchArtifact is an opaque block of unified-diff text with a logical name.
type PatchArtifact struct {
	Name string
	Diff string
}
