package domain

// PatchStore is the external patch-set collaborator: it tracks which diffs
// apply to which upstream versions and can enumerate versions, check one
// out, and export a combined patch. The store is consumed, not implemented,
// by the export flow; infrastructure/patchstore provides the concrete
// directory-backed implementation.
type PatchStore interface {
	// Prepare materializes the store's version history (for a git-backed
	// store this opens the repository). Must be called before Versions or
	// CheckoutVersion on the versioned path.
	Prepare() error

	// Versions returns the known upstream versions in the store's own,
	// stable enumeration order. Negotiation depends on that order.
	Versions() ([]string, error)

	// HasVersionedPatches reports whether the store holds any per-version
	// patches. When false, only uniform source-level codepatches exist and
	// export can skip version bookkeeping entirely.
	HasVersionedPatches() bool

	// CheckoutVersion materializes the patch set for the given version.
	CheckoutVersion(version string) error

	// ReloadIndex rescans the store's patch index after a checkout.
	ReloadIndex() error

	// ExportCombined returns the combined unified-diff text for the given
	// version.
	ExportCombined(version string) (string, error)

	// ExportFromDirectory returns the combined codepatch text for a source
	// tree, without any version bookkeeping.
	ExportFromDirectory(sourceDir string) (string, error)

	// MetadataDir returns the name of the store's internal bookkeeping
	// directory, so packaging steps can be told to ignore it.
	MetadataDir() string
}
