//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/pkgpatch/pkgpatch/domain"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// DescriptorBuilder helps create test package descriptors with a fluent interface.
type DescriptorBuilder struct {
	*testkit.BaseBuilder
	originalName string
	name         string
	version      string
	revision     string
	sourceFolder string
}

// NewDescriptorBuilder creates a new descriptor builder with sensible defaults.
func NewDescriptorBuilder() *DescriptorBuilder {
	return &DescriptorBuilder{
		BaseBuilder:  testkit.NewBaseBuilder(),
		originalName: "webapp",
		name:         "webapp",
		version:      "2.0",
		revision:     "3",
		sourceFolder: "webapp-2.0",
	}
}

// WithOriginalName sets the caller-supplied package name.
func (b *DescriptorBuilder) WithOriginalName(name string) *DescriptorBuilder {
	b.originalName = name
	return b
}

// WithName sets the package name parsed from the artifact.
func (b *DescriptorBuilder) WithName(name string) *DescriptorBuilder {
	b.name = name
	return b
}

// WithVersion sets the upstream version.
func (b *DescriptorBuilder) WithVersion(version string) *DescriptorBuilder {
	b.version = version
	return b
}

// WithRevision sets the packaging revision.
func (b *DescriptorBuilder) WithRevision(revision string) *DescriptorBuilder {
	b.revision = revision
	return b
}

// WithSourceFolder sets the unpacked source folder.
func (b *DescriptorBuilder) WithSourceFolder(folder string) *DescriptorBuilder {
	b.sourceFolder = folder
	return b
}

// Build creates the descriptor (satisfies testkit.Builder interface).
func (b *DescriptorBuilder) Build() interface{} {
	return b.BuildDescriptor()
}

// BuildDescriptor creates the descriptor with a concrete return type.
func (b *DescriptorBuilder) BuildDescriptor() *domain.PackageDescriptor {
	return &domain.PackageDescriptor{
		OriginalName: b.originalName,
		Name:         b.name,
		Version:      b.version,
		Revision:     b.revision,
		SourceFolder: b.sourceFolder,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *DescriptorBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.originalName = "webapp"
	b.name = "webapp"
	b.version = "2.0"
	b.revision = "3"
	b.sourceFolder = "webapp-2.0"
	return b
}

// Clone creates a deep copy of the DescriptorBuilder.
func (b *DescriptorBuilder) Clone() testkit.Builder {
	return &DescriptorBuilder{
		BaseBuilder:  b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		originalName: b.originalName,
		name:         b.name,
		version:      b.version,
		revision:     b.revision,
		sourceFolder: b.sourceFolder,
	}
}
