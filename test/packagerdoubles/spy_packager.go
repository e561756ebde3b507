// Package packagerdoubles provides hand-crafted test doubles for the
// domain.Packager interface. No mock frameworks.
package packagerdoubles

import (
	"context"

	"github.com/pkgpatch/pkgpatch/domain"
)

// SpyPackager implements domain.Packager as a configurable spy. Configure
// the response fields for the methods your test exercises, then inspect
// the call-tracking fields to verify behavior.
type SpyPackager struct {
	// --- identity ---
	BuildMode domain.BuildMode

	// --- Resolve ---
	Descriptor *domain.PackageDescriptor
	ResolveErr error
	// spy: names that were requested
	ResolvedNames []string

	// --- RegisterPatch ---
	RegisterErr error
	// spy: patch files received
	RegisteredPatches []string

	// --- Build ---
	BuildErr error
	// spy: number of build invocations
	BuildCalls int
}

func (s *SpyPackager) Mode() domain.BuildMode {
	return s.BuildMode
}

func (s *SpyPackager) Resolve(_, originalName string) (*domain.PackageDescriptor, error) {
	s.ResolvedNames = append(s.ResolvedNames, originalName)
	if s.ResolveErr != nil {
		return nil, s.ResolveErr
	}
	desc := *s.Descriptor
	if originalName != "" {
		desc.OriginalName = originalName
	}
	return &desc, nil
}

func (s *SpyPackager) RegisterPatch(_ context.Context, _ string, _ *domain.PackageDescriptor, patchFile string) error {
	s.RegisteredPatches = append(s.RegisteredPatches, patchFile)
	return s.RegisterErr
}

func (s *SpyPackager) Build(_ context.Context, _ string, _ *domain.PackageDescriptor) error {
	s.BuildCalls++
	return s.BuildErr
}
