package packager

import (
	"fmt"

	"github.com/pkgpatch/pkgpatch/domain"
)

// Registry manages all registered packaging-system implementations.
type Registry struct {
	packagers map[domain.BuildMode]domain.Packager
}

// NewRegistry creates an empty packager registry.
func NewRegistry() *Registry {
	return &Registry{
		packagers: make(map[domain.BuildMode]domain.Packager),
	}
}

// Register adds a packager under its mode.
func (r *Registry) Register(p domain.Packager) {
	r.packagers[p.Mode()] = p
}

// Get returns the packager for the given mode.
func (r *Registry) Get(mode domain.BuildMode) (domain.Packager, error) {
	p, ok := r.packagers[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownMode, mode)
	}
	return p, nil
}

// Modes returns the list of registered build modes.
func (r *Registry) Modes() []domain.BuildMode {
	modes := make([]domain.BuildMode, 0, len(r.packagers))
	for mode := range r.packagers {
		modes = append(modes, mode)
	}
	return modes
}
