package rpm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgpatch/pkgpatch/domain"
	"github.com/pkgpatch/pkgpatch/infrastructure/packager/rpm"
)

const modernSpec = `Name: webapp
Version: 2.0
Release: 3
Patch0: first.patch
Patch3: third.patch

%prep
%setup -q
%patch -P 0 -p1
%patch -P 3 -p1

%build
make
`

const legacySpec = `Name: webapp
Version: 2.0
Release: 3
Patch0: first.patch
Patch3: third.patch

%prep
%setup -q
%patch0 -p1
%patch3 -p1

%build
make
`

func TestInjectText(t *testing.T) {
	t.Parallel()

	t.Run("should append a directive after the highest index in the modern dialect", func(t *testing.T) {
		t.Parallel()

		// when
		updated, err := rpm.InjectText(modernSpec, "foo")

		// then
		require.NoError(t, err)
		assert.Contains(t, updated, "Patch3: third.patch\nPatch4: foo.patch\n")
		assert.Contains(t, updated, "%patch -P 3 -p1\n%patch -P 4 -p1\n")
		assert.NotContains(t, updated, "%patch4")
	})

	t.Run("should use the legacy invocation form when the spec does", func(t *testing.T) {
		t.Parallel()

		// when
		updated, err := rpm.InjectText(legacySpec, "foo")

		// then
		require.NoError(t, err)
		assert.Contains(t, updated, "Patch3: third.patch\nPatch4: foo.patch\n")
		assert.Contains(t, updated, "%patch3 -p1\n%patch4 -p1\n")
		assert.NotContains(t, updated, "-P 4")
	})

	t.Run("should increase the directive count by exactly one and keep all other lines byte-identical", func(t *testing.T) {
		t.Parallel()

		// when
		updated, err := rpm.InjectText(modernSpec, "foo")

		// then
		require.NoError(t, err)

		originalLines := strings.Split(modernSpec, "\n")
		updatedLines := strings.Split(updated, "\n")
		require.Len(t, updatedLines, len(originalLines)+2)

		var kept []string
		for _, line := range updatedLines {
			if line == "Patch4: foo.patch" || line == "%patch -P 4 -p1" {
				continue
			}
			kept = append(kept, line)
		}
		assert.Equal(t, originalLines, kept)
	})

	t.Run("should fail and leave the text unmodified when no directive exists", func(t *testing.T) {
		t.Parallel()

		// given
		spec := "Name: webapp\n%prep\n%setup -q\n"

		// when
		updated, err := rpm.InjectText(spec, "foo")

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNoPatchDirective)
		assert.Equal(t, spec, updated)
	})

	t.Run("should never reuse an index across two injections", func(t *testing.T) {
		t.Parallel()

		// when
		first, err := rpm.InjectText(modernSpec, "foo")
		require.NoError(t, err)
		second, err := rpm.InjectText(first, "bar")

		// then
		require.NoError(t, err)
		assert.Contains(t, second, "Patch4: foo.patch")
		assert.Contains(t, second, "Patch5: bar.patch")
		assert.Contains(t, second, "%patch -P 4 -p1")
		assert.Contains(t, second, "%patch -P 5 -p1")
	})

	t.Run("should handle double-digit indices", func(t *testing.T) {
		t.Parallel()

		// given
		spec := "Patch9: nine.patch\nPatch10: ten.patch\n%patch9 -p1\n%patch10 -p1\n"

		// when
		updated, err := rpm.InjectText(spec, "next")

		// then
		require.NoError(t, err)
		assert.Contains(t, updated, "Patch10: ten.patch\nPatch11: next.patch")
		assert.Contains(t, updated, "%patch10 -p1\n%patch11 -p1")
	})
}
