package rpm_test

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgpatch/pkgpatch/domain"
	"github.com/pkgpatch/pkgpatch/infrastructure/packager/rpm"
)

func TestFileEditor(t *testing.T) {
	t.Parallel()

	t.Run("should fail with spec not found for a missing file", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := rpm.OpenSpec(filepath.Join(t.TempDir(), "missing.spec"))

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrSpecFileNotFound)
		assert.Equal(t, domain.ExitEnvNotPrepared, domain.ExitCodeFor(err))
	})

	t.Run("should replace exactly one matching line and commit atomically", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		path := filepath.Join(dir, "webapp.spec")
		require.NoError(t, os.WriteFile(path, []byte("a\nPatch0: x.patch\nb\n"), 0o644))
		editor, err := rpm.OpenSpec(path)
		require.NoError(t, err)

		// when
		err = editor.ReplaceOnce(regexp.MustCompile(`^Patch0:.*$`), "Patch0: x.patch\nPatch1: y.patch")
		require.NoError(t, err)
		require.NoError(t, editor.Commit())

		// then
		data, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		assert.Equal(t, "a\nPatch0: x.patch\nPatch1: y.patch\nb\n", string(data))

		// no temp droppings left behind
		entries, readDirErr := os.ReadDir(dir)
		require.NoError(t, readDirErr)
		require.Len(t, entries, 1)
		assert.Equal(t, "webapp.spec", entries[0].Name())
	})

	t.Run("should refuse to replace when the pattern matches no line", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "webapp.spec")
		require.NoError(t, os.WriteFile(path, []byte("a\nb\n"), 0o644))
		editor, err := rpm.OpenSpec(path)
		require.NoError(t, err)

		// when
		err = editor.ReplaceOnce(regexp.MustCompile(`^Patch0:`), "x")

		// then
		require.Error(t, err)
		assert.Equal(t, "a\nb\n", editor.CurrentText())
	})

	t.Run("should refuse to replace when the pattern matches several lines", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "webapp.spec")
		require.NoError(t, os.WriteFile(path, []byte("Patch0: a\nPatch0: b\n"), 0o644))
		editor, err := rpm.OpenSpec(path)
		require.NoError(t, err)

		// when
		err = editor.ReplaceOnce(regexp.MustCompile(`^Patch0:`), "x")

		// then
		require.Error(t, err)
		assert.Equal(t, "Patch0: a\nPatch0: b\n", editor.CurrentText())
	})

	t.Run("should preserve the original file mode across a commit", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "webapp.spec")
		require.NoError(t, os.WriteFile(path, []byte("Patch0: a\n"), 0o600))
		editor, err := rpm.OpenSpec(path)
		require.NoError(t, err)

		// when
		require.NoError(t, editor.ReplaceOnce(regexp.MustCompile(`^Patch0:`), "Patch0: b"))
		require.NoError(t, editor.Commit())

		// then
		info, statErr := os.Stat(path)
		require.NoError(t, statErr)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})
}
