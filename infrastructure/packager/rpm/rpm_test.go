package rpm_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgpatch/pkgpatch/domain"
	"github.com/pkgpatch/pkgpatch/infrastructure/packager/rpm"
	"github.com/pkgpatch/pkgpatch/test/tooldoubles"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte{}, 0o644))
}

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("should resolve name, version and revision from a src rpm filename", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "nginx-1.18.0-6.src.rpm"))
		packager := rpm.New(tooldoubles.NewFakeRunner(), rpm.Options{})

		// when
		desc, err := packager.Resolve(dir, "")

		// then
		require.NoError(t, err)
		assert.Equal(t, "nginx", desc.Name)
		assert.Equal(t, "1.18.0", desc.Version)
		assert.Equal(t, "6", desc.Revision)
		assert.Equal(t, filepath.Join("BUILD", "nginx-1.18.0"), desc.SourceFolder)
	})

	t.Run("should split right-anchored for hyphenated package names", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "httpd-tools-2.4.57-1.el9.src.rpm"))
		packager := rpm.New(tooldoubles.NewFakeRunner(), rpm.Options{})

		// when
		desc, err := packager.Resolve(dir, "")

		// then
		require.NoError(t, err)
		assert.Equal(t, "httpd-tools", desc.Name)
		assert.Equal(t, "2.4.57", desc.Version)
		assert.Equal(t, "1.el9", desc.Revision)
	})

	t.Run("should resolve a filename without a revision", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "my-pkg-1.2.src.rpm"))
		packager := rpm.New(tooldoubles.NewFakeRunner(), rpm.Options{})

		// when
		desc, err := packager.Resolve(dir, "")

		// then
		require.NoError(t, err)
		assert.Equal(t, "my-pkg", desc.Name)
		assert.Equal(t, "1.2", desc.Version)
		assert.Empty(t, desc.Revision)
	})

	t.Run("should fail with no artifact found for an empty directory", func(t *testing.T) {
		t.Parallel()

		// given
		packager := rpm.New(tooldoubles.NewFakeRunner(), rpm.Options{})

		// when
		_, err := packager.Resolve(t.TempDir(), "")

		// then
		assert.ErrorIs(t, err, domain.ErrNoArtifactFound)
	})

	t.Run("should fail with a malformed name when no version field exists", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "broken.src.rpm"))
		packager := rpm.New(tooldoubles.NewFakeRunner(), rpm.Options{})

		// when
		_, err := packager.Resolve(dir, "")

		// then
		assert.ErrorIs(t, err, domain.ErrMalformedArtifactName)
	})
}

// writeRPMTree prepares a working directory shaped like an rpmbuild topdir.
func writeRPMTree(t *testing.T, spec string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "SPECS"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "SOURCES"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "BUILD", "webapp-2.0"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SPECS", "webapp.spec"), []byte(spec), 0o644))
	return dir
}

func TestRegisterPatch(t *testing.T) {
	t.Parallel()

	desc := &domain.PackageDescriptor{
		OriginalName: "webapp",
		Name:         "webapp",
		Version:      "2.0",
		Revision:     "3",
		SourceFolder: filepath.Join("BUILD", "webapp-2.0"),
	}

	t.Run("should archive the patch, inject the spec and patch a side copy", func(t *testing.T) {
		t.Parallel()

		// given
		dir := writeRPMTree(t, modernSpec)
		patchFile := filepath.Join(t.TempDir(), "fix.patch")
		require.NoError(t, os.WriteFile(patchFile, []byte("--- a/x\n+++ b/x\n"), 0o644))
		runner := tooldoubles.NewFakeRunner()
		packager := rpm.New(runner, rpm.Options{})

		// when
		err := packager.RegisterPatch(context.Background(), dir, desc, patchFile)

		// then
		require.NoError(t, err)

		archived, readErr := os.ReadFile(filepath.Join(dir, "SOURCES", "webapp.patch"))
		require.NoError(t, readErr)
		assert.Equal(t, "--- a/x\n+++ b/x\n", string(archived))

		updated, readErr := os.ReadFile(filepath.Join(dir, "SPECS", "webapp.spec"))
		require.NoError(t, readErr)
		assert.Contains(t, string(updated), "Patch4: webapp.patch")
		assert.Contains(t, string(updated), "%patch -P 4 -p1")

		require.Equal(t, []string{"copy source tree", "patch"}, runner.Steps())
		copyCall := runner.Calls[0].Command
		assert.Equal(t, []string{"-a",
			filepath.Join(dir, "BUILD", "webapp-2.0"),
			filepath.Join(dir, "BUILD", "webapp-2.0") + "-new"}, copyCall.Args)
		patchCall := runner.Calls[1].Command
		assert.Equal(t, filepath.Join(dir, "BUILD", "webapp-2.0")+"-new", patchCall.Dir)
		assert.Contains(t, patchCall.Args, "--fuzz=3")
		assert.Contains(t, patchCall.Args, "-f")
	})

	t.Run("should fail with missing input when the patch file does not exist", func(t *testing.T) {
		t.Parallel()

		// given
		dir := writeRPMTree(t, modernSpec)
		packager := rpm.New(tooldoubles.NewFakeRunner(), rpm.Options{})

		// when
		err := packager.RegisterPatch(context.Background(), dir, desc, filepath.Join(dir, "nope.patch"))

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMissingInput)
		assert.Equal(t, domain.ExitFailure, domain.ExitCodeFor(err))
	})

	t.Run("should fail with spec not found when SPECS is empty", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "SPECS"), 0o755))
		patchFile := filepath.Join(t.TempDir(), "fix.patch")
		require.NoError(t, os.WriteFile(patchFile, []byte("diff"), 0o644))
		packager := rpm.New(tooldoubles.NewFakeRunner(), rpm.Options{})

		// when
		err := packager.RegisterPatch(context.Background(), dir, desc, patchFile)

		// then
		assert.ErrorIs(t, err, domain.ErrSpecFileNotFound)
	})

	t.Run("should leave the spec untouched when it has no patch directive", func(t *testing.T) {
		t.Parallel()

		// given
		bare := "Name: webapp\n%prep\n%setup -q\n"
		dir := writeRPMTree(t, bare)
		patchFile := filepath.Join(t.TempDir(), "fix.patch")
		require.NoError(t, os.WriteFile(patchFile, []byte("diff"), 0o644))
		packager := rpm.New(tooldoubles.NewFakeRunner(), rpm.Options{})

		// when
		err := packager.RegisterPatch(context.Background(), dir, desc, patchFile)

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNoPatchDirective)

		data, readErr := os.ReadFile(filepath.Join(dir, "SPECS", "webapp.spec"))
		require.NoError(t, readErr)
		assert.Equal(t, bare, string(data))
	})
}

func TestBuildRPM(t *testing.T) {
	t.Parallel()

	desc := &domain.PackageDescriptor{
		Name: "webapp", Version: "2.0", SourceFolder: filepath.Join("BUILD", "webapp-2.0"),
	}

	t.Run("should stream rpmbuild against the spec with nocheck", func(t *testing.T) {
		t.Parallel()

		// given
		dir := writeRPMTree(t, modernSpec)
		runner := tooldoubles.NewFakeRunner()
		packager := rpm.New(runner, rpm.Options{})

		// when
		err := packager.Build(context.Background(), dir, desc)

		// then
		require.NoError(t, err)
		require.Len(t, runner.Calls, 1)
		call := runner.Calls[0]
		assert.True(t, call.Streaming)
		assert.Equal(t, "rpmbuild", call.Command.Name)
		assert.Contains(t, call.Command.Args, "-ba")
		assert.Contains(t, call.Command.Args, "--nocheck")
		assert.Contains(t, call.Command.Args, filepath.Join(dir, "SPECS", "webapp.spec"))
	})

	t.Run("should fail with spec not found when no spec exists", func(t *testing.T) {
		t.Parallel()

		// given
		packager := rpm.New(tooldoubles.NewFakeRunner(), rpm.Options{})

		// when
		err := packager.Build(context.Background(), t.TempDir(), desc)

		// then
		assert.ErrorIs(t, err, domain.ErrSpecFileNotFound)
	})
}
