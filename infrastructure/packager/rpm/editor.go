package rpm

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkgpatch/pkgpatch/domain"
)

// SpecEditor is the text-editing collaborator the injector mutates spec
// files through: read the current text, replace exactly one line, commit.
type SpecEditor interface {
	CurrentText() string
	// ReplaceOnce replaces the single line matching pattern with the given
	// replacement (which may span multiple lines). Zero or multiple matching
	// lines is an error and leaves the text untouched.
	ReplaceOnce(pattern *regexp.Regexp, replacement string) error
}

// textEditor is the in-memory SpecEditor implementation.
type textEditor struct {
	text string
}

func (e *textEditor) CurrentText() string {
	return e.text
}

func (e *textEditor) ReplaceOnce(pattern *regexp.Regexp, replacement string) error {
	lines := strings.Split(e.text, "\n")

	matched := -1
	for i, line := range lines {
		if !pattern.MatchString(line) {
			continue
		}
		if matched >= 0 {
			return fmt.Errorf("pattern %q matches more than one line", pattern)
		}
		matched = i
	}
	if matched < 0 {
		return fmt.Errorf("pattern %q matches no line", pattern)
	}

	lines[matched] = replacement
	e.text = strings.Join(lines, "\n")
	return nil
}

// FileEditor is a SpecEditor bound to a spec file on disk. Commit replaces
// the full file content atomically: the new text is written to a temporary
// file in the same directory and renamed over the original, so an
// interrupted edit never leaves the spec half-written.
type FileEditor struct {
	textEditor
	path string
	mode os.FileMode
}

// OpenSpec loads the spec file at path into a FileEditor.
func OpenSpec(path string) (*FileEditor, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSpecFileNotFound, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec file %s: %w", path, err)
	}

	return &FileEditor{
		textEditor: textEditor{text: string(data)},
		path:       path,
		mode:       info.Mode().Perm(),
	}, nil
}

// Commit writes the edited text back as a single atomic replace.
func (e *FileEditor) Commit() error {
	dir := filepath.Dir(e.path)

	tmp, err := os.CreateTemp(dir, filepath.Base(e.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp spec file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.WriteString(e.text); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp spec file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp spec file: %w", err)
	}
	if err = os.Chmod(tmpName, e.mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("preserving spec file mode: %w", err)
	}
	if err = os.Rename(tmpName, e.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing spec file: %w", err)
	}

	return nil
}
