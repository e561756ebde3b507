package rpm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkgpatch/pkgpatch/domain"
)

// Dialect is the spec file's patch-invocation flavor. It is determined
// structurally from the existing %patch lines, never declared.
type Dialect int

const (
	// DialectLegacy writes invocations as "%patch<n> -p1".
	DialectLegacy Dialect = iota
	// DialectModern writes invocations as "%patch -P <n> -p1".
	DialectModern
)

// SpecPatchEntry is one parsed PatchN: directive line.
type SpecPatchEntry struct {
	Index int
	Line  string
}

// specIndex is the transient parse of a spec file's patch bookkeeping.
// It is discarded once the new text is committed; the spec file text is the
// sole source of truth, no persistent index of patch numbers exists.
type specIndex struct {
	entries []SpecPatchEntry
	last    SpecPatchEntry
	dialect Dialect
}

var patchDirectivePattern = regexp.MustCompile(`^Patch(\d+):`)

// parseSpec scans the spec text into patch entries and detects the
// invocation dialect. Zero PatchN: lines is fatal: a spec with no patches at
// all is not auto-bootstrapped.
func parseSpec(text string) (*specIndex, error) {
	idx := &specIndex{dialect: DialectLegacy}

	for _, line := range strings.Split(text, "\n") {
		if m := patchDirectivePattern.FindStringSubmatch(line); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("parsing directive index in %q: %w", line, err)
			}
			entry := SpecPatchEntry{Index: n, Line: line}
			idx.entries = append(idx.entries, entry)
			if len(idx.entries) == 1 || n > idx.last.Index {
				idx.last = entry
			}
			continue
		}

		if strings.HasPrefix(line, "%patch") && strings.Contains(line, "-P ") {
			idx.dialect = DialectModern
		}
	}

	if len(idx.entries) == 0 {
		return nil, domain.ErrNoPatchDirective
	}

	return idx, nil
}

// invocation renders an apply-macro line for the given index in this dialect.
func (d Dialect) invocation(index int) string {
	if d == DialectModern {
		return fmt.Sprintf("%%patch -P %d -p1", index)
	}
	return fmt.Sprintf("%%patch%d -p1", index)
}

// InjectPatch inserts a new, monotonically numbered patch directive plus its
// apply invocation into the editor's spec text. The new directive goes
// immediately after the highest-numbered existing one (append-after-max, not
// sorted-by-name); the new invocation follows the highest-numbered existing
// invocation in the dialect the spec already uses. Every pre-existing line
// survives byte-identical.
func InjectPatch(editor SpecEditor, originalName string) error {
	idx, err := parseSpec(editor.CurrentText())
	if err != nil {
		return err
	}

	newIndex := idx.last.Index + 1
	newDirective := fmt.Sprintf("Patch%d: %s.patch", newIndex, originalName)

	directivePattern := regexp.MustCompile(fmt.Sprintf(`^Patch%d:.*$`, idx.last.Index))
	if err = editor.ReplaceOnce(directivePattern, idx.last.Line+"\n"+newDirective); err != nil {
		return fmt.Errorf("inserting directive Patch%d: %w", newIndex, err)
	}

	invocationPattern := regexp.MustCompile(fmt.Sprintf(`^%%patch.*%d.*$`, idx.last.Index))
	oldInvocation, err := findLine(editor.CurrentText(), invocationPattern)
	if err != nil {
		return fmt.Errorf("locating invocation for Patch%d: %w", idx.last.Index, err)
	}
	if err = editor.ReplaceOnce(invocationPattern, oldInvocation+"\n"+idx.dialect.invocation(newIndex)); err != nil {
		return fmt.Errorf("inserting invocation for Patch%d: %w", newIndex, err)
	}

	return nil
}

// InjectText is the pure-text form of InjectPatch: it returns the updated
// spec text and leaves the input untouched on failure.
func InjectText(specText, originalName string) (string, error) {
	editor := &textEditor{text: specText}
	if err := InjectPatch(editor, originalName); err != nil {
		return specText, err
	}
	return editor.CurrentText(), nil
}

func findLine(text string, pattern *regexp.Regexp) (string, error) {
	found := ""
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if pattern.MatchString(line) {
			found = line
			count++
		}
	}
	if count != 1 {
		return "", fmt.Errorf("pattern %q matches %d lines, want exactly one", pattern, count)
	}
	return found, nil
}
