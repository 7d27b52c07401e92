// Package diff parses a unified diff file to identify changed lines, used
// by the filter pipeline's diff-intersection stage.
package diff

import (
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/cargo-gremlins/gremlins/internal/mutant"
)

// FileName represents a file path in a diff, with any "b/" prefix stripped
// so it lines up with a mutant's tree-relative path.
type FileName string

// Change represents a contiguous range of changed lines in a file.
type Change struct {
	StartLine int
	EndLine   int
}

// Diff maps file names to their list of changes.
type Diff map[FileName][]Change

func newDiff(files []*gitdiff.File) Diff {
	result := map[FileName][]Change{}

	for _, file := range files {
		name, changes := newChanges(file)

		result[name] = changes
	}

	return result
}

func newChanges(file *gitdiff.File) (FileName, []Change) {
	var changes []Change

	for _, fragment := range file.TextFragments {
		startLine := int(fragment.NewPosition + fragment.LeadingContext)

		switch {
		case fragment.LinesAdded > 0:
			changes = append(changes, Change{
				StartLine: startLine,
				EndLine:   startLine + int(fragment.LinesAdded-1),
			})
		case fragment.LinesDeleted > 0:
			// a pure deletion leaves no new-file line of its own; the line
			// immediately adjacent to it in the new file is still affected.
			changes = append(changes, Change{StartLine: startLine, EndLine: startLine})
		}
	}

	return FileName(strings.TrimPrefix(file.NewName, "b/")), changes
}

// Intersects reports whether m's mutated span touches a changed line of its
// file. A nil or empty Diff includes every mutant, so running with no diff
// file configured behaves as if every mutant intersected.
func (d Diff) Intersects(m mutant.Mutant) bool {
	if len(d) == 0 {
		return true
	}

	changes, ok := d[FileName(m.SourceFile.TreeRelativePath)]
	if !ok {
		return false
	}

	for line := m.Span.Start.Line; line <= m.Span.End.Line; line++ {
		for _, c := range changes {
			if line >= c.StartLine && line <= c.EndLine {
				return true
			}
		}
	}

	return false
}
