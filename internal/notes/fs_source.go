package notes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// calendarName matches daily-note filenames like 20260831.md or
// 2026-08-31.md, which are classified as calendar notes.
var calendarName = regexp.MustCompile(`^\d{4}-?\d{2}-?\d{2}(\.md|\.txt)$`)

// FSSource reads note snapshots from a directory of markdown files. The
// first path component below the root is treated as the folder; a folder
// named "@Trash" classifies its notes as trash.
type FSSource struct {
	root   string
	parser goldmark.Markdown
}

// NewFSSource creates a filesystem note source rooted at dir.
func NewFSSource(dir string) *FSSource {
	return &FSSource{
		root:   dir,
		parser: goldmark.New(),
	}
}

// ListNotes walks the root directory and returns a snapshot per markdown
// file, sorted by relative path for deterministic ordering.
func (s *FSSource) ListNotes(ctx context.Context, scope Scope) ([]Snapshot, error) {
	var out []Snapshot

	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			// Hidden directories hold editor state, not notes.
			if strings.HasPrefix(info.Name(), ".") && path != s.root {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".md" && ext != ".txt" {
			return nil
		}

		relPath, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		snap, err := s.readSnapshot(path, relPath, info)
		if err != nil {
			return err
		}
		if snap.Source == SourceTrash && !scope.IncludeTrash {
			return nil
		}
		out = append(out, snap)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan notes directory: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

func (s *FSSource) readSnapshot(absPath, relPath string, info os.FileInfo) (Snapshot, error) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read note %s: %w", relPath, err)
	}

	folder := filepath.ToSlash(filepath.Dir(relPath))
	if folder == "." {
		folder = ""
	}

	name := filepath.Base(relPath)
	source := SourceNotes
	switch {
	case folder == "@Trash" || strings.HasPrefix(folder, "@Trash/"):
		source = SourceTrash
	case calendarName.MatchString(name):
		source = SourceCalendar
	}

	return Snapshot{
		ID:       relPath,
		Filename: relPath,
		Title:    s.extractTitle(content, name),
		Text:     string(content),
		Source:   source,
		Folder:   folder,
		Type:     strings.TrimPrefix(filepath.Ext(name), "."),
		Modified: info.ModTime(),
	}, nil
}

// extractTitle returns the first H1 heading, then the first H2, then the
// filename without extension with words capitalized.
func (s *FSSource) extractTitle(content []byte, filename string) string {
	if len(content) > 0 {
		doc := s.parser.Parser().Parse(text.NewReader(content))
		var firstH1, firstH2 string
		_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering {
				return ast.WalkContinue, nil
			}
			heading, ok := n.(*ast.Heading)
			if !ok {
				return ast.WalkContinue, nil
			}
			headingText := nodeText(heading, content)
			if heading.Level == 1 && firstH1 == "" {
				firstH1 = headingText
				return ast.WalkStop, nil
			}
			if heading.Level == 2 && firstH2 == "" {
				firstH2 = headingText
			}
			return ast.WalkContinue, nil
		})
		if firstH1 != "" {
			return firstH1
		}
		if firstH2 != "" {
			return firstH2
		}
	}
	return titleFromFilename(filename)
}

func nodeText(n ast.Node, content []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func titleFromFilename(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	words := strings.Fields(strings.ReplaceAll(name, "-", " "))
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
