package analyzer

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/robotpony/peep/internal/walker"
)

// MaxReadBytes caps how much of any single file is read, and the longest
// line a line scanner accepts.
const MaxReadBytes = 1 << 20

// TodoItemMetrics summarizes planned work in a project: checklist items from
// TODO-like files plus TODO/FIXME comments in source. BUG comments are
// reported under IssueItemMetrics instead, so no marker is counted twice.
type TodoItemMetrics struct {
	Items  ItemCounts   `json:"items" yaml:"items"`
	Inline InlineCounts `json:"inline" yaml:"inline"`
	Lines  int          `json:"lines" yaml:"lines"`
	Files  []string     `json:"files,omitempty" yaml:"files,omitempty"`
}

// TotalItems is the checklist total plus every inline marker.
func (m TodoItemMetrics) TotalItems() int {
	return m.Items.Total + m.Inline.Sum()
}

// IssueItemMetrics summarizes known problems in a project: checklist items
// and metadata from issue files plus BUG comments in source.
type IssueItemMetrics struct {
	Items    ItemCounts    `json:"items" yaml:"items"`
	Inline   InlineCounts  `json:"inline" yaml:"inline"`
	Metadata IssueMetadata `json:"metadata" yaml:"metadata"`
	Lines    int           `json:"lines" yaml:"lines"`
	Files    []string      `json:"files,omitempty" yaml:"files,omitempty"`
}

// TotalItems is the checklist total plus every inline marker.
func (m IssueItemMetrics) TotalItems() int {
	return m.Items.Total + m.Inline.Sum()
}

// todoFileNames are matched case-insensitively against directory entries.
var todoFileNames = map[string]bool{
	"todo.md":  true,
	"todo.txt": true,
	"todo":     true,
	"tasks.md": true,
}

// issueTextExtensions are the extensions an issue file may carry. Anything
// else (images, video, documents, binaries) is ignored even if the name
// matches.
var issueTextExtensions = map[string]bool{
	"":          true,
	".md":       true,
	".markdown": true,
	".txt":      true,
	".rst":      true,
	".org":      true,
}

// IsTodoFile reports whether name is a TODO-like planning file.
func IsTodoFile(name string) bool {
	return todoFileNames[strings.ToLower(name)]
}

// IsIssueFile reports whether name looks like an issue tracking file with a
// text extension.
func IsIssueFile(name string) bool {
	lower := strings.ToLower(name)
	if !strings.Contains(lower, "issue") && !strings.Contains(lower, "bug") {
		return false
	}
	return issueTextExtensions[filepath.Ext(lower)]
}

// CountTodoItems parses every TODO-like file directly in dir and aggregates
// inline TODO/FIXME markers from the source tree under it.
func CountTodoItems(dir string, opts walker.Options) TodoItemMetrics {
	return countTodoItems(dir, ScanInlineTodos(dir, opts))
}

// CountIssueItems parses every issue file directly in dir, extracts their
// combined metadata and adds inline BUG markers from the source tree.
func CountIssueItems(dir string, opts walker.Options) IssueItemMetrics {
	return countIssueItems(dir, ScanInlineTodos(dir, opts))
}

// CountWorkItems builds both metrics from a single inline scan so source
// files are only read once per project.
func CountWorkItems(dir string, opts walker.Options) (TodoItemMetrics, IssueItemMetrics) {
	inline := ScanInlineTodos(dir, opts)
	return countTodoItems(dir, inline), countIssueItems(dir, inline)
}

func countTodoItems(dir string, inline InlineCounts) TodoItemMetrics {
	m := TodoItemMetrics{}
	for _, name := range matchingFiles(dir, IsTodoFile) {
		text, err := readText(filepath.Join(dir, name))
		if err != nil {
			log.Printf("warning: reading %s: %v", filepath.Join(dir, name), err)
			continue
		}
		m.Files = append(m.Files, name)
		m.Items = m.Items.Add(CountStructuredItems(text))
		m.Lines += CountLines(text)
	}

	m.Inline = InlineCounts{Todo: inline.Todo, Fixme: inline.Fixme}
	return m
}

func countIssueItems(dir string, inline InlineCounts) IssueItemMetrics {
	m := IssueItemMetrics{Metadata: NewIssueMetadata()}

	var texts []string
	for _, name := range matchingFiles(dir, IsIssueFile) {
		text, err := readText(filepath.Join(dir, name))
		if err != nil {
			log.Printf("warning: reading %s: %v", filepath.Join(dir, name), err)
			continue
		}
		m.Files = append(m.Files, name)
		m.Items = m.Items.Add(CountStructuredItems(text))
		m.Lines += CountLines(text)
		texts = append(texts, text)
	}
	if len(texts) > 0 {
		m.Metadata = ExtractIssueMetadata(strings.Join(texts, "\n"))
	}

	m.Inline = InlineCounts{Bug: inline.Bug}
	return m
}

// matchingFiles returns the names of regular files directly in dir accepted
// by match, in lexical order.
func matchingFiles(dir string, match func(string) bool) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("warning: reading directory %s: %v", dir, err)
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !match(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	return names
}

func readText(path string) (string, error) {
	data, err := ReadCapped(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadCapped reads at most MaxReadBytes from path.
func ReadCapped(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, MaxReadBytes))
}
