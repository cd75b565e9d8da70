package analyzer

import (
	"reflect"
	"testing"
)

func TestIsIssueFile(t *testing.T) {
	tests := map[string]bool{
		"ISSUES.md":      true,
		"issues":         true,
		"known_bugs.txt": true,
		"Bugs.markdown":  true,
		"bug-report.rst": true,
		"bug_screen.png": false,
		"issue-demo.mp4": false,
		"bugs.pdf":       false,
		"bugfix.go":      false,
		"README.md":      false,
	}
	for name, want := range tests {
		if got := IsIssueFile(name); got != want {
			t.Errorf("IsIssueFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestIsTodoFile(t *testing.T) {
	tests := map[string]bool{
		"TODO.md":  true,
		"todo.md":  true,
		"TODO":     true,
		"Todo.txt": true,
		"TASKS.md": true,
		"todos.md": false,
		"NOTES.md": false,
	}
	for name, want := range tests {
		if got := IsTodoFile(name); got != want {
			t.Errorf("IsTodoFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestCountTodoItems(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "TODO.md", "# TODOs\n\n- Task 1\n- Task 2\n")
	writeFile(t, dir, "TASKS.md", "- [x] done\n- [ ] open\n")
	writeFile(t, dir, "main.go", "// TODO: a\n// FIXME: b\n// BUG: c\n")

	m := CountTodoItems(dir, deepOpts)

	if want := (ItemCounts{Total: 4, Completed: 1, Open: 3}); m.Items != want {
		t.Errorf("Items = %+v, want %+v", m.Items, want)
	}
	if m.Lines != 6 {
		t.Errorf("Lines = %d, want 6", m.Lines)
	}
	if want := (InlineCounts{Todo: 1, Fixme: 1}); m.Inline != want {
		t.Errorf("Inline = %+v, want %+v", m.Inline, want)
	}
	if want := []string{"TASKS.md", "TODO.md"}; !reflect.DeepEqual(m.Files, want) {
		t.Errorf("Files = %v, want %v", m.Files, want)
	}
	if m.TotalItems() != 6 {
		t.Errorf("TotalItems() = %d, want 6", m.TotalItems())
	}
}

func TestCountTodoItems_NoFiles(t *testing.T) {
	m := CountTodoItems(t.TempDir(), deepOpts)
	if m.TotalItems() != 0 || m.Lines != 0 || len(m.Files) != 0 {
		t.Errorf("expected empty metrics, got %+v", m)
	}
}

func TestCountIssueItems(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ISSUES.md", "<!-- labels: ui -->\n- [ ] crash, urgent\n- [x] typo\n")
	writeFile(t, dir, "bugs.txt", "<!-- labels: backend, ui -->\n- slow query, low priority\n")
	writeFile(t, dir, "bug_screenshot.png", "- [ ] not text\n")
	writeFile(t, dir, "app.py", "# BUG: off by one\n# TODO: later\n")

	m := CountIssueItems(dir, deepOpts)

	if want := (ItemCounts{Total: 3, Completed: 1, Open: 2}); m.Items != want {
		t.Errorf("Items = %+v, want %+v", m.Items, want)
	}
	if want := (InlineCounts{Bug: 1}); m.Inline != want {
		t.Errorf("Inline = %+v, want %+v", m.Inline, want)
	}
	if want := []string{"ISSUES.md", "bugs.txt"}; !reflect.DeepEqual(m.Files, want) {
		t.Errorf("Files = %v, want %v", m.Files, want)
	}
	if want := []string{"backend", "ui"}; !reflect.DeepEqual(m.Metadata.Labels, want) {
		t.Errorf("Labels = %v, want %v", m.Metadata.Labels, want)
	}
	if m.Metadata.Priorities[PriorityHigh] != 1 || m.Metadata.Priorities[PriorityLow] != 1 {
		t.Errorf("Priorities = %v", m.Metadata.Priorities)
	}
	// 3*1 high + 1*1 low + 2 open items
	if m.Metadata.SeverityScore != 6 {
		t.Errorf("SeverityScore = %v, want 6", m.Metadata.SeverityScore)
	}
	if m.Lines != 5 {
		t.Errorf("Lines = %d, want 5", m.Lines)
	}
}

func TestCountIssueItems_NoFilesHasEmptyMetadata(t *testing.T) {
	m := CountIssueItems(t.TempDir(), deepOpts)
	if m.Metadata.Labels == nil || len(m.Metadata.Labels) != 0 {
		t.Errorf("expected empty non-nil labels, got %#v", m.Metadata.Labels)
	}
	if len(m.Metadata.Priorities) != 3 {
		t.Errorf("expected all priority buckets, got %v", m.Metadata.Priorities)
	}
}

func TestCountWorkItems_SplitsInlineMarkers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/lib.rs", "// TODO: a\n// FIXME: b\n// BUG: c\n// BUG: d\n")

	todos, issues := CountWorkItems(dir, deepOpts)
	if want := (InlineCounts{Todo: 1, Fixme: 1}); todos.Inline != want {
		t.Errorf("todo Inline = %+v, want %+v", todos.Inline, want)
	}
	if want := (InlineCounts{Bug: 2}); issues.Inline != want {
		t.Errorf("issue Inline = %+v, want %+v", issues.Inline, want)
	}
	if todos.TotalItems()+issues.TotalItems() != 4 {
		t.Errorf("markers double counted: %d + %d", todos.TotalItems(), issues.TotalItems())
	}
}
