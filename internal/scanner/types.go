// Package scanner provides project discovery, technology fingerprinting and
// git branch lookup over a directory tree.
package scanner

import "github.com/robotpony/peep/internal/analyzer"

// ProjectRecord summarizes one discovered project.
type ProjectRecord struct {
	// Folder is the slash-separated path relative to the scan root, or the
	// root's base name when the root itself is the project.
	Folder string `json:"folder" yaml:"folder"`

	// Name is the first README heading, or the folder's base name.
	Name string `json:"name" yaml:"name"`

	// Technologies is the ordered set of detected technology labels.
	Technologies []string `json:"technologies" yaml:"technologies"`

	Todos  analyzer.TodoItemMetrics  `json:"todo_metrics" yaml:"todo_metrics"`
	Issues analyzer.IssueItemMetrics `json:"issue_metrics" yaml:"issue_metrics"`

	// GitBranch is empty when no branch could be resolved.
	GitBranch string `json:"git_branch,omitempty" yaml:"git_branch,omitempty"`
}
