package analyzer

import (
	"regexp"
	"sort"
	"strings"
)

// Priority is a coarse urgency bucket found in issue text.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Severity weights per priority bucket. Each open structured item adds
// openItemWeight on top.
var priorityWeights = map[Priority]float64{
	PriorityHigh:   3,
	PriorityMedium: 2,
	PriorityLow:    1,
}

const openItemWeight = 1.0

// IssueMetadata is the priority/label summary of an issue document.
type IssueMetadata struct {
	Priorities    map[Priority]int `json:"priorities" yaml:"priorities"`
	Labels        []string         `json:"labels" yaml:"labels"`
	SeverityScore float64          `json:"severity_score" yaml:"severity_score"`
}

// priorityPhrase is one independently counted phrase family.
type priorityPhrase struct {
	priority Priority
	re       *regexp.Regexp
}

var priorityPhrases = []priorityPhrase{
	{PriorityHigh, regexp.MustCompile(`(?i)\bhigh[\s-]+priority\b`)},
	{PriorityHigh, regexp.MustCompile(`(?i)\burgent\b`)},
	{PriorityMedium, regexp.MustCompile(`(?i)\bmedium[\s-]+priority\b`)},
	{PriorityLow, regexp.MustCompile(`(?i)\blow[\s-]+priority\b`)},
}

var labelsCommentRe = regexp.MustCompile(`(?im)^[ \t]*<!--[ \t]*labels[ \t]*:(.*?)-->[ \t]*$`)

// NewIssueMetadata returns metadata with every priority bucket present.
func NewIssueMetadata() IssueMetadata {
	return IssueMetadata{
		Priorities: map[Priority]int{
			PriorityHigh:   0,
			PriorityMedium: 0,
			PriorityLow:    0,
		},
		Labels: []string{},
	}
}

// ExtractIssueMetadata scans issue text for priority phrases, label comments
// and unresolved checklist items, and derives a severity score from them.
func ExtractIssueMetadata(text string) IssueMetadata {
	md := NewIssueMetadata()

	for _, p := range priorityPhrases {
		md.Priorities[p.priority] += len(p.re.FindAllStringIndex(text, -1))
	}
	md.Labels = extractLabels(text)
	md.SeverityScore = severityScore(md.Priorities, CountStructuredItems(text).Open)

	return md
}

func extractLabels(text string) []string {
	seen := make(map[string]bool)
	labels := []string{}
	for _, m := range labelsCommentRe.FindAllStringSubmatch(text, -1) {
		for _, raw := range strings.Split(m[1], ",") {
			label := strings.TrimSpace(raw)
			if label == "" || seen[label] {
				continue
			}
			seen[label] = true
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	return labels
}

func severityScore(priorities map[Priority]int, open int) float64 {
	score := float64(open) * openItemWeight
	for p, n := range priorities {
		score += priorityWeights[p] * float64(n)
	}
	return score
}
