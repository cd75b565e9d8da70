package analyzer

import (
	"regexp"
	"strings"
)

// ItemCounts summarizes the top-level checklist items of a markdown document.
// Total is always Completed + Open.
type ItemCounts struct {
	Total     int `json:"total" yaml:"total"`
	Completed int `json:"completed" yaml:"completed"`
	Open      int `json:"open" yaml:"open"`
}

// Add returns the element-wise sum of c and o.
func (c ItemCounts) Add(o ItemCounts) ItemCounts {
	return ItemCounts{
		Total:     c.Total + o.Total,
		Completed: c.Completed + o.Completed,
		Open:      c.Open + o.Open,
	}
}

type itemState int

const (
	stateOpen itemState = iota
	stateCompleted
)

// completionRule classifies an item's content. Rules are evaluated in order
// and the first match decides.
type completionRule struct {
	name  string
	match func(content string) bool
	state itemState
}

var (
	// A bullet at column zero followed by whitespace. Content may be empty.
	topLevelItemRe = regexp.MustCompile(`^[-*+]\s(.*)$`)
	numberedItemRe = regexp.MustCompile(`^\s*\d+\.\s`)
	// A thematic break such as "* * *" or "- - -" looks like a bullet.
	thematicBreakRe = regexp.MustCompile(`^(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,})$`)
	identifierRe    = regexp.MustCompile(`^\w+$`)

	emptyCheckboxRe   = regexp.MustCompile(`^\[ \]`)
	checkedCheckboxRe = regexp.MustCompile(`(?i)^\[x\]`)
	strikethroughRe   = regexp.MustCompile(`~~[^~]+~~`)
	doneSuffixRe      = regexp.MustCompile(`(?i)\((completed|done|finished)\)$`)
)

var checkmarks = []string{"✅", "✔️", "✔", "✓", "☑", "🗹"}

var completionRules = []completionRule{
	{name: "empty checkbox", match: emptyCheckboxRe.MatchString, state: stateOpen},
	{name: "checked checkbox", match: checkedCheckboxRe.MatchString, state: stateCompleted},
	{name: "strikethrough", match: strikethroughRe.MatchString, state: stateCompleted},
	{name: "emphasis", match: wrappedInEmphasis, state: stateCompleted},
	{name: "checkmark", match: startsWithCheckmark, state: stateCompleted},
	{name: "done suffix", match: doneSuffixRe.MatchString, state: stateCompleted},
}

// CountStructuredItems counts the top-level bullet items in text and how many
// of them are marked complete. Indented (nested) bullets, numbered items,
// headers and prose are ignored.
func CountStructuredItems(text string) ItemCounts {
	var counts ItemCounts
	text = strings.TrimPrefix(text, "\ufeff")
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		content, ok := topLevelItem(line)
		if !ok {
			continue
		}
		counts.Total++
		if classify(content) == stateCompleted {
			counts.Completed++
		} else {
			counts.Open++
		}
	}
	return counts
}

// topLevelItem returns the content of a depth-zero bullet line.
func topLevelItem(line string) (string, bool) {
	if numberedItemRe.MatchString(line) || thematicBreakRe.MatchString(line) {
		return "", false
	}
	m := topLevelItemRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func classify(content string) itemState {
	for _, rule := range completionRules {
		if rule.match(content) {
			return rule.state
		}
	}
	return stateOpen
}

// wrappedInEmphasis reports whether the whole content is a single emphasis
// span such as *done*, _done_, **done** or __done__. A bare identifier in
// underscores, like __init__, is read as code rather than emphasis.
func wrappedInEmphasis(content string) bool {
	for _, delim := range []string{"**", "__", "*", "_"} {
		if len(content) <= 2*len(delim) {
			continue
		}
		if !strings.HasPrefix(content, delim) || !strings.HasSuffix(content, delim) {
			continue
		}
		inner := content[len(delim) : len(content)-len(delim)]
		if strings.TrimSpace(inner) == "" || strings.Contains(inner, delim) {
			continue
		}
		if delim[0] == '_' && identifierRe.MatchString(inner) {
			continue
		}
		return true
	}
	return false
}

func startsWithCheckmark(content string) bool {
	for _, mark := range checkmarks {
		if strings.HasPrefix(content, mark) {
			return true
		}
	}
	return false
}

// CountLines returns the number of physical lines in text. A trailing newline
// does not start a new line.
func CountLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
