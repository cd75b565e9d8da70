package scanner

import (
	"bufio"
	"bytes"
	"errors"
	"io/fs"
	"log"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/robotpony/peep/internal/analyzer"
)

// DefaultMaxNameLength is used when no positive limit is configured.
const DefaultMaxNameLength = 40

// nameReadmes are tried in order when deriving a display name.
var nameReadmes = []string{"README.md", "README.markdown", "README"}

// titleRe matches a level-one ATX heading, without optional closing hashes.
var titleRe = regexp.MustCompile(`^#[ \t]+(.*?)(?:[ \t]+#+)?[ \t]*$`)

// ExtractProjectName returns the text of the first level-one markdown
// heading in the README at readmePath. ok is false if the file cannot be read
// or has no non-empty "# " heading. Headings inside fenced code blocks are
// ignored.
func ExtractProjectName(readmePath string) (string, bool) {
	data, err := analyzer.ReadCapped(readmePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("warning: reading %s: %v", readmePath, err)
		}
		return "", false
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	inFence := false
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), analyzer.MaxReadBytes+1)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if m := titleRe.FindStringSubmatch(line); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				return name, true
			}
		}
	}
	if err := sc.Err(); err != nil {
		log.Printf("warning: reading %s: %v", readmePath, err)
	}
	return "", false
}

// projectName derives the display name for the project in dir. The first
// README title wins; otherwise the directory's base name is used.
func projectName(dir string, maxLen int) string {
	for _, f := range nameReadmes {
		if name, ok := ExtractProjectName(filepath.Join(dir, f)); ok {
			return TruncateName(name, maxLen)
		}
	}
	return TruncateName(filepath.Base(dir), maxLen)
}

// TruncateName shortens name to at most maxLen runes, marking the cut with
// "...". A non-positive maxLen selects DefaultMaxNameLength.
func TruncateName(name string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxNameLength
	}
	runes := []rune(name)
	if len(runes) <= maxLen {
		return name
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
