package analyzer

import (
	"bufio"
	"bytes"
	"io/fs"
	"log"
	"path/filepath"
	"regexp"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/robotpony/peep/internal/walker"
)

// InlineCounts tallies TODO, FIXME and BUG markers found in source comments.
type InlineCounts struct {
	Todo  int `json:"todo" yaml:"todo"`
	Fixme int `json:"fixme" yaml:"fixme"`
	Bug   int `json:"bug" yaml:"bug"`
}

// Sum returns the total number of inline markers.
func (c InlineCounts) Sum() int {
	return c.Todo + c.Fixme + c.Bug
}

// Add returns the element-wise sum of c and o.
func (c InlineCounts) Add(o InlineCounts) InlineCounts {
	return InlineCounts{Todo: c.Todo + o.Todo, Fixme: c.Fixme + o.Fixme, Bug: c.Bug + o.Bug}
}

// commentPrefixes maps source extensions to their line-comment prefixes.
var commentPrefixes = map[string][]string{
	".go": {"//"}, ".js": {"//"}, ".jsx": {"//"}, ".mjs": {"//"}, ".cjs": {"//"},
	".ts": {"//"}, ".tsx": {"//"}, ".java": {"//"}, ".kt": {"//"}, ".kts": {"//"},
	".scala": {"//"}, ".swift": {"//"}, ".c": {"//"}, ".h": {"//"}, ".cc": {"//"},
	".cpp": {"//"}, ".hpp": {"//"}, ".cs": {"//"}, ".rs": {"//"}, ".dart": {"//"},
	".php": {"//", "#"}, ".vue": {"//"}, ".svelte": {"//"},

	".py": {"#"}, ".rb": {"#"}, ".sh": {"#"}, ".bash": {"#"}, ".zsh": {"#"},
	".pl": {"#"}, ".r": {"#"}, ".ex": {"#"}, ".exs": {"#"}, ".toml": {"#"},
	".yaml": {"#"}, ".yml": {"#"}, ".cmake": {"#"}, ".ps1": {"#"},

	".sql": {"--"}, ".lua": {"--"}, ".hs": {"--"},
	".clj": {";"}, ".lisp": {";"}, ".el": {";"},
	".erl": {"%"}, ".tex": {"%"},
}

// skipExtensions are binary and media formats that are never scanned, even
// when a comment prefix would otherwise apply.
var skipExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".ico": true,
	".webp": true, ".svg": true, ".tiff": true, ".psd": true,
	".mp3": true, ".wav": true, ".ogg": true, ".flac": true,
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
	".zip": true, ".gz": true, ".tar": true, ".7z": true, ".rar": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".o": true, ".a": true, ".class": true,
	".jar": true, ".pyc": true, ".wasm": true, ".bin": true,
	".ttf": true, ".otf": true, ".woff": true, ".woff2": true,
}

// markerPatterns are built once per distinct prefix.
var markerPatterns = buildMarkerPatterns()

func buildMarkerPatterns() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp)
	for _, prefixes := range commentPrefixes {
		for _, p := range prefixes {
			if _, ok := out[p]; ok {
				continue
			}
			out[p] = regexp.MustCompile(regexp.QuoteMeta(p) + `\s*(TODO|FIXME|BUG)(?:[:\s]|$)`)
		}
	}
	return out
}

// IsSourceFile reports whether name has an extension the inline scanner reads.
func IsSourceFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if skipExtensions[ext] {
		return false
	}
	_, ok := commentPrefixes[ext]
	return ok
}

// ScanInlineTodos walks the source files under dir and counts comment lines
// carrying a TODO, FIXME or BUG marker. Paths matched by dir/.gitignore are
// skipped. Unreadable files are logged and ignored.
func ScanInlineTodos(dir string, opts walker.Options) InlineCounts {
	var counts InlineCounts
	gi := loadGitignore(dir)

	err := walker.WalkFiles(dir, opts, func(path string, d fs.DirEntry) error {
		if !IsSourceFile(d.Name()) {
			return nil
		}
		if gi != nil {
			if rel, err := filepath.Rel(dir, path); err == nil && gi.MatchesPath(filepath.ToSlash(rel)) {
				return nil
			}
		}
		if info, err := d.Info(); err != nil || info.Size() > MaxReadBytes {
			return nil
		}
		data, err := ReadCapped(path)
		if err != nil {
			log.Printf("warning: reading %s: %v", path, err)
			return nil
		}
		found, err := countMarkers(data, commentPrefixes[strings.ToLower(filepath.Ext(path))])
		if err != nil {
			log.Printf("warning: scanning %s: %v", path, err)
		}
		counts = counts.Add(found)
		return nil
	})
	if err != nil {
		log.Printf("warning: scanning %s for inline markers: %v", dir, err)
	}
	return counts
}

// countMarkers counts marker lines in data. Each line contributes at most
// once, attributed to the first marker it carries. On a scan error the counts
// gathered so far are returned with it.
func countMarkers(data []byte, prefixes []string) (InlineCounts, error) {
	var counts InlineCounts
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), MaxReadBytes+1)
	for sc.Scan() {
		switch markerInLine(sc.Text(), prefixes) {
		case "TODO":
			counts.Todo++
		case "FIXME":
			counts.Fixme++
		case "BUG":
			counts.Bug++
		}
	}
	return counts, sc.Err()
}

func markerInLine(line string, prefixes []string) string {
	best, bestAt := "", -1
	for _, p := range prefixes {
		if !strings.Contains(line, p) {
			continue
		}
		m := markerPatterns[p].FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		if bestAt < 0 || m[0] < bestAt {
			best, bestAt = line[m[2]:m[3]], m[0]
		}
	}
	return best
}

func loadGitignore(dir string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
