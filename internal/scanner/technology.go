package scanner

import (
	"bufio"
	"bytes"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tidwall/gjson"

	"github.com/robotpony/peep/internal/analyzer"
	"github.com/robotpony/peep/internal/walker"
)

// NotApplicable marks a project shell with no detectable technology yet.
const NotApplicable = "n/a"

// manifestLabels is checked in order; a manifest may imply several labels.
var manifestLabels = []struct {
	file   string
	labels []string
}{
	{"requirements.txt", []string{"Python"}},
	{"setup.py", []string{"Python"}},
	{"pyproject.toml", []string{"Python"}},
	{"Pipfile", []string{"Python"}},
	{"package.json", []string{"JS", "node.js"}},
	{"go.mod", []string{"Go"}},
	{"Cargo.toml", []string{"Rust"}},
	{"Gemfile", []string{"Ruby"}},
	{"pom.xml", []string{"Java"}},
	{"build.gradle", []string{"Java"}},
	{"build.gradle.kts", []string{"Java"}},
	{"composer.json", []string{"PHP"}},
	{"Package.swift", []string{"Swift"}},
	{"CMakeLists.txt", []string{"C/C++"}},
	{"mix.exs", []string{"Elixir"}},
	{"pubspec.yaml", []string{"Dart"}},
	{"deno.json", []string{"JS", "Deno"}},
}

// packageLabels maps package.json dependency names to framework labels.
var packageLabels = map[string]string{
	"react":         "react",
	"react-native":  "react-native",
	"vue":           "vue",
	"@angular/core": "angular",
	"svelte":        "svelte",
	"next":          "next.js",
	"nuxt":          "nuxt",
	"express":       "express",
	"fastify":       "fastify",
	"@nestjs/core":  "nestjs",
	"electron":      "electron",
	"typescript":    "TypeScript",
	"jquery":        "jquery",
}

var dockerFiles = []string{"Dockerfile", "docker-compose.yml", "docker-compose.yaml", "compose.yaml", "compose.yml"}

// extensionLabels infers a language from source file extensions.
var extensionLabels = map[string]string{
	".py": "Python", ".js": "JS", ".mjs": "JS", ".cjs": "JS", ".jsx": "JS",
	".ts": "TypeScript", ".tsx": "TypeScript", ".go": "Go", ".rs": "Rust",
	".rb": "Ruby", ".java": "Java", ".kt": "Kotlin", ".kts": "Kotlin",
	".scala": "Scala", ".swift": "Swift", ".c": "C/C++", ".h": "C/C++",
	".cc": "C/C++", ".cpp": "C/C++", ".hpp": "C/C++", ".cs": "C#",
	".php": "PHP", ".sh": "Shell", ".bash": "Shell", ".zsh": "Shell",
	".ex": "Elixir", ".exs": "Elixir", ".dart": "Dart", ".lua": "Lua",
	".pl": "Perl", ".r": "R", ".hs": "Haskell", ".clj": "Clojure",
	".erl": "Erlang", ".vue": "vue", ".svelte": "svelte",
}

// interpreterLabels maps a normalized shebang interpreter to a language.
var interpreterLabels = map[string]string{
	"python": "Python", "node": "JS", "deno": "JS", "bun": "JS",
	"sh": "Shell", "bash": "Shell", "zsh": "Shell", "dash": "Shell", "ksh": "Shell", "fish": "Shell",
	"ruby": "Ruby", "perl": "Perl", "php": "PHP", "lua": "Lua", "elixir": "Elixir", "rscript": "R",
}

// testFilePatterns recognize test modules inside test/ and tests/.
var testFilePatterns = []struct {
	pattern string
	label   string
}{
	{"test_*.py", "Python"},
	{"*_test.py", "Python"},
	{"*.test.js", "JS"},
	{"*.spec.js", "JS"},
	{"*.test.ts", "TypeScript"},
	{"*.spec.ts", "TypeScript"},
	{"*_test.go", "Go"},
	{"*_spec.rb", "Ruby"},
	{"*_test.rb", "Ruby"},
	{"*Test.java", "Java"},
	{"*_test.exs", "Elixir"},
	{"*_test.dart", "Dart"},
}

var testDirNames = []string{"test", "tests"}

// testDirDepth bounds the walk inside a test directory. It is independent of
// the configured scan depth.
const testDirDepth = 8

// planningFiles are documentation that makes a directory a project shell.
var planningFiles = []string{"TODO.md", "DESIGN.md", "NOTES.md", "ROADMAP.md"}

// maxShebangBytes caps the first-line read of extensionless executables.
const maxShebangBytes = 256

// TechSet is an insertion-ordered set of technology labels.
type TechSet struct {
	labels []string
	seen   map[string]bool
}

// Add appends labels not already present.
func (s *TechSet) Add(labels ...string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	for _, l := range labels {
		if l == "" || s.seen[l] {
			continue
		}
		s.seen[l] = true
		s.labels = append(s.labels, l)
	}
}

// Len returns the number of labels.
func (s *TechSet) Len() int { return len(s.labels) }

// Labels returns the labels in insertion order. It never returns nil.
func (s *TechSet) Labels() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// DetectTechnologies fingerprints the project in dir. Labels are returned in
// detection order without duplicates. NotApplicable is returned alone for a
// project shell in which nothing concrete was found.
func (d *Detector) DetectTechnologies(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("warning: reading directory %s: %v", dir, err)
		return []string{}
	}
	names := entryNames(entries)

	var techs TechSet
	for _, m := range manifestLabels {
		if names[m.file] {
			techs.Add(m.labels...)
		}
	}
	if names["package.json"] {
		techs.Add(packageJSONLabels(filepath.Join(dir, "package.json"))...)
	}
	if hasAny(names, dockerFiles) {
		techs.Add("Docker")
	}
	techs.Add(d.customLabels(names)...)
	techs.Add(treeLabels(dir, d.opts.Walk)...)
	for _, td := range testDirNames {
		if info, err := os.Stat(filepath.Join(dir, td)); err == nil && info.IsDir() {
			techs.Add(testDirLabels(filepath.Join(dir, td), d.opts.Walk.Exclude)...)
		}
	}

	if techs.Len() == 0 && (d.isProject(names) || hasAny(names, planningFiles)) {
		techs.Add(NotApplicable)
	}
	return techs.Labels()
}

// customLabels returns configured labels for custom files present in names,
// in file name order.
func (d *Detector) customLabels(names map[string]bool) []string {
	files := make([]string, 0, len(d.opts.CustomTechFiles))
	for f := range d.opts.CustomTechFiles {
		if names[f] {
			files = append(files, f)
		}
	}
	sort.Strings(files)

	var labels []string
	for _, f := range files {
		labels = append(labels, d.opts.CustomTechFiles[f]...)
	}
	return labels
}

// packageJSONLabels maps dependencies and devDependencies to framework
// labels. Any hit also implies the umbrella JS labels.
func packageJSONLabels(path string) []string {
	data, err := analyzer.ReadCapped(path)
	if err != nil {
		log.Printf("warning: reading %s: %v", path, err)
		return nil
	}
	if !gjson.ValidBytes(data) {
		log.Printf("warning: %s: malformed JSON", path)
		return nil
	}

	var labels []string
	for _, section := range []string{"dependencies", "devDependencies"} {
		gjson.GetBytes(data, section).ForEach(func(key, _ gjson.Result) bool {
			if label, ok := packageLabels[key.String()]; ok {
				labels = append(labels, label)
			}
			return true
		})
	}
	if len(labels) == 0 {
		return nil
	}
	return append([]string{"JS", "node.js"}, labels...)
}

// treeLabels infers languages from file extensions and, for executables
// whose extension says nothing, shebang lines under dir, within the bounds of
// opts.
func treeLabels(dir string, opts walker.Options) []string {
	var techs TechSet
	err := walker.WalkFiles(dir, opts, func(path string, d fs.DirEntry) error {
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if label, ok := extensionLabels[ext]; ok {
			techs.Add(label)
			return nil
		}
		// Scripts without a known extension, including dotted names such as
		// serve.cgi or release-1.2, are identified by their shebang.
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Mode().Perm()&0o111 == 0 {
			return nil
		}
		if interp := shebangInterpreter(path); interp != "" {
			techs.Add(interpreterLabels[interp])
		}
		return nil
	})
	if err != nil {
		log.Printf("warning: walking %s: %v", dir, err)
	}
	return techs.labels
}

// shebangInterpreter returns the normalized interpreter named on the first
// line of path, or "" if the file does not start with a shebang.
func shebangInterpreter(path string) string {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("warning: reading %s: %v", path, err)
		return ""
	}
	defer f.Close()

	line, err := bufio.NewReader(io.LimitReader(f, maxShebangBytes)).ReadBytes('\n')
	if err != nil && err != io.EOF {
		return ""
	}
	return parseShebang(string(bytes.TrimRight(line, "\r\n")))
}

// parseShebang extracts the interpreter from a "#!" line:
//
//	#!/usr/bin/env python3   -> python
//	#!/usr/bin/env -S node --flag -> node
//	#!/bin/bash -e           -> bash
func parseShebang(line string) string {
	rest, ok := strings.CutPrefix(line, "#!")
	if !ok {
		return ""
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}

	interp := filepath.Base(fields[0])
	if interp == "env" {
		interp = ""
		for _, f := range fields[1:] {
			if strings.HasPrefix(f, "-") || strings.Contains(f, "=") {
				continue
			}
			interp = filepath.Base(f)
			break
		}
	}
	return normalizeInterpreter(interp)
}

// normalizeInterpreter lowercases and strips version suffixes such as
// "python3.11" -> "python".
func normalizeInterpreter(interp string) string {
	interp = strings.ToLower(interp)
	return strings.TrimRight(interp, "0123456789.")
}

// testDirLabels matches test module names anywhere below a test directory.
func testDirLabels(dir string, exclude []string) []string {
	var techs TechSet
	opts := walker.Options{MaxDepth: testDirDepth, Exclude: exclude}
	err := walker.WalkFiles(dir, opts, func(_ string, d fs.DirEntry) error {
		for _, p := range testFilePatterns {
			if ok, _ := doublestar.Match(p.pattern, d.Name()); ok {
				techs.Add(p.label)
				break
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("warning: walking %s: %v", dir, err)
	}
	return techs.labels
}
