package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotpony/peep/internal/walker"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testOptions() Options {
	return Options{
		Walk: walker.Options{MaxDepth: 5, Exclude: []string{".git", "node_modules", "vendor"}},
	}
}

func TestIsProjectDirectory(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		dirs  []string
		want  bool
	}{
		{name: "empty", want: false},
		{name: "readme", files: []string{"README.md"}, want: true},
		{name: "plain readme", files: []string{"README"}, want: true},
		{name: "package.json", files: []string{"package.json"}, want: true},
		{name: "go.mod", files: []string{"go.mod"}, want: true},
		{name: "makefile", files: []string{"Makefile"}, want: true},
		{name: "git dir", dirs: []string{".git"}, want: true},
		{name: "git worktree file", files: []string{".git"}, want: true},
		{name: "mercurial", dirs: []string{".hg"}, want: true},
		{name: "unrelated files", files: []string{"notes.txt", "photo.jpg"}, want: false},
		{name: "lowercase readme", files: []string{"readme.md"}, want: false},
		{name: "marker only in subdir", dirs: []string{"sub"}, files: []string{"sub/README.md"}, want: false},
	}

	d := NewDetector(testOptions())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, sub := range tc.dirs {
				require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
			}
			for _, f := range tc.files {
				writeFile(t, dir, f, "x")
			}
			assert.Equal(t, tc.want, d.IsProjectDirectory(dir))
		})
	}
}

func TestIsProjectDirectory_CustomTechFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "flake.nix", "{}")

	assert.False(t, NewDetector(testOptions()).IsProjectDirectory(dir))

	opts := testOptions()
	opts.CustomTechFiles = map[string][]string{"flake.nix": {"Nix"}}
	assert.True(t, NewDetector(opts).IsProjectDirectory(dir))
}

func TestIsProjectDirectory_Missing(t *testing.T) {
	d := NewDetector(testOptions())
	assert.False(t, d.IsProjectDirectory(filepath.Join(t.TempDir(), "nope")))
}

func TestDetectTechnologies_Python(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "requirements.txt", "flask==2.0.0")

	assert.Contains(t, NewDetector(testOptions()).DetectTechnologies(dir), "Python")
}

func TestDetectTechnologies_PackageJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{
  "name": "web",
  "dependencies": {"react": "^18.0.0", "left-pad": "1.0.0"},
  "devDependencies": {"typescript": "^5.0.0", "@angular/core": "17"}
}`)

	got := NewDetector(testOptions()).DetectTechnologies(dir)
	assert.Equal(t, []string{"JS", "node.js", "react", "TypeScript", "angular"}, got)
}

func TestDetectTechnologies_MalformedPackageJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"dependencies": {"react": `)

	got := NewDetector(testOptions()).DetectTechnologies(dir)
	assert.Equal(t, []string{"JS", "node.js"}, got)
}

func TestDetectTechnologies_Docker(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Dockerfile", "FROM node:18")

	assert.Equal(t, []string{"Docker"}, NewDetector(testOptions()).DetectTechnologies(dir))
}

func TestDetectTechnologies_OrderedWithoutDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module x")
	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, "cmd/tool/main.go", "package main")
	writeFile(t, dir, "Dockerfile", "FROM golang")
	writeFile(t, dir, "scripts/build.sh", "#!/bin/sh")

	got := NewDetector(testOptions()).DetectTechnologies(dir)
	assert.Equal(t, []string{"Go", "Docker", "Shell"}, got)
}

func TestDetectTechnologies_CustomFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "flake.nix", "{}")
	writeFile(t, dir, "Justfile", "build:")

	opts := testOptions()
	opts.CustomTechFiles = map[string][]string{
		"flake.nix": {"Nix"},
		"Justfile":  {"just", "Nix"},
		"absent":    {"Never"},
	}
	got := NewDetector(opts).DetectTechnologies(dir)
	assert.Equal(t, []string{"just", "Nix"}, got)
}

func TestDetectTechnologies_NotApplicable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", "# Shell project")
	d := NewDetector(testOptions())

	assert.Equal(t, []string{NotApplicable}, d.DetectTechnologies(dir))

	writeFile(t, dir, "main.py", "print('hi')")
	got := d.DetectTechnologies(dir)
	assert.NotContains(t, got, NotApplicable)
	assert.Contains(t, got, "Python")
}

func TestDetectTechnologies_NotApplicableForVCSAndPlanning(t *testing.T) {
	d := NewDetector(testOptions())

	vcs := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(vcs, ".git"), 0o755))
	writeFile(t, vcs, ".git/HEAD", "ref: refs/heads/main")
	assert.Equal(t, []string{NotApplicable}, d.DetectTechnologies(vcs))

	planning := t.TempDir()
	writeFile(t, planning, "DESIGN.md", "# Design")
	assert.Equal(t, []string{NotApplicable}, d.DetectTechnologies(planning))

	unrelated := t.TempDir()
	writeFile(t, unrelated, "photo.jpg", "x")
	assert.Empty(t, d.DetectTechnologies(unrelated))
}

func TestDetectTechnologies_DepthBoundAndExcludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", "# x")
	writeFile(t, dir, "a/b/c/deep.rs", "fn main() {}")
	writeFile(t, dir, "node_modules/pkg/index.js", "")

	opts := testOptions()
	opts.Walk.MaxDepth = 2
	assert.Equal(t, []string{NotApplicable}, NewDetector(opts).DetectTechnologies(dir))

	opts.Walk.MaxDepth = 3
	assert.Equal(t, []string{"Rust"}, NewDetector(opts).DetectTechnologies(dir))
}

func TestDetectTechnologies_Shebang(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		content    string
		executable bool
		want       []string
	}{
		{"no extension", "bin/deploy", "#!/usr/bin/env python3\nprint('x')\n", true, []string{"Python"}},
		{"unknown extension", "bin/serve.cgi", "#!/usr/bin/perl\n", true, []string{"Perl"}},
		{"dotted version name", "bin/release-1.2", "#!/usr/bin/env python3\n", true, []string{"Python"}},
		{"not executable", "bin/notes", "#!/usr/bin/env ruby\n", false, []string{NotApplicable}},
		{"no shebang", "bin/data.bin2", "plain bytes\n", true, []string{NotApplicable}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "README.md", "# Tool")
			script := writeFile(t, dir, tc.file, tc.content)
			if tc.executable {
				require.NoError(t, os.Chmod(script, 0o755))
			}

			got := NewDetector(testOptions()).DetectTechnologies(dir)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDetectTechnologies_ShebangMixedTree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", "# Tools")
	for _, f := range []struct{ name, content string }{
		{"bin/release-1.2", "#!/usr/bin/env python3\n"},
		{"bin/serve.cgi", "#!/usr/bin/perl\n"},
	} {
		require.NoError(t, os.Chmod(writeFile(t, dir, f.name, f.content), 0o755))
	}

	got := NewDetector(testOptions()).DetectTechnologies(dir)
	assert.Equal(t, []string{"Python", "Perl"}, got)
}

func TestDetectTechnologies_TestDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Makefile", "all:")
	writeFile(t, dir, "tests/unit/deep/deeper/test_api.py", "")

	opts := testOptions()
	opts.Walk.MaxDepth = 1
	got := NewDetector(opts).DetectTechnologies(dir)
	assert.Equal(t, []string{"Python"}, got)
}

func TestParseShebang(t *testing.T) {
	tests := map[string]string{
		"#!/usr/bin/env python3":        "python",
		"#!/usr/bin/env python3.11 -u":  "python",
		"#!/bin/bash":                   "bash",
		"#!/bin/bash -e":                "bash",
		"#! /usr/local/bin/node":        "node",
		"#!/usr/bin/env -S deno run -A": "deno",
		"#!/usr/bin/env FOO=1 ruby":     "ruby",
		"#!":                            "",
		"# not a shebang":               "",
		"":                              "",
	}
	for line, want := range tests {
		assert.Equal(t, want, parseShebang(line), "line %q", line)
	}
}

func TestTechSet(t *testing.T) {
	var s TechSet
	assert.Equal(t, []string{}, s.Labels())

	s.Add("Go", "Docker", "Go", "")
	s.Add("Docker", "Shell")
	assert.Equal(t, []string{"Go", "Docker", "Shell"}, s.Labels())
	assert.Equal(t, 3, s.Len())
}
