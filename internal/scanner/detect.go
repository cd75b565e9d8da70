package scanner

import (
	"io/fs"
	"log"
	"os"

	"github.com/robotpony/peep/internal/walker"
)

// readmeFiles mark a directory as a project on their own.
var readmeFiles = []string{"README.md", "README", "README.rst", "README.txt"}

// manifestFiles are build or dependency manifests that mark a project.
var manifestFiles = []string{
	"package.json", "requirements.txt", "setup.py", "pyproject.toml", "Pipfile",
	"go.mod", "Cargo.toml", "Gemfile", "pom.xml", "build.gradle", "build.gradle.kts",
	"composer.json", "Package.swift", "CMakeLists.txt", "Makefile", "mix.exs",
	"pubspec.yaml", "deno.json",
}

// vcsMarkers may be directories or, for git worktrees and submodules, files.
var vcsMarkers = []string{".git", ".hg", ".svn"}

// Options configures project and technology detection.
type Options struct {
	// Walk bounds the content walks made below a project directory.
	Walk walker.Options

	// CustomTechFiles maps a file name to the labels its presence implies.
	// Such files also mark a directory as a project.
	CustomTechFiles map[string][]string
}

// Detector decides which directories are projects and what they are built
// with. It only reads the filesystem.
type Detector struct {
	opts Options
}

// NewDetector returns a Detector using opts.
func NewDetector(opts Options) *Detector {
	return &Detector{opts: opts}
}

// IsProjectDirectory reports whether dir directly contains a README, a
// manifest, version control metadata or a configured custom technology
// file. Names are matched case-sensitively and subdirectories are not
// inspected.
func (d *Detector) IsProjectDirectory(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("warning: reading directory %s: %v", dir, err)
		return false
	}
	return d.isProject(entryNames(entries))
}

func (d *Detector) isProject(names map[string]bool) bool {
	for _, group := range [][]string{readmeFiles, manifestFiles, vcsMarkers} {
		if hasAny(names, group) {
			return true
		}
	}
	for name := range d.opts.CustomTechFiles {
		if names[name] {
			return true
		}
	}
	return false
}

func entryNames(entries []fs.DirEntry) map[string]bool {
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	return names
}

func hasAny(names map[string]bool, candidates []string) bool {
	for _, c := range candidates {
		if names[c] {
			return true
		}
	}
	return false
}
