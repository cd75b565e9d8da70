// Package walker provides bounded, filtered directory traversal shared by the
// project scanner and the content analyzers.
package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// SkipDir can be returned from a WalkDirFunc to stop descending into the
// directory being visited.
var SkipDir = filepath.SkipDir

// Options bounds a traversal.
type Options struct {
	// MaxDepth is the deepest level (0 = the root itself) that is visited.
	MaxDepth int
	// Exclude holds directory names or glob patterns. Matching directories
	// are pruned together with their subtrees. The root is never pruned.
	Exclude []string
}

// Excluded reports whether a directory with the given base name should be
// pruned.
func (o Options) Excluded(name string) bool {
	for _, pattern := range o.Exclude {
		if pattern == name {
			return true
		}
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// WalkDirFunc is called for every directory visited by WalkDirectories.
//
// path is the directory being visited, depth its level below the root and
// entries the directory's contents in lexical order.
type WalkDirFunc func(path string, depth int, entries []fs.DirEntry) error

// WalkDirectories visits root and its subdirectories depth-first, honoring
// the depth limit and exclusions in opts.
//
// Returning SkipDir from fn stops the walk from expanding that directory.
// An unreadable root is an error; unreadable subdirectories are logged and
// skipped.
func WalkDirectories(root string, opts Options, fn WalkDirFunc) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("reading directory: %w", err)
	}
	return walkDirRecursive(root, 0, entries, opts, fn)
}

func walkDirRecursive(path string, depth int, entries []fs.DirEntry, opts Options, fn WalkDirFunc) error {
	err := fn(path, depth, entries)
	if err != nil {
		// do not bubble up SkipDir, simply do not expand the directory further.
		if errors.Is(err, SkipDir) {
			return nil
		}
		return err
	}

	if depth >= opts.MaxDepth {
		return nil
	}

	for _, entry := range entries {
		if !entry.IsDir() || opts.Excluded(entry.Name()) {
			continue
		}
		child := filepath.Join(path, entry.Name())
		childEntries, err := os.ReadDir(child)
		if err != nil {
			log.Printf("warning: reading directory %s: %v", child, err)
			continue
		}
		if err := walkDirRecursive(child, depth+1, childEntries, opts, fn); err != nil {
			return err
		}
	}
	return nil
}

// FileFunc is called for every regular (non-directory) entry found by
// WalkFiles.
type FileFunc func(path string, d fs.DirEntry) error

// WalkFiles calls fn for each non-directory entry under root, within the
// bounds of opts. Returning SkipDir from fn skips the remaining files of the
// current directory and its subdirectories.
func WalkFiles(root string, opts Options, fn FileFunc) error {
	return WalkDirectories(root, opts, func(dir string, _ int, entries []fs.DirEntry) error {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if err := fn(filepath.Join(dir, entry.Name()), entry); err != nil {
				return err
			}
		}
		return nil
	})
}
