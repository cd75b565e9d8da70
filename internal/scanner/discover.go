package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/robotpony/peep/internal/analyzer"
	"github.com/robotpony/peep/internal/walker"
)

var (
	// ErrRootNotExist is returned when the scan root is missing.
	ErrRootNotExist = errors.New("does not exist")
	// ErrRootNotDir is returned when the scan root is not a directory.
	ErrRootNotDir = errors.New("is not a directory")
)

// ValidateRoot checks that root exists and is a directory and returns its
// absolute, cleaned form.
func ValidateRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s %w", root, ErrRootNotExist)
	}
	if err != nil {
		return "", fmt.Errorf("checking %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s %w", root, ErrRootNotDir)
	}
	return abs, nil
}

// ScanOptions configures a Scanner.
type ScanOptions struct {
	Options

	// MaxNameLength limits display names, in runes.
	MaxNameLength int

	// Workers bounds how many project records are built concurrently.
	// Zero uses GOMAXPROCS.
	Workers int

	// Git resolves branches. Nil disables branch lookup.
	Git *GitBranchResolver

	// Progress, if set, is called once per project found during the walk
	// and once per finished record. It may be called from several
	// goroutines.
	Progress func(ProgressEvent)
}

// ProgressEvent reports scan progress.
type ProgressEvent struct {
	// Found is true while walking; Done counts finished records afterwards.
	Found bool
	Done  int
	Total int
	Path  string
}

// Scanner finds projects below a root directory and summarizes each one.
type Scanner struct {
	opts     ScanOptions
	detector *Detector
}

// NewScanner returns a Scanner configured by opts.
func NewScanner(opts ScanOptions) *Scanner {
	return &Scanner{opts: opts, detector: NewDetector(opts.Options)}
}

// Scan validates root, walks it depth-first in lexical order and returns a
// record for each project found. A project directory is not descended into,
// so nested projects inside it are not reported separately. Records are
// returned in walk order.
func (s *Scanner) Scan(ctx context.Context, root string) ([]ProjectRecord, error) {
	root, err := ValidateRoot(root)
	if err != nil {
		return nil, err
	}

	dirs, err := s.findProjects(ctx, root)
	if err != nil {
		return nil, err
	}

	records := make([]ProjectRecord, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())

	var mu sync.Mutex
	done := 0
	for i, dir := range dirs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records[i] = s.buildRecord(gctx, root, dir)

			if s.opts.Progress != nil {
				mu.Lock()
				done++
				ev := ProgressEvent{Done: done, Total: len(dirs), Path: dir}
				mu.Unlock()
				s.opts.Progress(ev)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// findProjects returns the project directories below root in walk order.
func (s *Scanner) findProjects(ctx context.Context, root string) ([]string, error) {
	var dirs []string
	err := walker.WalkDirectories(root, s.opts.Walk, func(path string, _ int, entries []fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.detector.isProject(entryNames(entries)) {
			return nil
		}
		dirs = append(dirs, path)
		if s.opts.Progress != nil {
			s.opts.Progress(ProgressEvent{Found: true, Total: len(dirs), Path: path})
		}
		return walker.SkipDir
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return dirs, nil
}

func (s *Scanner) buildRecord(ctx context.Context, root, dir string) ProjectRecord {
	todos, issues := analyzer.CountWorkItems(dir, s.opts.Walk)
	rec := ProjectRecord{
		Folder:       folderName(root, dir),
		Name:         projectName(dir, s.opts.MaxNameLength),
		Technologies: s.detector.DetectTechnologies(dir),
		Todos:        todos,
		Issues:       issues,
	}
	if s.opts.Git != nil {
		if branch, ok := s.opts.Git.Branch(ctx, dir); ok {
			rec.GitBranch = branch
		}
	}
	return rec
}

func (s *Scanner) workers() int {
	if s.opts.Workers > 0 {
		return s.opts.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// folderName is dir relative to root with forward slashes, or root's own
// base name when dir is the root.
func folderName(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return filepath.Base(root)
	}
	return filepath.ToSlash(rel)
}
