package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultGitCacheSize bounds the number of directories whose branch is
// remembered.
const DefaultGitCacheSize = 4096

// RunResult is the captured output of a finished command.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner executes external commands. Tests substitute a fake.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (RunResult, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args and returns its captured output. A non-zero
// exit is reported as an error alongside the result.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (RunResult, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := RunResult{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	}
	if err != nil {
		return res, fmt.Errorf("running %s: %w", name, err)
	}
	return res, nil
}

type branchEntry struct {
	branch string
	ok     bool
}

// GitCache remembers resolved branches by absolute directory path, including
// directories that have none. It is safe for concurrent use.
type GitCache struct {
	entries *lru.Cache[string, branchEntry]
}

// NewGitCache creates a cache holding up to size entries. A non-positive
// size selects DefaultGitCacheSize.
func NewGitCache(size int) *GitCache {
	if size <= 0 {
		size = DefaultGitCacheSize
	}
	entries, err := lru.New[string, branchEntry](size)
	if err != nil {
		// Only returned for non-positive sizes.
		panic(err)
	}
	return &GitCache{entries: entries}
}

// Get returns the cached branch for path. found reports whether path has
// been resolved before; ok whether it has a branch.
func (c *GitCache) Get(path string) (branch string, ok, found bool) {
	e, found := c.entries.Get(path)
	return e.branch, e.ok, found
}

// Put records the lookup result for path.
func (c *GitCache) Put(path, branch string, ok bool) {
	c.entries.Add(path, branchEntry{branch: branch, ok: ok})
}

// Len returns the number of cached paths.
func (c *GitCache) Len() int {
	return c.entries.Len()
}

// Clear empties the cache.
func (c *GitCache) Clear() {
	c.entries.Purge()
}

// GitBranchResolver looks up the current branch of project directories.
type GitBranchResolver struct {
	cache   *GitCache
	runner  CommandRunner
	timeout time.Duration
	group   singleflight.Group
}

// NewGitBranchResolver returns a resolver backed by cache. A nil runner uses
// ExecRunner; a nil cache gets a private one.
func NewGitBranchResolver(cache *GitCache, runner CommandRunner, timeout time.Duration) *GitBranchResolver {
	if cache == nil {
		cache = NewGitCache(0)
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &GitBranchResolver{cache: cache, runner: runner, timeout: timeout}
}

// Branch returns the branch checked out in dir. ok is false when dir is not
// a git working tree, git fails or times out, or HEAD is detached. Results
// are cached per absolute path and concurrent lookups of one path share a
// single git invocation.
func (r *GitBranchResolver) Branch(ctx context.Context, dir string) (string, bool) {
	key, err := filepath.Abs(dir)
	if err != nil {
		key = filepath.Clean(dir)
	}
	if branch, ok, found := r.cache.Get(key); found {
		return branch, ok
	}

	v, _, _ := r.group.Do(key, func() (any, error) {
		if branch, ok, found := r.cache.Get(key); found {
			return branchEntry{branch: branch, ok: ok}, nil
		}
		e := r.resolve(ctx, key)
		r.cache.Put(key, e.branch, e.ok)
		return e, nil
	})
	e := v.(branchEntry)
	return e.branch, e.ok
}

func (r *GitBranchResolver) resolve(ctx context.Context, dir string) branchEntry {
	// .git is a directory in a normal clone and a file in worktrees and
	// submodules.
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		return branchEntry{}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	res, err := r.runner.Run(ctx, "git", "-C", dir, "branch", "--show-current")
	if err != nil {
		log.Printf("warning: git branch lookup in %s: %v", dir, err)
		return branchEntry{}
	}
	branch := strings.TrimSpace(res.Stdout)
	if branch == "" {
		return branchEntry{}
	}
	return branchEntry{branch: branch, ok: true}
}
