package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/odvcencio/grit/pkg/object"
)

const (
	// DotGit is the name of the repository directory inside a work tree.
	DotGit = ".git"

	defaultBranch      = "master"
	defaultDescription = "Unnamed repository; edit this file 'description' to name the repository.\n"
	maxSymrefDepth     = 10

	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second
)

var ErrNotRepository = errors.New("not a git repository")

// Init creates a new repository at path: .git/ with branches/, objects/,
// refs/heads/, refs/tags/, a description, HEAD pointing at
// refs/heads/master, and a config file. It fails if .git/ exists and is
// not empty.
func Init(path string, opts ...Option) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("init: abs path: %w", err)
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("init: %s is not a directory", abs)
	}

	gitDir := filepath.Join(abs, DotGit)
	if entries, err := os.ReadDir(gitDir); err == nil && len(entries) > 0 {
		return nil, fmt.Errorf("init: repository already exists at %s", gitDir)
	}

	dirs := []string{
		filepath.Join(gitDir, "branches"),
		filepath.Join(gitDir, "objects"),
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "refs", "tags"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	files := []struct {
		name string
		data string
	}{
		{"description", defaultDescription},
		{"HEAD", "ref: refs/heads/" + defaultBranch + "\n"},
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(gitDir, f.name), []byte(f.data), 0o644); err != nil {
			return nil, fmt.Errorf("init: write %s: %w", f.name, err)
		}
	}

	r := newRepo(abs, gitDir, opts)
	if err := r.WriteConfig(DefaultConfig()); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	r.logger.Debug("initialized repository", "gitdir", gitDir)
	return r, nil
}

// Open searches upward from path for a .git/ directory and opens the
// repository.
func Open(path string, opts ...Option) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		gitDir := filepath.Join(cur, DotGit)
		info, err := os.Stat(gitDir)
		if err == nil && info.IsDir() {
			return OpenGitDir(gitDir, cur, opts...)
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open %s: %w (or any parent up to /)", abs, ErrNotRepository)
		}
		cur = parent
	}
}

// OpenGitDir opens the repository whose metadata lives in gitDir without
// any discovery. workTree may be empty.
func OpenGitDir(gitDir, workTree string, opts ...Option) (*Repo, error) {
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("open %s: %w", gitDir, ErrNotRepository)
	}
	r := newRepo(workTree, gitDir, opts)

	cfg, err := r.ReadConfig()
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if cfg.Core.RepositoryFormatVersion != 0 {
		return nil, fmt.Errorf("open: unsupported repositoryformatversion %d", cfg.Core.RepositoryFormatVersion)
	}
	return r, nil
}

// Head reads .git/HEAD. If the content starts with "ref: ", it returns the
// ref path (e.g., "refs/heads/master"). Otherwise it returns the raw
// content as a detached hash string.
func (r *Repo) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.GitDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if target, ok := strings.CutPrefix(content, "ref: "); ok {
		return target, nil
	}
	return content, nil
}

// ResolveRef resolves a ref path relative to .git/ (e.g. "HEAD",
// "refs/tags/v1") to an object hash, following "ref: " indirection.
func (r *Repo) ResolveRef(name string) (object.Hash, error) {
	cur := name
	for depth := 0; depth < maxSymrefDepth; depth++ {
		if err := validateRefPath(cur); err != nil {
			return "", fmt.Errorf("resolve ref %q: %w", name, err)
		}
		data, err := os.ReadFile(filepath.Join(r.GitDir, filepath.FromSlash(cur)))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("resolve ref %q: %w", name, ErrNameNotFound)
			}
			return "", fmt.Errorf("resolve ref %q: %w", name, err)
		}
		content := strings.TrimSpace(string(data))
		if target, ok := strings.CutPrefix(content, "ref: "); ok {
			cur = target
			continue
		}
		h, err := object.ParseHash(content)
		if err != nil {
			return "", fmt.Errorf("resolve ref %q: %w", name, err)
		}
		return h, nil
	}
	return "", fmt.Errorf("resolve ref %q: symbolic refs nested deeper than %d", name, maxSymrefDepth)
}

func validateRefPath(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "..") {
		return fmt.Errorf("invalid ref path %q", name)
	}
	return nil
}

// UpdateRef writes a hash to the named ref file under .git/ using
// lockfile + rename. Parent directories are created as needed.
func (r *Repo) UpdateRef(name string, h object.Hash) error {
	if !h.Valid() {
		return fmt.Errorf("update ref %q: %w: %q", name, object.ErrInvalidHash, string(h))
	}
	if err := r.writeRef(name, string(h)+"\n"); err != nil {
		return err
	}
	r.logger.Debug("ref updated", "ref", name, "hash", h)
	return nil
}

// SetSymbolicRef points name at another ref, e.g. HEAD at refs/heads/main.
func (r *Repo) SetSymbolicRef(name, target string) error {
	if err := validateRefPath(target); err != nil {
		return fmt.Errorf("set symbolic ref %q: %w", name, err)
	}
	return r.writeRef(name, "ref: "+target+"\n")
}

func (r *Repo) writeRef(name, content string) error {
	if err := validateRefPath(name); err != nil {
		return fmt.Errorf("update ref %q: %w", name, err)
	}
	refPath := filepath.Join(r.GitDir, filepath.FromSlash(name))

	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}

	lockPath := refPath + ".lock"
	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return fmt.Errorf("update ref %q: lock: %w", name, err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = os.Remove(lockPath)
		}
	}()

	if _, err := lockFile.WriteString(content); err != nil {
		return fmt.Errorf("update ref %q: write: %w", name, err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return fmt.Errorf("update ref %q: close: %w", name, err)
	}
	lockFile = nil

	if err := os.Rename(lockPath, refPath); err != nil {
		return fmt.Errorf("update ref %q: rename: %w", name, err)
	}
	cleanupLock = false
	return nil
}

func acquireRefLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if os.IsExist(err) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
			}
			time.Sleep(refLockRetryDelay)
			continue
		}
		return nil, err
	}
}
