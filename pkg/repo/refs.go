package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
)

// Ref is a named reference resolved to a hash. Name is the full path
// relative to .git, e.g. "refs/heads/master".
type Ref struct {
	Name string
	Hash object.Hash
}

// ListRefs lists references under .git/refs/<prefix>, sorted by name. The
// prefix may be given with or without the leading "refs/".
// Symbolic refs are followed; lock files and refs that cannot be resolved
// are skipped with a warning.
func (r *Repo) ListRefs(prefix string) ([]Ref, error) {
	root := filepath.Join(r.GitDir, "refs")
	dir := root
	p := strings.Trim(strings.TrimSpace(prefix), "/")
	if p == "refs" {
		p = ""
	}
	if p = strings.TrimPrefix(p, "refs/"); p != "" {
		dir = filepath.Join(root, filepath.FromSlash(p))
	}

	var refs []Ref
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), ".lock") {
			return nil
		}

		rel, err := filepath.Rel(r.GitDir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		h, err := r.ResolveRef(name)
		if err != nil {
			r.logger.Warn("skipping unreadable ref", "ref", name, "err", err)
			return nil
		}
		refs = append(refs, Ref{Name: name, Hash: h})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return refs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

// DeleteRef removes a ref file. Missing refs report ErrNameNotFound.
func (r *Repo) DeleteRef(name string) error {
	if err := validateRefPath(name); err != nil {
		return fmt.Errorf("delete ref %q: %w", name, err)
	}
	err := os.Remove(filepath.Join(r.GitDir, filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete ref %q: %w", name, ErrNameNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete ref %q: %w", name, err)
	}
	return nil
}
