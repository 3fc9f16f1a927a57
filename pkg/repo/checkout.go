package repo

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
)

// ErrUnsafePath reports a tree entry that would be written outside the
// checkout directory.
var ErrUnsafePath = errors.New("unsafe path in tree")

// Checkout materializes the tree named by name (a commit, tree, or a tag
// that peels to one) into dest. dest must be absent or an empty directory.
// Regular files get 0644 or 0755, symlinks are recreated and submodules
// become empty directories.
//
// The first failure aborts the checkout and leaves dest partially
// populated; nothing is rolled back.
func (r *Repo) Checkout(name, dest string) error {
	treeHash, err := r.ResolveKind(name, object.KindTree)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	dest, err = filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	if err := ensureEmptyDir(dest); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	symlinks := make(map[string]struct{})
	err = r.Store.WalkTree(treeHash, func(p string, e object.TreeEntry) error {
		abs, err := checkoutPath(dest, p, e.Name, symlinks)
		if err != nil {
			return err
		}
		switch e.Type {
		case object.FileTree, object.FileSubmodule:
			return os.MkdirAll(abs, 0o755)
		case object.FileSymlink:
			blob, err := r.Store.ReadBlob(e.Hash)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			symlinks[p] = struct{}{}
			return os.Symlink(filepath.FromSlash(string(blob.Data)), abs)
		default:
			blob, err := r.Store.ReadBlob(e.Hash)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			perm := filePermFromEntry(e)
			if err := os.WriteFile(abs, blob.Data, perm); err != nil {
				return err
			}
			// WriteFile is subject to the umask.
			return os.Chmod(abs, perm)
		}
	})
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	r.logger.Debug("checked out tree", "tree", treeHash, "dest", dest)
	return nil
}

// checkoutPath maps the tree path p onto dest. It refuses entry names that
// are not a single ordinary segment, .git at any depth, paths that land
// outside dest, and paths below a symlink written earlier in the checkout.
func checkoutPath(dest, p, name string, symlinks map[string]struct{}) (string, error) {
	if name == "" || name == "." || name == ".." || strings.EqualFold(name, DotGit) ||
		strings.ContainsAny(name, "/\x00") || strings.ContainsRune(name, filepath.Separator) {
		return "", fmt.Errorf("%s: %w: unsafe entry name %q", p, ErrUnsafePath, name)
	}
	for dir := path.Dir(p); dir != "."; dir = path.Dir(dir) {
		if _, ok := symlinks[dir]; ok {
			return "", fmt.Errorf("%s: %w: below symlink %s", p, ErrUnsafePath, dir)
		}
	}
	abs := filepath.Join(dest, filepath.FromSlash(p))
	rel, err := filepath.Rel(dest, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%s: %w: outside %s", p, ErrUnsafePath, dest)
	}
	return abs, nil
}

func ensureEmptyDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return fmt.Errorf("%s is not empty", dir)
	}
	return nil
}
