package repo

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/odvcencio/grit/pkg/object"
)

// WriteTree snapshots dir into blob and tree objects and returns the root
// tree hash. An empty dir uses the work tree. Paths matched by the root
// .gitignore are skipped, as is .git itself. Empty directories produce no
// entry, as in git.
func (r *Repo) WriteTree(dir string) (object.Hash, error) {
	if dir == "" {
		dir = r.WorkTree
	}
	if dir == "" {
		return "", fmt.Errorf("write-tree: no directory and no work tree")
	}
	matcher, err := newIgnoreMatcher(dir)
	if err != nil {
		return "", fmt.Errorf("write-tree: %w", err)
	}
	h, _, err := r.writeTreeDir(dir, "", matcher)
	if err != nil {
		return "", fmt.Errorf("write-tree: %w", err)
	}
	return h, nil
}

// writeTreeDir returns the tree hash for abs and the number of entries it
// holds. rel is abs relative to the snapshot root, slash separated.
func (r *Repo) writeTreeDir(abs, rel string, matcher *ignoreMatcher) (object.Hash, int, error) {
	dirEntries, err := os.ReadDir(abs)
	if err != nil {
		return "", 0, err
	}

	tree := &object.Tree{}
	for _, de := range dirEntries {
		name := de.Name()
		childRel := path.Join(rel, name)
		childAbs := filepath.Join(abs, name)

		info, err := os.Lstat(childAbs)
		if err != nil {
			return "", 0, err
		}
		if matcher.Matches(childRel, info.IsDir()) {
			continue
		}
		ft, perm, ok := entryFromFileInfo(info)
		if !ok {
			r.logger.Warn("skipping unsupported file", "path", childRel, "mode", info.Mode().String())
			continue
		}

		var h object.Hash
		switch ft {
		case object.FileTree:
			sub, n, err := r.writeTreeDir(childAbs, childRel, matcher)
			if err != nil {
				return "", 0, err
			}
			if n == 0 {
				continue
			}
			h = sub
		case object.FileSymlink:
			target, err := os.Readlink(childAbs)
			if err != nil {
				return "", 0, err
			}
			if h, err = r.Store.Write(&object.Blob{Data: []byte(filepath.ToSlash(target))}); err != nil {
				return "", 0, err
			}
		default:
			data, err := os.ReadFile(childAbs)
			if err != nil {
				return "", 0, err
			}
			if h, err = r.Store.Write(&object.Blob{Data: data}); err != nil {
				return "", 0, err
			}
		}
		tree.Entries = append(tree.Entries, object.TreeEntry{Type: ft, Perm: perm, Name: name, Hash: h})
	}

	object.SortTreeEntries(tree.Entries)
	h, err := r.Store.Write(tree)
	if err != nil {
		return "", 0, err
	}
	return h, len(tree.Entries), nil
}

// LsTreeEntry is a tree entry with its path relative to the listed tree.
type LsTreeEntry struct {
	Path  string
	Entry object.TreeEntry
}

// LsTree lists the entries of the tree named by name (a tree, or a commit
// or tag that peels to one). With recursive set, subtrees are descended
// into and only their contents are listed.
func (r *Repo) LsTree(name string, recursive bool) ([]LsTreeEntry, error) {
	h, err := r.ResolveKind(name, object.KindTree)
	if err != nil {
		return nil, fmt.Errorf("ls-tree: %w", err)
	}
	if !recursive {
		tree, err := r.Store.ReadTree(h)
		if err != nil {
			return nil, fmt.Errorf("ls-tree: %w", err)
		}
		out := make([]LsTreeEntry, 0, len(tree.Entries))
		for _, e := range tree.Entries {
			out = append(out, LsTreeEntry{Path: e.Name, Entry: e})
		}
		return out, nil
	}

	var out []LsTreeEntry
	err = r.Store.WalkTree(h, func(p string, e object.TreeEntry) error {
		if e.Type != object.FileTree {
			out = append(out, LsTreeEntry{Path: p, Entry: e})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ls-tree: %w", err)
	}
	return out, nil
}
