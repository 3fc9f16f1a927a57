package repo

import (
	"fmt"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
)

// TreeEntryAtPath finds the entry at a slash-separated path below
// treeHash. found is false when any component is missing or a non-final
// component is not a tree.
func (r *Repo) TreeEntryAtPath(treeHash object.Hash, relPath string) (entry object.TreeEntry, found bool, err error) {
	relPath = strings.Trim(relPath, "/")
	if relPath == "" {
		return object.TreeEntry{}, false, fmt.Errorf("tree lookup: empty path")
	}
	parts := strings.Split(relPath, "/")
	current := treeHash

	for i, part := range parts {
		treeObj, err := r.Store.ReadTree(current)
		if err != nil {
			return object.TreeEntry{}, false, fmt.Errorf("read tree %s: %w", current, err)
		}
		entry, found = treeObj.Entry(part)
		if !found {
			return object.TreeEntry{}, false, nil
		}
		if i == len(parts)-1 {
			return entry, true, nil
		}
		if entry.Type != object.FileTree {
			return object.TreeEntry{}, false, nil
		}
		current = entry.Hash
	}
	return object.TreeEntry{}, false, nil
}

// resolveTreePath handles "<rev>:<path>", naming the object at path in the
// tree of rev.
func (r *Repo) resolveTreePath(rev, relPath string) (object.Hash, error) {
	if rev == "" {
		rev = "HEAD"
	}
	tree, err := r.ResolveKind(rev, object.KindTree)
	if err != nil {
		return "", err
	}
	if strings.Trim(relPath, "/") == "" {
		return tree, nil
	}
	entry, found, err := r.TreeEntryAtPath(tree, relPath)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("resolve %s:%s: %w", rev, relPath, ErrNameNotFound)
	}
	return entry.Hash, nil
}
