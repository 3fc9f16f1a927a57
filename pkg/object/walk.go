package object

import (
	"errors"
	"fmt"
)

// ErrStopWalk may be returned by a walk callback to end the walk early
// without error.
var ErrStopWalk = errors.New("stop walk")

// WalkTree calls fn for every entry below the tree root, depth first and in
// on-disk order. path is the slash-separated path of the entry relative to
// root. Subtree entries are reported before their contents.
func (s *Store) WalkTree(root Hash, fn func(path string, e TreeEntry) error) error {
	err := s.walkTree(root, "", fn)
	if errors.Is(err, ErrStopWalk) {
		return nil
	}
	return err
}

func (s *Store) walkTree(h Hash, prefix string, fn func(string, TreeEntry) error) error {
	tr, err := s.ReadTree(h)
	if err != nil {
		if prefix == "" {
			return fmt.Errorf("walk tree: %w", err)
		}
		return fmt.Errorf("walk tree %s: %w", prefix, err)
	}
	for _, e := range tr.Entries {
		path := e.Name
		if prefix != "" {
			path = prefix + "/" + e.Name
		}
		if err := fn(path, e); err != nil {
			return err
		}
		if e.Type == FileTree {
			if err := s.walkTree(e.Hash, path, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// WalkCommits visits every commit reachable from starts through parent
// links, depth first in pre-order, parents in the order they are listed.
// Each commit is visited exactly once even when several paths lead to it.
func (s *Store) WalkCommits(starts []Hash, fn func(h Hash, c *Commit) error) error {
	seen := make(map[Hash]bool)
	stack := make([]Hash, 0, len(starts))
	for i := len(starts) - 1; i >= 0; i-- {
		stack = append(stack, starts[i])
	}

	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[h] {
			continue
		}
		seen[h] = true

		c, err := s.ReadCommit(h)
		if err != nil {
			return fmt.Errorf("walk commits: %w", err)
		}
		if err := fn(h, c); err != nil {
			if errors.Is(err, ErrStopWalk) {
				return nil
			}
			return err
		}
		for i := len(c.Parents) - 1; i >= 0; i-- {
			if !seen[c.Parents[i]] {
				stack = append(stack, c.Parents[i])
			}
		}
	}
	return nil
}
