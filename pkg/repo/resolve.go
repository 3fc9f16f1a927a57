package repo

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
)

var (
	ErrAmbiguousName = errors.New("ambiguous object name")
	ErrNameNotFound  = errors.New("object name not found")
)

const minAbbrevLen = 4

// ResolveName turns a user-supplied name into a hash. It accepts HEAD, a
// full or abbreviated (at least 4 hex digits) object hash, a ref path under
// refs/, a short tag, branch or remote-branch name, or "<rev>:<path>" for
// an entry in rev's tree. A name that matches more than one candidate is
// ErrAmbiguousName.
func (r *Repo) ResolveName(name string) (object.Hash, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("resolve %q: %w", name, ErrNameNotFound)
	}
	if name == "HEAD" {
		return r.ResolveRef("HEAD")
	}
	if rev, relPath, ok := strings.Cut(name, ":"); ok {
		return r.resolveTreePath(rev, relPath)
	}

	candidates := make(map[object.Hash]struct{})
	if isHexName(name) && len(name) >= minAbbrevLen {
		matches, err := r.Store.FindPrefix(name)
		if err != nil && !errors.Is(err, object.ErrNotFound) {
			return "", fmt.Errorf("resolve %q: %w", name, err)
		}
		for _, h := range matches {
			candidates[h] = struct{}{}
		}
	}

	for _, ref := range refCandidates(name) {
		h, err := r.ResolveRef(ref)
		if errors.Is(err, ErrNameNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w", name, err)
		}
		candidates[h] = struct{}{}
	}

	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("resolve %q: %w", name, ErrNameNotFound)
	case 1:
		for h := range candidates {
			return h, nil
		}
	}
	list := make([]string, 0, len(candidates))
	for h := range candidates {
		list = append(list, string(h))
	}
	sort.Strings(list)
	return "", fmt.Errorf("resolve %q: %w; candidates: %s", name, ErrAmbiguousName, strings.Join(list, ", "))
}

func refCandidates(name string) []string {
	if strings.HasPrefix(name, "refs/") {
		return []string{name}
	}
	return []string{
		"refs/tags/" + name,
		"refs/heads/" + name,
		"refs/remotes/" + name,
	}
}

func isHexName(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return s != ""
}

// Peel follows h until an object of kind want is reached: annotated tags
// are dereferenced to their target and a commit peels to its tree.
func (r *Repo) Peel(h object.Hash, want object.Kind) (object.Hash, error) {
	const maxPeel = 32
	for i := 0; i < maxPeel; i++ {
		kind, err := r.Store.Kind(h)
		if err != nil {
			return "", fmt.Errorf("peel %s: %w", h, err)
		}
		if kind == want {
			return h, nil
		}
		switch kind {
		case object.KindTag:
			tag, err := r.Store.ReadTag(h)
			if err != nil {
				return "", fmt.Errorf("peel %s: %w", h, err)
			}
			h = tag.TargetHash
		case object.KindCommit:
			if want != object.KindTree {
				return "", fmt.Errorf("peel %s: %w: commit cannot peel to %s", h, object.ErrKindMismatch, want)
			}
			c, err := r.Store.ReadCommit(h)
			if err != nil {
				return "", fmt.Errorf("peel %s: %w", h, err)
			}
			h = c.TreeHash
		default:
			return "", fmt.Errorf("peel %s: %w: %s cannot peel to %s", h, object.ErrKindMismatch, kind, want)
		}
	}
	return "", fmt.Errorf("peel: tag chain longer than %d", maxPeel)
}

// ResolveKind resolves name and peels the result to kind.
func (r *Repo) ResolveKind(name string, kind object.Kind) (object.Hash, error) {
	h, err := r.ResolveName(name)
	if err != nil {
		return "", err
	}
	return r.Peel(h, kind)
}
