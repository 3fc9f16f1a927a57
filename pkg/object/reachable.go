package object

import (
	"fmt"
	"sort"
	"strings"
)

type objectRef struct {
	hash Hash
	want Kind
	from Hash
}

// Reachable returns every object reachable from roots by following object
// references, keyed to its kind. Each referenced object must exist and have
// the kind its referrer implies; a violation is returned as an error
// matching ErrNotFound or ErrKindMismatch. Submodule entries name commits in
// another repository and are not followed.
func (s *Store) Reachable(roots []Hash) (map[Hash]Kind, error) {
	roots = uniqueNormalizedHashes(roots)
	out := make(map[Hash]Kind, len(roots))

	stack := make([]objectRef, 0, len(roots))
	for _, h := range roots {
		stack = append(stack, objectRef{hash: h})
	}
	for len(stack) > 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := out[ref.hash]; ok {
			continue
		}

		r, err := s.Read(ref.hash)
		if err != nil {
			if ref.from != "" {
				return nil, fmt.Errorf("reachable: %s referenced by %s: %w", ref.hash, ref.from, err)
			}
			return nil, fmt.Errorf("reachable: %w", err)
		}
		if ref.want != "" && r.Kind() != ref.want {
			return nil, fmt.Errorf("reachable: %s referenced by %s: %w: got %q, want %q",
				ref.hash, ref.from, ErrKindMismatch, r.Kind(), ref.want)
		}
		out[ref.hash] = r.Kind()
		stack = append(stack, referencedObjects(ref.hash, r)...)
	}

	return out, nil
}

func referencedObjects(h Hash, r Record) []objectRef {
	switch v := r.(type) {
	case *Tag:
		return []objectRef{{hash: v.TargetHash, want: v.TargetKind, from: h}}
	case *Commit:
		refs := make([]objectRef, 0, 1+len(v.Parents))
		refs = append(refs, objectRef{hash: v.TreeHash, want: KindTree, from: h})
		for _, p := range v.Parents {
			refs = append(refs, objectRef{hash: p, want: KindCommit, from: h})
		}
		return refs
	case *Tree:
		refs := make([]objectRef, 0, len(v.Entries))
		for _, e := range v.Entries {
			if e.Type == FileSubmodule {
				continue
			}
			refs = append(refs, objectRef{hash: e.Hash, want: e.Type.ObjectKind(), from: h})
		}
		return refs
	}
	return nil
}

func uniqueNormalizedHashes(in []Hash) []Hash {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[Hash]struct{}, len(in))
	out := make([]Hash, 0, len(in))
	for _, h := range in {
		h = Hash(strings.ToLower(strings.TrimSpace(string(h))))
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
