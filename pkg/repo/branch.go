package repo

import (
	"fmt"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
)

// CreateBranch points refs/heads/<name> at a commit. It fails if the
// branch exists unless force is set.
func (r *Repo) CreateBranch(name string, target object.Hash, force bool) error {
	if err := validateBranchName(name); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	if err := r.expectKind(target, object.KindCommit); err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	refName := "refs/heads/" + name
	if !force {
		if _, err := r.ResolveRef(refName); err == nil {
			return fmt.Errorf("create branch: branch %q already exists", name)
		}
	}
	if err := r.UpdateRef(refName, target); err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	return nil
}

// DeleteBranch removes refs/heads/<name>. The branch HEAD points at cannot
// be deleted.
func (r *Repo) DeleteBranch(name string) error {
	if err := validateBranchName(name); err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	current, err := r.CurrentBranch()
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if current == name {
		return fmt.Errorf("delete branch: cannot delete current branch %q", name)
	}
	if err := r.DeleteRef("refs/heads/" + name); err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	return nil
}

// ListBranches returns branches sorted by name, relative to refs/heads/.
func (r *Repo) ListBranches() ([]Ref, error) {
	refs, err := r.ListRefs("heads")
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	for i := range refs {
		refs[i].Name = strings.TrimPrefix(refs[i].Name, "refs/heads/")
	}
	return refs, nil
}

// CurrentBranch reads HEAD and returns the branch name if HEAD is a symbolic
// ref (e.g. "ref: refs/heads/master" → "master"). If HEAD is detached it
// returns "".
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("current branch: %w", err)
	}
	const prefix = "refs/heads/"
	if strings.HasPrefix(head, prefix) {
		return strings.TrimPrefix(head, prefix), nil
	}
	return "", nil
}

func validateBranchName(name string) error {
	if name == "" || name == "HEAD" {
		return fmt.Errorf("invalid branch name %q", name)
	}
	return validateTagName(name)
}
