package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
)

// CommitOptions describes a commit to create with CommitTree.
type CommitOptions struct {
	Tree      object.Hash
	Parents   []object.Hash
	Author    string // "Name <email>"; a timestamp is appended
	Committer string // defaults to Author
	Message   string
	Signer    Signer // optional; the signature goes in the gpgsig header
}

// CommitTree writes a commit object for an existing tree and returns its
// hash. The tree and every parent must already be in the store with the
// right kind. No ref is moved.
func (r *Repo) CommitTree(opts CommitOptions) (object.Hash, error) {
	if err := r.expectKind(opts.Tree, object.KindTree); err != nil {
		return "", fmt.Errorf("commit-tree: tree: %w", err)
	}
	for _, p := range opts.Parents {
		if err := r.expectKind(p, object.KindCommit); err != nil {
			return "", fmt.Errorf("commit-tree: parent: %w", err)
		}
	}

	author := strings.TrimSpace(opts.Author)
	if author == "" {
		author = "unknown <unknown>"
	}
	committer := strings.TrimSpace(opts.Committer)
	if committer == "" {
		committer = author
	}
	message := opts.Message
	if !strings.HasSuffix(message, "\n") {
		message += "\n"
	}

	now := r.now()
	c := &object.Commit{
		TreeHash:  opts.Tree,
		Parents:   append([]object.Hash(nil), opts.Parents...),
		Author:    signatureLine(author, now),
		Committer: signatureLine(committer, now),
		Message:   message,
	}
	if opts.Signer != nil {
		payload, err := object.CommitSigningPayload(c)
		if err != nil {
			return "", fmt.Errorf("commit-tree: %w", err)
		}
		sig, err := opts.Signer(payload)
		if err != nil {
			return "", fmt.Errorf("commit-tree: sign commit: %w", err)
		}
		c.Extra = append(c.Extra, object.Header{Key: object.SignatureHeader, Value: strings.TrimRight(sig, "\n")})
	}

	h, err := r.Store.Write(c)
	if err != nil {
		return "", fmt.Errorf("commit-tree: write commit: %w", err)
	}
	r.logger.Debug("commit written", "hash", h, "tree", opts.Tree, "parents", len(opts.Parents))
	return h, nil
}

func (r *Repo) expectKind(h object.Hash, want object.Kind) error {
	got, err := r.Store.Kind(h)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: %s is a %s, want %s", object.ErrKindMismatch, h, got, want)
	}
	return nil
}

// LogEntry is one commit produced by Log.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.Commit
}

// Log walks the commit history reachable from starts, depth first over all
// parents, returning at most limit commits (limit <= 0 means no limit).
// Each commit appears once.
func (r *Repo) Log(starts []object.Hash, limit int) ([]LogEntry, error) {
	var entries []LogEntry
	err := r.Store.WalkCommits(starts, func(h object.Hash, c *object.Commit) error {
		entries = append(entries, LogEntry{Hash: h, Commit: c})
		if limit > 0 && len(entries) >= limit {
			return object.ErrStopWalk
		}
		return nil
	})
	if err != nil && !errors.Is(err, object.ErrStopWalk) {
		return nil, fmt.Errorf("log: %w", err)
	}
	return entries, nil
}
