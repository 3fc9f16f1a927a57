package repo

import (
	"fmt"
	"strings"
	"time"

	"github.com/odvcencio/grit/pkg/object"
)

// Signer signs canonical object payload bytes and returns an armored
// signature.
type Signer func(payload []byte) (string, error)

// CreateTag creates or updates a lightweight tag ref under refs/tags/.
func (r *Repo) CreateTag(name string, target object.Hash, force bool) error {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	if !r.Store.Has(target) {
		return fmt.Errorf("create tag: target %s: %w", target, object.ErrNotFound)
	}

	refName := "refs/tags/" + name
	if !force {
		if _, err := r.ResolveRef(refName); err == nil {
			return fmt.Errorf("create tag: tag %q already exists", name)
		}
	}
	if err := r.UpdateRef(refName, target); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

// AnnotatedTagOptions describes a tag object.
type AnnotatedTagOptions struct {
	Tagger  string // "Name <email>"; a timestamp is appended
	Message string
	Force   bool
	Signer  Signer // optional; the signature is appended to the message
}

// CreateAnnotatedTag writes a tag object pointing at target and points
// refs/tags/<name> at it.
func (r *Repo) CreateAnnotatedTag(name string, target object.Hash, opts AnnotatedTagOptions) (object.Hash, error) {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return "", fmt.Errorf("create annotated tag: %w", err)
	}
	message := strings.TrimSpace(opts.Message)
	if message == "" {
		return "", fmt.Errorf("create annotated tag: message is required")
	}
	tagger := strings.TrimSpace(opts.Tagger)
	if tagger == "" {
		tagger = "unknown <unknown>"
	}

	targetKind, err := r.Store.Kind(target)
	if err != nil {
		return "", fmt.Errorf("create annotated tag: read target %s: %w", target, err)
	}

	refName := "refs/tags/" + name
	if !opts.Force {
		if _, err := r.ResolveRef(refName); err == nil {
			return "", fmt.Errorf("create annotated tag: tag %q already exists", name)
		}
	}

	tag := &object.Tag{
		TargetHash: target,
		TargetKind: targetKind,
		Name:       name,
		Tagger:     signatureLine(tagger, r.now()),
		Message:    message + "\n",
	}
	if opts.Signer != nil {
		payload, err := object.TagSigningPayload(tag)
		if err != nil {
			return "", fmt.Errorf("create annotated tag: %w", err)
		}
		sig, err := opts.Signer(payload)
		if err != nil {
			return "", fmt.Errorf("create annotated tag: sign: %w", err)
		}
		tag.Message += strings.TrimRight(sig, "\n") + "\n"
	}

	tagHash, err := r.Store.Write(tag)
	if err != nil {
		return "", fmt.Errorf("create annotated tag: write tag object: %w", err)
	}
	if err := r.UpdateRef(refName, tagHash); err != nil {
		return "", fmt.Errorf("create annotated tag: %w", err)
	}
	r.logger.Debug("tag created", "name", name, "tag", tagHash, "target", target)
	return tagHash, nil
}

// DeleteTag removes a tag ref from refs/tags/.
func (r *Repo) DeleteTag(name string) error {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if err := r.DeleteRef("refs/tags/" + name); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

// ListTags lists tags sorted by name. Names are relative to refs/tags/.
func (r *Repo) ListTags() ([]Ref, error) {
	refs, err := r.ListRefs("tags")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	for i := range refs {
		refs[i].Name = strings.TrimPrefix(refs[i].Name, "refs/tags/")
	}
	return refs, nil
}

func validateTagName(name string) error {
	if name == "" {
		return fmt.Errorf("tag name is required")
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return fmt.Errorf("invalid tag name %q", name)
	}
	if strings.Contains(name, "..") || strings.HasSuffix(name, ".lock") {
		return fmt.Errorf("invalid tag name %q", name)
	}
	if strings.ContainsAny(name, " \t\n\r") {
		return fmt.Errorf("invalid tag name %q", name)
	}
	return nil
}

// signatureLine formats an identity as git stores it in author, committer
// and tagger headers: "Name <email> <unix seconds> <+hhmm>".
func signatureLine(identity string, t time.Time) string {
	return fmt.Sprintf("%s %d %s", identity, t.Unix(), formatTimezoneOffset(t))
}

func formatTimezoneOffset(t time.Time) string {
	_, offset := t.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	hours := offset / 3600
	minutes := (offset % 3600) / 60
	return fmt.Sprintf("%s%02d%02d", sign, hours, minutes)
}
