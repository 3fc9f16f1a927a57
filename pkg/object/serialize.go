package object

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Encode serializes a record to its canonical payload (without the
// "kind len\0" envelope).
func Encode(r Record) ([]byte, error) {
	switch v := r.(type) {
	case *Blob:
		return MarshalBlob(v), nil
	case *Commit:
		return MarshalCommit(v)
	case *Tag:
		return MarshalTag(v)
	case *Tree:
		return MarshalTree(v)
	case nil:
		return nil, invalidRecordf("nil record")
	}
	return nil, invalidRecordf("unsupported record type %T", r)
}

// Decode parses a payload of the given kind.
func Decode(kind Kind, data []byte) (Record, error) {
	switch kind {
	case KindBlob:
		return UnmarshalBlob(data)
	case KindCommit:
		return UnmarshalCommit(data)
	case KindTag:
		return UnmarshalTag(data)
	case KindTree:
		return UnmarshalTree(data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
}

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// Header lines (commit, tag)
// ---------------------------------------------------------------------------

type headerField struct {
	Key    string
	Value  string
	Offset int
}

// writeHeader emits "key value\n", folding embedded newlines into "\n ".
func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteByte(' ')
	buf.WriteString(strings.ReplaceAll(value, "\n", "\n "))
	buf.WriteByte('\n')
}

func validHeaderKey(key string) bool {
	return key != "" && !strings.ContainsAny(key, " \n")
}

// parseHeaders scans "key value\n" lines up to the blank separator line and
// returns the fields in order together with the message that follows.
// A line starting with a space continues the previous value.
func parseHeaders(kind Kind, data []byte) ([]headerField, string, error) {
	var fields []headerField
	pos := 0
	for {
		if pos >= len(data) {
			return nil, "", decodeErrorf(kind, pos, "missing blank line before message")
		}
		if data[pos] == '\n' {
			return fields, string(data[pos+1:]), nil
		}

		rest := data[pos:]
		sp := bytes.IndexByte(rest, ' ')
		nl := bytes.IndexByte(rest, '\n')
		if sp < 0 || (nl >= 0 && nl < sp) {
			return nil, "", decodeErrorf(kind, pos, "header line without key")
		}
		if sp == 0 {
			return nil, "", decodeErrorf(kind, pos, "continuation line without header")
		}

		valueStart := pos + sp + 1
		end := valueStart
		for {
			i := bytes.IndexByte(data[end:], '\n')
			if i < 0 {
				return nil, "", decodeErrorf(kind, len(data), "unterminated header %q", string(rest[:sp]))
			}
			end += i
			if end+1 < len(data) && data[end+1] == ' ' {
				end++
				continue
			}
			break
		}

		value := bytes.ReplaceAll(data[valueStart:end], []byte("\n "), []byte("\n"))
		fields = append(fields, headerField{
			Key:    string(rest[:sp]),
			Value:  string(value),
			Offset: pos,
		})
		pos = end + 1
	}
}

// singleHeader records a value for a key that may appear only once.
func singleHeader(kind Kind, dst *string, seen map[string]bool, f headerField) error {
	if seen[f.Key] {
		return decodeErrorf(kind, f.Offset, "duplicate %q header", f.Key)
	}
	seen[f.Key] = true
	*dst = f.Value
	return nil
}

func parseHeaderHash(kind Kind, f headerField) (Hash, error) {
	h, err := ParseHash(f.Value)
	if err != nil || string(h) != f.Value {
		return "", decodeErrorf(kind, f.Offset, "malformed %s hash %q", f.Key, f.Value)
	}
	return h, nil
}

func validateExtra(extra []Header, reserved ...string) error {
	for _, h := range extra {
		if !validHeaderKey(h.Key) {
			return invalidRecordf("header key %q", h.Key)
		}
		for _, r := range reserved {
			if h.Key == r {
				return invalidRecordf("header %q must use its dedicated field", h.Key)
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Commit
// ---------------------------------------------------------------------------

var commitKeys = []string{"tree", "parent", "author", "committer"}

// MarshalCommit serializes a Commit:
//
//	tree H
//	parent H     (zero or more)
//	author A
//	committer C
//	<extra headers, in order>
//
//	message
func MarshalCommit(c *Commit) ([]byte, error) {
	if c == nil {
		return nil, invalidRecordf("nil commit")
	}
	if !c.TreeHash.Valid() {
		return nil, invalidRecordf("commit tree hash %q", c.TreeHash)
	}
	for _, p := range c.Parents {
		if !p.Valid() {
			return nil, invalidRecordf("commit parent hash %q", p)
		}
	}
	if strings.TrimSpace(c.Author) == "" {
		return nil, invalidRecordf("commit author is required")
	}
	if strings.TrimSpace(c.Committer) == "" {
		return nil, invalidRecordf("commit committer is required")
	}
	if c.Message == "" {
		return nil, invalidRecordf("commit message is required")
	}
	if err := validateExtra(c.Extra, commitKeys...); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writeHeader(&buf, "tree", string(c.TreeHash))
	for _, p := range c.Parents {
		writeHeader(&buf, "parent", string(p))
	}
	writeHeader(&buf, "author", c.Author)
	writeHeader(&buf, "committer", c.Committer)
	for _, h := range c.Extra {
		writeHeader(&buf, h.Key, h.Value)
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes(), nil
}

// UnmarshalCommit parses a Commit from its serialized form.
func UnmarshalCommit(data []byte) (*Commit, error) {
	fields, message, err := parseHeaders(KindCommit, data)
	if err != nil {
		return nil, err
	}

	c := &Commit{Message: message}
	seen := make(map[string]bool, 4)
	for _, f := range fields {
		switch f.Key {
		case "tree":
			if seen["tree"] {
				return nil, decodeErrorf(KindCommit, f.Offset, "duplicate tree header")
			}
			seen["tree"] = true
			if c.TreeHash, err = parseHeaderHash(KindCommit, f); err != nil {
				return nil, err
			}
		case "parent":
			p, err := parseHeaderHash(KindCommit, f)
			if err != nil {
				return nil, err
			}
			c.Parents = append(c.Parents, p)
		case "author":
			err = singleHeader(KindCommit, &c.Author, seen, f)
		case "committer":
			err = singleHeader(KindCommit, &c.Committer, seen, f)
		default:
			c.Extra = append(c.Extra, Header{Key: f.Key, Value: f.Value})
		}
		if err != nil {
			return nil, err
		}
	}
	for _, key := range []string{"tree", "author", "committer"} {
		if !seen[key] {
			return nil, decodeErrorf(KindCommit, 0, "missing %s header", key)
		}
	}
	return c, nil
}

// Header returns the first extra header with the given key.
func (c *Commit) Header(key string) (string, bool) {
	for _, h := range c.Extra {
		if h.Key == key {
			return h.Value, true
		}
	}
	return "", false
}

// ---------------------------------------------------------------------------
// Tag
// ---------------------------------------------------------------------------

var tagKeys = []string{"object", "type", "tag", "tagger"}

// MarshalTag serializes a Tag:
//
//	object H
//	type K
//	tag NAME
//	tagger T     (optional)
//	<extra headers, in order>
//
//	message
func MarshalTag(t *Tag) ([]byte, error) {
	if t == nil {
		return nil, invalidRecordf("nil tag")
	}
	if !t.TargetHash.Valid() {
		return nil, invalidRecordf("tag object hash %q", t.TargetHash)
	}
	if _, err := ParseKind(string(t.TargetKind)); err != nil {
		return nil, invalidRecordf("tag target kind %q", t.TargetKind)
	}
	if t.Name == "" || strings.ContainsAny(t.Name, " \n") {
		return nil, invalidRecordf("tag name %q", t.Name)
	}
	if t.Message == "" {
		return nil, invalidRecordf("tag message is required")
	}
	if err := validateExtra(t.Extra, tagKeys...); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writeHeader(&buf, "object", string(t.TargetHash))
	writeHeader(&buf, "type", string(t.TargetKind))
	writeHeader(&buf, "tag", t.Name)
	if t.Tagger != "" {
		writeHeader(&buf, "tagger", t.Tagger)
	}
	for _, h := range t.Extra {
		writeHeader(&buf, h.Key, h.Value)
	}
	buf.WriteByte('\n')
	buf.WriteString(t.Message)
	return buf.Bytes(), nil
}

// UnmarshalTag parses a Tag from its serialized form.
func UnmarshalTag(data []byte) (*Tag, error) {
	fields, message, err := parseHeaders(KindTag, data)
	if err != nil {
		return nil, err
	}

	t := &Tag{Message: message}
	seen := make(map[string]bool, 4)
	for _, f := range fields {
		switch f.Key {
		case "object":
			if seen["object"] {
				return nil, decodeErrorf(KindTag, f.Offset, "duplicate object header")
			}
			seen["object"] = true
			t.TargetHash, err = parseHeaderHash(KindTag, f)
		case "type":
			var kind string
			if err = singleHeader(KindTag, &kind, seen, f); err == nil {
				if t.TargetKind, err = ParseKind(kind); err != nil {
					err = decodeErrorf(KindTag, f.Offset, "unknown target type %q", kind)
				}
			}
		case "tag":
			err = singleHeader(KindTag, &t.Name, seen, f)
		case "tagger":
			err = singleHeader(KindTag, &t.Tagger, seen, f)
		default:
			t.Extra = append(t.Extra, Header{Key: f.Key, Value: f.Value})
		}
		if err != nil {
			return nil, err
		}
	}
	for _, key := range []string{"object", "type", "tag"} {
		if !seen[key] {
			return nil, decodeErrorf(KindTag, 0, "missing %s header", key)
		}
	}
	return t, nil
}

// ---------------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------------

// ParseMode splits a mode string such as "100644" or "40000" into its file
// type and 4-digit permission.
func ParseMode(mode string) (FileType, string, error) {
	switch len(mode) {
	case 5:
		mode = "0" + mode
	case 6:
	default:
		return 0, "", fmt.Errorf("mode %q: want 5 or 6 characters", mode)
	}
	t, ok := fileTypeFromPrefix(mode[:2])
	if !ok {
		return 0, "", fmt.Errorf("mode %q: unknown type prefix %q", mode, mode[:2])
	}
	perm := mode[2:]
	if !isOctal(perm) {
		return 0, "", fmt.Errorf("mode %q: permission is not octal", mode)
	}
	return t, perm, nil
}

func isOctal(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '7' {
			return false
		}
	}
	return s != ""
}

// treeSortKey is the entry name, with "/" appended for subtrees.
func treeSortKey(e TreeEntry) string {
	if e.Type == FileTree {
		return e.Name + "/"
	}
	return e.Name
}

// SortTreeEntries sorts entries in place in git's canonical order: by name,
// comparing a subtree as if its name ended in "/".
func SortTreeEntries(entries []TreeEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return treeSortKey(entries[i]) < treeSortKey(entries[j])
	})
}

// validEntryName reports whether name is a single path segment.
func validEntryName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, "/\x00")
}

func validateTreeEntry(e TreeEntry) error {
	if e.Type.Prefix() == "" {
		return invalidRecordf("tree entry %q: unknown file type %d", e.Name, e.Type)
	}
	if !validEntryName(e.Name) {
		return invalidRecordf("tree entry name %q", e.Name)
	}
	if len(e.Perm) != 4 || !isOctal(e.Perm) {
		return invalidRecordf("tree entry %q: permission %q", e.Name, e.Perm)
	}
	if !e.Hash.Valid() {
		return invalidRecordf("tree entry %q: hash %q", e.Name, e.Hash)
	}
	return nil
}

// MarshalTree serializes a Tree. Entries are written in canonical order
// regardless of their order in tr; tr itself is not modified. Each entry is
//
//	mode SP name NUL raw-digest
func MarshalTree(tr *Tree) ([]byte, error) {
	if tr == nil {
		return nil, invalidRecordf("nil tree")
	}
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	SortTreeEntries(sorted)

	var buf bytes.Buffer
	names := make(map[string]struct{}, len(sorted))
	for _, e := range sorted {
		if err := validateTreeEntry(e); err != nil {
			return nil, err
		}
		if _, dup := names[e.Name]; dup {
			return nil, invalidRecordf("duplicate tree entry %q", e.Name)
		}
		names[e.Name] = struct{}{}
		raw, _ := e.Hash.Raw()
		buf.WriteString(e.Mode())
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

// UnmarshalTree parses a Tree, keeping entries in on-disk order.
func UnmarshalTree(data []byte) (*Tree, error) {
	tr := &Tree{}
	names := make(map[string]struct{})
	pos := 0
	for pos < len(data) {
		sp := bytes.IndexByte(data[pos:], ' ')
		if sp < 0 {
			return nil, decodeErrorf(KindTree, pos, "entry mode without separator")
		}
		t, perm, err := ParseMode(string(data[pos : pos+sp]))
		if err != nil {
			return nil, decodeErrorf(KindTree, pos, "%v", err)
		}

		nameStart := pos + sp + 1
		nul := bytes.IndexByte(data[nameStart:], 0)
		if nul < 0 {
			return nil, decodeErrorf(KindTree, nameStart, "entry name without terminator")
		}
		name := string(data[nameStart : nameStart+nul])
		if !validEntryName(name) {
			return nil, decodeErrorf(KindTree, nameStart, "invalid entry name %q", name)
		}
		if _, dup := names[name]; dup {
			return nil, decodeErrorf(KindTree, nameStart, "duplicate entry name %q", name)
		}
		names[name] = struct{}{}

		hashStart := nameStart + nul + 1
		if len(data)-hashStart < HashSize {
			return nil, decodeErrorf(KindTree, hashStart, "truncated digest for %q", name)
		}
		h, _ := HashFromRaw(data[hashStart : hashStart+HashSize])

		tr.Entries = append(tr.Entries, TreeEntry{
			Type: t,
			Perm: perm,
			Name: name,
			Hash: h,
		})
		pos = hashStart + HashSize
	}
	return tr, nil
}

// Entry returns the entry with the given name.
func (tr *Tree) Entry(name string) (TreeEntry, bool) {
	for _, e := range tr.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return TreeEntry{}, false
}
