package object

import "fmt"

// Hash is a 40-character lowercase hex-encoded SHA-1 digest.
type Hash string

// Kind identifies the kind of object stored.
type Kind string

const (
	KindBlob   Kind = "blob"
	KindCommit Kind = "commit"
	KindTag    Kind = "tag"
	KindTree   Kind = "tree"
)

// ParseKind maps a framed kind tag to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindBlob, KindCommit, KindTag, KindTree:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// FileType is the type half of a tree entry mode.
type FileType uint8

const (
	FileTree FileType = iota + 1
	FileRegular
	FileSymlink
	FileSubmodule
)

// Prefix returns the two-character mode prefix written to disk.
func (t FileType) Prefix() string {
	switch t {
	case FileTree:
		return "04"
	case FileRegular:
		return "10"
	case FileSymlink:
		return "12"
	case FileSubmodule:
		return "16"
	}
	return ""
}

// ObjectKind is the kind of object an entry of this type points at.
func (t FileType) ObjectKind() Kind {
	switch t {
	case FileTree:
		return KindTree
	case FileSubmodule:
		return KindCommit
	}
	return KindBlob
}

func (t FileType) String() string {
	switch t {
	case FileTree:
		return "tree"
	case FileRegular:
		return "file"
	case FileSymlink:
		return "symlink"
	case FileSubmodule:
		return "submodule"
	}
	return fmt.Sprintf("FileType(%d)", uint8(t))
}

func fileTypeFromPrefix(p string) (FileType, bool) {
	switch p {
	case "04":
		return FileTree, true
	case "10":
		return FileRegular, true
	case "12":
		return FileSymlink, true
	case "16":
		return FileSubmodule, true
	}
	return 0, false
}

// Record is one of *Blob, *Commit, *Tree or *Tag.
type Record interface {
	Kind() Kind
	record()
}

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

// Header is a key/value line of a commit or tag that the codec does not
// interpret, such as gpgsig, mergetag or encoding.
type Header struct {
	Key   string
	Value string
}

// Commit points to a tree and zero or more parents.
// Author and Committer are the full identity lines, e.g.
// "Ada Lovelace <ada@example.com> 1700000000 +0000".
type Commit struct {
	TreeHash  Hash
	Parents   []Hash
	Author    string
	Committer string
	Extra     []Header
	Message   string
}

// Tag is an annotated tag pointing at an object of any kind.
type Tag struct {
	TargetHash Hash
	TargetKind Kind
	Name       string
	Tagger     string
	Extra      []Header
	Message    string
}

// TreeEntry is one entry in a tree object.
type TreeEntry struct {
	Type FileType
	Perm string // exactly 4 octal digits, e.g. "0644"; decode always yields 4
	Name string
	Hash Hash
}

// Mode returns the canonical mode string written to disk ("100644", "40000").
func (e TreeEntry) Mode() string {
	mode := e.Type.Prefix() + e.Perm
	if len(mode) == 6 && mode[0] == '0' {
		return mode[1:]
	}
	return mode
}

// Tree holds entries in canonical order (see SortTreeEntries).
type Tree struct {
	Entries []TreeEntry
}

func (*Blob) Kind() Kind   { return KindBlob }
func (*Commit) Kind() Kind { return KindCommit }
func (*Tag) Kind() Kind    { return KindTag }
func (*Tree) Kind() Kind   { return KindTree }

func (*Blob) record()   {}
func (*Commit) record() {}
func (*Tag) record()    {}
func (*Tree) record()   {}
