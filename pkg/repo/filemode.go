package repo

import (
	"io/fs"
	"os"

	"github.com/odvcencio/grit/pkg/object"
)

// entryFromFileInfo maps a work tree file onto a tree entry type and
// permission. Anything other than a directory, symlink or regular file is
// reported as unsupported.
func entryFromFileInfo(info fs.FileInfo) (object.FileType, string, bool) {
	mode := info.Mode()
	switch {
	case mode.IsDir():
		return object.FileTree, "0000", true
	case mode&fs.ModeSymlink != 0:
		return object.FileSymlink, "0000", true
	case mode.IsRegular():
		if mode&0o111 != 0 {
			return object.FileRegular, "0755", true
		}
		return object.FileRegular, "0644", true
	default:
		return 0, "", false
	}
}

// filePermFromEntry is the permission a checked-out regular file gets.
func filePermFromEntry(e object.TreeEntry) os.FileMode {
	if e.Perm == "0755" {
		return 0o755
	}
	return 0o644
}
