package repo

import (
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"
)

// defaultIgnoreRules always apply, whatever .gitignore says.
var defaultIgnoreRules = []string{
	DotGit,
}

// ignoreMatcher decides which work tree paths WriteTree skips.
type ignoreMatcher struct {
	ignorer *gitignore.GitIgnore
}

// newIgnoreMatcher compiles <root>/.gitignore, if present, together with
// the default rules.
func newIgnoreMatcher(root string) (*ignoreMatcher, error) {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return &ignoreMatcher{ignorer: gitignore.CompileIgnoreLines(defaultIgnoreRules...)}, nil
	}
	ignorer, err := gitignore.CompileIgnoreFileAndLines(path, defaultIgnoreRules...)
	if err != nil {
		return nil, err
	}
	return &ignoreMatcher{ignorer: ignorer}, nil
}

// Matches reports whether rel (slash-separated, relative to the root)
// should be skipped. Directory patterns such as "build/" are tried with a
// trailing slash.
func (m *ignoreMatcher) Matches(rel string, isDir bool) bool {
	if m == nil || m.ignorer == nil {
		return false
	}
	if m.ignorer.MatchesPath(rel) {
		return true
	}
	return isDir && m.ignorer.MatchesPath(rel+"/")
}
