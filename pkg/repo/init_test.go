package repo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/grit/pkg/object"
)

// Hashes git produces for the tree written by writeFixture and for
// commits and tags built on it by "Ada Lovelace <ada@example.com>" at
// fixedTime.
const (
	fixtureTree    = object.Hash("19f6c482f1313222ab40180b49dd0b030a81f31e")
	helloBlob      = object.Hash("95d09f2b10159347eece71399a7e2e907ea3df4f")
	rootCommitHash = object.Hash("6dc272c44a96b204db08e0085e10a7a6c86705ca")
	childCommit    = object.Hash("36a214fc5bd6ac8076232b941a67a02962b81ea1")
	releaseTagHash = object.Hash("b7fedf2a070e0668f55d9d653b7fd90db27686b9")
	ada            = "Ada Lovelace <ada@example.com>"
)

var fixedTime = time.Unix(1700000000, 0).UTC()

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Init(t.TempDir(), WithClock(func() time.Time { return fixedTime }))
	require.NoError(t, err)
	return r
}

// writeFixture lays out:
//
//	hello.txt  "hello world"
//	foo.txt    "dot\n"
//	foo/bar.txt "inner\n"
//	run.sh     "#!/bin/sh\n" (executable)
//	link       -> hello.txt
func writeFixture(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "foo"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hello world"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "foo.txt"), []byte("dot\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "foo", "bar.txt"), []byte("inner\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.Chmod(filepath.Join(dir, "run.sh"), 0o755))
	require.NoError(t, os.Symlink("hello.txt", filepath.Join(dir, "link")))
}

// commitFixture writes the fixture into the work tree and creates the root
// and child commits.
func commitFixture(t *testing.T, r *Repo) (root, child object.Hash) {
	t.Helper()
	writeFixture(t, r.WorkTree)
	tree, err := r.WriteTree("")
	require.NoError(t, err)
	require.Equal(t, fixtureTree, tree)

	root, err = r.CommitTree(CommitOptions{Tree: tree, Author: ada, Message: "initial\n"})
	require.NoError(t, err)
	child, err = r.CommitTree(CommitOptions{Tree: tree, Parents: []object.Hash{root}, Author: ada, Message: "second\n\nbody line\n"})
	require.NoError(t, err)
	return root, child
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()

	r, err := Init(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, r.WorkTree)
	gitDir := filepath.Join(dir, ".git")
	assert.Equal(t, gitDir, r.GitDir)

	for _, d := range []string{"branches", "objects", "refs/heads", "refs/tags"} {
		assert.DirExists(t, filepath.Join(gitDir, filepath.FromSlash(d)))
	}
	assert.FileExists(t, filepath.Join(gitDir, "description"))

	head, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	require.NoError(t, err)
	assert.Equal(t, "ref: refs/heads/master\n", string(head))

	var cfg Config
	_, err = toml.DecodeFile(filepath.Join(gitDir, "config"), &cfg)
	require.NoError(t, err)
	assert.Equal(t, *DefaultConfig(), cfg)
	assert.NotNil(t, r.Store)
}

func TestInit_ExistingRepo_Error(t *testing.T) {
	dir := t.TempDir()
	_, err := Init(dir)
	require.NoError(t, err)

	_, err = Init(dir)
	assert.Error(t, err)
}

func TestInit_EmptyGitDirAllowed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

	_, err := Init(dir)
	assert.NoError(t, err)
}

func TestInit_PathIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := Init(path)
	assert.Error(t, err)
}

func TestOpen_FromSubdirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := Init(dir)
	require.NoError(t, err)
	sub := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	r, err := Open(sub)
	require.NoError(t, err)
	assert.Equal(t, dir, r.WorkTree)
	assert.Equal(t, filepath.Join(dir, ".git"), r.GitDir)
}

func TestOpen_NotARepository(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestOpen_RejectsUnknownFormatVersion(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	require.NoError(t, err)
	require.NoError(t, r.WriteConfig(&Config{Core: CoreConfig{RepositoryFormatVersion: 1}}))

	_, err = Open(dir)
	assert.Error(t, err)
}

func TestOpen_IgnoresNonTOMLConfig(t *testing.T) {
	dir := t.TempDir()
	_, err := Init(dir)
	require.NoError(t, err)
	gitStyle := "[core]\n\tbare = false\n[remote \"origin\"]\n\turl = git@example.com:x.git\n\tfetch = +refs/heads/*:refs/remotes/origin/*\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "config"), []byte(gitStyle), 0o644))

	r, err := Open(dir)
	require.NoError(t, err)
	cfg, err := r.ReadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestHead_SymbolicAndDetached(t *testing.T) {
	r := newTestRepo(t)
	head, err := r.Head()
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/master", head)

	require.NoError(t, r.UpdateRef("HEAD", helloBlob))
	head, err = r.Head()
	require.NoError(t, err)
	assert.Equal(t, string(helloBlob), head)
}

func TestResolveRef_FollowsSymbolicRefs(t *testing.T) {
	r := newTestRepo(t)
	root, _ := commitFixture(t, r)

	_, err := r.ResolveRef("HEAD")
	assert.ErrorIs(t, err, ErrNameNotFound)

	require.NoError(t, r.UpdateRef("refs/heads/master", root))
	h, err := r.ResolveRef("HEAD")
	require.NoError(t, err)
	assert.Equal(t, root, h)

	require.NoError(t, r.SetSymbolicRef("HEAD", "refs/heads/main"))
	require.NoError(t, r.UpdateRef("refs/heads/main", root))
	h, err = r.ResolveRef("HEAD")
	require.NoError(t, err)
	assert.Equal(t, root, h)
}

func TestResolveRef_SymbolicLoop(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, r.SetSymbolicRef("refs/heads/a", "refs/heads/b"))
	require.NoError(t, r.SetSymbolicRef("refs/heads/b", "refs/heads/a"))

	_, err := r.ResolveRef("refs/heads/a")
	assert.Error(t, err)
}

func TestUpdateRef_RejectsBadInput(t *testing.T) {
	r := newTestRepo(t)
	assert.ErrorIs(t, r.UpdateRef("refs/heads/x", "nothex"), object.ErrInvalidHash)
	assert.Error(t, r.UpdateRef("../escape", helloBlob))
	assert.Error(t, r.UpdateRef("/abs", helloBlob))
}

func TestUpdateRef_LeavesNoLockFile(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, r.UpdateRef("refs/heads/topic/x", helloBlob))

	_, err := os.Stat(filepath.Join(r.GitDir, "refs", "heads", "topic", "x.lock"))
	assert.True(t, os.IsNotExist(err))
	data, err := os.ReadFile(filepath.Join(r.GitDir, "refs", "heads", "topic", "x"))
	require.NoError(t, err)
	assert.Equal(t, string(helloBlob)+"\n", string(data))
}

func TestListRefs_SortedAndResolved(t *testing.T) {
	r := newTestRepo(t)
	root, child := commitFixture(t, r)
	require.NoError(t, r.UpdateRef("refs/heads/master", child))
	require.NoError(t, r.UpdateRef("refs/heads/dev", root))
	require.NoError(t, r.SetSymbolicRef("refs/heads/alias", "refs/heads/dev"))
	require.NoError(t, r.CreateTag("v0", root, false))

	refs, err := r.ListRefs("")
	require.NoError(t, err)
	assert.Equal(t, []Ref{
		{Name: "refs/heads/alias", Hash: root},
		{Name: "refs/heads/dev", Hash: root},
		{Name: "refs/heads/master", Hash: child},
		{Name: "refs/tags/v0", Hash: root},
	}, refs)

	heads, err := r.ListRefs("heads")
	require.NoError(t, err)
	assert.Len(t, heads, 3)

	none, err := r.ListRefs("remotes")
	require.NoError(t, err)
	assert.Empty(t, none)
}
