package main

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// isolateEnv points config lookups at an empty home and fixes the identity.
func isolateEnv(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))
	t.Setenv("GRIT_USER_NAME", "Ada Lovelace")
	t.Setenv("GRIT_USER_EMAIL", "ada@example.com")
	t.Setenv("GRIT_LOG_LEVEL", "")
	t.Setenv("GRIT_SIGNING_KEY", "")
}

func runGrit(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "-C", dir))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runGrit(t, dir, "", args...)
	require.NoError(t, err, "grit %s\noutput:\n%s", strings.Join(args, " "), out)
	return out
}

func newCLIRepo(t *testing.T) string {
	t.Helper()
	isolateEnv(t)
	dir := t.TempDir()
	mustRun(t, dir, "init")
	return dir
}

func writeKey(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "grit test")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

func TestVersionCmd(t *testing.T) {
	isolateEnv(t)
	out := mustRun(t, t.TempDir(), "version")
	assert.Equal(t, version+"\n", out)
}

func TestInitCmd(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	out := mustRun(t, dir, "init", "proj")
	assert.Contains(t, out, filepath.Join(dir, "proj", ".git"))
	assert.DirExists(t, filepath.Join(dir, "proj", ".git", "objects"))

	_, err := runGrit(t, dir, "", "init", "proj")
	assert.Error(t, err)
}

func TestHashObjectAndCatFile(t *testing.T) {
	dir := newCLIRepo(t)

	out, err := runGrit(t, dir, "hello world", "hash-object", "--stdin")
	require.NoError(t, err)
	assert.Equal(t, "95d09f2b10159347eece71399a7e2e907ea3df4f\n", out)
	_, err = runGrit(t, dir, "", "cat-file", "-t", "95d09f2b")
	assert.Error(t, err, "hash-object without -w must not store")

	_, err = runGrit(t, dir, "hello world", "hash-object", "-w", "--stdin")
	require.NoError(t, err)
	assert.Equal(t, "blob\n", mustRun(t, dir, "cat-file", "-t", "95d09f2b"))
	assert.Equal(t, "11\n", mustRun(t, dir, "cat-file", "-s", "95d09f2b"))
	assert.Equal(t, "hello world", mustRun(t, dir, "cat-file", "-p", "95d09f2b"))
	assert.Equal(t, "hello world", mustRun(t, dir, "cat-file", "blob", "95d09f2b"))

	_, err = runGrit(t, dir, "", "cat-file", "-t", "-s", "95d09f2b")
	assert.Error(t, err)
}

func TestHashObjectRejectsMalformedPayload(t *testing.T) {
	dir := newCLIRepo(t)
	_, err := runGrit(t, dir, "not a commit", "hash-object", "-t", "commit", "--stdin")
	assert.Error(t, err)
}

func writeCLIFixture(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "foo"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hello world"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "foo.txt"), []byte("dot\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "foo", "bar.txt"), []byte("inner\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.Chmod(filepath.Join(dir, "run.sh"), 0o755))
	require.NoError(t, os.Symlink("hello.txt", filepath.Join(dir, "link")))
}

func TestWriteTreeLsTreeAndCatFileTree(t *testing.T) {
	dir := newCLIRepo(t)
	writeCLIFixture(t, dir)

	out := mustRun(t, dir, "write-tree")
	assert.Equal(t, "19f6c482f1313222ab40180b49dd0b030a81f31e\n", out)

	want := strings.Join([]string{
		"100644 blob a2373c722dedbf05f6669eba1ea044484213d03d\tfoo.txt",
		"040000 tree 9917e8b8d81d12f5e01f7e8c726202263767d083\tfoo",
		"100644 blob 95d09f2b10159347eece71399a7e2e907ea3df4f\thello.txt",
		"120000 blob a5162f80d4a6782b7cb2a0a197f834e683cb9eb1\tlink",
		"100755 blob 1a2485251c33a70432394c93fb89330ef214bfc9\trun.sh",
	}, "\n") + "\n"
	assert.Equal(t, want, mustRun(t, dir, "ls-tree", "19f6c482"))
	assert.Equal(t, want, mustRun(t, dir, "cat-file", "-p", "19f6c482"))

	names := mustRun(t, dir, "ls-tree", "-r", "--name-only", "19f6c482")
	assert.Equal(t, "foo.txt\nfoo/bar.txt\nhello.txt\nlink\nrun.sh\n", names)
}

func TestCommitTreeLogAndCheckout(t *testing.T) {
	dir := newCLIRepo(t)
	writeCLIFixture(t, dir)
	tree := strings.TrimSpace(mustRun(t, dir, "write-tree"))

	root := strings.TrimSpace(mustRun(t, dir, "commit-tree", tree, "-m", "initial", "--update-ref", "refs/heads/master"))
	out, err := runGrit(t, dir, "second\n\nbody line\n", "commit-tree", tree, "-p", root, "--update-ref", "refs/heads/master")
	require.NoError(t, err)
	child := strings.TrimSpace(out)

	assert.Equal(t, child+"\n", mustRun(t, dir, "rev-parse", "HEAD"))
	assert.Equal(t, tree+"\n", mustRun(t, dir, "rev-parse", "--type", "tree", "master"))

	oneline := mustRun(t, dir, "log", "--format", "oneline")
	assert.Equal(t, child[:8]+" second\n"+root[:8]+" initial\n", oneline)

	medium := mustRun(t, dir, "log", "-n", "1")
	assert.Contains(t, medium, "commit "+child+"\n")
	assert.Contains(t, medium, "Author: Ada Lovelace <ada@example.com>\n")
	assert.Contains(t, medium, "    second\n\n    body line\n")
	assert.NotContains(t, medium, root)

	graph := mustRun(t, dir, "log", "--format", "graphviz")
	assert.True(t, strings.HasPrefix(graph, "digraph gritlog {\n"))
	assert.Contains(t, graph, "\tc_"+child+" -> c_"+root+";\n")
	assert.Contains(t, graph, "\t\"c_"+root+"\" [label=\""+root[:8]+"\\ninitial\", shape=rect];\n")

	_, err = runGrit(t, dir, "", "log", "--format", "fancy")
	assert.Error(t, err)

	dest := filepath.Join(t.TempDir(), "co")
	mustRun(t, dir, "checkout", "master", dest)
	data, err := os.ReadFile(filepath.Join(dest, "foo", "bar.txt"))
	require.NoError(t, err)
	assert.Equal(t, "inner\n", string(data))
}

func TestTagAndShowRef(t *testing.T) {
	dir := newCLIRepo(t)
	writeCLIFixture(t, dir)
	tree := strings.TrimSpace(mustRun(t, dir, "write-tree"))
	commit := strings.TrimSpace(mustRun(t, dir, "commit-tree", tree, "-m", "initial", "--update-ref", "refs/heads/master"))

	mustRun(t, dir, "tag", "light")
	tagObj := strings.TrimSpace(mustRun(t, dir, "tag", "-m", "release", "v1", "master"))

	tags := mustRun(t, dir, "tag")
	assert.Equal(t, commit+" light\n"+tagObj+" v1\n", tags)
	assert.Equal(t, "tag\n", mustRun(t, dir, "cat-file", "-t", "v1"))
	assert.Equal(t, commit+"\n", mustRun(t, dir, "rev-parse", "--type", "commit", "v1"))

	refs := mustRun(t, dir, "show-ref", "--head")
	assert.Equal(t, commit+" HEAD\n"+commit+" refs/heads/master\n"+commit+" refs/tags/light\n"+tagObj+" refs/tags/v1\n", refs)
	assert.Equal(t, commit+" refs/heads/master\n", mustRun(t, dir, "show-ref", "refs/heads"))

	mustRun(t, dir, "tag", "-d", "light")
	assert.Equal(t, tagObj+" v1\n", mustRun(t, dir, "tag"))
}

func TestSignedCommitAndTag(t *testing.T) {
	dir := newCLIRepo(t)
	writeCLIFixture(t, dir)
	key := writeKey(t)
	tree := strings.TrimSpace(mustRun(t, dir, "write-tree"))

	commit := strings.TrimSpace(mustRun(t, dir, "commit-tree", tree, "-m", "signed", "-S", "--key", key))
	out := mustRun(t, dir, "verify-commit", commit)
	assert.Contains(t, out, "Good signature on "+commit)
	assert.Contains(t, out, "SHA256:")
	assert.Contains(t, mustRun(t, dir, "cat-file", "commit", commit), "gpgsig -----BEGIN SSH SIGNATURE-----\n ")

	tag := strings.TrimSpace(mustRun(t, dir, "tag", "-s", "--key", key, "-m", "signed tag", "v1", commit))
	out = mustRun(t, dir, "verify-tag", "v1")
	assert.Contains(t, out, "Good signature on "+tag)

	unsigned := strings.TrimSpace(mustRun(t, dir, "commit-tree", tree, "-m", "plain"))
	_, err := runGrit(t, dir, "", "verify-commit", unsigned)
	assert.Error(t, err)
}

func TestSigningKeyFromConfigFile(t *testing.T) {
	dir := newCLIRepo(t)
	writeCLIFixture(t, dir)
	key := writeKey(t)
	cfg := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[signing]\nkey = \""+filepath.ToSlash(key)+"\"\n"), 0o644))
	tree := strings.TrimSpace(mustRun(t, dir, "write-tree"))

	commit := strings.TrimSpace(mustRun(t, dir, "commit-tree", tree, "-m", "signed", "-S", "--config", cfg))
	assert.Contains(t, mustRun(t, dir, "verify-commit", commit), "Good signature")
}

func TestVerifyCmd(t *testing.T) {
	dir := newCLIRepo(t)
	writeCLIFixture(t, dir)
	tree := strings.TrimSpace(mustRun(t, dir, "write-tree"))
	mustRun(t, dir, "commit-tree", tree, "-m", "initial", "--update-ref", "refs/heads/master")

	out := mustRun(t, dir, "verify", "--connectivity")
	assert.Contains(t, out, "ok: 8 object(s) reachable from 1 ref(s)\n")
	assert.Contains(t, out, "ok: verified 8 loose object(s)\n")

	path := filepath.Join(dir, ".git", "objects", "95", "d09f2b10159347eece71399a7e2e907ea3df4f")
	require.NoError(t, os.Chmod(path, 0o644))
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	out, err := runGrit(t, dir, "", "verify")
	assert.Error(t, err)
	assert.Contains(t, out, "corrupt: 95d09f2b10159347eece71399a7e2e907ea3df4f")
}

func TestBadLogLevelFails(t *testing.T) {
	isolateEnv(t)
	_, err := runGrit(t, t.TempDir(), "", "version", "--log-level", "loud")
	assert.Error(t, err)
}

func TestOutsideRepository(t *testing.T) {
	isolateEnv(t)
	_, err := runGrit(t, t.TempDir(), "", "show-ref")
	assert.Error(t, err)
}

func TestBranchCmd(t *testing.T) {
	dir := newCLIRepo(t)
	writeCLIFixture(t, dir)
	tree := strings.TrimSpace(mustRun(t, dir, "write-tree"))
	root := strings.TrimSpace(mustRun(t, dir, "commit-tree", tree, "-m", "initial", "--update-ref", "refs/heads/master"))

	mustRun(t, dir, "branch", "topic")
	assert.Equal(t, "* "+root[:8]+" master\n  "+root[:8]+" topic\n", mustRun(t, dir, "branch"))

	_, err := runGrit(t, dir, "", "branch", "-d", "master")
	assert.Error(t, err)
	mustRun(t, dir, "branch", "-d", "topic")
	assert.Equal(t, "* "+root[:8]+" master\n", mustRun(t, dir, "branch"))
}
