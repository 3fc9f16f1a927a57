package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/grit/pkg/object"
)

func TestResolveName(t *testing.T) {
	r := newTestRepo(t)
	root, child := commitFixture(t, r)
	require.NoError(t, r.UpdateRef("refs/heads/master", child))
	require.NoError(t, r.UpdateRef("refs/remotes/origin/master", root))
	require.NoError(t, r.CreateTag("first", root, false))

	tests := []struct {
		name string
		want object.Hash
	}{
		{"HEAD", child},
		{string(root), root},
		{"6DC272C4", root},
		{"6dc2", root},
		{"master", child},
		{"refs/heads/master", child},
		{"first", root},
		{"origin/master", root},
	}
	for _, tt := range tests {
		got, err := r.ResolveName(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestResolveName_NotFound(t *testing.T) {
	r := newTestRepo(t)
	commitFixture(t, r)

	for _, name := range []string{"", "nope", "6dc", "ffff", "HEAD"} {
		_, err := r.ResolveName(name)
		assert.ErrorIs(t, err, ErrNameNotFound, "name %q", name)
	}
}

func TestResolveName_Ambiguous(t *testing.T) {
	r := newTestRepo(t)
	_, child := commitFixture(t, r)
	require.NoError(t, r.CreateTag("6dc2", child, false))

	_, err := r.ResolveName("6dc2")
	assert.ErrorIs(t, err, ErrAmbiguousName)
	assert.Contains(t, err.Error(), string(rootCommitHash))
	assert.Contains(t, err.Error(), string(child))
}

func TestResolveName_SameHashTwiceIsNotAmbiguous(t *testing.T) {
	r := newTestRepo(t)
	root, _ := commitFixture(t, r)
	require.NoError(t, r.UpdateRef("refs/heads/dup", root))
	require.NoError(t, r.CreateTag("dup", root, false))

	got, err := r.ResolveName("dup")
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestPeel(t *testing.T) {
	r := newTestRepo(t)
	root, _ := commitFixture(t, r)
	tag, err := r.CreateAnnotatedTag("v1.0", root, AnnotatedTagOptions{Tagger: ada, Message: "release 1.0"})
	require.NoError(t, err)
	outer, err := r.CreateAnnotatedTag("outer", tag, AnnotatedTagOptions{Tagger: ada, Message: "tag of a tag"})
	require.NoError(t, err)

	h, err := r.Peel(outer, object.KindCommit)
	require.NoError(t, err)
	assert.Equal(t, root, h)

	h, err = r.Peel(outer, object.KindTree)
	require.NoError(t, err)
	assert.Equal(t, fixtureTree, h)

	h, err = r.Peel(tag, object.KindTag)
	require.NoError(t, err)
	assert.Equal(t, tag, h)

	_, err = r.Peel(helloBlob, object.KindTree)
	assert.ErrorIs(t, err, object.ErrKindMismatch)
	_, err = r.Peel(fixtureTree, object.KindCommit)
	assert.ErrorIs(t, err, object.ErrKindMismatch)
}

func TestResolveName_TreePath(t *testing.T) {
	r := newTestRepo(t)
	root, _ := commitFixture(t, r)
	require.NoError(t, r.UpdateRef("refs/heads/master", root))

	h, err := r.ResolveName("master:hello.txt")
	require.NoError(t, err)
	assert.Equal(t, helloBlob, h)

	h, err = r.ResolveName(":foo")
	require.NoError(t, err)
	assert.Equal(t, object.Hash("9917e8b8d81d12f5e01f7e8c726202263767d083"), h)

	h, err = r.ResolveName("master:")
	require.NoError(t, err)
	assert.Equal(t, fixtureTree, h)

	_, err = r.ResolveName("master:foo/missing")
	assert.ErrorIs(t, err, ErrNameNotFound)
	_, err = r.ResolveName("master:hello.txt/below")
	assert.ErrorIs(t, err, ErrNameNotFound)
}
