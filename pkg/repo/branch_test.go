package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBranch_CreateListDelete(t *testing.T) {
	r := newTestRepo(t)
	root, child := commitFixture(t, r)
	require.NoError(t, r.UpdateRef("refs/heads/master", child))

	require.NoError(t, r.CreateBranch("feature", root, false))
	assert.Error(t, r.CreateBranch("feature", child, false))
	require.NoError(t, r.CreateBranch("topic/x", child, false))

	branches, err := r.ListBranches()
	require.NoError(t, err)
	assert.Equal(t, []Ref{
		{Name: "feature", Hash: root},
		{Name: "master", Hash: child},
		{Name: "topic/x", Hash: child},
	}, branches)

	require.NoError(t, r.DeleteBranch("feature"))
	branches, err = r.ListBranches()
	require.NoError(t, err)
	assert.Len(t, branches, 2)
}

func TestBranch_CurrentBranch(t *testing.T) {
	r := newTestRepo(t)
	branch, err := r.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "master", branch)

	require.NoError(t, r.UpdateRef("HEAD", helloBlob))
	branch, err = r.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "", branch)
}

func TestBranch_DeleteCurrentBranch_Error(t *testing.T) {
	r := newTestRepo(t)
	root, _ := commitFixture(t, r)
	require.NoError(t, r.UpdateRef("refs/heads/master", root))

	assert.Error(t, r.DeleteBranch("master"))
	assert.ErrorIs(t, r.DeleteBranch("missing"), ErrNameNotFound)
}

func TestBranch_RequiresCommit(t *testing.T) {
	r := newTestRepo(t)
	commitFixture(t, r)

	assert.Error(t, r.CreateBranch("tree", fixtureTree, false))
	assert.Error(t, r.CreateBranch("HEAD", rootCommitHash, false))
}
