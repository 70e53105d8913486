package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_AddMember(t *testing.T) {
	d := NewDirectory()

	require.NoError(t, d.AddMember("lobby", "alice", "c1"))
	require.NoError(t, d.AddMember("lobby", "alice", "c1"), "same connection re-adding is a no-op")
	require.NoError(t, d.AddMember("lobby", "bob", "c2"))

	err := d.AddMember("lobby", "ALICE", "c3")
	require.ErrorIs(t, err, ErrUsernameTaken)
	assert.Contains(t, err.Error(), "already taken")

	assert.Equal(t, []Member{
		{Username: "alice", ConnID: "c1"},
		{Username: "bob", ConnID: "c2"},
	}, d.ListMembers("lobby"))
}

func TestDirectory_UnicodeFolding(t *testing.T) {
	d := NewDirectory()

	require.NoError(t, d.AddMember("r", "Émile", "c1"))
	assert.ErrorIs(t, d.AddMember("r", "ÉMILE", "c2"), ErrUsernameTaken)

	m, ok := d.Holder("r", "émile")
	require.True(t, ok)
	assert.Equal(t, "Émile", m.Username, "display casing is preserved")
}

func TestDirectory_RemoveMemberDeletesEmptyRoom(t *testing.T) {
	d := NewDirectory()
	require.NoError(t, d.AddMember("lobby", "alice", "c1"))
	require.NoError(t, d.AddMember("lobby", "bob", "c2"))

	assert.True(t, d.RemoveMember("lobby", "Alice"))
	assert.True(t, d.Exists("lobby"))
	assert.Equal(t, []Member{{Username: "bob", ConnID: "c2"}}, d.ListMembers("lobby"))

	assert.True(t, d.RemoveMember("lobby", "bob"))
	assert.False(t, d.Exists("lobby"))
	assert.True(t, d.IsEmpty("lobby"))
	assert.Nil(t, d.ListMembers("lobby"))

	assert.False(t, d.RemoveMember("lobby", "bob"))
}

func TestDirectory_EnsureRoomAndDeleteIfEmpty(t *testing.T) {
	d := NewDirectory()

	d.EnsureRoom("empty")
	d.EnsureRoom("empty")
	assert.Equal(t, 1, d.Len())
	assert.True(t, d.IsEmpty("empty"))

	assert.True(t, d.DeleteIfEmpty("empty"))
	assert.False(t, d.DeleteIfEmpty("empty"))
	assert.Equal(t, 0, d.Len())
}

func TestDirectory_Rooms(t *testing.T) {
	d := NewDirectory()
	require.NoError(t, d.AddMember("zeta", "alice", "c1"))
	require.NoError(t, d.AddMember("alpha", "bob", "c2"))
	require.NoError(t, d.AddMember("alpha", "carol", "c3"))

	assert.Equal(t, []Summary{
		{ID: "alpha", Members: 2},
		{ID: "zeta", Members: 1},
	}, d.Rooms())
}
