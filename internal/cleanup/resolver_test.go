package cleanup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePreserveSet(t *testing.T) {
	p := newFakePlatform()
	p.users["alice"] = "1"
	p.users["bob"] = "2"

	set, results := ResolvePreserveSet(context.Background(), p, []string{"alice", "@bob", "  ", "alice"})

	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Has("1"))
	assert.True(t, set.Has("2"))
	assert.Len(t, results, 3)
	assert.Equal(t, "bob", results[1].Username)
}

func TestResolvePreserveSetSkipsGhostUser(t *testing.T) {
	p := newFakePlatform()
	p.users["alice"] = "1"
	p.users["carol"] = "3"

	set, results := ResolvePreserveSet(context.Background(), p, []string{"alice", "ghost_user", "carol"})

	assert.Equal(t, 2, set.Len())
	assert.False(t, set.Has(""))
	require.Len(t, results, 3)
	assert.True(t, results[1].NotFound())
	assert.Empty(t, results[1].UserID)
}

func TestResolvePreserveSetSurvivesLookupErrors(t *testing.T) {
	p := newFakePlatform()
	p.users["carol"] = "3"
	p.lookupErr["alice"] = errors.New("connection reset")

	set, results := ResolvePreserveSet(context.Background(), p, []string{"alice", "carol"})

	assert.Equal(t, 1, set.Len())
	assert.True(t, set.Has("3"))
	assert.Error(t, results[0].Err)
	assert.False(t, results[0].NotFound())
}

func TestResolvePreserveSetOrderIndependent(t *testing.T) {
	p := newFakePlatform()
	p.users["alice"] = "1"
	p.users["bob"] = "2"

	a, _ := ResolvePreserveSet(context.Background(), p, []string{"alice", "bob", "nobody"})
	b, _ := ResolvePreserveSet(context.Background(), p, []string{"nobody", "bob", "alice"})

	assert.Equal(t, a, b)
}
