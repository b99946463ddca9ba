package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
)

type stubPerms struct {
	granted map[domain.PermissionKey]bool
}

func (s *stubPerms) Has(_ domain.PlayerID, key domain.PermissionKey) bool {
	return s.granted[key]
}

func testTabs() []domain.Tab {
	return []domain.Tab{
		{ID: "magic", Title: "Magic", Cost: 5},
		{ID: "tech", Title: "Tech", Cost: 5, BlocksTabs: []string{"magic"}},
		{ID: "master", Title: "Mastery", Cost: 10,
			RequiredTabs:        []string{"magic"},
			RequiredNodes:       []string{"wand"},
			RequiredPermissions: []string{string(domain.PermResetTabs)}},
	}
}

func testNodes() []domain.Node {
	return []domain.Node{
		{ID: "stick", TabID: "default", RecipeID: "minecraft:stick", StudyCost: 1, GrantsCraftAccess: true},
		{ID: "wand", TabID: "magic", RecipeID: "magic:wand", StudyCost: 3,
			Prerequisites: []string{"stick"}, GrantsCraftAccess: true},
		{ID: "robot", TabID: "tech", RecipeID: "tech:robot", StudyCost: 4},
	}
}

func mustSnapshot(t *testing.T, strict bool) *Snapshot {
	t.Helper()
	snap, err := NewSnapshot("1", testTabs(), testNodes(), strict)
	require.NoError(t, err)
	return snap
}

func TestNewSnapshot_InjectsDefaultTab(t *testing.T) {
	snap := mustSnapshot(t, false)

	tab, ok := snap.Tab(domain.DefaultTabID)
	require.True(t, ok)
	assert.Equal(t, domain.DefaultTabID, tab.ID)
	assert.Equal(t, 4, snap.TabCount())
}

func TestNewSnapshot_DefaultTabAliases(t *testing.T) {
	snap := mustSnapshot(t, false)

	for _, alias := range []string{"default", "vanilla", "main"} {
		tab, ok := snap.Tab(alias)
		require.True(t, ok, "alias %s", alias)
		assert.Equal(t, domain.DefaultTabID, tab.ID)
	}
}

func TestNewSnapshot_RejectsDuplicates(t *testing.T) {
	tabs := append(testTabs(), domain.Tab{ID: "magic"})
	_, err := NewSnapshot("1", tabs, nil, false)
	assert.True(t, errors.Is(err, ErrDuplicateTabID))

	nodes := append(testNodes(), domain.Node{ID: "stick", TabID: "default"})
	_, err = NewSnapshot("1", testTabs(), nodes, false)
	assert.True(t, errors.Is(err, ErrDuplicateNodeID))
}

func TestNewSnapshot_RejectsSelfReferences(t *testing.T) {
	_, err := NewSnapshot("1", []domain.Tab{{ID: "a", BlocksTabs: []string{"a"}}}, nil, false)
	assert.True(t, errors.Is(err, ErrInvalidTree))

	_, err = NewSnapshot("1", nil, []domain.Node{{ID: "n", TabID: "default", Prerequisites: []string{"n"}}}, false)
	assert.True(t, errors.Is(err, ErrInvalidTree))
}

func TestNewSnapshot_RejectsConstrainedDefaultTab(t *testing.T) {
	_, err := NewSnapshot("1", []domain.Tab{{ID: "default", Cost: 5}}, nil, false)
	assert.True(t, errors.Is(err, ErrInvalidTree))
}

func TestNewSnapshot_DetectsNodeCycle(t *testing.T) {
	nodes := []domain.Node{
		{ID: "a", TabID: "default", Prerequisites: []string{"c"}},
		{ID: "b", TabID: "default", Prerequisites: []string{"a"}},
		{ID: "c", TabID: "default", Prerequisites: []string{"b"}},
	}
	_, err := NewSnapshot("1", nil, nodes, false)
	assert.True(t, errors.Is(err, ErrCycleDetected))
}

func TestNewSnapshot_DetectsTabCycle(t *testing.T) {
	tabs := []domain.Tab{
		{ID: "a", RequiredTabs: []string{"b"}},
		{ID: "b", RequiredTabs: []string{"a"}},
	}
	_, err := NewSnapshot("1", tabs, nil, false)
	assert.True(t, errors.Is(err, ErrCycleDetected))
}

func TestNewSnapshot_StrictRejectsUnknownReferences(t *testing.T) {
	nodes := []domain.Node{{ID: "n", TabID: "default", Prerequisites: []string{"ghost"}}}

	_, err := NewSnapshot("1", nil, nodes, true)
	assert.True(t, errors.Is(err, ErrUnknownNode))

	snap, err := NewSnapshot("1", nil, nodes, false)
	require.NoError(t, err)
	_, ok := snap.Node("n")
	assert.True(t, ok)
}

func TestNewSnapshot_PermissiveReassignsOrphanNodes(t *testing.T) {
	nodes := []domain.Node{{ID: "n", TabID: "ghost-tab"}}

	snap, err := NewSnapshot("1", nil, nodes, false)
	require.NoError(t, err)
	node, ok := snap.Node("n")
	require.True(t, ok)
	assert.Equal(t, domain.DefaultTabID, node.TabID)

	_, err = NewSnapshot("1", nil, nodes, true)
	assert.True(t, errors.Is(err, ErrUnknownTab))
}

func TestNodeUnmetReasons_TabAndPrereqs(t *testing.T) {
	snap := mustSnapshot(t, false)
	g := New(snap, false)
	state := domain.NewPlayerState("p1")

	// wand needs the magic tab studied and the stick node studied
	reasons, err := g.NodeUnmetReasons(snap, state, "wand")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tab:magic", "node:stick"}, reasons)

	state.StudiedTabs["magic"] = true
	state.StudiedNodes["stick"] = true
	reasons, err = g.NodeUnmetReasons(snap, state, "wand")
	require.NoError(t, err)
	assert.Empty(t, reasons)
}

func TestNodeUnmetReasons_UnknownNode(t *testing.T) {
	snap := mustSnapshot(t, false)
	g := New(snap, false)

	_, err := g.NodeUnmetReasons(snap, domain.NewPlayerState("p1"), "ghost")
	assert.True(t, errors.Is(err, domain.ErrNodeNotFound))
}

func TestNodeUnmetReasons_UnknownPrereqSatisfiedUnlessStrict(t *testing.T) {
	nodes := []domain.Node{{ID: "n", TabID: "default", Prerequisites: []string{"ghost"}}}
	snap, err := NewSnapshot("1", nil, nodes, false)
	require.NoError(t, err)
	state := domain.NewPlayerState("p1")

	reasons, err := New(snap, false).NodeUnmetReasons(snap, state, "n")
	require.NoError(t, err)
	assert.Empty(t, reasons)

	reasons, err = New(snap, true).NodeUnmetReasons(snap, state, "n")
	require.NoError(t, err)
	assert.Equal(t, []string{"node:ghost"}, reasons)
}

func TestTabUnmetReasons_FullRequirementSet(t *testing.T) {
	snap := mustSnapshot(t, false)
	g := New(snap, false)
	state := domain.NewPlayerState("p1")
	perms := &stubPerms{granted: map[domain.PermissionKey]bool{}}

	reasons, err := g.TabUnmetReasons(snap, state, perms, "master")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tab:magic", "node:wand", "permission:reset_tabs"}, reasons)

	state.StudiedTabs["magic"] = true
	state.StudiedNodes["wand"] = true
	perms.granted[domain.PermResetTabs] = true

	reasons, err = g.TabUnmetReasons(snap, state, perms, "master")
	require.NoError(t, err)
	assert.Empty(t, reasons)
}

func TestTabUnmetReasons_DefaultAlwaysOpen(t *testing.T) {
	snap := mustSnapshot(t, false)
	g := New(snap, false)

	for _, alias := range []string{"default", "vanilla", "main"} {
		reasons, err := g.TabUnmetReasons(snap, domain.NewPlayerState("p1"), nil, alias)
		require.NoError(t, err)
		assert.Empty(t, reasons, "alias %s", alias)
	}
}

func TestBlockedConflicts_Symmetric(t *testing.T) {
	snap := mustSnapshot(t, false)
	g := New(snap, false)

	// tech names magic in blocks_tabs: studying tech conflicts with studied magic
	state := domain.NewPlayerState("p1")
	state.StudiedTabs["magic"] = true
	conflicts, err := g.BlockedConflicts(snap, state, "tech")
	require.NoError(t, err)
	assert.Equal(t, []string{"magic"}, conflicts)

	// and the reverse: studying magic conflicts with studied tech
	state = domain.NewPlayerState("p1")
	state.StudiedTabs["tech"] = true
	conflicts, err = g.BlockedConflicts(snap, state, "magic")
	require.NoError(t, err)
	assert.Equal(t, []string{"tech"}, conflicts)
}

func TestTabStatus_Projection(t *testing.T) {
	snap := mustSnapshot(t, false)
	g := New(snap, false)
	state := domain.NewPlayerState("p1")

	status, err := g.TabStatus(snap, state, nil, "magic")
	require.NoError(t, err)
	assert.Equal(t, domain.StateAvailable, status.State)

	status, err = g.TabStatus(snap, state, &stubPerms{}, "master")
	require.NoError(t, err)
	assert.Equal(t, domain.StateLocked, status.State)
	assert.NotEmpty(t, status.Reasons)

	state.StudiedTabs["magic"] = true
	status, err = g.TabStatus(snap, state, nil, "magic")
	require.NoError(t, err)
	assert.Equal(t, domain.StateStudied, status.State)
	assert.True(t, status.Studied)
}

func TestNodeStatus_Projection(t *testing.T) {
	snap := mustSnapshot(t, false)
	g := New(snap, false)
	state := domain.NewPlayerState("p1")

	status, err := g.NodeStatus(snap, state, "stick")
	require.NoError(t, err)
	assert.Equal(t, domain.StateAvailable, status.State)

	status, err = g.NodeStatus(snap, state, "wand")
	require.NoError(t, err)
	assert.Equal(t, domain.StateLocked, status.State)

	state.StudiedNodes["stick"] = true
	status, err = g.NodeStatus(snap, state, "stick")
	require.NoError(t, err)
	assert.Equal(t, domain.StateStudied, status.State)
}

func TestReplace_SwapsSnapshotAtomically(t *testing.T) {
	snap := mustSnapshot(t, false)
	g := New(snap, false)

	held := g.Snapshot()

	next, err := NewSnapshot("2", testTabs(), nil, false)
	require.NoError(t, err)
	g.Replace(next)

	assert.Equal(t, "2", g.Snapshot().Version())
	// A reader holding the old snapshot still sees the old tree.
	_, ok := held.Node("stick")
	assert.True(t, ok)
	_, ok = g.Snapshot().Node("stick")
	assert.False(t, ok)
}

func TestStudiedNodesInTab(t *testing.T) {
	snap := mustSnapshot(t, false)
	g := New(snap, false)
	state := domain.NewPlayerState("p1")
	state.StudiedTabs["magic"] = true
	state.StudiedNodes["wand"] = true

	nodes := g.StudiedNodesInTab(snap, state, "magic")
	require.Len(t, nodes, 1)
	assert.Equal(t, "wand", nodes[0].ID)
}
