package graph

import (
	"sort"
	"sync/atomic"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
)

// PermissionChecker answers whether a player currently holds a permission.
type PermissionChecker interface {
	Has(player domain.PlayerID, key domain.PermissionKey) bool
}

// Reason prefixes used in unmet-requirement lists.
const (
	ReasonPrefixTab        = "tab:"
	ReasonPrefixNode       = "node:"
	ReasonPrefixPermission = "permission:"
	ReasonPrefixBlockedBy  = "blocked_by:"
)

// Graph serves availability checks against the current tree snapshot.
// Reloads replace the snapshot atomically; in-flight checks keep the
// snapshot they started with.
type Graph struct {
	snap   atomic.Pointer[Snapshot]
	strict bool
}

// New creates a graph serving the given snapshot.
func New(snap *Snapshot, strict bool) *Graph {
	g := &Graph{strict: strict}
	g.snap.Store(snap)
	return g
}

// Snapshot returns the current snapshot.
func (g *Graph) Snapshot() *Snapshot {
	return g.snap.Load()
}

// Replace swaps in a new snapshot. Player state is untouched; studied
// entries unknown to the new snapshot are retained but inert.
func (g *Graph) Replace(snap *Snapshot) {
	g.snap.Store(snap)
}

// Strict reports whether unknown prerequisite references count as unmet.
func (g *Graph) Strict() bool { return g.strict }

// TabUnmetReasons returns the unmet requirements blocking the player from
// studying the tab. An empty list means the tab is available. A studied tab
// always returns an empty list.
func (g *Graph) TabUnmetReasons(snap *Snapshot, state *domain.PlayerState, perms PermissionChecker, tabID string) ([]string, error) {
	tab, ok := snap.Tab(tabID)
	if !ok {
		return nil, domain.ErrTabNotFound
	}
	if tab.ID == domain.DefaultTabID || state.StudiedTabs[tab.ID] {
		return nil, nil
	}

	var reasons []string
	for _, req := range tab.RequiredTabs {
		required, ok := snap.Tab(req)
		if !ok {
			if g.strict {
				reasons = append(reasons, ReasonPrefixTab+req)
			}
			continue
		}
		if required.ID != domain.DefaultTabID && !state.StudiedTabs[required.ID] {
			reasons = append(reasons, ReasonPrefixTab+required.ID)
		}
	}
	for _, req := range tab.RequiredNodes {
		if _, ok := snap.Node(req); !ok {
			if g.strict {
				reasons = append(reasons, ReasonPrefixNode+req)
			}
			continue
		}
		if !state.StudiedNodes[req] {
			reasons = append(reasons, ReasonPrefixNode+req)
		}
	}
	for _, req := range tab.RequiredPermissions {
		key := domain.PermissionKey(req)
		if !domain.ValidPermissionKey(key) {
			if g.strict {
				reasons = append(reasons, ReasonPrefixPermission+req)
			}
			continue
		}
		if perms != nil && !perms.Has(state.Player, key) {
			reasons = append(reasons, ReasonPrefixPermission+req)
		}
	}

	return reasons, nil
}

// NodeUnmetReasons returns the unmet requirements blocking the player from
// studying the node. An empty list means the node is available.
func (g *Graph) NodeUnmetReasons(snap *Snapshot, state *domain.PlayerState, nodeID string) ([]string, error) {
	node, ok := snap.Node(nodeID)
	if !ok {
		return nil, domain.ErrNodeNotFound
	}
	if state.StudiedNodes[node.ID] {
		return nil, nil
	}

	var reasons []string
	if node.TabID != domain.DefaultTabID && !state.StudiedTabs[node.TabID] {
		reasons = append(reasons, ReasonPrefixTab+node.TabID)
	}
	for _, prereq := range node.Prerequisites {
		if _, ok := snap.Node(prereq); !ok {
			// Unknown references are satisfied unless strict mode is on.
			if g.strict {
				reasons = append(reasons, ReasonPrefixNode+prereq)
			}
			continue
		}
		if !state.StudiedNodes[prereq] {
			reasons = append(reasons, ReasonPrefixNode+prereq)
		}
	}

	return reasons, nil
}

// BlockedConflicts returns the studied tabs that are mutually exclusive with
// the given tab. Blocking is symmetric: a conflict exists whether the new
// tab names the studied one or the studied one names the new tab.
func (g *Graph) BlockedConflicts(snap *Snapshot, state *domain.PlayerState, tabID string) ([]string, error) {
	tab, ok := snap.Tab(tabID)
	if !ok {
		return nil, domain.ErrTabNotFound
	}

	conflicts := make(map[string]bool)
	for _, blocked := range tab.BlocksTabs {
		resolved, ok := snap.Tab(blocked)
		if !ok {
			continue
		}
		if state.StudiedTabs[resolved.ID] {
			conflicts[resolved.ID] = true
		}
	}
	for studied := range state.StudiedTabs {
		other, ok := snap.Tab(studied)
		if !ok {
			continue
		}
		for _, blocked := range other.BlocksTabs {
			resolved, ok := snap.Tab(blocked)
			if ok && resolved.ID == tab.ID {
				conflicts[other.ID] = true
			}
		}
	}

	out := make([]string, 0, len(conflicts))
	for id := range conflicts {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// StudiedNodesInTab returns the player's studied nodes belonging to the tab.
func (g *Graph) StudiedNodesInTab(snap *Snapshot, state *domain.PlayerState, tabID string) []domain.Node {
	var out []domain.Node
	for _, node := range snap.NodesInTab(tabID) {
		if state.StudiedNodes[node.ID] {
			out = append(out, node)
		}
	}
	return out
}

// TabStatus projects the tab's availability for the player.
func (g *Graph) TabStatus(snap *Snapshot, state *domain.PlayerState, perms PermissionChecker, tabID string) (domain.TabStatus, error) {
	tab, ok := snap.Tab(tabID)
	if !ok {
		return domain.TabStatus{}, domain.ErrTabNotFound
	}

	status := domain.TabStatus{Tab: tab}
	if tab.ID == domain.DefaultTabID || state.StudiedTabs[tab.ID] {
		status.State = domain.StateStudied
		status.Studied = true
		return status, nil
	}

	reasons, err := g.TabUnmetReasons(snap, state, perms, tab.ID)
	if err != nil {
		return domain.TabStatus{}, err
	}
	if len(reasons) == 0 {
		status.State = domain.StateAvailable
	} else {
		status.State = domain.StateLocked
		status.Reasons = reasons
	}
	return status, nil
}

// NodeStatus projects the node's availability for the player.
func (g *Graph) NodeStatus(snap *Snapshot, state *domain.PlayerState, nodeID string) (domain.NodeStatus, error) {
	node, ok := snap.Node(nodeID)
	if !ok {
		return domain.NodeStatus{}, domain.ErrNodeNotFound
	}

	status := domain.NodeStatus{Node: node}
	if state.StudiedNodes[node.ID] {
		status.State = domain.StateStudied
		status.Studied = true
		return status, nil
	}

	reasons, err := g.NodeUnmetReasons(snap, state, nodeID)
	if err != nil {
		return domain.NodeStatus{}, err
	}
	if len(reasons) == 0 {
		status.State = domain.StateAvailable
	} else {
		status.State = domain.StateLocked
		status.Reasons = reasons
	}
	return status, nil
}
