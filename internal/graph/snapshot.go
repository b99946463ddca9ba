// Package graph holds the unlock graph: the immutable tree of tabs and
// recipe nodes, availability checks against player state, and the
// mutual-exclusion cascade.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
)

// Sentinel errors for snapshot construction
var (
	ErrDuplicateTabID  = errors.New("duplicate tab id")
	ErrDuplicateNodeID = errors.New("duplicate node id")
	ErrUnknownTab      = errors.New("unknown tab reference")
	ErrUnknownNode     = errors.New("unknown node reference")
	ErrCycleDetected   = errors.New("cycle detected in tree")
	ErrInvalidTree     = errors.New("invalid tree definition")
)

// Snapshot is an immutable view of the tree definitions. Availability checks
// run against one snapshot for their whole duration; reloads swap in a new
// snapshot atomically.
type Snapshot struct {
	version       string
	tabs          map[string]domain.Tab
	nodes         map[string]domain.Node
	nodesByTab    map[string][]string
	nodesByRecipe map[string][]string // granting nodes only
}

// NewSnapshot validates the definitions and builds an immutable snapshot.
// The default tab is injected if absent. In strict mode any reference to an
// unknown tab, node, or prerequisite fails the build; otherwise unknown
// prerequisites are kept (and treated as satisfied at check time) and nodes
// pointing at a missing tab are reassigned to the default tab.
func NewSnapshot(version string, tabs []domain.Tab, nodes []domain.Node, strict bool) (*Snapshot, error) {
	s := &Snapshot{
		version:       version,
		tabs:          make(map[string]domain.Tab, len(tabs)+1),
		nodes:         make(map[string]domain.Node, len(nodes)),
		nodesByTab:    make(map[string][]string),
		nodesByRecipe: make(map[string][]string),
	}

	for _, tab := range tabs {
		if tab.ID == "" {
			return nil, fmt.Errorf("%w: tab with empty id", ErrInvalidTree)
		}
		id := tab.ID
		if domain.IsDefaultTabRef(id) {
			id = domain.DefaultTabID
			tab.ID = id
		}
		if _, exists := s.tabs[id]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTabID, id)
		}
		for _, blocked := range tab.BlocksTabs {
			if blocked == tab.ID {
				return nil, fmt.Errorf("%w: tab %q blocks itself", ErrInvalidTree, id)
			}
		}
		for _, unlocked := range tab.UnlocksTabs {
			if unlocked == tab.ID {
				return nil, fmt.Errorf("%w: tab %q unlocks itself", ErrInvalidTree, id)
			}
		}
		s.tabs[id] = tab
	}

	if _, ok := s.tabs[domain.DefaultTabID]; !ok {
		s.tabs[domain.DefaultTabID] = domain.Tab{
			ID:    domain.DefaultTabID,
			Title: "Default",
		}
	}
	def := s.tabs[domain.DefaultTabID]
	if def.Cost != 0 || len(def.RequiredTabs) != 0 || len(def.RequiredNodes) != 0 ||
		len(def.RequiredPermissions) != 0 || len(def.BlocksTabs) != 0 {
		return nil, fmt.Errorf("%w: default tab must be free and unconditional", ErrInvalidTree)
	}

	for _, node := range nodes {
		if node.ID == "" {
			return nil, fmt.Errorf("%w: node with empty id", ErrInvalidTree)
		}
		if _, exists := s.nodes[node.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNodeID, node.ID)
		}
		if node.StudyCost < 0 || node.ResetCost < 0 {
			return nil, fmt.Errorf("%w: node %q has negative cost", ErrInvalidTree, node.ID)
		}
		if domain.IsDefaultTabRef(node.TabID) {
			node.TabID = domain.DefaultTabID
		}
		if _, ok := s.tabs[node.TabID]; !ok {
			if strict {
				return nil, fmt.Errorf("%w: node %q references tab %q", ErrUnknownTab, node.ID, node.TabID)
			}
			node.TabID = domain.DefaultTabID
		}
		s.nodes[node.ID] = node
	}

	// Referential checks over tab requirements and node prerequisites.
	for id, tab := range s.tabs {
		for _, req := range tab.RequiredTabs {
			if _, ok := s.resolveTab(req); !ok && strict {
				return nil, fmt.Errorf("%w: tab %q requires tab %q", ErrUnknownTab, id, req)
			}
		}
		for _, req := range tab.RequiredNodes {
			if _, ok := s.nodes[req]; !ok && strict {
				return nil, fmt.Errorf("%w: tab %q requires node %q", ErrUnknownNode, id, req)
			}
		}
	}
	for id, node := range s.nodes {
		for _, prereq := range node.Prerequisites {
			if prereq == id {
				return nil, fmt.Errorf("%w: node %q requires itself", ErrInvalidTree, id)
			}
			if _, ok := s.nodes[prereq]; !ok && strict {
				return nil, fmt.Errorf("%w: node %q requires node %q", ErrUnknownNode, id, prereq)
			}
		}
	}

	if err := s.detectNodeCycles(); err != nil {
		return nil, err
	}
	if err := s.detectTabCycles(); err != nil {
		return nil, err
	}

	for id, node := range s.nodes {
		s.nodesByTab[node.TabID] = append(s.nodesByTab[node.TabID], id)
		if node.GrantsCraftAccess && node.RecipeID != "" {
			s.nodesByRecipe[node.RecipeID] = append(s.nodesByRecipe[node.RecipeID], id)
		}
	}
	for tabID := range s.nodesByTab {
		sort.Strings(s.nodesByTab[tabID])
	}
	for recipeID := range s.nodesByRecipe {
		sort.Strings(s.nodesByRecipe[recipeID])
	}

	return s, nil
}

// detectNodeCycles runs a three-state DFS over node prerequisites.
func (s *Snapshot) detectNodeCycles() error {
	// State: 0 = unvisited, 1 = visiting, 2 = visited
	state := make(map[string]int, len(s.nodes))

	var dfs func(id string) error
	dfs = func(id string) error {
		if state[id] == 1 {
			return fmt.Errorf("%w: at node %q", ErrCycleDetected, id)
		}
		if state[id] == 2 {
			return nil
		}

		state[id] = 1 // visiting

		node := s.nodes[id]
		for _, prereq := range node.Prerequisites {
			if _, ok := s.nodes[prereq]; !ok {
				continue // unknown references cannot form cycles
			}
			if err := dfs(prereq); err != nil {
				return err
			}
		}

		state[id] = 2 // visited
		return nil
	}

	for id := range s.nodes {
		if state[id] == 0 {
			if err := dfs(id); err != nil {
				return err
			}
		}
	}

	return nil
}

// detectTabCycles runs the same DFS over tab requirement edges.
func (s *Snapshot) detectTabCycles() error {
	state := make(map[string]int, len(s.tabs))

	var dfs func(id string) error
	dfs = func(id string) error {
		if state[id] == 1 {
			return fmt.Errorf("%w: at tab %q", ErrCycleDetected, id)
		}
		if state[id] == 2 {
			return nil
		}

		state[id] = 1

		tab := s.tabs[id]
		for _, req := range tab.RequiredTabs {
			resolved, ok := s.resolveTab(req)
			if !ok {
				continue
			}
			if err := dfs(resolved.ID); err != nil {
				return err
			}
		}

		state[id] = 2
		return nil
	}

	for id := range s.tabs {
		if state[id] == 0 {
			if err := dfs(id); err != nil {
				return err
			}
		}
	}

	return nil
}

// resolveTab looks up a tab by id, accepting default-tab aliases.
func (s *Snapshot) resolveTab(id string) (domain.Tab, bool) {
	if domain.IsDefaultTabRef(id) {
		id = domain.DefaultTabID
	}
	tab, ok := s.tabs[id]
	return tab, ok
}

// Version returns the tree version string.
func (s *Snapshot) Version() string { return s.version }

// Tab looks up a tab by id, accepting default-tab aliases.
func (s *Snapshot) Tab(id string) (domain.Tab, bool) {
	return s.resolveTab(id)
}

// Node looks up a node by id.
func (s *Snapshot) Node(id string) (domain.Node, bool) {
	node, ok := s.nodes[id]
	return node, ok
}

// Tabs returns all tabs ordered by id, the default tab first.
func (s *Snapshot) Tabs() []domain.Tab {
	ids := make([]string, 0, len(s.tabs))
	for id := range s.tabs {
		if id != domain.DefaultTabID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]domain.Tab, 0, len(s.tabs))
	out = append(out, s.tabs[domain.DefaultTabID])
	for _, id := range ids {
		out = append(out, s.tabs[id])
	}
	return out
}

// Nodes returns all nodes ordered by id.
func (s *Snapshot) Nodes() []domain.Node {
	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]domain.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.nodes[id])
	}
	return out
}

// NodesInTab returns the nodes belonging to a tab, ordered by id.
func (s *Snapshot) NodesInTab(tabID string) []domain.Node {
	if domain.IsDefaultTabRef(tabID) {
		tabID = domain.DefaultTabID
	}
	ids := s.nodesByTab[tabID]
	out := make([]domain.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.nodes[id])
	}
	return out
}

// GatingNodes returns the ids of craft-granting nodes wrapping the recipe.
// An empty result means the recipe is not gated by the tree.
func (s *Snapshot) GatingNodes(recipeID string) []string {
	return s.nodesByRecipe[recipeID]
}

// TabCount returns the number of tabs.
func (s *Snapshot) TabCount() int { return len(s.tabs) }

// NodeCount returns the number of nodes.
func (s *Snapshot) NodeCount() int { return len(s.nodes) }
