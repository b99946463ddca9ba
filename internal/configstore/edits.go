package configstore

import (
	"context"
	"fmt"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
)

// Administrative edits. Each edit validates the whole candidate tree before
// anything is published: a rejected edit leaves definitions, graph, and file
// untouched.

// UpsertTab adds or replaces a tab definition and saves the tree.
func (s *Store) UpsertTab(ctx context.Context, def TabDefinition) error {
	if domain.IsDefaultTabRef(def.ID) {
		return &domain.InvariantError{Reason: "the default tab cannot be redefined"}
	}
	return s.edit(ctx, func(file *TreeFile) error {
		for i := range file.Tabs {
			if file.Tabs[i].ID == def.ID {
				file.Tabs[i] = def
				return nil
			}
		}
		file.Tabs = append(file.Tabs, def)
		return nil
	})
}

// RemoveTab deletes a tab. Its nodes are reassigned to the default tab and
// every reference to the tab (requirements, block and unlock edges) is
// pruned. Removing the default tab is an invariant violation.
func (s *Store) RemoveTab(ctx context.Context, id string) error {
	if domain.IsDefaultTabRef(id) {
		return &domain.InvariantError{Reason: "the default tab cannot be removed"}
	}
	return s.edit(ctx, func(file *TreeFile) error {
		idx := -1
		for i := range file.Tabs {
			if file.Tabs[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: tab %q", domain.ErrTabNotFound, id)
		}
		file.Tabs = append(file.Tabs[:idx:idx], file.Tabs[idx+1:]...)

		for i := range file.Tabs {
			tab := &file.Tabs[i]
			tab.RequiredTabs = without(tab.RequiredTabs, id)
			tab.BlocksTabs = without(tab.BlocksTabs, id)
			tab.UnlocksTabs = without(tab.UnlocksTabs, id)
		}
		for i := range file.Nodes {
			if file.Nodes[i].Tab == id {
				file.Nodes[i].Tab = domain.DefaultTabID
			}
		}
		return nil
	})
}

// UpsertNode adds or replaces a node definition and saves the tree.
func (s *Store) UpsertNode(ctx context.Context, def NodeDefinition) error {
	return s.edit(ctx, func(file *TreeFile) error {
		for i := range file.Nodes {
			if file.Nodes[i].ID == def.ID {
				file.Nodes[i] = def
				return nil
			}
		}
		file.Nodes = append(file.Nodes, def)
		return nil
	})
}

// RemoveNode deletes a node and prunes every reference to it.
func (s *Store) RemoveNode(ctx context.Context, id string) error {
	return s.edit(ctx, func(file *TreeFile) error {
		idx := -1
		for i := range file.Nodes {
			if file.Nodes[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: node %q", domain.ErrNodeNotFound, id)
		}
		file.Nodes = append(file.Nodes[:idx:idx], file.Nodes[idx+1:]...)

		for i := range file.Nodes {
			file.Nodes[i].Prerequisites = without(file.Nodes[i].Prerequisites, id)
		}
		for i := range file.Tabs {
			file.Tabs[i].RequiredNodes = without(file.Tabs[i].RequiredNodes, id)
		}
		return nil
	})
}

// RemoveLink deletes a single prerequisite edge between two nodes.
func (s *Store) RemoveLink(ctx context.Context, nodeID, prereqID string) error {
	return s.edit(ctx, func(file *TreeFile) error {
		for i := range file.Nodes {
			if file.Nodes[i].ID != nodeID {
				continue
			}
			pruned := without(file.Nodes[i].Prerequisites, prereqID)
			if len(pruned) == len(file.Nodes[i].Prerequisites) {
				return fmt.Errorf("%w: node %q has no prerequisite %q", domain.ErrNodeNotFound, nodeID, prereqID)
			}
			file.Nodes[i].Prerequisites = pruned
			return nil
		}
		return fmt.Errorf("%w: node %q", domain.ErrNodeNotFound, nodeID)
	})
}

// edit applies fn to a deep copy of the current definitions, publishes the
// result, and saves the file. Edits are serialized.
func (s *Store) edit(ctx context.Context, fn func(*TreeFile) error) error {
	s.editMu.Lock()
	defer s.editMu.Unlock()

	s.mu.Lock()
	candidate := deepCopyTreeFile(s.current)
	s.mu.Unlock()

	if err := fn(&candidate); err != nil {
		return err
	}
	if err := s.publish(ctx, candidate); err != nil {
		return err
	}
	return s.Save(ctx)
}

func without(in []string, remove string) []string {
	out := in[:0:0]
	for _, v := range in {
		if v != remove {
			out = append(out, v)
		}
	}
	return out
}

func deepCopyTreeFile(in TreeFile) TreeFile {
	out := TreeFile{Version: in.Version}
	for _, tab := range in.Tabs {
		tab.RequiredTabs = append([]string(nil), tab.RequiredTabs...)
		tab.RequiredNodes = append([]string(nil), tab.RequiredNodes...)
		tab.RequiredPermissions = append([]string(nil), tab.RequiredPermissions...)
		tab.BlocksTabs = append([]string(nil), tab.BlocksTabs...)
		tab.UnlocksTabs = append([]string(nil), tab.UnlocksTabs...)
		out.Tabs = append(out.Tabs, tab)
	}
	for _, node := range in.Nodes {
		node.Prerequisites = append([]string(nil), node.Prerequisites...)
		out.Nodes = append(out.Nodes, node)
	}
	return out
}
