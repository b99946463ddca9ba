package progression

import (
	"context"
	"fmt"
	"sort"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/metrics"
)

// AvailableTabs projects every tab's availability for the player, default
// tab first.
func (s *service) AvailableTabs(ctx context.Context, player domain.PlayerID) ([]domain.TabStatus, error) {
	g := s.graph()
	snap := g.Snapshot()

	var out []domain.TabStatus
	err := s.readPlayer(ctx, player, func(state *domain.PlayerState) error {
		for _, tab := range snap.Tabs() {
			status, err := g.TabStatus(snap, state, s.resolver, tab.ID)
			if err != nil {
				return err
			}
			out = append(out, status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AvailableNodes projects node availability for the player. An empty tabID
// covers the whole tree; otherwise only the tab's nodes.
func (s *service) AvailableNodes(ctx context.Context, player domain.PlayerID, tabID string) ([]domain.NodeStatus, error) {
	g := s.graph()
	snap := g.Snapshot()

	var nodes []domain.Node
	if tabID == "" {
		nodes = snap.Nodes()
	} else {
		if _, ok := snap.Tab(tabID); !ok {
			return nil, fmt.Errorf("%w: tab %q", domain.ErrTabNotFound, tabID)
		}
		nodes = snap.NodesInTab(tabID)
	}

	var out []domain.NodeStatus
	err := s.readPlayer(ctx, player, func(state *domain.PlayerState) error {
		for _, node := range nodes {
			status, err := g.NodeStatus(snap, state, node.ID)
			if err != nil {
				return err
			}
			out = append(out, status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PlayerSnapshot builds the full read-only projection for one player.
func (s *service) PlayerSnapshot(ctx context.Context, player domain.PlayerID) (*PlayerSnapshot, error) {
	snap := s.graph().Snapshot()

	var out *PlayerSnapshot
	err := s.readPlayer(ctx, player, func(state *domain.PlayerState) error {
		tabs := make([]string, 0, len(state.StudiedTabs))
		for id := range state.StudiedTabs {
			tabs = append(tabs, id)
		}
		sort.Strings(tabs)
		nodes := make([]string, 0, len(state.StudiedNodes))
		for id := range state.StudiedNodes {
			nodes = append(nodes, id)
		}
		sort.Strings(nodes)

		out = &PlayerSnapshot{
			Experience:   s.xp.Snapshot(state),
			StudiedTabs:  tabs,
			StudiedNodes: nodes,
			Permissions:  s.resolver.Effective(player),
			TreeVersion:  snap.Version(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CanUseRecipe answers the synchronous craft-permission check: a recipe not
// wrapped by any craft-granting node is always allowed; a gated recipe is
// allowed once the player has studied any granting node. Results are
// TTL-cached and the cache is flushed on any study, reset, or tree reload.
func (s *service) CanUseRecipe(ctx context.Context, player domain.PlayerID, recipeID string) (bool, error) {
	if recipeID == "" {
		return false, &domain.InvariantError{Reason: "recipe id is empty"}
	}

	key := string(player) + "\x00" + recipeID
	if allowed, ok := s.craftCache.Get(key); ok {
		metrics.CraftAccessChecks.WithLabelValues("hit").Inc()
		return allowed, nil
	}
	metrics.CraftAccessChecks.WithLabelValues("miss").Inc()

	snap := s.graph().Snapshot()
	gating := snap.GatingNodes(recipeID)

	allowed := false
	if len(gating) == 0 {
		allowed = true
	} else {
		err := s.readPlayer(ctx, player, func(state *domain.PlayerState) error {
			for _, nodeID := range gating {
				if state.StudiedNodes[nodeID] {
					allowed = true
					break
				}
			}
			return nil
		})
		if err != nil {
			return false, err
		}
	}

	s.craftCache.Add(key, allowed)
	return allowed, nil
}
