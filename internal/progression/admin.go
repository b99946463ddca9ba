package progression

import (
	"context"
	"fmt"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/event"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/logger"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/points"
)

// Administrative operations. The actor is authorized, the player is acted
// on; the two are usually different.

// GrantPoints credits a currency on the player's ledger.
func (s *service) GrantPoints(ctx context.Context, actor, player domain.PlayerID, pt domain.PointsType, amount int) error {
	if err := s.resolver.Require(actor, domain.PermGivePoints); err != nil {
		return err
	}
	if amount <= 0 {
		return &domain.InvariantError{Reason: fmt.Sprintf("grant amount %d is not positive", amount)}
	}

	err := s.withPlayer(ctx, player, func(state *domain.PlayerState) error {
		_, err := points.Wrap(state.Points).Credit(pt, amount)
		return err
	})
	if err != nil {
		return err
	}

	s.publishPointsChange(ctx, player, pt, amount, "admin_grant")
	logger.FromContext(ctx).Info("points granted", "actor", actor, "player", player, "currency", pt, "amount", amount)
	return nil
}

// TakePoints debits a currency on the player's ledger. Fails with
// InsufficientFundsError if the balance is short.
func (s *service) TakePoints(ctx context.Context, actor, player domain.PlayerID, pt domain.PointsType, amount int) error {
	if err := s.resolver.Require(actor, domain.PermGivePoints); err != nil {
		return err
	}
	if amount <= 0 {
		return &domain.InvariantError{Reason: fmt.Sprintf("take amount %d is not positive", amount)}
	}

	err := s.withPlayer(ctx, player, func(state *domain.PlayerState) error {
		_, err := points.Wrap(state.Points).Debit(pt, amount)
		return err
	})
	if err != nil {
		return err
	}

	s.publishPointsChange(ctx, player, pt, -amount, "admin_take")
	logger.FromContext(ctx).Info("points taken", "actor", actor, "player", player, "currency", pt, "amount", amount)
	return nil
}

// SetPoints overwrites a currency balance.
func (s *service) SetPoints(ctx context.Context, actor, player domain.PlayerID, pt domain.PointsType, value int) error {
	if err := s.resolver.Require(actor, domain.PermGivePoints); err != nil {
		return err
	}

	var delta int
	err := s.withPlayer(ctx, player, func(state *domain.PlayerState) error {
		delta = value - state.Points[pt]
		return points.Wrap(state.Points).Set(pt, value)
	})
	if err != nil {
		return err
	}

	s.publishPointsChange(ctx, player, pt, delta, "admin_set")
	return nil
}

// ForceStudyNode unlocks a node skipping structural and economic checks.
// The authorization check moves to the actor.
func (s *service) ForceStudyNode(ctx context.Context, actor, player domain.PlayerID, nodeID string) (*StudyResult, error) {
	if err := s.resolver.Require(actor, domain.PermManageRecipes); err != nil {
		return nil, err
	}

	snap := s.graph().Snapshot()
	var result *StudyResult
	err := s.withPlayer(ctx, player, func(state *domain.PlayerState) error {
		node, ok := snap.Node(nodeID)
		if !ok {
			return fmt.Errorf("%w: node %q", domain.ErrNodeNotFound, nodeID)
		}
		if state.StudiedNodes[node.ID] {
			result = &StudyResult{Node: node, AlreadyStudied: true}
			return nil
		}
		state.StudiedNodes[node.ID] = true
		result = &StudyResult{Node: node, Applied: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Applied {
		s.craftCache.Purge()
		s.publish(ctx, event.NewNodeStudiedEvent(player, result.Node, 0, true))
		logger.FromContext(ctx).Info("node force-studied", "actor", actor, "player", player, "node", result.Node.ID)
	}
	return result, nil
}

// ForceStudyTab unlocks a tab skipping structural and economic checks. The
// mutual-exclusion cascade still applies: a forced study is still a study.
func (s *service) ForceStudyTab(ctx context.Context, actor, player domain.PlayerID, tabID string) (*StudyTabResult, error) {
	if err := s.resolver.Require(actor, domain.PermManageRecipes); err != nil {
		return nil, err
	}

	g := s.graph()
	snap := g.Snapshot()
	var result *StudyTabResult
	err := s.withPlayer(ctx, player, func(state *domain.PlayerState) error {
		tab, ok := snap.Tab(tabID)
		if !ok {
			return fmt.Errorf("%w: tab %q", domain.ErrTabNotFound, tabID)
		}
		if tab.ID == domain.DefaultTabID || state.StudiedTabs[tab.ID] {
			result = &StudyTabResult{Tab: tab, AlreadyStudied: true}
			return nil
		}

		conflicts, err := g.BlockedConflicts(snap, state, tab.ID)
		if err != nil {
			return err
		}
		for _, blocked := range conflicts {
			s.unstudyTabLocked(snap, state, blocked)
		}

		state.StudiedTabs[tab.ID] = true
		result = &StudyTabResult{Tab: tab, BlockedTabs: conflicts, Applied: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Applied {
		s.craftCache.Purge()
		s.publish(ctx, event.NewTabStudiedEvent(player, result.Tab.ID, 0, result.BlockedTabs))
		for _, blocked := range result.BlockedTabs {
			s.publish(ctx, event.NewTabResetEvent(player, blocked, 0))
		}
		logger.FromContext(ctx).Info("tab force-studied", "actor", actor, "player", player, "tab", result.Tab.ID)
	}
	return result, nil
}

// ResetPlayer wipes the player back to a fresh state: level 1, zeroed
// ledgers, only the default tab studied.
func (s *service) ResetPlayer(ctx context.Context, actor, player domain.PlayerID) error {
	if err := s.resolver.Require(actor, domain.PermAdminSettings); err != nil {
		return err
	}

	var nodesReset, tabsReset int
	err := s.withPlayer(ctx, player, func(state *domain.PlayerState) error {
		nodesReset = len(state.StudiedNodes)
		tabsReset = len(state.StudiedTabs) - 1 // default tab stays
		fresh := domain.NewPlayerState(player)
		*state = *fresh
		return nil
	})
	if err != nil {
		return err
	}

	s.craftCache.Purge()
	s.publish(ctx, event.NewPlayerResetEvent(player, nodesReset, tabsReset))
	logger.FromContext(ctx).Info("player reset", "actor", actor, "player", player,
		"nodes_reset", nodesReset, "tabs_reset", tabsReset)
	return nil
}

// SetExperience overwrites one experience category, bypassing conversion.
func (s *service) SetExperience(ctx context.Context, actor, player domain.PlayerID, expType domain.ExperienceType, value float64) error {
	if err := s.resolver.Require(actor, domain.PermAdminSettings); err != nil {
		return err
	}
	return s.withPlayer(ctx, player, func(state *domain.PlayerState) error {
		return s.xp.SetExperience(state, expType, value)
	})
}

// SetLevel overwrites the player's level.
func (s *service) SetLevel(ctx context.Context, actor, player domain.PlayerID, level int) error {
	if err := s.resolver.Require(actor, domain.PermAdminSettings); err != nil {
		return err
	}
	return s.withPlayer(ctx, player, func(state *domain.PlayerState) error {
		return s.xp.SetLevel(state, level)
	})
}

// SetExperienceMultiplier hot-swaps a category multiplier.
func (s *service) SetExperienceMultiplier(ctx context.Context, actor domain.PlayerID, expType domain.ExperienceType, multiplier float64) error {
	if err := s.resolver.Require(actor, domain.PermAdminSettings); err != nil {
		return err
	}
	return s.xp.SetMultiplier(expType, multiplier)
}

// SetConversionRate hot-swaps a category conversion rate.
func (s *service) SetConversionRate(ctx context.Context, actor domain.PlayerID, expType domain.ExperienceType, rate float64) error {
	if err := s.resolver.Require(actor, domain.PermAdminSettings); err != nil {
		return err
	}
	return s.xp.SetConversionRate(expType, rate)
}
