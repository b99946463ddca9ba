// Package progression orchestrates the engine: it ties the unlock graph,
// point and experience ledgers, and permission resolver together behind a
// per-player critical section.
package progression

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/concurrency"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/configstore"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/event"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/experience"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/graph"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/logger"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/permission"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/points"
)

// Craft-access cache sizing
const (
	craftCacheSize = 4096
	craftCacheTTL  = 30 * time.Second
)

// StudyResult reports a completed node study.
type StudyResult struct {
	Node           domain.Node `json:"node"`
	Cost           int         `json:"cost"`
	Applied        bool        `json:"applied"` // false when the call was an idempotent no-op
	AlreadyStudied bool        `json:"already_studied,omitempty"`
}

// StudyTabResult reports a completed tab study, including tabs force-reset
// by mutual exclusion.
type StudyTabResult struct {
	Tab            domain.Tab `json:"tab"`
	Cost           int        `json:"cost"`
	BlockedTabs    []string   `json:"blocked_tabs,omitempty"`
	Applied        bool       `json:"applied"`
	AlreadyStudied bool       `json:"already_studied,omitempty"`
}

// PlayerSnapshot is the full read-only projection of one player.
type PlayerSnapshot struct {
	Experience   domain.ExperienceSnapshot      `json:"experience"`
	StudiedTabs  []string                       `json:"studied_tabs"`
	StudiedNodes []string                       `json:"studied_nodes"`
	Permissions  map[domain.PermissionKey]bool  `json:"permissions"`
	TreeVersion  string                         `json:"tree_version"`
}

// Service defines the progression engine operations.
type Service interface {
	// Player operations
	StudyNode(ctx context.Context, player domain.PlayerID, nodeID string) (*StudyResult, error)
	StudyTab(ctx context.Context, player domain.PlayerID, tabID string) (*StudyTabResult, error)
	ResetNode(ctx context.Context, player domain.PlayerID, nodeID string) (*StudyResult, error)
	ResetTab(ctx context.Context, player domain.PlayerID, tabID string) (*StudyTabResult, error)

	// Read projections
	AvailableTabs(ctx context.Context, player domain.PlayerID) ([]domain.TabStatus, error)
	AvailableNodes(ctx context.Context, player domain.PlayerID, tabID string) ([]domain.NodeStatus, error)
	PlayerSnapshot(ctx context.Context, player domain.PlayerID) (*PlayerSnapshot, error)

	// Game-adapter surface
	ReportExperience(ctx context.Context, player domain.PlayerID, expType domain.ExperienceType, amount float64) (*experience.GainResult, error)
	CanUseRecipe(ctx context.Context, player domain.PlayerID, recipeID string) (bool, error)

	// Administrative operations; actor is the caller being authorized
	GrantPoints(ctx context.Context, actor, player domain.PlayerID, pt domain.PointsType, amount int) error
	TakePoints(ctx context.Context, actor, player domain.PlayerID, pt domain.PointsType, amount int) error
	SetPoints(ctx context.Context, actor, player domain.PlayerID, pt domain.PointsType, value int) error
	ForceStudyNode(ctx context.Context, actor, player domain.PlayerID, nodeID string) (*StudyResult, error)
	ForceStudyTab(ctx context.Context, actor, player domain.PlayerID, tabID string) (*StudyTabResult, error)
	ResetPlayer(ctx context.Context, actor, player domain.PlayerID) error
	SetExperience(ctx context.Context, actor, player domain.PlayerID, expType domain.ExperienceType, value float64) error
	SetLevel(ctx context.Context, actor, player domain.PlayerID, level int) error
	SetExperienceMultiplier(ctx context.Context, actor domain.PlayerID, expType domain.ExperienceType, multiplier float64) error
	SetConversionRate(ctx context.Context, actor domain.PlayerID, expType domain.ExperienceType, rate float64) error
}

type service struct {
	store    Store
	locks    *concurrency.LockManager
	resolver *permission.Resolver
	xp       *experience.Ledger
	cfg      *configstore.Store
	bus      event.Bus

	craftCache *lru.LRU[string, bool]

	mu      sync.RWMutex
	players map[domain.PlayerID]*domain.PlayerState
}

// NewService creates the progression service. The store may be a durable
// implementation or the in-memory default; saves are write-behind and never
// block the per-player critical section.
func NewService(store Store, cfg *configstore.Store, resolver *permission.Resolver, xp *experience.Ledger, bus event.Bus) Service {
	s := &service{
		store:      store,
		locks:      concurrency.NewLockManager(),
		resolver:   resolver,
		xp:         xp,
		cfg:        cfg,
		bus:        bus,
		craftCache: lru.NewLRU[string, bool](craftCacheSize, nil, craftCacheTTL),
		players:    make(map[domain.PlayerID]*domain.PlayerState),
	}
	// Tree reloads change which recipes are gated.
	bus.Subscribe(event.TreeReloaded, func(context.Context, event.Event) error {
		s.craftCache.Purge()
		return nil
	})
	return s
}

func (s *service) graph() *graph.Graph {
	return s.cfg.Graph()
}

// loadOrCreate returns the authoritative in-memory state for the player,
// loading from the store on first touch and lazily creating new players.
// It runs before the player's lock is taken so a slow store never stalls
// the critical section; concurrent first touches are resolved by the
// double-checked map insert.
func (s *service) loadOrCreate(ctx context.Context, player domain.PlayerID) (*domain.PlayerState, error) {
	if player == "" {
		return nil, &domain.InvariantError{Reason: "player id is empty"}
	}

	s.mu.RLock()
	state, ok := s.players[player]
	s.mu.RUnlock()
	if ok {
		return state, nil
	}

	state, err := s.store.Load(ctx, player)
	if err != nil {
		if err != domain.ErrPlayerNotFound {
			return nil, fmt.Errorf("loading player %s: %w", player, err)
		}
		state = domain.NewPlayerState(player)
	}

	s.mu.Lock()
	if existing, ok := s.players[player]; ok {
		state = existing
	} else {
		s.players[player] = state
	}
	s.mu.Unlock()
	return state, nil
}

// withPlayer runs fn inside the player's critical section and persists the
// resulting state write-behind, after the lock is released.
func (s *service) withPlayer(ctx context.Context, player domain.PlayerID, fn func(state *domain.PlayerState) error) error {
	state, err := s.loadOrCreate(ctx, player)
	if err != nil {
		return err
	}

	lock := s.locks.GetLock(string(player))
	lock.Lock()
	if err := fn(state); err != nil {
		lock.Unlock()
		return err
	}
	saved := state.Clone()
	lock.Unlock()

	s.persist(ctx, saved)
	return nil
}

// readPlayer runs fn on a consistent clone of the player's state.
func (s *service) readPlayer(ctx context.Context, player domain.PlayerID, fn func(state *domain.PlayerState) error) error {
	state, err := s.loadOrCreate(ctx, player)
	if err != nil {
		return err
	}

	lock := s.locks.GetLock(string(player))
	lock.Lock()
	clone := state.Clone()
	lock.Unlock()
	return fn(clone)
}

func (s *service) persist(ctx context.Context, state *domain.PlayerState) {
	if err := s.store.Save(ctx, state); err != nil {
		logger.FromContext(ctx).Error("player state save failed", "player", state.Player, "error", err)
	}
}

func (s *service) publish(ctx context.Context, evt event.Event) {
	if err := s.bus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Warn("event publish failed", "type", evt.Type, "error", err)
	}
}

// StudyNode unlocks a recipe node for the player. The check sequence is
// structural, then authorization, then economic; nothing is mutated until
// all three pass. Studying an already-studied node succeeds without a
// second debit.
func (s *service) StudyNode(ctx context.Context, player domain.PlayerID, nodeID string) (*StudyResult, error) {
	log := logger.FromContext(ctx)
	g := s.graph()
	snap := g.Snapshot()

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

		reasons, err := g.NodeUnmetReasons(snap, state, node.ID)
		if err != nil {
			return err
		}
		if len(reasons) > 0 {
			return &domain.PrerequisiteError{Target: node.ID, Unmet: reasons}
		}

		if err := s.resolver.Require(player, domain.PermLearnRecipes); err != nil {
			return err
		}

		if _, err := points.Wrap(state.Points).Debit(domain.PointsLearning, node.StudyCost); err != nil {
			return err
		}

		state.StudiedNodes[node.ID] = true
		result = &StudyResult{Node: node, Cost: node.StudyCost, Applied: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Applied {
		s.craftCache.Purge()
		s.publish(ctx, event.NewNodeStudiedEvent(player, result.Node, result.Cost, false))
		if result.Cost > 0 {
			s.publishPointsChange(ctx, player, domain.PointsLearning, -result.Cost, "study_node")
		}
		log.Info("node studied", "player", player, "node", result.Node.ID, "cost", result.Cost)
	}
	return result, nil
}

// StudyTab unlocks a tab. Mutually exclusive tabs the player already holds
// are force-reset without charge as part of the same commit.
func (s *service) StudyTab(ctx context.Context, player domain.PlayerID, tabID string) (*StudyTabResult, error) {
	log := logger.FromContext(ctx)
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

		reasons, err := g.TabUnmetReasons(snap, state, s.resolver, tab.ID)
		if err != nil {
			return err
		}
		if len(reasons) > 0 {
			return &domain.PrerequisiteError{Target: tab.ID, Unmet: reasons}
		}

		if err := s.resolver.Require(player, domain.PermLearnRecipes); err != nil {
			return err
		}

		if _, err := points.Wrap(state.Points).Debit(domain.PointsSpecial, tab.Cost); err != nil {
			return err
		}

		conflicts, err := g.BlockedConflicts(snap, state, tab.ID)
		if err != nil {
			return err
		}
		for _, blocked := range conflicts {
			s.unstudyTabLocked(snap, state, blocked)
		}

		state.StudiedTabs[tab.ID] = true
		result = &StudyTabResult{Tab: tab, Cost: tab.Cost, BlockedTabs: conflicts, Applied: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Applied {
		s.craftCache.Purge()
		s.publish(ctx, event.NewTabStudiedEvent(player, result.Tab.ID, result.Cost, result.BlockedTabs))
		if result.Cost > 0 {
			s.publishPointsChange(ctx, player, domain.PointsSpecial, -result.Cost, "study_tab")
		}
		for _, blocked := range result.BlockedTabs {
			s.publish(ctx, event.NewTabResetEvent(player, blocked, 0))
		}
		log.Info("tab studied", "player", player, "tab", result.Tab.ID,
			"cost", result.Cost, "blocked_tabs", result.BlockedTabs)
	}
	return result, nil
}

// ResetNode forgets a studied node for its reset cost. Requires the
// reset-tabs permission; resetting an unstudied node is a no-op success with
// no debit.
func (s *service) ResetNode(ctx context.Context, player domain.PlayerID, nodeID string) (*StudyResult, error) {
	g := s.graph()
	snap := g.Snapshot()

	var result *StudyResult
	err := s.withPlayer(ctx, player, func(state *domain.PlayerState) error {
		node, ok := snap.Node(nodeID)
		if !ok {
			return fmt.Errorf("%w: node %q", domain.ErrNodeNotFound, nodeID)
		}
		if !state.StudiedNodes[node.ID] {
			result = &StudyResult{Node: node}
			return nil
		}

		if err := s.resolver.Require(player, domain.PermResetTabs); err != nil {
			return err
		}

		if _, err := points.Wrap(state.Points).Debit(domain.PointsResetRecipes, node.ResetCost); err != nil {
			return err
		}

		delete(state.StudiedNodes, node.ID)
		result = &StudyResult{Node: node, Cost: node.ResetCost, Applied: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Applied {
		s.craftCache.Purge()
		s.publish(ctx, event.NewNodeResetEvent(player, result.Node, result.Cost))
		if result.Cost > 0 {
			s.publishPointsChange(ctx, player, domain.PointsResetRecipes, -result.Cost, "reset_node")
		}
		logger.FromContext(ctx).Info("node reset", "player", player, "node", result.Node.ID, "cost", result.Cost)
	}
	return result, nil
}

// ResetTab forgets a studied tab and all its studied nodes. Requires the
// reset-tabs permission.
func (s *service) ResetTab(ctx context.Context, player domain.PlayerID, tabID string) (*StudyTabResult, error) {
	g := s.graph()
	snap := g.Snapshot()

	var result *StudyTabResult
	err := s.withPlayer(ctx, player, func(state *domain.PlayerState) error {
		tab, ok := snap.Tab(tabID)
		if !ok {
			return fmt.Errorf("%w: tab %q", domain.ErrTabNotFound, tabID)
		}
		if tab.ID == domain.DefaultTabID {
			return &domain.InvariantError{Reason: "the default tab cannot be reset"}
		}
		if !state.StudiedTabs[tab.ID] {
			result = &StudyTabResult{Tab: tab}
			return nil
		}

		if err := s.resolver.Require(player, domain.PermResetTabs); err != nil {
			return err
		}

		if _, err := points.Wrap(state.Points).Debit(domain.PointsResetSpecial, tab.ResetCost); err != nil {
			return err
		}

		s.unstudyTabLocked(snap, state, tab.ID)
		result = &StudyTabResult{Tab: tab, Cost: tab.ResetCost, Applied: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Applied {
		s.craftCache.Purge()
		s.publish(ctx, event.NewTabResetEvent(player, result.Tab.ID, result.Cost))
		if result.Cost > 0 {
			s.publishPointsChange(ctx, player, domain.PointsResetSpecial, -result.Cost, "reset_tab")
		}
		logger.FromContext(ctx).Info("tab reset", "player", player, "tab", result.Tab.ID, "cost", result.Cost)
	}
	return result, nil
}

// unstudyTabLocked removes a tab and its studied member nodes from the
// state. Caller holds the player lock.
func (s *service) unstudyTabLocked(snap *graph.Snapshot, state *domain.PlayerState, tabID string) {
	delete(state.StudiedTabs, tabID)
	for _, node := range snap.NodesInTab(tabID) {
		delete(state.StudiedNodes, node.ID)
	}
}

func (s *service) publishPointsChange(ctx context.Context, player domain.PlayerID, pt domain.PointsType, delta int, reason string) {
	balance := 0
	_ = s.readPlayer(ctx, player, func(state *domain.PlayerState) error {
		balance = state.Points[pt]
		return nil
	})
	s.publish(ctx, event.NewPointsChangedEvent(player, pt, delta, balance, reason))
}

// ReportExperience records a typed experience gain, converting to learning
// points and emitting one level-up event per threshold crossed.
func (s *service) ReportExperience(ctx context.Context, player domain.PlayerID, expType domain.ExperienceType, amount float64) (*experience.GainResult, error) {
	var result experience.GainResult
	err := s.withPlayer(ctx, player, func(state *domain.PlayerState) error {
		res, err := s.xp.Gain(state, expType, amount)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, up := range result.LevelUps {
		s.publish(ctx, event.NewLevelUpEvent(player, up.Level-1, up.Level, up.PointsAwarded, expType))
	}
	if result.LearningPoints > 0 {
		s.publishPointsChange(ctx, player, domain.PointsLearning, result.LearningPoints, "experience_conversion")
	}
	return &result, nil
}
