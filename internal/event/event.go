package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
)

// Type represents the type of an event
type Type string

// Event represents a generic event in the system
type Event struct {
	Version string      `json:"version"` // Event schema version (e.g., "1.0")
	Type    Type        `json:"type"`
	Payload interface{} `json:"payload"`
}

// Event types emitted by the progression engine
const (
	NodeStudied   Type = "progression.node_studied"
	NodeReset     Type = "progression.node_reset"
	TabStudied    Type = "progression.tab_studied"
	TabReset      Type = "progression.tab_reset"
	PlayerLevelUp Type = "progression.level_up"
	PointsChanged Type = "progression.points_changed"
	PlayerReset   Type = "progression.player_reset"
	TreeReloaded  Type = "progression.tree_reloaded"
)

// Typed event payloads for type safety

// NodeStudiedPayloadV1 is the typed payload for node studied/reset events
type NodeStudiedPayloadV1 struct {
	PlayerID  string `json:"player_id"`
	NodeID    string `json:"node_id"`
	TabID     string `json:"tab_id"`
	RecipeID  string `json:"recipe_id"`
	Cost      int    `json:"cost"`
	Forced    bool   `json:"forced,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// TabStudiedPayloadV1 is the typed payload for tab studied/reset events
type TabStudiedPayloadV1 struct {
	PlayerID    string   `json:"player_id"`
	TabID       string   `json:"tab_id"`
	Cost        int      `json:"cost"`
	BlockedTabs []string `json:"blocked_tabs,omitempty"` // tabs force-reset by mutual exclusion
	Timestamp   int64    `json:"timestamp"`
}

// LevelUpPayloadV1 is the typed payload for level up events
type LevelUpPayloadV1 struct {
	PlayerID       string `json:"player_id"`
	OldLevel       int    `json:"old_level"`
	NewLevel       int    `json:"new_level"`
	PointsAwarded  int    `json:"points_awarded"`
	ExperienceType string `json:"experience_type,omitempty"`
}

// PointsChangedPayloadV1 is the typed payload for points balance changes
type PointsChangedPayloadV1 struct {
	PlayerID   string `json:"player_id"`
	PointsType string `json:"points_type"`
	Delta      int    `json:"delta"`
	Balance    int    `json:"balance"`
	Reason     string `json:"reason,omitempty"`
}

// PlayerResetPayloadV1 is the typed payload for full player resets
type PlayerResetPayloadV1 struct {
	PlayerID   string `json:"player_id"`
	NodesReset int    `json:"nodes_reset"`
	TabsReset  int    `json:"tabs_reset"`
	Timestamp  int64  `json:"timestamp"`
}

// TreeReloadedPayloadV1 is the typed payload for tree reload events
type TreeReloadedPayloadV1 struct {
	Tabs      int   `json:"tabs"`
	Nodes     int   `json:"nodes"`
	Timestamp int64 `json:"timestamp"`
}

// Type-safe event constructors

// NewNodeStudiedEvent creates a node studied event
func NewNodeStudiedEvent(playerID domain.PlayerID, node domain.Node, cost int, forced bool) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    NodeStudied,
		Payload: NodeStudiedPayloadV1{
			PlayerID:  string(playerID),
			NodeID:    node.ID,
			TabID:     node.TabID,
			RecipeID:  node.RecipeID,
			Cost:      cost,
			Forced:    forced,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewNodeResetEvent creates a node reset event
func NewNodeResetEvent(playerID domain.PlayerID, node domain.Node, cost int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    NodeReset,
		Payload: NodeStudiedPayloadV1{
			PlayerID:  string(playerID),
			NodeID:    node.ID,
			TabID:     node.TabID,
			RecipeID:  node.RecipeID,
			Cost:      cost,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewTabStudiedEvent creates a tab studied event
func NewTabStudiedEvent(playerID domain.PlayerID, tabID string, cost int, blockedTabs []string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    TabStudied,
		Payload: TabStudiedPayloadV1{
			PlayerID:    string(playerID),
			TabID:       tabID,
			Cost:        cost,
			BlockedTabs: blockedTabs,
			Timestamp:   time.Now().Unix(),
		},
	}
}

// NewTabResetEvent creates a tab reset event
func NewTabResetEvent(playerID domain.PlayerID, tabID string, cost int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    TabReset,
		Payload: TabStudiedPayloadV1{
			PlayerID:  string(playerID),
			TabID:     tabID,
			Cost:      cost,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewLevelUpEvent creates a level up event
func NewLevelUpEvent(playerID domain.PlayerID, oldLevel, newLevel, pointsAwarded int, expType domain.ExperienceType) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    PlayerLevelUp,
		Payload: LevelUpPayloadV1{
			PlayerID:       string(playerID),
			OldLevel:       oldLevel,
			NewLevel:       newLevel,
			PointsAwarded:  pointsAwarded,
			ExperienceType: string(expType),
		},
	}
}

// NewPointsChangedEvent creates a points changed event
func NewPointsChangedEvent(playerID domain.PlayerID, pointsType domain.PointsType, delta, balance int, reason string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    PointsChanged,
		Payload: PointsChangedPayloadV1{
			PlayerID:   string(playerID),
			PointsType: string(pointsType),
			Delta:      delta,
			Balance:    balance,
			Reason:     reason,
		},
	}
}

// NewPlayerResetEvent creates a full player reset event
func NewPlayerResetEvent(playerID domain.PlayerID, nodesReset, tabsReset int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    PlayerReset,
		Payload: PlayerResetPayloadV1{
			PlayerID:   string(playerID),
			NodesReset: nodesReset,
			TabsReset:  tabsReset,
			Timestamp:  time.Now().Unix(),
		},
	}
}

// NewTreeReloadedEvent creates a tree reloaded event
func NewTreeReloadedEvent(tabs, nodes int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    TreeReloaded,
		Payload: TreeReloadedPayloadV1{
			Tabs:      tabs,
			Nodes:     nodes,
			Timestamp: time.Now().Unix(),
		},
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	// Handlers run synchronously; publishers treat failures as non-fatal.
	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
