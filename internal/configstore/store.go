// Package configstore owns the recipe tree definition file: loading,
// validation, administrative edits, and publishing snapshots to the unlock
// graph.
package configstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/event"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/graph"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/logger"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/validation"
)

const treeFilePermissions = 0644

// TreeFile is the on-disk shape of the recipe tree.
type TreeFile struct {
	Version string           `json:"version"`
	Tabs    []TabDefinition  `json:"tabs" validate:"dive"`
	Nodes   []NodeDefinition `json:"nodes" validate:"dive"`
}

// TabDefinition is the serializable form of a tab.
type TabDefinition struct {
	ID                  string   `json:"id" validate:"required"`
	Title               string   `json:"title"`
	Icon                string   `json:"icon,omitempty"`
	Cost                int      `json:"cost" validate:"gte=0"`
	ResetCost           int      `json:"reset_cost" validate:"gte=0"`
	RequiredTabs        []string `json:"required_tabs,omitempty"`
	RequiredNodes       []string `json:"required_nodes,omitempty"`
	RequiredPermissions []string `json:"required_permissions,omitempty"`
	BlocksTabs          []string `json:"blocks_tabs,omitempty"`
	UnlocksTabs         []string `json:"unlocks_tabs,omitempty"`
}

// NodeDefinition is the serializable form of a node.
type NodeDefinition struct {
	ID                string          `json:"id" validate:"required"`
	Tab               string          `json:"tab" validate:"required"`
	RecipeID          string          `json:"recipe_id"`
	DisplayName       string          `json:"display_name"`
	StudyCost         int             `json:"study_cost" validate:"gte=0"`
	ResetCost         int             `json:"reset_cost" validate:"gte=0"`
	Prerequisites     []string        `json:"prerequisites,omitempty"`
	GrantsCraftAccess bool            `json:"grants_craft_access"`
	Position          domain.Position `json:"position"`
	Icon              string          `json:"icon,omitempty"`
}

func (d TabDefinition) toDomain() domain.Tab {
	return domain.Tab{
		ID:                  d.ID,
		Title:               d.Title,
		Icon:                d.Icon,
		Cost:                d.Cost,
		ResetCost:           d.ResetCost,
		RequiredTabs:        d.RequiredTabs,
		RequiredNodes:       d.RequiredNodes,
		RequiredPermissions: d.RequiredPermissions,
		BlocksTabs:          d.BlocksTabs,
		UnlocksTabs:         d.UnlocksTabs,
	}
}

func (d NodeDefinition) toDomain() domain.Node {
	return domain.Node{
		ID:                d.ID,
		TabID:             d.Tab,
		RecipeID:          d.RecipeID,
		DisplayName:       d.DisplayName,
		StudyCost:         d.StudyCost,
		ResetCost:         d.ResetCost,
		Prerequisites:     d.Prerequisites,
		GrantsCraftAccess: d.GrantsCraftAccess,
		Position:          d.Position,
		Icon:              d.Icon,
	}
}

// Store loads and edits the tree definition file. It always keeps a
// last-known-good set of definitions published to the graph: a corrupt load
// never replaces a working tree.
type Store struct {
	path     string
	strict   bool
	validate *validator.Validate
	schema   validation.SchemaValidator
	bus      event.Bus
	graph    *graph.Graph

	mu      sync.Mutex
	current TreeFile // last known good definitions

	editMu sync.Mutex // serializes administrative edits
}

// New creates a store publishing to a fresh graph. Until the first
// successful Load the graph serves the minimal default-tab-only tree.
func New(path string, strict bool, bus event.Bus) (*Store, error) {
	snap, err := graph.NewSnapshot("empty", nil, nil, strict)
	if err != nil {
		return nil, fmt.Errorf("building empty snapshot: %w", err)
	}
	return &Store{
		path:     path,
		strict:   strict,
		validate: validator.New(),
		schema:   validation.NewSchemaValidator(),
		bus:      bus,
		graph:    graph.New(snap, strict),
		current:  TreeFile{Version: "empty"},
	}, nil
}

// Graph returns the unlock graph this store publishes to.
func (s *Store) Graph() *graph.Graph {
	return s.graph
}

// Load reads the tree file, validates it, and publishes a new snapshot.
// On any failure the previously published snapshot stays in effect and the
// error wraps ErrConfigCorrupt.
func (s *Store) Load(ctx context.Context) error {
	log := logger.FromContext(ctx)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("tree config file missing, keeping current tree", "path", s.path)
			return nil
		}
		return fmt.Errorf("%w: reading %s: %v", domain.ErrConfigCorrupt, s.path, err)
	}

	// A sibling .schema.json file, when present, gates the raw document
	// before it is decoded.
	schemaPath := strings.TrimSuffix(s.path, filepath.Ext(s.path)) + ".schema.json"
	if _, statErr := os.Stat(schemaPath); statErr == nil {
		if err := s.schema.ValidateBytes(data, schemaPath); err != nil {
			log.Error("tree config schema check failed, keeping current tree", "path", s.path, "error", err)
			return fmt.Errorf("%w: %v", domain.ErrConfigCorrupt, err)
		}
	}

	var file TreeFile
	if err := json.Unmarshal(data, &file); err != nil {
		log.Error("tree config parse failed, keeping current tree", "path", s.path, "error", err)
		return fmt.Errorf("%w: parsing %s: %v", domain.ErrConfigCorrupt, s.path, err)
	}

	if err := s.publish(ctx, file); err != nil {
		log.Error("tree config rejected, keeping current tree", "path", s.path, "error", err)
		return err
	}

	log.Info("tree config loaded", "path", s.path, "version", file.Version,
		"tabs", len(file.Tabs), "nodes", len(file.Nodes))
	return nil
}

// Reload re-reads the file. Player state is never touched; studied entries
// unknown to the new tree are retained but inert.
func (s *Store) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

// Save writes the current definitions to the tree file via a temp-file
// rename.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	file := s.current
	s.mu.Unlock()

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding tree config: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(tmp, data, treeFilePermissions); err != nil {
		return fmt.Errorf("writing tree config: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing tree config: %w", err)
	}

	logger.FromContext(ctx).Info("tree config saved", "path", s.path)
	return nil
}

// Definitions returns a copy of the current definitions.
func (s *Store) Definitions() TreeFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deepCopyTreeFile(s.current)
}

// publish validates candidate definitions, builds a snapshot, and swaps it
// in. The candidate becomes the last known good on success.
func (s *Store) publish(ctx context.Context, file TreeFile) error {
	if err := s.validate.Struct(file); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfigCorrupt, err)
	}

	tabs := make([]domain.Tab, 0, len(file.Tabs))
	for _, def := range file.Tabs {
		tabs = append(tabs, def.toDomain())
	}
	nodes := make([]domain.Node, 0, len(file.Nodes))
	for _, def := range file.Nodes {
		nodes = append(nodes, def.toDomain())
	}

	snap, err := graph.NewSnapshot(file.Version, tabs, nodes, s.strict)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfigCorrupt, err)
	}

	s.mu.Lock()
	s.current = deepCopyTreeFile(file)
	s.mu.Unlock()
	s.graph.Replace(snap)

	if s.bus != nil {
		if err := s.bus.Publish(ctx, event.NewTreeReloadedEvent(snap.TabCount(), snap.NodeCount())); err != nil {
			logger.FromContext(ctx).Warn("tree reload event failed", "error", err)
		}
	}
	return nil
}
