package domain

// PlayerID is the stable identity a player's progression state is keyed by.
// Typically a UUID string, but the engine treats it as opaque.
type PlayerID string

// DefaultTabID is the id of the irremovable tab every player starts with.
const DefaultTabID = "default"

// IsDefaultTabRef reports whether id refers to the default tab, including
// the legacy aliases older tree configs used.
func IsDefaultTabRef(id string) bool {
	switch id {
	case DefaultTabID, "vanilla", "main":
		return true
	}
	return false
}

// Node is a unit of unlockable content wrapping a single recipe.
type Node struct {
	ID                string   `json:"id"`
	TabID             string   `json:"tab"`
	RecipeID          string   `json:"recipe_id"`
	DisplayName       string   `json:"display_name"`
	StudyCost         int      `json:"study_cost"`
	ResetCost         int      `json:"reset_cost"`
	Prerequisites     []string `json:"prerequisites"`
	GrantsCraftAccess bool     `json:"grants_craft_access"`
	Position          Position `json:"position"`
	Icon              string   `json:"icon,omitempty"`
}

// Position is a display hint for tree editors. Non-functional.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Tab is a named grouping of nodes with its own unlock requirements.
type Tab struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Icon                string   `json:"icon,omitempty"`
	Cost                int      `json:"cost"`       // special points to study
	ResetCost           int      `json:"reset_cost"` // reset-special points to reset
	RequiredTabs        []string `json:"required_tabs"`
	RequiredNodes       []string `json:"required_nodes"`
	RequiredPermissions []string `json:"required_permissions"`
	BlocksTabs          []string `json:"blocks_tabs"`  // mutually exclusive; newest study wins
	UnlocksTabs         []string `json:"unlocks_tabs"` // suggested follow-ons
}

// StudyState is the per-player lifecycle of a node or tab.
type StudyState string

// Study states
const (
	StateLocked    StudyState = "locked"
	StateAvailable StudyState = "available"
	StateStudied   StudyState = "studied"
)

// PlayerState is the whole of one player's progression: ledgers and
// studied-sets. It is owned exclusively by the progression service; other
// components receive copies, never live map handles.
type PlayerState struct {
	Player       PlayerID                   `json:"player"`
	Level        int                        `json:"level"`
	Experience   map[ExperienceType]float64 `json:"experience"`
	Points       map[PointsType]int         `json:"points"`
	StudiedNodes map[string]bool            `json:"studied_nodes"`
	StudiedTabs  map[string]bool            `json:"studied_tabs"`
}

// NewPlayerState returns a fresh state with zeroed ledgers and the default
// tab pre-studied.
func NewPlayerState(player PlayerID) *PlayerState {
	st := &PlayerState{
		Player:       player,
		Level:        1,
		Experience:   make(map[ExperienceType]float64, len(ExperienceTypes)),
		Points:       make(map[PointsType]int, len(BuiltinPointsTypes)),
		StudiedNodes: make(map[string]bool),
		StudiedTabs:  map[string]bool{DefaultTabID: true},
	}
	for _, t := range ExperienceTypes {
		st.Experience[t] = 0
	}
	for _, p := range BuiltinPointsTypes {
		st.Points[p] = 0
	}
	return st
}

// Clone returns a deep copy of the state.
func (s *PlayerState) Clone() *PlayerState {
	out := &PlayerState{
		Player:       s.Player,
		Level:        s.Level,
		Experience:   make(map[ExperienceType]float64, len(s.Experience)),
		Points:       make(map[PointsType]int, len(s.Points)),
		StudiedNodes: make(map[string]bool, len(s.StudiedNodes)),
		StudiedTabs:  make(map[string]bool, len(s.StudiedTabs)),
	}
	for k, v := range s.Experience {
		out.Experience[k] = v
	}
	for k, v := range s.Points {
		out.Points[k] = v
	}
	for k, v := range s.StudiedNodes {
		out.StudiedNodes[k] = v
	}
	for k, v := range s.StudiedTabs {
		out.StudiedTabs[k] = v
	}
	return out
}

// TabStatus is a read-only availability projection for one tab.
type TabStatus struct {
	Tab     Tab        `json:"tab"`
	State   StudyState `json:"state"`
	Studied bool       `json:"studied"`
	Reasons []string   `json:"reasons,omitempty"` // unmet requirements when locked
}

// NodeStatus is a read-only availability projection for one node.
type NodeStatus struct {
	Node    Node       `json:"node"`
	State   StudyState `json:"state"`
	Studied bool       `json:"studied"`
	Reasons []string   `json:"reasons,omitempty"`
}

// ExperienceSnapshot is the per-player projection pushed to the presentation
// layer. The wire encoding belongs to the transport, not the engine.
type ExperienceSnapshot struct {
	Player                 PlayerID                   `json:"player"`
	Level                  int                        `json:"level"`
	LevelProgress          float64                    `json:"level_progress"` // [0,1)
	CurrentLevelExperience float64                    `json:"current_level_experience"`
	TotalExperience        float64                    `json:"total_experience"`
	ExperienceByType       map[ExperienceType]float64 `json:"experience_by_type"`
	PointsByType           map[PointsType]int         `json:"points_by_type"`
	Multipliers            map[ExperienceType]float64 `json:"multipliers"`
}
