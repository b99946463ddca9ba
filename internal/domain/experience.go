package domain

// ExperienceType identifies a source category of experience.
type ExperienceType string

// Experience categories reported by the game-action adapters
const (
	ExperienceBlockMining ExperienceType = "block_mining"
	ExperienceCrafting    ExperienceType = "crafting"
	ExperienceMobKill     ExperienceType = "mob_kill"
	ExperiencePlayerKill  ExperienceType = "player_kill"
)

// ExperienceTypes lists every known experience category.
var ExperienceTypes = []ExperienceType{
	ExperienceBlockMining,
	ExperienceCrafting,
	ExperienceMobKill,
	ExperiencePlayerKill,
}

// ValidExperienceType reports whether t is a known category.
func ValidExperienceType(t ExperienceType) bool {
	switch t {
	case ExperienceBlockMining, ExperienceCrafting, ExperienceMobKill, ExperiencePlayerKill:
		return true
	}
	return false
}
