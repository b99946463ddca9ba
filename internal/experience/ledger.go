package experience

import (
	"fmt"
	"sync"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/points"
)

// Default conversion rates from experience categories to learning points.
var defaultConversionRates = map[domain.ExperienceType]float64{
	domain.ExperienceBlockMining: 0.1,
	domain.ExperienceCrafting:    0.5,
	domain.ExperienceMobKill:     0.2,
	domain.ExperiencePlayerKill:  1.0,
}

// LevelUp records a single threshold crossing within one gain.
type LevelUp struct {
	Level         int
	PointsAwarded int
}

// GainResult summarizes everything a single Gain changed, so callers can
// emit one event per fact.
type GainResult struct {
	Type           domain.ExperienceType
	BaseAmount     float64
	ActualAmount   float64 // after category and level multipliers
	OldLevel       int
	NewLevel       int
	LevelUps       []LevelUp // one entry per threshold crossed, in order
	LearningPoints int       // learning points credited by conversion
}

// Ledger applies experience gains to player state. Category multipliers and
// conversion rates are process-wide and hot-swappable; changing them never
// reprices experience already earned.
type Ledger struct {
	curve *Curve

	mu          sync.RWMutex
	multipliers map[domain.ExperienceType]float64
	rates       map[domain.ExperienceType]float64
}

// NewLedger creates a ledger with unit multipliers and the default
// conversion rates.
func NewLedger(curve *Curve) *Ledger {
	multipliers := make(map[domain.ExperienceType]float64, len(domain.ExperienceTypes))
	rates := make(map[domain.ExperienceType]float64, len(domain.ExperienceTypes))
	for _, t := range domain.ExperienceTypes {
		multipliers[t] = 1.0
		rates[t] = defaultConversionRates[t]
	}
	return &Ledger{
		curve:       curve,
		multipliers: multipliers,
		rates:       rates,
	}
}

// Curve returns the level curve in use.
func (l *Ledger) Curve() *Curve {
	return l.curve
}

// SetMultiplier replaces the category multiplier. Applies to future gains
// only.
func (l *Ledger) SetMultiplier(t domain.ExperienceType, m float64) error {
	if !domain.ValidExperienceType(t) {
		return fmt.Errorf("%w: unknown experience type %q", domain.ErrInvariant, t)
	}
	if m < 0 {
		return &domain.InvariantError{Reason: fmt.Sprintf("multiplier %v is negative", m)}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.multipliers[t] = m
	return nil
}

// Multiplier returns the current category multiplier.
func (l *Ledger) Multiplier(t domain.ExperienceType) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if m, ok := l.multipliers[t]; ok {
		return m
	}
	return 1.0
}

// SetConversionRate replaces the category → learning points conversion rate.
func (l *Ledger) SetConversionRate(t domain.ExperienceType, rate float64) error {
	if !domain.ValidExperienceType(t) {
		return fmt.Errorf("%w: unknown experience type %q", domain.ErrInvariant, t)
	}
	if rate < 0 {
		return &domain.InvariantError{Reason: fmt.Sprintf("conversion rate %v is negative", rate)}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rates[t] = rate
	return nil
}

// Gain applies a base experience amount to the player. The base is scaled by
// the category multiplier and the player's level multiplier, levels are
// recomputed (one LevelUp per threshold crossed, each crediting level-up
// points), and the scaled amount is converted to learning points. The player
// state and its point balances are mutated in place. A zero base is accepted
// and changes nothing.
func (l *Ledger) Gain(state *domain.PlayerState, t domain.ExperienceType, base float64) (GainResult, error) {
	if !domain.ValidExperienceType(t) {
		return GainResult{}, fmt.Errorf("%w: unknown experience type %q", domain.ErrInvariant, t)
	}
	if base < 0 {
		return GainResult{}, &domain.InvariantError{Reason: fmt.Sprintf("experience gain %v is negative", base)}
	}

	l.mu.RLock()
	multiplier := l.multipliers[t]
	rate := l.rates[t]
	l.mu.RUnlock()

	actual := base * multiplier * l.curve.MultiplierForLevel(state.Level)

	state.Experience[t] += actual

	result := GainResult{
		Type:         t,
		BaseAmount:   base,
		ActualAmount: actual,
		OldLevel:     state.Level,
	}

	ledger := points.Wrap(state.Points)

	newLevel := l.curve.LevelFor(totalExperience(state))
	for level := state.Level + 1; level <= newLevel; level++ {
		award := l.curve.PointsForLevel(level)
		if _, err := ledger.Credit(domain.PointsLevelUp, award); err != nil {
			return GainResult{}, fmt.Errorf("crediting level-up points: %w", err)
		}
		result.LevelUps = append(result.LevelUps, LevelUp{Level: level, PointsAwarded: award})
	}
	if newLevel > state.Level {
		state.Level = newLevel
	}
	result.NewLevel = state.Level

	if converted := int(actual * rate); converted > 0 {
		if _, err := ledger.Credit(domain.PointsLearning, converted); err != nil {
			return GainResult{}, fmt.Errorf("crediting learning points: %w", err)
		}
		result.LearningPoints = converted
	}

	return result, nil
}

// SetExperience overwrites the player's experience for one category without
// conversion or point awards. The level is recomputed from the new totals.
func (l *Ledger) SetExperience(state *domain.PlayerState, t domain.ExperienceType, value float64) error {
	if !domain.ValidExperienceType(t) {
		return fmt.Errorf("%w: unknown experience type %q", domain.ErrInvariant, t)
	}
	if value < 0 {
		return &domain.InvariantError{Reason: fmt.Sprintf("experience %v is negative", value)}
	}
	state.Experience[t] = value
	state.Level = l.curve.LevelFor(totalExperience(state))
	if state.Level < 1 {
		state.Level = 1
	}
	return nil
}

// SetLevel overwrites the player's level without touching experience or
// awarding points.
func (l *Ledger) SetLevel(state *domain.PlayerState, level int) error {
	if level < 1 || level > MaxLevel {
		return &domain.InvariantError{Reason: fmt.Sprintf("level %d out of range [1,%d]", level, MaxLevel)}
	}
	state.Level = level
	return nil
}

// Snapshot builds the presentation projection for the player.
func (l *Ledger) Snapshot(state *domain.PlayerState) domain.ExperienceSnapshot {
	l.mu.RLock()
	multipliers := make(map[domain.ExperienceType]float64, len(l.multipliers))
	for t, m := range l.multipliers {
		multipliers[t] = m
	}
	l.mu.RUnlock()

	total := totalExperience(state)
	inLevel := total - float64(l.curve.ExperienceForLevel(state.Level))
	if inLevel < 0 {
		// New players hold level 1 before reaching its threshold.
		inLevel = 0
	}
	byType := make(map[domain.ExperienceType]float64, len(state.Experience))
	for t, v := range state.Experience {
		byType[t] = v
	}
	balances := make(map[domain.PointsType]int, len(state.Points))
	for t, v := range state.Points {
		balances[t] = v
	}

	return domain.ExperienceSnapshot{
		Player:                 state.Player,
		Level:                  state.Level,
		LevelProgress:          l.curve.Progress(total),
		CurrentLevelExperience: inLevel,
		TotalExperience:        total,
		ExperienceByType:       byType,
		PointsByType:           balances,
		Multipliers:            multipliers,
	}
}

func totalExperience(state *domain.PlayerState) float64 {
	var total float64
	for _, v := range state.Experience {
		total += v
	}
	return total
}
