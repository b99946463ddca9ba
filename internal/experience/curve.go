// Package experience implements the typed experience ledger: level curve,
// category multipliers, and conversion of experience gains into learning
// points.
package experience

import (
	"fmt"
	"math"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
)

// MaxLevel is the level cap. Experience past the cap accumulates but awards
// nothing further.
const MaxLevel = 100

// Curve maps total experience to levels and levels to point awards and
// gain multipliers. Index 0 is the unleveled state.
type Curve struct {
	thresholds  []int64   // cumulative experience required to hold each level
	points      []int     // level-up points awarded on reaching each level
	multipliers []float64 // gain multiplier while at each level
}

// NewCurve generates the default curve: level 1 at 100 experience, each
// subsequent threshold 15% higher, one extra point every five levels, and a
// 10% multiplier bump every ten levels.
func NewCurve() *Curve {
	c := &Curve{
		thresholds:  make([]int64, MaxLevel+1),
		points:      make([]int, MaxLevel+1),
		multipliers: make([]float64, MaxLevel+1),
	}

	c.thresholds[0] = 0
	c.points[0] = 0
	c.multipliers[0] = 1.0

	if MaxLevel >= 1 {
		c.thresholds[1] = 100
		c.points[1] = 1
		c.multipliers[1] = 1.0
	}

	for level := 2; level <= MaxLevel; level++ {
		c.thresholds[level] = int64(math.Round(float64(c.thresholds[level-1]) * 1.15))
		c.points[level] = 1 + level/5
		c.multipliers[level] = 1.0 + float64(level/10)*0.1
	}

	return c
}

// CurveConfig is the serializable form of a curve. Arrays are indexed by
// level; missing tail entries keep their generated defaults.
type CurveConfig struct {
	Thresholds  []int64   `json:"experience_curve,omitempty"`
	Points      []int     `json:"points_per_level,omitempty"`
	Multipliers []float64 `json:"multipliers,omitempty"`
}

// NewCurveFromConfig builds a curve from cfg, overlaying it on the generated
// defaults. Thresholds must be non-decreasing.
func NewCurveFromConfig(cfg CurveConfig) (*Curve, error) {
	c := NewCurve()
	for i, v := range cfg.Thresholds {
		if i > MaxLevel {
			break
		}
		c.thresholds[i] = v
	}
	for i, v := range cfg.Points {
		if i > MaxLevel {
			break
		}
		if v < 0 {
			v = 0
		}
		c.points[i] = v
	}
	for i, v := range cfg.Multipliers {
		if i > MaxLevel {
			break
		}
		if v < 0.1 {
			v = 0.1
		}
		c.multipliers[i] = v
	}

	for level := 1; level <= MaxLevel; level++ {
		if c.thresholds[level] < c.thresholds[level-1] {
			return nil, fmt.Errorf("%w: experience threshold for level %d below level %d", domain.ErrConfigCorrupt, level, level-1)
		}
	}

	return c, nil
}

// Config exports the curve in its serializable form.
func (c *Curve) Config() CurveConfig {
	cfg := CurveConfig{
		Thresholds:  make([]int64, len(c.thresholds)),
		Points:      make([]int, len(c.points)),
		Multipliers: make([]float64, len(c.multipliers)),
	}
	copy(cfg.Thresholds, c.thresholds)
	copy(cfg.Points, c.points)
	copy(cfg.Multipliers, c.multipliers)
	return cfg
}

// ExperienceForLevel returns the cumulative experience needed to hold level.
func (c *Curve) ExperienceForLevel(level int) int64 {
	if level < 0 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return c.thresholds[level]
}

// LevelFor computes the level held at the given total experience.
func (c *Curve) LevelFor(total float64) int {
	for level := MaxLevel; level >= 0; level-- {
		if total >= float64(c.thresholds[level]) {
			return level
		}
	}
	return 0
}

// Progress returns progress toward the next level in [0,1). At the cap it
// saturates just below 1.
func (c *Curve) Progress(total float64) float64 {
	level := c.LevelFor(total)
	if level >= MaxLevel {
		return math.Nextafter(1, 0)
	}

	current := float64(c.thresholds[level])
	next := float64(c.thresholds[level+1])
	if next <= current {
		return math.Nextafter(1, 0)
	}
	return (total - current) / (next - current)
}

// PointsForLevel returns the level-up points awarded on reaching level.
func (c *Curve) PointsForLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return c.points[level]
}

// MultiplierForLevel returns the gain multiplier applied while at level.
func (c *Curve) MultiplierForLevel(level int) float64 {
	if level < 0 {
		return 1.0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return c.multipliers[level]
}

// IsMaxLevel reports whether level is at or past the cap.
func (c *Curve) IsMaxLevel(level int) bool {
	return level >= MaxLevel
}
