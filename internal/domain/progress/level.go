package progress

import (
	"errors"
	"sort"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL POLICY
// Уровень - чистая функция от XP. Политика подключаемая, но в рамках одного
// процесса должна быть одна и та же, иначе уровни станут несопоставимы.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultXPPerLevel - шаг линейной политики по умолчанию.
const DefaultXPPerLevel = 300

// ErrInvalidThresholds - пороги должны строго возрастать и начинаться с нуля.
var ErrInvalidThresholds = errors.New("progress: level thresholds must start at 0 and strictly increase")

// LevelPolicy вычисляет уровень по XP.
// Контракт: Level(0) == 1, Level не убывает по xp.
type LevelPolicy interface {
	// Level возвращает уровень для данного XP (xp >= 0).
	Level(xp int) int

	// NextLevelXP возвращает XP, при котором начинается уровень level+1.
	NextLevelXP(level int) int

	// LevelStartXP возвращает XP, с которого начинается уровень level.
	LevelStartXP(level int) int
}

// LinearLevelPolicy: каждые XPPerLevel очков опыта - новый уровень.
// Уровень L занимает диапазон [(L-1)*XPPerLevel, L*XPPerLevel).
type LinearLevelPolicy struct {
	XPPerLevel int
}

// NewLinearLevelPolicy создаёт линейную политику; xpPerLevel <= 0 даёт значение по умолчанию.
func NewLinearLevelPolicy(xpPerLevel int) LinearLevelPolicy {
	if xpPerLevel <= 0 {
		xpPerLevel = DefaultXPPerLevel
	}
	return LinearLevelPolicy{XPPerLevel: xpPerLevel}
}

// Level реализует LevelPolicy.
func (p LinearLevelPolicy) Level(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/p.XPPerLevel + 1
}

// NextLevelXP реализует LevelPolicy.
func (p LinearLevelPolicy) NextLevelXP(level int) int {
	if level < 1 {
		level = 1
	}
	return level * p.XPPerLevel
}

// LevelStartXP реализует LevelPolicy.
func (p LinearLevelPolicy) LevelStartXP(level int) int {
	if level < 1 {
		level = 1
	}
	return (level - 1) * p.XPPerLevel
}

// ThresholdLevelPolicy задаёт уровни таблицей порогов.
// thresholds[i] - XP, начиная с которого действует уровень i+1.
// После последнего порога уровни растут с шагом последнего интервала.
type ThresholdLevelPolicy struct {
	thresholds []int
}

// NewThresholdLevelPolicy проверяет и копирует таблицу порогов.
func NewThresholdLevelPolicy(thresholds []int) (ThresholdLevelPolicy, error) {
	if len(thresholds) < 2 || thresholds[0] != 0 {
		return ThresholdLevelPolicy{}, ErrInvalidThresholds
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] <= thresholds[i-1] {
			return ThresholdLevelPolicy{}, ErrInvalidThresholds
		}
	}
	t := make([]int, len(thresholds))
	copy(t, thresholds)
	return ThresholdLevelPolicy{thresholds: t}, nil
}

func (p ThresholdLevelPolicy) tailStep() int {
	n := len(p.thresholds)
	return p.thresholds[n-1] - p.thresholds[n-2]
}

// Level реализует LevelPolicy.
func (p ThresholdLevelPolicy) Level(xp int) int {
	if xp < 0 {
		xp = 0
	}
	n := len(p.thresholds)
	last := p.thresholds[n-1]
	if xp >= last {
		return n + (xp-last)/p.tailStep()
	}
	// первый порог, строго больший xp
	i := sort.Search(n, func(i int) bool { return p.thresholds[i] > xp })
	return i
}

// LevelStartXP реализует LevelPolicy.
func (p ThresholdLevelPolicy) LevelStartXP(level int) int {
	if level < 1 {
		level = 1
	}
	n := len(p.thresholds)
	if level <= n {
		return p.thresholds[level-1]
	}
	return p.thresholds[n-1] + (level-n)*p.tailStep()
}

// NextLevelXP реализует LevelPolicy.
func (p ThresholdLevelPolicy) NextLevelXP(level int) int {
	if level < 1 {
		level = 1
	}
	return p.LevelStartXP(level + 1)
}

// Progress возвращает долю пройденного уровня в процентах (0-100).
func Progress(policy LevelPolicy, xp int) int {
	level := policy.Level(xp)
	start := policy.LevelStartXP(level)
	span := policy.NextLevelXP(level) - start
	if span <= 0 {
		return 0
	}
	return (xp - start) * 100 / span
}
