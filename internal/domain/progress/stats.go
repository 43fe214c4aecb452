// Package progress - ядро экономики: баланс очков, опыт, уровень, серия
// и записи об участии в челленджах, наградах, достижениях и вопросах.
// Изменять UserStats можно только через Ledger.
package progress

import (
	"time"
)

// UserStats - баланс и прогресс одного пользователя. Ровно одна запись на пользователя.
type UserStats struct {
	UserID string `json:"userId"`

	// Points - тратимая валюта, никогда не отрицательная.
	Points int `json:"points"`

	// XP - накопленный опыт, никогда не отрицательный.
	XP int `json:"xp"`

	// Level всегда равен LevelPolicy.Level(XP) на момент последней записи.
	Level int `json:"level"`

	// Streak - число подряд идущих дней с активностью.
	Streak int `json:"streak"`

	// LastActivityAt - время последнего изменения через Ledger; nil у новых пользователей.
	LastActivityAt *time.Time `json:"lastActivityDate"`
}

// NewUserStats возвращает статистику по умолчанию для нового пользователя.
func NewUserStats(userID string) *UserStats {
	return &UserStats{
		UserID: userID,
		Points: 0,
		XP:     0,
		Level:  1,
		Streak: 0,
	}
}

// Clone возвращает независимую копию.
func (s *UserStats) Clone() *UserStats {
	c := *s
	if s.LastActivityAt != nil {
		t := *s.LastActivityAt
		c.LastActivityAt = &t
	}
	return &c
}

// CanAfford проверяет, хватает ли очков.
func (s *UserStats) CanAfford(cost int) bool {
	return s.Points >= cost
}
