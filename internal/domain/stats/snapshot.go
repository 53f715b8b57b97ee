// Package stats defines the external player-statistics model. Snapshots are
// point-in-time views supplied by the stats provider (Wise Old Man); they are
// evaluator input only and are never persisted by this service.
package stats

import (
	"context"
	"strings"
	"time"
)

// SkillStat is one skill's level and experience in a snapshot.
type SkillStat struct {
	Level      int   `json:"level"`
	Experience int64 `json:"experience"`
}

// PlayerSnapshot is a point-in-time view of a player's skills, boss kill
// counts, and achievements. Keys are normalized to lowercase with spaces.
type PlayerSnapshot struct {
	Player       string               `json:"player"`
	Skills       map[string]SkillStat `json:"skills"`
	BossKills    map[string]int       `json:"boss_kills"`
	Achievements []string             `json:"achievements"`
	TakenAt      time.Time            `json:"taken_at"`
}

// normalizeKey lowercases and collapses separators so lookups match
// regardless of source casing ("Chambers_of_Xeric" vs "chambers of xeric").
func normalizeKey(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return s
}

// Skill returns the named skill's stat, or a zero stat if absent.
func (s *PlayerSnapshot) Skill(name string) SkillStat {
	if s == nil || s.Skills == nil {
		return SkillStat{}
	}
	return s.Skills[normalizeKey(name)]
}

// BossKillCount returns the kill count for the named boss, or 0.
func (s *PlayerSnapshot) BossKillCount(name string) int {
	if s == nil || s.BossKills == nil {
		return 0
	}
	return s.BossKills[normalizeKey(name)]
}

// HasAchievement reports whether the named achievement is present.
func (s *PlayerSnapshot) HasAchievement(name string) bool {
	if s == nil {
		return false
	}
	want := normalizeKey(name)
	for _, a := range s.Achievements {
		if normalizeKey(a) == want {
			return true
		}
	}
	return false
}

// SetSkill records a skill stat under the normalized key. Used by provider
// mappers and test fixtures.
func (s *PlayerSnapshot) SetSkill(name string, stat SkillStat) {
	if s.Skills == nil {
		s.Skills = make(map[string]SkillStat)
	}
	s.Skills[normalizeKey(name)] = stat
}

// SetBossKills records a boss kill count under the normalized key.
func (s *PlayerSnapshot) SetBossKills(name string, kills int) {
	if s.BossKills == nil {
		s.BossKills = make(map[string]int)
	}
	s.BossKills[normalizeKey(name)] = kills
}

// Provider fetches player snapshots from the external statistics service.
// Every call carries a bounded timeout via its context; a slow provider must
// not stall callers beyond that bound.
type Provider interface {
	// FetchSnapshot returns the player's latest snapshot, or
	// shared.ErrNotFound / shared.ErrServiceUnavailable.
	FetchSnapshot(ctx context.Context, player string) (*PlayerSnapshot, error)

	// RequestUpdate asks the provider to re-poll the game hiscores for the
	// player. Best-effort; the refreshed data arrives in later snapshots.
	RequestUpdate(ctx context.Context, player string) error
}
