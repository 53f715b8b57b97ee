// Package wom implements the Wise Old Man API client. It is the stats
// provider behind the rule evaluator: player skill levels, boss kill counts,
// and achievements all come from here.
package wom

import (
	"time"

	"github.com/gielinor-events/bingo-hub/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// DATA TRANSFER OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// PlayerDTO is the WOM player details payload (GET /players/{username}).
type PlayerDTO struct {
	ID             int          `json:"id"`
	Username       string       `json:"username"`
	DisplayName    string       `json:"displayName"`
	Type           string       `json:"type"`
	Status         string       `json:"status"`
	UpdatedAt      *time.Time   `json:"updatedAt"`
	LatestSnapshot *SnapshotDTO `json:"latestSnapshot"`
}

// SnapshotDTO is one WOM snapshot.
type SnapshotDTO struct {
	CreatedAt time.Time       `json:"createdAt"`
	Data      SnapshotDataDTO `json:"data"`
}

// SnapshotDataDTO groups the metric sections of a snapshot.
type SnapshotDataDTO struct {
	Skills map[string]SkillDTO `json:"skills"`
	Bosses map[string]BossDTO  `json:"bosses"`
}

// SkillDTO is one skill metric.
type SkillDTO struct {
	Metric     string `json:"metric"`
	Experience int64  `json:"experience"`
	Level      int    `json:"level"`
	Rank       int    `json:"rank"`
}

// BossDTO is one boss metric. WOM reports -1 kills for unranked bosses.
type BossDTO struct {
	Metric string `json:"metric"`
	Kills  int    `json:"kills"`
	Rank   int    `json:"rank"`
}

// AchievementDTO is one entry of GET /players/{username}/achievements.
type AchievementDTO struct {
	Name      string    `json:"name"`
	Metric    string    `json:"metric"`
	Threshold int64     `json:"threshold"`
	CreatedAt time.Time `json:"createdAt"`
}

// APIErrorDTO is the WOM error envelope.
type APIErrorDTO struct {
	Message string `json:"message"`
}

func (e *APIErrorDTO) Error() string {
	return "wom api error: " + e.Message
}

// ══════════════════════════════════════════════════════════════════════════════
// MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// toSnapshot converts a player payload plus achievements into the domain
// snapshot. Unranked boss entries (-1) are dropped rather than stored as
// negative kill counts.
func toSnapshot(player *PlayerDTO, achievements []AchievementDTO) *stats.PlayerSnapshot {
	snap := &stats.PlayerSnapshot{
		Player:  player.DisplayName,
		TakenAt: time.Now().UTC(),
	}
	if snap.Player == "" {
		snap.Player = player.Username
	}

	if player.LatestSnapshot != nil {
		snap.TakenAt = player.LatestSnapshot.CreatedAt
		for name, skill := range player.LatestSnapshot.Data.Skills {
			snap.SetSkill(name, stats.SkillStat{
				Level:      skill.Level,
				Experience: skill.Experience,
			})
		}
		for name, boss := range player.LatestSnapshot.Data.Bosses {
			if boss.Kills >= 0 {
				snap.SetBossKills(name, boss.Kills)
			}
		}
	}

	for _, a := range achievements {
		snap.Achievements = append(snap.Achievements, a.Name)
	}
	return snap
}
