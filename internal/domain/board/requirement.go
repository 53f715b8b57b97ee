package board

import (
	"fmt"
	"strings"

	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
)

// RequirementType is the closed set of tile requirement variants. The rule
// evaluator dispatches exhaustively over these; adding a variant is a
// compile-visible change, not a string match with a silent default.
type RequirementType string

const (
	// RequirementItem is completed only through drop evidence, never by the
	// periodic stat check.
	RequirementItem RequirementType = "item"
	// RequirementSkill requires a skill level at or above a threshold.
	RequirementSkill RequirementType = "skill"
	// RequirementBoss requires a boss kill count at or above a threshold.
	RequirementBoss RequirementType = "boss"
	// RequirementExperience requires skill experience at or above a threshold.
	RequirementExperience RequirementType = "experience"
	// RequirementAchievement requires a named achievement to be present.
	RequirementAchievement RequirementType = "achievement"
)

// IsValid reports whether the type is one of the closed variants.
func (t RequirementType) IsValid() bool {
	switch t {
	case RequirementItem, RequirementSkill, RequirementBoss,
		RequirementExperience, RequirementAchievement:
		return true
	}
	return false
}

// Requirement is the tagged variant describing what completes a tile.
// Only the fields for the active Type are meaningful.
type Requirement struct {
	Type RequirementType `json:"type"`

	// Item variant.
	ItemName string `json:"item_name,omitempty"`

	// Skill and experience variants.
	Skill      string `json:"skill,omitempty"`
	Level      int    `json:"level,omitempty"`
	Experience int64  `json:"experience,omitempty"`

	// Boss variant.
	Boss      string `json:"boss,omitempty"`
	KillCount int    `json:"kill_count,omitempty"`

	// Achievement variant.
	Achievement string `json:"achievement,omitempty"`
}

// ItemRequirement builds an item-drop requirement.
func ItemRequirement(itemName string) Requirement {
	return Requirement{Type: RequirementItem, ItemName: itemName}
}

// SkillRequirement builds a skill-level requirement.
func SkillRequirement(skill string, level int) Requirement {
	return Requirement{Type: RequirementSkill, Skill: skill, Level: level}
}

// BossRequirement builds a boss kill-count requirement.
func BossRequirement(boss string, killCount int) Requirement {
	return Requirement{Type: RequirementBoss, Boss: boss, KillCount: killCount}
}

// ExperienceRequirement builds a skill-experience requirement.
func ExperienceRequirement(skill string, experience int64) Requirement {
	return Requirement{Type: RequirementExperience, Skill: skill, Experience: experience}
}

// AchievementRequirement builds an achievement requirement.
func AchievementRequirement(achievement string) Requirement {
	return Requirement{Type: RequirementAchievement, Achievement: achievement}
}

// Validate checks that the active variant has its required fields.
func (r Requirement) Validate() error {
	switch r.Type {
	case RequirementItem:
		if strings.TrimSpace(r.ItemName) == "" {
			return shared.NewDomainError("board", "Validate", shared.ErrEmptyValue, "item requirement needs an item name")
		}
	case RequirementSkill:
		if strings.TrimSpace(r.Skill) == "" {
			return shared.NewDomainError("board", "Validate", shared.ErrEmptyValue, "skill requirement needs a skill name")
		}
		if r.Level < 1 || r.Level > 99 {
			return shared.NewDomainError("board", "Validate", shared.ErrValueOutOfRange, "skill level must be between 1 and 99")
		}
	case RequirementBoss:
		if strings.TrimSpace(r.Boss) == "" {
			return shared.NewDomainError("board", "Validate", shared.ErrEmptyValue, "boss requirement needs a boss name")
		}
		if r.KillCount < 1 {
			return shared.NewDomainError("board", "Validate", shared.ErrValueOutOfRange, "boss kill count must be at least 1")
		}
	case RequirementExperience:
		if strings.TrimSpace(r.Skill) == "" {
			return shared.NewDomainError("board", "Validate", shared.ErrEmptyValue, "experience requirement needs a skill name")
		}
		if r.Experience < 1 {
			return shared.NewDomainError("board", "Validate", shared.ErrValueOutOfRange, "experience threshold must be positive")
		}
	case RequirementAchievement:
		if strings.TrimSpace(r.Achievement) == "" {
			return shared.NewDomainError("board", "Validate", shared.ErrEmptyValue, "achievement requirement needs an identifier")
		}
	default:
		return shared.NewDomainError("board", "Validate", shared.ErrInvalidInput,
			fmt.Sprintf("unknown requirement type %q", r.Type))
	}
	return nil
}

// MatchesItem reports whether this is an item requirement for the given item.
// Matching is case-insensitive because drops arrive with client-side casing.
func (r Requirement) MatchesItem(itemName string) bool {
	return r.Type == RequirementItem &&
		strings.EqualFold(strings.TrimSpace(r.ItemName), strings.TrimSpace(itemName))
}

// Describe returns a short human-readable form for notifications and logs.
func (r Requirement) Describe() string {
	switch r.Type {
	case RequirementItem:
		return fmt.Sprintf("obtain %s", r.ItemName)
	case RequirementSkill:
		return fmt.Sprintf("reach level %d %s", r.Level, r.Skill)
	case RequirementBoss:
		return fmt.Sprintf("defeat %s x%d", r.Boss, r.KillCount)
	case RequirementExperience:
		return fmt.Sprintf("reach %d xp in %s", r.Experience, r.Skill)
	case RequirementAchievement:
		return fmt.Sprintf("complete %s", r.Achievement)
	default:
		return string(r.Type)
	}
}
