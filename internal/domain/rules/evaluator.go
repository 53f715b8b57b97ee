// Package rules implements the tile requirement evaluator: a pure function
// from (requirement, snapshot) to an outcome. It never performs I/O and never
// returns an error; inputs it cannot interpret fail closed with a diagnostic.
package rules

import (
	"fmt"

	"github.com/gielinor-events/bingo-hub/internal/domain/board"
	"github.com/gielinor-events/bingo-hub/internal/domain/stats"
)

// Outcome is the result of evaluating one requirement against one snapshot.
type Outcome struct {
	// Satisfied is true when the snapshot meets the requirement.
	Satisfied bool

	// Applicable is false for requirement types that cannot be decided from
	// a snapshot (item tiles complete only through drop evidence).
	Applicable bool

	// Diagnostic is set when the requirement could not be evaluated
	// normally (unknown type). Unknown types are reported, never silently
	// treated as a default case.
	Diagnostic string
}

// Evaluate decides whether a snapshot satisfies a requirement. Dispatch is
// exhaustive over the closed requirement variant; anything else fails closed.
func Evaluate(req board.Requirement, snap *stats.PlayerSnapshot) Outcome {
	switch req.Type {
	case board.RequirementItem:
		// Item tiles are completed by the drop-triggered path only.
		return Outcome{Applicable: false}

	case board.RequirementSkill:
		level := snap.Skill(req.Skill).Level
		return Outcome{Satisfied: level >= req.Level, Applicable: true}

	case board.RequirementBoss:
		kills := snap.BossKillCount(req.Boss)
		return Outcome{Satisfied: kills >= req.KillCount, Applicable: true}

	case board.RequirementExperience:
		xp := snap.Skill(req.Skill).Experience
		return Outcome{Satisfied: xp >= req.Experience, Applicable: true}

	case board.RequirementAchievement:
		return Outcome{Satisfied: snap.HasAchievement(req.Achievement), Applicable: true}

	default:
		return Outcome{
			Applicable: true,
			Diagnostic: fmt.Sprintf("unknown requirement type %q", req.Type),
		}
	}
}

// Result pairs a requirement with its evaluation outcome.
type Result struct {
	Requirement board.Requirement
	Outcome     Outcome
}

// EvaluateAll evaluates every requirement against the snapshot and returns
// the results in input order.
func EvaluateAll(reqs []board.Requirement, snap *stats.PlayerSnapshot) []Result {
	results := make([]Result, len(reqs))
	for i, req := range reqs {
		results[i] = Result{Requirement: req, Outcome: Evaluate(req, snap)}
	}
	return results
}

// Satisfied filters EvaluateAll down to the requirements the snapshot meets.
func Satisfied(reqs []board.Requirement, snap *stats.PlayerSnapshot) []board.Requirement {
	var met []board.Requirement
	for _, r := range EvaluateAll(reqs, snap) {
		if r.Outcome.Applicable && r.Outcome.Satisfied {
			met = append(met, r.Requirement)
		}
	}
	return met
}
