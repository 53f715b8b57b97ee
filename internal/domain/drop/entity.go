// Package drop contains the immutable item-drop record. Drops are evidence,
// not board state: they are appended once and never mutated or deleted
// through the normal flow.
package drop

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
)

// Drop is one recorded item acquisition.
type Drop struct {
	ID            string    `json:"id"`
	PlayerName    string    `json:"player_name"`
	ItemName      string    `json:"item_name"`
	Quantity      int       `json:"quantity"`
	Rarity        string    `json:"rarity,omitempty"`   // e.g. "1/128"
	Value         int64     `json:"value,omitempty"`    // item value in gp
	ScreenshotURL string    `json:"screenshot,omitempty"`
	TeamName      string    `json:"team_name,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Input is the caller-supplied portion of a drop record.
type Input struct {
	PlayerName    string
	ItemName      string
	Quantity      int
	Rarity        string
	Value         int64
	ScreenshotURL string
	TeamName      string
}

// Validate checks required fields. A zero quantity is normalized to 1 by New,
// so only negative quantities are rejected here.
func (in Input) Validate() error {
	if strings.TrimSpace(in.PlayerName) == "" {
		return shared.NewDomainError("drop", "Validate", shared.ErrEmptyValue, "player name cannot be empty")
	}
	if strings.TrimSpace(in.ItemName) == "" {
		return shared.ErrEmptyItemName
	}
	if in.Quantity < 0 {
		return shared.ErrInvalidQuantity
	}
	return nil
}

// New builds a validated Drop with a fresh ID and timestamp.
func New(in Input, now time.Time) (*Drop, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	return &Drop{
		ID:            uuid.NewString(),
		PlayerName:    strings.TrimSpace(in.PlayerName),
		ItemName:      strings.TrimSpace(in.ItemName),
		Quantity:      qty,
		Rarity:        in.Rarity,
		Value:         in.Value,
		ScreenshotURL: in.ScreenshotURL,
		TeamName:      strings.TrimSpace(in.TeamName),
		Timestamp:     now,
	}, nil
}
