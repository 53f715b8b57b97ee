// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened to a board and is fanned out to the configured webhook channels.
const (
	EventBoardCreated  EventType = "board.created"
	EventTileCompleted EventType = "board.tile_completed"
	EventTileReset     EventType = "board.tile_reset"
	EventBingoAchieved EventType = "board.bingo_achieved"
	EventDropRecorded  EventType = "drop.recorded"
)

// Category groups event types into webhook destinations. The dispatcher is
// configured with an explicit {category: [endpoint...]} map, so routing never
// consults process-wide state.
type Category string

const (
	// CategoryMain receives general announcements (board creation, tests).
	CategoryMain Category = "main"
	// CategoryDrops receives item drop notifications.
	CategoryDrops Category = "drops"
	// CategoryBingo receives tile completion and bingo notifications.
	CategoryBingo Category = "bingo"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// Category returns the webhook category this event is routed to.
	Category() Category

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event
	// (the board name for board events, the drop ID for drop events).
	AggregateID() string
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Board Events
// ═══════════════════════════════════════════════════════════════════════════

// BoardCreatedEvent is emitted when a new bingo board is created.
type BoardCreatedEvent struct {
	BaseEvent
	BoardName string   `json:"board_name"`
	Teams     []string `json:"teams"`
	Rows      int      `json:"rows"`
	Cols      int      `json:"cols"`
}

// Category implements Event interface.
func (e BoardCreatedEvent) Category() Category { return CategoryMain }

// NewBoardCreatedEvent creates a new BoardCreatedEvent.
func NewBoardCreatedEvent(boardName string, teams []string, rows, cols int) BoardCreatedEvent {
	return BoardCreatedEvent{
		BaseEvent: NewBaseEvent(EventBoardCreated, boardName),
		BoardName: boardName,
		Teams:     teams,
		Rows:      rows,
		Cols:      cols,
	}
}

// TileCompletedEvent is emitted when a tile transitions from open to checked.
type TileCompletedEvent struct {
	BaseEvent
	BoardName string `json:"board_name"`
	TeamName  string `json:"team_name"`
	TileTitle string `json:"tile_title"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	Points    int    `json:"points"`
	Player    string `json:"player"`
	ProofURL  string `json:"proof_url,omitempty"`
}

// Category implements Event interface.
func (e TileCompletedEvent) Category() Category { return CategoryBingo }

// NewTileCompletedEvent creates a new TileCompletedEvent.
func NewTileCompletedEvent(boardName, teamName, tileTitle string, row, col, points int, player, proofURL string) TileCompletedEvent {
	return TileCompletedEvent{
		BaseEvent: NewBaseEvent(EventTileCompleted, boardName),
		BoardName: boardName,
		TeamName:  teamName,
		TileTitle: tileTitle,
		Row:       row,
		Col:       col,
		Points:    points,
		Player:    player,
		ProofURL:  proofURL,
	}
}

// TileResetEvent is emitted when an admin resets a checked tile back to open.
// Resets are audited: they name who performed them and the prior completion.
type TileResetEvent struct {
	BaseEvent
	BoardName   string `json:"board_name"`
	TeamName    string `json:"team_name"`
	TileTitle   string `json:"tile_title"`
	Row         int    `json:"row"`
	Col         int    `json:"col"`
	CompletedBy string `json:"completed_by"`
}

// Category implements Event interface.
func (e TileResetEvent) Category() Category { return CategoryBingo }

// NewTileResetEvent creates a new TileResetEvent.
func NewTileResetEvent(boardName, teamName, tileTitle string, row, col int, completedBy string) TileResetEvent {
	return TileResetEvent{
		BaseEvent:   NewBaseEvent(EventTileReset, boardName),
		BoardName:   boardName,
		TeamName:    teamName,
		TileTitle:   tileTitle,
		Row:         row,
		Col:         col,
		CompletedBy: completedBy,
	}
}

// BingoAchievedEvent is emitted when a tile completion fills a full row,
// column, or diagonal for a team.
type BingoAchievedEvent struct {
	BaseEvent
	BoardName   string `json:"board_name"`
	TeamName    string `json:"team_name"`
	LineType    string `json:"line_type"` // "row", "column", "diagonal"
	TotalPoints int    `json:"total_points"`
}

// Category implements Event interface.
func (e BingoAchievedEvent) Category() Category { return CategoryBingo }

// NewBingoAchievedEvent creates a new BingoAchievedEvent.
func NewBingoAchievedEvent(boardName, teamName, lineType string, totalPoints int) BingoAchievedEvent {
	return BingoAchievedEvent{
		BaseEvent:   NewBaseEvent(EventBingoAchieved, boardName),
		BoardName:   boardName,
		TeamName:    teamName,
		LineType:    lineType,
		TotalPoints: totalPoints,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Drop Events
// ═══════════════════════════════════════════════════════════════════════════

// DropRecordedEvent is emitted when a player's item drop is recorded.
type DropRecordedEvent struct {
	BaseEvent
	DropID        string `json:"drop_id"`
	PlayerName    string `json:"player_name"`
	ItemName      string `json:"item_name"`
	Quantity      int    `json:"quantity"`
	Rarity        string `json:"rarity,omitempty"`
	Value         int64  `json:"value,omitempty"`
	ScreenshotURL string `json:"screenshot_url,omitempty"`
	TeamName      string `json:"team_name,omitempty"`
}

// Category implements Event interface.
func (e DropRecordedEvent) Category() Category { return CategoryDrops }

// NewDropRecordedEvent creates a new DropRecordedEvent.
func NewDropRecordedEvent(dropID, playerName, itemName string, quantity int, rarity string, value int64, screenshotURL, teamName string) DropRecordedEvent {
	return DropRecordedEvent{
		BaseEvent:     NewBaseEvent(EventDropRecorded, dropID),
		DropID:        dropID,
		PlayerName:    playerName,
		ItemName:      itemName,
		Quantity:      quantity,
		Rarity:        rarity,
		Value:         value,
		ScreenshotURL: screenshotURL,
		TeamName:      teamName,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Publishing
// ═══════════════════════════════════════════════════════════════════════════

// EventPublisher accepts domain events for asynchronous fan-out. Publishing
// must never block on network delivery; implementations queue and return.
type EventPublisher interface {
	// Publish hands an event to the dispatcher. A nil error means the event
	// was accepted for delivery, not that it was delivered.
	Publish(event Event) error
}

// NopPublisher discards all events. Used when no webhooks are configured and
// in tests that do not assert on notifications.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }
