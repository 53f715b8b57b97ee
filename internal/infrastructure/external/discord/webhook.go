// Package discord renders domain events as Discord webhook payloads and
// delivers them over HTTP. It knows nothing about queues or retry policy;
// the notify dispatcher owns those.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
	"github.com/gielinor-events/bingo-hub/pkg/logger"
	"github.com/gielinor-events/bingo-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// PAYLOAD TYPES
// ══════════════════════════════════════════════════════════════════════════════

// Embed is a Discord rich embed.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Image       *EmbedMedia  `json:"image,omitempty"`
	Thumbnail   *EmbedMedia  `json:"thumbnail,omitempty"`
}

// EmbedField is one name/value pair inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedMedia references an image by URL.
type EmbedMedia struct {
	URL string `json:"url"`
}

// Payload is the webhook request body. Discord accepts plain content, embeds,
// or both.
type Payload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Embed accent colors per event kind.
const (
	colorDropGreen = 0x00ff00
	colorTileGold  = 0xffd700
	colorBingoRed  = 0xff0000
	colorBoardBlue = 0x3498db
	colorResetGray = 0x95a5a6
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT RENDERING
// ══════════════════════════════════════════════════════════════════════════════

// RenderEvent converts a domain event into its webhook payload. Events without
// a dedicated layout fall back to a plain-text line so nothing is silently
// dropped.
func RenderEvent(event shared.Event) Payload {
	switch e := event.(type) {
	case shared.BoardCreatedEvent:
		return renderBoardCreated(e)
	case shared.TileCompletedEvent:
		return renderTileCompleted(e)
	case shared.TileResetEvent:
		return renderTileReset(e)
	case shared.BingoAchievedEvent:
		return renderBingoAchieved(e)
	case shared.DropRecordedEvent:
		return renderDropRecorded(e)
	default:
		return Payload{
			Content: fmt.Sprintf("%s: %s", event.EventType(), event.AggregateID()),
		}
	}
}

func renderBoardCreated(e shared.BoardCreatedEvent) Payload {
	embed := Embed{
		Title:       "📋 New Bingo Board",
		Description: e.BoardName,
		Color:       colorBoardBlue,
		Timestamp:   e.OccurredAt().Format(time.RFC3339),
		Fields: []EmbedField{
			{Name: "Size", Value: fmt.Sprintf("%d×%d", e.Rows, e.Cols), Inline: true},
			{Name: "Teams", Value: strconv.Itoa(len(e.Teams)), Inline: true},
		},
	}
	return Payload{Embeds: []Embed{embed}}
}

func renderTileCompleted(e shared.TileCompletedEvent) Payload {
	embed := Embed{
		Title:       "✅ Bingo Tile Completed!",
		Description: e.TileTitle,
		Color:       colorTileGold,
		Timestamp:   e.OccurredAt().Format(time.RFC3339),
		Fields: []EmbedField{
			{Name: "Team", Value: e.TeamName, Inline: true},
			{Name: "Player", Value: e.Player, Inline: true},
			{Name: "Points", Value: strconv.Itoa(e.Points), Inline: true},
		},
	}
	if e.ProofURL != "" {
		embed.Thumbnail = &EmbedMedia{URL: e.ProofURL}
	}
	return Payload{Embeds: []Embed{embed}}
}

func renderTileReset(e shared.TileResetEvent) Payload {
	embed := Embed{
		Title:       "↩️ Tile Reset",
		Description: e.TileTitle,
		Color:       colorResetGray,
		Timestamp:   e.OccurredAt().Format(time.RFC3339),
		Fields: []EmbedField{
			{Name: "Team", Value: e.TeamName, Inline: true},
			{Name: "Was completed by", Value: orDash(e.CompletedBy), Inline: true},
		},
	}
	return Payload{Embeds: []Embed{embed}}
}

func renderBingoAchieved(e shared.BingoAchievedEvent) Payload {
	embed := Embed{
		Title:       "🎊 BINGO!",
		Description: fmt.Sprintf("%s achieved a %s bingo!", e.TeamName, e.LineType),
		Color:       colorBingoRed,
		Timestamp:   e.OccurredAt().Format(time.RFC3339),
		Fields: []EmbedField{
			{Name: "Team", Value: e.TeamName, Inline: true},
			{Name: "Type", Value: e.LineType, Inline: true},
			{Name: "Total Points", Value: strconv.Itoa(e.TotalPoints), Inline: true},
		},
	}
	return Payload{Embeds: []Embed{embed}}
}

func renderDropRecorded(e shared.DropRecordedEvent) Payload {
	embed := Embed{
		Title:     fmt.Sprintf("🎉 %s Drop!", e.ItemName),
		Color:     colorDropGreen,
		Timestamp: e.OccurredAt().Format(time.RFC3339),
		Fields: []EmbedField{
			{Name: "Player", Value: e.PlayerName, Inline: true},
			{Name: "Item", Value: fmt.Sprintf("%s x%d", e.ItemName, e.Quantity), Inline: true},
		},
	}
	if e.TeamName != "" {
		embed.Fields = append(embed.Fields, EmbedField{Name: "Team", Value: e.TeamName, Inline: true})
	}
	if e.Rarity != "" {
		embed.Fields = append(embed.Fields, EmbedField{Name: "Rarity", Value: e.Rarity, Inline: true})
	}
	if e.Value > 0 {
		embed.Fields = append(embed.Fields, EmbedField{Name: "Value", Value: formatGP(e.Value), Inline: true})
	}
	if e.ScreenshotURL != "" {
		embed.Image = &EmbedMedia{URL: e.ScreenshotURL}
	}
	return Payload{Embeds: []Embed{embed}}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatGP renders an item value with thousands separators, "1,234,567 GP".
func formatGP(value int64) string {
	s := strconv.FormatInt(value, 10)
	var out []byte
	for i, digit := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digit)
	}
	return string(out) + " GP"
}

// ══════════════════════════════════════════════════════════════════════════════
// SENDER
// ══════════════════════════════════════════════════════════════════════════════

// SenderConfig contains configuration for the webhook sender.
type SenderConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultSenderConfig returns sensible defaults.
func DefaultSenderConfig() SenderConfig {
	return SenderConfig{
		Timeout: 10 * time.Second,
	}
}

// Sender delivers rendered payloads to Discord webhook URLs. It classifies
// failures for the caller's retrier: transport errors, 429s, and 5xx are
// retryable; other 4xx responses are permanent.
type Sender struct {
	httpClient *http.Client
	log        *logger.Logger
}

// NewSender creates a webhook sender.
func NewSender(config SenderConfig) *Sender {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultSenderConfig().Timeout
	}
	return &Sender{
		httpClient: &http.Client{Timeout: config.Timeout},
		log:        config.Logger.With(logger.Component("discord")),
	}
}

// Send renders the event and posts it to the given webhook URL.
func (s *Sender) Send(ctx context.Context, webhookURL string, event shared.Event) error {
	return s.post(ctx, webhookURL, RenderEvent(event))
}

// SendText posts a plain-text message. Used by the webhook test operation.
func (s *Sender) SendText(ctx context.Context, webhookURL, content string) error {
	return s.post(ctx, webhookURL, Payload{Content: content})
}

func (s *Sender) post(ctx context.Context, webhookURL string, payload Payload) error {
	if webhookURL == "" {
		return retry.Permanent(shared.ErrWebhookNotConfigured)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return retry.Permanent(shared.WrapError("notify", "Deliver", shared.ErrInvalidFormat, "marshal payload", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(shared.WrapError("notify", "Deliver", shared.ErrInvalidInput, "create request", err))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return retry.Retryable(shared.WrapError("notify", "Deliver", shared.ErrExternalService, "http request", err))
	}
	defer resp.Body.Close()

	s.log.Debug("webhook delivered",
		logger.Int("status", resp.StatusCode),
		logger.Latency(time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return retry.Retryable(shared.WrapError("notify", "Deliver", shared.ErrExternalService,
			fmt.Sprintf("webhook status %d", resp.StatusCode), nil))
	default:
		return retry.Permanent(shared.WrapError("notify", "Deliver", shared.ErrExternalService,
			fmt.Sprintf("webhook status %d", resp.StatusCode), nil))
	}
}
