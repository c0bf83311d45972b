package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

var platformColors = map[domain.Platform]int{
	domain.PlatformInstagram: 0xE1306C,
	domain.PlatformPinterest: 0xE60023,
	domain.PlatformSpotify:   0x1DB954,
}

const defaultColor = 0x5865F2

// Discord posts events to a Discord channel webhook as embeds.
type Discord struct {
	webhookURL string
	opts       HTTPOptions
}

// NewDiscord creates a Discord channel.
func NewDiscord(webhookURL string, opts HTTPOptions) *Discord {
	return &Discord{webhookURL: webhookURL, opts: opts.withDefaults()}
}

func (d *Discord) Name() string { return "discord" }

type discordPayload struct {
	Username string         `json:"username"`
	Embeds   []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Fields      []discordField `json:"fields"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

func (d *Discord) Send(ctx context.Context, e domain.Event) error {
	color, ok := platformColors[e.Platform]
	if !ok {
		color = defaultColor
	}
	embed := discordEmbed{
		Title:       title(e),
		Description: e.Summary,
		Color:       color,
		Fields: []discordField{
			{Name: "Event", Value: string(e.Type), Inline: true},
		},
	}
	if !e.CreatedAt.IsZero() {
		embed.Timestamp = e.CreatedAt.UTC().Format(time.RFC3339)
	}

	body, err := json.Marshal(discordPayload{Username: "coral", Embeds: []discordEmbed{embed}})
	if err != nil {
		return fmt.Errorf("discord: encode: %w", err)
	}

	err = post(ctx, d.opts, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("discord: %w", err)
	}
	return nil
}
