package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"
)

const defaultAPIBase = "https://discord.com/api/v10"

// ErrMissingToken is returned when no bot token is configured.
var ErrMissingToken = errors.New("discord bot token is not configured")

// Client sends direct messages through the Discord bot API. DM channel ids
// are cached so repeated sends to the same user reuse one channel.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
	logger  *log.Logger

	mu         sync.Mutex
	dmChannels map[string]string
}

// New creates a Discord client. A missing token is a configuration error.
func New(token string, logger *log.Logger) (*Client, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	return &Client{
		token:      token,
		baseURL:    defaultAPIBase,
		http:       &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
		dmChannels: make(map[string]string),
	}, nil
}

// Embed mirrors the subset of Discord's embed object this service uses.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

// EmbedField is a single name/value block inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// EmbedFooter is the footer line of an embed.
type EmbedFooter struct {
	Text string `json:"text"`
}

// SendDM sends a plain-text direct message to the user.
func (c *Client) SendDM(ctx context.Context, userID, content string) error {
	return c.send(ctx, userID, content, nil)
}

// SendEmbed sends an embed direct message to the user.
func (c *Client) SendEmbed(ctx context.Context, userID string, embed Embed) error {
	if embed.Timestamp == "" {
		embed.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	}
	return c.send(ctx, userID, "", &embed)
}

func (c *Client) send(ctx context.Context, userID, content string, embed *Embed) error {
	channelID, err := c.dmChannel(ctx, userID)
	if err != nil {
		return err
	}

	payload := map[string]any{}
	if content != "" {
		payload["content"] = content
	}
	if embed != nil {
		payload["embeds"] = []Embed{*embed}
	}
	if len(payload) == 0 {
		return errors.New("either content or embed must be provided")
	}

	endpoint := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, channelID)
	return c.post(ctx, endpoint, payload, nil)
}

// dmChannel returns the DM channel id for a user, creating it on first use.
func (c *Client) dmChannel(ctx context.Context, userID string) (string, error) {
	c.mu.Lock()
	cached, ok := c.dmChannels[userID]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	var channel struct {
		ID string `json:"id"`
	}
	payload := map[string]string{"recipient_id": userID}
	if err := c.post(ctx, c.baseURL+"/users/@me/channels", payload, &channel); err != nil {
		return "", fmt.Errorf("create dm channel with %s: %w", userID, err)
	}
	if channel.ID == "" {
		return "", fmt.Errorf("discord returned no channel id for user %s", userID)
	}

	c.mu.Lock()
	c.dmChannels[userID] = channel.ID
	c.mu.Unlock()
	return channel.ID, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "DiscordBot (https://github.com/discord/discord-api-docs, 1.0)")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord responded %d: %s", resp.StatusCode, msg)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
