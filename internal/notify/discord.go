package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
)

type DiscordNotifier struct {
	webhookURL string
	httpClient *http.Client
}

func NewDiscordNotifier(webhookURL string, timeout time.Duration) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SubmissionMessage formats the chat announcement for a new submission.
func SubmissionMessage(styleLabel, submitterName, demoURL string) string {
	return fmt.Sprintf("🎨 **New Submission:** \"%s\" by %s\nDemo: %s", styleLabel, submitterName, demoURL)
}

// NotifySubmission posts the announcement to the webhook. Mentions are
// disabled so submitter-controlled text cannot ping the channel.
func (n *DiscordNotifier) NotifySubmission(ctx context.Context, styleLabel, submitterName, demoURL string) error {
	if n == nil || n.webhookURL == "" {
		return ErrNotConfigured
	}

	params := discordgo.WebhookParams{
		Content:         SubmissionMessage(styleLabel, submitterName, demoURL),
		AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}},
	}
	jsonData, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("discord webhook failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	return nil
}
