// Package provider implements clients for the external generation
// providers. Requests and responses are pass-through: no prompt shaping
// or moderation happens here.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/maggiegpt/server/internal/model"
)

// imageKeywords marks prompts that should route to image generation.
var imageKeywords = []string{
	"draw",
	"generate an image",
	"picture of",
	"create an image",
	"image of",
	"visualize",
}

// IsImagePrompt reports whether the prompt asks for an image.
func IsImagePrompt(prompt string) bool {
	p := strings.ToLower(prompt)
	for _, k := range imageKeywords {
		if strings.Contains(p, k) {
			return true
		}
	}
	return false
}

// Config holds provider endpoints and API keys.
type Config struct {
	TextURL     string
	TextAPIKey  string
	ImageURL    string
	ImageAPIKey string
}

// Client implements model.Generator against a Gemini-style text endpoint
// and an OpenAI-style image endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

var _ model.Generator = (*Client)(nil)

// NewClient creates a provider client with a bounded request timeout.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 60 * time.Second},
	}
}

type textRequest struct {
	Contents []textContent `json:"contents"`
}

type textContent struct {
	Parts []textPart `json:"parts"`
}

type textPart struct {
	Text string `json:"text"`
}

type textResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateText sends the prompt to the text provider and returns the
// first candidate reply.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	body := textRequest{Contents: []textContent{{Parts: []textPart{{Text: prompt}}}}}

	url := fmt.Sprintf("%s?key=%s", c.cfg.TextURL, c.cfg.TextAPIKey)
	var resp textResponse
	if err := c.postJSON(ctx, url, "", body, &resp); err != nil {
		return "", fmt.Errorf("text provider: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "No response.", nil
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

type imageRequest struct {
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// GenerateImage sends the prompt to the image provider and returns the
// generated image URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	body := imageRequest{Prompt: prompt, N: 1, Size: "512x512"}

	var resp imageResponse
	if err := c.postJSON(ctx, c.cfg.ImageURL, c.cfg.ImageAPIKey, body, &resp); err != nil {
		return "", fmt.Errorf("image provider: %w", err)
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("image provider: empty response")
	}
	return resp.Data[0].URL, nil
}

func (c *Client) postJSON(ctx context.Context, url, bearer string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
