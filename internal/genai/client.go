// Package genai wraps the chat-completions API that authors slide content.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/OneMuppet/ai-transformation-presentation-api/internal/models"

	"go.uber.org/zap"
)

// Client calls the completion API and parses its JSON replies into slide
// structures. Every operation is one synchronous network call.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	log        *zap.Logger
}

// NewClient constructs a generation client. baseURL is the API root without
// a trailing slash (e.g. https://api.openai.com).
func NewClient(baseURL, apiKey, model string, log *zap.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing api key")
	}
	return &Client{
		httpClient: &http.Client{Timeout: 180 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		log:        log,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete runs one chat completion in JSON mode and decodes the reply
// content into out. A reply that is not the expected JSON shape is an error.
func (c *Client) complete(ctx context.Context, system, user string, out any) error {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("completion request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Error("completion returned non-200",
			zap.Int("status", resp.StatusCode), zap.ByteString("body", raw))
		return fmt.Errorf("completion api returned %d", resp.StatusCode)
	}

	var reply chatResponse
	if err := json.Unmarshal(raw, &reply); err != nil {
		return fmt.Errorf("decode completion response: %w", err)
	}
	if len(reply.Choices) == 0 {
		return errors.New("completion response has no choices")
	}
	if err := json.Unmarshal([]byte(reply.Choices[0].Message.Content), out); err != nil {
		return fmt.Errorf("model reply is not the expected JSON shape: %w", err)
	}
	return nil
}

// GeneratePresentation produces the full slide deck for a new presentation.
func (c *Client) GeneratePresentation(ctx context.Context, title, description string) ([]models.SlideContent, error) {
	var reply struct {
		Slides []models.SlideContent `json:"slides"`
	}
	if err := c.complete(ctx, presentationSystemPrompt, presentationUserPrompt(title, description), &reply); err != nil {
		return nil, err
	}
	if len(reply.Slides) == 0 {
		return nil, errors.New("model produced no slides")
	}
	return reply.Slides, nil
}

// EditSlide rewrites a single slide per the instruction. The model may
// touch neighbouring slides (e.g. to keep a narrative consistent), so the
// result is a set of affected slides rather than one.
func (c *Client) EditSlide(ctx context.Context, p *models.Presentation, index int, instruction string) ([]models.AffectedSlide, error) {
	var reply struct {
		AffectedSlides []models.AffectedSlide `json:"affectedSlides"`
	}
	if err := c.complete(ctx, editSystemPrompt, editUserPrompt(p, index, instruction), &reply); err != nil {
		return nil, err
	}
	if len(reply.AffectedSlides) == 0 {
		return nil, errors.New("model returned no affected slides")
	}
	return reply.AffectedSlides, nil
}

// GenerateSlide authors one new slide to be inserted at the given position.
func (c *Client) GenerateSlide(ctx context.Context, p *models.Presentation, instruction string, position int, slideType string) (models.SlideContent, error) {
	var reply struct {
		Slide *models.SlideContent `json:"slide"`
	}
	if err := c.complete(ctx, newSlideSystemPrompt, newSlideUserPrompt(p, instruction, position, slideType), &reply); err != nil {
		return models.SlideContent{}, err
	}
	if reply.Slide == nil {
		return models.SlideContent{}, errors.New("model returned no slide")
	}
	return *reply.Slide, nil
}

// RefinePresentation applies a free-form instruction across the whole deck
// and returns the slides the model changed.
func (c *Client) RefinePresentation(ctx context.Context, p *models.Presentation, instruction string) ([]models.AffectedSlide, error) {
	var reply struct {
		AffectedSlides []models.AffectedSlide `json:"affectedSlides"`
	}
	if err := c.complete(ctx, refineSystemPrompt, refineUserPrompt(p, instruction), &reply); err != nil {
		return nil, err
	}
	if len(reply.AffectedSlides) == 0 {
		return nil, errors.New("model returned no affected slides")
	}
	return reply.AffectedSlides, nil
}
