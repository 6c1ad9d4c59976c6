// Package openai generates meditation scripts through the OpenAI chat
// completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
)

// Static errors for text generation.
var (
	// ErrAPIKeyRequired is returned when no API key is resolved.
	ErrAPIKeyRequired = errors.New("openai: API key is required")
	// ErrEmptyCompletion is returned when the model returns no text.
	ErrEmptyCompletion = errors.New("openai: empty completion")
)

// systemMessage frames the model role for every generation request.
const systemMessage = "You are an expert meditation guide and writer, skilled in creating personalized healing meditations."

// RenderPrompt substitutes the {disease}, {symptom} and
// {additional_instructions} placeholders in the stored prompt template.
// An empty additional instruction renders as "None".
func RenderPrompt(template, disease, symptom, additionalInstructions string) string {
	if additionalInstructions == "" {
		additionalInstructions = "None"
	}
	r := strings.NewReplacer(
		"{disease}", disease,
		"{symptom}", symptom,
		"{additional_instructions}", additionalInstructions,
	)
	return r.Replace(template)
}

// Request contains the parameters for one text generation call.
// Credentials and model come from the resolved settings.
type Request struct {
	APIKey string
	Model  string
	Prompt string
}

// Client defines the interface for meditation text generation.
type Client interface {
	// Generate requests a completion and returns the meditation script.
	Generate(ctx context.Context, req Request) (string, error)
}

// ChatClient is the OpenAI implementation of Client.
type ChatClient struct {
	baseURL     string
	temperature float32
	maxTokens   int
}

// Option is a function that configures a ChatClient.
type Option func(*ChatClient)

// WithBaseURL sets a custom API base URL, used in tests.
func WithBaseURL(url string) Option {
	return func(c *ChatClient) {
		c.baseURL = url
	}
}

// WithMaxTokens sets the completion token budget.
func WithMaxTokens(n int) Option {
	return func(c *ChatClient) {
		c.maxTokens = n
	}
}

// NewChatClient creates a new ChatClient.
func NewChatClient(opts ...Option) *ChatClient {
	c := &ChatClient{
		temperature: 0.8,
		maxTokens:   2500,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate requests a chat completion using the model and key from req.
// The underlying client is built per call because credentials live in
// the settings singleton and can change between requests.
func (c *ChatClient) Generate(ctx context.Context, req Request) (string, error) {
	if req.APIKey == "" {
		return "", ErrAPIKeyRequired
	}

	cfg := goopenai.DefaultConfig(req.APIKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	client := goopenai.NewClientWithConfig(cfg)

	resp, err := client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}

// Verify interface implementation at compile time.
var _ Client = (*ChatClient)(nil)
