// Package llm asks a chat-completion model for additional compliance findings.
//
// The augmenter is a collaborator at the edge of the validation pipeline and
// fails open: every error, including missing credentials, yields no findings.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Augmenter supplies findings for a document. Augment never fails; it
// returns nil when the model cannot be reached or its reply is unusable.
type Augmenter interface {
	Augment(ctx context.Context, text string) []core.Finding
}

// ChatClient is the part of the go-openai client the augmenter uses.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// MaxPromptChars bounds how much document text is sent to the model.
const MaxPromptChars = 12000

// DefaultMessage replaces an empty message in a model finding.
const DefaultMessage = "LLM finding"

const systemPrompt = "You are a strict GxP auditor."

const instructions = "You are a GxP compliance assistant. Analyze the following document text and list any compliance gaps " +
	"such as missing approvals/signatures, missing or weak sections, placeholders, stale references, and procedure steps issues. " +
	"Return JSON with an array 'findings' where each item has fields: severity in [critical, major, minor], message.\n\n"

// BuildPrompt returns the user prompt for text.
func BuildPrompt(text string) string {
	return instructions + "Document:\n" + truncateRunes(text, MaxPromptChars)
}

// Client is an Augmenter backed by an OpenAI-compatible chat endpoint.
type Client struct {
	chat        ChatClient
	provider    string
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	logger      *slog.Logger
}

// NewClient wraps chat. model is the OpenAI model or Azure deployment name.
func NewClient(chat ChatClient, provider, model string, cfg core.LLMConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		chat:        chat,
		provider:    provider,
		model:       model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// Provider returns "openai" or "azure".
func (c *Client) Provider() string { return c.provider }

// Model returns the model or deployment requested.
func (c *Client) Model() string { return c.model }

// Augment implements Augmenter.
func (c *Client) Augment(ctx context.Context, text string) (findings []core.Finding) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("llm augmentation panicked", "panic", r)
			findings = nil
		}
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(text)},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		c.logger.Warn("llm request failed", "provider", c.provider, "model", c.model, "error", err)
		return nil
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn("llm returned no choices", "provider", c.provider, "model", c.model)
		return nil
	}

	findings, err = ParseFindings(resp.Choices[0].Message.Content)
	if err != nil {
		c.logger.Warn("llm reply not usable", "error", err)
		return nil
	}
	c.logger.Debug("llm augmentation complete",
		"provider", c.provider,
		"findings", len(findings),
		"duration", time.Since(start))
	return findings
}

// ErrNoJSON is returned when a reply does not end with a JSON object.
var ErrNoJSON = errors.New("no trailing JSON object in reply")

var trailingObject = regexp.MustCompile(`(?s)\{.*\}\s*$`)

type reply struct {
	Findings []struct {
		Severity string `json:"severity"`
		Message  string `json:"message"`
	} `json:"findings"`
}

// ParseFindings extracts findings from the JSON object that ends content.
// Missing severities default to minor; severities are lowercased but
// otherwise kept as given.
func ParseFindings(content string) ([]core.Finding, error) {
	raw := trailingObject.FindString(content)
	if raw == "" {
		return nil, ErrNoJSON
	}

	var r reply
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}

	findings := make([]core.Finding, 0, len(r.Findings))
	for _, item := range r.Findings {
		sev := core.SeverityMinor
		if item.Severity != "" {
			sev = core.Severity(strings.ToLower(item.Severity))
		}
		msg := item.Message
		if msg == "" {
			msg = DefaultMessage
		}
		findings = append(findings, core.Finding{
			ID:       core.FindingLLM,
			Severity: sev,
			Message:  msg,
		})
	}
	return findings, nil
}

// Disabled is an Augmenter that never returns findings.
type Disabled struct{}

// Augment implements Augmenter.
func (Disabled) Augment(context.Context, string) []core.Finding { return nil }

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
