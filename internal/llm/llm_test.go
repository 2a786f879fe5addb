package llm_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcheck/internal/llm"
	"github.com/leapstack-labs/leapcheck/internal/testutil"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

type fakeChat struct {
	reply string
	err   error
	panic bool
	empty bool

	got openai.ChatCompletionRequest
	ctx context.Context
}

func (f *fakeChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = req
	f.ctx = ctx
	if f.panic {
		panic("transport exploded")
	}
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	if f.empty {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.reply}},
		},
	}, nil
}

func TestClient_Augment(t *testing.T) {
	tests := []struct {
		name string
		chat *fakeChat
		want []core.Finding
	}{
		{
			name: "json after prose",
			chat: &fakeChat{reply: "Here is my review:\n" +
				`{"findings": [{"severity": "Major", "message": "No training records"}, {"message": ""}]}` + "\n"},
			want: []core.Finding{
				{ID: core.FindingLLM, Severity: core.SeverityMajor, Message: "No training records"},
				{ID: core.FindingLLM, Severity: core.SeverityMinor, Message: llm.DefaultMessage},
			},
		},
		{
			name: "unknown severity kept lowercased",
			chat: &fakeChat{reply: `{"findings": [{"severity": "INFO", "message": "Consider a glossary"}]}`},
			want: []core.Finding{
				{ID: core.FindingLLM, Severity: "info", Message: "Consider a glossary"},
			},
		},
		{
			name: "no findings key",
			chat: &fakeChat{reply: `{"summary": "looks fine"}`},
			want: []core.Finding{},
		},
		{name: "no json", chat: &fakeChat{reply: "The document looks fine."}},
		{name: "json not at end", chat: &fakeChat{reply: `{"findings": []} trailing words`}},
		{name: "malformed json", chat: &fakeChat{reply: `{"findings": [}`}},
		{name: "wrong field type", chat: &fakeChat{reply: `{"findings": [{"severity": 3}]}`}},
		{name: "transport error", chat: &fakeChat{err: errors.New("connection refused")}},
		{name: "no choices", chat: &fakeChat{empty: true}},
		{name: "panic", chat: &fakeChat{panic: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := llm.NewClient(tt.chat, "openai", "gpt-4o-mini", core.LLMConfig{}, testutil.NewTestLogger(t))
			got := client.Augment(context.Background(), "Purpose\nThis SOP is TBD.")
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_Request(t *testing.T) {
	chat := &fakeChat{reply: `{"findings": []}`}
	cfg := core.LLMConfig{Temperature: 0.1, MaxTokens: 800, Timeout: time.Minute}
	client := llm.NewClient(chat, "azure", "compliance-gpt", cfg, nil)

	text := strings.Repeat("é", llm.MaxPromptChars+50)
	client.Augment(context.Background(), text)

	assert.Equal(t, "compliance-gpt", chat.got.Model)
	assert.InDelta(t, 0.1, chat.got.Temperature, 1e-6)
	assert.Equal(t, 800, chat.got.MaxTokens)
	require.Len(t, chat.got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, chat.got.Messages[0].Role)
	assert.Equal(t, "You are a strict GxP auditor.", chat.got.Messages[0].Content)

	user := chat.got.Messages[1].Content
	assert.True(t, strings.HasPrefix(user, "You are a GxP compliance assistant."))
	assert.Contains(t, user, "Return JSON with an array 'findings'")
	assert.True(t, strings.HasSuffix(user, "Document:\n"+strings.Repeat("é", llm.MaxPromptChars)))

	_, hasDeadline := chat.ctx.Deadline()
	assert.True(t, hasDeadline)
}

func TestBuildPrompt_ShortText(t *testing.T) {
	assert.True(t, strings.HasSuffix(llm.BuildPrompt("abc"), "\n\nDocument:\nabc"))
}

func TestParseFindings_Errors(t *testing.T) {
	_, err := llm.ParseFindings("nothing")
	assert.ErrorIs(t, err, llm.ErrNoJSON)

	_, err = llm.ParseFindings("{not json}")
	require.Error(t, err)
	assert.NotErrorIs(t, err, llm.ErrNoJSON)
}

func TestDisabled(t *testing.T) {
	assert.Nil(t, llm.Disabled{}.Augment(context.Background(), "text"))
}

func env(vars map[string]string) llm.Getenv {
	return func(k string) string { return vars[k] }
}

func TestNewWithEnv(t *testing.T) {
	tests := []struct {
		name         string
		cfg          core.LLMConfig
		env          map[string]string
		wantDisabled bool
		wantProvider string
		wantModel    string
	}{
		{
			name:         "disabled in config",
			cfg:          core.LLMConfig{Enabled: false},
			env:          map[string]string{llm.EnvOpenAIKey: "sk-test"},
			wantDisabled: true,
		},
		{
			name:         "no credentials",
			cfg:          core.LLMConfig{Enabled: true},
			wantDisabled: true,
		},
		{
			name:         "openai default model",
			cfg:          core.LLMConfig{Enabled: true},
			env:          map[string]string{llm.EnvOpenAIKey: "sk-test"},
			wantProvider: "openai",
			wantModel:    llm.DefaultModel,
		},
		{
			name:         "openai model from env",
			cfg:          core.LLMConfig{Enabled: true},
			env:          map[string]string{llm.EnvOpenAIKey: "sk-test", llm.EnvOpenAIModel: "gpt-4o"},
			wantProvider: "openai",
			wantModel:    "gpt-4o",
		},
		{
			name:         "openai model from config wins",
			cfg:          core.LLMConfig{Enabled: true, Model: "gpt-4.1"},
			env:          map[string]string{llm.EnvOpenAIKey: "sk-test", llm.EnvOpenAIModel: "gpt-4o"},
			wantProvider: "openai",
			wantModel:    "gpt-4.1",
		},
		{
			name: "azure detected from env",
			cfg:  core.LLMConfig{Enabled: true},
			env: map[string]string{
				llm.EnvAzureKey:      "az-key",
				llm.EnvAzureEndpoint: "https://example.openai.azure.com",
				llm.EnvOpenAIKey:     "sk-test",
			},
			wantProvider: "azure",
			wantModel:    llm.DefaultModel,
		},
		{
			name: "azure deployment from config",
			cfg:  core.LLMConfig{Enabled: true, Provider: "Azure", Deployment: "gxp-audit"},
			env: map[string]string{
				llm.EnvAzureKey:      "az-key",
				llm.EnvAzureEndpoint: "https://example.openai.azure.com",
			},
			wantProvider: "azure",
			wantModel:    "gxp-audit",
		},
		{
			name:         "azure requested without credentials",
			cfg:          core.LLMConfig{Enabled: true, Provider: "azure"},
			env:          map[string]string{llm.EnvOpenAIKey: "sk-test"},
			wantDisabled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aug := llm.NewWithEnv(tt.cfg, env(tt.env), testutil.NewTestLogger(t))
			if tt.wantDisabled {
				assert.IsType(t, llm.Disabled{}, aug)
				return
			}
			client, ok := aug.(*llm.Client)
			require.True(t, ok, "expected *llm.Client, got %T", aug)
			assert.Equal(t, tt.wantProvider, client.Provider())
			assert.Equal(t, tt.wantModel, client.Model())
		})
	}
}
