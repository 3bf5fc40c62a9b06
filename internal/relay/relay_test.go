package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bob752130-bit/nvidia-nim-proxy/internal/openai"
)

func TestAliasResolve(t *testing.T) {
	table := DefaultAliases()

	tests := []struct {
		in   string
		want string
	}{
		{"gpt-4", "deepseek-ai/deepseek-r1"},
		{"gpt-4o", "deepseek-ai/deepseek-r1"},
		{"gpt-3.5-turbo", "meta/llama-3.1-8b-instruct"},
		{"o1", "deepseek-ai/deepseek-r1"},
		{"deepseek-ai/deepseek-r1", "deepseek-ai/deepseek-r1"},
		{"mistralai/mistral-7b-instruct-v0.3", "mistralai/mistral-7b-instruct-v0.3"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, table.Resolve(tc.in), "model %q", tc.in)
	}
}

func TestTranslateDefaults(t *testing.T) {
	tr := NewTranslator(nil, false)

	out := tr.Translate(openai.ChatCompletionRequest{
		Model:    "gpt-4",
		Messages: []openai.ChatMessage{{Role: "user", Content: "hi"}},
	})
	assert.Equal(t, "deepseek-ai/deepseek-r1", out.Model)
	assert.Equal(t, 0.7, out.Temperature)
	assert.Equal(t, float64(1), out.TopP)
	assert.Equal(t, 1024, out.MaxTokens)
	assert.False(t, out.Stream)
}

func TestTranslateExplicitValuesKept(t *testing.T) {
	tr := NewTranslator(nil, false)

	temp := 0.0
	topP := 0.5
	maxTok := 9
	out := tr.Translate(openai.ChatCompletionRequest{
		Model:       "x",
		Temperature: &temp,
		TopP:        &topP,
		MaxTokens:   &maxTok,
		Stream:      true,
	})
	assert.Equal(t, 0.0, out.Temperature, "explicit zero must survive defaulting")
	assert.Equal(t, 0.5, out.TopP)
	assert.Equal(t, 9, out.MaxTokens)
	assert.True(t, out.Stream)
}

func TestInjectPromptNoSystemMessage(t *testing.T) {
	tr := NewTranslator(nil, true)

	in := []openai.ChatMessage{{Role: "user", Content: "hi"}}
	out := tr.Translate(openai.ChatCompletionRequest{Model: "m", Messages: in})

	require.Len(t, out.Messages, 2)
	assert.Equal(t, "system", out.Messages[0].Role)
	assert.Equal(t, Instruction, out.Messages[0].Content)
	assert.Equal(t, in[0], out.Messages[1])
}

func TestInjectPromptAppendsToLeadingSystem(t *testing.T) {
	tr := NewTranslator(nil, true)

	in := []openai.ChatMessage{
		{Role: "system", Content: "You are terse."},
		{Role: "user", Content: "hi"},
	}
	out := tr.Translate(openai.ChatCompletionRequest{Model: "m", Messages: in})

	require.Len(t, out.Messages, 2)
	assert.Equal(t, "You are terse.\n"+Instruction, out.Messages[0].Content)
	assert.Equal(t, in[1], out.Messages[1])
	// input untouched
	assert.Equal(t, "You are terse.", in[0].Content)
}

func TestInjectPromptDisabledLeavesMessagesAlone(t *testing.T) {
	tr := NewTranslator(nil, false)

	in := []openai.ChatMessage{
		{Role: "system", Content: "s"},
		{Role: "user", Content: "u"},
	}
	out := tr.Translate(openai.ChatCompletionRequest{Model: "m", Messages: in})
	assert.Equal(t, in, out.Messages)
}

func TestInjectPromptNonLeadingSystemGetsNewHead(t *testing.T) {
	tr := NewTranslator(nil, true)

	in := []openai.ChatMessage{
		{Role: "user", Content: "hi"},
		{Role: "system", Content: "late system"},
	}
	out := tr.Translate(openai.ChatCompletionRequest{Model: "m", Messages: in})

	require.Len(t, out.Messages, 3)
	assert.Equal(t, Instruction, out.Messages[0].Content)
	assert.Equal(t, in, out.Messages[1:])
}
