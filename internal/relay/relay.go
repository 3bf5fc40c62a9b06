package relay

import (
	"github.com/bob752130-bit/nvidia-nim-proxy/internal/openai"
)

// Instruction appended to (or injected as) the leading system message when
// prompt injection is enabled.
const Instruction = "Please reason step by step before giving your final answer."

// ReasoningMarker prefixes non-streaming assistant content when
// reasoning-display is enabled.
const ReasoningMarker = "🤔 "

const (
	defaultTemperature = 0.7
	defaultTopP        = 1
	defaultMaxTokens   = 1024
)

// AliasTable maps client-facing model names to the upstream's canonical
// identifiers. Lookup is total: unknown names pass through unchanged.
type AliasTable map[string]string

func (t AliasTable) Resolve(model string) string {
	if mapped, ok := t[model]; ok {
		return mapped
	}
	return model
}

// DefaultAliases covers the OpenAI model names clients commonly hardcode,
// pointed at the NIM catalog equivalents.
func DefaultAliases() AliasTable {
	return AliasTable{
		"gpt-3.5-turbo": "meta/llama-3.1-8b-instruct",
		"gpt-4":         "deepseek-ai/deepseek-r1",
		"gpt-4o":        "deepseek-ai/deepseek-r1",
		"gpt-4o-mini":   "meta/llama-3.1-8b-instruct",
		"o1":            "deepseek-ai/deepseek-r1",
		"o1-mini":       "deepseek-ai/deepseek-r1",
		"deepseek-r1":   "deepseek-ai/deepseek-r1",
	}
}

// Translator turns an inbound chat request into the exact request sent
// upstream. It is read-only after construction and safe for concurrent use.
type Translator struct {
	aliases      AliasTable
	injectPrompt bool
}

func NewTranslator(aliases AliasTable, injectPrompt bool) *Translator {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &Translator{aliases: aliases, injectPrompt: injectPrompt}
}

// Translate applies model aliasing, optional prompt injection and
// defaulting. The input request is not mutated.
func (t *Translator) Translate(req openai.ChatCompletionRequest) openai.OutboundChatRequest {
	out := openai.OutboundChatRequest{
		Model:       t.aliases.Resolve(req.Model),
		Messages:    t.messages(req.Messages),
		Temperature: defaultTemperature,
		TopP:        defaultTopP,
		MaxTokens:   defaultMaxTokens,
		Stream:      req.Stream,
	}
	if req.Temperature != nil {
		out.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		out.TopP = *req.TopP
	}
	if req.MaxTokens != nil {
		out.MaxTokens = *req.MaxTokens
	}
	return out
}

func (t *Translator) messages(in []openai.ChatMessage) []openai.ChatMessage {
	if !t.injectPrompt {
		return in
	}
	out := make([]openai.ChatMessage, 0, len(in)+1)
	if len(in) > 0 && in[0].Role == "system" {
		out = append(out, openai.ChatMessage{
			Role:    "system",
			Content: in[0].Content + "\n" + Instruction,
		})
		out = append(out, in[1:]...)
		return out
	}
	out = append(out, openai.ChatMessage{Role: "system", Content: Instruction})
	out = append(out, in...)
	return out
}
