package config

import (
	"log"
	"os"
	"strings"
)

// Config carries everything the proxy needs, resolved once at startup.
// Handlers receive it by value; nothing mutates it after MustLoad returns.
type Config struct {
	HTTPAddr        string
	UpstreamBaseURL string
	APIKey          string
	LogLevel        string

	// ShowReasoning prefixes non-streaming assistant content with a marker
	// so clients can tell a reasoning model produced it.
	ShowReasoning bool

	// InjectPrompt adds the step-by-step instruction to the outbound
	// message sequence.
	InjectPrompt bool
}

func MustLoad() Config {
	cfg := Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		UpstreamBaseURL: getenv("UPSTREAM_BASE_URL", "https://integrate.api.nvidia.com/v1"),
		APIKey:          os.Getenv("NVIDIA_API_KEY"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		ShowReasoning:   boolenv("SHOW_REASONING"),
		InjectPrompt:    boolenv("INJECT_REASONING_PROMPT"),
	}
	if cfg.APIKey == "" {
		log.Fatal("NVIDIA_API_KEY is required")
	}
	return cfg
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// boolenv treats exactly the string "true" (any case) as on. An earlier
// revision compared the env string against a boolean literal, which can
// never match; the string comparison is the intended semantics.
func boolenv(k string) bool {
	return strings.EqualFold(os.Getenv(k), "true")
}
