package trace

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// SummarizerConfig configures an optional NL summarizer over a trace dump.
type SummarizerConfig struct {
	OpenRouterAPIKey string
	Model            string
	Logger           *logrus.Logger
}

// Summarizer turns a trace + simulation result into a short natural-language
// explanation, grounded on internal/ai/agent.go's Ask/summariseResult, but
// over a trace dump instead of a ClickHouse query result. Unlike the
// teacher's AI agent (which requires OPENROUTER_API_KEY and fails to start
// without one), this summarizer is entirely optional: NewSummarizer returns
// (nil, nil) when no key is configured, and callers must treat a nil
// Summarizer as "skip this step", not an error.
type Summarizer struct {
	llm    llms.Model
	logger *logrus.Logger
}

// NewSummarizer builds a Summarizer, or returns (nil, nil) if cfg.OpenRouterAPIKey
// is empty — the process must run fully without an LLM key configured.
func NewSummarizer(cfg SummarizerConfig) (*Summarizer, error) {
	if cfg.OpenRouterAPIKey == "" {
		return nil, nil
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Model == "" {
		cfg.Model = "openai/gpt-4.1-mini"
	}

	llm, err := openai.New(
		openai.WithToken(cfg.OpenRouterAPIKey),
		openai.WithBaseURL("https://openrouter.ai/api/v1"),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenRouter LLM: %w", err)
	}

	return &Summarizer{llm: llm, logger: cfg.Logger}, nil
}

// Summarize asks the LLM for a short explanation of what happened across
// dumpJSON (the trace's DumpJSON output) and an optional simulation error
// string (empty if the opportunity succeeded or wasn't simulated).
func (s *Summarizer) Summarize(ctx context.Context, dumpJSON []byte, simErr string) (string, error) {
	prompt := fmt.Sprintf(`
You are summarising one arbitrage attempt's execution trace for an operator.

Trace (JSON, steps with relative_ms since the first step):
%s

Simulation error (empty if none):
%s

Instructions:
- Summarize in 2-4 short sentences: what happened, how long it took end to end,
  and whether it succeeded.
- If there was a simulation error, explain it in plain language.
- Do not restate the raw JSON.
`, string(dumpJSON), simErr)

	resp, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt, llms.WithMaxTokens(256))
	if err != nil {
		return "", fmt.Errorf("LLM trace summarization failed: %w", err)
	}
	return resp, nil
}
