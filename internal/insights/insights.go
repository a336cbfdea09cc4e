// Package insights writes the executive narrative for premium reports
// through the Anthropic API. Generation is best-effort: a report is still
// produced when the API is unconfigured or unreachable, just without the
// narrative section.
package insights

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/JaimeV365/segmentor-sub003/internal/config"
	"github.com/JaimeV365/segmentor-sub003/internal/report"
	"github.com/JaimeV365/segmentor-sub003/pkg/anthropic"
)

// Narrator produces an executive narrative from an assembled report. An
// empty narrative with a nil error means generation was skipped.
type Narrator interface {
	Narrate(ctx context.Context, data *report.ReportData) (string, error)
}

// New returns a Narrator backed by the configured model, or a disabled one
// when no API key is set.
func New(cfg config.AnthropicConfig) Narrator {
	if cfg.Key == "" {
		zap.L().Debug("insights: no api key configured, narratives disabled")
		return disabled{}
	}
	return NewGenerator(anthropic.NewClient(cfg.Key), cfg)
}

type disabled struct{}

func (disabled) Narrate(context.Context, *report.ReportData) (string, error) {
	return "", nil
}

// Generator implements Narrator on the Anthropic messages API.
type Generator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewGenerator creates a Generator on an explicit client.
func NewGenerator(client anthropic.Client, cfg config.AnthropicConfig) *Generator {
	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-5-20250929"
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Generator{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Narrate asks the model for an executive narrative over the report digest.
// API failures degrade to an empty narrative; only a dead context is an
// error, so cancellation still aborts a report run.
func (g *Generator) Narrate(ctx context.Context, data *report.ReportData) (string, error) {
	req := anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		System:    anthropic.BuildCachedSystemBlocks(narrativeSystemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: Digest(data)},
		},
	}

	resp, err := g.client.CreateMessage(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", eris.Wrap(err, "insights: narrate")
		}
		zap.L().Warn("insights: narrative generation failed, continuing without",
			zap.String("dataset", data.Dataset.ID),
			zap.Error(err))
		return "", nil
	}

	resp.Usage.LogCost(g.model, "narrative")

	narrative := firstText(resp)
	if narrative == "" {
		zap.L().Warn("insights: model returned no narrative text",
			zap.String("dataset", data.Dataset.ID),
			zap.String("stop_reason", resp.StopReason))
	}
	return narrative, nil
}

func firstText(resp *anthropic.MessageResponse) string {
	for _, b := range resp.Content {
		if b.Type == "text" {
			return strings.TrimSpace(b.Text)
		}
	}
	return ""
}
