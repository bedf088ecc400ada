package soul

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/marcabisamra/SocialAGI/core/protocol"
)

const defaultModel = "gpt-4o-mini"

// OpenAIGateway implements Gateway over the OpenAI chat completions API.
// Each call sends the dialog history followed by a system-role instruction
// framing the kind of cognition wanted.
type OpenAIGateway struct {
	client openai.Client
	model  string
}

// GatewayOption configures an OpenAIGateway.
type GatewayOption func(*gatewayConfig)

type gatewayConfig struct {
	model   string
	baseURL string
}

// WithModel overrides the default chat model.
func WithModel(model string) GatewayOption {
	return func(c *gatewayConfig) { c.model = model }
}

// WithBaseURL points the gateway at an OpenAI-compatible endpoint.
func WithBaseURL(url string) GatewayOption {
	return func(c *gatewayConfig) { c.baseURL = url }
}

// NewOpenAIGateway creates a Gateway backed by the OpenAI API.
func NewOpenAIGateway(apiKey string, opts ...GatewayOption) *OpenAIGateway {
	cfg := gatewayConfig{model: defaultModel}
	for _, opt := range opts {
		opt(&cfg)
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.baseURL))
	}

	return &OpenAIGateway{
		client: openai.NewClient(requestOpts...),
		model:  cfg.model,
	}
}

func (g *OpenAIGateway) InternalMonologue(ctx context.Context, history []protocol.Message, instruction string) (string, error) {
	return g.complete(ctx, history, instruction)
}

func (g *OpenAIGateway) ExternalDialog(ctx context.Context, history []protocol.Message, instruction string) (string, error) {
	return g.complete(ctx, history, instruction)
}

func (g *OpenAIGateway) Decision(ctx context.Context, history []protocol.Message, prompt string, choices []string) (string, error) {
	instruction := fmt.Sprintf(
		"%s\n\nAnswer with exactly one of the following and nothing else: %s",
		prompt, strings.Join(choices, ", "),
	)

	answer, err := g.complete(ctx, history, instruction)
	if err != nil {
		return "", err
	}

	choice, ok := matchChoice(answer, choices)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedChoice, answer)
	}
	return choice, nil
}

func (g *OpenAIGateway) Brainstorm(ctx context.Context, history []protocol.Message, prompt string) ([]string, error) {
	instruction := prompt +
		"\n\nAnswer with a JSON array of short camelCase process names and nothing else."

	answer, err := g.complete(ctx, history, instruction)
	if err != nil {
		return nil, err
	}

	return parseStageList(answer), nil
}

func (g *OpenAIGateway) complete(ctx context.Context, history []protocol.Message, instruction string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	for _, msg := range history {
		switch msg.Role {
		case protocol.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case protocol.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case protocol.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}
	messages = append(messages, openai.SystemMessage(instruction))

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(g.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("gateway call failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("gateway returned no choices")
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("gateway returned empty content")
	}
	return content, nil
}

// matchChoice normalizes a model answer against the offered choice labels.
func matchChoice(answer string, choices []string) (string, bool) {
	normalized := strings.ToLower(strings.Trim(strings.TrimSpace(answer), `"'.`))
	for _, choice := range choices {
		if normalized == strings.ToLower(choice) {
			return choice, true
		}
	}
	// Fall back to containment for answers like "I choose keepProcessTheSame."
	for _, choice := range choices {
		if strings.Contains(normalized, strings.ToLower(choice)) {
			return choice, true
		}
	}
	return "", false
}

// parseStageList extracts stage names from a brainstorm answer. A JSON array
// is preferred; otherwise the answer is split into lines with bullet and
// numbering prefixes stripped.
func parseStageList(answer string) []string {
	answer = strings.TrimSpace(answer)

	// Models wrap JSON in code fences often enough to strip them first.
	answer = strings.TrimPrefix(answer, "```json")
	answer = strings.TrimPrefix(answer, "```")
	answer = strings.TrimSuffix(answer, "```")
	answer = strings.TrimSpace(answer)

	var items []string
	if err := json.Unmarshal([]byte(answer), &items); err == nil {
		return trimEmpty(items)
	}

	var lines []string
	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•")
		if i := strings.IndexAny(line, ".)"); i > 0 && i <= 3 && isDigits(line[:i]) {
			line = line[i+1:]
		}
		line = strings.Trim(strings.TrimSpace(line), `"',`)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func trimEmpty(items []string) []string {
	out := items[:0]
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
