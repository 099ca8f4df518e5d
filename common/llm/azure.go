package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"basegraph.app/slackbridge/internal/model"
)

const (
	defaultMaxTokens       = 800
	defaultTopNDocuments   = 3
	defaultStrictness      = 3
	defaultRoleInformation = "You are an AI assistant that helps people find information."
)

type azureClient struct {
	client     openai.Client
	deployment string
	maxTokens  int
	dataSource azureSearchDataSource
}

// NewAzureClient creates a Completer backed by Azure OpenAI chat completions
// grounded on an Azure AI Search index. opts are applied after the Azure
// endpoint and key.
func NewAzureClient(cfg Config, opts ...option.RequestOption) (Completer, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" || cfg.Deployment == "" {
		return nil, fmt.Errorf("azure openai endpoint, api key and deployment are required")
	}
	if cfg.Search.Endpoint == "" || cfg.Search.Index == "" {
		return nil, fmt.Errorf("azure search endpoint and index are required")
	}

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	return &azureClient{
		client: openai.NewClient(append([]option.RequestOption{
			azure.WithEndpoint(cfg.Endpoint, apiVersion),
			azure.WithAPIKey(cfg.APIKey),
		}, opts...)...),
		deployment: cfg.Deployment,
		maxTokens:  maxTokens,
		dataSource: newAzureSearchDataSource(cfg.Search),
	}, nil
}

func (c *azureClient) Complete(ctx context.Context, turns []model.ConversationTurn) (*model.CompletionResult, error) {
	params := openai.ChatCompletionNewParams{
		Model:            c.deployment,
		Messages:         convertTurns(turns),
		MaxTokens:        openai.Int(int64(c.maxTokens)),
		Temperature:      openai.Float(0),
		TopP:             openai.Float(1),
		FrequencyPenalty: openai.Float(0),
		PresencePenalty:  openai.Float(0),
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params,
		option.WithJSONSet("data_sources", []azureSearchDataSource{c.dataSource}),
	)
	if err != nil {
		return nil, fmt.Errorf("azure openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	citations, err := extractCitations(resp.RawJSON())
	if err != nil {
		return nil, err
	}

	choice := resp.Choices[0]

	slog.DebugContext(ctx, "chat completion finished",
		"deployment", c.deployment,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"finish_reason", choice.FinishReason,
		"citations", len(citations))

	return &model.CompletionResult{
		Content:          choice.Message.Content,
		Citations:        citations,
		FinishReason:     string(choice.FinishReason),
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

func convertTurns(turns []model.ConversationTurn) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))

	for _, t := range turns {
		switch t.Role {
		case model.RoleSystem:
			result = append(result, openai.SystemMessage(t.Content))
		case model.RoleUser:
			result = append(result, openai.UserMessage(t.Content))
		case model.RoleAssistant:
			result = append(result, openai.AssistantMessage(t.Content))
		}
	}

	return result
}

// azureChatContext is the part of an "on your data" response that openai-go
// does not model: choices[].message.context.citations.
type azureChatContext struct {
	Choices []struct {
		Message struct {
			Context struct {
				Citations []azureCitation `json:"citations"`
			} `json:"context"`
		} `json:"message"`
	} `json:"choices"`
}

type azureCitation struct {
	Content  string `json:"content"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	FilePath string `json:"filepath"`
	ChunkID  string `json:"chunk_id"`
}

// extractCitations reads the citations of the first choice, numbered 1..n in response order.
func extractCitations(raw string) ([]model.Citation, error) {
	if raw == "" {
		return nil, nil
	}

	var parsed azureChatContext
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parsing citations from response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, nil
	}

	src := parsed.Choices[0].Message.Context.Citations
	citations := make([]model.Citation, len(src))
	for i, c := range src {
		citations[i] = model.Citation{
			Index:    i + 1,
			URL:      c.URL,
			Title:    c.Title,
			FilePath: c.FilePath,
		}
	}
	return citations, nil
}
