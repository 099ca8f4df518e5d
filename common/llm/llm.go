package llm

import (
	"context"

	"basegraph.app/slackbridge/internal/model"
)

const DefaultAPIVersion = "2024-05-01-preview"

// Config holds completion client configuration. It is static for the life of
// the process and passed to the client at construction time.
type Config struct {
	Endpoint   string // Azure OpenAI resource endpoint
	Deployment string // model deployment name
	APIKey     string
	APIVersion string // defaults to DefaultAPIVersion
	MaxTokens  int    // defaults to 800
	Search     SearchConfig
}

// SearchConfig describes the Azure AI Search index grounding every completion.
type SearchConfig struct {
	Endpoint              string
	Key                   string
	Index                 string
	SemanticConfiguration string
	InScope               bool // only answer from indexed documents
	TopNDocuments         int  // documents retrieved per query
	Strictness            int  // 1..5, higher filters more aggressively
	RoleInformation       string
}

// Completer sends a turn sequence to the completion API and returns the answer
// together with the citations its [docN] markers refer to.
type Completer interface {
	Complete(ctx context.Context, turns []model.ConversationTurn) (*model.CompletionResult, error)
}
