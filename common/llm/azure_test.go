package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/openai/openai-go/option"

	"basegraph.app/slackbridge/internal/model"
)

const completionWithCitations = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-4o",
	"choices": [{
		"index": 0,
		"finish_reason": "stop",
		"logprobs": null,
		"message": {
			"role": "assistant",
			"content": "Restart the pod [doc1]. Then check alerts [doc2].",
			"context": {
				"citations": [
					{"content": "...", "title": "Runbook", "url": "https://wiki.example.com/runbook", "filepath": "runbook.md", "chunk_id": "0"},
					{"content": "...", "title": "Alerts", "url": "https://wiki.example.com/alerts", "filepath": "alerts.md", "chunk_id": "3"}
				],
				"intent": "[\"restart pod\"]"
			}
		}
	}],
	"usage": {"prompt_tokens": 120, "completion_tokens": 14, "total_tokens": 134}
}`

var _ = Describe("Azure completer", func() {
	var (
		server   *httptest.Server
		lastReq  *http.Request
		lastBody map[string]any
		status   int
		response string
		cfg      Config
	)

	BeforeEach(func() {
		status = http.StatusOK
		response = completionWithCitations
		lastReq = nil
		lastBody = nil

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastReq = r
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &lastBody)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, response)
		}))
		DeferCleanup(server.Close)

		cfg = Config{
			Endpoint:   server.URL,
			Deployment: "gpt-4o",
			APIKey:     "azure-key",
			Search: SearchConfig{
				Endpoint:              "https://search.example.com",
				Key:                   "search-key",
				Index:                 "docs",
				SemanticConfiguration: "default",
				InScope:               true,
			},
		}
	})

	complete := func(turns ...model.ConversationTurn) (*model.CompletionResult, error) {
		client, err := NewAzureClient(cfg, option.WithMaxRetries(0))
		Expect(err).NotTo(HaveOccurred())
		return client.Complete(context.Background(), turns)
	}

	It("calls the deployment with the api key", func() {
		_, err := complete(model.SystemTurn("be helpful"), model.UserTurn("how do I restart?"))

		Expect(err).NotTo(HaveOccurred())
		Expect(lastReq.URL.Path).To(Equal("/openai/deployments/gpt-4o/chat/completions"))
		Expect(lastReq.URL.Query().Get("api-version")).To(Equal(DefaultAPIVersion))
		Expect(lastReq.Header.Get("Api-Key")).To(Equal("azure-key"))
	})

	It("sends the fixed sampling parameters and the turns in order", func() {
		_, err := complete(
			model.SystemTurn("be helpful"),
			model.UserTurn("hi"),
			model.AssistantTurn("hello"),
			model.UserTurn("more?"),
		)

		Expect(err).NotTo(HaveOccurred())
		Expect(lastBody).To(HaveKeyWithValue("max_tokens", BeNumerically("==", 800)))
		Expect(lastBody).To(HaveKeyWithValue("temperature", BeNumerically("==", 0)))
		Expect(lastBody).To(HaveKeyWithValue("top_p", BeNumerically("==", 1)))
		Expect(lastBody).NotTo(HaveKey("stream"))

		messages := lastBody["messages"].([]any)
		Expect(messages).To(HaveLen(4))
		roles := make([]string, len(messages))
		for i, m := range messages {
			roles[i] = m.(map[string]any)["role"].(string)
		}
		Expect(roles).To(Equal([]string{"system", "user", "assistant", "user"}))
	})

	It("attaches the search index as a data source", func() {
		_, err := complete(model.UserTurn("hi"))
		Expect(err).NotTo(HaveOccurred())

		sources := lastBody["data_sources"].([]any)
		Expect(sources).To(HaveLen(1))
		source := sources[0].(map[string]any)
		Expect(source).To(HaveKeyWithValue("type", "azure_search"))

		params := source["parameters"].(map[string]any)
		Expect(params).To(HaveKeyWithValue("endpoint", "https://search.example.com"))
		Expect(params).To(HaveKeyWithValue("index_name", "docs"))
		Expect(params).To(HaveKeyWithValue("query_type", "semantic"))
		Expect(params).To(HaveKeyWithValue("in_scope", true))
		Expect(params).To(HaveKeyWithValue("strictness", BeNumerically("==", 3)))
		Expect(params).To(HaveKeyWithValue("top_n_documents", BeNumerically("==", 3)))
		Expect(params["authentication"]).To(Equal(map[string]any{"type": "api_key", "key": "search-key"}))

		fields := params["fields_mapping"].(map[string]any)
		Expect(fields).To(HaveKeyWithValue("title_field", "title"))
		Expect(fields).To(HaveKeyWithValue("url_field", "url"))
		Expect(fields).To(HaveKeyWithValue("content_fields_separator", "\n"))
	})

	It("returns content and numbered citations", func() {
		result, err := complete(model.UserTurn("hi"))

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Content).To(Equal("Restart the pod [doc1]. Then check alerts [doc2]."))
		Expect(result.FinishReason).To(Equal("stop"))
		Expect(result.PromptTokens).To(Equal(120))
		Expect(result.Citations).To(Equal([]model.Citation{
			{Index: 1, URL: "https://wiki.example.com/runbook", Title: "Runbook", FilePath: "runbook.md"},
			{Index: 2, URL: "https://wiki.example.com/alerts", Title: "Alerts", FilePath: "alerts.md"},
		}))
	})

	It("wraps upstream failures", func() {
		status = http.StatusTooManyRequests
		response = `{"error": {"code": "429", "message": "Rate limit is exceeded."}}`

		_, err := complete(model.UserTurn("hi"))

		Expect(err).To(MatchError(ContainSubstring("azure openai chat completion")))
	})

	It("fails when no choices come back", func() {
		response = `{"id": "x", "object": "chat.completion", "created": 1, "model": "gpt-4o", "choices": []}`

		_, err := complete(model.UserTurn("hi"))

		Expect(err).To(MatchError("no choices in response"))
	})

	DescribeTable("rejects incomplete configuration",
		func(mutate func(c *Config)) {
			mutate(&cfg)
			_, err := NewAzureClient(cfg)
			Expect(err).To(HaveOccurred())
		},
		Entry("missing endpoint", func(c *Config) { c.Endpoint = "" }),
		Entry("missing deployment", func(c *Config) { c.Deployment = "" }),
		Entry("missing key", func(c *Config) { c.APIKey = "" }),
		Entry("missing search index", func(c *Config) { c.Search.Index = "" }),
	)
})

var _ = Describe("extractCitations", func() {
	It("is empty when the response has no context", func() {
		citations, err := extractCitations(`{"choices":[{"message":{"content":"hi"}}]}`)

		Expect(err).NotTo(HaveOccurred())
		Expect(citations).To(BeEmpty())
	})

	It("uses simple queries without a semantic configuration", func() {
		ds := newAzureSearchDataSource(SearchConfig{Endpoint: "e", Index: "i"})
		Expect(ds.Parameters.QueryType).To(Equal("simple"))
		Expect(ds.Parameters.RoleInformation).To(Equal(defaultRoleInformation))
	})
})
