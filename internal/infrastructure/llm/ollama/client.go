package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/deck-pipeline/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	httpClient *http.Client
}

func New(baseURL, genModel string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// WithTimeout replaces the HTTP timeout of a single generate request.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// Generator answers prompts through /api/generate. Every call runs through the resilience
// executor, which also applies the rate limit.
type Generator struct {
	client   *Client
	executor *resilience.Executor
	system   string
}

func NewGenerator(client *Client, executor *resilience.Executor) *Generator {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.Config{BreakerEnabled: false, RetryMaxAttempts: 1})
	}
	return &Generator{client: client, executor: executor, system: defaultSystemPrompt}
}

func (g *Generator) Ask(ctx context.Context, prompt string) (string, error) {
	answer, err := resilience.Do(ctx, g.executor, "ollama_generate", func(ctx context.Context) (string, error) {
		return g.client.generateText(ctx, g.system, prompt)
	}, classifyOllamaError)
	if err != nil {
		return "", resilience.Temporary("ollama generate", err, classifyOllamaError)
	}
	return answer, nil
}

func (c *Client) generateText(ctx context.Context, system, prompt string) (string, error) {
	reqBody := generateRequest{
		Model:  c.genModel,
		System: system,
		Prompt: prompt,
		Stream: false,
	}
	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}
