package extract

import (
	"context"
	"time"

	"google.golang.org/genai"

	"github.com/avolkov/finledger/internal/domain"
)

// Caller is the extraction model call. Kept minimal so adapters can be
// exercised with test doubles.
type Caller interface {
	Extract(ctx context.Context, prompt, statement string) (string, error)
}

// GeminiCaller calls the Gemini API synchronously, one round trip per run,
// bounded by a hard timeout. There is no automatic retry: re-running a
// non-deterministic model call can produce a divergent result for the same
// input, and the engine treats that as worse than a visible failure.
type GeminiCaller struct {
	Model   string
	Timeout time.Duration
}

// NewGeminiCaller creates a caller for the given model name.
func NewGeminiCaller(model string, timeout time.Duration) *GeminiCaller {
	return &GeminiCaller{Model: model, Timeout: timeout}
}

// Extract sends the prompt plus statement text to the model and returns the
// raw response text. The client is constructed per call; credentials come
// from the environment (GEMINI_API_KEY or application default credentials).
func (c *GeminiCaller) Extract(ctx context.Context, prompt, statement string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", domain.ExtractionFailure("model-client-init-failed", err.Error())
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{Text: statement},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, c.Model, contents, nil)
	if err != nil {
		return "", domain.ExtractionFailure("model-call-failed", err.Error())
	}

	raw := resp.Text()
	if raw == "" {
		return "", domain.ExtractionFailure("empty-model-response", "")
	}
	return raw, nil
}
