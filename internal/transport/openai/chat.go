package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/calixflow/knowledge/internal/domain"
	"github.com/calixflow/knowledge/internal/metrics"
)

// ChatModel is a hosted chat-completion provider using the
// OpenAI-compatible API. Temperature and the output-token ceiling are
// fixed at construction.
type ChatModel struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// Compile-time check: ChatModel implements domain.ChatModel.
var _ domain.ChatModel = (*ChatModel)(nil)

// NewChatModel creates an OpenAI-compatible chat completion provider.
func NewChatModel(cfg *Config, model string, temperature float32, maxTokens int) *ChatModel {
	return &ChatModel{
		client:      newClient(cfg),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      cfg.Logger,
	}
}

// Complete sends the assembled instruction plus the user's message and
// waits for the full response.
func (c *ChatModel) Complete(ctx context.Context, instruction, userMessage string) (domain.ChatResult, error) {
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, c.request(instruction, userMessage))
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues(c.model, "blocking", "error").Inc()
		return domain.ChatResult{}, parseAPIError("chat", err, domain.ErrChatProviderError)
	}
	if len(resp.Choices) == 0 {
		metrics.ChatRequestsTotal.WithLabelValues(c.model, "blocking", "error").Inc()
		return domain.ChatResult{}, fmt.Errorf("empty chat response: %w", domain.ErrChatProviderError)
	}

	metrics.ChatRequestsTotal.WithLabelValues(c.model, "blocking", "success").Inc()
	metrics.ChatRequestDuration.WithLabelValues(c.model, "blocking").Observe(time.Since(start).Seconds())
	c.recordTokens(resp.Usage)

	return domain.ChatResult{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// Stream sends the same request but delivers the response token by
// token through onDelta. The accumulated text is returned once the
// stream ends.
func (c *ChatModel) Stream(
	ctx context.Context, instruction, userMessage string, onDelta domain.StreamHandler,
) (domain.ChatResult, error) {
	start := time.Now()

	req := c.request(instruction, userMessage)
	req.Stream = true

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues(c.model, "stream", "error").Inc()
		return domain.ChatResult{}, parseAPIError("chat", err, domain.ErrChatProviderError)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			metrics.ChatRequestsTotal.WithLabelValues(c.model, "stream", "error").Inc()
			return domain.ChatResult{}, parseAPIError("chat", err, domain.ErrChatProviderError)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		if err := onDelta(delta); err != nil {
			return domain.ChatResult{}, fmt.Errorf("stream handler: %w", err)
		}
	}

	metrics.ChatRequestsTotal.WithLabelValues(c.model, "stream", "success").Inc()
	metrics.ChatRequestDuration.WithLabelValues(c.model, "stream").Observe(time.Since(start).Seconds())

	return domain.ChatResult{Text: sb.String()}, nil
}

func (c *ChatModel) request(instruction, userMessage string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instruction},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
	}
}

func (c *ChatModel) recordTokens(usage openai.Usage) {
	if usage.TotalTokens == 0 {
		return
	}
	metrics.ChatTokensTotal.WithLabelValues(c.model, "prompt").Add(float64(usage.PromptTokens))
	metrics.ChatTokensTotal.WithLabelValues(c.model, "completion").Add(float64(usage.CompletionTokens))
}
