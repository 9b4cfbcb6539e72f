package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openai/openai-go"

	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/ports"
)

const (
	refererHeader = "https://github.com/doeshing/snapask"
	titleHeader   = "snapask"
)

// Client calls an OpenAI-compatible chat-completion endpoint with one system
// message and one multimodal user message. No retries, no streaming.
type Client struct {
	httpClient *http.Client
}

// NewClient builds a client; a nil httpClient gets the default timeout.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: domain.DefaultHTTPClientTimeout}
	}
	return &Client{httpClient: httpClient}
}

// Complete implements ports.InferenceClient.
func (c *Client) Complete(ctx context.Context, req ports.InferenceRequest) (domain.AnalyzeResult, error) {
	body, err := buildChatCompletionRequest(req)
	if err != nil {
		return domain.AnalyzeResult{}, err
	}

	endpoint := valueOrDefault(req.Endpoint, domain.DefaultEndpoint)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.AnalyzeResult{}, err
	}
	httpReq.Header.Set("authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("HTTP-Referer", refererHeader)
	httpReq.Header.Set("X-Title", titleHeader)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.AnalyzeResult{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.AnalyzeResult{}, err
	}
	return parseChatCompletionResponse(resp.StatusCode, raw)
}

// buildChatCompletionRequest renders {model, messages:[system, user]}; the
// user parts are the optional text followed by the image.
func buildChatCompletionRequest(req ports.InferenceRequest) ([]byte, error) {
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, 2)
	if text := strings.TrimSpace(req.Text); text != "" {
		parts = append(parts, openai.TextContentPart(text))
	}
	parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
		URL: req.ImageData,
	}))

	request := map[string]interface{}{
		"model": valueOrDefault(req.Model, domain.DefaultModel),
		"messages": []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(parts),
		},
	}
	return json.Marshal(request)
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *domain.TokenUsage `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func parseChatCompletionResponse(status int, body []byte) (domain.AnalyzeResult, error) {
	var decoded chatCompletionResponse
	decodeErr := json.Unmarshal(body, &decoded)

	if status < 200 || status > 299 {
		detail := http.StatusText(status)
		if decodeErr == nil && decoded.Error != nil && decoded.Error.Message != "" {
			detail = decoded.Error.Message
		}
		return domain.AnalyzeResult{}, domain.APIError(status, detail)
	}
	if decodeErr != nil {
		return domain.AnalyzeResult{}, &domain.Error{
			Kind:    domain.ErrorKindAPI,
			Message: fmt.Sprintf("malformed response: %v", decodeErr),
			Err:     decodeErr,
		}
	}
	if len(decoded.Choices) == 0 {
		return domain.AnalyzeResult{}, domain.ErrNoContent
	}
	return domain.AnalyzeResult{
		Result: decoded.Choices[0].Message.Content,
		Usage:  decoded.Usage,
	}, nil
}

func valueOrDefault(value string, def string) string {
	if value == "" {
		return def
	}
	return value
}

var _ ports.InferenceClient = (*Client)(nil)
