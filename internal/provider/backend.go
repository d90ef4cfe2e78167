package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GenerationRequest is a provider-agnostic chat/completion request.
type GenerationRequest struct {
	Model       string
	Prompt      string
	System      string
	Images      [][]byte // raw image bytes; the Ollama backend base64-encodes them, the OpenAI-compatible backend does not send them
	Temperature float64
	MaxTokens   int
}

// GenerationResponse is a provider-agnostic chat/completion response.
type GenerationResponse struct {
	Text         string
	FinishReason string
}

// GenerationBackend produces text (and optionally vision) completions.
type GenerationBackend interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResponse, error)
}

// EmbeddingBackend produces vector embeddings for a batch of texts.
type EmbeddingBackend interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// newBackend builds the concrete wire-protocol adapter for cfg. Ollama
// speaks its own native tags/generate/embeddings API; every other provider
// (openai, openrouter, and anything else registered) speaks the
// OpenAI-compatible chat-completions/embeddings API, distinguished only by
// base URL, api key and optional ranking headers.
func newBackend(cfg Config, model string) (*httpBackend, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &httpBackend{
		cfg:   cfg,
		model: model,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// httpBackend is a thin net/http client speaking either Ollama's native API
// or the OpenAI-compatible chat-completions/embeddings API, selected by
// cfg.ID. It carries no shared mutable state, matching the registry's
// "resolve a fresh backend per call" contract.
type httpBackend struct {
	cfg    Config
	model  string
	client *http.Client
}

func (b *httpBackend) isOllama() bool {
	return b.cfg.ID == localProviderID
}

func (b *httpBackend) Generate(ctx context.Context, req GenerationRequest) (GenerationResponse, error) {
	if b.isOllama() {
		return b.generateOllama(ctx, req)
	}
	return b.generateOpenAICompat(ctx, req)
}

func (b *httpBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if b.isOllama() {
		return b.embedOllama(ctx, texts)
	}
	return b.embedOpenAICompat(ctx, texts)
}

// --- Ollama native wire format -------------------------------------------

type ollamaGenerateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	System string   `json:"system,omitempty"`
	Images []string `json:"images,omitempty"`
	Stream bool     `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	DoneReason string `json:"done_reason,omitempty"`
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (b *httpBackend) generateOllama(ctx context.Context, req GenerationRequest) (GenerationResponse, error) {
	var images []string
	for _, img := range req.Images {
		images = append(images, base64.StdEncoding.EncodeToString(img))
	}
	wire := ollamaGenerateRequest{
		Model:  b.model,
		Prompt: req.Prompt,
		System: req.System,
		Images: images,
		Stream: false,
	}
	var out ollamaGenerateResponse
	if err := b.postJSON(ctx, "/api/generate", wire, &out); err != nil {
		return GenerationResponse{}, err
	}
	return GenerationResponse{Text: out.Response, FinishReason: out.DoneReason}, nil
}

func (b *httpBackend) embedOllama(ctx context.Context, texts []string) ([][]float32, error) {
	wire := ollamaEmbedRequest{Model: b.model, Input: texts}
	var out ollamaEmbedResponse
	if err := b.postJSON(ctx, "/api/embed", wire, &out); err != nil {
		return nil, err
	}
	return out.Embeddings, nil
}

// --- OpenAI-compatible wire format ----------------------------------------

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message      openAIChatMessage `json:"message"`
		FinishReason string            `json:"finish_reason"`
	} `json:"choices"`
}

type openAIEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (b *httpBackend) generateOpenAICompat(ctx context.Context, req GenerationRequest) (GenerationResponse, error) {
	var messages []openAIChatMessage
	if req.System != "" {
		messages = append(messages, openAIChatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, openAIChatMessage{Role: "user", Content: req.Prompt})

	wire := openAIChatRequest{
		Model:       b.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	var out openAIChatResponse
	if err := b.postJSON(ctx, "/chat/completions", wire, &out); err != nil {
		return GenerationResponse{}, err
	}
	if len(out.Choices) == 0 {
		return GenerationResponse{}, fmt.Errorf("provider %q returned no choices", b.cfg.ID)
	}
	return GenerationResponse{
		Text:         out.Choices[0].Message.Content,
		FinishReason: out.Choices[0].FinishReason,
	}, nil
}

func (b *httpBackend) embedOpenAICompat(ctx context.Context, texts []string) ([][]float32, error) {
	wire := openAIEmbedRequest{Model: b.model, Input: texts}
	var out openAIEmbedResponse
	if err := b.postJSON(ctx, "/embeddings", wire, &out); err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(out.Data))
	for i, d := range out.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// postJSON marshals body, POSTs it to cfg.BaseURL+path with provider auth
// and ranking headers attached, and unmarshals the response into out.
func (b *httpBackend) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if b.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	}
	if b.cfg.HTTPReferer != "" {
		httpReq.Header.Set("HTTP-Referer", b.cfg.HTTPReferer)
	}
	if b.cfg.XTitle != "" {
		httpReq.Header.Set("X-Title", b.cfg.XTitle)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("provider %q request failed: %w", b.cfg.ID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read provider %q response: %w", b.cfg.ID, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("provider %q returned %s: %s", b.cfg.ID, resp.Status, string(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode provider %q response: %w", b.cfg.ID, err)
	}
	return nil
}
