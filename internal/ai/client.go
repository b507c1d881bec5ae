package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ghostwriter-server/internal/config"
	"ghostwriter-server/internal/models"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openaigo "github.com/sashabaranov/go-openai"
)

var log = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghostwriter_ai_requests_total",
			Help: "Total number of requests to the AI API.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ghostwriter_ai_request_duration_seconds",
			Help:    "Histogram of AI API request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ghostwriter_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ghostwriter_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"model"},
	)
)

// UsageInfo содержит информацию об использовании токенов провайдера
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client интерфейс для взаимодействия с AI API.
// Одна попытка на вызов: ретраи на этом уровне не выполняются,
// неуспех сразу возвращается оркестратору.
type Client interface {
	// Generate отправляет системный промт и ввод пользователя,
	// возвращает сырой текст ответа модели и информацию об использовании.
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, UsageInfo, error)
}

// NewClient создает клиент провайдера по конфигурации (openai или ollama)
func NewClient(cfg *config.Config) (Client, error) {
	switch cfg.AIProvider {
	case "ollama":
		return newOllamaClient(cfg)
	default:
		return newOpenAIClient(cfg)
	}
}

// --- OpenAI-compatible Client Implementation ---

// openAIClient реализует Client через go-openai против OpenAI-совместимого
// эндпоинта (по умолчанию — совместимый эндпоинт Gemini).
type openAIClient struct {
	client *openaigo.Client
	model  string
}

func newOpenAIClient(cfg *config.Config) (Client, error) {
	if cfg.AIAPIKey == "" {
		return nil, fmt.Errorf("не указан API ключ для AI провайдера")
	}

	clientConfig := openaigo.DefaultConfig(cfg.AIAPIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.AIBaseURL, "/")
	clientConfig.HTTPClient = &http.Client{
		Timeout: cfg.AITimeout,
	}

	log.Info().Str("baseURL", clientConfig.BaseURL).Str("model", cfg.AIModel).Msg("OpenAI-compatible client created")

	return &openAIClient{
		client: openaigo.NewClientWithConfig(clientConfig),
		model:  cfg.AIModel,
	}, nil
}

// Generate генерирует текст на основе системного промта и ввода пользователя
func (c *openAIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, UsageInfo, error) {
	usageInfo := UsageInfo{}

	if strings.TrimSpace(userPrompt) == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", usageInfo, fmt.Errorf("%w: пустой промт", models.ErrGenerationFailed)
	}

	messages := []openaigo.ChatCompletionMessage{}
	if systemPrompt != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openaigo.ChatCompletionMessage{
		Role:    openaigo.ChatMessageRoleUser,
		Content: userPrompt,
	})

	startTime := time.Now()
	log.Info().Str("model", c.model).Int("systemBytes", len(systemPrompt)).Int("userBytes", len(userPrompt)).Msg("Sending request to AI")

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openaigo.ChatCompletionRequest{
			Model:    c.model,
			Messages: messages,
		},
	)

	duration := time.Since(startTime)

	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("AI API request failed")
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", usageInfo, fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		log.Error().Dur("duration", duration).Msg("AI API returned empty response")
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return "", usageInfo, fmt.Errorf("%w: получен пустой ответ", models.ErrGenerationFailed)
	}

	aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": c.model}).Observe(duration.Seconds())

	generatedText := resp.Choices[0].Message.Content

	if resp.Usage.TotalTokens > 0 {
		usageInfo.PromptTokens = resp.Usage.PromptTokens
		usageInfo.CompletionTokens = resp.Usage.CompletionTokens
		usageInfo.TotalTokens = resp.Usage.TotalTokens
	} else {
		// Совместимые эндпоинты не всегда возвращают usage, оцениваем токенайзером
		usageInfo = estimateUsage(systemPrompt+userPrompt, generatedText)
	}
	aiPromptTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(usageInfo.PromptTokens))
	aiCompletionTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(usageInfo.CompletionTokens))

	log.Info().Dur("duration", duration).Int("chars", len(generatedText)).Int("totalTokens", usageInfo.TotalTokens).Msg("AI response received")

	return generatedText, usageInfo, nil
}

// estimateUsage грубо оценивает количество токенов через tiktoken
func estimateUsage(prompt, completion string) UsageInfo {
	tke, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return UsageInfo{}
	}
	promptTokens := len(tke.Encode(prompt, nil, nil))
	completionTokens := len(tke.Encode(completion, nil, nil))
	return UsageInfo{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}

// --- Ollama Client Implementation ---

// ollamaClient реализует Client с использованием ollama/api
type ollamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

func newOllamaClient(cfg *config.Config) (Client, error) {
	httpClient := &http.Client{
		Timeout: cfg.AITimeout,
	}

	// api.NewClient требует URL без суффикса /v1
	ollamaBaseURL := strings.TrimSuffix(cfg.AIBaseURL, "/v1")
	ollamaBaseURL = strings.TrimSuffix(ollamaBaseURL, "/")

	parsedURL, err := url.Parse(ollamaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга Ollama Base URL '%s': %w", ollamaBaseURL, err)
	}

	log.Info().Str("baseURL", ollamaBaseURL).Str("model", cfg.AIModel).Msg("Ollama client created")

	return &ollamaClient{
		client:  api.NewClient(parsedURL, httpClient),
		model:   cfg.AIModel,
		timeout: cfg.AITimeout,
	}, nil
}

// Generate генерирует текст с использованием Ollama
func (c *ollamaClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, UsageInfo, error) {
	usageInfo := UsageInfo{}

	if strings.TrimSpace(userPrompt) == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", usageInfo, fmt.Errorf("%w: пустой промт", models.ErrGenerationFailed)
	}

	messages := []api.Message{}
	if systemPrompt != "" {
		messages = append(messages, api.Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, api.Message{Role: "user", Content: userPrompt})

	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   func(b bool) *bool { return &b }(false),
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	log.Info().Str("model", c.model).Int("systemBytes", len(systemPrompt)).Int("userBytes", len(userPrompt)).Msg("Sending request to Ollama")

	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		resp = r // Сохраняем последний (полный) ответ
		return nil
	})

	duration := time.Since(startTime)

	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("Ollama API request failed")
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", usageInfo, fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}

	if resp.Message.Content == "" {
		log.Error().Dur("duration", duration).Msg("Ollama API returned empty response")
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return "", usageInfo, fmt.Errorf("%w: получен пустой ответ", models.ErrGenerationFailed)
	}

	aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": c.model}).Observe(duration.Seconds())

	usageInfo.PromptTokens = resp.Metrics.PromptEvalCount
	usageInfo.CompletionTokens = resp.Metrics.EvalCount
	usageInfo.TotalTokens = usageInfo.PromptTokens + usageInfo.CompletionTokens
	aiPromptTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(usageInfo.PromptTokens))
	aiCompletionTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(usageInfo.CompletionTokens))

	log.Info().Dur("duration", duration).Int("chars", len(resp.Message.Content)).Msg("Ollama response received")

	return resp.Message.Content, usageInfo, nil
}
