package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/contract"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/graph"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

// DefaultModel is used when LLMConfig.Model is empty.
const DefaultModel = "gpt-4o-mini"

const systemPrompt = `You are a contract analyst. Extract the clauses, parties and relationships of the contract the user sends.
Respond with a single JSON object and nothing else:
{
  "clauses": [{"id": "1", "topic": "Indemnification", "text": "...", "section_number": "3"}],
  "entities": [{"name": "Developer", "type": "Party"}],
  "relationships": [{"source": "1", "target": "2", "type": "CONTRADICTS", "reason": "..."}],
  "risks": [{"id": "risk-1-2", "severity": "critical", "description": "...", "recommendation": "...", "clause_id": "1"}]
}
Clause ids are short strings of letters, digits, '-' or '_'.
Relationship types: CONTRADICTS and REFERENCES link two clause ids; OBLIGATES links a clause id (source) to an entity name (target); PARTY_TO links an entity name (source) to a clause id (target).
Severity is one of low, medium, high, critical.`

// LLMConfig configures the LLM extractor.
type LLMConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
	Retry       graph.RetryPolicy

	// RequestsPerMinute caps chat completion calls, retries included.
	// Zero disables the limit.
	RequestsPerMinute int
}

// LLMExtractor asks an OpenAI-compatible chat completion endpoint to
// extract the contract graph as JSON.
type LLMExtractor struct {
	client  *openai.Client
	cfg     LLMConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

// LLMOption configures an LLMExtractor.
type LLMOption func(*LLMExtractor)

// WithLLMLogger sets the extractor logger.
func WithLLMLogger(logger *slog.Logger) LLMOption {
	return func(e *LLMExtractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewLLMExtractor creates an extractor. An API key is required.
func NewLLMExtractor(cfg LLMConfig, opts ...LLMOption) (*LLMExtractor, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED, "llm extractor requires an API key (OPENAI_API_KEY)")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	e := &LLMExtractor{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: slog.Default(),
	}
	if cfg.RequestsPerMinute > 0 {
		e.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// llmExtraction mirrors the JSON the model is asked to produce.
type llmExtraction struct {
	Clauses []struct {
		ID            string `json:"id"`
		Topic         string `json:"topic"`
		Text          string `json:"text"`
		SectionNumber string `json:"section_number"`
	} `json:"clauses"`
	Entities []struct {
		Name        string `json:"name"`
		Type        string `json:"type"`
		Description string `json:"description"`
	} `json:"entities"`
	Relationships []struct {
		Source string `json:"source"`
		Target string `json:"target"`
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"relationships"`
	Risks []struct {
		ID             string `json:"id"`
		Severity       string `json:"severity"`
		Description    string `json:"description"`
		Recommendation string `json:"recommendation"`
		ClauseID       string `json:"clause_id"`
	} `json:"risks"`
}

// Extract sends text to the model and converts its answer. Rate limits
// and server errors are retried under cfg.Retry.
func (e *LLMExtractor) Extract(ctx context.Context, text string) (contract.Extraction, error) {
	if strings.TrimSpace(text) == "" {
		return contract.Extraction{}, types.NewExtractionError("contract text is empty", "", nil)
	}

	req := openai.ChatCompletionRequest{
		Model: e.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: e.cfg.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if e.cfg.MaxTokens > 0 {
		req.MaxCompletionTokens = e.cfg.MaxTokens
	}

	e.logger.Debug("requesting llm extraction", "model", e.cfg.Model, "text_length", len(text))
	resp, err := graph.WithRetry(ctx, e.cfg.Retry, isRetryableAPIError,
		func(ctx context.Context) (openai.ChatCompletionResponse, error) {
			if e.limiter != nil {
				if err := e.limiter.Wait(ctx); err != nil {
					return openai.ChatCompletionResponse{}, err
				}
			}
			return e.client.CreateChatCompletion(ctx, req)
		})
	if err != nil {
		return contract.Extraction{}, types.NewExtractionError("chat completion failed", text, err)
	}
	if len(resp.Choices) == 0 {
		return contract.Extraction{}, types.NewExtractionError("model returned no choices", text, nil)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonLength {
		e.logger.Warn("llm response truncated, attempting repair", "model", e.cfg.Model)
	}

	parsed, err := parseJSON[llmExtraction](choice.Message.Content)
	if err != nil {
		return contract.Extraction{}, types.NewExtractionError("model response is not valid JSON", text, err)
	}

	out := convertExtraction(parsed)
	e.logger.Info("llm extraction complete",
		"model", e.cfg.Model,
		"clauses", len(out.Clauses),
		"entities", len(out.Entities),
		"relationships", len(out.Relationships),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)
	return out, nil
}

// Health lists the endpoint's models and checks the configured one is
// among them.
func (e *LLMExtractor) Health(ctx context.Context) types.HealthStatus {
	start := time.Now()
	models, err := e.client.ListModels(ctx)
	if err != nil {
		return types.Unhealthy(fmt.Sprintf("llm endpoint unreachable: %v", err))
	}
	for _, m := range models.Models {
		if m.ID == e.cfg.Model {
			status := types.Healthy(fmt.Sprintf("model %s available", e.cfg.Model))
			status.Latency = time.Since(start)
			return status
		}
	}
	return types.Unhealthy(fmt.Sprintf("model %s not offered by endpoint", e.cfg.Model))
}

// convertExtraction maps the model's loose JSON onto the graph model.
// Relationship endpoints are addressed by the label their type implies.
// Unknown types are passed through so the graph store rejects them with a
// validation error tagged to the element.
func convertExtraction(in llmExtraction) contract.Extraction {
	var out contract.Extraction
	for _, c := range in.Clauses {
		out.Clauses = append(out.Clauses, contract.Clause{
			ID:            strings.TrimSpace(c.ID),
			Text:          c.Text,
			Topic:         c.Topic,
			SectionNumber: c.SectionNumber,
		})
	}
	for _, en := range in.Entities {
		out.Entities = append(out.Entities, contract.Entity{
			Name:        strings.TrimSpace(en.Name),
			Type:        en.Type,
			Description: en.Description,
		})
	}
	for _, r := range in.Relationships {
		relType := contract.RelationshipType(strings.ToUpper(strings.TrimSpace(r.Type)))
		source, target := strings.TrimSpace(r.Source), strings.TrimSpace(r.Target)
		switch relType {
		case contract.RelObligates:
			out.Relationships = append(out.Relationships, contract.Obligation(source, target))
		case contract.RelPartyTo:
			out.Relationships = append(out.Relationships, contract.PartyTo(source, target))
		default:
			var props map[string]any
			if r.Reason != "" {
				props = map[string]any{"reason": r.Reason}
			}
			out.Relationships = append(out.Relationships, contract.ClauseLink(source, target, relType, props))
		}
	}
	for _, r := range in.Risks {
		out.Risks = append(out.Risks, contract.Risk{
			ID:             strings.TrimSpace(r.ID),
			Severity:       contract.Severity(strings.ToLower(strings.TrimSpace(r.Severity))),
			Description:    r.Description,
			Recommendation: r.Recommendation,
			ClauseID:       strings.TrimSpace(r.ClauseID),
		})
	}
	return out
}

// isRetryableAPIError retries rate limiting and server-side failures.
func isRetryableAPIError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return graph.IsTransient(err)
}
