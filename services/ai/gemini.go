package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"

	"github.com/customeros/cardstack/config"
	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/internal/enum"
	cserr "github.com/customeros/cardstack/internal/errors"
	"github.com/customeros/cardstack/internal/logger"
	"github.com/customeros/cardstack/internal/metrics"
	"github.com/customeros/cardstack/internal/tracing"
	"github.com/customeros/cardstack/internal/utils"
)

const cardImagePrompt = `あなたはプロのビジネス・アシスタントです。
提供された名刺画像から情報を抽出し、以下のJSON形式でのみ回答してください。
不明な項目は空文字にしてください。
JSONのキーは必ず以下を使用してください:
name, company, department, title, url, email, phone`

type GeminiGateway struct {
	cfg    *config.AIConfig
	log    logger.Logger
	client *http.Client
}

func NewGeminiGateway(cfg *config.AIConfig, log logger.Logger, client *http.Client) *GeminiGateway {
	return &GeminiGateway{cfg: cfg, log: log, client: client}
}

func (g *GeminiGateway) Name() string {
	return enum.AIEngineGemini.String()
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateContentRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (r generateContentResponse) text() string {
	var sb strings.Builder
	for _, candidate := range r.Candidates {
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}
	return sb.String()
}

func (g *GeminiGateway) Complete(ctx context.Context, request dto.CompletionRequest) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GeminiGateway.Complete")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("wantJSON", request.WantJSON, "model", g.cfg.GeminiModel)

	payload := generateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: request.Prompt}}}},
	}
	if request.SystemInstruction != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: request.SystemInstruction}}}
	}
	if request.WantJSON {
		payload.GenerationConfig = &geminiGenerationConfig{ResponseMimeType: "application/json"}
	}

	started := time.Now()
	text, err := g.generate(ctx, payload)
	observe(g.Name(), operationComplete, started, err)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	return text, nil
}

func (g *GeminiGateway) AnalyzeImage(ctx context.Context, image []byte, filename string) (*dto.ContactGuess, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GeminiGateway.AnalyzeImage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	mimeType := utils.GetContentTypeFromFileName(filename)
	span.LogKV("filename", filename, "mimeType", mimeType, "size", len(image))

	payload := generateContentRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: cardImagePrompt},
				{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
			},
		}},
		GenerationConfig: &geminiGenerationConfig{ResponseMimeType: "application/json"},
	}

	started := time.Now()
	text, err := g.generate(ctx, payload)
	if err != nil {
		observe(g.Name(), operationAnalyzeImage, started, err)
		tracing.TraceErr(span, err)
		return nil, err
	}

	guess, err := ParseContactGuess(text)
	if err != nil {
		err = &GenerationError{Engine: g.Name(), Err: err}
	}
	observe(g.Name(), operationAnalyzeImage, started, err)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return guess, nil
}

// generate retries only rate-limited calls, doubling the delay from the configured base.
func (g *GeminiGateway) generate(ctx context.Context, payload generateContentRequest) (string, error) {
	if g.cfg.GeminiAPIKey == "" {
		return "", errors.Wrap(cserr.ErrGatewayUnconfigured, "gemini api key missing")
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", &GenerationError{Engine: g.Name(), Err: errors.Wrap(err, "failed to marshal payload")}
	}

	generateURL := strings.TrimRight(g.cfg.GeminiURL, "/") + "/models/" + url.PathEscape(g.cfg.GeminiModel) + ":generateContent"

	base := g.cfg.GeminiRetryBackoff
	if base <= 0 {
		base = time.Second
	}
	attempts := g.cfg.GeminiMaxAttempts
	if attempts == 0 {
		attempts = 1
	}
	backoff := retry.WithMaxRetries(attempts-1, retry.NewExponential(base))

	var text string
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var response generateContentResponse
		err := doJSON(ctx, g.client, http.MethodPost, generateURL, map[string]string{
			"Content-Type":   "application/json",
			"x-goog-api-key": g.cfg.GeminiAPIKey,
		}, bytes.NewReader(payloadBytes), &response)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.RateLimited() {
				g.log.Warnf("gemini rate limited on attempt %d/%d: %v", attempt, attempts, err)
				if uint64(attempt) < attempts {
					metrics.IncGatewayRetry(g.Name())
				}
				return retry.RetryableError(err)
			}
			return err
		}
		text = response.text()
		return nil
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.NotFound() {
			g.logAvailableModels(ctx)
		}
		return "", &GenerationError{Engine: g.Name(), Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", &GenerationError{Engine: g.Name(), Err: errors.New("empty response")}
	}
	return text, nil
}

type listModelsResponse struct {
	Models []struct {
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
	} `json:"models"`
}

// logAvailableModels is diagnostic only; its own failures are logged and dropped.
func (g *GeminiGateway) logAvailableModels(ctx context.Context) {
	var response listModelsResponse
	err := doJSON(ctx, g.client, http.MethodGet, strings.TrimRight(g.cfg.GeminiURL, "/")+"/models", map[string]string{
		"x-goog-api-key": g.cfg.GeminiAPIKey,
	}, nil, &response)
	if err != nil {
		g.log.Warnf("gemini model %s not found and listing models failed: %v", g.cfg.GeminiModel, err)
		return
	}

	names := make([]string, 0, len(response.Models))
	for _, m := range response.Models {
		names = append(names, m.Name+" ("+m.DisplayName+")")
	}
	g.log.Warnf("gemini model %s not found, available models: %s", g.cfg.GeminiModel, strings.Join(names, ", "))
}
