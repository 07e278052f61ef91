package ai

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/cardstack/config"
	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/internal/enum"
	cserr "github.com/customeros/cardstack/internal/errors"
	"github.com/customeros/cardstack/internal/logger"
	"github.com/customeros/cardstack/internal/tracing"
)

const (
	visionAPIVersion        = "2024-02-01"
	imageSystemInstruction  = "You are a helpful assistant that outputs only JSON."
	imageTextPromptTemplate = "以下のテキストからJSON(name, company, department, title, url, email, phone)を抽出して。テキスト: "
)

type AzureGateway struct {
	cfg        *config.AIConfig
	log        logger.Logger
	client     *http.Client
	endpoint   string
	deployment string
}

func NewAzureGateway(cfg *config.AIConfig, log logger.Logger, client *http.Client) *AzureGateway {
	endpoint, deployment := normalizeAzureEndpoint(cfg.AzureOpenAIEndpoint, cfg.AzureOpenAIDeployment)
	return &AzureGateway{
		cfg:        cfg,
		log:        log,
		client:     client,
		endpoint:   endpoint,
		deployment: deployment,
	}
}

// normalizeAzureEndpoint cuts a full deployment URL back to the resource base.
// A /deployments/<name>/ segment in the URL wins over the configured deployment.
func normalizeAzureEndpoint(endpoint, deployment string) (string, string) {
	endpoint = strings.TrimSpace(endpoint)
	if idx := strings.Index(endpoint, "/openai/"); idx >= 0 {
		if _, rest, found := strings.Cut(endpoint, "/deployments/"); found {
			if name, _, _ := strings.Cut(rest, "/"); name != "" {
				deployment = name
			}
		}
		endpoint = endpoint[:idx]
	}
	return strings.TrimRight(endpoint, "/"), deployment
}

func (g *AzureGateway) Name() string {
	return enum.AIEngineAzure.String()
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponseFormat struct {
	Type string `json:"type"`
}

type chatCompletionRequest struct {
	Messages       []chatMessage       `json:"messages"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *AzureGateway) Complete(ctx context.Context, request dto.CompletionRequest) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AzureGateway.Complete")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("wantJSON", request.WantJSON, "deployment", g.deployment)

	started := time.Now()
	text, err := g.chat(ctx, request)
	observe(g.Name(), operationComplete, started, err)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	return text, nil
}

func (g *AzureGateway) chat(ctx context.Context, request dto.CompletionRequest) (string, error) {
	if g.endpoint == "" || g.cfg.AzureOpenAIKey == "" {
		return "", errors.Wrap(cserr.ErrGatewayUnconfigured, "azure openai endpoint or key missing")
	}

	system := request.SystemInstruction
	if system == "" {
		system = DefaultSystemInstruction
	}
	payload := chatCompletionRequest{
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: request.Prompt},
		},
	}
	if request.WantJSON {
		payload.ResponseFormat = &chatResponseFormat{Type: "json_object"}
	}
	body, err := jsonBody(payload)
	if err != nil {
		return "", &GenerationError{Engine: g.Name(), Err: err}
	}

	chatURL := g.endpoint + "/openai/deployments/" + url.PathEscape(g.deployment) +
		"/chat/completions?api-version=" + url.QueryEscape(g.cfg.AzureOpenAIAPIVersion)

	var response chatCompletionResponse
	err = doJSON(ctx, g.client, http.MethodPost, chatURL, map[string]string{
		"Content-Type": "application/json",
		"api-key":      g.cfg.AzureOpenAIKey,
	}, body, &response)
	if err != nil {
		return "", &GenerationError{Engine: g.Name(), Err: err}
	}
	if len(response.Choices) == 0 {
		return "", &GenerationError{Engine: g.Name(), Err: errors.New("no choices in response")}
	}
	return response.Choices[0].Message.Content, nil
}

type visionResponse struct {
	ReadResult struct {
		Blocks []struct {
			Lines []struct {
				Text string `json:"text"`
			} `json:"lines"`
		} `json:"blocks"`
	} `json:"readResult"`
}

// AnalyzeImage reads the card text with Vision READ, then structures it with a chat completion.
func (g *AzureGateway) AnalyzeImage(ctx context.Context, image []byte, filename string) (*dto.ContactGuess, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AzureGateway.AnalyzeImage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("filename", filename, "size", len(image))

	started := time.Now()
	guess, err := g.analyzeImage(ctx, image)
	observe(g.Name(), operationAnalyzeImage, started, err)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return guess, nil
}

func (g *AzureGateway) analyzeImage(ctx context.Context, image []byte) (*dto.ContactGuess, error) {
	if g.cfg.AzureVisionEndpoint == "" || g.cfg.AzureVisionKey == "" {
		return nil, errors.Wrap(cserr.ErrGatewayUnconfigured, "azure vision endpoint or key missing")
	}

	visionURL := strings.TrimRight(g.cfg.AzureVisionEndpoint, "/") +
		"/computervision/imageanalysis:analyze?api-version=" + visionAPIVersion + "&features=read"

	var vision visionResponse
	err := doJSON(ctx, g.client, http.MethodPost, visionURL, map[string]string{
		"Content-Type":              "application/octet-stream",
		"Ocp-Apim-Subscription-Key": g.cfg.AzureVisionKey,
	}, bytes.NewReader(image), &vision)
	if err != nil {
		return nil, &GenerationError{Engine: g.Name(), Err: errors.Wrap(err, "vision read")}
	}

	var lines []string
	for _, block := range vision.ReadResult.Blocks {
		for _, line := range block.Lines {
			lines = append(lines, line.Text)
		}
	}
	rawText := strings.Join(lines, " ")

	text, err := g.chat(ctx, dto.CompletionRequest{
		Prompt:            imageTextPromptTemplate + rawText,
		SystemInstruction: imageSystemInstruction,
		WantJSON:          true,
	})
	if err != nil {
		return nil, err
	}

	guess, err := ParseContactGuess(text)
	if err != nil {
		return nil, &GenerationError{Engine: g.Name(), Err: err}
	}
	return guess, nil
}
