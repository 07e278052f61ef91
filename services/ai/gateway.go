package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/cardstack/config"
	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/interfaces"
	"github.com/customeros/cardstack/internal/enum"
	cserr "github.com/customeros/cardstack/internal/errors"
	"github.com/customeros/cardstack/internal/logger"
	"github.com/customeros/cardstack/internal/metrics"
	"github.com/customeros/cardstack/internal/tracing"
)

const (
	DefaultSystemInstruction = "You are a professional business assistant."

	operationComplete     = "complete"
	operationAnalyzeImage = "analyze_image"
)

// NewCompletionGateway picks the backend named by the engine type. A nil client gets a default with the configured timeout.
func NewCompletionGateway(cfg *config.AIConfig, log logger.Logger, client *http.Client) (interfaces.CompletionGateway, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.RequestTimeout}
	}

	switch enum.AIEngine(cfg.EngineType) {
	case enum.AIEngineGemini:
		return NewGeminiGateway(cfg, log, client), nil
	case enum.AIEngineAzure, "":
		return NewAzureGateway(cfg, log, client), nil
	default:
		return nil, errors.Errorf("unknown AI engine type %q", cfg.EngineType)
	}
}

// GenerationError carries the backend failure and matches ErrGenerationFailed.
type GenerationError struct {
	Engine string
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s (%s): %v", cserr.ErrGenerationFailed.Error(), e.Engine, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (e *GenerationError) Is(target error) bool {
	return target == cserr.ErrGenerationFailed
}

// APIError is a non-2xx response from a generative backend.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("status %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED"
}

func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound ||
		e.Status == "NOT_FOUND" ||
		strings.Contains(strings.ToLower(e.Message), "not found")
}

// apiErrorBody covers both the Google and the Azure error envelopes.
type apiErrorBody struct {
	Error struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
		Status  string          `json:"status"`
	} `json:"error"`
}

func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Message: strings.TrimSpace(string(body))}
	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Message = parsed.Error.Message
		apiErr.Status = parsed.Error.Status
	}
	return apiErr
}

// doJSON sends the request and decodes a 2xx JSON response into out.
func doJSON(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body io.Reader, out interface{}) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CompletionGateway.doJSON")
	defer span.Finish()
	tracing.TagComponentExternalHttp(span)
	span.LogKV("method", method)

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to create request")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req = tracing.InjectSpanContextIntoHTTPRequest(req, span)

	resp, err := client.Do(req)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "unable to read response body")
	}
	span.LogKV("status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp.StatusCode, respBody)
		tracing.TraceErr(span, apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

func jsonBody(payload interface{}) (io.Reader, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal payload")
	}
	return bytes.NewReader(data), nil
}

func observe(engine, operation string, started time.Time, err error) {
	metrics.IncGatewayRequest(engine, operation, err == nil)
	metrics.ObserveGatewayDuration(engine, operation, time.Since(started).Seconds())
}

// ExtractJSON strips markdown code fences some models wrap around JSON output.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if newline := strings.IndexByte(text, '\n'); newline >= 0 {
		text = text[newline+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

var contactGuessKeys = []string{"name", "company", "department", "title", "url", "email", "phone"}

// ParseContactGuess reads the image key contract. Missing or null keys are blank.
func ParseContactGuess(text string) (*dto.ContactGuess, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &raw); err != nil {
		return nil, errors.Wrap(err, "image analysis did not return a JSON object")
	}

	values := make(map[string]string, len(contactGuessKeys))
	for _, key := range contactGuessKeys {
		switch v := raw[key].(type) {
		case nil:
			values[key] = ""
		case string:
			values[key] = strings.TrimSpace(v)
		default:
			values[key] = strings.TrimSpace(fmt.Sprint(v))
		}
	}

	return &dto.ContactGuess{
		Name:       values["name"],
		Company:    values["company"],
		Department: values["department"],
		Title:      values["title"],
		URL:        values["url"],
		Email:      values["email"],
		Phone:      values["phone"],
	}, nil
}
