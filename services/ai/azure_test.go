package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/cardstack/config"
	"github.com/customeros/cardstack/dto"
	cserr "github.com/customeros/cardstack/internal/errors"
	"github.com/customeros/cardstack/internal/logger"
)

const (
	azureChat   = "https://acme.openai.azure.com/openai/deployments/gpt-4o/chat/completions?api-version=2025-01-01-preview"
	azureVision = "https://acme-vision.cognitiveservices.azure.com/computervision/imageanalysis:analyze?api-version=2024-02-01&features=read"
)

func newAzure(t *testing.T) (*AzureGateway, *httpmock.MockTransport) {
	t.Helper()
	mock := httpmock.NewMockTransport()
	cfg := &config.AIConfig{
		EngineType:            "azure",
		AzureOpenAIEndpoint:   "https://acme.openai.azure.com/",
		AzureOpenAIKey:        "azure-key",
		AzureOpenAIDeployment: "gpt-4o",
		AzureOpenAIAPIVersion: "2025-01-01-preview",
		AzureVisionEndpoint:   "https://acme-vision.cognitiveservices.azure.com/",
		AzureVisionKey:        "vision-key",
	}
	return NewAzureGateway(cfg, logger.NewNopLogger(), &http.Client{Transport: mock}), mock
}

func chatContent(content string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []interface{}{
			map[string]interface{}{"message": map[string]interface{}{"role": "assistant", "content": content}},
		},
	}
}

func TestNormalizeAzureEndpoint(t *testing.T) {
	tests := []struct {
		endpoint, deployment     string
		wantEndpoint, wantDeploy string
	}{
		{"https://acme.openai.azure.com/", "gpt-4o", "https://acme.openai.azure.com", "gpt-4o"},
		{"https://acme.openai.azure.com/openai/deployments/gpt-4o-mini/chat/completions?api-version=x", "gpt-4o", "https://acme.openai.azure.com", "gpt-4o-mini"},
		{"https://acme.openai.azure.com/openai/v1/", "gpt-4o", "https://acme.openai.azure.com", "gpt-4o"},
		{"https://acme.cognitiveservices.azure.com", "d1", "https://acme.cognitiveservices.azure.com", "d1"},
	}
	for _, tt := range tests {
		endpoint, deployment := normalizeAzureEndpoint(tt.endpoint, tt.deployment)
		assert.Equal(t, tt.wantEndpoint, endpoint, tt.endpoint)
		assert.Equal(t, tt.wantDeploy, deployment, tt.endpoint)
	}
}

func TestAzureComplete(t *testing.T) {
	gw, mock := newAzure(t)

	var captured chatCompletionRequest
	calls := 0
	mock.RegisterResponder(http.MethodPost, azureChat, func(req *http.Request) (*http.Response, error) {
		calls++
		assert.Equal(t, "azure-key", req.Header.Get("api-key"))
		body, _ := io.ReadAll(req.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		return httpmock.NewJsonResponse(http.StatusOK, chatContent(`{"subject":"件名","body":"本文"}`))
	})

	text, err := gw.Complete(context.Background(), dto.CompletionRequest{Prompt: "write", WantJSON: true})
	require.NoError(t, err)

	assert.Equal(t, `{"subject":"件名","body":"本文"}`, text)
	assert.Equal(t, 1, calls)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, DefaultSystemInstruction, captured.Messages[0].Content)
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_object", captured.ResponseFormat.Type)
}

func TestAzureComplete_DoesNotRetry(t *testing.T) {
	gw, mock := newAzure(t)

	calls := 0
	mock.RegisterResponder(http.MethodPost, azureChat, func(req *http.Request) (*http.Response, error) {
		calls++
		return httpmock.NewStringResponse(http.StatusTooManyRequests, `{"error":{"code":"429","message":"Rate limit"}}`), nil
	})

	_, err := gw.Complete(context.Background(), dto.CompletionRequest{Prompt: "write"})
	assert.True(t, errors.Is(err, cserr.ErrGenerationFailed))
	assert.Equal(t, 1, calls)
}

func TestAzureComplete_Unconfigured(t *testing.T) {
	gw := NewAzureGateway(&config.AIConfig{}, logger.NewNopLogger(), http.DefaultClient)

	_, err := gw.Complete(context.Background(), dto.CompletionRequest{Prompt: "write"})
	assert.True(t, errors.Is(err, cserr.ErrGatewayUnconfigured))
	_, err = gw.AnalyzeImage(context.Background(), []byte{1}, "card.jpg")
	assert.True(t, errors.Is(err, cserr.ErrGatewayUnconfigured))
}

func TestAzureAnalyzeImage(t *testing.T) {
	gw, mock := newAzure(t)

	mock.RegisterResponder(http.MethodPost, azureVision, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "vision-key", req.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, "application/octet-stream", req.Header.Get("Content-Type"))
		return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
			"readResult": map[string]interface{}{
				"blocks": []interface{}{
					map[string]interface{}{"lines": []interface{}{
						map[string]interface{}{"text": "株式会社テスト"},
						map[string]interface{}{"text": "山田 太郎"},
					}},
				},
			},
		})
	})

	var captured chatCompletionRequest
	mock.RegisterResponder(http.MethodPost, azureChat, func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		return httpmock.NewJsonResponse(http.StatusOK, chatContent(`{"name":"山田 太郎","company":"株式会社テスト"}`))
	})

	guess, err := gw.AnalyzeImage(context.Background(), []byte{0xFF, 0xD8}, "card.jpg")
	require.NoError(t, err)

	assert.Equal(t, "山田 太郎", guess.Name)
	assert.Equal(t, "株式会社テスト", guess.Company)
	assert.Empty(t, guess.Email)
	assert.Equal(t, imageSystemInstruction, captured.Messages[0].Content)
	assert.Contains(t, captured.Messages[1].Content, "株式会社テスト 山田 太郎")
}
