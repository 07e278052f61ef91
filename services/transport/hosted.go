package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/cardstack/config"
	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/internal/enum"
	cserr "github.com/customeros/cardstack/internal/errors"
	"github.com/customeros/cardstack/internal/models"
	"github.com/customeros/cardstack/internal/tracing"
)

const hostedSuccessMessage = "Resend経由で送信に成功しました！"

// HostedTransport sends through the Resend HTTP API from the platform sender address.
type HostedTransport struct {
	cfg    *config.MailConfig
	client *http.Client
}

func NewHostedTransport(cfg *config.MailConfig, client *http.Client) *HostedTransport {
	if client == nil {
		client = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &HostedTransport{cfg: cfg, client: client}
}

type resendSendRequest struct {
	From    string            `json:"from"`
	To      []string          `json:"to"`
	Subject string            `json:"subject"`
	Text    string            `json:"text"`
	Headers map[string]string `json:"headers,omitempty"`
}

type resendSendResponse struct {
	ID string `json:"id"`
}

// HostedAPIError is a non-2xx answer from the hosted provider.
type HostedAPIError struct {
	StatusCode int
	Body       string
}

func (e *HostedAPIError) Error() string {
	return fmt.Sprintf("hosted email api returned status %d: %s", e.StatusCode, e.Body)
}

func (t *HostedTransport) fromHeader(profile *models.TenantProfile) string {
	name := strings.TrimSpace(profile.DisplayName)
	if name == "" {
		name = t.cfg.DefaultName
	}
	return fmt.Sprintf("%s <%s>", name, t.cfg.PlatformSender)
}

func (t *HostedTransport) Send(ctx context.Context, profile *models.TenantProfile, message dto.OutboundMessage) (*dto.SendReceipt, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "HostedTransport.Send")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagTenant(span, profile.Tenant)

	if t.cfg.ResendAPIKey == "" {
		err := errors.Wrap(cserr.ErrTransportFailed, "hosted email api key missing")
		tracing.TraceErr(span, err)
		return nil, err
	}

	refID := uuid.New().String()
	span.LogKV("refId", refID)
	payload := resendSendRequest{
		From:    t.fromHeader(profile),
		To:      []string{message.To},
		Subject: message.Subject,
		Text:    message.Body,
		Headers: map[string]string{"X-Entity-Ref-ID": refID},
	}

	var response resendSendResponse
	if err := t.do(ctx, http.MethodPost, "/emails", payload, &response); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return &dto.SendReceipt{
		MessageID: response.ID,
		Channel:   enum.TransportChannelHostedAPI,
		Message:   hostedSuccessMessage,
	}, nil
}

type resendListResponse struct {
	Data []struct {
		ID        string `json:"id"`
		LastEvent string `json:"last_event"`
	} `json:"data"`
}

var metricEvents = []string{"delivered", "opened", "clicked", "bounced", "complained", "sent"}

// Metrics counts listed emails by last event; unknown events count as sent.
func (t *HostedTransport) Metrics(ctx context.Context) (*dto.HostedMailMetrics, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "HostedTransport.Metrics")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if t.cfg.ResendAPIKey == "" {
		return nil, errors.Wrap(cserr.ErrTransportFailed, "hosted email api key missing")
	}

	var response resendListResponse
	if err := t.do(ctx, http.MethodGet, "/emails", nil, &response); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	counts := make(map[string]int, len(metricEvents))
	for _, event := range metricEvents {
		counts[event] = 0
	}
	for _, email := range response.Data {
		if _, known := counts[email.LastEvent]; known {
			counts[email.LastEvent]++
		} else {
			counts["sent"]++
		}
	}

	total := len(response.Data)
	return &dto.HostedMailMetrics{
		Total:  total,
		Counts: counts,
		Rates: map[string]float64{
			"delivered": rate(counts["delivered"], total),
			"opened":    rate(counts["opened"], total),
			"clicked":   rate(counts["clicked"], total),
		},
	}, nil
}

func rate(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)*1000/float64(total)) / 10
}

func (t *HostedTransport) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "failed to marshal payload")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(t.cfg.ResendURL, "/")+path, body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer "+t.cfg.ResendAPIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "unable to read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HostedAPIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}
