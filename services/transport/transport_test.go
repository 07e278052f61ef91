package transport

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/smtp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jarcoal/httpmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/cardstack/config"
	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/internal/enum"
	cserr "github.com/customeros/cardstack/internal/errors"
	"github.com/customeros/cardstack/internal/models"
)

const resendBase = "https://resend.test"

func mailConfig() *config.MailConfig {
	return &config.MailConfig{
		ResendURL:      resendBase,
		ResendAPIKey:   "re_test",
		PlatformSender: "info@email.we-sales.com",
		DefaultName:    "WeSales User",
		RelaySMTPHost:  "smtp.gmail.com",
		RelaySMTPPort:  465,
	}
}

func relayProfile() *models.TenantProfile {
	return &models.TenantProfile{
		Tenant:        "acme",
		DisplayName:   "田中 次郎",
		EmailAddress:  "tanaka@acme.co.jp",
		RelaySecret:   "app-secret",
		EmailProvider: enum.EmailProviderRelay,
	}
}

type recordingTransport struct {
	calls int
	err   error
}

func (r *recordingTransport) Send(_ context.Context, _ *models.TenantProfile, _ dto.OutboundMessage) (*dto.SendReceipt, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &dto.SendReceipt{MessageID: "ok"}, nil
}

func TestRouter_Select(t *testing.T) {
	relay, hosted := &recordingTransport{}, &recordingTransport{}
	router := NewRouter(relay, hosted)

	ctx := context.Background()
	msg := dto.OutboundMessage{To: "a@example.com", Subject: "s", Body: "b"}

	_, err := router.Send(ctx, relayProfile(), msg)
	require.NoError(t, err)
	assert.Equal(t, 1, relay.calls)

	missingSecret := relayProfile()
	missingSecret.RelaySecret = ""
	_, err = router.Send(ctx, missingSecret, msg)
	require.NoError(t, err)

	hostedPreferred := relayProfile()
	hostedPreferred.EmailProvider = enum.EmailProviderHostedAPI
	_, err = router.Send(ctx, hostedPreferred, msg)
	require.NoError(t, err)

	assert.Equal(t, 1, relay.calls)
	assert.Equal(t, 2, hosted.calls)
}

func TestRouter_PropagatesErrorUnmodified(t *testing.T) {
	cause := errors.New("535 authentication failed")
	router := NewRouter(&recordingTransport{err: cause}, &recordingTransport{})

	_, err := router.Send(context.Background(), relayProfile(), dto.OutboundMessage{To: "a@example.com"})
	assert.Same(t, cause, err)
}

func TestRelayTransport_Send(t *testing.T) {
	transport := NewRelayTransport(mailConfig())

	var (
		gotHost string
		gotPort int
		gotFrom string
		gotTo   []string
		gotMsg  string
	)
	transport.deliver = func(_ context.Context, host string, port int, _ smtp.Auth, from string, to []string, message []byte) error {
		gotHost, gotPort, gotFrom, gotTo, gotMsg = host, port, from, to, string(message)
		return nil
	}

	receipt, err := transport.Send(context.Background(), relayProfile(), dto.OutboundMessage{
		To:      "yamada@example.com",
		Subject: "ご挨拶",
		Body:    "株式会社テスト 山田 太郎 様",
	})
	require.NoError(t, err)

	assert.Equal(t, "relay-smtp", receipt.MessageID)
	assert.Equal(t, enum.TransportChannelRelay, receipt.Channel)
	assert.Equal(t, "smtp.gmail.com", gotHost)
	assert.Equal(t, 465, gotPort)
	assert.Equal(t, "tanaka@acme.co.jp", gotFrom)
	assert.Equal(t, []string{"yamada@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "yamada@example.com")
	assert.Contains(t, gotMsg, "tanaka@acme.co.jp")
	assert.Contains(t, strings.ToLower(gotMsg), "text/plain")
}

func TestRelayTransport_DeliveryErrorPropagates(t *testing.T) {
	transport := NewRelayTransport(mailConfig())
	cause := errors.New("dial tcp: i/o timeout")
	transport.deliver = func(context.Context, string, int, smtp.Auth, string, []string, []byte) error {
		return cause
	}

	_, err := transport.Send(context.Background(), relayProfile(), dto.OutboundMessage{To: "a@example.com", Subject: "s", Body: "b"})
	assert.Same(t, cause, err)
}

func TestRelayTransport_SilentServerTimesOut(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	// accept and stay silent until the test ends
	accepted := make(chan net.Conn, 1)
	go func() {
		if conn, err := listener.Accept(); err == nil {
			accepted <- conn
		}
	}()
	defer func() {
		select {
		case conn := <-accepted:
			conn.Close()
		default:
		}
	}()

	host, port, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	portNumber, err := strconv.Atoi(port)
	require.NoError(t, err)

	cfg := mailConfig()
	cfg.RelaySMTPHost = host
	cfg.RelaySMTPPort = portNumber
	cfg.RequestTimeout = 200 * time.Millisecond
	transport := NewRelayTransport(cfg)

	done := make(chan error, 1)
	go func() {
		_, err := transport.Send(context.Background(), relayProfile(), dto.OutboundMessage{To: "a@example.com", Subject: "s", Body: "b"})
		done <- err
	}()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("relay send did not honour the mail request timeout")
	}
}

func newHosted(t *testing.T) (*HostedTransport, *httpmock.MockTransport) {
	t.Helper()
	mock := httpmock.NewMockTransport()
	return NewHostedTransport(mailConfig(), &http.Client{Transport: mock}), mock
}

func TestHostedTransport_Send(t *testing.T) {
	hosted, mock := newHosted(t)

	var captured resendSendRequest
	mock.RegisterResponder(http.MethodPost, resendBase+"/emails", func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "Bearer re_test", req.Header.Get("Authorization"))
		body, _ := io.ReadAll(req.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		return httpmock.NewJsonResponse(http.StatusOK, map[string]string{"id": "re_123"})
	})

	profile := &models.TenantProfile{Tenant: "acme", DisplayName: "田中 次郎"}
	receipt, err := hosted.Send(context.Background(), profile, dto.OutboundMessage{To: "yamada@example.com", Subject: "s", Body: "b"})
	require.NoError(t, err)

	assert.Equal(t, "re_123", receipt.MessageID)
	assert.Equal(t, enum.TransportChannelHostedAPI, receipt.Channel)
	assert.Equal(t, "田中 次郎 <info@email.we-sales.com>", captured.From)
	assert.Equal(t, []string{"yamada@example.com"}, captured.To)
	_, err = uuid.Parse(captured.Headers["X-Entity-Ref-ID"])
	assert.NoError(t, err)
}

func TestHostedTransport_DefaultSenderName(t *testing.T) {
	hosted, _ := newHosted(t)
	assert.Equal(t, "WeSales User <info@email.we-sales.com>", hosted.fromHeader(&models.TenantProfile{}))
}

func TestHostedTransport_Errors(t *testing.T) {
	hosted, mock := newHosted(t)
	mock.RegisterResponder(http.MethodPost, resendBase+"/emails",
		httpmock.NewStringResponder(http.StatusUnprocessableEntity, `{"message":"invalid to"}`))

	_, err := hosted.Send(context.Background(), &models.TenantProfile{}, dto.OutboundMessage{To: "x"})
	var apiErr *HostedAPIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)

	hosted.cfg.ResendAPIKey = ""
	_, err = hosted.Send(context.Background(), &models.TenantProfile{}, dto.OutboundMessage{To: "x"})
	assert.True(t, errors.Is(err, cserr.ErrTransportFailed))
}

func TestHostedTransport_Metrics(t *testing.T) {
	hosted, mock := newHosted(t)
	mock.RegisterResponder(http.MethodGet, resendBase+"/emails", httpmock.NewStringResponder(http.StatusOK, `{"data":[
		{"id":"1","last_event":"delivered"},
		{"id":"2","last_event":"delivered"},
		{"id":"3","last_event":"opened"},
		{"id":"4","last_event":"queued"},
		{"id":"5","last_event":"bounced"},
		{"id":"6","last_event":"clicked"}
	]}`))

	m, err := hosted.Metrics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, m.Total)
	assert.Equal(t, 2, m.Counts["delivered"])
	assert.Equal(t, 1, m.Counts["sent"])
	assert.Equal(t, 0, m.Counts["complained"])
	assert.Equal(t, 33.3, m.Rates["delivered"])
	assert.Equal(t, 16.7, m.Rates["opened"])
}

func TestRate(t *testing.T) {
	assert.Equal(t, 0.0, rate(1, 0))
	assert.Equal(t, 100.0, rate(3, 3))
}
