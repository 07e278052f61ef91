package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/jhillyerd/enmime"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/cardstack/config"
	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/internal/enum"
	"github.com/customeros/cardstack/internal/models"
	"github.com/customeros/cardstack/internal/tracing"
)

const (
	relaySuccessMessage = "自身のメールアカウント経由で送信に成功しました！"
	defaultRelayTimeout = 30 * time.Second
)

// deliverFunc hands a finished message to an SMTP server.
type deliverFunc func(ctx context.Context, host string, port int, auth smtp.Auth, from string, to []string, message []byte) error

type RelayTransport struct {
	cfg     *config.MailConfig
	deliver deliverFunc
}

func NewRelayTransport(cfg *config.MailConfig) *RelayTransport {
	return &RelayTransport{cfg: cfg, deliver: sendWithImplicitTLS}
}

// Send logs in with the tenant's own address and app secret. Relays return no provider id,
// so the channel tag stands in for it.
func (t *RelayTransport) Send(ctx context.Context, profile *models.TenantProfile, message dto.OutboundMessage) (*dto.SendReceipt, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RelayTransport.Send")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagTenant(span, profile.Tenant)

	raw, err := buildRelayMessage(profile, message)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	timeout := t.cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRelayTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	auth := smtp.PlainAuth("", profile.EmailAddress, profile.RelaySecret, t.cfg.RelaySMTPHost)
	err = t.deliver(ctx, t.cfg.RelaySMTPHost, t.cfg.RelaySMTPPort, auth, profile.EmailAddress, []string{message.To}, raw)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return &dto.SendReceipt{
		MessageID: enum.TransportChannelRelay.String(),
		Channel:   enum.TransportChannelRelay,
		Message:   relaySuccessMessage,
	}, nil
}

func buildRelayMessage(profile *models.TenantProfile, message dto.OutboundMessage) ([]byte, error) {
	part, err := enmime.Builder().
		From(profile.DisplayName, profile.EmailAddress).
		To("", message.To).
		Subject(message.Subject).
		Text([]byte(message.Body)).
		Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build message")
	}

	var buffer bytes.Buffer
	if err := part.Encode(&buffer); err != nil {
		return nil, errors.Wrap(err, "failed to encode message")
	}
	return buffer.Bytes(), nil
}

func sendWithImplicitTLS(ctx context.Context, host string, port int, auth smtp.Auth, from string, to []string, message []byte) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RelayTransport.sendWithImplicitTLS")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	span.LogKV("address", addr)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultRelayTimeout)
	}

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Deadline: deadline},
		Config:    &tls.Config{ServerName: host},
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		err = fmt.Errorf("failed to connect to SMTP server: %w", err)
		tracing.TraceErr(span, err)
		return err
	}
	defer conn.Close()

	// bounds every SMTP exchange after the handshake; a silent server fails with a timeout
	if err = conn.SetDeadline(deadline); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		err = fmt.Errorf("failed to create SMTP client: %w", err)
		tracing.TraceErr(span, err)
		return err
	}
	defer client.Close()

	if err = client.Auth(auth); err != nil {
		err = fmt.Errorf("SMTP authentication failed: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	if err = client.Mail(from); err != nil {
		err = fmt.Errorf("SMTP MAIL command failed: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	for _, recipient := range to {
		if err = client.Rcpt(recipient); err != nil {
			err = fmt.Errorf("SMTP RCPT command failed for %s: %w", recipient, err)
			tracing.TraceErr(span, err)
			return err
		}
	}

	dataWriter, err := client.Data()
	if err != nil {
		err = fmt.Errorf("SMTP DATA command failed: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	if _, err = dataWriter.Write(message); err != nil {
		err = fmt.Errorf("failed to write email data: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	if err = dataWriter.Close(); err != nil {
		err = fmt.Errorf("failed to close data writer: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	return client.Quit()
}
