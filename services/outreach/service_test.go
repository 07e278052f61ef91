package outreach

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/customeros/cardstack/config"
	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/internal/enum"
	cserr "github.com/customeros/cardstack/internal/errors"
	"github.com/customeros/cardstack/internal/logger"
	"github.com/customeros/cardstack/internal/models"
	"github.com/customeros/cardstack/internal/repository/inmemory"
	"github.com/customeros/cardstack/internal/utils"
	"github.com/customeros/cardstack/services/quota"
)

const tenant = "acme"

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Name() string { return "mock" }

func (m *mockGateway) Complete(ctx context.Context, request dto.CompletionRequest) (string, error) {
	args := m.Called(ctx, request)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) AnalyzeImage(ctx context.Context, image []byte, filename string) (*dto.ContactGuess, error) {
	args := m.Called(ctx, image, filename)
	return args.Get(0).(*dto.ContactGuess), args.Error(1)
}

type stubTransport struct {
	sent []dto.OutboundMessage
	fail map[string]error
}

func (t *stubTransport) Send(_ context.Context, _ *models.TenantProfile, message dto.OutboundMessage) (*dto.SendReceipt, error) {
	if err := t.fail[message.To]; err != nil {
		return nil, err
	}
	t.sent = append(t.sent, message)
	return &dto.SendReceipt{MessageID: "msg-" + message.To, Channel: enum.TransportChannelHostedAPI, Message: "Resend経由で送信に成功しました！"}, nil
}

type stubWebInfo struct{}

func (stubWebInfo) Summarize(_ context.Context, url string) string {
	if url == "" {
		return "ウェブサイト情報なし"
	}
	return "summary of " + url
}

type fixture struct {
	svc       *outreachService
	contacts  *inmemory.ContactRepository
	history   *inmemory.HistoryRepository
	gateway   *mockGateway
	transport *stubTransport
	pauses    int
}

func newFixture(t *testing.T, profile models.TenantProfile) *fixture {
	t.Helper()
	f := &fixture{
		contacts:  inmemory.NewContactRepository(),
		history:   inmemory.NewHistoryRepository(),
		gateway:   &mockGateway{},
		transport: &stubTransport{fail: map[string]error{}},
	}
	log := logger.NewNopLogger()
	f.svc = newOutreachService(log, &config.OutreachConfig{SendDelay: time.Second}, OutreachServiceDeps{
		Contacts:  f.contacts,
		History:   f.history,
		Profiles:  inmemory.NewTenantProfileRepository(profile),
		Quota:     quota.NewQuotaService(log, f.history, time.UTC),
		Gateway:   f.gateway,
		Transport: f.transport,
		WebInfo:   stubWebInfo{},
	})
	f.svc.pause = func(time.Duration) { f.pauses++ }
	return f
}

func senderProfile() models.TenantProfile {
	return models.TenantProfile{
		Tenant:          tenant,
		CompanyName:     "株式会社ウィーセールス",
		DisplayName:     "佐藤 花子",
		BusinessSummary: "法人向け営業支援",
		MonthlyLimit:    100,
	}
}

func promptFor(company string) interface{} {
	return mock.MatchedBy(func(request dto.CompletionRequest) bool {
		return request.WantJSON && strings.Contains(request.Prompt, "会社名: "+company)
	})
}

func TestDispatchBatch_IsolatesPerRecordFailure(t *testing.T) {
	f := newFixture(t, senderProfile())
	first := f.contacts.Add(models.Contact{Tenant: tenant, Email: "a@example.com", CompanyName: "A社"})
	second := f.contacts.Add(models.Contact{Tenant: tenant, Email: "b@example.com", CompanyName: "B社"})
	third := f.contacts.Add(models.Contact{Tenant: tenant, Email: "c@example.com", CompanyName: "C社"})

	f.gateway.On("Complete", mock.Anything, promptFor("A社")).Return(`{"subject":"御礼","body":"A社 様"}`, nil)
	f.gateway.On("Complete", mock.Anything, promptFor("B社")).Return(`{"subject":"御礼","body":""}`, nil)
	f.gateway.On("Complete", mock.Anything, promptFor("C社")).Return("```json\n{\"subject\":\"御礼\",\"body\":\"C様\"}\n```", nil)

	result, err := f.svc.DispatchBatch(context.Background(), tenant, []string{first.ID, second.ID, third.ID})
	require.NoError(t, err)

	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, 0, result.SkippedCount)
	require.Len(t, result.Outcomes, 3)
	assert.Equal(t, enum.DispatchRecorded, result.Outcomes[0].State)
	assert.Equal(t, enum.DispatchFailed, result.Outcomes[1].State)
	assert.Equal(t, second.ID, result.Outcomes[1].ContactID)
	assert.Equal(t, enum.DispatchRecorded, result.Outcomes[2].State)

	entries := f.history.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "a@example.com", entries[0].Email)
	assert.Equal(t, "c@example.com", entries[1].Email)
	assert.Equal(t, result.Outcomes[0].HistoryID, entries[0].ID)

	assert.Len(t, f.transport.sent, 2)
	assert.Equal(t, 1, f.pauses, "no pause after the last record")
	f.gateway.AssertExpectations(t)
}

func TestDispatchBatch_TracesEveryRecordState(t *testing.T) {
	tracer := mocktracer.New()
	previous := opentracing.GlobalTracer()
	opentracing.SetGlobalTracer(tracer)
	defer opentracing.SetGlobalTracer(previous)

	f := newFixture(t, senderProfile())
	contact := f.contacts.Add(models.Contact{Tenant: tenant, Email: "a@example.com", CompanyName: "A社"})
	f.gateway.On("Complete", mock.Anything, promptFor("A社")).Return(`{"subject":"御礼","body":"A社 様"}`, nil)

	_, err := f.svc.DispatchBatch(context.Background(), tenant, []string{contact.ID})
	require.NoError(t, err)

	var states []string
	for _, span := range tracer.FinishedSpans() {
		if span.OperationName != "OutreachService.dispatchRecord" {
			continue
		}
		for _, record := range span.Logs() {
			for _, field := range record.Fields {
				if field.Key == "state" {
					states = append(states, field.ValueString)
				}
			}
		}
	}
	assert.Equal(t, []string{
		enum.DispatchPending.String(),
		enum.DispatchGenerating.String(),
		enum.DispatchGenerated.String(),
		enum.DispatchSending.String(),
		enum.DispatchRecorded.String(),
	}, states)
}

func TestDispatchBatch_SkipsAndTransportFailures(t *testing.T) {
	f := newFixture(t, senderProfile())
	noEmail := f.contacts.Add(models.Contact{Tenant: tenant, Email: " "})
	foreign := f.contacts.Add(models.Contact{Tenant: "other", Email: "x@example.com"})
	bounced := f.contacts.Add(models.Contact{Tenant: tenant, Email: "bounce@example.com"})
	good := f.contacts.Add(models.Contact{Tenant: tenant, Email: "ok@example.com"})

	f.transport.fail["bounce@example.com"] = errors.New("550 mailbox unavailable")
	f.gateway.On("Complete", mock.Anything, mock.Anything).Return(`{"subject":"s","body":"b"}`, nil)

	result, err := f.svc.DispatchBatch(context.Background(), tenant, []string{noEmail.ID, foreign.ID, bounced.ID, good.ID})
	require.NoError(t, err)

	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, 2, result.SkippedCount)
	assert.Equal(t, enum.DispatchSkipped, result.Outcomes[0].State)
	assert.Equal(t, enum.DispatchSkipped, result.Outcomes[1].State)
	assert.Equal(t, enum.DispatchFailed, result.Outcomes[2].State)
	assert.Contains(t, result.Outcomes[2].Error, "550")
	assert.Len(t, f.history.All(), 1)
	assert.Equal(t, 0, f.pauses)
	f.gateway.AssertNumberOfCalls(t, "Complete", 2)
}

func TestDispatchBatch_GatewayErrorAndHistoryError(t *testing.T) {
	f := newFixture(t, senderProfile())
	contact := f.contacts.Add(models.Contact{Tenant: tenant, Email: "a@example.com"})
	f.gateway.On("Complete", mock.Anything, mock.Anything).Return("", cserr.ErrGenerationFailed).Once()
	f.gateway.On("Complete", mock.Anything, mock.Anything).Return(`{"subject":"s","body":"b"}`, nil)

	result, err := f.svc.DispatchBatch(context.Background(), tenant, []string{contact.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, result.FailedCount)
	assert.Empty(t, f.transport.sent)

	f.history.CreateErr = errors.New("connection reset")
	result, err = f.svc.DispatchBatch(context.Background(), tenant, []string{contact.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, 0, result.SuccessCount)
}

func TestDispatchBatch_Preconditions(t *testing.T) {
	f := newFixture(t, senderProfile())

	_, err := f.svc.DispatchBatch(context.Background(), tenant, nil)
	assert.ErrorIs(t, err, cserr.ErrEmptySelection)

	_, err = f.svc.DispatchBatch(context.Background(), "unknown", []string{"x"})
	assert.ErrorIs(t, err, cserr.ErrProfileNotFound)
}

func TestDispatchBatch_OverQuotaIsAdvisory(t *testing.T) {
	profile := senderProfile()
	profile.MonthlyLimit = 1
	f := newFixture(t, profile)
	require.NoError(t, f.history.Create(context.Background(), &models.History{Tenant: tenant, SentAt: utils.Now()}))

	contact := f.contacts.Add(models.Contact{Tenant: tenant, Email: "a@example.com"})
	f.gateway.On("Complete", mock.Anything, mock.Anything).Return(`{"subject":"s","body":"b"}`, nil)

	result, err := f.svc.DispatchBatch(context.Background(), tenant, []string{contact.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
}

func TestSend_RecordsHistoryWithDefaults(t *testing.T) {
	f := newFixture(t, senderProfile())

	receipt, err := f.svc.Send(context.Background(), tenant, dto.SendRequest{To: "a@example.com", Body: "本文"})
	require.NoError(t, err)
	assert.Equal(t, "msg-a@example.com", receipt.MessageID)
	assert.NotEmpty(t, receipt.HistoryID)
	assert.Equal(t, "Resend経由で送信に成功しました！ 履歴に保存しました。", receipt.Message)

	entries := f.history.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "氏名不明", entries[0].CustomerName)
	assert.Equal(t, "会社名不明", entries[0].CompanyName)
	assert.Equal(t, "件名なし", entries[0].MailSubject)
	assert.Nil(t, entries[0].ContactID)
}

func TestSend_QuotaIsHardPrecondition(t *testing.T) {
	profile := senderProfile()
	profile.MonthlyLimit = 2
	f := newFixture(t, profile)
	for i := 0; i < 2; i++ {
		require.NoError(t, f.history.Create(context.Background(), &models.History{Tenant: tenant, SentAt: utils.Now()}))
	}

	_, err := f.svc.Send(context.Background(), tenant, dto.SendRequest{To: "a@example.com", Body: "b"})
	assert.ErrorIs(t, err, cserr.ErrQuotaExceeded)
	assert.Empty(t, f.transport.sent)
}

func TestSend_TransportFailureIsFatal(t *testing.T) {
	f := newFixture(t, senderProfile())
	cause := errors.New("dial tcp: timeout")
	f.transport.fail["a@example.com"] = cause

	_, err := f.svc.Send(context.Background(), tenant, dto.SendRequest{To: "a@example.com", Body: "b"})
	assert.ErrorIs(t, err, cserr.ErrTransportFailed)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, f.history.All())
}

func TestGenerateInitialEmail(t *testing.T) {
	f := newFixture(t, senderProfile())
	contact := f.contacts.Add(models.Contact{Tenant: tenant, Email: "a@example.com", CompanyName: "A社", URL: "a.example.com"})

	f.gateway.On("Complete", mock.Anything, mock.MatchedBy(func(request dto.CompletionRequest) bool {
		return strings.Contains(request.Prompt, "株式会社ウィーセールス") &&
			strings.Contains(request.Prompt, "氏名: 担当者") &&
			strings.Contains(request.Prompt, "summary of a.example.com")
	})).Return(`"{\"subject\":\"御礼\",\"body\":\"本文\"}"`, nil)

	message, err := f.svc.GenerateInitialEmail(context.Background(), tenant, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "御礼", message.Subject)
	assert.Equal(t, "本文", message.Body)

	_, err = f.svc.GenerateInitialEmail(context.Background(), tenant, "missing")
	assert.ErrorIs(t, err, cserr.ErrContactNotFound)
}

func TestRewriteEmail_EnglishInstruction(t *testing.T) {
	f := newFixture(t, senderProfile())
	f.gateway.On("Complete", mock.Anything, mock.MatchedBy(func(request dto.CompletionRequest) bool {
		return request.SystemInstruction == rewriteSystemInstruction &&
			strings.Contains(request.Prompt, englishDirective) &&
			strings.Contains(request.Prompt, "氏名: 担当者 様")
	})).Return(`{"subject":"Thank you","body":"Dear"}`, nil)

	message, err := f.svc.RewriteEmail(context.Background(), tenant, dto.RewriteRequest{
		Instruction: "Please write in English",
		CurrentBody: "本文",
	})
	require.NoError(t, err)
	assert.Equal(t, "Thank you", message.Subject)
}

func TestParseGeneratedMessage(t *testing.T) {
	_, err := parseGeneratedMessage("not json")
	assert.Error(t, err)

	_, err = parseGeneratedMessage(`{"subject":" ","body":"b"}`)
	assert.Error(t, err)

	message, err := parseGeneratedMessage(`{"subject":"s","body":"b"}`)
	require.NoError(t, err)
	assert.Equal(t, "s", message.Subject)
}

func TestIsEnglishInstruction(t *testing.T) {
	assert.True(t, isEnglishInstruction("英語で"))
	assert.True(t, isEnglishInstruction("ENGLISH please"))
	assert.False(t, isEnglishInstruction("丁寧に"))
}
