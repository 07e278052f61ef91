package outreach

import (
	"context"
	"fmt"
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
	"github.com/customeros/cardstack/internal/models"
	"github.com/customeros/cardstack/internal/tracing"
	"github.com/customeros/cardstack/internal/utils"
	"github.com/customeros/cardstack/services/ai"
	"github.com/customeros/cardstack/services/events"
)

const (
	defaultHistoryCustomerName = "氏名不明"
	defaultHistoryCompanyName  = "会社名不明"
	defaultHistorySubject      = "件名なし"
)

type OutreachServiceDeps struct {
	Contacts  interfaces.ContactRepository
	History   interfaces.HistoryRepository
	Profiles  interfaces.TenantProfileRepository
	Quota     interfaces.QuotaService
	Gateway   interfaces.CompletionGateway
	Transport interfaces.Transport
	WebInfo   interfaces.WebInfoService
	Events    interfaces.EventPublisher
}

type outreachService struct {
	log logger.Logger
	cfg *config.OutreachConfig
	OutreachServiceDeps
	// pause runs after each recorded send that is followed by another record.
	pause func(time.Duration)
}

func NewOutreachService(log logger.Logger, cfg *config.OutreachConfig, deps OutreachServiceDeps) interfaces.OutreachService {
	return newOutreachService(log, cfg, deps)
}

func newOutreachService(log logger.Logger, cfg *config.OutreachConfig, deps OutreachServiceDeps) *outreachService {
	if cfg == nil {
		cfg = &config.OutreachConfig{SendDelay: time.Second}
	}
	return &outreachService{
		log:                 log,
		cfg:                 cfg,
		OutreachServiceDeps: deps,
		pause:               time.Sleep,
	}
}

func (s *outreachService) profile(ctx context.Context, tenant string) (*models.TenantProfile, error) {
	if tenant == "" {
		return nil, cserr.ErrTenantMissing
	}
	profile, err := s.Profiles.GetByTenant(ctx, tenant)
	if err != nil {
		return nil, errors.Wrap(err, "load tenant profile")
	}
	if profile == nil {
		return nil, cserr.ErrProfileNotFound
	}
	return profile, nil
}

// DispatchBatch generates and sends one message per contact, in order. Per-record failures
// are reported in the outcomes and never abort the batch.
func (s *outreachService) DispatchBatch(ctx context.Context, tenant string, contactIDs []string) (*dto.DispatchResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OutreachService.DispatchBatch")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagTenant(span, tenant)
	span.LogKV("records", len(contactIDs))

	if len(contactIDs) == 0 {
		return nil, cserr.ErrEmptySelection
	}
	profile, err := s.profile(ctx, tenant)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	admitted, err := s.Quota.Admit(ctx, profile, len(contactIDs))
	switch {
	case err != nil:
		s.log.Warnf("batch quota check for tenant %s failed: %v", tenant, err)
	case !admitted:
		s.log.Warnf("batch of %d for tenant %s exceeds the monthly limit %d, dispatching anyway", len(contactIDs), tenant, profile.Ceiling())
	}

	sender := newSenderContext(profile)
	result := &dto.DispatchResult{Outcomes: make([]dto.RecordOutcome, 0, len(contactIDs))}
	for i, contactID := range contactIDs {
		outcome := s.dispatchRecord(ctx, profile, sender, contactID)
		result.Outcomes = append(result.Outcomes, outcome)
		metrics.IncDispatchRecord(outcome.State.String())

		switch outcome.State {
		case enum.DispatchRecorded:
			result.SuccessCount++
			if i < len(contactIDs)-1 && s.cfg.SendDelay > 0 {
				s.pause(s.cfg.SendDelay)
			}
		case enum.DispatchSkipped:
			result.SkippedCount++
		default:
			result.FailedCount++
		}
	}

	result.Message = fmt.Sprintf("%d件送信しました（失敗: %d件、スキップ: %d件）", result.SuccessCount, result.FailedCount, result.SkippedCount)
	tracing.LogObjectAsJson(span, "result", result)
	s.log.Infof("dispatch for tenant %s: success=%d failed=%d skipped=%d", tenant, result.SuccessCount, result.FailedCount, result.SkippedCount)

	if s.Events != nil {
		err = s.Events.PublishFanoutEvent(events.WithTenant(ctx, tenant), utils.GenerateNanoIDWithPrefix("batch", 16), enum.OUTREACH_BATCH, dto.OutreachDispatched{
			Requested: len(contactIDs),
			Success:   result.SuccessCount,
			Failed:    result.FailedCount,
			Skipped:   result.SkippedCount,
		})
		if err != nil {
			s.log.Warnf("failed to publish dispatch event for tenant %s: %v", tenant, err)
		}
	}

	return result, nil
}

// dispatchRecord walks one contact from Pending to a terminal state.
func (s *outreachService) dispatchRecord(ctx context.Context, profile *models.TenantProfile, sender senderContext, contactID string) dto.RecordOutcome {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OutreachService.dispatchRecord")
	defer span.Finish()
	tracing.TagEntity(span, contactID)

	outcome := dto.RecordOutcome{ContactID: contactID}
	advance := func(state enum.DispatchState) {
		outcome.State = state
		span.LogKV("state", state.String())
	}
	fail := func(state enum.DispatchState, err error) dto.RecordOutcome {
		advance(state)
		outcome.Error = err.Error()
		tracing.TraceErr(span, err)
		return outcome
	}
	advance(enum.DispatchPending)

	contact, err := s.Contacts.GetByID(ctx, profile.Tenant, contactID)
	if err != nil {
		s.log.Errorf("dispatch %s: load contact: %v", contactID, err)
		return fail(enum.DispatchFailed, err)
	}
	if contact == nil {
		return fail(enum.DispatchSkipped, cserr.ErrContactNotFound)
	}
	if utils.IsBlank(contact.Email) {
		return fail(enum.DispatchSkipped, cserr.ErrContactEmailMissing)
	}

	advance(enum.DispatchGenerating)
	message, err := s.generate(ctx, initialEmailPrompt(sender, contact, s.WebInfo.Summarize(ctx, contact.URL)), ai.DefaultSystemInstruction)
	if err != nil {
		s.log.Warnf("dispatch %s: generation failed: %v", contactID, err)
		return fail(enum.DispatchFailed, err)
	}
	advance(enum.DispatchGenerated)

	advance(enum.DispatchSending)
	receipt, err := s.Transport.Send(ctx, profile, dto.OutboundMessage{
		To:      contact.Email,
		Subject: message.Subject,
		Body:    message.Body,
	})
	if err != nil {
		s.log.Warnf("dispatch %s: send to %s failed: %v", contactID, contact.Email, err)
		return fail(enum.DispatchFailed, err)
	}

	entry := &models.History{
		Tenant:            profile.Tenant,
		ContactID:         utils.StringPtr(contact.ID),
		CustomerName:      contact.DisplayName(),
		CompanyName:       orDefault(contact.CompanyName, defaultHistoryCompanyName),
		Email:             contact.Email,
		MailSubject:       message.Subject,
		MailBody:          message.Body,
		Channel:           receipt.Channel,
		ProviderMessageID: receipt.MessageID,
	}
	if err = s.History.Create(ctx, entry); err != nil {
		s.log.Errorf("dispatch %s: message %s delivered but history not recorded: %v", contactID, receipt.MessageID, err)
		return fail(enum.DispatchFailed, err)
	}

	s.publishSent(ctx, profile.Tenant, entry)
	advance(enum.DispatchRecorded)
	outcome.HistoryID = entry.ID
	return outcome
}

func (s *outreachService) generate(ctx context.Context, prompt, systemInstruction string) (*dto.GeneratedMessage, error) {
	text, err := s.Gateway.Complete(ctx, dto.CompletionRequest{
		Prompt:            prompt,
		SystemInstruction: systemInstruction,
		WantJSON:          true,
	})
	if err != nil {
		return nil, err
	}
	message, err := parseGeneratedMessage(text)
	if err != nil {
		return nil, errors.Wrapf(cserr.ErrGenerationFailed, "%v", err)
	}
	return message, nil
}

// Send delivers one already-written message. The monthly quota is enforced before delivery.
func (s *outreachService) Send(ctx context.Context, tenant string, request dto.SendRequest) (*dto.SendReceipt, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OutreachService.Send")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagTenant(span, tenant)

	profile, err := s.profile(ctx, tenant)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if err = s.Quota.Check(ctx, profile, 1); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	receipt, err := s.Transport.Send(ctx, profile, dto.OutboundMessage{
		To:      request.To,
		Subject: request.Subject,
		Body:    request.Body,
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("%w: %w", cserr.ErrTransportFailed, err)
	}

	entry := &models.History{
		Tenant:            tenant,
		ContactID:         utils.StringPtrNonEmpty(request.ContactID),
		CustomerName:      orDefault(request.CustomerName, defaultHistoryCustomerName),
		CompanyName:       orDefault(request.CompanyName, defaultHistoryCompanyName),
		Email:             request.To,
		MailSubject:       orDefault(request.Subject, defaultHistorySubject),
		MailBody:          request.Body,
		Channel:           receipt.Channel,
		ProviderMessageID: receipt.MessageID,
	}
	if err = s.History.Create(ctx, entry); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "message %s delivered but history not recorded", receipt.MessageID)
	}
	s.publishSent(ctx, tenant, entry)

	receipt.HistoryID = entry.ID
	receipt.Message = receipt.Message + " 履歴に保存しました。"
	return receipt, nil
}

func (s *outreachService) publishSent(ctx context.Context, tenant string, entry *models.History) {
	if s.Events == nil {
		return
	}
	err := s.Events.PublishFanoutEvent(events.WithTenant(ctx, tenant), entry.ID, enum.HISTORY, dto.EmailSent{
		ContactID: utils.GetOrDefault(entry.ContactID, ""),
		To:        entry.Email,
		Channel:   entry.Channel,
		MessageID: entry.ProviderMessageID,
	})
	if err != nil {
		s.log.Warnf("failed to publish sent event for tenant %s: %v", tenant, err)
	}
}

// GenerateInitialEmail drafts a thank-you message for a contact using the sender profile and the recipient's website.
func (s *outreachService) GenerateInitialEmail(ctx context.Context, tenant, contactID string) (*dto.GeneratedMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OutreachService.GenerateInitialEmail")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagTenant(span, tenant)
	tracing.TagEntity(span, contactID)

	profile, err := s.profile(ctx, tenant)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	contact, err := s.Contacts.GetByID(ctx, tenant, contactID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "load contact")
	}
	if contact == nil {
		return nil, cserr.ErrContactNotFound
	}

	prompt := initialEmailPrompt(newSenderContext(profile), contact, s.WebInfo.Summarize(ctx, contact.URL))
	message, err := s.generate(ctx, prompt, ai.DefaultSystemInstruction)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return message, nil
}

func (s *outreachService) RewriteEmail(ctx context.Context, tenant string, request dto.RewriteRequest) (*dto.GeneratedMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OutreachService.RewriteEmail")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagTenant(span, tenant)
	span.LogKV("english", isEnglishInstruction(request.Instruction))

	profile, err := s.profile(ctx, tenant)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	message, err := s.generate(ctx, rewriteEmailPrompt(newSenderContext(profile), request), rewriteSystemInstruction)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return message, nil
}
