package contacts

import (
	"context"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/interfaces"
	"github.com/customeros/cardstack/internal/enum"
	cserr "github.com/customeros/cardstack/internal/errors"
	"github.com/customeros/cardstack/internal/logger"
	"github.com/customeros/cardstack/internal/models"
	"github.com/customeros/cardstack/internal/tracing"
	"github.com/customeros/cardstack/internal/utils"
	"github.com/customeros/cardstack/services/csvimport"
	"github.com/customeros/cardstack/services/events"
	"github.com/customeros/cardstack/services/storage"
)

type contactService struct {
	log      logger.Logger
	contacts interfaces.ContactRepository
	gateway  interfaces.CompletionGateway
	// images is nil when no object storage is configured.
	images interfaces.StorageService
	events interfaces.EventPublisher
}

func NewContactService(log logger.Logger, contacts interfaces.ContactRepository, gateway interfaces.CompletionGateway, images interfaces.StorageService, publisher interfaces.EventPublisher) interfaces.ContactService {
	return &contactService{
		log:      log,
		contacts: contacts,
		gateway:  gateway,
		images:   images,
		events:   publisher,
	}
}

func (s *contactService) Get(ctx context.Context, tenant, id string) (*models.Contact, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ContactService.Get")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)

	contact, err := s.contacts.GetByID(ctx, tenant, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if contact == nil {
		return nil, cserr.ErrContactNotFound
	}
	return contact, nil
}

func (s *contactService) List(ctx context.Context, tenant string, limit, offset int) ([]models.Contact, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ContactService.List")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	return s.contacts.List(ctx, tenant, limit, offset)
}

// UploadCard reads a business card photo and merges the recognised fields into the contact store.
func (s *contactService) UploadCard(ctx context.Context, tenant, fileName string, image []byte) (*models.Contact, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ContactService.UploadCard")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagTenant(span, tenant)
	span.LogKV("fileName", fileName, "size", len(image))

	if tenant == "" {
		return nil, cserr.ErrTenantMissing
	}

	guess, err := s.gateway.AnalyzeImage(ctx, image, fileName)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	tracing.LogObjectAsJson(span, "guess", guess)

	email := utils.NormalizeEmail(guess.Email)
	if email == "" {
		return nil, errors.Wrapf(cserr.ErrContactEmailMissing, "card %s", fileName)
	}
	if !utils.IsValidEmail(email) {
		return nil, errors.Wrapf(cserr.ErrContactEmailMissing, "card %s: unreadable address %q", fileName, email)
	}

	imagePath := s.storeImage(ctx, tenant, fileName, image)

	draft := draftFromGuess(email, guess)
	contact, created, err := s.contacts.Upsert(ctx, tenant, email, func(existing *models.Contact) *models.Contact {
		merged := csvimport.Merge(existing, draft)
		if existing == nil {
			merged.Source = enum.ContactSourceCard
		}
		if imagePath != "" {
			merged.ImagePath = utils.StringPtr(imagePath)
		}
		return merged
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "store card contact")
	}

	s.log.Infof("card %s for tenant %s stored as %s (created=%t)", fileName, tenant, contact.ID, created)
	if s.events != nil {
		if err = s.events.PublishFanoutEvent(events.WithTenant(ctx, tenant), contact.ID, enum.CONTACT, contact); err != nil {
			s.log.Warnf("failed to publish contact event for tenant %s: %v", tenant, err)
		}
	}
	return contact, nil
}

// storeImage returns the object key, or empty when the image was not kept.
func (s *contactService) storeImage(ctx context.Context, tenant, fileName string, image []byte) string {
	if s.images == nil {
		return ""
	}
	contentType := utils.GetContentTypeFromFileName(fileName)
	key := storage.CardImageKey(tenant, contentType)
	if err := s.images.Upload(ctx, key, image, contentType); err != nil {
		s.log.Warnf("card image %s for tenant %s not stored: %v", fileName, tenant, err)
		return ""
	}
	return key
}

func draftFromGuess(email string, guess *dto.ContactGuess) *csvimport.ContactDraft {
	draft := &csvimport.ContactDraft{
		Email:          email,
		CompanyName:    utils.StringPtrNonEmpty(guess.Company),
		DepartmentName: utils.StringPtrNonEmpty(guess.Department),
		JobTitle:       utils.StringPtrNonEmpty(guess.Title),
		PhoneNumber:    utils.StringPtrNonEmpty(guess.Phone),
	}
	if url := utils.NormalizeURL(guess.URL); !utils.IsBlank(url) {
		draft.URL = &url
	}
	if name := strings.TrimSpace(guess.Name); !utils.IsBlank(name) {
		draft.Name = csvimport.PersonName{State: csvimport.NamePresent, Value: name}
	} else {
		draft.Name = csvimport.PersonName{State: csvimport.NameUnknown}
	}
	return draft
}

// Update applies a manual edit. Nil fields are untouched; the email may not be cleared.
func (s *contactService) Update(ctx context.Context, tenant, id string, request dto.ContactUpdateRequest) (*models.Contact, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ContactService.Update")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagTenant(span, tenant)
	tracing.TagEntity(span, id)

	contact, err := s.Get(ctx, tenant, id)
	if err != nil {
		return nil, err
	}

	if request.Email != nil {
		email := utils.NormalizeEmail(*request.Email)
		if email == "" {
			return nil, cserr.ErrContactEmailMissing
		}
		if !utils.IsValidEmail(email) {
			return nil, errors.Wrapf(cserr.ErrContactEmailMissing, "invalid address %q", email)
		}
		contact.Email = email
	}
	assign(&contact.CompanyName, request.CompanyName)
	assign(&contact.DepartmentName, request.DepartmentName)
	assign(&contact.JobTitle, request.JobTitle)
	assign(&contact.PersonName, request.PersonName)
	assign(&contact.PhoneNumber, request.PhoneNumber)
	if request.URL != nil {
		contact.URL = utils.NormalizeURL(*request.URL)
	}

	if err = s.contacts.Update(ctx, contact); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return contact, nil
}

func assign(target *string, value *string) {
	if value != nil {
		*target = strings.TrimSpace(*value)
	}
}

func (s *contactService) Delete(ctx context.Context, tenant, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ContactService.Delete")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagTenant(span, tenant)
	tracing.TagEntity(span, id)

	contact, err := s.Get(ctx, tenant, id)
	if err != nil {
		return err
	}
	if err = s.contacts.Delete(ctx, tenant, id); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if contact.HasImage() && s.images != nil {
		if err = s.images.Delete(ctx, *contact.ImagePath); err != nil {
			s.log.Warnf("card image %s left behind: %v", *contact.ImagePath, err)
		}
	}
	return nil
}

func (s *contactService) DeleteMany(ctx context.Context, tenant string, ids []string) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ContactService.DeleteMany")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagTenant(span, tenant)

	ids = utils.UniqueStrings(ids)
	if len(ids) == 0 {
		return 0, cserr.ErrEmptySelection
	}
	deleted, err := s.contacts.DeleteMany(ctx, tenant, ids)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}
	s.log.Infof("deleted %d contacts for tenant %s", deleted, tenant)
	return deleted, nil
}
