package services

import (
	"github.com/pkg/errors"

	"github.com/customeros/cardstack/config"
	"github.com/customeros/cardstack/interfaces"
	"github.com/customeros/cardstack/internal/logger"
	"github.com/customeros/cardstack/internal/repository"
	"github.com/customeros/cardstack/services/ai"
	"github.com/customeros/cardstack/services/contacts"
	"github.com/customeros/cardstack/services/csvimport"
	"github.com/customeros/cardstack/services/events"
	"github.com/customeros/cardstack/services/outreach"
	"github.com/customeros/cardstack/services/quota"
	"github.com/customeros/cardstack/services/storage"
	"github.com/customeros/cardstack/services/transport"
	"github.com/customeros/cardstack/services/webinfo"
)

type Services struct {
	EventsService     *events.EventsService
	CompletionGateway interfaces.CompletionGateway
	StorageService    interfaces.StorageService
	Transport         interfaces.Transport
	MailMetrics       interfaces.MailMetricsProvider
	QuotaService      interfaces.QuotaService
	WebInfoService    interfaces.WebInfoService
	ImportService     interfaces.ImportService
	ContactService    interfaces.ContactService
	OutreachService   interfaces.OutreachService
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	// events
	publisherConfig := &events.PublisherConfig{
		MessageTTL:          events.DefaultMessageTTL,
		MaxRetries:          events.DefaultMaxRetries,
		PublishTimeout:      events.DefaultPublishTimeout,
		ReconnectBackoff:    events.DefaultReconnectBackoff,
		MaxReconnectBackoff: events.DefaultMaxReconnectBackoff,
	}
	eventsService, err := events.NewEventsService(cfg.AppConfig.RabbitMQURL, log, publisherConfig)
	if err != nil {
		return nil, err
	}

	// the completion backend is chosen once here and injected everywhere
	gateway, err := ai.NewCompletionGateway(cfg.AIConfig, log, nil)
	if err != nil {
		return nil, err
	}
	log.Infof("completion gateway: %s", gateway.Name())

	cardImages, err := storage.NewR2CardImageStorage(cfg.R2StorageConfig)
	if err != nil {
		return nil, errors.Wrap(err, "card image storage")
	}
	if cardImages == nil {
		log.Warn("R2 storage not configured, card images will not be kept")
	}

	hosted := transport.NewHostedTransport(cfg.MailConfig, nil)
	router := transport.NewRouter(transport.NewRelayTransport(cfg.MailConfig), hosted)

	quotaService := quota.NewQuotaService(log, repos.HistoryRepository, quota.LoadLocation(cfg.AppConfig.Timezone, log))

	webInfoService, err := webinfo.NewWebInfoService(log, cfg.OutreachConfig, nil)
	if err != nil {
		return nil, err
	}

	services := Services{
		EventsService:     eventsService,
		CompletionGateway: gateway,
		StorageService:    cardImages,
		Transport:         router,
		MailMetrics:       hosted,
		QuotaService:      quotaService,
		WebInfoService:    webInfoService,
		ImportService:     csvimport.NewImportService(log, cfg.ImportConfig, repos.ContactRepository, repos.ContactImportRepository, eventsService.Publisher),
		ContactService:    contacts.NewContactService(log, repos.ContactRepository, gateway, cardImages, eventsService.Publisher),
		OutreachService: outreach.NewOutreachService(log, cfg.OutreachConfig, outreach.OutreachServiceDeps{
			Contacts:  repos.ContactRepository,
			History:   repos.HistoryRepository,
			Profiles:  repos.TenantProfileRepository,
			Quota:     quotaService,
			Gateway:   gateway,
			Transport: router,
			WebInfo:   webInfoService,
			Events:    eventsService.Publisher,
		}),
	}

	return &services, nil
}
