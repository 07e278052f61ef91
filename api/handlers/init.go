package handlers

import (
	"github.com/customeros/cardstack/config"
	"github.com/customeros/cardstack/internal/repository"
	"github.com/customeros/cardstack/services"
)

type APIHandlers struct {
	Contacts *ContactsHandler
	Imports  *ImportsHandler
	Outreach *OutreachHandler
	History  *HistoryHandler
}

// InitHandlers applies the import size ceiling to card photos as well.
func InitHandlers(cfg *config.ImportConfig, s *services.Services, r *repository.Repositories) *APIHandlers {
	return &APIHandlers{
		Contacts: NewContactsHandler(s.ContactService, cfg.MaxFileSize),
		Imports:  NewImportsHandler(s.ImportService, r.ContactImportRepository, cfg.MaxFileSize),
		Outreach: NewOutreachHandler(s.OutreachService, s.QuotaService, r.TenantProfileRepository, s.MailMetrics),
		History:  NewHistoryHandler(r.HistoryRepository),
	}
}
