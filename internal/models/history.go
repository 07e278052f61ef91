package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/customeros/cardstack/internal/enum"
	"github.com/customeros/cardstack/internal/utils"
)

// History is written once per delivered message and is the source of truth for quota usage.
type History struct {
	ID                string                `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Tenant            string                `gorm:"column:tenant;type:varchar(255);not null;index:idx_history_tenant_sent_at,priority:1" json:"tenant"`
	ContactID         *string               `gorm:"column:contact_id;type:varchar(50)" json:"contactId,omitempty"`
	CustomerName      string                `gorm:"column:customer_name;type:varchar(255)" json:"customerName"`
	CompanyName       string                `gorm:"column:company_name;type:varchar(255)" json:"companyName"`
	Email             string                `gorm:"column:email;type:varchar(320)" json:"email"`
	MailSubject       string                `gorm:"column:mail_subject;type:varchar(1000)" json:"mailSubject"`
	MailBody          string                `gorm:"column:mail_body;type:text" json:"mailBody"`
	Channel           enum.TransportChannel `gorm:"column:channel;type:varchar(20)" json:"channel"`
	ProviderMessageID string                `gorm:"column:provider_message_id;type:varchar(255)" json:"providerMessageId"`
	SentAt            time.Time             `gorm:"column:sent_at;type:timestamp;not null;default:current_timestamp;index:idx_history_tenant_sent_at,priority:2" json:"sentAt"`
}

func (History) TableName() string {
	return "history"
}

func (m *History) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("hist", 16)
	}
	if m.SentAt.IsZero() {
		m.SentAt = utils.Now()
	}
	return nil
}
