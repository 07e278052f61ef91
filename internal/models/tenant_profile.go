package models

import (
	"strings"
	"time"

	"github.com/customeros/cardstack/internal/enum"
)

const DefaultMonthlyLimit = 100

// TenantProfile describes the sender on whose behalf outreach is generated and delivered.
type TenantProfile struct {
	Tenant          string             `gorm:"column:tenant;type:varchar(255);primaryKey" json:"tenant"`
	CompanyName     string             `gorm:"column:company_name;type:varchar(255)" json:"companyName"`
	DisplayName     string             `gorm:"column:display_name;type:varchar(255)" json:"displayName"`
	JobTitle        string             `gorm:"column:job_title;type:varchar(255)" json:"jobTitle"`
	PhoneNumber     string             `gorm:"column:phone_number;type:varchar(100)" json:"phoneNumber"`
	EmailAddress    string             `gorm:"column:email_address;type:varchar(320)" json:"emailAddress"`
	CompanyURL      string             `gorm:"column:company_url;type:varchar(1000)" json:"companyUrl"`
	BusinessSummary string             `gorm:"column:business_summary;type:text" json:"businessSummary"`
	EmailProvider   enum.EmailProvider `gorm:"column:email_provider;type:varchar(20);default:'hosted-api'" json:"emailProvider"`
	// RelaySecret is the app-scoped SMTP password used with EmailAddress as the relay login.
	RelaySecret  string    `gorm:"column:relay_secret;type:varchar(255)" json:"-"`
	MonthlyLimit int       `gorm:"column:monthly_limit;default:100" json:"monthlyLimit"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (TenantProfile) TableName() string {
	return "tenant_profiles"
}

// Ceiling returns the monthly send limit, defaulting non-positive values.
func (m *TenantProfile) Ceiling() int {
	if m == nil || m.MonthlyLimit <= 0 {
		return DefaultMonthlyLimit
	}
	return m.MonthlyLimit
}

// RelayConfigured reports whether the tenant prefers and can use the SMTP relay.
func (m *TenantProfile) RelayConfigured() bool {
	return m != nil &&
		m.EmailProvider == enum.EmailProviderRelay &&
		strings.TrimSpace(m.EmailAddress) != "" &&
		strings.TrimSpace(m.RelaySecret) != ""
}
