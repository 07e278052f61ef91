package models

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/customeros/cardstack/internal/enum"
	"github.com/customeros/cardstack/internal/utils"
)

const (
	// NoImageReference marks a contact that has no card photo on file.
	NoImageReference = "no-image.png"
	// UnknownNamePlaceholder is displayed for contacts whose name was never captured.
	UnknownNamePlaceholder = "氏名不明"
)

// Contact is keyed by (tenant, email). Email is stored normalised.
type Contact struct {
	ID             string             `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Tenant         string             `gorm:"column:tenant;type:varchar(255);not null;uniqueIndex:uq_contacts_tenant_email,priority:1" json:"tenant"`
	Email          string             `gorm:"column:email;type:varchar(320);not null;uniqueIndex:uq_contacts_tenant_email,priority:2" json:"email"`
	CompanyName    string             `gorm:"column:company_name;type:varchar(255)" json:"companyName"`
	DepartmentName string             `gorm:"column:department_name;type:varchar(255)" json:"departmentName"`
	JobTitle       string             `gorm:"column:job_title;type:varchar(255)" json:"jobTitle"`
	LastName       string             `gorm:"column:last_name;type:varchar(255)" json:"lastName"`
	FirstName      string             `gorm:"column:first_name;type:varchar(255)" json:"firstName"`
	PersonName     string             `gorm:"column:person_name;type:varchar(255)" json:"personName"`
	PhoneNumber    string             `gorm:"column:phone_number;type:varchar(100)" json:"phoneNumber"`
	URL            string             `gorm:"column:url;type:varchar(1000)" json:"url"`
	ImagePath      *string            `gorm:"column:image_path;type:varchar(1000)" json:"imagePath,omitempty"`
	Source         enum.ContactSource `gorm:"column:source;type:varchar(20)" json:"source"`
	CreatedAt      time.Time          `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (Contact) TableName() string {
	return "contacts"
}

func (m *Contact) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("cntc", 16)
	}
	return nil
}

// DisplayName falls back to the unknown-name placeholder; the placeholder is never persisted.
func (m *Contact) DisplayName() string {
	if name := strings.TrimSpace(m.PersonName); name != "" {
		return name
	}
	return UnknownNamePlaceholder
}

func (m *Contact) HasImage() bool {
	return m.ImagePath != nil && *m.ImagePath != "" && *m.ImagePath != NoImageReference
}
