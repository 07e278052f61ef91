package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/customeros/cardstack/internal/enum"
	"github.com/customeros/cardstack/internal/utils"
)

// ContactImport is the audit row for one processed upload.
type ContactImport struct {
	ID            string            `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Tenant        string            `gorm:"column:tenant;type:varchar(255);not null;index" json:"tenant"`
	FileName      string            `gorm:"column:file_name;type:varchar(500)" json:"fileName"`
	Encoding      string            `gorm:"column:encoding;type:varchar(20)" json:"encoding"`
	Schema        enum.ImportSchema `gorm:"column:schema;type:varchar(30)" json:"schema"`
	SchemaWarning bool              `gorm:"column:schema_warning;default:false" json:"schemaWarning"`
	Created       int               `gorm:"column:created;default:0" json:"created"`
	Updated       int               `gorm:"column:updated;default:0" json:"updated"`
	Skipped       int               `gorm:"column:skipped;default:0" json:"skipped"`
	SkippedRows   pq.Int64Array     `gorm:"column:skipped_rows;type:integer[]" json:"skippedRows"`
	Details       JSONMap           `gorm:"column:details;type:jsonb" json:"details,omitempty"`
	CreatedAt     time.Time         `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
}

func (ContactImport) TableName() string {
	return "contact_imports"
}

func (m *ContactImport) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("imp", 16)
	}
	return nil
}
