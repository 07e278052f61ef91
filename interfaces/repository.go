package interfaces

import (
	"context"
	"time"

	"github.com/customeros/cardstack/internal/models"
)

// ContactMergeFunc receives the locked existing row (nil when absent) and returns the row to persist.
type ContactMergeFunc func(existing *models.Contact) *models.Contact

type ContactRepository interface {
	GetByID(ctx context.Context, tenant, id string) (*models.Contact, error)
	GetByEmail(ctx context.Context, tenant, email string) (*models.Contact, error)
	List(ctx context.Context, tenant string, limit, offset int) ([]models.Contact, int64, error)
	// Upsert runs merge inside one transaction holding a row lock on (tenant, email).
	Upsert(ctx context.Context, tenant, email string, merge ContactMergeFunc) (contact *models.Contact, created bool, err error)
	Update(ctx context.Context, contact *models.Contact) error
	Delete(ctx context.Context, tenant, id string) error
	DeleteMany(ctx context.Context, tenant string, ids []string) (int64, error)
}

type HistoryRepository interface {
	Create(ctx context.Context, entry *models.History) error
	CountSince(ctx context.Context, tenant string, since time.Time) (int64, error)
	List(ctx context.Context, tenant string, limit, offset int) ([]models.History, int64, error)
	DeleteMany(ctx context.Context, tenant string, ids []string) (int64, error)
}

type TenantProfileRepository interface {
	GetByTenant(ctx context.Context, tenant string) (*models.TenantProfile, error)
	Save(ctx context.Context, profile *models.TenantProfile) error
	List(ctx context.Context) ([]models.TenantProfile, error)
}

type ContactImportRepository interface {
	Create(ctx context.Context, contactImport *models.ContactImport) error
	ListByTenant(ctx context.Context, tenant string, limit int) ([]models.ContactImport, error)
}
