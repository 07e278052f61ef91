package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/customeros/cardstack/interfaces"
	"github.com/customeros/cardstack/internal/models"
	"github.com/customeros/cardstack/internal/tracing"
)

type contactImportRepository struct {
	db *gorm.DB
}

func NewContactImportRepository(db *gorm.DB) interfaces.ContactImportRepository {
	return &contactImportRepository{db: db}
}

func (r *contactImportRepository) Create(ctx context.Context, contactImport *models.ContactImport) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ContactImportRepository.Create")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if contactImport == nil || contactImport.Tenant == "" {
		return ErrInvalidInput
	}

	if err := r.db.WithContext(ctx).Create(contactImport).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

func (r *contactImportRepository) ListByTenant(ctx context.Context, tenant string, limit int) ([]models.ContactImport, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ContactImportRepository.ListByTenant")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if tenant == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = 20
	}

	var imports []models.ContactImport
	err := r.db.WithContext(ctx).
		Where("tenant = ?", tenant).
		Order("created_at DESC").
		Limit(limit).
		Find(&imports).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return imports, nil
}
