package repository

import (
	"context"
	"errors"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/customeros/cardstack/interfaces"
	"github.com/customeros/cardstack/internal/models"
	"github.com/customeros/cardstack/internal/tracing"
	"github.com/customeros/cardstack/internal/utils"
)

type tenantProfileRepository struct {
	db *gorm.DB
}

func NewTenantProfileRepository(db *gorm.DB) interfaces.TenantProfileRepository {
	return &tenantProfileRepository{db: db}
}

func (r *tenantProfileRepository) GetByTenant(ctx context.Context, tenant string) (*models.TenantProfile, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TenantProfileRepository.GetByTenant")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if tenant == "" {
		return nil, ErrInvalidInput
	}

	var profile models.TenantProfile
	err := r.db.WithContext(ctx).Where("tenant = ?", tenant).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}

	return &profile, nil
}

// Save inserts or fully replaces the tenant's profile.
func (r *tenantProfileRepository) Save(ctx context.Context, profile *models.TenantProfile) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TenantProfileRepository.Save")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if profile == nil || profile.Tenant == "" {
		return ErrInvalidInput
	}

	profile.UpdatedAt = utils.Now()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant"}},
		UpdateAll: true,
	}).Create(profile).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

func (r *tenantProfileRepository) List(ctx context.Context) ([]models.TenantProfile, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TenantProfileRepository.List")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	var profiles []models.TenantProfile
	if err := r.db.WithContext(ctx).Order("tenant ASC").Find(&profiles).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return profiles, nil
}
