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

type contactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) interfaces.ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) GetByID(ctx context.Context, tenant, id string) (*models.Contact, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ContactRepository.GetByID")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagEntity(span, id)

	if tenant == "" || id == "" {
		return nil, ErrInvalidInput
	}

	var contact models.Contact
	err := r.db.WithContext(ctx).
		Where("tenant = ? AND id = ?", tenant, id).
		First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}

	return &contact, nil
}

func (r *contactRepository) GetByEmail(ctx context.Context, tenant, email string) (*models.Contact, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ContactRepository.GetByEmail")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if tenant == "" || email == "" {
		return nil, ErrInvalidInput
	}

	var contact models.Contact
	err := r.db.WithContext(ctx).
		Where("tenant = ? AND email = ?", tenant, email).
		First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}

	return &contact, nil
}

func (r *contactRepository) List(ctx context.Context, tenant string, limit, offset int) ([]models.Contact, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ContactRepository.List")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if tenant == "" {
		return nil, 0, ErrInvalidInput
	}

	var totalCount int64
	if err := r.db.WithContext(ctx).Model(&models.Contact{}).
		Where("tenant = ?", tenant).
		Count(&totalCount).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}

	var contacts []models.Contact
	err := r.db.WithContext(ctx).
		Where("tenant = ?", tenant).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&contacts).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	return contacts, totalCount, nil
}

func (r *contactRepository) Upsert(ctx context.Context, tenant, email string, merge interfaces.ContactMergeFunc) (*models.Contact, bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ContactRepository.Upsert")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.LogKV("email", email)

	if tenant == "" || email == "" || merge == nil {
		return nil, false, ErrInvalidInput
	}

	var (
		result  *models.Contact
		created bool
	)
	upsert := func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var existing models.Contact
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("tenant = ? AND email = ?", tenant, email).
				First(&existing).Error

			var current *models.Contact
			switch {
			case err == nil:
				current = &existing
			case errors.Is(err, gorm.ErrRecordNotFound):
				current = nil
			default:
				return err
			}

			merged := merge(current)
			if merged == nil {
				return ErrInvalidInput
			}
			merged.Tenant = tenant
			merged.Email = email

			if current == nil {
				created = true
				result = merged
				return tx.Create(merged).Error
			}

			created = false
			merged.ID = current.ID
			merged.CreatedAt = current.CreatedAt
			merged.UpdatedAt = utils.Now()
			result = merged
			return tx.Save(merged).Error
		})
	}

	err := upsert()
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent writer inserted the key first; the retry finds and locks its row
		span.LogKV("retry", "duplicate key")
		err = upsert()
	}
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, false, err
	}

	span.LogKV("created", created)
	return result, created, nil
}

func (r *contactRepository) Update(ctx context.Context, contact *models.Contact) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ContactRepository.Update")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if contact == nil || contact.ID == "" || contact.Tenant == "" {
		return ErrInvalidInput
	}
	tracing.TagEntity(span, contact.ID)

	contact.UpdatedAt = utils.Now()
	result := r.db.WithContext(ctx).Model(&models.Contact{}).
		Where("tenant = ? AND id = ?", contact.Tenant, contact.ID).
		Updates(map[string]interface{}{
			"email":           contact.Email,
			"company_name":    contact.CompanyName,
			"department_name": contact.DepartmentName,
			"job_title":       contact.JobTitle,
			"last_name":       contact.LastName,
			"first_name":      contact.FirstName,
			"person_name":     contact.PersonName,
			"phone_number":    contact.PhoneNumber,
			"url":             contact.URL,
			"updated_at":      contact.UpdatedAt,
		})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrContactNotFound
	}

	return nil
}

func (r *contactRepository) Delete(ctx context.Context, tenant, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ContactRepository.Delete")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagEntity(span, id)

	if tenant == "" || id == "" {
		return ErrInvalidInput
	}

	result := r.db.WithContext(ctx).Delete(&models.Contact{}, "tenant = ? AND id = ?", tenant, id)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrContactNotFound
	}

	return nil
}

func (r *contactRepository) DeleteMany(ctx context.Context, tenant string, ids []string) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ContactRepository.DeleteMany")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if tenant == "" {
		return 0, ErrInvalidInput
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Delete(&models.Contact{}, "tenant = ? AND id IN ?", tenant, ids)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
