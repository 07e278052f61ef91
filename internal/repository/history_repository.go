package repository

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/customeros/cardstack/interfaces"
	"github.com/customeros/cardstack/internal/models"
	"github.com/customeros/cardstack/internal/tracing"
)

type historyRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) interfaces.HistoryRepository {
	return &historyRepository{db: db}
}

// Create commits the entry in its own transaction.
func (r *historyRepository) Create(ctx context.Context, entry *models.History) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "HistoryRepository.Create")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if entry == nil || entry.Tenant == "" {
		return ErrInvalidInput
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(entry).Error
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	tracing.TagEntity(span, entry.ID)
	return nil
}

func (r *historyRepository) CountSince(ctx context.Context, tenant string, since time.Time) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "HistoryRepository.CountSince")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.LogKV("since", since)

	if tenant == "" {
		return 0, ErrInvalidInput
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&models.History{}).
		Where("tenant = ? AND sent_at >= ?", tenant, since).
		Count(&count).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	return count, nil
}

func (r *historyRepository) List(ctx context.Context, tenant string, limit, offset int) ([]models.History, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "HistoryRepository.List")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if tenant == "" {
		return nil, 0, ErrInvalidInput
	}

	var totalCount int64
	if err := r.db.WithContext(ctx).Model(&models.History{}).
		Where("tenant = ?", tenant).
		Count(&totalCount).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}

	var entries []models.History
	err := r.db.WithContext(ctx).
		Where("tenant = ?", tenant).
		Order("sent_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	return entries, totalCount, nil
}

func (r *historyRepository) DeleteMany(ctx context.Context, tenant string, ids []string) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "HistoryRepository.DeleteMany")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if tenant == "" {
		return 0, ErrInvalidInput
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Delete(&models.History{}, "tenant = ? AND id IN ?", tenant, ids)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
