package csvimport

import (
	"context"

	"github.com/lib/pq"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/cardstack/config"
	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/interfaces"
	"github.com/customeros/cardstack/internal/enum"
	cserr "github.com/customeros/cardstack/internal/errors"
	"github.com/customeros/cardstack/internal/logger"
	"github.com/customeros/cardstack/internal/metrics"
	"github.com/customeros/cardstack/internal/models"
	"github.com/customeros/cardstack/internal/tracing"
	"github.com/customeros/cardstack/internal/utils"
	"github.com/customeros/cardstack/services/events"
)

type importService struct {
	log      logger.Logger
	cfg      *config.ImportConfig
	contacts interfaces.ContactRepository
	imports  interfaces.ContactImportRepository
	events   interfaces.EventPublisher
}

func NewImportService(log logger.Logger, cfg *config.ImportConfig, contacts interfaces.ContactRepository, imports interfaces.ContactImportRepository, publisher interfaces.EventPublisher) interfaces.ImportService {
	if cfg == nil {
		cfg = &config.ImportConfig{}
	}
	return &importService{
		log:      log,
		cfg:      cfg,
		contacts: contacts,
		imports:  imports,
		events:   publisher,
	}
}

func (s *importService) Import(ctx context.Context, tenant, fileName string, data []byte) (*dto.ImportResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ImportService.Import")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagTenant(span, tenant)
	span.LogKV("fileName", fileName, "size", len(data))

	if tenant == "" {
		return nil, cserr.ErrTenantMissing
	}

	table, err := DecodeTable(data)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Warnf("import %s for tenant %s unreadable: %v", fileName, tenant, err)
		metrics.IncImport(enum.ImportSchemaUnrecognized.String(), false)
		return nil, err
	}
	span.LogKV("encoding", table.Encoding, "rows", table.Len())

	classification := Classify(table.Headers)
	result := &dto.ImportResult{
		Schema:      classification.Schema,
		Encoding:    table.Encoding,
		SkippedRows: []int{},
	}
	if classification.Unrecognized() {
		if s.cfg.StrictSchema {
			err = errors.Wrapf(cserr.ErrUnrecognizedSchema, "headers %v", table.Headers)
			tracing.TraceErr(span, err)
			metrics.IncImport(classification.Schema.String(), false)
			return nil, err
		}
		result.SchemaWarning = true
		s.log.Warnf("import %s for tenant %s: unrecognized headers %v, mapping as %s", fileName, tenant, table.Headers, classification.MappingSchema())
	}

	schema := classification.MappingSchema()
	for row := 0; row < table.Len(); row++ {
		draft, err := MapRow(table, schema, row)
		if err != nil {
			s.log.Infof("import %s line %d skipped: %v", fileName, table.LineNumber(row), err)
			result.Skipped++
			result.SkippedRows = append(result.SkippedRows, table.LineNumber(row))
			continue
		}
		if !utils.IsValidEmail(draft.Email) {
			s.log.Warnf("import %s line %d: %s does not look like an email address, storing as given", fileName, draft.Row, draft.Email)
		}

		_, created, err := s.contacts.Upsert(ctx, tenant, draft.Email, func(existing *models.Contact) *models.Contact {
			return Merge(existing, draft)
		})
		if err != nil {
			tracing.TraceErr(span, err)
			s.log.Errorf("import %s line %d failed to store %s: %v", fileName, draft.Row, draft.Email, err)
			result.Skipped++
			result.SkippedRows = append(result.SkippedRows, draft.Row)
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.recordImport(ctx, tenant, fileName, result)

	metrics.IncImport(classification.Schema.String(), true)
	metrics.AddImportRows(result.Created, result.Updated, result.Skipped)
	tracing.LogObjectAsJson(span, "result", result)
	s.log.Infof("import %s for tenant %s: created=%d updated=%d skipped=%d schema=%s encoding=%s",
		fileName, tenant, result.Created, result.Updated, result.Skipped, result.Schema, result.Encoding)

	return result, nil
}

// recordImport writes the audit row and announces the import. Failures are logged only.
func (s *importService) recordImport(ctx context.Context, tenant, fileName string, result *dto.ImportResult) {
	skippedRows := make(pq.Int64Array, 0, len(result.SkippedRows))
	for _, row := range result.SkippedRows {
		skippedRows = append(skippedRows, int64(row))
	}

	audit := &models.ContactImport{
		Tenant:        tenant,
		FileName:      fileName,
		Encoding:      result.Encoding,
		Schema:        result.Schema,
		SchemaWarning: result.SchemaWarning,
		Created:       result.Created,
		Updated:       result.Updated,
		Skipped:       result.Skipped,
		SkippedRows:   skippedRows,
	}
	if s.imports != nil {
		if err := s.imports.Create(ctx, audit); err != nil {
			s.log.Errorf("failed to record import %s for tenant %s: %v", fileName, tenant, err)
		} else {
			result.ImportID = audit.ID
		}
	}

	if s.events != nil {
		err := s.events.PublishFanoutEvent(events.WithTenant(ctx, tenant), audit.ID, enum.CONTACT_IMPORT, dto.ContactsImported{
			FileName: fileName,
			Schema:   result.Schema,
			Created:  result.Created,
			Updated:  result.Updated,
			Skipped:  result.Skipped,
		})
		if err != nil {
			s.log.Warnf("failed to publish import event for tenant %s: %v", tenant, err)
		}
	}
}
