package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/customeros/cardstack/interfaces"
	"github.com/customeros/cardstack/internal/tracing"
	"github.com/customeros/cardstack/internal/utils"
)

type ImportsHandler struct {
	imports     interfaces.ImportService
	audit       interfaces.ContactImportRepository
	maxFileSize int64
}

func NewImportsHandler(imports interfaces.ImportService, audit interfaces.ContactImportRepository, maxFileSize int64) *ImportsHandler {
	return &ImportsHandler{imports: imports, audit: audit, maxFileSize: maxFileSize}
}

// Upload imports a contact spreadsheet from the "file" form field.
func (h *ImportsHandler) Upload() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ImportsHandler.Upload", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tenant := utils.GetTenantFromContext(ctx)
		tracing.TagTenant(span, tenant)

		data, fileName, errs := readUpload(c, "file", h.maxFileSize)
		if errs != nil {
			respondWithValidationErrors(c, span, errs)
			return
		}

		result, err := h.imports.Import(ctx, tenant, fileName, data)
		if err != nil {
			respondWithError(c, span, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func (h *ImportsHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ImportsHandler.List", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		limit, _ := pagination(c)
		imports, err := h.audit.ListByTenant(ctx, scopedTenant(ctx, c), limit)
		if err != nil {
			respondWithError(c, span, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"imports": imports})
	}
}
