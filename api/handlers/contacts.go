package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/interfaces"
	"github.com/customeros/cardstack/internal/tracing"
	"github.com/customeros/cardstack/internal/utils"
)

type ContactsHandler struct {
	contacts       interfaces.ContactService
	maxImageUpload int64
}

func NewContactsHandler(contacts interfaces.ContactService, maxImageUpload int64) *ContactsHandler {
	return &ContactsHandler{contacts: contacts, maxImageUpload: maxImageUpload}
}

func (h *ContactsHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ContactsHandler.List", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		tenant := scopedTenant(ctx, c)
		tracing.TagTenant(span, tenant)
		limit, offset := pagination(c)

		contacts, total, err := h.contacts.List(ctx, tenant, limit, offset)
		if err != nil {
			respondWithError(c, span, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"contacts": contacts, "total": total, "limit": limit, "offset": offset})
	}
}

func (h *ContactsHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ContactsHandler.Get", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		contact, err := h.contacts.Get(ctx, utils.GetTenantFromContext(ctx), c.Param("id"))
		if err != nil {
			respondWithError(c, span, err)
			return
		}
		c.JSON(http.StatusOK, contact)
	}
}

func (h *ContactsHandler) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ContactsHandler.Update", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.ContactUpdateRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
			return
		}

		contact, err := h.contacts.Update(ctx, utils.GetTenantFromContext(ctx), c.Param("id"), request)
		if err != nil {
			respondWithError(c, span, err)
			return
		}
		c.JSON(http.StatusOK, contact)
	}
}

func (h *ContactsHandler) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ContactsHandler.Delete", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		if err := h.contacts.Delete(ctx, utils.GetTenantFromContext(ctx), c.Param("id")); err != nil {
			respondWithError(c, span, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *ContactsHandler) BulkDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ContactsHandler.BulkDelete", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.BulkDeleteRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
			return
		}

		deleted, err := h.contacts.DeleteMany(ctx, utils.GetTenantFromContext(ctx), request.IDs)
		if err != nil {
			respondWithError(c, span, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": deleted})
	}
}

// UploadCard accepts a business card photo in the "image" form field.
func (h *ContactsHandler) UploadCard() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ContactsHandler.UploadCard", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		image, fileName, errs := readUpload(c, "image", h.maxImageUpload)
		if errs != nil {
			respondWithValidationErrors(c, span, errs)
			return
		}

		contact, err := h.contacts.UploadCard(ctx, utils.GetTenantFromContext(ctx), fileName, image)
		if err != nil {
			respondWithError(c, span, err)
			return
		}
		c.JSON(http.StatusCreated, contact)
	}
}
