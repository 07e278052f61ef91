package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	custom_err "github.com/customeros/cardstack/api/errors"
	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/interfaces"
	cserr "github.com/customeros/cardstack/internal/errors"
	"github.com/customeros/cardstack/internal/tracing"
	"github.com/customeros/cardstack/internal/utils"
)

type OutreachHandler struct {
	outreach    interfaces.OutreachService
	quota       interfaces.QuotaService
	profiles    interfaces.TenantProfileRepository
	mailMetrics interfaces.MailMetricsProvider
}

func NewOutreachHandler(outreach interfaces.OutreachService, quota interfaces.QuotaService, profiles interfaces.TenantProfileRepository, mailMetrics interfaces.MailMetricsProvider) *OutreachHandler {
	return &OutreachHandler{
		outreach:    outreach,
		quota:       quota,
		profiles:    profiles,
		mailMetrics: mailMetrics,
	}
}

// Generate drafts the first message for one contact.
func (h *OutreachHandler) Generate() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "OutreachHandler.Generate", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		message, err := h.outreach.GenerateInitialEmail(ctx, utils.GetTenantFromContext(ctx), c.Param("id"))
		if err != nil {
			respondWithError(c, span, err)
			return
		}
		c.JSON(http.StatusOK, message)
	}
}

func (h *OutreachHandler) Rewrite() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "OutreachHandler.Rewrite", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.RewriteRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
			return
		}
		errs := custom_err.NewMultiErrors()
		if strings.TrimSpace(request.CurrentBody) == "" {
			errs.Add("currentBody", "please provide the current draft", errors.New("currentBody is empty"))
		}
		if errs.HasErrors() {
			respondWithValidationErrors(c, span, errs)
			return
		}

		message, err := h.outreach.RewriteEmail(ctx, utils.GetTenantFromContext(ctx), request)
		if err != nil {
			respondWithError(c, span, err)
			return
		}
		c.JSON(http.StatusOK, message)
	}
}

func (h *OutreachHandler) Send() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "OutreachHandler.Send", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.SendRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
			return
		}

		receipt, err := h.outreach.Send(ctx, utils.GetTenantFromContext(ctx), request)
		if err != nil {
			respondWithError(c, span, err)
			return
		}
		c.JSON(http.StatusOK, receipt)
	}
}

// Dispatch runs a batch to completion and reports per-record outcomes.
func (h *OutreachHandler) Dispatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "OutreachHandler.Dispatch", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.DispatchRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
			return
		}

		result, err := h.outreach.DispatchBatch(ctx, utils.GetTenantFromContext(ctx), request.ContactIDs)
		if err != nil {
			respondWithError(c, span, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func (h *OutreachHandler) Quota() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "OutreachHandler.Quota", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		profile, err := h.profiles.GetByTenant(ctx, scopedTenant(ctx, c))
		if err != nil {
			respondWithError(c, span, err)
			return
		}
		if profile == nil {
			respondWithError(c, span, cserr.ErrProfileNotFound)
			return
		}

		summary, err := h.quota.Summary(ctx, profile)
		if err != nil {
			respondWithError(c, span, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// MailMetrics exposes hosted provider delivery stats to administrators.
func (h *OutreachHandler) MailMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "OutreachHandler.MailMetrics", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		if !utils.IsAdminInContext(ctx) {
			c.JSON(http.StatusForbidden, gin.H{"error": "administrator role required"})
			return
		}

		snapshot, err := h.mailMetrics.Metrics(ctx)
		if err != nil {
			respondWithError(c, span, err)
			return
		}
		c.JSON(http.StatusOK, snapshot)
	}
}
