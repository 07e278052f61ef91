package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/interfaces"
	"github.com/customeros/cardstack/internal/tracing"
	"github.com/customeros/cardstack/internal/utils"
)

type HistoryHandler struct {
	history interfaces.HistoryRepository
}

func NewHistoryHandler(history interfaces.HistoryRepository) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// List returns sent messages, newest first.
func (h *HistoryHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "HistoryHandler.List", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		limit, offset := pagination(c)
		entries, total, err := h.history.List(ctx, scopedTenant(ctx, c), limit, offset)
		if err != nil {
			respondWithError(c, span, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"history": entries, "total": total, "limit": limit, "offset": offset})
	}
}

func (h *HistoryHandler) BulkDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "HistoryHandler.BulkDelete", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.BulkDeleteRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
			return
		}

		deleted, err := h.history.DeleteMany(ctx, scopedTenant(ctx, c), utils.UniqueStrings(request.IDs))
		if err != nil {
			respondWithError(c, span, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": deleted})
	}
}
