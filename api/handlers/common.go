package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	custom_err "github.com/customeros/cardstack/api/errors"
	"github.com/customeros/cardstack/internal/tracing"
	"github.com/customeros/cardstack/internal/utils"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

func respondWithError(c *gin.Context, span opentracing.Span, err error) {
	tracing.TraceErr(span, err)
	c.JSON(custom_err.StatusFor(err), gin.H{"error": err.Error()})
}

func respondWithValidationErrors(c *gin.Context, span opentracing.Span, errs *custom_err.MultiErrors) {
	tracing.TraceErr(span, errs)
	c.JSON(http.StatusBadRequest, errs)
}

// pagination reads limit/offset query params, clamped to sane bounds.
func pagination(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// scopedTenant lets administrators act on another tenant through ?tenant=.
func scopedTenant(ctx context.Context, c *gin.Context) string {
	if override := c.Query("tenant"); override != "" && utils.IsAdminInContext(ctx) {
		return override
	}
	return utils.GetTenantFromContext(ctx)
}

// readUpload returns the bytes of a multipart file field, bounded by maxSize.
func readUpload(c *gin.Context, field string, maxSize int64) ([]byte, string, *custom_err.MultiErrors) {
	errs := custom_err.NewMultiErrors()

	header, err := c.FormFile(field)
	if err != nil {
		errs.Add(field, "please attach a file", err)
		return nil, "", errs
	}
	if maxSize > 0 && header.Size > maxSize {
		errs.Add(field, "file is too large", errors.Errorf("%d bytes exceeds %d", header.Size, maxSize))
		return nil, "", errs
	}

	file, err := header.Open()
	if err != nil {
		errs.Add(field, "file could not be read", err)
		return nil, "", errs
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		errs.Add(field, "file could not be read", err)
		return nil, "", errs
	}
	if len(data) == 0 {
		errs.Add(field, "file is empty", errors.New("empty upload"))
		return nil, "", errs
	}
	return data, header.Filename, nil
}
