package utils

import (
	"context"

	"github.com/gin-gonic/gin"

	cserr "github.com/customeros/cardstack/errors"
)

const RoleAdmin = "ADMIN"

var (
	TenantHeaders = []string{"X-Tenant", "Tenant", "TenantName"}
	UserIdHeaders = []string{"X-User-Id", "UserId"}
	RolesHeader   = "X-User-Roles"
)

type CustomContext struct {
	AppSource string
	Tenant    string
	UserId    string
	UserEmail string
	Roles     []string
}

type contextKey string

const customContextKey contextKey = "CUSTOM_CONTEXT"

func WithCustomContext(ctx context.Context, customContext *CustomContext) context.Context {
	return context.WithValue(ctx, customContextKey, customContext)
}

func WithCustomContextFromGinRequest(c *gin.Context, appSource string) context.Context {
	customContext := &CustomContext{
		AppSource: appSource,
		Tenant:    c.GetString("TenantName"),
		UserId:    c.GetString("UserId"),
		UserEmail: c.GetString("UserEmail"),
		Roles:     c.GetStringSlice("UserRoles"),
	}
	return WithCustomContext(c.Request.Context(), customContext)
}

func GetContext(ctx context.Context) *CustomContext {
	customContext, ok := ctx.Value(customContextKey).(*CustomContext)
	if !ok {
		return new(CustomContext)
	}
	return customContext
}

func GetAppSourceFromContext(ctx context.Context) string {
	return GetContext(ctx).AppSource
}

func GetTenantFromContext(ctx context.Context) string {
	return GetContext(ctx).Tenant
}

func GetRolesFromContext(ctx context.Context) []string {
	return GetContext(ctx).Roles
}

func GetUserIdFromContext(ctx context.Context) string {
	return GetContext(ctx).UserId
}

func GetUserEmailFromContext(ctx context.Context) string {
	return GetContext(ctx).UserEmail
}

func IsAdminInContext(ctx context.Context) bool {
	return Contains(GetRolesFromContext(ctx), RoleAdmin)
}

func SetAppSourceInContext(ctx context.Context, appSource string) context.Context {
	customContext := GetContext(ctx)
	customContext.AppSource = appSource
	return WithCustomContext(ctx, customContext)
}

func SetTenantInContext(ctx context.Context, tenant string) context.Context {
	customContext := GetContext(ctx)
	customContext.Tenant = tenant
	return WithCustomContext(ctx, customContext)
}

func ValidateTenant(ctx context.Context) error {
	if GetTenantFromContext(ctx) == "" {
		return cserr.ErrTenantNotSet
	}
	return nil
}
