package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/internal/enum"
	"github.com/customeros/cardstack/internal/logger"
	"github.com/customeros/cardstack/internal/utils"
)

func TestNewEventsService_WithoutURLUsesNoop(t *testing.T) {
	svc, err := NewEventsService("", logger.NewNopLogger(), nil)
	require.NoError(t, err)
	_, ok := svc.Publisher.(*NoopPublisher)
	assert.True(t, ok)
	assert.NoError(t, svc.Close())
}

func TestNoopPublisher_RequiresTenant(t *testing.T) {
	p := NewNoopPublisher(logger.NewNopLogger())

	err := p.PublishFanoutEvent(context.Background(), "imp_1", enum.CONTACT_IMPORT, dto.ContactsImported{})
	assert.Error(t, err)

	ctx := WithTenant(context.Background(), "acme")
	assert.NoError(t, p.PublishFanoutEvent(ctx, "imp_1", enum.CONTACT_IMPORT, dto.ContactsImported{}))
}

func TestWithTenant_KeepsExistingTenant(t *testing.T) {
	ctx := utils.SetTenantInContext(context.Background(), "first")
	ctx = WithTenant(ctx, "second")
	assert.Equal(t, "first", utils.GetTenantFromContext(ctx))
}
