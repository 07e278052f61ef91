package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/cardstack/internal/enum"
)

func TestTenantProfile_Ceiling(t *testing.T) {
	assert.Equal(t, 100, (&TenantProfile{}).Ceiling())
	assert.Equal(t, 100, (&TenantProfile{MonthlyLimit: -3}).Ceiling())
	assert.Equal(t, 250, (&TenantProfile{MonthlyLimit: 250}).Ceiling())

	var nilProfile *TenantProfile
	assert.Equal(t, 100, nilProfile.Ceiling())
}

func TestTenantProfile_RelayConfigured(t *testing.T) {
	profile := &TenantProfile{
		EmailProvider: enum.EmailProviderRelay,
		EmailAddress:  "sales@example.com",
		RelaySecret:   "app-secret",
	}
	assert.True(t, profile.RelayConfigured())

	profile.RelaySecret = " "
	assert.False(t, profile.RelayConfigured())

	profile.RelaySecret = "app-secret"
	profile.EmailProvider = enum.EmailProviderHostedAPI
	assert.False(t, profile.RelayConfigured())
}

func TestContact_DisplayName(t *testing.T) {
	assert.Equal(t, UnknownNamePlaceholder, (&Contact{}).DisplayName())
	assert.Equal(t, "山田 太郎", (&Contact{PersonName: "山田 太郎"}).DisplayName())
}

func TestJSONMap_Scan(t *testing.T) {
	var m JSONMap
	require.NoError(t, m.Scan([]byte(`{"encoding":"cp932"}`)))
	assert.Equal(t, "cp932", m["encoding"])

	require.NoError(t, m.Scan(`{"rows":2}`))
	assert.Equal(t, float64(2), m["rows"])

	assert.Error(t, m.Scan(42))
}
