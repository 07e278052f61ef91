package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestValidateConfig(t *testing.T) {
	assert.Error(t, validateConfig(nil))
	assert.Error(t, validateConfig(&DatabaseConfig{Host: "localhost"}))
	assert.NoError(t, validateConfig(&DatabaseConfig{
		Host: "localhost", Port: "5432", User: "u", Password: "p", DBName: "cardstack", SSLMode: "disable",
	}))
}

func TestNewConnection_InvalidPort(t *testing.T) {
	_, err := NewConnection(&DatabaseConfig{
		Host: "localhost", Port: "abc", User: "u", Password: "p", DBName: "cardstack", SSLMode: "disable",
	})
	assert.ErrorContains(t, err, "invalid port number")
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Warn, gormLogLevel("WARN"))
	assert.Equal(t, logger.Info, gormLogLevel("info"))
	assert.Equal(t, logger.Silent, gormLogLevel("silent"))
	assert.Equal(t, logger.Warn, gormLogLevel(""))
}
