package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank("   "))
	assert.True(t, IsBlank("nan"))
	assert.True(t, IsBlank(" NaN "))
	assert.False(t, IsBlank("nancy"))
	assert.False(t, IsBlank("0"))
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "http://www.example.co.jp", NormalizeURL("www.example.co.jp"))
	assert.Equal(t, "https://example.com", NormalizeURL(" https://example.com "))
	assert.Equal(t, "example.com", NormalizeURL("example.com"))
}

func TestGetContentTypeFromFileName(t *testing.T) {
	assert.Equal(t, "image/png", GetContentTypeFromFileName("card.PNG"))
	assert.Equal(t, "image/webp", GetContentTypeFromFileName("card.webp"))
	assert.Equal(t, "image/jpeg", GetContentTypeFromFileName("card.jpeg"))
	assert.Equal(t, "image/jpeg", GetContentTypeFromFileName("card.tiff"))
	assert.Equal(t, "image/jpeg", GetContentTypeFromFileName("card"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "株式会", Truncate("株式会社", 3))
	assert.Equal(t, "abc", Truncate("abc", 10))
}

func TestFirstNonBlank(t *testing.T) {
	assert.Equal(t, "x", FirstNonBlank("", "nan", " x "))
	assert.Equal(t, "", FirstNonBlank("", " "))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "taro@example.com", NormalizeEmail("  Taro@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
	assert.Equal(t, "john.doe+sales@gmail.com", NormalizeEmail("John.Doe+sales@Gmail.com"))
	assert.Equal(t, "ta.ro@googlemail.com", NormalizeEmail(" ta.ro@googlemail.com"))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail(" taro@example.com "))
	assert.False(t, IsValidEmail("taro-at-example"))
	assert.False(t, IsValidEmail(""))
}
