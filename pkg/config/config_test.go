package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_EMAILS", "")
	t.Setenv("APP_ENV", "local")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Empty(t, cfg.AllowedEmails)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_AllowedEmails(t *testing.T) {
	t.Setenv("ALLOWED_EMAILS", " a@example.com, ,b@example.com ")
	t.Setenv("APP_ENV", "production")

	cfg := Load()
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.AllowedEmails)
	assert.True(t, cfg.IsProduction())
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"x"}, splitList("x,"))
}
