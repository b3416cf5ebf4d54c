package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
	assert.Equal(t, 300*time.Second, cfg.ConfirmTTL())
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout())
}

func TestNewFromEnvironment(t *testing.T) {
	t.Setenv("HR_GATEWAY_HTTP_PORT", "9090")
	t.Setenv("HR_GATEWAY_CONFIRM_TTL_SECONDS", "120")
	t.Setenv("HR_GATEWAY_FULL_ACCESS_ROLES", "hr-admin, cpo ,")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 120*time.Second, cfg.ConfirmTTL())
	assert.Equal(t, []string{"hr-admin", "cpo"}, cfg.FullAccessRoleSet())
}

func TestValidate(t *testing.T) {
	cfg := NewForTesting()
	require.NoError(t, cfg.Validate())

	bad := NewForTesting()
	bad.ConfirmTTLSeconds = 0
	assert.Error(t, bad.Validate())

	bad = NewForTesting()
	bad.SQLitePath = ""
	assert.Error(t, bad.Validate())

	bad = NewForTesting()
	bad.SearchIndexURL = ""
	assert.Error(t, bad.Validate())
}

func TestRoleSets(t *testing.T) {
	cfg := NewForTesting()
	assert.Equal(t, []string{"hr-admin", "executive"}, cfg.FullAccessRoleSet())
	assert.Equal(t, []string{"manager"}, cfg.TeamRoleSet())
	assert.True(t, cfg.IsTesting())
	assert.False(t, cfg.IsProduction())
}
