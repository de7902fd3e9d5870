package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, `
telegram:
  token: "test-token"
`))
	require.NoError(t, err)

	assert.Equal(t, "data/queue.json", cfg.Storage.QueuePath)
	assert.Equal(t, "data/history.json", cfg.Storage.HistoryPath)
	assert.Equal(t, "data/reviews.json", cfg.Storage.ReviewsPath)
	assert.Equal(t, "Asia/Yekaterinburg", cfg.Booking.Timezone)
	assert.Equal(t, 22, cfg.Booking.IntuitiveMax)
	assert.Equal(t, 5, cfg.Admin.PageSize)
	// Без платёжного токена — ручная проверка чеков
	assert.Equal(t, "manual", cfg.Payment.Mode)
	require.Len(t, cfg.Services, 2)
	assert.Equal(t, "consult", cfg.Services[0].ID)
}

func TestNewConfigInfersInvoiceMode(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, `
telegram:
  token: "test-token"
payment:
  provider_token: "prov-token"
`))
	require.NoError(t, err)
	assert.Equal(t, "invoice", cfg.Payment.Mode)
}

func TestNewConfigRequiresToken(t *testing.T) {
	_, err := NewConfig(writeConfig(t, `
log:
  level: debug
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram.token")
}

func TestServiceCatalogOverride(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, `
telegram:
  token: "test-token"
services:
  - id: tarot
    title: "Расклад таро"
    price: 1800
`))
	require.NoError(t, err)

	require.Len(t, cfg.Services, 1)
	service := cfg.ServiceByID("tarot")
	require.NotNil(t, service)
	assert.Equal(t, "Расклад таро", service.Title)
	assert.Equal(t, 1800, cfg.ServicePrice("tarot"))
	assert.Nil(t, cfg.ServiceByID("consult"))
	assert.Equal(t, 0, cfg.ServicePrice("consult"))
}

func TestAccessLevels(t *testing.T) {
	cfg := &AppConfig{Admin: Admin{
		AdminIDs:     []int64{1},
		ModeratorIDs: []int64{2},
	}}

	assert.True(t, cfg.IsAdmin(1))
	assert.False(t, cfg.IsAdmin(2))
	// Администратор автоматически модератор
	assert.True(t, cfg.IsModerator(1))
	assert.True(t, cfg.IsModerator(2))
	assert.False(t, cfg.IsModerator(3))
}
