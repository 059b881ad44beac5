package app

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/errandguy-backend/internal/apperrors"
	"github.com/Ananth-NQI/errandguy-backend/internal/config"
	"github.com/Ananth-NQI/errandguy-backend/internal/logger"
	"github.com/Ananth-NQI/errandguy-backend/internal/services"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{UseMemoryStore: true},
		Sheet:    config.SheetConfig{Name: "Errand Log", Bootstrap: true},
		Errands: config.ErrandConfig{
			IDPrefix: "MEG", IDMaxAttempts: 8, Timezone: "UTC", Location: time.UTC,
		},
		Redis: config.RedisConfig{DedupTTL: time.Hour},
	}
}

func TestNew_MemoryWithoutTwilioOrRedis(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), logger.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, StorageMemory, a.Storage.Kind)
	assert.IsType(t, &services.LogSender{}, a.Sender)
	assert.IsType(t, &services.MemoryDeduper{}, a.Deduper)
	assert.Nil(t, a.Redis)

	reply, err := a.Bot.ProcessMessage(context.Background(), "+27820000000", "/newerrand A B C D")
	require.NoError(t, err)
	assert.Contains(t, reply, "New Errand Logged!")
}

func TestNew_UsesRedisWhenConfigured(t *testing.T) {
	m := miniredis.RunT(t)
	cfg := memoryConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Host = m.Host()
	cfg.Redis.Port = m.Port()

	a, err := New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Redis)
	assert.IsType(t, &services.RedisDeduper{}, a.Deduper)
}

func TestOpenStorage_WithoutBootstrapRejectsEmptyTable(t *testing.T) {
	cfg := memoryConfig()
	cfg.Sheet.Bootstrap = false

	_, err := OpenStorage(context.Background(), cfg, logger.NewNop())
	assert.ErrorIs(t, err, apperrors.ErrSchemaMismatch)
}
