package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "STORE_BACKEND", "ID_STRATEGY", "STATUS_POLICY",
		"SUBMIT_DELAY", "MEDIA_MAX_BYTES", "REDIS_DB", "COMPLAINT_ACCESS", "BODY_LIMIT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, "uuid", cfg.IDStrategy)
	assert.Equal(t, "forward-only", cfg.StatusPolicy)
	assert.Equal(t, "shared", cfg.ComplaintAccess)
	assert.Equal(t, "64M", cfg.BodyLimit)
	assert.Equal(t, time.Duration(0), cfg.SubmitDelay)
	assert.Equal(t, 10<<20, cfg.MediaMaxBytes)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("SUBMIT_DELAY", "1s")
	t.Setenv("MEDIA_MAX_BYTES", "2048")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("STATUS_POLICY", "permissive")
	t.Setenv("ID_STRATEGY", "Timestamp")
	t.Setenv("COMPLAINT_ACCESS", "OWNER")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, BackendRedis, cfg.StoreBackend)
	assert.Equal(t, time.Second, cfg.SubmitDelay)
	assert.Equal(t, 2048, cfg.MediaMaxBytes)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "permissive", cfg.StatusPolicy)
	assert.Equal(t, "timestamp", cfg.IDStrategy)
	assert.Equal(t, "owner", cfg.ComplaintAccess)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("REDIS_DB", "three")
	t.Setenv("SUBMIT_DELAY", "soon")

	cfg := Load()

	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, time.Duration(0), cfg.SubmitDelay)
}
