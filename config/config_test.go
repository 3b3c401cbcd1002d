package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load([]string{"-mongodb-uri", "mongodb://localhost:27017", "-jwt-secret", "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "blog", cfg.Database)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadSize)
	assert.Equal(t, 60, cfg.RateLimit)
	assert.Equal(t, 10, cfg.PageLimit)
	assert.Equal(t, 100, cfg.MaxPageLimit)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.AllowedOrigins)
}

func TestLoadFlags(t *testing.T) {
	cfg, err := Load([]string{
		"-memory",
		"-jwt-secret", "s3cret",
		"-port", "9000",
		"-page-limit", "25",
		"-cors-origins", " https://blog.example.com , ,https://admin.example.com",
		"-token-ttl", "1h",
	})
	require.NoError(t, err)

	assert.True(t, cfg.Memory)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 25, cfg.PageLimit)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"https://blog.example.com", "https://admin.example.com"}, cfg.AllowedOrigins)
}

func TestLoadRequiresSecrets(t *testing.T) {
	_, err := Load([]string{"-jwt-secret", "s3cret"})
	assert.ErrorContains(t, err, "MONGODB_URI")

	_, err = Load([]string{"-memory"})
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load([]string{"-memory", "-jwt-secret", "x", "-gin-mode", "verbose"})
	assert.ErrorContains(t, err, "GIN_MODE")

	_, err = Load([]string{"-memory", "-jwt-secret", "x", "-page-limit", "0"})
	assert.ErrorContains(t, err, "PAGE_LIMIT")

	_, err = Load([]string{"-memory", "-jwt-secret", "x", "-page-limit", "50", "-max-page-limit", "20"})
	assert.ErrorContains(t, err, "MAX_PAGE_LIMIT")
}
