package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"counseling-records/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapEnv(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestResolver_Lookup(t *testing.T) {
	t.Run("environment wins over store", func(t *testing.T) {
		r := NewResolverWith(
			mapEnv(map[string]string{"DATABASE_URL": "postgres://env"}),
			map[string]string{"DATABASE_URL": "postgres://store"},
		)
		v, ok := r.Lookup("DATABASE_URL")
		assert.True(t, ok)
		assert.Equal(t, "postgres://env", v)
	})

	t.Run("store used when environment empty", func(t *testing.T) {
		r := NewResolverWith(
			mapEnv(map[string]string{"DATABASE_URL": "  "}),
			map[string]string{"DATABASE_URL": "postgres://store"},
		)
		v, ok := r.Lookup("DATABASE_URL")
		assert.True(t, ok)
		assert.Equal(t, "postgres://store", v)
	})

	t.Run("aliases checked in order", func(t *testing.T) {
		r := NewResolverWith(nil, map[string]string{"SUPABASE_KEY": "legacy"})
		v, ok := r.Lookup("DATABASE_KEY", "SUPABASE_KEY")
		assert.True(t, ok)
		assert.Equal(t, "legacy", v)
	})

	t.Run("missing", func(t *testing.T) {
		r := NewResolverWith(nil, nil)
		_, ok := r.Lookup("DATABASE_KEY")
		assert.False(t, ok)
	})
}

func TestResolver_AdminPassword(t *testing.T) {
	pw, isDefault := NewResolverWith(nil, nil).AdminPassword()
	assert.Equal(t, "1234", pw)
	assert.True(t, isDefault)

	pw, isDefault = NewResolverWith(nil, map[string]string{"ADMIN_PASSWORD": "s3cret"}).AdminPassword()
	assert.Equal(t, "s3cret", pw)
	assert.False(t, isDefault)

	pw, _ = NewResolverWith(
		mapEnv(map[string]string{"ADMIN_PASSWORD": "from-env"}),
		map[string]string{"ADMIN_PASSWORD": "s3cret"},
	).AdminPassword()
	assert.Equal(t, "from-env", pw)
}

func TestLoadSecretsFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is empty", func(t *testing.T) {
		store, err := LoadSecretsFile(filepath.Join(dir, "nope.yaml"))
		require.NoError(t, err)
		assert.Empty(t, store)
	})

	t.Run("scalars are stringified", func(t *testing.T) {
		path := filepath.Join(dir, "secrets.yaml")
		content := "DATABASE_URL: postgres://db.example.com/postgres\nADMIN_PASSWORD: 5678\nEMPTY:\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		store, err := LoadSecretsFile(path)
		require.NoError(t, err)
		assert.Equal(t, "postgres://db.example.com/postgres", store["DATABASE_URL"])
		assert.Equal(t, "5678", store["ADMIN_PASSWORD"])
		assert.NotContains(t, store, "EMPTY")
	})

	t.Run("nested values rejected", func(t *testing.T) {
		path := filepath.Join(dir, "nested.yaml")
		require.NoError(t, os.WriteFile(path, []byte("db:\n  url: x\n"), 0o600))

		_, err := LoadSecretsFile(path)
		assert.Error(t, err)
	})
}

func TestFromResolver(t *testing.T) {
	r := NewResolverWith(mapEnv(map[string]string{
		"SUPABASE_URL":            "postgres://u@db.example.com:5432/postgres",
		"DATABASE_KEY":            "key",
		"OPENAI_API_KEY":          "sk-test",
		"LANGUAGE_MODEL_PROVIDER": "Gemini",
		"SESSION_TTL_HOURS":       "2",
		"AUTO_MIGRATE":            "true",
	}), nil)

	cfg := FromResolver(r)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "postgres://u@db.example.com:5432/postgres", cfg.DatabaseURL)
	assert.Equal(t, "key", cfg.DatabaseKey)
	assert.Equal(t, "sk-test", cfg.LanguageModel.APIKey)
	assert.Equal(t, ProviderGemini, cfg.LanguageModel.Provider)
	assert.Equal(t, 60*time.Second, cfg.LanguageModel.Timeout)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.AutoMigrate)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	cfg := FromResolver(NewResolverWith(nil, map[string]string{"DATABASE_URL": "postgres://x"}))

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "DATABASE_KEY")
	assert.NotContains(t, err.Error(), "DATABASE_URL and")
}
