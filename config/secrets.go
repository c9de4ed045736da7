package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultAdminPassword is served when ADMIN_PASSWORD is not configured anywhere.
// It is a known weak default and every use of it is logged.
const DefaultAdminPassword = "1234"

const defaultSecretsFile = "secrets.yaml"

// Resolver looks values up in the process environment first and falls back
// to a flat key/value secrets file.
type Resolver struct {
	lookupEnv func(string) (string, bool)
	store     map[string]string
}

// NewResolver loads .env into the environment and reads the secrets file
// named by SECRETS_FILE (default secrets.yaml). Both files are optional.
func NewResolver() *Resolver {
	if err := godotenv.Load(); err != nil {
		zap.L().Debug("📄 No .env file loaded, using system environment", zap.Error(err))
	} else {
		zap.L().Info("✅ .env file loaded")
	}

	path := os.Getenv("SECRETS_FILE")
	if path == "" {
		path = defaultSecretsFile
	}

	store, err := LoadSecretsFile(path)
	if err != nil {
		zap.L().Warn("⚠️ Could not read secrets file", zap.String("path", path), zap.Error(err))
		store = map[string]string{}
	}

	return &Resolver{lookupEnv: os.LookupEnv, store: store}
}

// NewResolverWith builds a resolver over explicit sources.
func NewResolverWith(lookupEnv func(string) (string, bool), store map[string]string) *Resolver {
	if lookupEnv == nil {
		lookupEnv = func(string) (string, bool) { return "", false }
	}
	if store == nil {
		store = map[string]string{}
	}
	return &Resolver{lookupEnv: lookupEnv, store: store}
}

// LoadSecretsFile parses a YAML mapping of scalar values. A missing file
// yields an empty store.
func LoadSecretsFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read secrets file: %w", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse secrets file %s: %w", path, err)
	}

	store := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
		case map[string]interface{}, []interface{}:
			return nil, fmt.Errorf("parse secrets file %s: key %q must be a scalar", path, key)
		default:
			store[key] = fmt.Sprint(v)
		}
	}
	return store, nil
}

// Lookup returns the first non-empty value among keys. For each key the
// environment wins over the secrets store.
func (r *Resolver) Lookup(keys ...string) (string, bool) {
	for _, key := range keys {
		if value, ok := r.lookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return value, true
		}
		if value, ok := r.store[key]; ok && strings.TrimSpace(value) != "" {
			return value, true
		}
	}
	return "", false
}

// AdminPassword resolves the shared login secret. isDefault reports that the
// weak built-in fallback is in use.
func (r *Resolver) AdminPassword() (password string, isDefault bool) {
	if value, ok := r.Lookup("ADMIN_PASSWORD"); ok {
		return value, false
	}
	return DefaultAdminPassword, true
}
