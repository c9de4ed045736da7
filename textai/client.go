// Package textai rewrites short counseling notes into a fuller version using
// a hosted language model. It is optional: without an API key every call is
// a no-op.
package textai

import (
	"context"
	"fmt"
	"strings"

	"counseling-records/apperr"
	"counseling-records/config"

	"go.uber.org/zap"
)

const (
	Temperature = 0.7
	MaxTokens   = 500

	systemInstruction = "You are an education expert who writes elementary school counseling records professionally."
)

// completer is one provider backend. It sends a single request and never retries.
type completer interface {
	complete(ctx context.Context, system, user string) (string, error)
	name() string
}

// Client is safe to share; it keeps no conversation state.
type Client struct {
	backend completer
	logger  *zap.Logger
}

// New builds a client for the configured provider. A missing key or a
// provider that fails to initialize yields a disabled client.
func New(cfg config.LanguageModelConfig, logger *zap.Logger) *Client {
	logger = logger.Named("textai")
	c := &Client{logger: logger}

	if strings.TrimSpace(cfg.APIKey) == "" {
		logger.Info("ℹ️ Text improvement disabled: no language model API key configured")
		return c
	}

	var (
		backend completer
		err     error
	)
	switch cfg.Provider {
	case config.ProviderGemini:
		backend, err = newGeminiBackend(cfg)
	case config.ProviderOpenAI, "":
		backend = newOpenAIBackend(cfg)
	default:
		err = fmt.Errorf("unknown language model provider %q", cfg.Provider)
	}
	if err != nil {
		logger.Warn("⚠️ Text improvement disabled: client failed to initialize", zap.Error(err))
		return c
	}

	c.backend = backend
	logger.Info("✨ Text improvement enabled", zap.String("provider", backend.name()))
	return c
}

func (c *Client) Enabled() bool {
	return c != nil && c.backend != nil
}

// Improve returns a more detailed rewrite of text. It returns "" with a nil
// error when the client is disabled or text is blank. Provider failures come
// back as remote call errors for the caller to show.
func (c *Client) Improve(ctx context.Context, text string) (string, error) {
	if !c.Enabled() || strings.TrimSpace(text) == "" {
		return "", nil
	}

	improved, err := c.backend.complete(ctx, systemInstruction, buildPrompt(text))
	if err == nil && strings.TrimSpace(improved) == "" {
		err = fmt.Errorf("empty completion")
	}
	if err != nil {
		c.logger.Warn("❌ Text improvement failed", zap.String("provider", c.backend.name()), zap.Error(err))
		return "", apperr.Remote("textai.improve", err, "text improvement failed")
	}

	c.logger.Debug("✅ Text improved", zap.Int("input_len", len(text)), zap.Int("output_len", len(improved)))
	return strings.TrimSpace(improved), nil
}

func buildPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Rewrite the consultation content of an elementary school counseling record so it is more detailed and precise.\n")
	b.WriteString("Here is the briefly written consultation content:\n")
	fmt.Fprintf(&b, "%q\n\n", strings.TrimSpace(text))
	b.WriteString("Requirements:\n")
	b.WriteString("- Make the content more specific and detailed\n")
	b.WriteString("- Use professional yet easy to understand sentences\n")
	b.WriteString("- Keep a tone suitable for an elementary school counseling record\n")
	b.WriteString("- Preserve the core point of the original while explaining it more fully\n")
	b.WriteString("- Write about 2-3 paragraphs\n\n")
	b.WriteString("Improved consultation content:")
	return b.String()
}
