package auth

import (
	"go.uber.org/zap"
)

// PasswordSource resolves the shared admin secret. It is consulted on every
// login attempt so a changed secret applies without a restart.
type PasswordSource interface {
	AdminPassword() (password string, isDefault bool)
}

// Gate is the single shared-secret check in front of the application. It is
// a plain string comparison with no lockout or hashing and is not meant as a
// security boundary.
type Gate struct {
	passwords PasswordSource
	logger    *zap.Logger
}

func NewGate(passwords PasswordSource, logger *zap.Logger) *Gate {
	return &Gate{passwords: passwords, logger: logger.Named("gate")}
}

func (g *Gate) IsAuthenticated(s *Session) bool {
	return s != nil && s.Authenticated()
}

// AttemptLogin unlocks s when candidate equals the admin secret.
func (g *Gate) AttemptLogin(s *Session, candidate string) bool {
	if s == nil {
		return false
	}

	password, isDefault := g.passwords.AdminPassword()
	if isDefault {
		g.logger.Warn("⚠️ ADMIN_PASSWORD is not set; the built-in default password is in use")
	}

	if candidate != password {
		g.logger.Info("❌ Login rejected", zap.String("session", s.ID))
		return false
	}

	s.setAuthenticated(true)
	g.logger.Info("✅ Login accepted", zap.String("session", s.ID))
	return true
}

// Logout locks s again and drops its transient form state.
func (g *Gate) Logout(s *Session) {
	if s == nil {
		return
	}
	s.setAuthenticated(false)
	g.logger.Info("🚪 Logged out", zap.String("session", s.ID))
}
