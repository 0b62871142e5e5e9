package config

import "github.com/Skotchmaster/storefront/pkg/config"

const (
	ModeAtomic = "atomic"
	ModeLocked = "locked"
)

type ServiceConfig struct {
	config.Config
}

func Load() ServiceConfig {
	cfg := config.Load()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustOneOf(cfg.CartUpsertMode, "CART_UPSERT_MODE", ModeAtomic, ModeLocked)
	if cfg.SendGridAPIKey != "" {
		config.MustNonEmpty(cfg.SendGridFrom, "SENDGRID_FROM")
	}

	return ServiceConfig{Config: cfg}
}

// NewsletterEnabled reports whether mail delivery is configured.
func (c ServiceConfig) NewsletterEnabled() bool { return c.SendGridAPIKey != "" }

func (c ServiceConfig) SearchEnabled() bool { return c.ESURL != "" }
