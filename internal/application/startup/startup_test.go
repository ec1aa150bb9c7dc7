package startup

import (
	"log/slog"
	"testing"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/pkg/config"
)

func quietLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: false,
		JSONFormat:      true,
		DefaultLevel:    slog.LevelError,
	})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

func TestEnsureJWTSecretGeneratesWhenUnset(t *testing.T) {
	prev := config.JWTSecret
	config.JWTSecret = ""
	t.Cleanup(func() { config.JWTSecret = prev })

	if err := ensureJWTSecret(quietLogger(t)); err != nil {
		t.Fatalf("ensureJWTSecret returned error: %v", err)
	}
	if len(config.JWTSecret) != 64 {
		t.Errorf("generated secret length = %d, want 64 hex characters", len(config.JWTSecret))
	}
}

func TestEnsureJWTSecretKeepsConfiguredValue(t *testing.T) {
	prev := config.JWTSecret
	config.JWTSecret = "configured-secret"
	t.Cleanup(func() { config.JWTSecret = prev })

	if err := ensureJWTSecret(quietLogger(t)); err != nil {
		t.Fatalf("ensureJWTSecret returned error: %v", err)
	}
	if config.JWTSecret != "configured-secret" {
		t.Errorf("secret = %q, want the configured value untouched", config.JWTSecret)
	}
}
