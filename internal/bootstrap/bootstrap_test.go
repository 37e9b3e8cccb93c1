package bootstrap

import (
	"testing"

	"github.com/kirillkom/research-assistant/internal/config"
	"github.com/kirillkom/research-assistant/internal/observability/logging"
)

func TestNewWiresTheApplication(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	app, err := New(config.Load(), logging.NewJSONLogger("test", "error"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if app.Sessions == nil {
		t.Fatalf("expected session service wired")
	}
	if app.Metrics == nil || app.MetricsHandler == nil {
		t.Fatalf("expected metrics wired")
	}
}

func TestNewToleratesNegativeBreakerKnobs(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("BREAKER_MIN_REQUESTS", "-3")
	t.Setenv("BREAKER_PROBE_CALLS", "-1")

	if _, err := New(config.Load(), logging.NewJSONLogger("test", "error")); err != nil {
		t.Fatalf("New() error = %v", err)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := New(config.Load(), logging.NewJSONLogger("test", "error")); err == nil {
		t.Fatalf("expected error without an api key")
	}
}

func TestClampUint32(t *testing.T) {
	if got := clampUint32(-5); got != 0 {
		t.Fatalf("expected negative to clamp to 0, got %d", got)
	}
	if got := clampUint32(7); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}
