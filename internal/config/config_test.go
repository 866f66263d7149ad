package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "SERVER_PORT")
	unsetEnvWithCleanup(t, "BENEFICIARIES_SERVICE_URL")
	unsetEnvWithCleanup(t, "PAYMENT_PROCESSOR_URL")
	unsetEnvWithCleanup(t, "PAYMENT_SUBMIT_RATE_LIMIT_PER_MINUTE")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8082" {
		t.Fatalf("expected default port 8082, got %q", cfg.ServerPort)
	}
	if cfg.BeneficiariesServiceURL != "http://localhost:8080" {
		t.Fatalf("unexpected beneficiaries URL: %q", cfg.BeneficiariesServiceURL)
	}
	if cfg.BeneficiariesBasePath != "/api/v1/beneficiaries" {
		t.Fatalf("unexpected beneficiaries base path: %q", cfg.BeneficiariesBasePath)
	}
	if cfg.PaymentProcessorURL != "http://localhost:8081" {
		t.Fatalf("unexpected processor URL: %q", cfg.PaymentProcessorURL)
	}
	if cfg.PaymentProcessorBasePath != "/api/payments" {
		t.Fatalf("unexpected processor base path: %q", cfg.PaymentProcessorBasePath)
	}
	if cfg.PaymentSubmitRateLimitPerMinute != 0 {
		t.Fatalf("expected rate limiting disabled by default, got %d", cfg.PaymentSubmitRateLimitPerMinute)
	}
}

func TestLoadConfig_DefaultResiliencePolicies(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	beneficiaries := cfg.BeneficiariesPolicy()
	if beneficiaries.MaxAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", beneficiaries.MaxAttempts)
	}
	if beneficiaries.Backoff != 500*time.Millisecond {
		t.Fatalf("expected 500ms backoff, got %s", beneficiaries.Backoff)
	}
	if beneficiaries.CallTimeout != 3*time.Second {
		t.Fatalf("expected 3s call timeout, got %s", beneficiaries.CallTimeout)
	}
	if beneficiaries.Breaker.FailureRateThreshold != 50 {
		t.Fatalf("expected 50%% threshold, got %f", beneficiaries.Breaker.FailureRateThreshold)
	}
	if beneficiaries.Breaker.OpenDuration != 10*time.Second {
		t.Fatalf("expected 10s open duration, got %s", beneficiaries.Breaker.OpenDuration)
	}

	processor := cfg.PaymentProcessorPolicy()
	if processor.CallTimeout != 5*time.Second {
		t.Fatalf("expected 5s call timeout, got %s", processor.CallTimeout)
	}
	if processor.Breaker.SlidingWindowSize != 10 || processor.Breaker.MinimumCalls != 5 {
		t.Fatalf("unexpected breaker window config: %+v", processor.Breaker)
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "9090")
	setEnvWithCleanup(t, "BENEFICIARIES_SERVICE_URL", "http://beneficiaries:8080")
	setEnvWithCleanup(t, "PAYMENT_PROCESSOR_CALL_TIMEOUT_MS", "2500")
	setEnvWithCleanup(t, "BENEFICIARIES_BREAKER_MINIMUM_CALLS", "8")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.ServerPort)
	}
	if cfg.BeneficiariesServiceURL != "http://beneficiaries:8080" {
		t.Fatalf("unexpected beneficiaries URL: %q", cfg.BeneficiariesServiceURL)
	}
	if got := cfg.PaymentProcessorPolicy().CallTimeout; got != 2500*time.Millisecond {
		t.Fatalf("expected 2500ms call timeout, got %s", got)
	}
	if got := cfg.BeneficiariesPolicy().Breaker.MinimumCalls; got != 8 {
		t.Fatalf("expected minimum calls 8, got %d", got)
	}
}

func TestLoadConfig_NegativeRateLimitDisabled(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "PAYMENT_SUBMIT_RATE_LIMIT_PER_MINUTE", "-5")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PaymentSubmitRateLimitPerMinute != 0 {
		t.Fatalf("expected negative limit coerced to 0, got %d", cfg.PaymentSubmitRateLimitPerMinute)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
