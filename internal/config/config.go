/**
 * @description
 * This package handles the configuration management for the service. It
 * uses the Viper library to read configuration from environment variables,
 * providing a centralized and straightforward way to manage application
 * settings, including the per-service resilience policies for the two
 * downstream dependencies.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 * - pkg/resilience: Policy types built from the loaded values.
 */

package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/payflow/payment-consumer-service/pkg/resilience"
)

// Config holds all the configuration variables for the
// payment-consumer-service. These values are loaded from environment
// variables.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`

	DatabaseURL          string `mapstructure:"DATABASE_URL"`
	RedisURL             string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`

	RabbitMQURL           string `mapstructure:"RABBITMQ_URL"`
	PaymentEventsExchange string `mapstructure:"PAYMENT_EVENTS_EXCHANGE"`

	BeneficiariesServiceURL  string `mapstructure:"BENEFICIARIES_SERVICE_URL"`
	BeneficiariesBasePath    string `mapstructure:"BENEFICIARIES_BASE_PATH"`
	PaymentProcessorURL      string `mapstructure:"PAYMENT_PROCESSOR_URL"`
	PaymentProcessorBasePath string `mapstructure:"PAYMENT_PROCESSOR_BASE_PATH"`

	BeneficiariesRetryMaxAttempts            int     `mapstructure:"BENEFICIARIES_RETRY_MAX_ATTEMPTS"`
	BeneficiariesRetryBackoffMs              int     `mapstructure:"BENEFICIARIES_RETRY_BACKOFF_MS"`
	BeneficiariesCallTimeoutMs               int     `mapstructure:"BENEFICIARIES_CALL_TIMEOUT_MS"`
	BeneficiariesBreakerFailureRateThreshold float64 `mapstructure:"BENEFICIARIES_BREAKER_FAILURE_RATE_THRESHOLD"`
	BeneficiariesBreakerSlidingWindowSize    int     `mapstructure:"BENEFICIARIES_BREAKER_SLIDING_WINDOW_SIZE"`
	BeneficiariesBreakerMinimumCalls         int     `mapstructure:"BENEFICIARIES_BREAKER_MINIMUM_CALLS"`
	BeneficiariesBreakerOpenDurationSeconds  int     `mapstructure:"BENEFICIARIES_BREAKER_OPEN_DURATION_SECONDS"`
	BeneficiariesBreakerHalfOpenMaxCalls     int     `mapstructure:"BENEFICIARIES_BREAKER_HALF_OPEN_MAX_CALLS"`

	PaymentProcessorRetryMaxAttempts            int     `mapstructure:"PAYMENT_PROCESSOR_RETRY_MAX_ATTEMPTS"`
	PaymentProcessorRetryBackoffMs              int     `mapstructure:"PAYMENT_PROCESSOR_RETRY_BACKOFF_MS"`
	PaymentProcessorCallTimeoutMs               int     `mapstructure:"PAYMENT_PROCESSOR_CALL_TIMEOUT_MS"`
	PaymentProcessorBreakerFailureRateThreshold float64 `mapstructure:"PAYMENT_PROCESSOR_BREAKER_FAILURE_RATE_THRESHOLD"`
	PaymentProcessorBreakerSlidingWindowSize    int     `mapstructure:"PAYMENT_PROCESSOR_BREAKER_SLIDING_WINDOW_SIZE"`
	PaymentProcessorBreakerMinimumCalls         int     `mapstructure:"PAYMENT_PROCESSOR_BREAKER_MINIMUM_CALLS"`
	PaymentProcessorBreakerOpenDurationSeconds  int     `mapstructure:"PAYMENT_PROCESSOR_BREAKER_OPEN_DURATION_SECONDS"`
	PaymentProcessorBreakerHalfOpenMaxCalls     int     `mapstructure:"PAYMENT_PROCESSOR_BREAKER_HALF_OPEN_MAX_CALLS"`

	PaymentSubmitRateLimitPerMinute int `mapstructure:"PAYMENT_SUBMIT_RATE_LIMIT_PER_MINUTE"`
}

// LoadConfig reads configuration from environment variables from the given
// path. It uses Viper to automatically bind environment variables to the
// Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8082")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "payflow:rate_limit")
	viper.SetDefault("PAYMENT_EVENTS_EXCHANGE", "payment_events")
	viper.SetDefault("BENEFICIARIES_SERVICE_URL", "http://localhost:8080")
	viper.SetDefault("BENEFICIARIES_BASE_PATH", "/api/v1/beneficiaries")
	viper.SetDefault("PAYMENT_PROCESSOR_URL", "http://localhost:8081")
	viper.SetDefault("PAYMENT_PROCESSOR_BASE_PATH", "/api/payments")
	viper.SetDefault("BENEFICIARIES_RETRY_MAX_ATTEMPTS", 3)
	viper.SetDefault("BENEFICIARIES_RETRY_BACKOFF_MS", 500)
	viper.SetDefault("BENEFICIARIES_CALL_TIMEOUT_MS", 3000)
	viper.SetDefault("BENEFICIARIES_BREAKER_FAILURE_RATE_THRESHOLD", 50.0)
	viper.SetDefault("BENEFICIARIES_BREAKER_SLIDING_WINDOW_SIZE", 10)
	viper.SetDefault("BENEFICIARIES_BREAKER_MINIMUM_CALLS", 5)
	viper.SetDefault("BENEFICIARIES_BREAKER_OPEN_DURATION_SECONDS", 10)
	viper.SetDefault("BENEFICIARIES_BREAKER_HALF_OPEN_MAX_CALLS", 3)
	viper.SetDefault("PAYMENT_PROCESSOR_RETRY_MAX_ATTEMPTS", 3)
	viper.SetDefault("PAYMENT_PROCESSOR_RETRY_BACKOFF_MS", 500)
	viper.SetDefault("PAYMENT_PROCESSOR_CALL_TIMEOUT_MS", 5000)
	viper.SetDefault("PAYMENT_PROCESSOR_BREAKER_FAILURE_RATE_THRESHOLD", 50.0)
	viper.SetDefault("PAYMENT_PROCESSOR_BREAKER_SLIDING_WINDOW_SIZE", 10)
	viper.SetDefault("PAYMENT_PROCESSOR_BREAKER_MINIMUM_CALLS", 5)
	viper.SetDefault("PAYMENT_PROCESSOR_BREAKER_OPEN_DURATION_SECONDS", 10)
	viper.SetDefault("PAYMENT_PROCESSOR_BREAKER_HALF_OPEN_MAX_CALLS", 3)
	viper.SetDefault("PAYMENT_SUBMIT_RATE_LIMIT_PER_MINUTE", 0)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("PAYMENT_EVENTS_EXCHANGE")
	_ = viper.BindEnv("BENEFICIARIES_SERVICE_URL")
	_ = viper.BindEnv("BENEFICIARIES_BASE_PATH")
	_ = viper.BindEnv("PAYMENT_PROCESSOR_URL")
	_ = viper.BindEnv("PAYMENT_PROCESSOR_BASE_PATH")
	_ = viper.BindEnv("BENEFICIARIES_RETRY_MAX_ATTEMPTS")
	_ = viper.BindEnv("BENEFICIARIES_RETRY_BACKOFF_MS")
	_ = viper.BindEnv("BENEFICIARIES_CALL_TIMEOUT_MS")
	_ = viper.BindEnv("BENEFICIARIES_BREAKER_FAILURE_RATE_THRESHOLD")
	_ = viper.BindEnv("BENEFICIARIES_BREAKER_SLIDING_WINDOW_SIZE")
	_ = viper.BindEnv("BENEFICIARIES_BREAKER_MINIMUM_CALLS")
	_ = viper.BindEnv("BENEFICIARIES_BREAKER_OPEN_DURATION_SECONDS")
	_ = viper.BindEnv("BENEFICIARIES_BREAKER_HALF_OPEN_MAX_CALLS")
	_ = viper.BindEnv("PAYMENT_PROCESSOR_RETRY_MAX_ATTEMPTS")
	_ = viper.BindEnv("PAYMENT_PROCESSOR_RETRY_BACKOFF_MS")
	_ = viper.BindEnv("PAYMENT_PROCESSOR_CALL_TIMEOUT_MS")
	_ = viper.BindEnv("PAYMENT_PROCESSOR_BREAKER_FAILURE_RATE_THRESHOLD")
	_ = viper.BindEnv("PAYMENT_PROCESSOR_BREAKER_SLIDING_WINDOW_SIZE")
	_ = viper.BindEnv("PAYMENT_PROCESSOR_BREAKER_MINIMUM_CALLS")
	_ = viper.BindEnv("PAYMENT_PROCESSOR_BREAKER_OPEN_DURATION_SECONDS")
	_ = viper.BindEnv("PAYMENT_PROCESSOR_BREAKER_HALF_OPEN_MAX_CALLS")
	_ = viper.BindEnv("PAYMENT_SUBMIT_RATE_LIMIT_PER_MINUTE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "payflow:rate_limit"
	}

	if config.PaymentSubmitRateLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative submission rate limit configured; disabling\" value=%d", config.PaymentSubmitRateLimitPerMinute)
		config.PaymentSubmitRateLimitPerMinute = 0
	}

	return
}

// BeneficiariesPolicy builds the resilience policy for the beneficiaries
// service from the loaded values. Out-of-range values fall back to the
// resilience package defaults.
func (c Config) BeneficiariesPolicy() resilience.Policy {
	return resilience.Policy{
		MaxAttempts: c.BeneficiariesRetryMaxAttempts,
		Backoff:     time.Duration(c.BeneficiariesRetryBackoffMs) * time.Millisecond,
		CallTimeout: time.Duration(c.BeneficiariesCallTimeoutMs) * time.Millisecond,
		Breaker: resilience.BreakerConfig{
			FailureRateThreshold: c.BeneficiariesBreakerFailureRateThreshold,
			SlidingWindowSize:    c.BeneficiariesBreakerSlidingWindowSize,
			MinimumCalls:         c.BeneficiariesBreakerMinimumCalls,
			OpenDuration:         time.Duration(c.BeneficiariesBreakerOpenDurationSeconds) * time.Second,
			HalfOpenMaxCalls:     c.BeneficiariesBreakerHalfOpenMaxCalls,
		},
	}
}

// PaymentProcessorPolicy builds the resilience policy for the payment
// processor from the loaded values.
func (c Config) PaymentProcessorPolicy() resilience.Policy {
	return resilience.Policy{
		MaxAttempts: c.PaymentProcessorRetryMaxAttempts,
		Backoff:     time.Duration(c.PaymentProcessorRetryBackoffMs) * time.Millisecond,
		CallTimeout: time.Duration(c.PaymentProcessorCallTimeoutMs) * time.Millisecond,
		Breaker: resilience.BreakerConfig{
			FailureRateThreshold: c.PaymentProcessorBreakerFailureRateThreshold,
			SlidingWindowSize:    c.PaymentProcessorBreakerSlidingWindowSize,
			MinimumCalls:         c.PaymentProcessorBreakerMinimumCalls,
			OpenDuration:         time.Duration(c.PaymentProcessorBreakerOpenDurationSeconds) * time.Second,
			HalfOpenMaxCalls:     c.PaymentProcessorBreakerHalfOpenMaxCalls,
		},
	}
}
