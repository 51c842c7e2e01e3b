package config

import (
	"time"

	"github.com/vyrodovalexey/avagql/internal/auth"
	"github.com/vyrodovalexey/avagql/internal/graphql/client"
	"github.com/vyrodovalexey/avagql/internal/graphql/transport"
	"github.com/vyrodovalexey/avagql/internal/observability"
	"github.com/vyrodovalexey/avagql/internal/retry"
	"github.com/vyrodovalexey/avagql/internal/vault"
)

// Config is the root configuration of the GraphQL client.
type Config struct {
	Endpoint      string              `yaml:"endpoint" json:"endpoint"`
	Headers       map[string]string   `yaml:"headers,omitempty" json:"headers,omitempty"`
	Auth          AuthConfig          `yaml:"auth" json:"auth"`
	Retry         RetryConfig         `yaml:"retry" json:"retry"`
	Transport     TransportConfig     `yaml:"transport" json:"transport"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// AuthConfig configures request credentials.
type AuthConfig struct {
	Type     string       `yaml:"type" json:"type"`
	Token    string       `yaml:"token,omitempty" json:"token,omitempty"`
	TokenEnv string       `yaml:"tokenEnv,omitempty" json:"tokenEnv,omitempty"`
	Vault    *VaultConfig `yaml:"vault,omitempty" json:"vault,omitempty"`
	JWT      *JWTConfig   `yaml:"jwt,omitempty" json:"jwt,omitempty"`
}

// VaultConfig locates the credential in a Vault KV secret.
type VaultConfig struct {
	Address   string   `yaml:"address" json:"address"`
	Token     string   `yaml:"token,omitempty" json:"token,omitempty"`
	Namespace string   `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Timeout   Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Mount     string   `yaml:"mount" json:"mount"`
	Path      string   `yaml:"path" json:"path"`
	Key       string   `yaml:"key" json:"key"`
}

// JWTConfig configures the claims of signed tokens.
type JWTConfig struct {
	Issuer   string         `yaml:"issuer,omitempty" json:"issuer,omitempty"`
	Subject  string         `yaml:"subject,omitempty" json:"subject,omitempty"`
	Audience []string       `yaml:"audience,omitempty" json:"audience,omitempty"`
	TTL      Duration       `yaml:"ttl,omitempty" json:"ttl,omitempty"`
	Claims   map[string]any `yaml:"claims,omitempty" json:"claims,omitempty"`
}

// RetryConfig configures the retry engine. Sleep values are seconds.
type RetryConfig struct {
	MaxTries             int     `yaml:"maxTries" json:"maxTries"`
	Multiplier           float64 `yaml:"multiplier" json:"multiplier"`
	MaxSleep             float64 `yaml:"maxSleep" json:"maxSleep"`
	ExpBase              float64 `yaml:"expBase" json:"expBase"`
	MinSleep             float64 `yaml:"minSleep" json:"minSleep"`
	ExcInfo              bool    `yaml:"excInfo" json:"excInfo"`
	RetryOnGraphQLErrors bool    `yaml:"retryOnGraphQLErrors" json:"retryOnGraphQLErrors"`
}

// TransportConfig configures the HTTP transport.
type TransportConfig struct {
	Timeout             Duration              `yaml:"timeout" json:"timeout"`
	MaxResponseBytes    int64                 `yaml:"maxResponseBytes,omitempty" json:"maxResponseBytes,omitempty"`
	MaxIdleConns        int                   `yaml:"maxIdleConns" json:"maxIdleConns"`
	MaxIdleConnsPerHost int                   `yaml:"maxIdleConnsPerHost" json:"maxIdleConnsPerHost"`
	IdleConnTimeout     Duration              `yaml:"idleConnTimeout" json:"idleConnTimeout"`
	RateLimit           *RateLimitConfig      `yaml:"rateLimit,omitempty" json:"rateLimit,omitempty"`
	CircuitBreaker      *CircuitBreakerConfig `yaml:"circuitBreaker,omitempty" json:"circuitBreaker,omitempty"`
}

// RateLimitConfig configures client-side rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" json:"enabled"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond" json:"requestsPerSecond"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	Threshold int      `yaml:"threshold" json:"threshold"`
	Timeout   Duration `yaml:"timeout" json:"timeout"`
}

// ObservabilityConfig configures logging, metrics and tracing.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
	Path    string `yaml:"path" json:"path"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Endpoint     string  `yaml:"endpoint" json:"endpoint"`
	ServiceName  string  `yaml:"serviceName" json:"serviceName"`
	SamplingRate float64 `yaml:"samplingRate" json:"samplingRate"`
	Insecure     bool    `yaml:"insecure" json:"insecure"`
}

// Default values.
const (
	DefaultTimeout          = 30 * time.Second
	DefaultMaxResponseBytes = 10 * 1024 * 1024
	DefaultBreakerThreshold = 5
	DefaultBreakerTimeout   = 30 * time.Second
	DefaultMetricsAddress   = ":9091"
	DefaultVaultTimeout     = 10 * time.Second
	DefaultVaultMount       = "secret"
	DefaultVaultKey         = "token"
)

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	pool := transport.DefaultPoolConfig()
	logCfg := observability.DefaultLogConfig()

	return &Config{
		Auth: AuthConfig{
			Type:     auth.TypeBearer,
			TokenEnv: auth.DefaultTokenEnv,
		},
		Retry: RetryConfig{
			MaxTries:   retry.DefaultMaxTries,
			Multiplier: retry.DefaultMultiplier,
			MaxSleep:   retry.DefaultMaxSleep,
			ExpBase:    retry.DefaultExpBase,
			MinSleep:   retry.DefaultMinSleep,
		},
		Transport: TransportConfig{
			Timeout:             Duration(DefaultTimeout),
			MaxResponseBytes:    DefaultMaxResponseBytes,
			MaxIdleConns:        pool.MaxIdleConns,
			MaxIdleConnsPerHost: pool.MaxIdleConnsPerHost,
			IdleConnTimeout:     Duration(pool.IdleConnTimeout),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  logCfg.Level,
				Format: logCfg.Format,
				Output: logCfg.Output,
			},
			Metrics: MetricsConfig{
				Address: DefaultMetricsAddress,
				Path:    observability.DefaultMetricsPath,
			},
			Tracing: TracingConfig{
				ServiceName:  observability.DefaultServiceName,
				SamplingRate: 1.0,
			},
		},
	}
}

// ExecuteOptions returns the client-level execution defaults.
func (c *Config) ExecuteOptions() client.ExecuteOptions {
	return client.ExecuteOptions{
		MaxTries: c.Retry.MaxTries,
		Backoff: retry.JitterConfig{
			Multiplier: c.Retry.Multiplier,
			MaxSleep:   c.Retry.MaxSleep,
			ExpBase:    c.Retry.ExpBase,
			MinSleep:   c.Retry.MinSleep,
		},
		ExcInfo:              c.Retry.ExcInfo,
		RetryOnGraphQLErrors: c.Retry.RetryOnGraphQLErrors,
	}
}

// ClientConfig returns the client configuration.
func (c *Config) ClientConfig() client.Config {
	opts := c.ExecuteOptions()
	return client.Config{
		Endpoint: c.Endpoint,
		Headers:  c.Headers,
		Retry:    &opts,
	}
}

// AuthDecoratorConfig returns the auth configuration.
func (c *Config) AuthDecoratorConfig() auth.Config {
	cfg := auth.Config{
		Type:     c.Auth.Type,
		Token:    c.Auth.Token,
		TokenEnv: c.Auth.TokenEnv,
	}
	if v := c.Auth.Vault; v != nil {
		cfg.Vault = &auth.VaultSource{Mount: v.Mount, Path: v.Path, Key: v.Key}
	}
	if j := c.Auth.JWT; j != nil {
		cfg.JWT = auth.JWTConfig{
			Issuer:   j.Issuer,
			Subject:  j.Subject,
			Audience: j.Audience,
			TTL:      j.TTL.Duration(),
			Claims:   j.Claims,
		}
	}
	return cfg
}

// VaultClientConfig returns the Vault client configuration, or nil when no
// Vault source is configured.
func (c *Config) VaultClientConfig() *vault.Config {
	v := c.Auth.Vault
	if v == nil {
		return nil
	}
	return &vault.Config{
		Address:   v.Address,
		Token:     v.Token,
		Namespace: v.Namespace,
		Timeout:   v.Timeout.Duration(),
	}
}

// PoolConfig returns the connection pool settings.
func (c *Config) PoolConfig() transport.PoolConfig {
	return transport.PoolConfig{
		MaxIdleConns:        c.Transport.MaxIdleConns,
		MaxIdleConnsPerHost: c.Transport.MaxIdleConnsPerHost,
		IdleConnTimeout:     c.Transport.IdleConnTimeout.Duration(),
	}
}

// BreakerConfig returns the circuit breaker settings and whether the
// breaker is enabled.
func (c *Config) BreakerConfig() (transport.BreakerConfig, bool) {
	cb := c.Transport.CircuitBreaker
	if cb == nil || !cb.Enabled {
		return transport.BreakerConfig{}, false
	}
	return transport.BreakerConfig{
		Name:      "graphql",
		Threshold: cb.Threshold,
		Timeout:   cb.Timeout.Duration(),
	}, true
}

// LogConfig returns the logger configuration.
func (c *Config) LogConfig() observability.LogConfig {
	return observability.LogConfig{
		Level:  c.Observability.Logging.Level,
		Format: c.Observability.Logging.Format,
		Output: c.Observability.Logging.Output,
	}
}

// TracerConfig returns the tracer configuration.
func (c *Config) TracerConfig() observability.TracerConfig {
	t := c.Observability.Tracing
	return observability.TracerConfig{
		ServiceName:  t.ServiceName,
		OTLPEndpoint: t.Endpoint,
		SamplingRate: t.SamplingRate,
		Enabled:      t.Enabled,
		Insecure:     t.Insecure,
	}
}
