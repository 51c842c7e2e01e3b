package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/vyrodovalexey/avagql/internal/auth"
	"github.com/vyrodovalexey/avagql/internal/util"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// validator accumulates validation errors.
type validator struct {
	errors ValidationErrors
}

// Validate checks cfg and returns a *util.ConfigError wrapping
// ValidationErrors. Unset fields of the optional vault and circuit breaker
// sections are filled with defaults. An empty endpoint is allowed: it is
// resolved from the environment when the client is created.
func Validate(cfg *Config) error {
	v := &validator{}

	if cfg == nil {
		v.addError("", "configuration is nil")
	} else {
		v.validateEndpoint(cfg.Endpoint)
		v.validateAuth(&cfg.Auth)
		v.validateRetry(&cfg.Retry)
		v.validateTransport(&cfg.Transport)
		v.validateObservability(&cfg.Observability)
	}

	if v.errors.HasErrors() {
		return util.NewConfigErrorWithCause("", v.errors.Error(), v.errors)
	}
	return nil
}

func (v *validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *validator) validateEndpoint(endpoint string) {
	if endpoint == "" {
		return
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		v.addError("endpoint", fmt.Sprintf("invalid URL: %v", err))
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		v.addError("endpoint", "scheme must be http or https")
	}
	if u.Host == "" {
		v.addError("endpoint", "host is required")
	}
}

func (v *validator) validateAuth(a *AuthConfig) {
	switch a.Type {
	case "", auth.TypeNone, auth.TypeBearer, auth.TypeHasuraAdmin, auth.TypeJWT:
	default:
		v.addError("auth.type", fmt.Sprintf("unsupported authentication type %q", a.Type))
	}

	if a.Vault != nil {
		if a.Vault.Address == "" {
			v.addError("auth.vault.address", "address is required")
		}
		if a.Vault.Path == "" {
			v.addError("auth.vault.path", "path is required")
		}
		if a.Vault.Mount == "" {
			a.Vault.Mount = DefaultVaultMount
		}
		if a.Vault.Key == "" {
			a.Vault.Key = DefaultVaultKey
		}
		if a.Vault.Timeout == 0 {
			a.Vault.Timeout = Duration(DefaultVaultTimeout)
		}
	}

	if a.JWT != nil && a.JWT.TTL < 0 {
		v.addError("auth.jwt.ttl", "must be non-negative")
	}
}

func (v *validator) validateRetry(r *RetryConfig) {
	if r.MaxTries < 1 {
		v.addError("retry.maxTries", "must be at least 1")
	}
	if r.Multiplier < 0 {
		v.addError("retry.multiplier", "must be non-negative")
	}
	if r.MaxSleep < 0 {
		v.addError("retry.maxSleep", "must be non-negative")
	}
	if r.ExpBase <= 0 {
		v.addError("retry.expBase", "must be positive")
	}
	if r.MinSleep < 0 {
		v.addError("retry.minSleep", "must be non-negative")
	}
}

func (v *validator) validateTransport(t *TransportConfig) {
	if t.Timeout < 0 {
		v.addError("transport.timeout", "must be non-negative")
	}
	if t.MaxResponseBytes < 0 {
		v.addError("transport.maxResponseBytes", "must be non-negative")
	}
	if t.MaxIdleConns < 0 {
		v.addError("transport.maxIdleConns", "must be non-negative")
	}
	if t.MaxIdleConnsPerHost < 0 {
		v.addError("transport.maxIdleConnsPerHost", "must be non-negative")
	}

	if rl := t.RateLimit; rl != nil && rl.Enabled {
		if rl.RequestsPerSecond <= 0 {
			v.addError("transport.rateLimit.requestsPerSecond", "must be positive")
		}
		if rl.Burst < 1 {
			v.addError("transport.rateLimit.burst", "must be at least 1")
		}
	}

	if cb := t.CircuitBreaker; cb != nil && cb.Enabled {
		if cb.Threshold == 0 {
			cb.Threshold = DefaultBreakerThreshold
		}
		if cb.Threshold < 1 {
			v.addError("transport.circuitBreaker.threshold", "must be at least 1")
		}
		if cb.Timeout == 0 {
			cb.Timeout = Duration(DefaultBreakerTimeout)
		}
		if cb.Timeout < 0 {
			v.addError("transport.circuitBreaker.timeout", "must be non-negative")
		}
	}
}

func (v *validator) validateObservability(o *ObservabilityConfig) {
	switch strings.ToLower(o.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		v.addError("observability.logging.level", fmt.Sprintf("unsupported level %q", o.Logging.Level))
	}
	switch o.Logging.Format {
	case "", "json", "console":
	default:
		v.addError("observability.logging.format", fmt.Sprintf("unsupported format %q", o.Logging.Format))
	}

	if o.Metrics.Enabled {
		if o.Metrics.Address == "" {
			v.addError("observability.metrics.address", "address is required when metrics are enabled")
		}
		if !strings.HasPrefix(o.Metrics.Path, "/") {
			v.addError("observability.metrics.path", "must start with /")
		}
	}

	if o.Tracing.Enabled {
		if o.Tracing.Endpoint == "" {
			v.addError("observability.tracing.endpoint", "endpoint is required when tracing is enabled")
		}
		if o.Tracing.SamplingRate < 0 || o.Tracing.SamplingRate > 1 {
			v.addError("observability.tracing.samplingRate", "must be between 0 and 1")
		}
	}
}
