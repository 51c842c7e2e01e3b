package vault

import (
	"context"
	"fmt"
	"strings"
	"time"

	vaultapi "github.com/hashicorp/vault/api"

	"github.com/vyrodovalexey/avagql/internal/observability"
	"github.com/vyrodovalexey/avagql/internal/retry"
	"github.com/vyrodovalexey/avagql/internal/util"
)

// DefaultTimeout bounds a single Vault request.
const DefaultTimeout = 10 * time.Second

// Config represents Vault client configuration.
type Config struct {
	// Address is the Vault server address.
	Address string

	// Token authenticates requests. Empty falls back to VAULT_TOKEN.
	Token string

	// Namespace is the Vault namespace (Enterprise feature).
	Namespace string

	// Timeout bounds a single request.
	Timeout time.Duration

	// Retry controls retries of network failures.
	Retry *retry.Config
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Address == "" {
		return util.NewConfigErrorWithCause("auth.vault.address", "vault address is required", ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return util.NewConfigErrorWithCause("auth.vault.timeout", "must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// Client reads secrets from Vault.
type Client struct {
	api     *vaultapi.Client
	logger  observability.Logger
	retry   *retry.Config
	sleeper retry.Sleeper
}

// ClientOption is a functional option for configuring the client.
type ClientOption func(*Client)

// WithSleeper replaces the sleeper used between retries.
func WithSleeper(s retry.Sleeper) ClientOption {
	return func(c *Client) {
		c.sleeper = s
	}
}

// New creates a new Vault client.
func New(cfg Config, logger observability.Logger, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	apiConfig := vaultapi.DefaultConfig()
	apiConfig.Address = cfg.Address
	apiConfig.Timeout = DefaultTimeout
	if cfg.Timeout > 0 {
		apiConfig.Timeout = cfg.Timeout
	}
	// Retries are driven by retry.Do so they share the jittered backoff.
	apiConfig.MaxRetries = 0

	api, err := vaultapi.NewClient(apiConfig)
	if err != nil {
		return nil, NewError("init", "", err)
	}
	if cfg.Token != "" {
		api.SetToken(cfg.Token)
	}
	if cfg.Namespace != "" {
		api.SetNamespace(cfg.Namespace)
	}

	retryCfg := cfg.Retry
	if retryCfg == nil {
		retryCfg = &retry.Config{
			MaxTries: 3,
			Jitter:   retry.JitterConfig{Multiplier: 0.25, MaxSleep: 5, ExpBase: 2},
		}
	}

	c := &Client{
		api:     api,
		logger:  logger.With(observability.String("component", "vault")),
		retry:   retryCfg,
		sleeper: retry.TimerSleeper,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ReadKV reads a KV secret. Both v2 (mount/data/path) and v1 layouts are
// understood.
func (c *Client) ReadKV(ctx context.Context, mount, path string) (map[string]any, error) {
	mount = strings.Trim(mount, "/")
	path = strings.Trim(path, "/")
	if mount == "" || path == "" {
		return nil, NewError("kv_read", path, ErrInvalidPath)
	}

	fullPath := fmt.Sprintf("%s/data/%s", mount, path)

	var secret *vaultapi.Secret
	err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
		var err error
		secret, err = c.api.Logical().ReadWithContext(ctx, fullPath)
		return err
	}, &retry.Options{
		ShouldRetry: retry.IsNetworkError,
		Sleeper:     c.sleeper,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			c.logger.Debug("retrying vault read",
				observability.String("path", fullPath),
				observability.Int("attempt", attempt),
				observability.Duration("backoff", backoff),
				observability.Error(err),
			)
		},
	})
	if err != nil {
		return nil, NewError("kv_read", fullPath, err)
	}

	if secret == nil || secret.Data == nil {
		return nil, NewError("kv_read", fullPath, ErrSecretNotFound)
	}

	// KV v2 wraps data in a "data" key; deleted secrets have data: null.
	dataValue, hasData := secret.Data["data"]
	if hasData && dataValue == nil {
		return nil, NewError("kv_read", fullPath, ErrSecretNotFound)
	}

	data, ok := dataValue.(map[string]any)
	if !ok {
		data = secret.Data
	}

	c.logger.Debug("secret read", observability.String("path", fullPath))
	return data, nil
}

// ReadString reads a single string value from a KV secret.
func (c *Client) ReadString(ctx context.Context, mount, path, key string) (string, error) {
	data, err := c.ReadKV(ctx, mount, path)
	if err != nil {
		return "", err
	}

	value, ok := data[key].(string)
	if !ok || value == "" {
		return "", NewError("kv_read", mount+"/"+path, fmt.Errorf("%w: %s", ErrKeyNotFound, key))
	}
	return value, nil
}
