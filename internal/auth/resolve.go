package auth

import (
	"context"
	"fmt"
	"os"

	"github.com/vyrodovalexey/avagql/internal/observability"
	"github.com/vyrodovalexey/avagql/internal/util"
)

// SecretReader reads a string value from a secret store.
// *vault.Client satisfies it.
type SecretReader interface {
	ReadString(ctx context.Context, mount, path, key string) (string, error)
}

// VaultSource locates a credential in a Vault KV secret.
type VaultSource struct {
	Mount string
	Path  string
	Key   string
}

// Config selects and configures a decorator.
type Config struct {
	// Type is one of TypeNone, TypeBearer, TypeHasuraAdmin or TypeJWT.
	// Empty means TypeBearer.
	Type string

	// Token is the explicit credential.
	Token string

	// TokenEnv names the environment fallback. Empty means DefaultTokenEnv.
	TokenEnv string

	// Vault is consulted when neither Token nor TokenEnv yield a value.
	Vault *VaultSource

	// JWT configures claims for TypeJWT.
	JWT JWTConfig
}

// Option is a functional option for New.
type Option func(*resolver)

type resolver struct {
	secrets   SecretReader
	lookupEnv func(string) (string, bool)
	logger    observability.Logger
}

// WithSecretReader sets the secret store used for Vault sources.
func WithSecretReader(r SecretReader) Option {
	return func(res *resolver) {
		res.secrets = r
	}
}

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(res *resolver) {
		res.lookupEnv = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(res *resolver) {
		res.logger = logger
	}
}

func newResolver(opts []Option) *resolver {
	res := &resolver{
		lookupEnv: os.LookupEnv,
		logger:    observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// New resolves credentials and builds the configured decorator.
func New(ctx context.Context, cfg Config, opts ...Option) (Decorator, error) {
	res := newResolver(opts)

	authType := cfg.Type
	if authType == "" {
		authType = TypeBearer
	}

	switch authType {
	case TypeNone:
		return Nop{}, nil
	case TypeBearer, TypeHasuraAdmin, TypeJWT:
	default:
		return nil, util.NewConfigError("auth.type", fmt.Sprintf("unsupported authentication type: %s", authType))
	}

	token, source, err := res.resolveToken(ctx, cfg)
	if err != nil {
		return nil, err
	}

	res.logger.Debug("auth decorator configured",
		observability.String("auth_type", authType),
		observability.String("credential_source", source),
	)

	switch authType {
	case TypeHasuraAdmin:
		return NewHasuraAdmin(token), nil
	case TypeJWT:
		return NewJWT(token, cfg.JWT), nil
	default:
		return NewBearer(token), nil
	}
}

// ResolveToken returns the credential for cfg: explicit token, else the
// environment, else Vault.
func ResolveToken(ctx context.Context, cfg Config, opts ...Option) (string, error) {
	token, _, err := newResolver(opts).resolveToken(ctx, cfg)
	return token, err
}

func (r *resolver) resolveToken(ctx context.Context, cfg Config) (token, source string, err error) {
	if cfg.Token != "" {
		return cfg.Token, "explicit", nil
	}

	envName := cfg.TokenEnv
	if envName == "" {
		envName = DefaultTokenEnv
	}
	if v, ok := r.lookupEnv(envName); ok && v != "" {
		return v, "env", nil
	}

	if cfg.Vault != nil {
		if r.secrets == nil {
			return "", "", util.NewConfigErrorWithCause("auth.vault",
				"vault source configured without a vault client", util.ErrMissingCredential)
		}
		v, err := r.secrets.ReadString(ctx, cfg.Vault.Mount, cfg.Vault.Path, cfg.Vault.Key)
		if err != nil {
			return "", "", util.NewConfigErrorWithCause("auth.vault",
				fmt.Sprintf("failed to read credential from vault: %v", err),
				fmt.Errorf("%w: %w", util.ErrMissingCredential, err))
		}
		return v, "vault", nil
	}

	return "", "", util.NewConfigErrorWithCause("auth.token",
		fmt.Sprintf("no token configured and %s is not set", envName), util.ErrMissingCredential)
}
