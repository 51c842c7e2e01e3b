package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avagql/internal/util"
	"github.com/vyrodovalexey/avagql/internal/vault"
)

var _ SecretReader = (*vault.Client)(nil)

type fakeSecrets struct {
	value string
	err   error
	calls int
	got   VaultSource
}

func (f *fakeSecrets) ReadString(_ context.Context, mount, path, key string) (string, error) {
	f.calls++
	f.got = VaultSource{Mount: mount, Path: path, Key: key}
	return f.value, f.err
}

func noEnv(string) (string, bool) { return "", false }

func envOf(vals map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vals[k]
		return v, ok
	}
}

func TestNew_Variants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cfg        Config
		wantHeader string
		wantValue  string
	}{
		{
			name:       "default type is bearer",
			cfg:        Config{Token: "abc"},
			wantHeader: "Authorization",
			wantValue:  "bearer abc",
		},
		{
			name:       "bearer",
			cfg:        Config{Type: TypeBearer, Token: "xyz"},
			wantHeader: "Authorization",
			wantValue:  "bearer xyz",
		},
		{
			name:       "hasura admin",
			cfg:        Config{Type: TypeHasuraAdmin, Token: "s3cret"},
			wantHeader: "X-Hasura-Admin-Secret",
			wantValue:  "s3cret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dec, err := New(context.Background(), tt.cfg, WithLookupEnv(noEnv))
			require.NoError(t, err)

			h := http.Header{}
			require.NoError(t, dec.Apply(context.Background(), h))
			assert.Equal(t, tt.wantValue, h.Get(tt.wantHeader))
		})
	}
}

func TestNew_None(t *testing.T) {
	t.Parallel()

	dec, err := New(context.Background(), Config{Type: TypeNone}, WithLookupEnv(noEnv))
	require.NoError(t, err)

	h := http.Header{}
	require.NoError(t, dec.Apply(context.Background(), h))
	assert.Empty(t, h)
}

func TestNew_UnsupportedType(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Type: "digest", Token: "x"})
	require.Error(t, err)
	assert.True(t, util.IsConfigError(err))
	assert.Contains(t, err.Error(), "digest")
}

func TestResolveToken_Precedence(t *testing.T) {
	t.Parallel()

	t.Run("explicit wins over env", func(t *testing.T) {
		t.Parallel()
		token, err := ResolveToken(context.Background(), Config{Token: "explicit"},
			WithLookupEnv(envOf(map[string]string{DefaultTokenEnv: "env"})))
		require.NoError(t, err)
		assert.Equal(t, "explicit", token)
	})

	t.Run("default env variable", func(t *testing.T) {
		t.Parallel()
		token, err := ResolveToken(context.Background(), Config{},
			WithLookupEnv(envOf(map[string]string{DefaultTokenEnv: "from-env"})))
		require.NoError(t, err)
		assert.Equal(t, "from-env", token)
	})

	t.Run("custom env variable", func(t *testing.T) {
		t.Parallel()
		token, err := ResolveToken(context.Background(), Config{TokenEnv: "HASURA_SECRET"},
			WithLookupEnv(envOf(map[string]string{
				DefaultTokenEnv: "ignored",
				"HASURA_SECRET": "custom",
			})))
		require.NoError(t, err)
		assert.Equal(t, "custom", token)
	})

	t.Run("env wins over vault", func(t *testing.T) {
		t.Parallel()
		secrets := &fakeSecrets{value: "vault"}
		token, err := ResolveToken(context.Background(),
			Config{Vault: &VaultSource{Mount: "secret", Path: "gql", Key: "token"}},
			WithLookupEnv(envOf(map[string]string{DefaultTokenEnv: "env"})),
			WithSecretReader(secrets))
		require.NoError(t, err)
		assert.Equal(t, "env", token)
		assert.Zero(t, secrets.calls)
	})

	t.Run("vault fallback", func(t *testing.T) {
		t.Parallel()
		secrets := &fakeSecrets{value: "vault-token"}
		src := VaultSource{Mount: "secret", Path: "gql", Key: "token"}
		token, err := ResolveToken(context.Background(), Config{Vault: &src},
			WithLookupEnv(noEnv), WithSecretReader(secrets))
		require.NoError(t, err)
		assert.Equal(t, "vault-token", token)
		assert.Equal(t, src, secrets.got)
	})

	t.Run("empty env value is ignored", func(t *testing.T) {
		t.Parallel()
		_, err := ResolveToken(context.Background(), Config{},
			WithLookupEnv(envOf(map[string]string{DefaultTokenEnv: ""})))
		require.Error(t, err)
		assert.ErrorIs(t, err, util.ErrMissingCredential)
	})
}

func TestResolveToken_Missing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		secrets SecretReader
	}{
		{name: "nothing configured", cfg: Config{}},
		{
			name: "vault without client",
			cfg:  Config{Vault: &VaultSource{Mount: "secret", Path: "gql", Key: "token"}},
		},
		{
			name:    "vault read fails",
			cfg:     Config{Vault: &VaultSource{Mount: "secret", Path: "gql", Key: "token"}},
			secrets: &fakeSecrets{err: errors.New("permission denied")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := []Option{WithLookupEnv(noEnv)}
			if tt.secrets != nil {
				opts = append(opts, WithSecretReader(tt.secrets))
			}

			dec, err := New(context.Background(), tt.cfg, opts...)
			require.Error(t, err)
			assert.Nil(t, dec)
			assert.True(t, util.IsConfigError(err))
			assert.ErrorIs(t, err, util.ErrMissingCredential)
		})
	}
}

func TestJWT_Sign(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	j := NewJWT("hmac-secret", JWTConfig{
		Issuer:   "avagql",
		Subject:  "svc",
		Audience: []string{"hasura"},
		Claims:   map[string]any{"role": "admin"},
	})
	j.now = func() time.Time { return fixed }

	signed, err := j.Sign()
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(signed, "."))

	tok, err := jwt.Parse([]byte(signed),
		jwt.WithKey(jwa.HS256, []byte("hmac-secret")),
		jwt.WithValidate(false))
	require.NoError(t, err)

	assert.Equal(t, "avagql", tok.Issuer())
	assert.Equal(t, "svc", tok.Subject())
	assert.Equal(t, []string{"hasura"}, tok.Audience())
	assert.True(t, tok.IssuedAt().Equal(fixed))
	assert.True(t, tok.Expiration().Equal(fixed.Add(DefaultJWTTTL)))
	assert.NotEmpty(t, tok.JwtID())

	role, ok := tok.Get("role")
	require.True(t, ok)
	assert.Equal(t, "admin", role)
}

func TestJWT_WrongKeyRejected(t *testing.T) {
	t.Parallel()

	signed, err := NewJWT("right", JWTConfig{}).Sign()
	require.NoError(t, err)

	_, err = jwt.Parse([]byte(signed), jwt.WithKey(jwa.HS256, []byte("wrong")))
	assert.Error(t, err)
}

func TestJWT_ApplyFreshTokenPerRequest(t *testing.T) {
	t.Parallel()

	dec, err := New(context.Background(), Config{Type: TypeJWT, Token: "k", JWT: JWTConfig{TTL: time.Minute}},
		WithLookupEnv(noEnv))
	require.NoError(t, err)

	h1, h2 := http.Header{}, http.Header{}
	require.NoError(t, dec.Apply(context.Background(), h1))
	require.NoError(t, dec.Apply(context.Background(), h2))

	assert.True(t, strings.HasPrefix(h1.Get(AuthorizationHeader), "bearer "))
	assert.NotEqual(t, h1.Get(AuthorizationHeader), h2.Get(AuthorizationHeader))
}

func TestDecoratorFunc(t *testing.T) {
	t.Parallel()

	var dec Decorator = DecoratorFunc(func(_ context.Context, h http.Header) error {
		h.Set("X-Custom", "1")
		return nil
	})

	h := http.Header{}
	require.NoError(t, dec.Apply(context.Background(), h))
	assert.Equal(t, "1", h.Get("X-Custom"))
}
