package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/vyrodovalexey/avagql/internal/util"
)

// DefaultJWTTTL is the lifetime of signed tokens.
const DefaultJWTTTL = 5 * time.Minute

// JWTConfig configures the claims of signed tokens.
type JWTConfig struct {
	Issuer   string
	Subject  string
	Audience []string
	TTL      time.Duration

	// Claims are added verbatim to every token.
	Claims map[string]any
}

// JWT signs a fresh HS256 token for every request and sends it as a
// bearer credential.
type JWT struct {
	secret []byte
	cfg    JWTConfig
	now    func() time.Time
}

// NewJWT creates a JWT decorator signing with secret.
func NewJWT(secret string, cfg JWTConfig) *JWT {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultJWTTTL
	}
	return &JWT{
		secret: []byte(secret),
		cfg:    cfg,
		now:    time.Now,
	}
}

// Sign returns a signed compact token.
func (j *JWT) Sign() (string, error) {
	now := j.now()

	builder := jwt.NewBuilder().
		JwtID(uuid.NewString()).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(j.cfg.TTL))
	if j.cfg.Issuer != "" {
		builder = builder.Issuer(j.cfg.Issuer)
	}
	if j.cfg.Subject != "" {
		builder = builder.Subject(j.cfg.Subject)
	}
	if len(j.cfg.Audience) > 0 {
		builder = builder.Audience(j.cfg.Audience)
	}
	for k, v := range j.cfg.Claims {
		builder = builder.Claim(k, v)
	}

	tok, err := builder.Build()
	if err != nil {
		return "", util.WrapError(err, "build jwt")
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, j.secret))
	if err != nil {
		return "", util.WrapError(err, "sign jwt")
	}
	return string(signed), nil
}

// Apply implements Decorator.
func (j *JWT) Apply(_ context.Context, h http.Header) error {
	token, err := j.Sign()
	if err != nil {
		return err
	}
	h.Set(AuthorizationHeader, BearerPrefix+" "+token)
	return nil
}
