// Package auth guards mutating routes with HMAC-signed bearer tokens.
package auth

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/milan604/permcatalog/pkg/apperr"
	"github.com/milan604/permcatalog/pkg/config"
	"github.com/milan604/permcatalog/pkg/response"
)

const claimsKey = "auth_claims"

var signingMethods = []string{"HS256", "HS384", "HS512"}

// JWTConfig configures JWTAuth.
type JWTConfig struct {
	Secret     string        // HMAC key; empty rejects every token
	Issuer     string        // expected iss, checked when set
	Audience   string        // expected aud, checked when set
	Leeway     time.Duration // clock skew allowed on exp and nbf
	HeaderName string        // default: Authorization
}

// JWTConfigFrom maps the auth.* settings.
func JWTConfigFrom(s config.AuthSettings) JWTConfig {
	return JWTConfig{
		Secret:   s.JWTSecret,
		Issuer:   s.Issuer,
		Audience: s.Audience,
		Leeway:   s.Leeway,
	}
}

// Enabled reports whether a signing secret is configured.
func (c JWTConfig) Enabled() bool {
	return c.Secret != ""
}

// JWTAuth validates the bearer token and stores its claims on the context.
// Tokens must carry exp.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "Authorization"
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(signingMethods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	parser := jwt.NewParser(opts...)
	key := []byte(cfg.Secret)

	return func(c *gin.Context) {
		tok, ok := bearerToken(c.GetHeader(cfg.HeaderName))
		if !ok {
			abort(c, apperr.Newf(apperr.ErrorCodeUnauthorized, "missing bearer token"))
			return
		}
		if !cfg.Enabled() {
			abort(c, apperr.Newf(apperr.ErrorCodeUnauthorized, "token authentication is not configured"))
			return
		}

		claims := jwt.MapClaims{}
		_, err := parser.ParseWithClaims(tok, claims, func(*jwt.Token) (any, error) {
			return key, nil
		})
		if err != nil {
			abort(c, apperr.Newf(apperr.ErrorCodeUnauthorized, "invalid token").Wrap(err))
			return
		}

		c.Set(claimsKey, Claims{m: claims})
		c.Next()
	}
}

// RequireScopes enforces presence of ALL scopes. It must run after JWTAuth.
func RequireScopes(scopes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, ok := GetClaims(c)
		if !ok {
			abort(c, apperr.New(apperr.ErrorCodeUnauthorized))
			return
		}
		have := make(map[string]struct{})
		for _, s := range cl.Scopes() {
			have[s] = struct{}{}
		}
		for _, s := range scopes {
			if _, ok := have[s]; !ok {
				abort(c, apperr.Newf(apperr.ErrorCodeForbidden, "token lacks scope %q", s))
				return
			}
		}
		c.Next()
	}
}

// Claims is a thin wrapper around verified JWT claims.
type Claims struct{ m jwt.MapClaims }

func (c Claims) Subject() string { s, _ := c.m["sub"].(string); return s }

// Scopes reads a space separated scope claim or an scp array.
func (c Claims) Scopes() []string {
	if s, ok := c.m["scope"].(string); ok {
		return strings.Fields(s)
	}
	arr, ok := c.m["scp"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// GetClaims returns the claims JWTAuth stored on c.
func GetClaims(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return Claims{}, false
	}
	cl, ok := v.(Claims)
	return cl, ok
}

func bearerToken(h string) (string, bool) {
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}

func abort(c *gin.Context, err *apperr.AppError) {
	response.JSONError(c, err)
	c.Abort()
}
