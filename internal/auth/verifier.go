package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the verified principal carried by an access token.
type Identity struct {
	Subject string
	Picture *string
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type claims struct {
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

func identityFrom(token *jwt.Token) (*Identity, error) {
	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(c.Subject) == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	id := &Identity{Subject: c.Subject}
	if c.Picture != "" {
		picture := c.Picture
		id.Picture = &picture
	}
	return id, nil
}

// JWKSVerifier validates RS256 tokens issued by an Auth0 tenant against the
// tenant's published key set.
type JWKSVerifier struct {
	keyFunc jwt.Keyfunc
	parser  *jwt.Parser
}

// NewJWKSVerifier fetches https://<domain>/.well-known/jwks.json and keeps it
// refreshed in the background until ctx is cancelled.
func NewJWKSVerifier(ctx context.Context, domain, audience string) (*JWKSVerifier, error) {
	domain = strings.TrimSuffix(strings.TrimPrefix(domain, "https://"), "/")
	if domain == "" {
		return nil, errors.New("auth0 domain is required")
	}

	keys, err := keyfunc.NewDefaultCtx(ctx, []string{"https://" + domain + "/.well-known/jwks.json"})
	if err != nil {
		return nil, fmt.Errorf("load jwks: %w", err)
	}
	return newJWKSVerifier(keys.Keyfunc, "https://"+domain+"/", audience), nil
}

func newJWKSVerifier(keyFunc jwt.Keyfunc, issuer, audience string) *JWKSVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &JWKSVerifier{keyFunc: keyFunc, parser: jwt.NewParser(opts...)}
}

func (v *JWKSVerifier) Verify(_ context.Context, tokenString string) (*Identity, error) {
	token, err := v.parser.ParseWithClaims(tokenString, &claims{}, v.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return identityFrom(token)
}

// HMACVerifier validates HS256 tokens signed with a shared secret. It is
// meant for local development and tests.
type HMACVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

func (v *HMACVerifier) Verify(_ context.Context, tokenString string) (*Identity, error) {
	token, err := v.parser.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return identityFrom(token)
}

// SignHMAC issues an HS256 token for subject. Used by tests and local tooling.
func SignHMAC(secret, subject, picture string, expiresAt *jwt.NumericDate) (string, error) {
	c := claims{Picture: picture, RegisteredClaims: jwt.RegisteredClaims{Subject: subject, ExpiresAt: expiresAt}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}
