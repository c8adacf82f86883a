// Package auth verifies Google bearer tokens and applies the email allow-list.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/OneMuppet/ai-transformation-presentation-api/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ErrUnauthorized is returned for missing, invalid, or disallowed credentials.
var ErrUnauthorized = errors.New("unauthorized")

const (
	googleUserinfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	googleCertsURL    = "https://www.googleapis.com/oauth2/v3/certs"
)

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// Verifier exchanges a bearer token for a verified identity. An opaque
// access token is tried first against the userinfo endpoint; a signed ID
// token is verified locally against Google's JWKS as a fallback.
type Verifier struct {
	httpClient    *http.Client
	clientID      string
	allowedEmails []string
	log           *zap.Logger

	userinfoURL string
	jwks        *jwksCache
}

// NewVerifier creates a verifier for the given OAuth client id. The
// allow-list is optional: empty permits every verified identity.
func NewVerifier(clientID string, allowedEmails []string, log *zap.Logger) *Verifier {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	return &Verifier{
		httpClient:    httpClient,
		clientID:      clientID,
		allowedEmails: allowedEmails,
		log:           log,
		userinfoURL:   googleUserinfoURL,
		jwks:          newJWKSCache(httpClient, googleCertsURL),
	}
}

// Verify resolves the bearer token to an identity or ErrUnauthorized.
func (v *Verifier) Verify(ctx context.Context, bearer string) (*models.Identity, error) {
	token := strings.TrimSpace(bearer)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[len("bearer "):])
	}
	if token == "" {
		return nil, ErrUnauthorized
	}

	identity, err := v.verifyAccessToken(ctx, token)
	if err != nil {
		v.log.Debug("userinfo lookup failed, trying id token", zap.Error(err))
		identity, err = v.verifyIDToken(ctx, token)
	}
	if err != nil {
		v.log.Info("token verification failed", zap.Error(err))
		return nil, ErrUnauthorized
	}

	if !v.allowed(identity.Email) {
		v.log.Info("verified identity not on allow-list", zap.String("email", identity.Email))
		return nil, ErrUnauthorized
	}
	return identity, nil
}

// verifyAccessToken treats the token as an opaque access token and asks the
// userinfo endpoint who it belongs to.
func (v *Verifier) verifyAccessToken(ctx context.Context, token string) (*models.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userinfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned %s", resp.Status)
	}

	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, errors.New("userinfo response missing email")
	}
	return &models.Identity{Email: info.Email, Name: info.Name}, nil
}

// verifyIDToken verifies a signed Google ID token locally: RS256 signature
// against the JWKS, issuer and audience checks, then email extraction.
func (v *Verifier) verifyIDToken(ctx context.Context, token string) (*models.Identity, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	claims := jwt.MapClaims{}
	tok, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		return v.jwks.getKey(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid id token: %w", err)
	}
	if !tok.Valid {
		return nil, errors.New("invalid id token")
	}

	iss, _ := claims["iss"].(string)
	if !issuerAllowed(iss) {
		return nil, fmt.Errorf("issuer mismatch: %q", iss)
	}
	if v.clientID != "" && !audContains(claims["aud"], v.clientID) {
		return nil, errors.New("audience mismatch")
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return nil, errors.New("id token missing email")
	}
	name, _ := claims["name"].(string)
	return &models.Identity{Email: email, Name: name}, nil
}

// allowed applies the allow-list: empty list permits all, otherwise exact
// case-insensitive membership.
func (v *Verifier) allowed(email string) bool {
	if len(v.allowedEmails) == 0 {
		return true
	}
	lower := strings.ToLower(email)
	for _, e := range v.allowedEmails {
		if strings.ToLower(e) == lower {
			return true
		}
	}
	return false
}

func issuerAllowed(iss string) bool {
	for _, allowed := range googleIssuers {
		if iss == allowed {
			return true
		}
	}
	return false
}

// audContains handles both string and []string aud claims.
func audContains(aud any, want string) bool {
	switch a := aud.(type) {
	case string:
		return a == want
	case []any:
		for _, v := range a {
			if s, ok := v.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

// jwksCache fetches and caches Google's signing keys, refetching once when
// an unknown kid shows up (key rotation).
type jwksCache struct {
	httpClient *http.Client
	url        string

	mu   sync.Mutex
	keys map[string]*rsa.PublicKey
}

func newJWKSCache(httpClient *http.Client, url string) *jwksCache {
	return &jwksCache{httpClient: httpClient, url: url}
}

func (c *jwksCache) getKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if key, ok := c.keys[kid]; ok {
		return key, nil
	}
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}
	if key, ok := c.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("unknown signing key %q", kid)
}

func (c *jwksCache) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks request failed: %s", resp.Status)
	}

	var doc struct {
		Keys []struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return err
	}

	keys := map[string]*rsa.PublicKey{}
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaKeyFromJWK(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	c.keys = keys
	return nil
}

func rsaKeyFromJWK(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, err
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: int(new(big.Int).SetBytes(eb).Int64()),
	}, nil
}
