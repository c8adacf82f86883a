package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testClientID = "client-123.apps.googleusercontent.com"

type testIdP struct {
	key           *rsa.PrivateKey
	userinfo      *httptest.Server
	jwks          *httptest.Server
	userinfoEmail string
}

func newTestIdP(t *testing.T) *testIdP {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	idp := &testIdP{key: key}

	idp.userinfo = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if idp.userinfoEmail == "" || r.Header.Get("Authorization") != "Bearer opaque-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"email": idp.userinfoEmail, "name": "Test User"})
	}))
	t.Cleanup(idp.userinfo.Close)

	idp.jwks = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": "test-key",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	}))
	t.Cleanup(idp.jwks.Close)

	return idp
}

func (idp *testIdP) signIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = "test-key"
	signed, err := tok.SignedString(idp.key)
	require.NoError(t, err)
	return signed
}

func newTestVerifier(idp *testIdP, allowed []string) *Verifier {
	v := NewVerifier(testClientID, allowed, zap.NewNop())
	v.userinfoURL = idp.userinfo.URL
	v.jwks = newJWKSCache(v.httpClient, idp.jwks.URL)
	return v
}

func TestVerifyAccessToken(t *testing.T) {
	idp := newTestIdP(t)
	idp.userinfoEmail = "a@x.com"
	v := newTestVerifier(idp, nil)

	identity, err := v.Verify(context.Background(), "Bearer opaque-token")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", identity.Email)
	assert.Equal(t, "Test User", identity.Name)
}

func TestVerifyFallsBackToIDToken(t *testing.T) {
	idp := newTestIdP(t)
	v := newTestVerifier(idp, nil)

	token := idp.signIDToken(t, jwt.MapClaims{
		"iss":   "https://accounts.google.com",
		"aud":   testClientID,
		"email": "b@x.com",
		"name":  "B",
	})

	identity, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", identity.Email)
}

func TestVerifyRejectsMissingToken(t *testing.T) {
	idp := newTestIdP(t)
	v := newTestVerifier(idp, nil)

	_, err := v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyRejectsGarbageToken(t *testing.T) {
	idp := newTestIdP(t)
	v := newTestVerifier(idp, nil)

	_, err := v.Verify(context.Background(), "Bearer not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	idp := newTestIdP(t)
	v := newTestVerifier(idp, nil)

	token := idp.signIDToken(t, jwt.MapClaims{
		"iss":   "https://accounts.google.com",
		"aud":   "someone-else",
		"email": "b@x.com",
	})
	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyRejectsExpiredIDToken(t *testing.T) {
	idp := newTestIdP(t)
	v := newTestVerifier(idp, nil)

	token := idp.signIDToken(t, jwt.MapClaims{
		"iss":   "https://accounts.google.com",
		"aud":   testClientID,
		"email": "b@x.com",
		"exp":   time.Now().Add(-time.Hour).Unix(),
	})
	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAllowList(t *testing.T) {
	idp := newTestIdP(t)
	idp.userinfoEmail = "A@X.com"

	t.Run("member passes case-insensitively", func(t *testing.T) {
		v := newTestVerifier(idp, []string{"a@x.com"})
		identity, err := v.Verify(context.Background(), "opaque-token")
		require.NoError(t, err)
		assert.Equal(t, "A@X.com", identity.Email)
	})

	t.Run("non-member rejected", func(t *testing.T) {
		v := newTestVerifier(idp, []string{"someone@else.com"})
		_, err := v.Verify(context.Background(), "opaque-token")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("empty list permits all", func(t *testing.T) {
		v := newTestVerifier(idp, nil)
		_, err := v.Verify(context.Background(), "opaque-token")
		assert.NoError(t, err)
	})
}
