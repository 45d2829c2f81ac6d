package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"whereiam/internal/config"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandlers() *AuthHandlers {
	return NewAuthHandlers(&config.Config{Username: "hugo", Password: "pw", JWTSecret: "s3cret"})
}

func TestGenerateAndParseJWT(t *testing.T) {
	h := testHandlers()

	token, err := h.GenerateJWT("hugo")
	require.NoError(t, err)

	claims, err := h.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "hugo", claims.Username)
	assert.Greater(t, claims.ExpiresAt, time.Now().Unix())
}

func TestParseToken_Rejects(t *testing.T) {
	h := testHandlers()

	other := NewAuthHandlers(&config.Config{JWTSecret: "other"})
	foreign, err := other.GenerateJWT("hugo")
	require.NoError(t, err)
	_, err = h.ParseToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Username:       "hugo",
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(-time.Hour).Unix()},
	})
	expiredToken, err := expired.SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = h.ParseToken(expiredToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = h.ParseToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoginHandler(t *testing.T) {
	h := testHandlers()

	rec := httptest.NewRecorder()
	h.LoginHandler(rec, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"hugo","password":"pw"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotEmpty(t, body["token"])

	req := httptest.NewRequest(http.MethodGet, "/api/check-auth", nil)
	req.Header.Set("Authorization", "Bearer "+body["token"])
	rec = httptest.NewRecorder()
	h.CheckAuthHandler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.LoginHandler(rec, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"hugo","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.LoginHandler(rec, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckAuthHandler_MissingToken(t *testing.T) {
	rec := httptest.NewRecorder()
	testHandlers().CheckAuthHandler(rec, httptest.NewRequest(http.MethodGet, "/api/check-auth", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
