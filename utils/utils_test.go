package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		amount   string
		currency string
		want     string
	}{
		{"0", "", "$0.00"},
		{"22", "MXN", "$22.00 MXN"},
		{"1234.5", "MXN", "$1,234.50 MXN"},
		{"1234567.891", "", "$1,234,567.89"},
		{"-2", "USD", "-$2.00 USD"},
		{"999.999", "", "$1,000.00"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatMoney(decimal.RequireFromString(tc.amount), tc.currency), tc.amount)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	defer SetJWTSecret("dev-secret-change-me")

	token, err := GenerateToken(7, "cashier", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "cashier", claims.Role)
	assert.Equal(t, "RestaurantPOS", claims.Issuer)
}

func TestParseTokenRejects(t *testing.T) {
	SetJWTSecret("test-secret")
	defer SetJWTSecret("dev-secret-change-me")

	expired, err := GenerateToken(7, "cashier", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired)
	assert.Error(t, err)

	noUser, err := GenerateToken(0, "admin", time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(noUser)
	assert.Error(t, err)

	// token dari secret lain
	SetJWTSecret("other-secret")
	foreign, err := GenerateToken(7, "admin", time.Hour)
	require.NoError(t, err)
	SetJWTSecret("test-secret")
	_, err = ParseToken(foreign)
	assert.Error(t, err)

	// algoritma none ditolak
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &CustomClaims{UserID: 1, Role: "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(unsigned)
	assert.Error(t, err)

	_, err = ParseToken("garbage")
	assert.Error(t, err)
}

func TestRespondHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondErrorKind(c, http.StatusConflict, "no_open_shift", errors.New("no cash register shift is open"))

	assert.Equal(t, http.StatusConflict, w.Code)
	var body JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Status)
	assert.Equal(t, "no_open_shift", body.Kind)
	assert.Equal(t, "no cash register shift is open", body.Message)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	RespondJSON(c, http.StatusOK, "ok", gin.H{"id": 1})
	body = JSONResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Status)
	assert.Equal(t, "ok", body.Message)
	assert.Empty(t, body.Kind)
}
