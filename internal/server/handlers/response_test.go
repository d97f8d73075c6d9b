package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral_wallet/internal/apperr"
	"referral_wallet/internal/wallet"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(apperr.KindInvalidArgument))
	assert.Equal(t, http.StatusUnauthorized, StatusFor(apperr.KindUnauthorized))
	assert.Equal(t, http.StatusNotFound, StatusFor(apperr.KindNotFound))
	assert.Equal(t, http.StatusConflict, StatusFor(apperr.KindConflict))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(apperr.KindInternal))
}

func runRespondError(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondError(c, zerolog.Nop(), err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestRespondErrorHidesInternalErrors(t *testing.T) {
	status, body := runRespondError(t, errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "INTERNAL", body["code"])
	assert.Equal(t, "Something went wrong", body["message"])
}

func TestRespondErrorUsesKind(t *testing.T) {
	status, body := runRespondError(t, wallet.ErrWalletNotFound)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "WALLET_NOT_FOUND", body["code"])
	assert.Equal(t, "Wallet not found", body["message"])
	assert.Equal(t, float64(http.StatusNotFound), body["status"])
}
