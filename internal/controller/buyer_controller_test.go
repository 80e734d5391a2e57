package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getBuyerStatus(t *testing.T, env *testEnv, uuid string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/buyers/"+uuid+"/status", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestBuyerStatus_Known(t *testing.T) {
	env := newTestEnv(t, false)
	env.backend.JSON(http.MethodGet, "/generic/buyer/", http.StatusOK,
		`{"meta": {"total_count": 1}, "objects": [{
			"resource_pk": 42, "uuid": "buyer-uuid", "pin": true,
			"pin_is_locked_out": false, "pin_was_locked_out": true,
			"needs_pin_reset": false}]}`)

	w := getBuyerStatus(t, env, "buyer-uuid")
	require.Equal(t, http.StatusOK, w.Code)

	var resp BuyerStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Exists)
	assert.True(t, resp.HasPIN)
	assert.True(t, resp.PinWasLockedOut)
	assert.False(t, resp.PinIsLockedOut)
}

func TestBuyerStatus_Unknown(t *testing.T) {
	env := newTestEnv(t, false)
	env.backend.JSON(http.MethodGet, "/generic/buyer/", http.StatusOK,
		`{"meta": {"total_count": 0}, "objects": []}`)

	w := getBuyerStatus(t, env, "nobody")
	require.Equal(t, http.StatusOK, w.Code)

	var resp BuyerStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Exists)
	assert.False(t, resp.HasPIN)
}
