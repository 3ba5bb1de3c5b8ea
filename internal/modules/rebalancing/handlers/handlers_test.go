package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Validation happens before the service is touched, so these requests
// must be rejected without one.
func newValidationRouter() chi.Router {
	router := chi.NewRouter()
	NewHandler(nil, zerolog.Nop()).RegisterRoutes(router)
	return router
}

func postBalance(router chi.Router, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/balance", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBalanceRejectsBadBody(t *testing.T) {
	router := newValidationRouter()

	rec := postBalance(router, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Invalid request body", body["detail"])
}

func TestBalanceRejectsBadAmounts(t *testing.T) {
	router := newValidationRouter()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"zero amount", `{"amount_to_buy": 0}`, "amount_to_buy must be greater than 0"},
		{"negative amount", `{"amount_to_buy": -100}`, "amount_to_buy must be greater than 0"},
		{"negative minimum", `{"amount_to_buy": 100, "min_amount_to_buy": -5}`, "min_amount_to_buy must be greater than 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postBalance(router, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body["detail"])
		})
	}
}

func TestBalanceRejectsUnknownStrategy(t *testing.T) {
	router := newValidationRouter()

	rec := postBalance(router, `{"amount_to_buy": 100, "strategy": "yolo"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["detail"], "yolo")
}

func TestPlansRejectsBadLimit(t *testing.T) {
	router := newValidationRouter()

	for _, limit := range []string{"abc", "0", "-3"} {
		req := httptest.NewRequest(http.MethodGet, "/balance/plans?limit="+limit, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "limit must be a positive integer", body["detail"])
	}
}
