package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionHandler_Lifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/transactions", map[string]interface{}{
		"transaction": map[string]interface{}{
			"bank_account_id":  s.checking,
			"category_id":      s.revenue,
			"description":      "Invoice 42",
			"amount":           "250.00",
			"type":             "revenue",
			"transaction_date": "2024-03-15",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)["transaction"].(map[string]interface{})
	assert.Equal(t, "250.00", created["amount"])
	assert.Equal(t, "1250.00", s.balance(s.checking))
	id := created["id"].(string)

	w = s.do(http.MethodPatch, "/transactions/"+id, map[string]interface{}{"amount": "100.00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1100.00", s.balance(s.checking))

	w = s.do(http.MethodPost, "/transactions/"+id+"/refund", map[string]interface{}{"amount": "150.00", "description": "too much"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["fields"], "amount")

	w = s.do(http.MethodPost, "/transactions/"+id+"/refund", map[string]interface{}{"amount": "40.00", "description": "damaged"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "1100.00", s.balance(s.checking))

	w = s.do(http.MethodGet, "/transactions?type=reversal", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["transactions"], 1)
	assert.Equal(t, float64(1), body["pagination"].(map[string]interface{})["total"])

	w = s.do(http.MethodDelete, "/transactions/"+id, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "1000.00", s.balance(s.checking))
}

func TestTransactionHandler_ErrorMapping(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"validation collects fields", http.MethodPost, "/transactions", map[string]interface{}{"bank_account_id": s.checking, "amount": "-1", "type": "revenue"}, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/transactions", "not an object", http.StatusBadRequest},
		{"unknown id", http.MethodGet, "/transactions/" + uuid.NewString(), nil, http.StatusNotFound},
		{"id that is not a uuid", http.MethodGet, "/transactions/42", nil, http.StatusNotFound},
		{"bad list filter", http.MethodGet, "/transactions?date_from=yesterday", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestTransactionHandler_Export(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/transactions/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "Date,Description"))

	w = s.do(http.MethodGet, "/transactions/export?format=odt", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBankAccountHandler_Transfer(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/bank-accounts/"+s.checking.String()+"/transfer", map[string]interface{}{
		"to_bank_account_id":   s.savings,
		"amount":               "1000.00",
		"deduction_percentage": "10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "1000.00", body["outgoing"].(map[string]interface{})["amount"])
	assert.Equal(t, "900.00", body["incoming"].(map[string]interface{})["amount"])
	assert.Equal(t, "0.00", s.balance(s.checking))
	assert.Equal(t, "900.00", s.balance(s.savings))

	w = s.do(http.MethodGet, "/bank-accounts/total-balance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "900.00", decode(t, w)["total_balance"])
}
