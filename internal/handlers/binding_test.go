package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonContext(body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	account := uuid.MustParse("6f1c2a8e-0b7d-4d3e-9a51-3c2f8e4b7a10")

	tests := []struct {
		name        string
		key         string
		body        string
		amount      string
		kind        models.TransactionType
		expectError bool
	}{
		{
			name:   "wrapped under transaction",
			key:    "transaction",
			body:   `{"transaction": {"bank_account_id": "` + account.String() + `", "amount": "120.50", "type": "revenue", "transaction_date": "2024-03-15"}}`,
			amount: "120.50",
			kind:   models.TransactionRevenue,
		},
		{
			name:   "flat body",
			key:    "transaction",
			body:   `{"bank_account_id": "` + account.String() + `", "amount": 75, "type": "expense", "transaction_date": "2024-03-15"}`,
			amount: "75.00",
			kind:   models.TransactionExpense,
		},
		{
			name:   "other top-level keys fall back to flat",
			key:    "transaction",
			body:   `{"refund": {"amount": "1"}, "bank_account_id": "` + account.String() + `", "amount": "9.99", "type": "expense", "transaction_date": "2024-03-15"}`,
			amount: "9.99",
			kind:   models.TransactionExpense,
		},
		{
			name:        "malformed account id",
			key:         "transaction",
			body:        `{"transaction": {"bank_account_id": "acct-1", "amount": "10"}}`,
			expectError: true,
		},
		{
			name:        "wrapper is not an object",
			key:         "transaction",
			body:        `{"transaction": "revenue"}`,
			expectError: true,
		},
		{
			name:        "malformed date",
			key:         "transaction",
			body:        `{"bank_account_id": "` + account.String() + `", "amount": "10", "transaction_date": "15/03/2024"}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := jsonContext(tt.body)

			var input services.TransactionInput
			err := BindNestedOrFlat(c, tt.key, &input)

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, account, input.BankAccountID)
			assert.Equal(t, tt.amount, input.Amount.StringFixed(2))
			assert.Equal(t, tt.kind, input.Type)
			assert.Equal(t, civil.Date{Year: 2024, Month: 3, Day: 15}, input.TransactionDate)
		})
	}
}

func TestBindBody_RejectsMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, w := jsonContext(`{"refund": {"amount": `)

	var input services.RefundInput
	ok := bindBody(c, "refund", &input)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error  string              `json:"error"`
		Fields map[string][]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "validation failed", body.Error)
	assert.Contains(t, body.Fields, "body")
}

func TestBindBody_RereadableAfterBinding(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, w := jsonContext(`{"refund": {"amount": "40.00", "description": "damaged"}}`)

	var input services.RefundInput
	require.True(t, bindBody(c, "refund", &input))
	assert.Equal(t, "40.00", input.Amount.StringFixed(2))
	assert.Equal(t, "damaged", input.Description)
	assert.False(t, c.IsAborted())
	assert.Equal(t, http.StatusOK, w.Code)

	var again services.RefundInput
	require.NoError(t, BindNestedOrFlat(c, "refund", &again))
	assert.Equal(t, input, again)
}
