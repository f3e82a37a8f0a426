package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObligationHandler_RecordPaymentOnce(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/bills", map[string]interface{}{
		"bill": map[string]interface{}{"description": "Electricity", "amount": "120.00", "due_date": "2024-03-10"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["bill"].(map[string]interface{})["id"].(string)

	payment := map[string]interface{}{"bank_account_id": s.checking, "transaction_date": "2024-03-12"}
	w = s.do(http.MethodPost, "/bills/"+id+"/record-payment", payment)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "settled", body["bill"].(map[string]interface{})["status"])
	assert.Equal(t, "expense", body["transaction"].(map[string]interface{})["type"])
	assert.Equal(t, "880.00", s.balance(s.checking))

	w = s.do(http.MethodPost, "/bills/"+id+"/record-payment", payment)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["fields"], "status")
	assert.Equal(t, "880.00", s.balance(s.checking))
}

func TestRecurringHandler_CreateAndPreview(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/recurring-incomes", map[string]interface{}{
		"category_id": s.revenue,
		"description": "Retainer",
		"amount":      "500.00",
		"frequency":   "monthly",
		"start_date":  "2024-01-31",
		"end_date":    "2024-12-31",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["recurring_income"].(map[string]interface{})["id"].(string)

	w = s.do(http.MethodGet, "/recurring-incomes/"+id+"/preview?count=3", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []interface{}{"2024-01-31", "2024-02-29", "2024-03-29"}, decode(t, w)["due_dates"])

	w = s.do(http.MethodPost, "/recurring-incomes", map[string]interface{}{
		"description": "Backwards",
		"amount":      "1.00",
		"frequency":   "monthly",
		"start_date":  "2024-05-01",
		"end_date":    "2024-01-01",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["fields"], "end_date")
}

func TestDashboardHandler_Month(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/dashboard/month?year=2024&month=3", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, float64(3), body["month"])
	assert.Equal(t, "0.00", body["net"])

	w = s.do(http.MethodGet, "/dashboard/month?month=march", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
