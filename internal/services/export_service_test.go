package services

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExport_CSVFollowsFilters(t *testing.T) {
	f := newFixture(t)
	office := f.category("Office", models.CategoryExpense, &f.expense).ID
	f.post(models.TransactionExpense, f.checking, "40.00", &office)
	f.post(models.TransactionExpense, f.savings, "15.50", &f.expense)
	f.post(models.TransactionRevenue, f.checking, "99.00", &f.revenue)

	data, name, err := f.svc.Export.Transactions(f.ctx, f.company, TransactionListParams{CategoryID: &f.expense}, ExportCSV)
	require.NoError(t, err)
	assert.Contains(t, name, ".csv")

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, exportHeader, records[0])

	byAccount := map[string][]string{}
	for _, r := range records[1:] {
		byAccount[r[3]] = r
	}
	assert.Equal(t, []string{"2024-03-15", "expense 40.00", "expense", "Checking", "Office", "40.00"}, byAccount["Checking"])
	assert.Equal(t, "Rent", byAccount["Savings"][4])
	assert.Equal(t, "15.50", byAccount["Savings"][5])
}

func TestExport_XLSX(t *testing.T) {
	f := newFixture(t)
	f.post(models.TransactionRevenue, f.checking, "99.00", &f.revenue)

	data, name, err := f.svc.Export.Transactions(f.ctx, f.company, TransactionListParams{}, ExportXLSX)
	require.NoError(t, err)
	assert.Contains(t, name, ".xlsx")

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("Transactions")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "Sales", rows[1][4])
}

func TestExport_PDF(t *testing.T) {
	f := newFixture(t)
	f.post(models.TransactionRevenue, f.checking, "99.00", &f.revenue)

	data, name, err := f.svc.Export.Transactions(f.ctx, f.company, TransactionListParams{}, ExportPDF)
	require.NoError(t, err)
	assert.Contains(t, name, ".pdf")
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestExport_UnknownFormat(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.svc.Export.Transactions(f.ctx, f.company, TransactionListParams{}, "docx")
	requireFields(t, err, "format")
}
