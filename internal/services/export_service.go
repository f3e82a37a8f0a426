package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/repository"
	"github.com/fintelis/fintelis-api/internal/schedule"
	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Export formats
const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
	ExportPDF  = "pdf"
)

// maxExportRows caps a single export
const maxExportRows = 10000

// ExportRow is one transaction line of an export
type ExportRow struct {
	Date        string
	Description string
	Type        models.TransactionType
	BankAccount string
	Category    string
	Amount      decimal.Decimal
}

type ExportService struct {
	repos      *repository.Repositories
	categories *CategoryService
}

func NewExportService(repos *repository.Repositories, categories *CategoryService) *ExportService {
	return &ExportService{repos: repos, categories: categories}
}

// Transactions renders the filtered transactions of a company in the given
// format and returns the file content and a suggested file name
func (s *ExportService) Transactions(ctx context.Context, companyID uuid.UUID, params TransactionListParams, format string) ([]byte, string, error) {
	rows, err := s.rows(ctx, companyID, params)
	if err != nil {
		return nil, "", err
	}

	stamp := time.Now().Format("2006-01-02")
	switch format {
	case ExportCSV, "":
		data, err := exportCSV(rows)
		return data, fmt.Sprintf("transactions_%s.csv", stamp), err
	case ExportXLSX:
		data, err := exportXLSX(rows)
		return data, fmt.Sprintf("transactions_%s.xlsx", stamp), err
	case ExportPDF:
		data, err := exportPDF(rows)
		return data, fmt.Sprintf("transactions_%s.pdf", stamp), err
	default:
		return nil, "", Invalid("format", "must be csv, xlsx or pdf")
	}
}

func (s *ExportService) rows(ctx context.Context, companyID uuid.UUID, params TransactionListParams) ([]ExportRow, error) {
	filter := repository.TransactionFilter{Type: params.Type, BankAccountID: params.BankAccountID}
	if params.CategoryID != nil {
		ids, err := s.categories.DescendantIDs(ctx, companyID, *params.CategoryID)
		if err != nil {
			return nil, err
		}
		filter.CategoryIDs = ids
	}
	if params.DateFrom != nil {
		from := schedule.ToTime(*params.DateFrom)
		filter.DateFrom = &from
	}
	if params.DateTo != nil {
		to := schedule.ToTime(*params.DateTo)
		filter.DateTo = &to
	}
	query := repository.NewListQuery()
	query.PerPage = maxExportRows
	query.SortBy = "transaction_date"

	transactions, _, err := s.repos.Transaction.List(ctx, companyID, filter, query)
	if err != nil {
		return nil, classify("list transactions", err)
	}

	accounts, err := s.repos.BankAccount.List(ctx, companyID)
	if err != nil {
		return nil, classify("list bank accounts", err)
	}
	accountNames := make(map[uuid.UUID]string, len(accounts))
	for _, a := range accounts {
		accountNames[a.ID] = a.Name
	}
	categories, err := s.repos.Category.List(ctx, companyID, "")
	if err != nil {
		return nil, classify("list categories", err)
	}
	categoryNames := make(map[uuid.UUID]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	rows := make([]ExportRow, 0, len(transactions))
	for _, tx := range transactions {
		row := ExportRow{
			Date:        schedule.FromTime(tx.TransactionDate).String(),
			Description: tx.Description,
			Type:        tx.Type,
			BankAccount: accountNames[tx.BankAccountID],
			Amount:      tx.Amount,
		}
		if tx.CategoryID != nil {
			row.Category = categoryNames[*tx.CategoryID]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

var exportHeader = []string{"Date", "Description", "Type", "Bank account", "Category", "Amount"}

func exportCSV(rows []ExportRow) ([]byte, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write(exportHeader)
	for _, r := range rows {
		_ = writer.Write([]string{r.Date, r.Description, string(r.Type), r.BankAccount, r.Category, r.Amount.StringFixed(2)})
	}
	writer.Flush()
	return buf.Bytes(), writer.Error()
}

func exportXLSX(rows []ExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Transactions"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	amountStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 4})

	for i, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, title)
	}
	_ = f.SetCellStyle(sheet, "A1", "F1", headerStyle)

	for i, r := range rows {
		line := i + 2
		amount, _ := r.Amount.Float64()
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", line), r.Date)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", line), r.Description)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", line), string(r.Type))
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", line), r.BankAccount)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", line), r.Category)
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", line), amount)
	}
	if len(rows) > 0 {
		_ = f.SetCellStyle(sheet, "F2", fmt.Sprintf("F%d", len(rows)+1), amountStyle)
	}
	_ = f.SetColWidth(sheet, "B", "B", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportPDF(rows []ExportRow) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Transactions")
	pdf.Ln(12)

	widths := []float64{25, 95, 35, 45, 45, 30}
	pdf.SetFont("Arial", "B", 9)
	for i, title := range exportHeader {
		pdf.CellFormat(widths[i], 7, title, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 8)
	total := decimal.Zero
	for _, r := range rows {
		cells := []string{r.Date, tr(r.Description), string(r.Type), tr(r.BankAccount), tr(r.Category), r.Amount.StringFixed(2)}
		for i, value := range cells {
			align := "L"
			if i == len(cells)-1 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, value, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
		total = total.Add(r.Amount)
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.Cell(0, 8, fmt.Sprintf("%d transactions, gross amount %s", len(rows), total.StringFixed(2)))

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
