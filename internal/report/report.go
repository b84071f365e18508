package report

import (
	"fmt"
	"time"

	"github.com/billfold/billfold/internal/billing"
	"github.com/billfold/billfold/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Invoices"

// InvoicesXLSX renders the user's invoices as a spreadsheet with one row per
// invoice and a per-status totals block below. Statuses are the derived ones,
// so overdue invoices report as overdue.
func InvoicesXLSX(invoices []models.Invoice, now time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	headers := []string{"Number", "Customer", "Issue Date", "Due Date", "Status", "Currency", "Subtotal", "Discount", "Total"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", "I1", boldStyle); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(sheetName, "A", "B", 24)
	_ = f.SetColWidth(sheetName, "C", "E", 14)

	totals := map[string]decimal.Decimal{}
	counts := map[string]int{}
	for i, inv := range invoices {
		status := billing.EffectiveInvoiceStatus(inv.Status, inv.DueDate, now)
		totals[status] = totals[status].Add(inv.Total)
		counts[status]++

		row := i + 2
		// money cells carry fixed 2dp text, not floats
		values := []any{
			inv.InvoiceNumber,
			inv.Customer.Name,
			inv.IssueDate.Format("2006-01-02"),
			inv.DueDate.Format("2006-01-02"),
			status,
			inv.Currency,
			inv.SubTotal.StringFixed(2),
			inv.DiscountAmount.StringFixed(2),
			inv.Total.StringFixed(2),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	// summary block, two rows below the table
	row := len(invoices) + 4
	if err := f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "By status"); err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), boldStyle)
	for _, status := range []string{
		billing.InvoiceStatusDraft,
		billing.InvoiceStatusSent,
		billing.InvoiceStatusOverdue,
		billing.InvoiceStatusPaid,
		billing.InvoiceStatusCancelled,
	} {
		if counts[status] == 0 {
			continue
		}
		row++
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), status)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), counts[status])
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), totals[status].StringFixed(2))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
