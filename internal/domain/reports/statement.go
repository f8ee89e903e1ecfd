package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"timekeep/internal/domain/ledger"
	"timekeep/internal/domain/profile"
)

// Statement renders an employee's leave ledger as a PDF: current balances
// followed by the transaction history, newest first.
func Statement(emp profile.Employee, transactions []ledger.Transaction) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Leave Ledger Statement")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", emp.FullName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", emp.Email))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04")))
	pdf.Ln(10)
	pdf.Cell(0, 8, fmt.Sprintf("Vacation Leave balance: %.3f days", emp.VLBalance))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Sick Leave balance: %.3f days", emp.SLBalance))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(35, 8, "Date", "1", 0, "", false, 0, "")
	pdf.CellFormat(20, 8, "Type", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 8, "Amount", "1", 0, "R", false, 0, "")
	pdf.CellFormat(95, 8, "Reference", "1", 0, "", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	for _, tx := range transactions {
		pdf.CellFormat(35, 8, tx.CreatedAt.Format("2006-01-02"), "1", 0, "", false, 0, "")
		pdf.CellFormat(20, 8, tx.LeaveType, "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 8, tx.Amount.StringFixed(3), "1", 0, "R", false, 0, "")
		pdf.CellFormat(95, 8, tx.Reference, "1", 0, "", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
