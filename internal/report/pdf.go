// Package report renders fixed-layout PDF documents for risk reports
// and invoices.
package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// RiskReportData holds everything the risk report layout needs.
type RiskReportData struct {
	UserEmail string
	TotalOP   int
	RiskLevel string
	AISummary string
}

// InvoiceData holds everything the invoice layout needs.
type InvoiceData struct {
	InvoiceNumber string
	IssuedAt      string
	DeskName      string
	AssetSymbol   string
	Amount        string
	Status        string
	ClientEmail   string
}

// RenderRiskReport builds the advisory report document: title, user
// identity, point total, risk band, and the AI summary section.
func RenderRiskReport(data RiskReportData) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "AI Risk Advisory Report", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("User: %s", data.UserEmail), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("OP Score: %d", data.TotalOP), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Risk Level: %s", data.RiskLevel), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "AI Summary", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, data.AISummary, "", "L", false)
	pdf.Ln(8)

	return output(pdf)
}

// RenderInvoice builds the invoice document.
func RenderInvoice(data InvoiceData) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "INVOICE", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	rows := [][2]string{
		{"Invoice Number", data.InvoiceNumber},
		{"Issued At", data.IssuedAt},
		{"Desk", data.DeskName},
		{"Asset", data.AssetSymbol},
		{"Amount", data.Amount},
		{"Status", data.Status},
	}

	pdf.SetFont("Helvetica", "", 11)
	for _, row := range rows {
		pdf.CellFormat(60, 8, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(100, 8, row[1], "1", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	if data.ClientEmail != "" {
		pdf.CellFormat(0, 7, fmt.Sprintf("Billed To: %s", data.ClientEmail), "", 1, "L", false, 0, "")
	}

	return output(pdf)
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf render failed: %w", err)
	}
	return buf.Bytes(), nil
}
