package services

import (
	"bytes"
	"fmt"

	"invoiceflow-backend/models"

	"github.com/jung-kurt/gofpdf"
)

// Renderer turns a stored invoice aggregate into a downloadable document.
type Renderer interface {
	Render(invoice *models.Invoice, owner *models.User) ([]byte, error)
}

// PDFRenderer renders invoices as single-page-or-more A4 PDFs.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

func (r *PDFRenderer) Render(invoice *models.Invoice, owner *models.User) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// Business block
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, owner.DisplayName())
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	if owner.BusinessAddress != "" {
		pdf.Cell(0, 6, owner.BusinessAddress)
		pdf.Ln(5)
	}
	if owner.BusinessPhone != "" {
		pdf.Cell(0, 6, owner.BusinessPhone)
		pdf.Ln(5)
	}
	pdf.Ln(6)

	// Invoice header
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, fmt.Sprintf("Invoice %s", invoice.InvoiceNumber))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Date issued: %s", invoice.DateIssued.Format("January 2, 2006")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Date due: %s", invoice.DateDue.Format("January 2, 2006")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", invoice.Status))
	pdf.Ln(9)

	// Customer block
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 6, "Billed to")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, invoice.Customer.Name)
	pdf.Ln(5)
	if invoice.Customer.Address != "" {
		pdf.Cell(0, 6, invoice.Customer.Address)
		pdf.Ln(5)
	}
	if invoice.Customer.Email != "" {
		pdf.Cell(0, 6, invoice.Customer.Email)
		pdf.Ln(5)
	}
	pdf.Ln(6)

	// Item table
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(90, 8, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 8, "Quantity", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range invoice.Items {
		pdf.CellFormat(90, 8, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%.2f", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("$%.2f", item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("$%.2f", item.Amount), "1", 1, "R", false, 0, "")
	}

	// Totals
	pdf.Ln(4)
	pdf.CellFormat(150, 7, "Subtotal", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, fmt.Sprintf("$%.2f", invoice.Subtotal), "", 1, "R", false, 0, "")
	pdf.CellFormat(150, 7, fmt.Sprintf("Tax (%.2f%%)", invoice.TaxRate), "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, fmt.Sprintf("$%.2f", invoice.TaxAmount), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(150, 8, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, fmt.Sprintf("$%.2f", invoice.Total), "", 1, "R", false, 0, "")

	if invoice.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Cell(0, 6, "Notes")
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, invoice.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
