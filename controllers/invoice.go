// controllers/invoice.go
package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"invoiceflow-backend/models"
	"invoiceflow-backend/services"
	"invoiceflow-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type InvoiceController struct {
	DB       *gorm.DB
	Renderer services.Renderer
	Mailer   services.Mailer
}

func NewInvoiceController(db *gorm.DB, renderer services.Renderer, mailer services.Mailer) *InvoiceController {
	return &InvoiceController{DB: db, Renderer: renderer, Mailer: mailer}
}

// NewInvoiceForm returns everything the invoice form needs: the suggested
// next number, default dates and the caller's customers. The number is
// advisory; the one submitted on create wins.
func (ic *InvoiceController) NewInvoiceForm(c *gin.Context) {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var lastNumber string
	var lastInvoice models.Invoice
	err := ic.DB.Where("user_id = ?", userID).Order("id DESC").First(&lastInvoice).Error
	if err == nil {
		lastNumber = lastInvoice.InvoiceNumber
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	var customers []models.Customer
	if err := ic.DB.Where("user_id = ?", userID).Order("name").Find(&customers).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve customers")
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"invoiceNumber": services.NextInvoiceNumber(lastNumber, now),
		"dateIssued":    now.Format("2006-01-02"),
		"dateDue":       now.AddDate(0, 0, 30).Format("2006-01-02"),
		"customers":     customers,
	})
}

// CreateInvoice persists a new invoice aggregate from a form-encoded
// submission. Header, items and totals are validated first; everything is
// written in one transaction.
func (ic *InvoiceController) CreateInvoice(c *gin.Context) {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid form data")
		return
	}
	form := c.Request.PostForm

	header, err := services.ParseInvoiceForm(form)
	if err != nil {
		respondValidation(c, err)
		return
	}
	if !models.ValidStatus(header.Status) {
		utils.RespondWithError(c, http.StatusBadRequest, "status: must be one of Unpaid, Paid, Overdue, Cancelled")
		return
	}

	items, err := services.ParseLineItems(form)
	if err != nil {
		respondValidation(c, err)
		return
	}

	totals := services.ComputeTotals(items, header.TaxRate)
	if err := header.VerifyTotals(totals); err != nil {
		respondValidation(c, err)
		return
	}

	tx := ic.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// The referenced customer must belong to the caller
	var customer models.Customer
	if err := tx.Where("user_id = ? AND id = ?", userID, header.CustomerID).
		First(&customer).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Customer not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	invoice := models.Invoice{
		InvoiceNumber: header.InvoiceNumber,
		DateIssued:    header.DateIssued,
		DateDue:       header.DateDue,
		Status:        header.Status,
		Notes:         header.Notes,
		TaxRate:       header.TaxRate,
		Subtotal:      totals.Subtotal,
		TaxAmount:     totals.TaxAmount,
		Total:         totals.Total,
		UserID:        userID,
		CustomerID:    customer.ID,
		Items:         toModelItems(items),
	}

	if err := tx.Create(&invoice).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create invoice")
		return
	}

	tx.Commit()

	c.JSON(http.StatusCreated, invoice)
}

// GetInvoices retrieves the caller's invoices, newest first, optionally
// filtered by status.
func (ic *InvoiceController) GetInvoices(c *gin.Context) {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	query := ic.DB.Preload("Items").Preload("Customer").
		Where("user_id = ?", userID).Order("created_at DESC")
	if status := c.Query("status"); status != "" && status != "All" {
		query = query.Where("status = ?", status)
	}

	var invoices []models.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve invoices")
		return
	}

	c.JSON(http.StatusOK, invoices)
}

// GetInvoice retrieves a specific invoice aggregate by ID
func (ic *InvoiceController) GetInvoice(c *gin.Context) {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	invoice, ok := ic.loadInvoice(c, userID)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// EditInvoiceForm returns the stored aggregate plus the customer list, for
// pre-filling the edit form.
func (ic *InvoiceController) EditInvoiceForm(c *gin.Context) {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	invoice, ok := ic.loadInvoice(c, userID)
	if !ok {
		return
	}

	var customers []models.Customer
	if err := ic.DB.Where("user_id = ?", userID).Order("name").Find(&customers).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve customers")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invoice":   invoice,
		"customers": customers,
	})
}

// UpdateInvoice replaces the header fields and the whole item collection of
// an existing invoice in one transaction. Items are deleted and re-inserted,
// never diffed.
func (ic *InvoiceController) UpdateInvoice(c *gin.Context) {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid form data")
		return
	}
	form := c.Request.PostForm

	header, err := services.ParseInvoiceForm(form)
	if err != nil {
		respondValidation(c, err)
		return
	}
	if !models.ValidStatus(header.Status) {
		utils.RespondWithError(c, http.StatusBadRequest, "status: must be one of Unpaid, Paid, Overdue, Cancelled")
		return
	}

	items, err := services.ParseLineItems(form)
	if err != nil {
		respondValidation(c, err)
		return
	}

	totals := services.ComputeTotals(items, header.TaxRate)
	if err := header.VerifyTotals(totals); err != nil {
		respondValidation(c, err)
		return
	}

	tx := ic.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var invoice models.Invoice
	if err := tx.Where("user_id = ? AND id = ?", userID, c.Param("id")).
		First(&invoice).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	var customer models.Customer
	if err := tx.Where("user_id = ? AND id = ?", userID, header.CustomerID).
		First(&customer).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Customer not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	// Wholesale item replacement
	if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to clear existing items")
		return
	}

	newItems := toModelItems(items)
	for i := range newItems {
		newItems[i].InvoiceID = invoice.ID
	}

	invoice.InvoiceNumber = header.InvoiceNumber
	invoice.DateIssued = header.DateIssued
	invoice.DateDue = header.DateDue
	invoice.Status = header.Status
	invoice.Notes = header.Notes
	invoice.TaxRate = header.TaxRate
	invoice.Subtotal = totals.Subtotal
	invoice.TaxAmount = totals.TaxAmount
	invoice.Total = totals.Total
	invoice.CustomerID = customer.ID
	invoice.Items = newItems

	if err := tx.Save(&invoice).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update invoice")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, invoice)
}

// DeleteInvoice removes an invoice and its items
func (ic *InvoiceController) DeleteInvoice(c *gin.Context) {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	tx := ic.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var invoice models.Invoice
	if err := tx.Where("user_id = ? AND id = ?", userID, c.Param("id")).
		First(&invoice).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete invoice items")
		return
	}

	if err := tx.Delete(&invoice).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete invoice")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted successfully"})
}

// DownloadPDF renders the invoice and returns it as a PDF attachment
func (ic *InvoiceController) DownloadPDF(c *gin.Context) {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	invoice, ok := ic.loadInvoice(c, userID)
	if !ok {
		return
	}

	var owner models.User
	if err := ic.DB.First(&owner, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	pdf, err := ic.Renderer.Render(invoice, &owner)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to render invoice")
		return
	}

	filename := fmt.Sprintf("Invoice-%s.pdf", invoice.InvoiceNumber)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// SendInvoice emails the rendered invoice to the customer. Delivery failure
// surfaces an error but rolls back nothing.
func (ic *InvoiceController) SendInvoice(c *gin.Context) {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	invoice, ok := ic.loadInvoice(c, userID)
	if !ok {
		return
	}

	if invoice.Customer.Email == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Customer does not have an email address")
		return
	}

	var owner models.User
	if err := ic.DB.First(&owner, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	pdf, err := ic.Renderer.Render(invoice, &owner)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to render invoice")
		return
	}

	subject := fmt.Sprintf("Invoice %s from %s", invoice.InvoiceNumber, owner.DisplayName())
	body := fmt.Sprintf(`Dear %s,

Please find attached your invoice %s for the amount of $%.2f.

Due date: %s

Thank you for your business.

Best regards,
%s
`,
		invoice.Customer.Name,
		invoice.InvoiceNumber,
		invoice.Total,
		invoice.DateDue.Format("January 2, 2006"),
		owner.DisplayName(),
	)

	filename := fmt.Sprintf("Invoice-%s.pdf", invoice.InvoiceNumber)
	if err := ic.Mailer.Send(invoice.Customer.Email, subject, body, filename, pdf); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Error sending email: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invoice sent successfully"})
}

// loadInvoice fetches the aggregate scoped to the caller. Cross-tenant
// access reads as not found; existence is never revealed.
func (ic *InvoiceController) loadInvoice(c *gin.Context, userID uint) (*models.Invoice, bool) {
	var invoice models.Invoice
	if err := ic.DB.Preload("Items").Preload("Customer").
		Where("user_id = ? AND id = ?", userID, c.Param("id")).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &invoice, true
}

func toModelItems(items []services.LineItem) []models.InvoiceItem {
	out := make([]models.InvoiceItem, 0, len(items))
	for _, item := range items {
		out = append(out, models.InvoiceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		})
	}
	return out
}

func respondValidation(c *gin.Context, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		utils.RespondWithError(c, http.StatusBadRequest, verr.Error())
		return
	}
	utils.RespondWithError(c, http.StatusBadRequest, err.Error())
}
