package controllers

import (
	"net/http"

	"invoiceflow-backend/models"
	"invoiceflow-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DashboardController struct {
	DB *gorm.DB
}

func NewDashboardController(db *gorm.DB) *DashboardController {
	return &DashboardController{DB: db}
}

// GetDashboard returns the caller's recent invoices and headline numbers.
func (d *DashboardController) GetDashboard(c *gin.Context) {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var recentInvoices []models.Invoice
	if err := d.DB.Preload("Customer").
		Where("user_id = ?", userID).
		Order("created_at DESC").Limit(10).
		Find(&recentInvoices).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve invoices")
		return
	}

	var totalInvoices int64
	d.DB.Model(&models.Invoice{}).Where("user_id = ?", userID).Count(&totalInvoices)

	statusCounts := map[string]int64{}
	for _, status := range []string{models.StatusPaid, models.StatusUnpaid, models.StatusOverdue} {
		var n int64
		d.DB.Model(&models.Invoice{}).Where("user_id = ? AND status = ?", userID, status).Count(&n)
		statusCounts[status] = n
	}

	// Revenue is the sum of paid invoice totals
	var revenue float64
	d.DB.Model(&models.Invoice{}).
		Where("user_id = ? AND status = ?", userID, models.StatusPaid).
		Select("COALESCE(SUM(total), 0)").Scan(&revenue)

	var customerCount int64
	d.DB.Model(&models.Customer{}).Where("user_id = ?", userID).Count(&customerCount)

	c.JSON(http.StatusOK, gin.H{
		"recentInvoices":  recentInvoices,
		"totalInvoices":   totalInvoices,
		"paidInvoices":    statusCounts[models.StatusPaid],
		"unpaidInvoices":  statusCounts[models.StatusUnpaid],
		"overdueInvoices": statusCounts[models.StatusOverdue],
		"revenue":         revenue,
		"customerCount":   customerCount,
	})
}
