package controllers

import (
	"errors"
	"net/http"

	"invoiceflow-backend/models"
	"invoiceflow-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CustomerController struct {
	DB *gorm.DB
}

func NewCustomerController(db *gorm.DB) *CustomerController {
	return &CustomerController{DB: db}
}

// CreateCustomerInput defines the expected JSON structure for creating a customer
type CreateCustomerInput struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// UpdateCustomerInput defines the expected JSON structure for updating a customer
type UpdateCustomerInput struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
}

// CreateCustomer creates a new customer owned by the caller
func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var input CreateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	customer := models.Customer{
		UserID:  userID,
		Name:    input.Name,
		Email:   input.Email,
		Address: input.Address,
		Phone:   input.Phone,
	}

	if err := cc.DB.Create(&customer).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create customer")
		return
	}

	c.JSON(http.StatusCreated, customer)
}

// GetCustomers retrieves all of the caller's customers ordered by name
func (cc *CustomerController) GetCustomers(c *gin.Context) {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var customers []models.Customer
	if err := cc.DB.Where("user_id = ?", userID).Order("name").Find(&customers).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve customers")
		return
	}

	c.JSON(http.StatusOK, customers)
}

// GetCustomer retrieves a specific customer by ID
func (cc *CustomerController) GetCustomer(c *gin.Context) {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var customer models.Customer
	if err := cc.DB.Where("user_id = ? AND id = ?", userID, c.Param("id")).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, customer)
}

// UpdateCustomer updates an existing customer
func (cc *CustomerController) UpdateCustomer(c *gin.Context) {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var input UpdateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var customer models.Customer
	if err := cc.DB.Where("user_id = ? AND id = ?", userID, c.Param("id")).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Name != nil {
		if *input.Name == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "Customer name cannot be empty")
			return
		}
		customer.Name = *input.Name
	}
	if input.Email != nil {
		customer.Email = *input.Email
	}
	if input.Address != nil {
		customer.Address = *input.Address
	}
	if input.Phone != nil {
		customer.Phone = *input.Phone
	}

	if err := cc.DB.Save(&customer).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update customer")
		return
	}

	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer removes a customer. Customers with associated invoices are
// never deleted.
func (cc *CustomerController) DeleteCustomer(c *gin.Context) {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var customer models.Customer
	if err := cc.DB.Where("user_id = ? AND id = ?", userID, c.Param("id")).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	var invoiceCount int64
	if err := cc.DB.Model(&models.Invoice{}).
		Where("customer_id = ?", customer.ID).
		Count(&invoiceCount).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	if invoiceCount > 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Cannot delete customer with associated invoices")
		return
	}

	if err := cc.DB.Delete(&customer).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete customer")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}
