package routes

import (
	"invoiceflow-backend/config"
	"invoiceflow-backend/controllers"
	"invoiceflow-backend/services"
	"invoiceflow-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter wires all handlers. Every repository and collaborator is
// constructed here and handed to the controllers explicitly.
func SetupRouter(db *gorm.DB, renderer services.Renderer, mailer services.Mailer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Use(config.RequestLogger())

	auth := controllers.NewAuthController(db)
	customers := controllers.NewCustomerController(db)
	invoices := controllers.NewInvoiceController(db, renderer, mailer)
	profile := controllers.NewProfileController(db)
	dashboard := controllers.NewDashboardController(db)

	r.POST("/register", auth.Register)
	r.POST("/login", auth.Login)

	api := r.Group("/")
	api.Use(utils.AuthMiddleware())
	{
		api.GET("/me", auth.Me)

		api.GET("/customers", customers.GetCustomers)
		api.POST("/customers", customers.CreateCustomer)
		api.GET("/customer/:id", customers.GetCustomer)
		api.POST("/customer/:id/edit", customers.UpdateCustomer)
		api.POST("/customer/:id/delete", customers.DeleteCustomer)

		api.GET("/create_invoice", invoices.NewInvoiceForm)
		api.POST("/create_invoice", invoices.CreateInvoice)
		api.GET("/invoices", invoices.GetInvoices)
		api.GET("/invoice/:id", invoices.GetInvoice)
		api.GET("/invoice/:id/edit", invoices.EditInvoiceForm)
		api.POST("/invoice/:id/edit", invoices.UpdateInvoice)
		api.POST("/invoice/:id/delete", invoices.DeleteInvoice)
		api.GET("/invoice/:id/pdf", invoices.DownloadPDF)
		api.POST("/invoice/:id/send", invoices.SendInvoice)

		api.GET("/profile", profile.GetProfile)
		api.POST("/profile", profile.UpdateProfile)

		api.GET("/dashboard", dashboard.GetDashboard)
	}

	return r
}
