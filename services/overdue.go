// services/overdue.go
package services

import (
	"fmt"
	"os"
	"time"

	"invoiceflow-backend/models"
	"invoiceflow-backend/utils"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"
)

// OverdueService flips Unpaid invoices past their due date to Overdue once a
// day and, when Twilio is configured, texts the customer a payment reminder.
type OverdueService struct {
	db     *gorm.DB
	client *twilio.RestClient
	from   string
}

func NewOverdueService(db *gorm.DB) *OverdueService {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")

	var client *twilio.RestClient
	if accountSid != "" && authToken != "" {
		client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		})
	}

	return &OverdueService{
		db:     db,
		client: client,
		from:   os.Getenv("TWILIO_FROM"),
	}
}

func (s *OverdueService) StartScheduler() {
	c := cron.New()

	// Run every day at 9 AM
	c.AddFunc("0 9 * * *", s.SweepOverdue)

	c.Start()
	log.Info().Msg("Overdue scheduler started")
}

// SweepOverdue marks every Unpaid invoice whose due date has passed as
// Overdue. Reminder failures are logged and never abort the sweep.
func (s *OverdueService) SweepOverdue() {
	log.Info().Msg("Starting overdue invoice sweep")

	today := utils.BeginningOfDay(time.Now())

	var invoices []models.Invoice
	if err := s.db.Preload("Customer").
		Where("status = ? AND date_due < ?", models.StatusUnpaid, today).
		Find(&invoices).Error; err != nil {
		log.Error().Err(err).Msg("Failed to fetch unpaid invoices")
		return
	}

	for _, invoice := range invoices {
		if err := s.db.Model(&models.Invoice{}).
			Where("id = ?", invoice.ID).
			Update("status", models.StatusOverdue).Error; err != nil {
			log.Error().Err(err).Uint("invoice_id", invoice.ID).Msg("Failed to mark invoice overdue")
			continue
		}

		log.Info().
			Uint("invoice_id", invoice.ID).
			Str("invoice_number", invoice.InvoiceNumber).
			Msg("Invoice marked overdue")

		s.sendReminder(&invoice)
	}

	log.Info().Int("count", len(invoices)).Msg("Overdue invoice sweep completed")
}

func (s *OverdueService) sendReminder(invoice *models.Invoice) {
	if s.client == nil || s.from == "" || invoice.Customer.Phone == "" {
		return
	}

	message := fmt.Sprintf(
		"Hi %s, invoice %s for $%.2f was due on %s and is now overdue. Please arrange payment.",
		invoice.Customer.Name,
		invoice.InvoiceNumber,
		invoice.Total,
		invoice.DateDue.Format("January 2, 2006"),
	)

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(invoice.Customer.Phone)
	params.SetFrom(s.from)
	params.SetBody(message)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		log.Error().Err(err).Uint("invoice_id", invoice.ID).Msg("Failed to send overdue reminder")
		return
	}

	log.Info().Uint("invoice_id", invoice.ID).Msg("Overdue reminder sent")
}
