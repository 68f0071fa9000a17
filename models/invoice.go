package models

import (
	"time"
)

// Invoice statuses accepted by the store. The set is closed and case-sensitive.
const (
	StatusUnpaid    = "Unpaid"
	StatusPaid      = "Paid"
	StatusOverdue   = "Overdue"
	StatusCancelled = "Cancelled"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusUnpaid, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// Invoice is the aggregate root: header plus its owned items. Items are
// replaced wholesale on every edit, never diffed.
type Invoice struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	InvoiceNumber string    `gorm:"size:20;not null" json:"invoiceNumber"`
	DateIssued    time.Time `gorm:"not null" json:"dateIssued"`
	DateDue       time.Time `gorm:"not null" json:"dateDue"`
	Status        string    `gorm:"size:20;default:'Unpaid'" json:"status"`
	Notes         string    `gorm:"type:text" json:"notes"`

	TaxRate   float64 `gorm:"default:0" json:"taxRate"`
	Subtotal  float64 `gorm:"default:0" json:"subtotal"`
	TaxAmount float64 `gorm:"default:0" json:"taxAmount"`
	Total     float64 `gorm:"default:0" json:"total"`

	UserID     uint `gorm:"index;not null" json:"-"`
	CustomerID uint `gorm:"index;not null" json:"customerId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Customer Customer      `gorm:"foreignKey:CustomerID" json:"customer"`
	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
}

type InvoiceItem struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	InvoiceID   uint    `gorm:"index;not null" json:"-"`
	Description string  `gorm:"size:256;not null" json:"description"`
	Quantity    float64 `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   float64 `gorm:"not null;default:0" json:"unitPrice"`
	Amount      float64 `gorm:"not null;default:0" json:"amount"`

	CreatedAt time.Time `json:"createdAt"`
}
