package models

import (
	"time"
)

type Customer struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  uint   `gorm:"index;not null" json:"-"`
	Name    string `gorm:"size:120;not null" json:"name"`
	Email   string `gorm:"size:120" json:"email"`
	Address string `gorm:"size:256" json:"address"`
	Phone   string `gorm:"size:20" json:"phone"`

	CreatedAt time.Time `json:"createdAt"`

	Invoices []Invoice `gorm:"foreignKey:CustomerID" json:"-"`
}
