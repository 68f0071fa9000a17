package models

import (
	"time"
)

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"size:120;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:256;not null" json:"-"`

	BusinessName    string `gorm:"size:120" json:"businessName"`
	BusinessAddress string `gorm:"size:256" json:"businessAddress"`
	BusinessPhone   string `gorm:"size:20" json:"businessPhone"`
	BusinessLogoURL string `gorm:"size:256" json:"businessLogoUrl"`

	CreatedAt time.Time `json:"createdAt"`

	Customers []Customer `gorm:"foreignKey:UserID" json:"-"`
	Invoices  []Invoice  `gorm:"foreignKey:UserID" json:"-"`
}

// DisplayName is what outbound documents and emails are signed with.
func (u *User) DisplayName() string {
	if u.BusinessName != "" {
		return u.BusinessName
	}
	return u.Username
}
