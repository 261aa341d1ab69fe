package models

import (
	"time"
)

// Account is the GORM model backing entities.Account
type Account struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Owner     string `gorm:"not null"`
	Balance   int64  `gorm:"not null"`
	Memo      *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the table name
func (Account) TableName() string {
	return "accounts"
}
