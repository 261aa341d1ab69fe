package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Account represents a balance-holding account
type Account struct {
	ID        uuid.UUID   `json:"id"`
	Owner     string      `json:"owner"`
	Balance   int64       `json:"balance"` // minor units
	Memo      null.String `json:"memo,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Clone returns a structurally independent copy
func (a *Account) Clone() *Account {
	cp := *a
	return &cp
}
