package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// LedgerEntry records one movement of funds between two accounts
type LedgerEntry struct {
	ID        uuid.UUID   `json:"id"`
	FromID    uuid.UUID   `json:"fromId"`
	ToID      uuid.UUID   `json:"toId"`
	Amount    int64       `json:"amount"` // minor units
	Reference null.String `json:"reference,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Clone returns a structurally independent copy
func (e *LedgerEntry) Clone() *LedgerEntry {
	cp := *e
	return &cp
}
