package customer

import (
	"github.com/factusapp/factusapp/internal/types"
)

// Customer is the buyer an invoice is issued to
type Customer struct {
	ID             string             `db:"id" json:"id"`
	OwnerID        string             `db:"owner_id" json:"owner_id"`
	DocumentType   types.DocumentType `db:"document_type" json:"document_type"`
	DocumentNumber string             `db:"document_number" json:"document_number"`
	Name           string             `db:"name" json:"name"`
	Address        string             `db:"address" json:"address"`
	City           string             `db:"city" json:"city"`
	Email          string             `db:"email" json:"email"`
	Phone          string             `db:"phone" json:"phone"`
	types.BaseModel
}

// BelongsTo reports whether the customer is owned by ownerID
func (c *Customer) BelongsTo(ownerID string) bool {
	return c != nil && c.OwnerID == ownerID
}
