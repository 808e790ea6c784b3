package user

import (
	"time"

	"github.com/factusapp/factusapp/internal/types"
)

// User is the merchant that owns invoices, customers and products
type User struct {
	ID                   string                 `db:"id" json:"id"`
	Name                 string                 `db:"name" json:"name"`
	Email                string                 `db:"email" json:"email"`
	Plan                 types.SubscriptionPlan `db:"plan" json:"plan"`
	MonthlyInvoiceCount  int                    `db:"monthly_invoice_count" json:"monthly_invoice_count"`
	LastInvoiceResetDate *time.Time             `db:"last_invoice_reset_date" json:"last_invoice_reset_date,omitempty"`
	types.BaseModel
}

func NewUser(name, email string, plan types.SubscriptionPlan) *User {
	now := time.Now().UTC()
	return &User{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USER),
		Name:                 name,
		Email:                email,
		Plan:                 plan,
		LastInvoiceResetDate: &now,
		BaseModel:            types.GetDefaultBaseModel(),
	}
}
