package invoice

import (
	"testing"

	"github.com/factusapp/factusapp/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emittedInvoice() *Invoice {
	inv := &Invoice{
		ID:      "inv_1",
		OwnerID: "user_1",
		Status:  types.InvoiceStatusDraft,
		Items: []*InvoiceItem{
			{ID: "item_1", ProductName: "Cafe", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
		},
	}
	inv.ApplyEmission(FiscalDocument{
		ExternalID:     "1234",
		ExternalNumber: "SETP990000001",
		CUFE:           "abc",
		ExternalStatus: "Created",
	})
	return inv
}

func TestApplyEmission(t *testing.T) {
	inv := emittedInvoice()
	assert.Equal(t, types.InvoiceStatusEmitted, inv.Status)
	assert.Equal(t, "1234", lo.FromPtr(inv.ExternalID))
	assert.Equal(t, types.AuthorityStatusRegistered, lo.FromPtr(inv.AuthorityStatus))
	assert.Nil(t, inv.QRCode)
	assert.True(t, inv.HasExternalNumber())
}

func TestApplyExternalStatus(t *testing.T) {
	t.Run("rejected_regresses_to_draft", func(t *testing.T) {
		inv := emittedInvoice()
		regressed := inv.ApplyExternalStatus("RECHAZADA")
		assert.True(t, regressed)
		assert.Equal(t, types.InvoiceStatusDraft, inv.Status)
		assert.Equal(t, "RECHAZADA", lo.FromPtr(inv.AuthorityStatus))
		require.Len(t, inv.Items, 1)
		assert.Equal(t, "Cafe", inv.Items[0].ProductName)
	})

	t.Run("accepted_keeps_status", func(t *testing.T) {
		inv := emittedInvoice()
		assert.False(t, inv.ApplyExternalStatus("Validated"))
		assert.Equal(t, types.InvoiceStatusEmitted, inv.Status)
		assert.Equal(t, "Validated", lo.FromPtr(inv.ExternalStatus))
	})

	t.Run("paid_invoice_is_terminal", func(t *testing.T) {
		inv := emittedInvoice()
		inv.Status = types.InvoiceStatusPaid
		assert.False(t, inv.ApplyExternalStatus("rejected"))
		assert.Equal(t, types.InvoiceStatusPaid, inv.Status)
	})
}

func TestCopyIsDeep(t *testing.T) {
	inv := emittedInvoice()
	cp := inv.Copy()
	*cp.ExternalID = "changed"
	cp.Items[0].ProductName = "changed"

	assert.Equal(t, "1234", *inv.ExternalID)
	assert.Equal(t, "Cafe", inv.Items[0].ProductName)
}
