package invoice

import (
	"time"

	"github.com/factusapp/factusapp/internal/domain/tax"
	"github.com/factusapp/factusapp/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice represents the invoice domain model. Monetary fields are always
// derived from Items through tax.Calculator and never edited directly.
type Invoice struct {
	ID            string              `db:"id" json:"id"`
	OwnerID       string              `db:"owner_id" json:"owner_id"`
	CustomerID    *string             `db:"customer_id" json:"customer_id,omitempty"`
	InvoiceNumber string              `db:"invoice_number" json:"invoice_number"`
	Status        types.InvoiceStatus `db:"status" json:"status"`
	PaymentMethod types.PaymentMethod `db:"payment_method" json:"payment_method"`
	Notes         string              `db:"notes" json:"notes,omitempty"`
	IssueDate     time.Time           `db:"issue_date" json:"issue_date"`
	DueDate       *time.Time          `db:"due_date" json:"due_date,omitempty"`
	Subtotal      decimal.Decimal     `db:"subtotal" json:"subtotal"`
	TaxAmount     decimal.Decimal     `db:"tax_amount" json:"tax_amount"`
	Total         decimal.Decimal     `db:"total" json:"total"`

	// Fields assigned by the fiscal provider
	ExternalID      *string `db:"external_id" json:"external_id,omitempty"`
	ExternalNumber  *string `db:"external_number" json:"external_number,omitempty"`
	CUFE            *string `db:"cufe" json:"cufe,omitempty"`
	QRCode          *string `db:"qr_code" json:"qr_code,omitempty"`
	PDFURL          *string `db:"pdf_url" json:"pdf_url,omitempty"`
	XMLURL          *string `db:"xml_url" json:"xml_url,omitempty"`
	ExternalStatus  *string `db:"external_status" json:"external_status,omitempty"`
	AuthorityStatus *string `db:"authority_status" json:"authority_status,omitempty"`

	Items   []*InvoiceItem `db:"-" json:"items"`
	Version int            `db:"version" json:"version"`
	types.BaseModel
}

// InvoiceItem is a single line of an invoice. Items are owned by their
// invoice and are immutable once it leaves DRAFT.
type InvoiceItem struct {
	ID          string          `db:"id" json:"id"`
	InvoiceID   string          `db:"invoice_id" json:"invoice_id"`
	ProductID   *string         `db:"product_id" json:"product_id,omitempty"`
	ProductCode string          `db:"product_code" json:"product_code,omitempty"`
	ProductName string          `db:"product_name" json:"product_name"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	TaxRate     decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	TaxIncluded bool            `db:"tax_included" json:"tax_included"`
	Subtotal    decimal.Decimal `db:"subtotal" json:"subtotal"`
	TaxAmount   decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	Total       decimal.Decimal `db:"total" json:"total"`
	Position    int             `db:"position" json:"position"`
}

// FiscalDocument is what the fiscal provider assigns to an emitted invoice
type FiscalDocument struct {
	ExternalID     string
	ExternalNumber string
	CUFE           string
	QRCode         string
	PDFURL         string
	XMLURL         string
	ExternalStatus string
}

func (i *Invoice) IsDraft() bool {
	return i.Status == types.InvoiceStatusDraft
}

// HasExternalID reports whether the fiscal provider has acknowledged the invoice
func (i *Invoice) HasExternalID() bool {
	return i.ExternalID != nil && *i.ExternalID != ""
}

// HasExternalNumber reports whether documents can be downloaded for the invoice
func (i *Invoice) HasExternalNumber() bool {
	return i.ExternalNumber != nil && *i.ExternalNumber != ""
}

func (i *Invoice) BelongsTo(ownerID string) bool {
	return i.OwnerID == ownerID
}

// Amounts returns the invoice level money breakdown
func (i *Invoice) Amounts() tax.Amounts {
	return tax.Amounts{
		Subtotal:  i.Subtotal,
		TaxAmount: i.TaxAmount,
		Total:     i.Total,
	}
}

// ItemAmounts returns the per item breakdowns in item order
func (i *Invoice) ItemAmounts() []tax.Amounts {
	out := make([]tax.Amounts, 0, len(i.Items))
	for _, item := range i.Items {
		out = append(out, item.Amounts())
	}
	return out
}

// ApplyTotals sets the invoice amounts from a calculated breakdown
func (i *Invoice) ApplyTotals(a tax.Amounts) {
	i.Subtotal = a.Subtotal
	i.TaxAmount = a.TaxAmount
	i.Total = a.Total
}

// ApplyEmission stores the provider assigned identifiers and moves the invoice to EMITTED
func (i *Invoice) ApplyEmission(doc FiscalDocument) {
	i.ExternalID = nonEmpty(doc.ExternalID)
	i.ExternalNumber = nonEmpty(doc.ExternalNumber)
	i.CUFE = nonEmpty(doc.CUFE)
	i.QRCode = nonEmpty(doc.QRCode)
	i.PDFURL = nonEmpty(doc.PDFURL)
	i.XMLURL = nonEmpty(doc.XMLURL)
	i.ExternalStatus = nonEmpty(doc.ExternalStatus)
	registered := types.AuthorityStatusRegistered
	i.AuthorityStatus = &registered
	i.Status = types.InvoiceStatusEmitted
}

// ApplyExternalStatus records the latest provider status. A rejected status
// sends an emitted invoice back to DRAFT so it can be corrected and re-emitted.
// It returns true when the invoice regressed.
func (i *Invoice) ApplyExternalStatus(status string) bool {
	i.ExternalStatus = nonEmpty(status)
	i.AuthorityStatus = nonEmpty(status)
	if types.IsRejectedStatus(status) && i.Status.CanTransitionTo(types.InvoiceStatusDraft) {
		i.Status = types.InvoiceStatusDraft
		return true
	}
	return false
}

// Copy returns a deep copy of the invoice and its items
func (i *Invoice) Copy() *Invoice {
	if i == nil {
		return nil
	}
	out := *i
	out.CustomerID = copyPtr(i.CustomerID)
	out.DueDate = copyPtr(i.DueDate)
	out.ExternalID = copyPtr(i.ExternalID)
	out.ExternalNumber = copyPtr(i.ExternalNumber)
	out.CUFE = copyPtr(i.CUFE)
	out.QRCode = copyPtr(i.QRCode)
	out.PDFURL = copyPtr(i.PDFURL)
	out.XMLURL = copyPtr(i.XMLURL)
	out.ExternalStatus = copyPtr(i.ExternalStatus)
	out.AuthorityStatus = copyPtr(i.AuthorityStatus)
	out.Items = make([]*InvoiceItem, len(i.Items))
	for idx, item := range i.Items {
		c := *item
		c.ProductID = copyPtr(item.ProductID)
		out.Items[idx] = &c
	}
	return &out
}

func (it *InvoiceItem) Amounts() tax.Amounts {
	return tax.Amounts{
		Subtotal:  it.Subtotal,
		TaxAmount: it.TaxAmount,
		Total:     it.Total,
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
