package dto

import (
	"strings"
	"time"

	"github.com/factusapp/factusapp/internal/domain/invoice"
	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/factusapp/factusapp/internal/integration/factus"
	"github.com/factusapp/factusapp/internal/types"
	"github.com/factusapp/factusapp/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest represents the request payload for creating a new invoice
type CreateInvoiceRequest struct {
	// customer_id is the buyer. It may be set later but is required to emit.
	CustomerID *string `json:"customer_id,omitempty"`

	// items are the invoice lines in display order
	Items []CreateInvoiceItemRequest `json:"items" validate:"required,min=1,dive"`

	// payment_method is how the customer pays (CASH, TRANSFER, CARD, NEQUI, DAVIPLATA)
	PaymentMethod types.PaymentMethod `json:"payment_method" validate:"required"`

	Notes   string     `json:"notes,omitempty" validate:"max=1000"`
	DueDate *time.Time `json:"due_date,omitempty"`

	// emit_immediately sends the invoice to the fiscal provider right after it is saved
	EmitImmediately bool `json:"emit_immediately"`
}

// CreateInvoiceItemRequest is one line. Lines either reference a catalog
// product, in which case price and tax come from the product, or describe a
// free text item with an explicit unit price.
type CreateInvoiceItemRequest struct {
	ProductID   *string          `json:"product_id,omitempty"`
	ProductCode string           `json:"product_code,omitempty" validate:"max=50"`
	ProductName string           `json:"product_name,omitempty" validate:"max=255"`
	Quantity    int              `json:"quantity" validate:"gt=0"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	TaxRate     *decimal.Decimal `json:"tax_rate,omitempty"`
	TaxIncluded *bool            `json:"tax_included,omitempty"`
}

func (r *CreateInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.PaymentMethod.Validate(); err != nil {
		return err
	}
	if r.CustomerID != nil && strings.TrimSpace(*r.CustomerID) == "" {
		return ierr.NewError("customer_id is empty").
			WithHint("Omit customer_id or provide a valid customer").
			Mark(ierr.ErrValidation)
	}
	for i, item := range r.Items {
		if err := item.Validate(); err != nil {
			return ierr.WithError(err).
				WithReportableDetails(map[string]any{"item_index": i}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

func (r *CreateInvoiceItemRequest) Validate() error {
	if r.IsInventoryItem() {
		return nil
	}
	if strings.TrimSpace(r.ProductName) == "" {
		return ierr.NewError("product_name is required").
			WithHint("Items without a product_id need a product_name").
			Mark(ierr.ErrValidation)
	}
	if r.UnitPrice == nil {
		return ierr.NewError("unit_price is required").
			WithHint("Items without a product_id need a unit_price").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsInventoryItem reports whether the line references a catalog product
func (r *CreateInvoiceItemRequest) IsInventoryItem() bool {
	return r.ProductID != nil && strings.TrimSpace(*r.ProductID) != ""
}

// CancelInvoiceRequest carries the motive sent to the fiscal provider.
// An empty motive uses the configured default.
type CancelInvoiceRequest struct {
	Motive string `json:"motive" validate:"max=500"`
}

func (r *CancelInvoiceRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ListInvoicesRequest is bound from the query string
type ListInvoicesRequest struct {
	Status     []string `form:"status"`
	CustomerID string   `form:"customer_id"`
	Limit      *int     `form:"limit" validate:"omitempty,min=1,max=500"`
	Offset     *int     `form:"offset" validate:"omitempty,min=0"`
}

// ToFilter converts the query into a store filter scoped to ownerID
func (r *ListInvoicesRequest) ToFilter(ownerID string) (*types.InvoiceFilter, error) {
	if err := validator.ValidateRequest(r); err != nil {
		return nil, err
	}
	filter := types.NewInvoiceFilter()
	filter.OwnerID = ownerID
	filter.CustomerID = r.CustomerID
	filter.Limit = r.Limit
	filter.Offset = r.Offset
	for _, raw := range r.Status {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				filter.Status = append(filter.Status, types.InvoiceStatus(strings.ToUpper(part)))
			}
		}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return filter, nil
}

// InvoiceResponse represents the response payload containing invoice information
type InvoiceResponse struct {
	*invoice.Invoice
}

func NewInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	return &InvoiceResponse{Invoice: inv}
}

// ListInvoicesResponse represents the response payload containing a list of invoices
type ListInvoicesResponse struct {
	Items      []*InvoiceResponse `json:"items"`
	Pagination PaginationResponse `json:"pagination"`
}

func NewListInvoicesResponse(invoices []*invoice.Invoice, total int, filter *types.InvoiceFilter) *ListInvoicesResponse {
	return &ListInvoicesResponse{
		Items:      lo.Map(invoices, func(inv *invoice.Invoice, _ int) *InvoiceResponse { return NewInvoiceResponse(inv) }),
		Pagination: NewPaginationResponse(total, filter.GetLimit(), filter.GetOffset()),
	}
}

// FiscalDocumentResponse is a downloaded XML or PDF encoded in base64
type FiscalDocumentResponse struct {
	InvoiceID     string              `json:"invoice_id"`
	Kind          factus.DocumentKind `json:"kind"`
	FileName      string              `json:"file_name"`
	Base64Content string              `json:"base64_content"`
	Status        string              `json:"status,omitempty"`
	Message       string              `json:"message,omitempty"`
}

func NewFiscalDocumentResponse(invoiceID string, doc *factus.Document) *FiscalDocumentResponse {
	return &FiscalDocumentResponse{
		InvoiceID:     invoiceID,
		Kind:          doc.Kind,
		FileName:      doc.FileName,
		Base64Content: doc.Base64Content,
		Status:        doc.Status,
		Message:       doc.Message,
	}
}
