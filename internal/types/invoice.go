package types

import (
	"strings"

	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/samber/lo"
)

// InvoiceStatus is the local lifecycle state of an invoice
type InvoiceStatus string

const (
	// InvoiceStatusDraft is editable and not yet known to the fiscal provider
	InvoiceStatusDraft InvoiceStatus = "DRAFT"
	// InvoiceStatusEmitted has been accepted for validation by the fiscal provider
	InvoiceStatusEmitted InvoiceStatus = "EMITTED"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
)

// InvoiceStatuses lists every status in lifecycle order
func InvoiceStatuses() []InvoiceStatus {
	return []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusEmitted,
		InvoiceStatusPaid,
		InvoiceStatusOverdue,
	}
}

// invoiceTransitions holds the allowed forward moves. EMITTED -> DRAFT is
// only reachable through a rejection reported by the tax authority.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:   {InvoiceStatusEmitted},
	InvoiceStatusEmitted: {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusDraft},
}

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	if !lo.Contains(InvoiceStatuses(), s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Invalid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": InvoiceStatuses(),
				"status":  s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CanTransitionTo reports whether moving from s to next is a defined transition
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	return lo.Contains(invoiceTransitions[s], next)
}

// IsEmitted is true for every status reached after a successful emission
func (s InvoiceStatus) IsEmitted() bool {
	return s == InvoiceStatusEmitted || s == InvoiceStatusPaid || s == InvoiceStatusOverdue
}

// AuthorityStatus values written locally. Anything else comes verbatim from the provider.
const (
	AuthorityStatusRegistered = "REGISTERED"
)

var rejectedStatuses = []string{"rejected", "rechazada"}

// IsRejectedStatus reports whether a provider or authority status means the
// document was rejected
func IsRejectedStatus(status string) bool {
	return lo.Contains(rejectedStatuses, strings.ToLower(strings.TrimSpace(status)))
}

// InvoiceFilter narrows invoice listings for one owner
type InvoiceFilter struct {
	OwnerID    string          `json:"-" form:"-"`
	Status     []InvoiceStatus `json:"status,omitempty" form:"status"`
	CustomerID string          `json:"customer_id,omitempty" form:"customer_id"`
	Limit      *int            `json:"limit,omitempty" form:"limit" validate:"omitempty,min=1,max=500"`
	Offset     *int            `json:"offset,omitempty" form:"offset" validate:"omitempty,min=0"`
}

const (
	FILTER_DEFAULT_LIMIT = 50
)

func NewInvoiceFilter() *InvoiceFilter {
	return &InvoiceFilter{
		Limit:  lo.ToPtr(FILTER_DEFAULT_LIMIT),
		Offset: lo.ToPtr(0),
	}
}

func (f *InvoiceFilter) GetLimit() int {
	if f == nil || f.Limit == nil {
		return FILTER_DEFAULT_LIMIT
	}
	return *f.Limit
}

func (f *InvoiceFilter) GetOffset() int {
	if f == nil || f.Offset == nil {
		return 0
	}
	return *f.Offset
}

func (f *InvoiceFilter) Validate() error {
	if f == nil {
		return nil
	}
	for _, s := range f.Status {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if f.Limit != nil && *f.Limit <= 0 {
		return ierr.NewError("limit must be positive").
			WithHint("Limit must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	if f.Offset != nil && *f.Offset < 0 {
		return ierr.NewError("offset must be non-negative").
			WithHint("Offset cannot be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}
