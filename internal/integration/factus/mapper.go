package factus

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/factusapp/factusapp/internal/config"
	"github.com/factusapp/factusapp/internal/domain/customer"
	"github.com/factusapp/factusapp/internal/domain/invoice"
	"github.com/factusapp/factusapp/internal/domain/tax"
	"github.com/factusapp/factusapp/internal/domain/user"
	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/factusapp/factusapp/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Fixed codes of the provider's reference tables
const (
	documentSalesInvoice     = "01"
	unitMeasureUnit          = 70
	standardCodeTaxpayer     = 1
	tributeIVA               = 1
	customerTributeNotApply  = 21
	legalOrganizationCompany = 1
	notExcluded              = 0
	codeReferenceMaxLen      = 20
	defaultCustomerAddress   = "Calle 1 # 1-1"
	referenceCodePrefix      = "FAC"
)

// identificationDocumentCodes maps document types to the provider's identification document ids
func identificationDocumentCodes() map[types.DocumentType]int {
	return map[types.DocumentType]int{
		types.DocumentTypeCC:  3,
		types.DocumentTypeNIT: 6,
		types.DocumentTypeCE:  4,
		types.DocumentTypeTI:  2,
		types.DocumentTypePP:  7,
		types.DocumentTypeIDC: 8,
	}
}

// paymentMethodCodes maps payment methods to the provider's payment method codes
func paymentMethodCodes() map[types.PaymentMethod]int {
	return map[types.PaymentMethod]int{
		types.PaymentMethodCash:      10,
		types.PaymentMethodTransfer:  48,
		types.PaymentMethodCard:      41,
		types.PaymentMethodNequi:     42,
		types.PaymentMethodDaviplata: 42,
	}
}

// Mapper translates local invoices into provider bill requests
type Mapper struct {
	documentCodes        map[types.DocumentType]int
	paymentCodes         map[types.PaymentMethod]int
	numberingRangeID     int
	municipalityID       int
	establishmentAddress string
	establishmentPhone   string
	clock                *referenceClock
}

// NewMapper builds a mapper and fails if any document type or payment
// method has no provider code
func NewMapper(cfg *config.Configuration) (*Mapper, error) {
	return newMapper(cfg.Factus, identificationDocumentCodes(), paymentMethodCodes())
}

func newMapper(fc config.FactusConfig, documentCodes map[types.DocumentType]int, paymentCodes map[types.PaymentMethod]int) (*Mapper, error) {
	missingDocs := lo.Filter(types.DocumentTypes(), func(d types.DocumentType, _ int) bool {
		_, ok := documentCodes[d]
		return !ok
	})
	missingPayments := lo.Filter(types.PaymentMethods(), func(p types.PaymentMethod, _ int) bool {
		_, ok := paymentCodes[p]
		return !ok
	})
	if len(missingDocs) > 0 || len(missingPayments) > 0 {
		return nil, ierr.NewError("incomplete fiscal code tables").
			WithHint("Every document type and payment method needs a fiscal provider code").
			WithReportableDetails(map[string]any{
				"missing_document_types":  missingDocs,
				"missing_payment_methods": missingPayments,
			}).
			Mark(ierr.ErrSystem)
	}

	return &Mapper{
		documentCodes:        documentCodes,
		paymentCodes:         paymentCodes,
		numberingRangeID:     fc.NumberingRangeID,
		municipalityID:       fc.GetMunicipalityID(),
		establishmentAddress: fc.EstablishmentAddress,
		establishmentPhone:   fc.EstablishmentPhone,
		clock:                newReferenceClock(time.Now),
	}, nil
}

// IdentificationDocumentID returns the provider id for a document type
func (m *Mapper) IdentificationDocumentID(dt types.DocumentType) (int, error) {
	code, ok := m.documentCodes[dt]
	if !ok {
		return 0, ierr.NewError("unknown document type").
			WithHintf("Document type %q is not supported by the fiscal provider", dt).
			Mark(ierr.ErrValidation)
	}
	return code, nil
}

// PaymentMethodCode returns the provider code for a payment method
func (m *Mapper) PaymentMethodCode(pm types.PaymentMethod) (int, error) {
	code, ok := m.paymentCodes[pm]
	if !ok {
		return 0, ierr.NewError("unknown payment method").
			WithHintf("Payment method %q is not supported by the fiscal provider", pm).
			Mark(ierr.ErrValidation)
	}
	return code, nil
}

// ReferenceCode returns a code unique per emission attempt of an invoice
func (m *Mapper) ReferenceCode(invoiceID string) string {
	return fmt.Sprintf("%s-%s-%d", referenceCodePrefix, invoiceID, m.clock.next())
}

// BuildBillRequest maps an invoice, its customer and its owner to a bill request
func (m *Mapper) BuildBillRequest(inv *invoice.Invoice, cust *customer.Customer, owner *user.User) (*BillRequest, error) {
	if inv == nil || cust == nil || owner == nil {
		return nil, ierr.NewError("invoice, customer and owner are required").
			WithHint("The invoice must have a customer before it can be emitted").
			Mark(ierr.ErrValidation)
	}
	if len(inv.Items) == 0 {
		return nil, ierr.NewError("invoice has no items").
			WithHint("An invoice needs at least one item to be emitted").
			Mark(ierr.ErrValidation)
	}

	docID, err := m.IdentificationDocumentID(cust.DocumentType)
	if err != nil {
		return nil, err
	}

	req := &BillRequest{
		Document:      documentSalesInvoice,
		ReferenceCode: m.ReferenceCode(inv.ID),
		Observation:   inv.Notes,
		Customer: BillCustomer{
			IdentificationDocumentID: docID,
			Identification:           cust.DocumentNumber,
			Company:                  cust.Name,
			TradeName:                cust.Name,
			Names:                    cust.Name,
			Address:                  lo.Ternary(strings.TrimSpace(cust.Address) != "", cust.Address, defaultCustomerAddress),
			Email:                    cust.Email,
			Phone:                    cust.Phone,
			LegalOrganizationID:      legalOrganizationCompany,
			TributeID:                customerTributeNotApply,
			MunicipalityID:           m.municipalityID,
		},
		Items: lo.Map(inv.Items, func(item *invoice.InvoiceItem, _ int) BillItem {
			return m.billItem(item)
		}),
		Establishment: &BillEstablishment{
			Name:           owner.Name,
			Address:        m.establishmentAddress,
			PhoneNumber:    m.establishmentPhone,
			Email:          owner.Email,
			MunicipalityID: m.municipalityID,
		},
	}

	if inv.PaymentMethod != "" {
		code, err := m.PaymentMethodCode(inv.PaymentMethod)
		if err != nil {
			return nil, err
		}
		req.PaymentMethodCode = intPtr(code)
	}
	if m.numberingRangeID > 0 {
		req.NumberingRangeID = intPtr(m.numberingRangeID)
	}

	return req, nil
}

// billItem sends the tax inclusive unit price, which is what the provider expects
func (m *Mapper) billItem(item *invoice.InvoiceItem) BillItem {
	code := item.ProductCode
	if strings.TrimSpace(code) == "" {
		code = item.ProductName
	}
	return BillItem{
		CodeReference:  truncate(code, codeReferenceMaxLen),
		Name:           item.ProductName,
		Quantity:       item.Quantity,
		DiscountRate:   NewNumber(decimal.Zero),
		Price:          NewNumber(tax.GrossUnitPrice(item.UnitPrice, item.TaxRate, item.TaxIncluded)),
		TaxRate:        item.TaxRate.StringFixed(2),
		UnitMeasureID:  unitMeasureUnit,
		StandardCodeID: standardCodeTaxpayer,
		IsExcluded:     notExcluded,
		TributeID:      tributeIVA,
	}
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// referenceClock hands out strictly increasing millisecond stamps so two
// emissions in the same millisecond never share a reference code
type referenceClock struct {
	last atomic.Int64
	now  func() time.Time
}

func newReferenceClock(now func() time.Time) *referenceClock {
	return &referenceClock{now: now}
}

func (c *referenceClock) next() int64 {
	for {
		last := c.last.Load()
		stamp := c.now().UnixMilli()
		if stamp <= last {
			stamp = last + 1
		}
		if c.last.CompareAndSwap(last, stamp) {
			return stamp
		}
	}
}

// ToFiscalDocument extracts the provider assigned identifiers of a submitted bill
func ToFiscalDocument(env *BillEnvelope) invoice.FiscalDocument {
	bill := env.Data.Bill
	return invoice.FiscalDocument{
		ExternalID:     bill.ID.String(),
		ExternalNumber: bill.Number,
		CUFE:           bill.CUFE,
		QRCode:         bill.QR,
		PDFURL:         bill.URLPDF,
		XMLURL:         bill.URLXML,
		ExternalStatus: env.StatusText(),
	}
}
